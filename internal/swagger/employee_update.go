package swagger

import "github.com/antonio-alexander/go-employee-booking/internal/data"

// swagger:route PUT /api/employees/{id} Employee UpdateEmployee
// Replaces every field (except the id) of an employee, omitted
// fields are cleared.
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
// responses:
//   200: EmployeePutResponseOk
//   404: ResponseNotFound
//   417: ResponseExpectationFailed

// swagger:response EmployeePutResponseOk
type EmployeePutResponseOk struct {
	// in:body
	Employee data.Employee `json:"employee"`
}

// swagger:parameters UpdateEmployee
type EmployeePutParams struct {
	// in:path
	Id int64 `json:"id"`

	// in:body
	Employee data.Employee `json:"employee"`

	// in:header
	CorrelationId string `json:"Correlation-Id"`
}
