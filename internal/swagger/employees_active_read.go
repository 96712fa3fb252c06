package swagger

import "github.com/antonio-alexander/go-employee-booking/internal/data"

// swagger:route GET /api/employees/active Employee ReadEmployeesActive
// Reads all active employees, no active employees is a not found.
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
// responses:
//   200: EmployeesActiveGetResponseOk
//   404: ResponseNotFound
//   417: ResponseExpectationFailed

// swagger:response EmployeesActiveGetResponseOk
type EmployeesActiveGetResponseOk struct {
	// in:body
	Employees []data.Employee `json:"employees"`
}

// swagger:parameters ReadEmployeesActive
type EmployeesActiveGetParams struct {
	// in:header
	CorrelationId string `json:"Correlation-Id"`
}
