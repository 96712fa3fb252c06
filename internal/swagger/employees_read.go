package swagger

import "github.com/antonio-alexander/go-employee-booking/internal/data"

// swagger:route GET /api/employees Employee ReadEmployees
// Reads all employees, optionally those whose first name contains
// the filter (case-sensitive).
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
// responses:
//   200: EmployeesGetResponseOk
//   417: ResponseExpectationFailed

// swagger:response EmployeesGetResponseOk
type EmployeesGetResponseOk struct {
	// in:body
	Employees []data.Employee `json:"employees"`
}

// swagger:parameters ReadEmployees
type EmployeesGetParams struct {
	// in:query
	FirstNameFilter string `json:"firstNameFilter"`

	// in:header
	CorrelationId string `json:"Correlation-Id"`
}
