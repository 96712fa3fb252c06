package swagger

// swagger:route DELETE /api/employees Employee DeleteEmployees
// Deletes all employees.
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
// responses:
//   204: EmployeesDeleteResponseNoContent
//   417: ResponseExpectationFailed

// swagger:response EmployeesDeleteResponseNoContent
type EmployeesDeleteResponseNoContent struct{}

// swagger:parameters DeleteEmployees
type EmployeesDeleteParams struct {
	// in:header
	CorrelationId string `json:"Correlation-Id"`
}
