package swagger

// swagger:route DELETE /api/employees/{id} Employee DeleteEmployee
// Deletes an employee using its id, deleting an employee that
// doesn't exist isn't an error.
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
// responses:
//   204: EmployeeDeleteResponseNoContent
//   417: ResponseExpectationFailed

// swagger:response EmployeeDeleteResponseNoContent
type EmployeeDeleteResponseNoContent struct{}

// swagger:parameters DeleteEmployee
type EmployeeDeleteParams struct {
	// in:path
	Id int64 `json:"id"`

	// in:header
	CorrelationId string `json:"Correlation-Id"`
}
