package swagger

// the body is always empty, the error is only logged by the service

// swagger:response ResponseNotFound
type ResponseNotFound struct{}

// swagger:response ResponseExpectationFailed
type ResponseExpectationFailed struct{}
