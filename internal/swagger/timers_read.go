package swagger

import "github.com/antonio-alexander/go-employee-booking/internal/data"

// swagger:route GET /timers Timers ReadTimers
// Reads the total and average time (in nanoseconds) spent in each
// endpoint (e.g. employee_read, employees_active_read) since the
// timers were last cleared; empty when SERVICE_TIMERS_ENABLED is false.
//
//     Produces:
//     - application/json
//
// responses:
//   200: TimersReadResponseOk

// swagger:response TimersReadResponseOk
type TimersReadResponseOk struct {
	// in:body
	Body data.Timers
}

// swagger:parameters ReadTimers
type TimersReadParams struct {
	// in:header
	CorrelationId string `json:"Correlation-Id"`
}
