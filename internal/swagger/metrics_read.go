package swagger

// swagger:route GET /metrics Metrics ReadMetrics
// Reads the prometheus metrics (text exposition format).
//
//     Produces:
//     - text/plain
//
// responses:
//   200: MetricsGetResponseOk

// swagger:response MetricsGetResponseOk
type MetricsGetResponseOk struct {
	// in:body
	Metrics string
}
