package swagger

// swagger:route DELETE /cache Cache ClearCache
// Evicts every cached employee and employee search, the next read of
// each goes to the database. Succeeds without doing anything when the
// service runs without a cache.
//
// responses:
//   204: CacheClearResponseNoContent
//   417: ResponseExpectationFailed

// swagger:response CacheClearResponseNoContent
type CacheClearResponseNoContent struct{}

// swagger:parameters ClearCache
type CacheClearParams struct {
	// in:header
	CorrelationId string `json:"Correlation-Id"`
}
