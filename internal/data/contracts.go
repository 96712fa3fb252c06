package data

import "encoding/json"

const (
	RouteApi                 string = "/api"
	RouteEmployees           string = RouteApi + "/employees"
	RouteEmployeesActive     string = RouteEmployees + "/active"
	RouteEmployeesId         string = RouteEmployees + "/{" + PathId + ":[0-9]+}"
	RouteEmployeesIdf        string = RouteEmployees + "/%d"
	RouteCache               string = "/cache"
	RouteCacheCounters       string = RouteCache + "/counters"
	RouteTimers              string = "/timers"
	RouteMetrics             string = "/metrics"
	RouteDefault             string = "/"
	HeaderCorrelationId      string = "Correlation-Id"
	DefaultCorsAllowedOrigin string = "http://localhost:8081"
)

const PathId string = "id"

const ParameterFirstNameFilter string = "firstNameFilter"

// Response is used by the cache to store the result of a search
type Response struct {
	Employees []*Employee `json:"employees"`
}

func (r *Response) MarshalBinary() ([]byte, error) {
	return json.Marshal(r)
}

func (r *Response) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, r)
}
