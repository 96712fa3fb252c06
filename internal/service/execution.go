package service

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/antonio-alexander/go-employee-booking/internal"
	"github.com/antonio-alexander/go-employee-booking/internal/data"
)

// statusWriter remembers the status code written so it can be used
// for metrics
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func idFromPath(pathVariables map[string]string) (int64, error) {
	return strconv.ParseInt(pathVariables[data.PathId], 10, 64)
}

func getCorrelationId(request *http.Request) string {
	if correlationId := request.Header.Get(data.HeaderCorrelationId); correlationId != "" {
		return correlationId
	}
	return internal.GenerateId()
}

func employeeFromBody(request *http.Request) (*data.Employee, error) {
	employee := &data.Employee{}
	bytes, err := io.ReadAll(request.Body)
	defer request.Body.Close()
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(bytes, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

// handleResponse writes the status code and, if provided, the item as
// json; error responses never have a body
func handleResponse(writer http.ResponseWriter, statusCode int, item any) error {
	if item == nil {
		writer.WriteHeader(statusCode)
		return nil
	}
	bytes, err := json.Marshal(item)
	if err != nil {
		writer.WriteHeader(http.StatusExpectationFailed)
		return err
	}
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	if _, err := writer.Write(bytes); err != nil {
		return err
	}
	return nil
}
