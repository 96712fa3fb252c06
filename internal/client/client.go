package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-booking/internal"
	"github.com/antonio-alexander/go-employee-booking/internal/data"
	"github.com/antonio-alexander/go-employee-booking/internal/utilities"

	"github.com/pkg/errors"
)

type Client interface {
	EmployeesRead(ctx context.Context, firstNameFilter string) ([]*data.Employee, error)
	EmployeesActiveRead(ctx context.Context) ([]*data.Employee, error)
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeeCreate(ctx context.Context, employee *data.Employee) (*data.Employee, error)
	EmployeeUpdate(ctx context.Context, id int64, employee *data.Employee) (*data.Employee, error)
	EmployeeDelete(ctx context.Context, id int64) error
	EmployeesDelete(ctx context.Context) error
	CacheClear(ctx context.Context) error
	CacheCountersRead(ctx context.Context) (*data.CacheCounters, error)
	CacheCountersClear(ctx context.Context) error
	TimersRead(ctx context.Context) (*data.Timers, error)
	TimersClear(ctx context.Context) error
}

type client struct {
	sync.RWMutex
	config struct {
		protocol   string
		address    string
		port       string
		timeout    int64
		sslCaFile  string
		sslCrtFile string
		sslKeyFile string
	}
	address string
	utilities.Logger
	*http.Client
}

func NewClient(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Client
} {
	c := &client{
		Client: &http.Client{},
		Logger: utilities.NewNopLogger(),
	}
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case utilities.Logger:
			c.Logger = p
		}
	}
	return c
}

func (c *client) doRequest(ctx context.Context, uri, method string, item any) ([]byte, error) {
	var contentType string
	var body io.Reader

	switch d := item.(type) {
	case []byte:
		body = bytes.NewBuffer(d)
		contentType = "application/json"
	case url.Values:
		if len(d) > 0 {
			uri = uri + "?" + d.Encode()
		}
	}
	request, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		request.Header.Add("Content-Type", contentType)
	}
	if correlationId := internal.CorrelationIdFromCtx(ctx); correlationId != "" {
		request.Header.Add(data.HeaderCorrelationId, correlationId)
	}
	response, err := c.Do(request)
	if err != nil {
		return nil, err
	}
	bytes, err := io.ReadAll(response.Body)
	defer response.Body.Close()
	if err != nil {
		return nil, err
	}
	switch response.StatusCode {
	default:
		return nil, &StatusError{
			StatusCode: response.StatusCode,
			Body:       string(bytes),
		}
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return bytes, nil
	}
}

func (c *client) Configure(envs map[string]string) error {
	c.config.protocol = "http"
	if address, ok := envs["CLIENT_ADDRESS"]; ok {
		c.config.address = address
	}
	if port, ok := envs["CLIENT_PORT"]; ok {
		c.config.port = port
	}
	if protocol := envs["CLIENT_PROTOCOL"]; protocol != "" {
		c.config.protocol = protocol
	}
	if timeout := envs["CLIENT_TIMEOUT"]; timeout != "" {
		i, err := strconv.ParseInt(timeout, 10, 64)
		if err != nil {
			return errors.Wrap(err, "unable to parse CLIENT_TIMEOUT")
		}
		c.config.timeout = i
	}
	if sslCaFile, ok := envs["SSL_CA_FILE"]; ok {
		c.config.sslCaFile = sslCaFile
	}
	if sslKeyFile, ok := envs["SSL_KEY_FILE"]; ok {
		c.config.sslKeyFile = sslKeyFile
	}
	if sslCrtFile, ok := envs["SSL_CRT_FILE"]; ok {
		c.config.sslCrtFile = sslCrtFile
	}
	return nil
}

func (c *client) Open(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	switch c.config.protocol {
	default:
		return errors.Errorf("unsupported protocol: %s", c.config.protocol)
	case "http", "https":
		c.address = fmt.Sprintf("%s://%s", c.config.protocol,
			net.JoinHostPort(c.config.address, c.config.port))
	}
	c.Client.Timeout = time.Duration(c.config.timeout) * time.Second
	transport, err := getTransport(c.config.sslCaFile, c.config.sslCrtFile,
		c.config.sslKeyFile)
	if err != nil {
		return err
	}
	c.Client.Transport = transport
	c.Debug(ctx, "client configured for: %s", c.address)
	return nil
}

func (c *client) Close(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.Client.CloseIdleConnections()
	return nil
}

func (c *client) employee(bytes []byte) (*data.Employee, error) {
	employee := &data.Employee{}
	if err := json.Unmarshal(bytes, employee); err != nil {
		return nil, errors.Wrap(err, "unable to unmarshal employee")
	}
	return employee, nil
}

func (c *client) employees(bytes []byte) ([]*data.Employee, error) {
	employees := []*data.Employee{}
	if err := json.Unmarshal(bytes, &employees); err != nil {
		return nil, errors.Wrap(err, "unable to unmarshal employees")
	}
	return employees, nil
}

func (c *client) EmployeesRead(ctx context.Context, firstNameFilter string) ([]*data.Employee, error) {
	search := data.EmployeeSearch{}
	if firstNameFilter != "" {
		search.FirstNameContaining = &firstNameFilter
	}
	uri := c.address + data.RouteEmployees
	bytes, err := c.doRequest(ctx, uri, http.MethodGet, search.ToParams())
	if err != nil {
		return nil, err
	}
	return c.employees(bytes)
}

func (c *client) EmployeesActiveRead(ctx context.Context) ([]*data.Employee, error) {
	uri := c.address + data.RouteEmployeesActive
	bytes, err := c.doRequest(ctx, uri, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	return c.employees(bytes)
}

func (c *client) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	uri := fmt.Sprintf(c.address+data.RouteEmployeesIdf, id)
	bytes, err := c.doRequest(ctx, uri, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	return c.employee(bytes)
}

func (c *client) EmployeeCreate(ctx context.Context, employee *data.Employee) (*data.Employee, error) {
	bytes, err := json.Marshal(employee)
	if err != nil {
		return nil, err
	}
	uri := c.address + data.RouteEmployees
	bytes, err = c.doRequest(ctx, uri, http.MethodPost, bytes)
	if err != nil {
		return nil, err
	}
	return c.employee(bytes)
}

func (c *client) EmployeeUpdate(ctx context.Context, id int64, employee *data.Employee) (*data.Employee, error) {
	bytes, err := json.Marshal(employee)
	if err != nil {
		return nil, err
	}
	uri := fmt.Sprintf(c.address+data.RouteEmployeesIdf, id)
	bytes, err = c.doRequest(ctx, uri, http.MethodPut, bytes)
	if err != nil {
		return nil, err
	}
	return c.employee(bytes)
}

func (c *client) EmployeeDelete(ctx context.Context, id int64) error {
	uri := fmt.Sprintf(c.address+data.RouteEmployeesIdf, id)
	if _, err := c.doRequest(ctx, uri, http.MethodDelete, nil); err != nil {
		return err
	}
	return nil
}

func (c *client) EmployeesDelete(ctx context.Context) error {
	uri := c.address + data.RouteEmployees
	if _, err := c.doRequest(ctx, uri, http.MethodDelete, nil); err != nil {
		return err
	}
	return nil
}

func (c *client) CacheClear(ctx context.Context) error {
	uri := c.address + data.RouteCache
	if _, err := c.doRequest(ctx, uri, http.MethodDelete, nil); err != nil {
		return err
	}
	return nil
}

func (c *client) CacheCountersRead(ctx context.Context) (*data.CacheCounters, error) {
	uri := c.address + data.RouteCacheCounters
	bytes, err := c.doRequest(ctx, uri, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	response := &data.CacheCounters{}
	if err := json.Unmarshal(bytes, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) CacheCountersClear(ctx context.Context) error {
	uri := c.address + data.RouteCacheCounters
	if _, err := c.doRequest(ctx, uri, http.MethodDelete, nil); err != nil {
		return err
	}
	return nil
}

func (c *client) TimersRead(ctx context.Context) (*data.Timers, error) {
	uri := c.address + data.RouteTimers
	bytes, err := c.doRequest(ctx, uri, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	response := &data.Timers{}
	if err := json.Unmarshal(bytes, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) TimersClear(ctx context.Context) error {
	uri := c.address + data.RouteTimers
	if _, err := c.doRequest(ctx, uri, http.MethodDelete, nil); err != nil {
		return err
	}
	return nil
}
