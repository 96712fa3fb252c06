package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-booking/internal"
	"github.com/antonio-alexander/go-employee-booking/internal/data"
	"github.com/antonio-alexander/go-employee-booking/internal/logic"
	"github.com/antonio-alexander/go-employee-booking/internal/utilities"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

var (
	Version   string
	GitCommit string
	GitBranch string
)

func init() {
	if Version = data.Version; Version == "" {
		Version = "<no_version_provided>"
	}
	if GitCommit = data.GitCommit; GitCommit == "" {
		GitCommit = "<no_git_commit>"
	}
	if GitBranch = data.GitBranch; GitBranch == "" {
		GitBranch = "<no_git_branch>"
	}
}

type service struct {
	sync.RWMutex
	sync.WaitGroup
	config struct {
		address          string
		port             string
		shutdownTimeout  time.Duration
		allowedOrigins   []string
		allowedMethods   []string
		allowedHeaders   []string
		allowCredentials bool
		corsDisabled     bool
		corsDebug        bool
		timersEnabled    bool
	}
	router  *mux.Router
	server  *http.Server
	cache   internal.Clearer
	timers  utilities.Timers
	counter utilities.Counter
	metrics *metrics
	utilities.Logger
	logic.Logic
}

func NewService(parameters ...any) interface {
	internal.Configurer
	internal.Opener
} {
	router := mux.NewRouter()
	s := &service{
		router:  router,
		server:  &http.Server{Handler: router},
		metrics: newMetrics(),
		Logger:  utilities.NewNopLogger(),
	}
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case logic.Logic:
			s.Logic = p
		case internal.Clearer:
			s.cache = p
		case utilities.Counter:
			s.counter = p
		case utilities.Timers:
			s.timers = p
		case utilities.Logger:
			s.Logger = p
		}
	}
	if s.counter == nil {
		s.counter = utilities.NewCounter()
	}
	if s.timers == nil {
		s.timers = utilities.NewTimers()
	}
	return s
}

func (s *service) launchServer() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	if !s.config.corsDisabled {
		s.server.Handler = cors.New(cors.Options{
			AllowedOrigins:   s.config.allowedOrigins,
			AllowCredentials: s.config.allowCredentials,
			AllowedMethods:   s.config.allowedMethods,
			AllowedHeaders:   s.config.allowedHeaders,
			Debug:            s.config.corsDebug,
		}).Handler(s.router)
	}
	s.Add(1)
	go func() {
		defer s.Done()

		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Error(context.Background(), "server stopped unexpectedly: %s", err)
		}
	}()
	s.Info(context.Background(), "started server: %s", listener.Addr())
	return nil
}

// instrument attaches a correlation id to the request context and records
// the elapsed time (timers and metrics) of the endpoint
func (s *service) instrument(endpoint string, handlerFx func(context.Context, http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		correlationId := getCorrelationId(request)
		ctx := internal.CtxWithCorrelationId(request.Context(), correlationId)
		writer.Header().Set(data.HeaderCorrelationId, correlationId)
		sw := &statusWriter{ResponseWriter: writer, statusCode: http.StatusOK}
		tStart := time.Now()
		if s.config.timersEnabled {
			timerIndex := s.timers.Start(endpoint)
			defer func() {
				elapsedtime := s.timers.Stop(endpoint, timerIndex)
				s.Trace(ctx, "%s took %v", endpoint,
					time.Duration(elapsedtime)*time.Nanosecond)
			}()
		}
		handlerFx(ctx, sw, request)
		s.metrics.observe(endpoint, sw.statusCode, time.Since(tStart))
	}
}

func (s *service) respond(ctx context.Context, writer http.ResponseWriter, statusCode int, item any) {
	if err := handleResponse(writer, statusCode, item); err != nil {
		s.Error(ctx, "error handling response: %s", err)
	}
}

// respondError logs the error and responds with the generic failure
// status, the body is always empty
func (s *service) respondError(ctx context.Context, writer http.ResponseWriter, err error) {
	s.Error(ctx, "%s", err)
	s.respond(ctx, writer, http.StatusExpectationFailed, nil)
}

func (s *service) endpointDefault() func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		fmt.Fprintf(writer,
			"go-employee-booking\n"+
				"Version: \"%s\"\n"+
				"Git Commit: \"%s\"\n"+
				"Git Branch: \"%s\"\n",
			Version, GitCommit, GitBranch)
	}
}

func (s *service) endpointEmployeesRead(ctx context.Context, writer http.ResponseWriter, request *http.Request) {
	var search data.EmployeeSearch
	var employees []*data.Employee
	var err error

	if err := request.ParseForm(); err != nil {
		s.respondError(ctx, writer, err)
		return
	}
	search.FromParams(request.Form)
	switch {
	default:
		employees, err = s.EmployeesRead(ctx)
	case search.FirstNameContaining != nil:
		employees, err = s.EmployeesReadByFirstNameContaining(ctx,
			*search.FirstNameContaining)
	}
	if err != nil {
		s.respondError(ctx, writer, err)
		return
	}
	if employees == nil {
		employees = []*data.Employee{}
	}
	s.respond(ctx, writer, http.StatusOK, employees)
	s.Trace(ctx, "executed employees_read: %s", search.String())
}

func (s *service) endpointEmployeesActiveRead(ctx context.Context, writer http.ResponseWriter, request *http.Request) {
	employees, err := s.EmployeesReadByActive(ctx, true)
	if err != nil {
		s.respondError(ctx, writer, err)
		return
	}
	if len(employees) == 0 {
		s.respond(ctx, writer, http.StatusNotFound, nil)
		return
	}
	s.respond(ctx, writer, http.StatusOK, employees)
	s.Trace(ctx, "executed employees_active_read: %d", len(employees))
}

func (s *service) endpointEmployeeRead(ctx context.Context, writer http.ResponseWriter, request *http.Request) {
	id, err := idFromPath(mux.Vars(request))
	if err != nil {
		s.respond(ctx, writer, http.StatusNotFound, nil)
		return
	}
	employee, err := s.EmployeeRead(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrEmployeeNotFound) {
			s.respond(ctx, writer, http.StatusNotFound, nil)
			return
		}
		s.respondError(ctx, writer, err)
		return
	}
	s.respond(ctx, writer, http.StatusOK, employee)
	s.Trace(ctx, "executed employee_read: %d", employee.Id)
}

func (s *service) endpointEmployeeCreate(ctx context.Context, writer http.ResponseWriter, request *http.Request) {
	newEmployee, err := employeeFromBody(request)
	if err != nil {
		s.respondError(ctx, writer, err)
		return
	}
	// the id is never taken from the payload
	employee := &data.Employee{}
	employee.Replace(newEmployee)
	employeeCreated, err := s.EmployeeSave(ctx, employee)
	if err != nil {
		s.respondError(ctx, writer, err)
		return
	}
	s.respond(ctx, writer, http.StatusCreated, employeeCreated)
	s.Trace(ctx, "executed employee_create: %d", employeeCreated.Id)
}

func (s *service) endpointEmployeeUpdate(ctx context.Context, writer http.ResponseWriter, request *http.Request) {
	id, err := idFromPath(mux.Vars(request))
	if err != nil {
		s.respond(ctx, writer, http.StatusNotFound, nil)
		return
	}
	newEmployee, err := employeeFromBody(request)
	if err != nil {
		s.respondError(ctx, writer, err)
		return
	}
	employee, err := s.EmployeeRead(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrEmployeeNotFound) {
			s.respond(ctx, writer, http.StatusNotFound, nil)
			return
		}
		s.respondError(ctx, writer, err)
		return
	}
	employee.Replace(newEmployee)
	employeeUpdated, err := s.EmployeeSave(ctx, employee)
	if err != nil {
		//KIM: the employee can be deleted between the read and the save
		if errors.Is(err, data.ErrEmployeeNotFound) {
			s.respond(ctx, writer, http.StatusNotFound, nil)
			return
		}
		s.respondError(ctx, writer, err)
		return
	}
	s.respond(ctx, writer, http.StatusOK, employeeUpdated)
	s.Trace(ctx, "executed employee_update: %d", employeeUpdated.Id)
}

func (s *service) endpointEmployeeDelete(ctx context.Context, writer http.ResponseWriter, request *http.Request) {
	id, err := idFromPath(mux.Vars(request))
	if err != nil {
		s.respond(ctx, writer, http.StatusNotFound, nil)
		return
	}
	if err := s.EmployeeDelete(ctx, id); err != nil {
		s.respondError(ctx, writer, err)
		return
	}
	s.respond(ctx, writer, http.StatusNoContent, nil)
	s.Trace(ctx, "executed employee_delete: %d", id)
}

func (s *service) endpointEmployeesDelete(ctx context.Context, writer http.ResponseWriter, request *http.Request) {
	if err := s.EmployeesDelete(ctx); err != nil {
		s.respondError(ctx, writer, err)
		return
	}
	s.respond(ctx, writer, http.StatusNoContent, nil)
	s.Trace(ctx, "executed employees_delete")
}

func (s *service) endpointCacheClear(ctx context.Context, writer http.ResponseWriter, request *http.Request) {
	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			s.respondError(ctx, writer, err)
			return
		}
		s.Trace(ctx, "executed cache_clear")
	}
	s.respond(ctx, writer, http.StatusNoContent, nil)
}

func (s *service) endpointCacheCountersRead(ctx context.Context, writer http.ResponseWriter, _ *http.Request) {
	s.respond(ctx, writer, http.StatusOK, s.counter.ReadAll())
}

func (s *service) endpointCacheCountersClear(ctx context.Context, writer http.ResponseWriter, _ *http.Request) {
	s.counter.Reset()
	s.respond(ctx, writer, http.StatusNoContent, nil)
	s.Trace(ctx, "executed cache_counters_clear")
}

func (s *service) endpointTimersRead(ctx context.Context, writer http.ResponseWriter, _ *http.Request) {
	s.respond(ctx, writer, http.StatusOK, s.timers.ReadAll())
}

func (s *service) endpointTimersClear(ctx context.Context, writer http.ResponseWriter, _ *http.Request) {
	s.timers.Clear()
	s.respond(ctx, writer, http.StatusNoContent, nil)
	s.Trace(ctx, "executed timers_clear")
}

func (s *service) buildRoutes() {
	s.router.HandleFunc(data.RouteDefault, s.endpointDefault())
	s.router.Handle(data.RouteMetrics, s.metrics.handler())
	employeesRead := s.instrument("employees_read", s.endpointEmployeesRead)
	employeeCreate := s.instrument("employee_create", s.endpointEmployeeCreate)
	employeesDelete := s.instrument("employees_delete", s.endpointEmployeesDelete)
	s.router.HandleFunc(data.RouteEmployees, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			employeesRead(w, r)
		case http.MethodPost:
			employeeCreate(w, r)
		case http.MethodDelete:
			employeesDelete(w, r)
		}
	})
	employeesActiveRead := s.instrument("employees_active_read", s.endpointEmployeesActiveRead)
	s.router.HandleFunc(data.RouteEmployeesActive, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			employeesActiveRead(w, r)
		}
	})
	employeeRead := s.instrument("employee_read", s.endpointEmployeeRead)
	employeeUpdate := s.instrument("employee_update", s.endpointEmployeeUpdate)
	employeeDelete := s.instrument("employee_delete", s.endpointEmployeeDelete)
	s.router.HandleFunc(data.RouteEmployeesId, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			employeeRead(w, r)
		case http.MethodPut:
			employeeUpdate(w, r)
		case http.MethodDelete:
			employeeDelete(w, r)
		}
	})
	cacheClear := s.instrument("cache_clear", s.endpointCacheClear)
	s.router.HandleFunc(data.RouteCache, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodDelete:
			cacheClear(w, r)
		}
	})
	cacheCountersRead := s.instrument("cache_counters_read", s.endpointCacheCountersRead)
	cacheCountersClear := s.instrument("cache_counters_clear", s.endpointCacheCountersClear)
	s.router.HandleFunc(data.RouteCacheCounters, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			cacheCountersRead(w, r)
		case http.MethodDelete:
			cacheCountersClear(w, r)
		}
	})
	timersRead := s.instrument("timers_read", s.endpointTimersRead)
	timersClear := s.instrument("timers_clear", s.endpointTimersClear)
	s.router.HandleFunc(data.RouteTimers, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			timersRead(w, r)
		case http.MethodDelete:
			timersClear(w, r)
		}
	})
}

func (s *service) Configure(envs map[string]string) error {
	s.config.shutdownTimeout = 10 * time.Second
	s.config.allowedOrigins = []string{data.DefaultCorsAllowedOrigin}
	s.config.allowedMethods = []string{http.MethodGet, http.MethodPost,
		http.MethodPut, http.MethodDelete}
	s.config.allowedHeaders = []string{"Accept", "Content-Type",
		"X-Requested-With", data.HeaderCorrelationId}
	if address, ok := envs["SERVICE_ADDRESS"]; ok {
		s.config.address = address
	}
	if port, ok := envs["SERVICE_PORT"]; ok {
		s.config.port = port
	}
	if shutdownTimeoutString, ok := envs["SERVICE_SHUTDOWN_TIMEOUT"]; ok {
		if shutdownTimeoutInt, err := strconv.Atoi(shutdownTimeoutString); err == nil {
			if timeout := time.Duration(shutdownTimeoutInt) * time.Second; timeout > 0 {
				s.config.shutdownTimeout = timeout
			}
		}
	}
	if allowCredentialsString, ok := envs["SERVICE_CORS_ALLOW_CREDENTIALS"]; ok {
		if allowCredentials, err := strconv.ParseBool(allowCredentialsString); err == nil {
			s.config.allowCredentials = allowCredentials
		}
	}
	if allowedOrigins := envs["SERVICE_CORS_ALLOWED_ORIGINS"]; allowedOrigins != "" {
		s.config.allowedOrigins = strings.Split(allowedOrigins, ",")
	}
	if allowedMethods := envs["SERVICE_CORS_ALLOWED_METHODS"]; allowedMethods != "" {
		s.config.allowedMethods = strings.Split(allowedMethods, ",")
	}
	if allowedHeaders := envs["SERVICE_CORS_ALLOWED_HEADERS"]; allowedHeaders != "" {
		s.config.allowedHeaders = strings.Split(allowedHeaders, ",")
	}
	if corsDisabledString, ok := envs["SERVICE_CORS_DISABLED"]; ok {
		if corsDisabled, err := strconv.ParseBool(corsDisabledString); err == nil {
			s.config.corsDisabled = corsDisabled
		}
	}
	if corsDebug, ok := envs["SERVICE_CORS_DEBUG"]; ok {
		if corsDebug, err := strconv.ParseBool(corsDebug); err == nil {
			s.config.corsDebug = corsDebug
		}
	}
	if timersEnabled := envs["SERVICE_TIMERS_ENABLED"]; timersEnabled != "" {
		s.config.timersEnabled, _ = strconv.ParseBool(timersEnabled)
	}
	return nil
}

func (s *service) Open(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if s.Logic == nil {
		return errors.New("logic not provided")
	}
	s.server.Addr = net.JoinHostPort(s.config.address, s.config.port)
	s.buildRoutes()
	return s.launchServer()
}

func (s *service) Close(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.config.shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.Error(ctx, "error while shutting down the server: %s", err)
	}
	s.Wait()
	return nil
}
