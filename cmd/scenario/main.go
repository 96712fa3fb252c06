package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/antonio-alexander/go-employee-booking/internal"
	"github.com/antonio-alexander/go-employee-booking/internal/client"
	"github.com/antonio-alexander/go-employee-booking/internal/data"
	"github.com/antonio-alexander/go-employee-booking/internal/utilities"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
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

func main() {
	args := os.Args[1:]
	_ = godotenv.Load()
	envs := make(map[string]string)
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal, syscall.SIGINT, syscall.SIGTERM)
	if err := Main(args, envs, osSignal); err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(1)
	}
}

// determine hit/miss ratio of the employee and the active list with
// concurrent reads while a single writer replaces the employee; run it
// against a service with and without CACHE_ENABLE_IN_PROGRESS to compare
func scenarioStampedingHerd(ctx context.Context, envs map[string]string, logger utilities.Logger,
	clients ...client.Client) error {
	const correlationId string = "scenario_stampeding_herd"
	const minClients int = 2

	var readInterval time.Duration = time.Second
	var updateInterval time.Duration = 2 * time.Second
	var scenarioDuration time.Duration = 10 * time.Second
	var wg sync.WaitGroup

	if s := envs["SCENARIO_READ_INTERVAL"]; s != "" {
		i, _ := strconv.Atoi(s)
		readInterval = time.Duration(i) * time.Second
	}
	if s := envs["SCENARIO_UPDATE_INTERVAL"]; s != "" {
		i, _ := strconv.Atoi(s)
		updateInterval = time.Duration(i) * time.Second
	}
	if s := envs["SCENARIO_DURATION"]; s != "" {
		i, _ := strconv.Atoi(s)
		scenarioDuration = time.Duration(i) * time.Second
	}
	if len(clients) < minClients {
		return errors.New("not enough clients provided")
	}

	//generate context
	ctx = internal.CtxWithCorrelationId(ctx, correlationId)

	// create employee using the first client
	firstName := internal.GenerateId()[:14]
	lastName := internal.GenerateId()[:16]
	employeeCreated, err := clients[0].EmployeeCreate(ctx, &data.Employee{
		FirstName: &firstName,
		LastName:  &lastName,
		HireDate:  data.DateFromTime(time.Now()),
		Active:    true,
	})
	if err != nil {
		return err
	}
	id := employeeCreated.Id
	defer func(id int64) {
		_ = clients[0].EmployeeDelete(ctx, id)
		logger.Info(ctx, "deleted employee: %d", id)
	}(id)
	logger.Info(ctx, "created employee: %d", id)

	//generate start/stop channels
	start, stop := make(chan struct{}), make(chan struct{})

	//create writer go routine
	wg.Add(1)
	go func(ctx context.Context, client client.Client) {
		defer wg.Done()
		ctx = internal.CtxWithCorrelationId(ctx, correlationId)
		updateEmployeeFx := func(ctx context.Context) error {
			// update is a full replace, every field is provided
			firstName := internal.GenerateId()[:14]
			lastName := internal.GenerateId()[:16]
			if _, err := client.EmployeeUpdate(ctx, id,
				&data.Employee{
					FirstName: &firstName,
					LastName:  &lastName,
					HireDate:  employeeCreated.HireDate,
					Active:    true,
				}); err != nil {
				return err
			}
			return nil
		}
		tUpdate := time.NewTicker(updateInterval)
		defer tUpdate.Stop()
		<-start
		for {
			select {
			case <-stop:
				return
			case <-tUpdate.C:
				if err := updateEmployeeFx(ctx); err != nil {
					logger.Error(ctx, "error while updating employee: %s", err)
				}
			}
		}
	}(ctx, clients[0])

	//create reader go routines
	for i := 1; i < len(clients); i++ {
		wg.Add(1)
		go func(ctx context.Context, clientNumber int, client client.Client) {
			defer wg.Done()

			correlationId := fmt.Sprintf("scenario_stampeding_herd_%d", clientNumber)
			ctx = internal.CtxWithCorrelationId(ctx, correlationId)
			readEmployeeFx := func(ctx context.Context) error {
				if _, err := client.EmployeeRead(ctx, id); err != nil {
					return err
				}
				if _, err := client.EmployeesActiveRead(ctx); err != nil {
					return err
				}
				return nil
			}
			tRead := time.NewTicker(readInterval)
			defer tRead.Stop()
			<-start
			for {
				select {
				case <-stop:
					return
				case <-tRead.C:
					if err := readEmployeeFx(ctx); err != nil {
						logger.Error(ctx, "error while reading employee: %s", err)
					}
				}
			}
		}(ctx, i, clients[i])
	}

	//clear cache counters and start the go routines
	if err := clients[0].CacheClear(ctx); err != nil {
		return err
	}
	if err := clients[0].CacheCountersClear(ctx); err != nil {
		return err
	}
	close(start)

	//allow go routines to run
	<-time.After(scenarioDuration)

	//stop go routines
	close(stop)
	wg.Wait()

	//use initial client to get hit/miss ratios from server
	cacheCounters, err := clients[0].CacheCountersRead(ctx)
	if err != nil {
		return err
	}
	for _, key := range []string{fmt.Sprintf("employee_%d", id), "employees_active_true"} {
		hit, miss := cacheCounters.CounterHits[key], cacheCounters.CounterMisses[key]
		if total := hit + miss; total > 0 {
			logger.Info(ctx, "cache hit miss ratio for %s (%d/%d): %0.2f%%",
				key, hit, total, float64(hit)/float64(total)*100)
		}
	}

	return nil
}

func Main(args []string, envs map[string]string, osSignal chan (os.Signal)) error {
	var clients []client.Client
	var wg sync.WaitGroup

	//create context
	ctx, cancel := internal.LaunchContext(&wg, osSignal)
	defer cancel()

	// create logger
	logger := utilities.NewLogger()
	_ = logger.Configure(envs)

	//print version info
	logger.Info(ctx, "scenarios: go-employee-booking v%s (%s) built from: %s",
		Version, GitCommit, GitBranch)

	nClients, _ := strconv.Atoi(envs["N_CLIENTS"])
	for range nClients {
		//create client
		client := client.NewClient(logger)
		if err := client.Configure(envs); err != nil {
			return err
		}
		if err := client.Open(ctx); err != nil {
			return err
		}
		defer func() {
			if err := client.Close(context.Background()); err != nil {
				logger.Error(ctx, "error while closing client: %s", err)
			}
		}()
		clients = append(clients, client)
	}

	// execute scenario
	switch scenario := envs["SCENARIO"]; scenario {
	default:
		return errors.Errorf("unsupported scenario: %s", scenario)
	case "stampeding_herd":
		logger.Info(ctx, "executing %s scenario", scenario)
		if err := scenarioStampedingHerd(ctx, envs, logger, clients...); err != nil {
			logger.Error(ctx, "error while executing %s scenario: %s", scenario, err)
		}
	}
	cancel()
	wg.Wait()
	return nil
}
