package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/antonio-alexander/go-employee-booking/internal"
	"github.com/antonio-alexander/go-employee-booking/internal/cache"
	"github.com/antonio-alexander/go-employee-booking/internal/data"
	"github.com/antonio-alexander/go-employee-booking/internal/logic"
	"github.com/antonio-alexander/go-employee-booking/internal/service"
	"github.com/antonio-alexander/go-employee-booking/internal/sql"
	"github.com/antonio-alexander/go-employee-booking/internal/utilities"

	"github.com/antonio-alexander/go-stash/memory"
	"github.com/antonio-alexander/go-stash/redis"
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
	pwd, _ := os.Getwd()
	args := os.Args[1:]
	// a missing .env file is not an error, the environment wins over it
	_ = godotenv.Load()
	envs := make(map[string]string)
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal, syscall.SIGINT, syscall.SIGTERM)
	if err := Main(pwd, args, envs, osSignal); err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(1)
	}
}

// createCache returns a nil cache when CACHE_TYPE is empty, stash caches
// are configured through the cache itself
func createCache(envs map[string]string, parameters ...any) (interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	cache.Cache
}, error) {
	switch cacheType := envs["CACHE_TYPE"]; cacheType {
	default:
		return nil, errors.Errorf("unsupported cache type: %s", cacheType)
	case "":
		return nil, nil
	case "memory":
		return cache.NewMemory(parameters...), nil
	case "redis":
		return cache.NewRedis(parameters...), nil
	case "stash-memory":
		return cache.NewStash(append(parameters, memory.New())...), nil
	case "stash-redis":
		return cache.NewStash(append(parameters, redis.New())...), nil
	}
}

func Main(pwd string, args []string, envs map[string]string, osSignal chan os.Signal) error {
	var wg sync.WaitGroup
	var closers []func()

	//create context
	ctx, cancel := internal.LaunchContext(&wg, osSignal)
	defer cancel()

	// create utilities
	logger := utilities.NewLogger()
	_ = logger.Configure(envs)
	timers := utilities.NewTimers()
	counter := utilities.NewCounter()

	//print version info
	logger.Info(ctx, "server: go-employee-booking v%s (%s) built from: %s",
		Version, GitCommit, GitBranch)

	// components are closed in the reverse order they were opened
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()
	open := func(name string, component interface {
		internal.Configurer
		internal.Opener
	}) error {
		if err := component.Configure(envs); err != nil {
			return errors.Wrapf(err, "unable to configure %s", name)
		}
		if err := component.Open(ctx); err != nil {
			return errors.Wrapf(err, "unable to open %s", name)
		}
		closers = append(closers, func() {
			if err := component.Close(context.Background()); err != nil {
				logger.Error(context.Background(), "error while closing %s: %s", name, err)
			}
		})
		return nil
	}

	//create sql
	sql := sql.NewSql(logger)
	if err := open("sql", sql); err != nil {
		return err
	}

	// create cache
	cache, err := createCache(envs, logger)
	if err != nil {
		return err
	}
	if cache != nil {
		if err := open("cache", cache); err != nil {
			return err
		}
		logger.Info(ctx, "cache type: %s", envs["CACHE_TYPE"])
	}

	//create logic
	logic := logic.NewLogic(sql, logger, counter, cache)
	if err := open("logic", logic); err != nil {
		return err
	}

	//create service
	service := service.NewService(logic, cache, logger, counter, timers)
	if err := open("service", service); err != nil {
		return err
	}
	<-ctx.Done()
	wg.Wait()
	return nil
}
