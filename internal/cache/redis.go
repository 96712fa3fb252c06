package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-booking/internal"
	"github.com/antonio-alexander/go-employee-booking/internal/data"
	"github.com/antonio-alexander/go-employee-booking/internal/utilities"

	"github.com/redis/go-redis/v9"
)

const (
	hashKeyEmployees        string = "employees"
	hashKeySearch           string = "search"
	hashKeyInProgress       string = "in_progress_employees"
	hashKeyInProgressSearch string = "in_progress_searches"
	keyGeneration           string = "generation"
)

// KEYS: generation, employees, search
// ARGV: generation, search key (empty for none), search ids, then id/employee pairs
const scriptWrite string = `
local generation = redis.call('GET', KEYS[1]) or '0'
if generation ~= ARGV[1] then
	return 0
end
for i = 4, #ARGV, 2 do
	redis.call('HSET', KEYS[2], ARGV[i], ARGV[i+1])
end
if ARGV[2] ~= '' then
	redis.call('HSET', KEYS[3], ARGV[2], ARGV[3])
end
return 1
`

type redisCache struct {
	sync.WaitGroup
	redisClient *redis.Client
	config      struct {
		address                 string
		port                    string
		password                string
		database                int
		timeout                 time.Duration
		inProgressPruneInterval time.Duration
		inProgressTTL           time.Duration
		inProgressEnabled       bool
	}
	ctx       context.Context
	ctxCancel context.CancelFunc
	utilities.Logger
}

func NewRedis(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &redisCache{Logger: utilities.NewNopLogger()}
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case utilities.Logger:
			c.Logger = p
		}
	}
	return c
}

func (c *redisCache) launchPruneSetRead() {
	started := make(chan struct{})
	c.Add(1)
	go func() {
		defer c.Done()

		pruneFx := func(hashKey string) {
			ctx, cancel := context.WithTimeout(c.ctx, c.config.timeout)
			defer cancel()
			values, err := c.redisClient.HGetAll(ctx, hashKey).Result()
			if err != nil {
				c.Error(ctx, "error while reading in progress (%s): %s", hashKey, err)
				return
			}
			var keys []string
			for key, value := range values {
				t, _ := strconv.ParseInt(value, 10, 64)
				if time.Since(time.Unix(0, t)) > c.config.inProgressTTL {
					keys = append(keys, key)
				}
			}
			if len(keys) == 0 {
				return
			}
			if err := c.redisClient.HDel(ctx, hashKey, keys...).Err(); err != nil {
				c.Error(ctx, "error while pruning in progress (%s): %s", hashKey, err)
			}
		}
		tPrune := time.NewTicker(c.config.inProgressPruneInterval)
		defer tPrune.Stop()
		close(started)
		for {
			select {
			case <-c.ctx.Done():
				return
			case <-tPrune.C:
				pruneFx(hashKeyInProgress)
				pruneFx(hashKeyInProgressSearch)
			}
		}
	}()
	<-started
}

// setInProgress returns set if this caller is the first to miss on the key
func (c *redisCache) setInProgress(ctx context.Context, hashKey, key string, set, alreadySet error) error {
	ok, err := c.redisClient.HSetNX(ctx, hashKey, key,
		strconv.FormatInt(time.Now().UnixNano(), 10)).Result()
	if err != nil {
		return err
	}
	if !ok {
		return alreadySet
	}
	return set
}

func (c *redisCache) write(ctx context.Context, generation int64, searchKey string, employees ...*data.Employee) error {
	ids := make([]string, 0, len(employees))
	args := []any{strconv.FormatInt(generation, 10), searchKey, ""}
	for _, employee := range employees {
		bytes, err := employee.MarshalBinary()
		if err != nil {
			return err
		}
		ids = append(ids, employeeKey(employee.Id))
		args = append(args, employeeKey(employee.Id), string(bytes))
	}
	args[2] = strings.Join(ids, ",")
	written, err := c.redisClient.Eval(ctx, scriptWrite,
		[]string{keyGeneration, hashKeyEmployees, hashKeySearch}, args...).Int()
	if err != nil {
		return err
	}
	if written == 0 {
		return ErrGenerationStale
	}
	return nil
}

func (c *redisCache) Configure(envs map[string]string) error {
	c.config.timeout = 10 * time.Second
	c.config.inProgressPruneInterval = 10 * time.Second
	c.config.inProgressTTL = 10 * time.Second
	if s, ok := envs["CACHE_PRUNE_INTERVAL"]; ok {
		inProgressPruneInterval, _ := strconv.Atoi(s)
		if inProgressPruneInterval > 0 {
			c.config.inProgressPruneInterval = time.Second * time.Duration(inProgressPruneInterval)
		}
	}
	if s, ok := envs["CACHE_SET_READ_TTL"]; ok {
		inProgressTTL, _ := strconv.Atoi(s)
		if inProgressTTL > 0 {
			c.config.inProgressTTL = time.Second * time.Duration(inProgressTTL)
		}
	}
	if inProgressEnabled, ok := envs["CACHE_ENABLE_IN_PROGRESS"]; ok {
		c.config.inProgressEnabled, _ = strconv.ParseBool(inProgressEnabled)
	}
	if redisAddress, ok := envs["REDIS_ADDRESS"]; ok {
		c.config.address = redisAddress
	}
	if redisPort, ok := envs["REDIS_PORT"]; ok {
		c.config.port = redisPort
	}
	if redisPassword, ok := envs["REDIS_PASSWORD"]; ok {
		c.config.password = redisPassword
	}
	if redisDatabase := envs["REDIS_DATABASE"]; redisDatabase != "" {
		i, err := strconv.Atoi(redisDatabase)
		if err != nil {
			return err
		}
		c.config.database = i
	}
	if redisTimeout := envs["REDIS_TIMEOUT"]; redisTimeout != "" {
		i, _ := strconv.ParseInt(redisTimeout, 10, 64)
		if timeout := time.Duration(i) * time.Second; timeout > 0 {
			c.config.timeout = timeout
		}
	}
	return nil
}

func (c *redisCache) Open(ctx context.Context) error {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(c.config.address, c.config.port),
		Password: c.config.password,
		DB:       c.config.database,
	})
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return err
	}
	c.redisClient = redisClient
	if c.config.inProgressEnabled {
		c.ctx, c.ctxCancel = context.WithCancel(context.Background())
		c.launchPruneSetRead()
	}
	return nil
}

func (c *redisCache) Close(ctx context.Context) error {
	if c.ctxCancel != nil {
		c.ctxCancel()
		c.Wait()
		c.ctxCancel = nil
	}
	if c.redisClient == nil {
		return nil
	}
	if err := c.redisClient.Close(); err != nil {
		c.Error(ctx, "error while shutting down redis client: %s", err)
	}
	c.redisClient = nil
	return nil
}

func (c *redisCache) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()
	if _, err := c.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, keyGeneration)
		pipe.Del(ctx, hashKeyEmployees, hashKeySearch,
			hashKeyInProgress, hashKeyInProgressSearch)
		return nil
	}); err != nil {
		return err
	}
	return nil
}

func (c *redisCache) Generation(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()
	generation, err := c.redisClient.Get(ctx, keyGeneration).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return generation, nil
}

func (c *redisCache) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()
	value, err := c.redisClient.HGet(ctx, hashKeyEmployees, employeeKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			if !c.config.inProgressEnabled {
				return nil, ErrEmployeeNotCached
			}
			return nil, c.setInProgress(ctx, hashKeyInProgress, employeeKey(id),
				ErrEmployeeReadSet, ErrEmployeeReadAlreadySet)
		}
		return nil, err
	}
	employee := &data.Employee{}
	if err := employee.UnmarshalBinary([]byte(value)); err != nil {
		return nil, err
	}
	return employee, nil
}

func (c *redisCache) EmployeesRead(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()
	searchKey, err := search.ToKey()
	if err != nil {
		return nil, err
	}
	miss := func() error {
		if !c.config.inProgressEnabled {
			return ErrEmployeeSearchNotCached
		}
		return c.setInProgress(ctx, hashKeyInProgressSearch, searchKey,
			ErrEmployeesSearchSet, ErrEmployeesSearchAlreadySet)
	}
	value, err := c.redisClient.HGet(ctx, hashKeySearch, searchKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, miss()
		}
		return nil, err
	}
	if value == "" {
		return []*data.Employee{}, nil
	}
	ids := strings.Split(value, ",")
	values, err := c.redisClient.HMGet(ctx, hashKeyEmployees, ids...).Result()
	if err != nil {
		return nil, err
	}
	employees := make([]*data.Employee, 0, len(ids))
	for _, value := range values {
		s, ok := value.(string)
		if !ok {
			//KIM: a partial result is as good as a miss
			return nil, miss()
		}
		employee := &data.Employee{}
		if err := employee.UnmarshalBinary([]byte(s)); err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	return employees, nil
}

func (c *redisCache) EmployeeWrite(ctx context.Context, generation int64, employee *data.Employee) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()
	if c.config.inProgressEnabled {
		if err := c.redisClient.HDel(ctx, hashKeyInProgress,
			employeeKey(employee.Id)).Err(); err != nil {
			c.Error(ctx, "error while clearing in progress (%d): %s", employee.Id, err)
		}
	}
	return c.write(ctx, generation, "", employee)
}

func (c *redisCache) EmployeesWrite(ctx context.Context, generation int64, search data.EmployeeSearch, employees ...*data.Employee) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()
	searchKey, err := search.ToKey()
	if err != nil {
		return fmt.Errorf("error while creating search key: %w", err)
	}
	if c.config.inProgressEnabled {
		if err := c.redisClient.HDel(ctx, hashKeyInProgressSearch,
			searchKey).Err(); err != nil {
			c.Error(ctx, "error while clearing in progress (%s): %s", searchKey, err)
		}
	}
	return c.write(ctx, generation, searchKey, employees...)
}

func (c *redisCache) EmployeesDelete(ctx context.Context, e ...int64) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()
	ids := make([]string, 0, len(e))
	for _, id := range e {
		ids = append(ids, employeeKey(id))
	}
	if _, err := c.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, keyGeneration)
		if len(ids) > 0 {
			pipe.HDel(ctx, hashKeyEmployees, ids...)
		}
		pipe.Del(ctx, hashKeySearch, hashKeyInProgressSearch)
		if len(ids) > 0 {
			pipe.HDel(ctx, hashKeyInProgress, ids...)
		}
		return nil
	}); err != nil {
		return err
	}
	return nil
}
