package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-booking/internal"
	"github.com/antonio-alexander/go-employee-booking/internal/data"
	"github.com/antonio-alexander/go-employee-booking/internal/utilities"
)

type memoryCache struct {
	sync.RWMutex
	sync.WaitGroup
	employees  map[int64]*data.Employee //map[id]employee
	searches   map[string][]int64       //map[search]ids
	generation int64
	inProgress struct {
		sync.Mutex
		employeeRead   map[int64]int64  //map[id]unix_nano
		employeeSearch map[string]int64 //map[search]unix_nano
	}
	config struct {
		inProgressPruneInterval time.Duration
		inProgressTTL           time.Duration
		inProgressEnabled       bool
	}
	ctx       context.Context
	ctxCancel context.CancelFunc
	utilities.Logger
}

func NewMemory(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &memoryCache{
		employees: make(map[int64]*data.Employee),
		searches:  make(map[string][]int64),
		Logger:    utilities.NewNopLogger(),
	}
	c.inProgress.employeeRead = make(map[int64]int64)
	c.inProgress.employeeSearch = make(map[string]int64)
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case utilities.Logger:
			c.Logger = p
		}
	}
	return c
}

func (c *memoryCache) launchPruneSetRead() {
	started := make(chan struct{})
	c.Add(1)
	go func() {
		defer c.Done()

		pruneFx := func() {
			c.inProgress.Lock()
			defer c.inProgress.Unlock()

			for id, t := range c.inProgress.employeeRead {
				if time.Since(time.Unix(0, t)) > c.config.inProgressTTL {
					delete(c.inProgress.employeeRead, id)
				}
			}
			for searchKey, t := range c.inProgress.employeeSearch {
				if time.Since(time.Unix(0, t)) > c.config.inProgressTTL {
					delete(c.inProgress.employeeSearch, searchKey)
				}
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
				pruneFx()
			}
		}
	}()
	<-started
}

// setEmployeeRead returns ErrEmployeeReadSet if this caller is the first
// to miss on the employee, the marker is cleared once the employee is
// written or evicted (or pruned)
func (c *memoryCache) setEmployeeRead(id int64) error {
	c.inProgress.Lock()
	defer c.inProgress.Unlock()

	if _, ok := c.inProgress.employeeRead[id]; ok {
		return ErrEmployeeReadAlreadySet
	}
	c.inProgress.employeeRead[id] = time.Now().UnixNano()
	return ErrEmployeeReadSet
}

func (c *memoryCache) setEmployeesSearch(searchKey string) error {
	c.inProgress.Lock()
	defer c.inProgress.Unlock()

	if _, ok := c.inProgress.employeeSearch[searchKey]; ok {
		return ErrEmployeesSearchAlreadySet
	}
	c.inProgress.employeeSearch[searchKey] = time.Now().UnixNano()
	return ErrEmployeesSearchSet
}

func (c *memoryCache) Configure(envs map[string]string) error {
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
	return nil
}

func (c *memoryCache) Open(ctx context.Context) error {
	if err := c.Clear(ctx); err != nil {
		return err
	}
	if c.config.inProgressEnabled {
		c.ctx, c.ctxCancel = context.WithCancel(context.Background())
		c.launchPruneSetRead()
	}
	return nil
}

func (c *memoryCache) Close(ctx context.Context) error {
	if c.ctxCancel != nil {
		c.ctxCancel()
		c.Wait()
		c.ctxCancel = nil
	}
	return nil
}

func (c *memoryCache) Clear(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.employees = make(map[int64]*data.Employee)
	c.searches = make(map[string][]int64)
	c.generation++
	c.inProgress.Lock()
	c.inProgress.employeeRead = make(map[int64]int64)
	c.inProgress.employeeSearch = make(map[string]int64)
	c.inProgress.Unlock()
	c.Trace(ctx, "cleared memory cache")
	return nil
}

func (c *memoryCache) Generation(ctx context.Context) (int64, error) {
	c.RLock()
	defer c.RUnlock()

	return c.generation, nil
}

func (c *memoryCache) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	c.RLock()
	defer c.RUnlock()

	employee, ok := c.employees[id]
	if !ok {
		if !c.config.inProgressEnabled {
			return nil, ErrEmployeeNotCached
		}
		return nil, c.setEmployeeRead(id)
	}
	return employee.Copy(), nil
}

func (c *memoryCache) EmployeesRead(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	c.RLock()
	defer c.RUnlock()

	searchKey, err := search.ToKey()
	if err != nil {
		return nil, err
	}
	miss := func() error {
		if !c.config.inProgressEnabled {
			return ErrEmployeeSearchNotCached
		}
		return c.setEmployeesSearch(searchKey)
	}
	ids, ok := c.searches[searchKey]
	if !ok {
		return nil, miss()
	}
	employees := make([]*data.Employee, 0, len(ids))
	for _, id := range ids {
		e, ok := c.employees[id]
		if !ok {
			//KIM: a partial result is as good as a miss
			return nil, miss()
		}
		employees = append(employees, e.Copy())
	}
	return employees, nil
}

func (c *memoryCache) EmployeeWrite(ctx context.Context, generation int64, employee *data.Employee) error {
	c.Lock()
	defer c.Unlock()

	c.inProgress.Lock()
	delete(c.inProgress.employeeRead, employee.Id)
	c.inProgress.Unlock()
	if generation != c.generation {
		return ErrGenerationStale
	}
	c.employees[employee.Id] = employee.Copy()
	return nil
}

func (c *memoryCache) EmployeesWrite(ctx context.Context, generation int64, search data.EmployeeSearch, employees ...*data.Employee) error {
	c.Lock()
	defer c.Unlock()

	searchKey, err := search.ToKey()
	if err != nil {
		return fmt.Errorf("error while creating search key: %w", err)
	}
	c.inProgress.Lock()
	delete(c.inProgress.employeeSearch, searchKey)
	c.inProgress.Unlock()
	if generation != c.generation {
		return ErrGenerationStale
	}
	ids := make([]int64, 0, len(employees))
	for _, e := range employees {
		c.employees[e.Id] = e.Copy()
		ids = append(ids, e.Id)
	}
	c.searches[searchKey] = ids
	return nil
}

func (c *memoryCache) EmployeesDelete(ctx context.Context, ids ...int64) error {
	c.Lock()
	defer c.Unlock()

	c.generation++
	for _, id := range ids {
		delete(c.employees, id)
	}
	c.searches = make(map[string][]int64)
	c.inProgress.Lock()
	for _, id := range ids {
		delete(c.inProgress.employeeRead, id)
	}
	c.inProgress.employeeSearch = make(map[string]int64)
	c.inProgress.Unlock()
	return nil
}
