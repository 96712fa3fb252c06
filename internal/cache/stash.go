package cache

import (
	"context"
	"sync"

	"github.com/antonio-alexander/go-employee-booking/internal"
	"github.com/antonio-alexander/go-employee-booking/internal/data"
	"github.com/antonio-alexander/go-employee-booking/internal/utilities"

	"github.com/antonio-alexander/go-stash"
)

type stashCache struct {
	sync.Mutex
	logger utilities.Logger
	stash  interface {
		stash.Configurer
		stash.Parameterizer
		stash.Initializer
		stash.Shutdowner
	}
	stash.Stasher
	searchKeys map[string]struct{}
	generation int64
}

// NewStash wraps a go-stash implementation (memory or redis) that must be
// provided as one of the parameters
func NewStash(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &stashCache{
		logger:     utilities.NewNopLogger(),
		searchKeys: make(map[string]struct{}),
	}
	for _, p := range parameters {
		switch p := p.(type) {
		case utilities.Logger:
			c.logger = p
		case interface {
			stash.Configurer
			stash.Parameterizer
			stash.Initializer
			stash.Shutdowner
			stash.Stasher
		}:
			c.stash = p
			c.Stasher = p
		}
	}
	if c.stash != nil {
		c.stash.SetParameters(parameters...)
	}
	return c
}

func (c *stashCache) Configure(envs map[string]string) error {
	if c.stash != nil {
		if err := c.stash.Configure(envs); err != nil {
			return err
		}
	}
	return nil
}

// Open clears whatever the stash holds since search keys (and the
// generation) only live in memory and can't be recovered
func (c *stashCache) Open(ctx context.Context) error {
	if c.stash == nil {
		return nil
	}
	if err := c.stash.Initialize(); err != nil {
		return err
	}
	return c.Clear(ctx)
}

func (c *stashCache) Close(ctx context.Context) error {
	if c.stash != nil {
		return c.stash.Shutdown()
	}
	return nil
}

func (c *stashCache) Clear(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.searchKeys = make(map[string]struct{})
	c.generation++
	return c.Stasher.Clear()
}

func (c *stashCache) Generation(ctx context.Context) (int64, error) {
	c.Lock()
	defer c.Unlock()

	return c.generation, nil
}

func (c *stashCache) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	employee := &data.Employee{}
	if err := c.Stasher.Read(employeeKey(id), employee); err != nil {
		c.logger.Trace(ctx, "cache miss for employee (%d): %s", id, err)
		return nil, ErrEmployeeNotCached
	}
	c.logger.Trace(ctx, "cache hit for employee: %d", id)
	return employee, nil
}

func (c *stashCache) EmployeesRead(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	searchKey, err := search.ToKey()
	if err != nil {
		return nil, err
	}
	response := &data.Response{}
	if err := c.Stasher.Read(searchKey, response); err != nil {
		c.logger.Trace(ctx, "cache miss for employee search: %s", searchKey)
		return nil, ErrEmployeeSearchNotCached
	}
	c.logger.Trace(ctx, "cache hit for employee search: %s", searchKey)
	if response.Employees == nil {
		response.Employees = []*data.Employee{}
	}
	return response.Employees, nil
}

func (c *stashCache) employeeWrite(ctx context.Context, employee *data.Employee) error {
	if _, err := c.Stasher.Write(employeeKey(employee.Id), employee); err != nil {
		c.logger.Error(ctx, "error while writing employee (%d): %s", employee.Id, err)
		return err
	}
	c.logger.Trace(ctx, "cached employee: %d", employee.Id)
	return nil
}

func (c *stashCache) EmployeeWrite(ctx context.Context, generation int64, employee *data.Employee) error {
	c.Lock()
	defer c.Unlock()

	if generation != c.generation {
		return ErrGenerationStale
	}
	return c.employeeWrite(ctx, employee)
}

func (c *stashCache) EmployeesWrite(ctx context.Context, generation int64, search data.EmployeeSearch, employees ...*data.Employee) error {
	c.Lock()
	defer c.Unlock()

	if generation != c.generation {
		return ErrGenerationStale
	}
	searchKey, err := search.ToKey()
	if err != nil {
		c.logger.Error(ctx, "error while creating search key: %s", err)
		return err
	}
	if _, err := c.Stasher.Write(searchKey, &data.Response{Employees: employees}); err != nil {
		c.logger.Error(ctx, "error while writing search: %s", err)
		return err
	}
	c.searchKeys[searchKey] = struct{}{}
	c.logger.Trace(ctx, "cached employees search: %s", searchKey)
	for _, employee := range employees {
		// failing to cache an individual employee doesn't invalidate the search
		_ = c.employeeWrite(ctx, employee)
	}
	return nil
}

func (c *stashCache) EmployeesDelete(ctx context.Context, ids ...int64) error {
	c.Lock()
	defer c.Unlock()

	c.generation++
	for _, id := range ids {
		if err := c.Stasher.Delete(employeeKey(id)); err != nil {
			c.logger.Trace(ctx, "unable to evict cached employee (%d): %s", id, err)
			continue
		}
		c.logger.Trace(ctx, "evicted cached employee: %d", id)
	}
	for searchKey := range c.searchKeys {
		if err := c.Stasher.Delete(searchKey); err != nil {
			c.logger.Trace(ctx, "unable to evict cached search (%s): %s", searchKey, err)
		}
	}
	c.searchKeys = make(map[string]struct{})
	return nil
}
