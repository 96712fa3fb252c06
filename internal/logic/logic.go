package logic

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/antonio-alexander/go-employee-booking/internal"
	"github.com/antonio-alexander/go-employee-booking/internal/cache"
	"github.com/antonio-alexander/go-employee-booking/internal/data"
	"github.com/antonio-alexander/go-employee-booking/internal/sql"
	"github.com/antonio-alexander/go-employee-booking/internal/utilities"
)

// Logic exposes the same operations as the data access layer, reads go
// through the cache (when enabled) and mutations invalidate it
type Logic interface {
	sql.Sql
}

type logic struct {
	sync.RWMutex
	sql     sql.Sql
	cache   cache.Cache
	clearer internal.Clearer
	config  struct {
		cacheEnabled   bool
		mutateDisabled bool
	}
	utilities.Logger
	utilities.Counter
}

func NewLogic(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Logic
} {
	l := &logic{
		Logger:  utilities.NewNopLogger(),
		Counter: utilities.NewCounter(),
	}
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case sql.Sql:
			l.sql = v
		case cache.Cache:
			l.cache = v
			if clearer, ok := v.(internal.Clearer); ok {
				l.clearer = clearer
			}
		case utilities.Logger:
			l.Logger = v
		case utilities.Counter:
			l.Counter = v
		}
	}
	return l
}

func (l *logic) Configure(envs map[string]string) error {
	l.Lock()
	defer l.Unlock()

	if cacheEnabled, ok := envs["LOGIC_CACHE_ENABLED"]; ok {
		l.config.cacheEnabled, _ = strconv.ParseBool(cacheEnabled)
	}
	if mutateDisabled, ok := envs["MUTATE_DISABLED"]; ok {
		l.config.mutateDisabled, _ = strconv.ParseBool(mutateDisabled)
	}
	return nil
}

func (l *logic) Open(ctx context.Context) error {
	l.Lock()
	defer l.Unlock()

	if l.config.cacheEnabled && l.cache == nil {
		l.Info(ctx, "cache enabled, but no cache provided; disabling cache")
		l.config.cacheEnabled = false
	}
	if l.config.cacheEnabled {
		l.Info(ctx, "cache enabled")
	}
	if l.config.mutateDisabled {
		l.Info(ctx, "mutation disabled")
	}
	return nil
}

func (l *logic) Close(ctx context.Context) error {
	return nil
}

func (l *logic) cacheEnabled() bool {
	l.RLock()
	defer l.RUnlock()

	return l.config.cacheEnabled
}

func (l *logic) mutateDisabled() bool {
	l.RLock()
	defer l.RUnlock()

	return l.config.mutateDisabled
}

func (l *logic) evict(ctx context.Context, ids ...int64) {
	if !l.cacheEnabled() {
		return
	}
	if err := l.cache.EmployeesDelete(ctx, ids...); err != nil {
		l.Error(ctx, "error while deleting employees (%v) from cache: %s", ids, err)
	}
}

func (l *logic) EmployeeSave(ctx context.Context, employee *data.Employee) (*data.Employee, error) {
	if l.mutateDisabled() {
		return nil, data.ErrMutationDisabled
	}
	employeeSaved, err := l.sql.EmployeeSave(ctx, employee)
	if err != nil {
		return nil, err
	}
	l.evict(ctx, employeeSaved.Id)
	return employeeSaved, nil
}

// generation returns the cache generation, it's read before the cache (and
// database) so a fill racing an eviction is dropped by the cache
func (l *logic) generation(ctx context.Context) (int64, bool) {
	if !l.cacheEnabled() {
		return 0, false
	}
	generation, err := l.cache.Generation(ctx)
	if err != nil {
		l.Error(ctx, "error while reading cache generation: %s", err)
		return 0, false
	}
	return generation, true
}

func (l *logic) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	key := "employee_" + strconv.FormatInt(id, 10)
	generation, populate := l.generation(ctx)
	if populate {
		employee, err := l.cache.EmployeeRead(ctx, id)
		if err == nil {
			l.IncrementHit(key)
			return employee, nil
		}
		l.IncrementMiss(key)
		l.Trace(ctx, "unable to read employee (%d) from cache: %s", id, err)
		//KIM: someone else is already populating the cache
		populate = !errors.Is(err, cache.ErrEmployeeReadAlreadySet)
	}
	employee, err := l.sql.EmployeeRead(ctx, id)
	if err != nil {
		return nil, err
	}
	if populate {
		switch err := l.cache.EmployeeWrite(ctx, generation, employee); {
		case errors.Is(err, cache.ErrGenerationStale):
			l.Trace(ctx, "employee (%d) evicted while reading, not cached", id)
		case err != nil:
			l.Error(ctx, "error while writing employee (%d) to cache: %s", id, err)
		}
	}
	return employee, nil
}

func (l *logic) EmployeesRead(ctx context.Context) ([]*data.Employee, error) {
	return l.EmployeesSearch(ctx, data.EmployeeSearch{})
}

func (l *logic) EmployeesReadByActive(ctx context.Context, active bool) ([]*data.Employee, error) {
	return l.EmployeesSearch(ctx, data.EmployeeSearch{Active: &active})
}

func (l *logic) EmployeesReadByFirstNameContaining(ctx context.Context, firstName string) ([]*data.Employee, error) {
	return l.EmployeesSearch(ctx, data.EmployeeSearch{FirstNameContaining: &firstName})
}

func (l *logic) EmployeesSearch(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	key := "employees_" + search.String()
	generation, populate := l.generation(ctx)
	if populate {
		employees, err := l.cache.EmployeesRead(ctx, search)
		if err == nil {
			l.IncrementHit(key)
			return employees, nil
		}
		l.IncrementMiss(key)
		l.Trace(ctx, "unable to read employees (%s) from cache: %s", search.String(), err)
		populate = !errors.Is(err, cache.ErrEmployeesSearchAlreadySet)
	}
	employees, err := l.sql.EmployeesSearch(ctx, search)
	if err != nil {
		return nil, err
	}
	if populate {
		switch err := l.cache.EmployeesWrite(ctx, generation, search, employees...); {
		case errors.Is(err, cache.ErrGenerationStale):
			l.Trace(ctx, "employees (%s) evicted while reading, not cached", search.String())
		case err != nil:
			l.Error(ctx, "error while writing employees (%s) to cache: %s", search.String(), err)
		}
	}
	return employees, nil
}

func (l *logic) EmployeeDelete(ctx context.Context, id int64) error {
	if l.mutateDisabled() {
		return data.ErrMutationDisabled
	}
	if err := l.sql.EmployeeDelete(ctx, id); err != nil {
		return err
	}
	l.evict(ctx, id)
	return nil
}

func (l *logic) EmployeesDelete(ctx context.Context) error {
	if l.mutateDisabled() {
		return data.ErrMutationDisabled
	}
	if err := l.sql.EmployeesDelete(ctx); err != nil {
		return err
	}
	if l.cacheEnabled() && l.clearer != nil {
		if err := l.clearer.Clear(ctx); err != nil {
			l.Error(ctx, "error while clearing cache: %s", err)
		}
	}
	return nil
}
