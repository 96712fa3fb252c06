package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/antonio-alexander/go-employee-booking/internal/data"
)

var (
	ErrEmployeeNotCached         = errors.New("employee not cached")
	ErrEmployeeSearchNotCached   = errors.New("employee search not cached")
	ErrEmployeeReadSet           = errors.New("employee not cached, read set")
	ErrEmployeeReadAlreadySet    = errors.New("employee not cached, read already set")
	ErrEmployeesSearchSet        = errors.New("employees search not cached, read set")
	ErrEmployeesSearchAlreadySet = errors.New("employees search not cached, read already set")
	ErrGenerationStale           = errors.New("cache generation changed, write dropped")
)

// Cache stores employees by id and the results of employee searches, any
// employee that's deleted also invalidates every cached search since the
// cache can't know which searches would've matched the new data.
//
// Every eviction (and Clear) increments the generation; writes carry the
// generation read before the data was read from the database and are
// dropped with ErrGenerationStale if an eviction happened since.
//
// When in-progress is enabled, a miss marks the key as being read: the
// first reader gets ErrEmployeeReadSet/ErrEmployeesSearchSet and should
// populate the cache, later readers get the AlreadySet errors until the
// key is written, evicted or the marker expires.
type Cache interface {
	Generation(ctx context.Context) (int64, error)
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeesRead(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error)
	EmployeeWrite(ctx context.Context, generation int64, employee *data.Employee) error
	EmployeesWrite(ctx context.Context, generation int64, search data.EmployeeSearch, employees ...*data.Employee) error
	EmployeesDelete(ctx context.Context, ids ...int64) error
}

func employeeKey(id int64) string {
	return fmt.Sprint(id)
}
