package cache_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/antonio-alexander/go-employee-booking/internal"
	"github.com/antonio-alexander/go-employee-booking/internal/cache"
	"github.com/antonio-alexander/go-employee-booking/internal/data"

	stashmemory "github.com/antonio-alexander/go-stash/memory"
	"github.com/stretchr/testify/assert"
)

var envs = map[string]string{
	"REDIS_PORT":          "6379",
	"REDIS_TIMEOUT":       "10",
	"STASH_DEBUG_ENABLED": "false",
}

func init() {
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
}

type cacheTest struct {
	cache interface {
		internal.Configurer
		internal.Opener
		internal.Clearer
	}
	cache.Cache
}

func newCacheTest(cacheType string) *cacheTest {
	var c interface {
		internal.Configurer
		internal.Opener
		internal.Clearer
		cache.Cache
	}

	switch cacheType {
	case "memory":
		c = cache.NewMemory()
	case "redis":
		c = cache.NewRedis()
	case "stash-memory":
		c = cache.NewStash(stashmemory.New())
	}
	return &cacheTest{
		cache: c,
		Cache: c,
	}
}

func (c *cacheTest) TestCache(t *testing.T) {
	var search data.EmployeeSearch

	//create employees
	var employees []*data.Employee
	for i := int64(1); i <= 5; i++ {
		firstName, lastName := internal.GenerateId(), internal.GenerateId()
		employees = append(employees, &data.Employee{
			Id:        i,
			FirstName: &firstName,
			LastName:  &lastName,
			Active:    i%2 == 0,
		})
	}

	//create context
	ctx := context.TODO()

	//clear cache
	err := c.cache.Clear(ctx)
	assert.Nil(t, err)

	// read employee[0]
	employeeRead, err := c.EmployeeRead(ctx, employees[0].Id)
	assert.ErrorIs(t, err, cache.ErrEmployeeNotCached)
	assert.Nil(t, employeeRead)

	// write employee[0]
	generation, err := c.Generation(ctx)
	assert.Nil(t, err)
	err = c.EmployeeWrite(ctx, generation, employees[0])
	assert.Nil(t, err)
	employeeRead, err = c.EmployeeRead(ctx, employees[0].Id)
	assert.Nil(t, err)
	assert.Equal(t, employees[0], employeeRead)

	// read employees
	_, err = c.EmployeesRead(ctx, search)
	assert.ErrorIs(t, err, cache.ErrEmployeeSearchNotCached)

	// write search
	err = c.EmployeesWrite(ctx, generation, search, employees...)
	assert.Nil(t, err)

	// read employee[1]
	employeeRead, err = c.EmployeeRead(ctx, employees[1].Id)
	assert.Nil(t, err)
	assert.Equal(t, employees[1], employeeRead)

	// read employees
	employeesRead, err := c.EmployeesRead(ctx, search)
	assert.Nil(t, err)
	assert.Equal(t, employees, employeesRead)

	// write empty search
	active := true
	searchActive := data.EmployeeSearch{Active: &active}
	err = c.EmployeesWrite(ctx, generation, searchActive)
	assert.Nil(t, err)
	employeesRead, err = c.EmployeesRead(ctx, searchActive)
	assert.Nil(t, err)
	assert.NotNil(t, employeesRead)
	assert.Empty(t, employeesRead)

	// delete employee [1]
	err = c.EmployeesDelete(ctx, employees[1].Id)
	assert.Nil(t, err)

	//  attempt to read employee [1]
	employeeRead, err = c.EmployeeRead(ctx, employees[1].Id)
	assert.NotNil(t, err)
	assert.Nil(t, employeeRead)

	// every search is invalidated
	_, err = c.EmployeesRead(ctx, search)
	assert.ErrorIs(t, err, cache.ErrEmployeeSearchNotCached)
	_, err = c.EmployeesRead(ctx, searchActive)
	assert.ErrorIs(t, err, cache.ErrEmployeeSearchNotCached)

	// other employees remain
	employeeRead, err = c.EmployeeRead(ctx, employees[2].Id)
	assert.Nil(t, err)
	assert.Equal(t, employees[2], employeeRead)

	// clear cache
	err = c.cache.Clear(ctx)
	assert.Nil(t, err)
	_, err = c.EmployeeRead(ctx, employees[2].Id)
	assert.ErrorIs(t, err, cache.ErrEmployeeNotCached)
}

func (c *cacheTest) TestGenerationStale(t *testing.T) {
	ctx := context.TODO()
	firstName := internal.GenerateId()
	employee := &data.Employee{Id: 1, FirstName: &firstName}
	active := true
	search := data.EmployeeSearch{Active: &active}

	err := c.cache.Clear(ctx)
	assert.Nil(t, err)

	// a fill that started before an eviction is dropped
	generation, err := c.Generation(ctx)
	assert.Nil(t, err)
	err = c.EmployeesDelete(ctx, employee.Id)
	assert.Nil(t, err)
	err = c.EmployeeWrite(ctx, generation, employee)
	assert.ErrorIs(t, err, cache.ErrGenerationStale)
	_, err = c.EmployeeRead(ctx, employee.Id)
	assert.ErrorIs(t, err, cache.ErrEmployeeNotCached)
	err = c.EmployeesWrite(ctx, generation, search, employee)
	assert.ErrorIs(t, err, cache.ErrGenerationStale)
	_, err = c.EmployeesRead(ctx, search)
	assert.ErrorIs(t, err, cache.ErrEmployeeSearchNotCached)

	// a clear also invalidates a pending fill
	generation, err = c.Generation(ctx)
	assert.Nil(t, err)
	err = c.cache.Clear(ctx)
	assert.Nil(t, err)
	err = c.EmployeeWrite(ctx, generation, employee)
	assert.ErrorIs(t, err, cache.ErrGenerationStale)

	// a fill with the current generation is written
	generation, err = c.Generation(ctx)
	assert.Nil(t, err)
	err = c.EmployeeWrite(ctx, generation, employee)
	assert.Nil(t, err)
	employeeRead, err := c.EmployeeRead(ctx, employee.Id)
	assert.Nil(t, err)
	assert.Equal(t, employee, employeeRead)
}

func (c *cacheTest) TestInProgress(t *testing.T) {
	ctx := context.TODO()
	firstName := internal.GenerateId()
	employee := &data.Employee{Id: 1, FirstName: &firstName}
	active := true
	search := data.EmployeeSearch{Active: &active}

	err := c.cache.Clear(ctx)
	assert.Nil(t, err)

	// only the first miss is told to populate the cache
	_, err = c.EmployeeRead(ctx, employee.Id)
	assert.ErrorIs(t, err, cache.ErrEmployeeReadSet)
	_, err = c.EmployeeRead(ctx, employee.Id)
	assert.ErrorIs(t, err, cache.ErrEmployeeReadAlreadySet)
	_, err = c.EmployeesRead(ctx, search)
	assert.ErrorIs(t, err, cache.ErrEmployeesSearchSet)
	_, err = c.EmployeesRead(ctx, search)
	assert.ErrorIs(t, err, cache.ErrEmployeesSearchAlreadySet)

	// writing clears the marker
	generation, err := c.Generation(ctx)
	assert.Nil(t, err)
	err = c.EmployeesWrite(ctx, generation, search, employee)
	assert.Nil(t, err)
	employeesRead, err := c.EmployeesRead(ctx, search)
	assert.Nil(t, err)
	assert.Equal(t, []*data.Employee{employee}, employeesRead)
	err = c.EmployeeWrite(ctx, generation, employee)
	assert.Nil(t, err)
	employeeRead, err := c.EmployeeRead(ctx, employee.Id)
	assert.Nil(t, err)
	assert.Equal(t, employee, employeeRead)

	// evicting clears the marker
	_, err = c.EmployeeRead(ctx, 2)
	assert.ErrorIs(t, err, cache.ErrEmployeeReadSet)
	err = c.EmployeesDelete(ctx, employee.Id, 2)
	assert.Nil(t, err)
	_, err = c.EmployeeRead(ctx, 2)
	assert.ErrorIs(t, err, cache.ErrEmployeeReadSet)
	_, err = c.EmployeesRead(ctx, search)
	assert.ErrorIs(t, err, cache.ErrEmployeesSearchSet)

	// a dropped write still clears the marker
	err = c.EmployeesDelete(ctx)
	assert.Nil(t, err)
	err = c.EmployeeWrite(ctx, generation, &data.Employee{Id: 2})
	assert.ErrorIs(t, err, cache.ErrGenerationStale)
	_, err = c.EmployeeRead(ctx, 2)
	assert.ErrorIs(t, err, cache.ErrEmployeeReadSet)
}

func (c *cacheTest) TestInProgressPrune(t *testing.T) {
	ctx := context.TODO()

	err := c.cache.Clear(ctx)
	assert.Nil(t, err)
	_, err = c.EmployeeRead(ctx, 1)
	assert.ErrorIs(t, err, cache.ErrEmployeeReadSet)
	assert.Eventually(t, func() bool {
		_, err := c.EmployeeRead(ctx, 1)
		return errors.Is(err, cache.ErrEmployeeReadSet)
	}, 10*time.Second, 500*time.Millisecond)
}

func testCache(t *testing.T, cacheType string) {
	c := newCacheTest(cacheType)

	ctx := context.TODO()
	err := c.cache.Configure(envs)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to configure cache")
	}
	err = c.cache.Open(ctx)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open cache")
	}
	defer func() {
		if err := c.cache.Close(ctx); err != nil {
			t.Logf("error while closing cache: %s", err)
		}
	}()
	t.Run("Cache", c.TestCache)
	t.Run("Generation Stale", c.TestGenerationStale)
}

func testCacheInProgress(t *testing.T, cacheType string) {
	c := newCacheTest(cacheType)

	ctx := context.TODO()
	inProgressEnvs := map[string]string{
		"CACHE_ENABLE_IN_PROGRESS": "true",
		"CACHE_SET_READ_TTL":       "1",
		"CACHE_PRUNE_INTERVAL":     "1",
	}
	for key, value := range envs {
		if _, ok := inProgressEnvs[key]; !ok {
			inProgressEnvs[key] = value
		}
	}
	err := c.cache.Configure(inProgressEnvs)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to configure cache")
	}
	err = c.cache.Open(ctx)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open cache")
	}
	defer func() {
		if err := c.cache.Close(ctx); err != nil {
			t.Logf("error while closing cache: %s", err)
		}
	}()
	t.Run("In Progress", c.TestInProgress)
	t.Run("In Progress Prune", c.TestInProgressPrune)
}

func TestCacheMemory(t *testing.T) {
	testCache(t, "memory")
}

func TestCacheMemoryInProgress(t *testing.T) {
	testCacheInProgress(t, "memory")
}

func TestCacheStashMemory(t *testing.T) {
	testCache(t, "stash-memory")
}

func TestCacheRedis(t *testing.T) {
	if envs["REDIS_ADDRESS"] == "" {
		t.Skip("REDIS_ADDRESS not set")
	}
	testCache(t, "redis")
}

func TestCacheRedisInProgress(t *testing.T) {
	if envs["REDIS_ADDRESS"] == "" {
		t.Skip("REDIS_ADDRESS not set")
	}
	testCacheInProgress(t, "redis")
}
