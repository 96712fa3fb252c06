package logic_test

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/antonio-alexander/go-employee-booking/internal"
	"github.com/antonio-alexander/go-employee-booking/internal/cache"
	"github.com/antonio-alexander/go-employee-booking/internal/data"
	"github.com/antonio-alexander/go-employee-booking/internal/logic"
	"github.com/antonio-alexander/go-employee-booking/internal/sql"
	"github.com/antonio-alexander/go-employee-booking/internal/utilities"

	"github.com/stretchr/testify/assert"
)

var (
	envs = map[string]string{
		//sql
		"DATABASE_DRIVER":        "sqlite3",
		"DATABASE_NAME":          ":memory:",
		"DATABASE_QUERY_TIMEOUT": "10",
		"DATABASE_CREATE_TABLE":  "true",
		//cache
		"REDIS_PORT":    "6379",
		"REDIS_TIMEOUT": "10",
		//logic
		"LOGIC_CACHE_ENABLED": "true",
		"MUTATE_DISABLED":     "false",
	}
)

func init() {
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
}

type logicTest struct {
	sql interface {
		internal.Configurer
		internal.Opener
		sql.Sql
	}
	cache interface {
		internal.Configurer
		internal.Opener
		cache.Cache
	}
	logic interface {
		internal.Configurer
		internal.Opener
	}
	counter utilities.Counter
	logic.Logic
}

func newLogicTest(cacheType string) *logicTest {
	var c interface {
		internal.Opener
		internal.Configurer
		internal.Clearer
		cache.Cache
	}

	sql := sql.NewSql()
	switch cacheType {
	case "memory":
		c = cache.NewMemory()
	case "redis":
		c = cache.NewRedis()
	}
	counter := utilities.NewCounter()
	logic := logic.NewLogic(sql, c, counter)
	return &logicTest{
		sql:     sql,
		cache:   c,
		logic:   logic,
		counter: counter,
		Logic:   logic,
	}
}

func (l *logicTest) Configure(envs map[string]string) error {
	if err := l.sql.Configure(envs); err != nil {
		return err
	}
	if err := l.cache.Configure(envs); err != nil {
		return err
	}
	if err := l.logic.Configure(envs); err != nil {
		return err
	}
	return nil
}

func (l *logicTest) Open(ctx context.Context) error {
	if err := l.sql.Open(ctx); err != nil {
		return err
	}
	if err := l.cache.Open(ctx); err != nil {
		return err
	}
	if err := l.logic.Open(ctx); err != nil {
		return err
	}
	return nil
}

func (l *logicTest) Close(ctx context.Context) error {
	if err := l.logic.Close(ctx); err != nil {
		return err
	}
	if err := l.cache.Close(ctx); err != nil {
		return err
	}
	if err := l.sql.Close(ctx); err != nil {
		return err
	}
	return nil
}

func (l *logicTest) TestLogic(t *testing.T) {
	ctx := context.TODO()

	err := l.EmployeesDelete(ctx)
	assert.Nil(t, err)
	l.counter.Reset()

	// create employee
	firstName := internal.GenerateId()[:14]
	email := "a@x.com"
	employeeCreated, err := l.EmployeeSave(ctx, &data.Employee{
		FirstName: &firstName,
		Email:     &email,
		Active:    true,
	})
	assert.Nil(t, err)
	if !assert.NotNil(t, employeeCreated) {
		assert.FailNow(t, "unable to create employee")
	}
	id := employeeCreated.Id
	key := fmt.Sprintf("employee_%d", id)

	// read employee (miss then hit)
	employeeRead, err := l.EmployeeRead(ctx, id)
	assert.Nil(t, err)
	assert.Equal(t, employeeCreated, employeeRead)
	employeeRead, err = l.EmployeeRead(ctx, id)
	assert.Nil(t, err)
	assert.Equal(t, employeeCreated, employeeRead)
	hit, miss := l.counter.Read(key)
	assert.Equal(t, 1, hit)
	assert.Equal(t, 1, miss)

	// read active employees (populates the cache)
	employeesActive, err := l.EmployeesReadByActive(ctx, true)
	assert.Nil(t, err)
	assert.Equal(t, []*data.Employee{employeeCreated}, employeesActive)
	employeesActive, err = l.EmployeesReadByActive(ctx, true)
	assert.Nil(t, err)
	assert.Equal(t, []*data.Employee{employeeCreated}, employeesActive)

	// update employee, the cached searches must not be stale
	updatedFirstName := internal.GenerateId()[:14]
	employeeUpdated, err := l.EmployeeSave(ctx, &data.Employee{
		Id:        id,
		FirstName: &updatedFirstName,
	})
	assert.Nil(t, err)
	if assert.NotNil(t, employeeUpdated) {
		assert.Nil(t, employeeUpdated.Email)
		assert.False(t, employeeUpdated.Active)
	}
	employeeRead, err = l.EmployeeRead(ctx, id)
	assert.Nil(t, err)
	assert.Equal(t, employeeUpdated, employeeRead)
	employeesActive, err = l.EmployeesReadByActive(ctx, true)
	assert.Nil(t, err)
	assert.Empty(t, employeesActive)
	employeesRead, err := l.EmployeesReadByFirstNameContaining(ctx, updatedFirstName[2:8])
	assert.Nil(t, err)
	assert.Equal(t, []*data.Employee{employeeUpdated}, employeesRead)

	// delete employee
	err = l.EmployeeDelete(ctx, id)
	assert.Nil(t, err)
	employeeRead, err = l.EmployeeRead(ctx, id)
	assert.ErrorIs(t, err, data.ErrEmployeeNotFound)
	assert.Nil(t, employeeRead)
	employeesRead, err = l.EmployeesRead(ctx)
	assert.Nil(t, err)
	assert.Empty(t, employeesRead)

	// delete all employees
	_, err = l.EmployeeSave(ctx, &data.Employee{FirstName: &firstName})
	assert.Nil(t, err)
	employeesRead, err = l.EmployeesRead(ctx)
	assert.Nil(t, err)
	assert.Len(t, employeesRead, 1)
	err = l.EmployeesDelete(ctx)
	assert.Nil(t, err)
	employeesRead, err = l.EmployeesRead(ctx)
	assert.Nil(t, err)
	assert.Empty(t, employeesRead)
}

// pausingSql holds a single read, once armed, after the rows have been read
// from the database until it's resumed
type pausingSql struct {
	sql.Sql
	armed  atomic.Bool
	paused chan struct{}
	resume chan struct{}
}

func newPausingSql(s sql.Sql) *pausingSql {
	return &pausingSql{
		Sql:    s,
		paused: make(chan struct{}),
		resume: make(chan struct{}),
	}
}

func (p *pausingSql) pause() {
	if p.armed.CompareAndSwap(true, false) {
		p.paused <- struct{}{}
		<-p.resume
	}
}

func (p *pausingSql) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	employee, err := p.Sql.EmployeeRead(ctx, id)
	p.pause()
	return employee, err
}

func (p *pausingSql) EmployeesSearch(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	employees, err := p.Sql.EmployeesSearch(ctx, search)
	p.pause()
	return employees, err
}

func testLogicFillRacingEviction(t *testing.T, cacheType string, inProgress bool) {
	var c interface {
		internal.Opener
		internal.Configurer
		internal.Clearer
		cache.Cache
	}

	ctx := context.TODO()
	testEnvs := map[string]string{"CACHE_ENABLE_IN_PROGRESS": strconv.FormatBool(inProgress)}
	for key, value := range envs {
		if _, ok := testEnvs[key]; !ok {
			testEnvs[key] = value
		}
	}
	s := sql.NewSql()
	switch cacheType {
	case "memory":
		c = cache.NewMemory()
	case "redis":
		c = cache.NewRedis()
	}
	pausing := newPausingSql(s)
	l := logic.NewLogic(pausing, c)
	for _, configurer := range []internal.Configurer{s, c, l} {
		err := configurer.Configure(testEnvs)
		if !assert.Nil(t, err) {
			assert.FailNow(t, "unable to configure")
		}
	}
	for _, opener := range []internal.Opener{s, c, l} {
		err := opener.Open(ctx)
		if !assert.Nil(t, err) {
			assert.FailNow(t, "unable to open")
		}
	}
	defer func() {
		for _, opener := range []internal.Opener{l, c, s} {
			if err := opener.Close(ctx); err != nil {
				t.Logf("error while closing: %s", err)
			}
		}
	}()
	err := l.EmployeesDelete(ctx)
	assert.Nil(t, err)

	// create employee
	firstName := internal.GenerateId()[:14]
	employeeCreated, err := l.EmployeeSave(ctx, &data.Employee{
		FirstName: &firstName,
		Active:    true,
	})
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to create employee")
	}
	id := employeeCreated.Id

	// update the employee while the active list is being read
	pausing.armed.Store(true)
	chErr := make(chan error, 1)
	go func() {
		_, err := l.EmployeesReadByActive(ctx, true)
		chErr <- err
	}()
	<-pausing.paused
	employeeUpdated, err := l.EmployeeSave(ctx, &data.Employee{
		Id:        id,
		FirstName: &firstName,
		Active:    false,
	})
	assert.Nil(t, err)
	pausing.resume <- struct{}{}
	assert.Nil(t, <-chErr)
	employeesActive, err := l.EmployeesReadByActive(ctx, true)
	assert.Nil(t, err)
	assert.Empty(t, employeesActive)

	// update the employee while it's being read
	pausing.armed.Store(true)
	go func() {
		_, err := l.EmployeeRead(ctx, id)
		chErr <- err
	}()
	<-pausing.paused
	employeeUpdated.Active = true
	employeeUpdated, err = l.EmployeeSave(ctx, employeeUpdated)
	assert.Nil(t, err)
	pausing.resume <- struct{}{}
	assert.Nil(t, <-chErr)
	employeeRead, err := l.EmployeeRead(ctx, id)
	assert.Nil(t, err)
	assert.Equal(t, employeeUpdated, employeeRead)

	// delete the employee while it's being read
	err = c.Clear(ctx)
	assert.Nil(t, err)
	pausing.armed.Store(true)
	go func() {
		_, err := l.EmployeeRead(ctx, id)
		chErr <- err
	}()
	<-pausing.paused
	err = l.EmployeeDelete(ctx, id)
	assert.Nil(t, err)
	pausing.resume <- struct{}{}
	assert.Nil(t, <-chErr)
	employeeRead, err = l.EmployeeRead(ctx, id)
	assert.ErrorIs(t, err, data.ErrEmployeeNotFound)
	assert.Nil(t, employeeRead)
}

func testLogic(t *testing.T, cacheType string) {
	l := newLogicTest(cacheType)

	ctx := context.TODO()
	err := l.Configure(envs)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to configure logic")
	}
	err = l.Open(ctx)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open logic")
	}
	defer func() {
		if err := l.Close(ctx); err != nil {
			t.Logf("error while closing logic: %s", err)
		}
	}()
	t.Run("Logic", l.TestLogic)
}

func TestLogicMemory(t *testing.T) {
	testLogic(t, "memory")
}

func TestLogicRedis(t *testing.T) {
	if envs["REDIS_ADDRESS"] == "" {
		t.Skip("REDIS_ADDRESS not set")
	}
	testLogic(t, "redis")
}

func TestLogicMemoryFillRacingEviction(t *testing.T) {
	testLogicFillRacingEviction(t, "memory", false)
}

func TestLogicMemoryInProgressFillRacingEviction(t *testing.T) {
	testLogicFillRacingEviction(t, "memory", true)
}

func TestLogicRedisFillRacingEviction(t *testing.T) {
	if envs["REDIS_ADDRESS"] == "" {
		t.Skip("REDIS_ADDRESS not set")
	}
	testLogicFillRacingEviction(t, "redis", false)
}

func TestLogicMutateDisabled(t *testing.T) {
	ctx := context.TODO()
	sql := sql.NewSql()
	logic := logic.NewLogic(sql)
	err := logic.Configure(map[string]string{"MUTATE_DISABLED": "true"})
	assert.Nil(t, err)
	err = logic.Open(ctx)
	assert.Nil(t, err)
	defer func() {
		_ = logic.Close(ctx)
	}()

	_, err = logic.EmployeeSave(ctx, &data.Employee{})
	assert.ErrorIs(t, err, data.ErrMutationDisabled)
	err = logic.EmployeeDelete(ctx, 1)
	assert.ErrorIs(t, err, data.ErrMutationDisabled)
	err = logic.EmployeesDelete(ctx)
	assert.ErrorIs(t, err, data.ErrMutationDisabled)
}
