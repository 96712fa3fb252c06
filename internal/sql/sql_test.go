package sql_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/antonio-alexander/go-employee-booking/internal"
	"github.com/antonio-alexander/go-employee-booking/internal/data"
	"github.com/antonio-alexander/go-employee-booking/internal/sql"

	"github.com/stretchr/testify/assert"
)

var (
	envs = map[string]string{
		"DATABASE_DRIVER":          "sqlite3",
		"DATABASE_HOST":            "localhost",
		"DATABASE_PORT":            "3306",
		"DATABASE_NAME":            ":memory:",
		"DATABASE_USER":            "mysql",
		"DATABASE_PASSWORD":        "mysql",
		"DATABASE_QUERY_TIMEOUT":   "10",
		"DATABASE_PARSE_TIME":      "true",
		"DATABASE_CONNECT_RETRIES": "2",
		"DATABASE_CREATE_TABLE":    "true",
	}
)

func init() {
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
}

type sqlTest struct {
	sql interface {
		internal.Opener
		internal.Configurer
	}
	sql.Sql
}

func newSqlTest() *sqlTest {
	sql := sql.NewSql()
	return &sqlTest{
		sql: sql,
		Sql: sql,
	}
}

func stringPtr(s string) *string {
	return &s
}

func (s *sqlTest) TestEmployeeCrud(t *testing.T) {
	ctx := context.TODO()

	// create employee
	firstName := internal.GenerateId()[:14]
	employeeCreated, err := s.EmployeeSave(ctx, &data.Employee{
		Id:        -1,
		FirstName: &firstName,
		LastName:  stringPtr("Popa"),
		Email:     stringPtr("a@x.com"),
		HireDate:  data.NewDate(2020, time.February, 29),
		Active:    true,
	})
	//KIM: a negative id is treated as an update of a row that doesn't exist
	assert.ErrorIs(t, err, data.ErrEmployeeNotFound)
	assert.Nil(t, employeeCreated)
	employeeCreated, err = s.EmployeeSave(ctx, &data.Employee{
		FirstName: &firstName,
		LastName:  stringPtr("Popa"),
		Email:     stringPtr("a@x.com"),
		HireDate:  data.NewDate(2020, time.February, 29),
		Active:    true,
	})
	assert.Nil(t, err)
	if !assert.NotNil(t, employeeCreated) {
		assert.FailNow(t, "unable to create employee")
	}
	assert.NotZero(t, employeeCreated.Id)
	assert.Equal(t, firstName, *employeeCreated.FirstName)
	assert.Equal(t, "Popa", *employeeCreated.LastName)
	assert.Nil(t, employeeCreated.Telephone)
	if assert.NotNil(t, employeeCreated.HireDate) {
		assert.Equal(t, "29-02-2020", employeeCreated.HireDate.String())
	}
	assert.True(t, employeeCreated.Active)
	id := employeeCreated.Id
	defer func(id int64) {
		_ = s.EmployeeDelete(ctx, id)
	}(id)

	// update an employee that doesn't exist
	employeeMissing, err := s.EmployeeSave(ctx, &data.Employee{
		Id:        id + 1000,
		FirstName: &firstName,
	})
	assert.ErrorIs(t, err, data.ErrEmployeeNotFound)
	assert.Nil(t, employeeMissing)

	// read employee
	employeeRead, err := s.EmployeeRead(ctx, id)
	assert.Nil(t, err)
	assert.Equal(t, employeeCreated, employeeRead)

	// update employee (full replace)
	updatedFirstName := internal.GenerateId()[:14]
	employeeUpdated, err := s.EmployeeSave(ctx, &data.Employee{
		Id:        id,
		FirstName: &updatedFirstName,
	})
	assert.Nil(t, err)
	if assert.NotNil(t, employeeUpdated) {
		assert.Equal(t, id, employeeUpdated.Id)
		assert.Equal(t, updatedFirstName, *employeeUpdated.FirstName)
		assert.Nil(t, employeeUpdated.LastName)
		assert.Nil(t, employeeUpdated.Email)
		assert.Nil(t, employeeUpdated.HireDate)
		assert.False(t, employeeUpdated.Active)
	}

	// read employee again
	employeeRead, err = s.EmployeeRead(ctx, id)
	assert.Nil(t, err)
	assert.Equal(t, employeeUpdated, employeeRead)

	// delete employee
	err = s.EmployeeDelete(ctx, id)
	assert.Nil(t, err)

	// read employee again
	employeeRead, err = s.EmployeeRead(ctx, id)
	assert.ErrorIs(t, err, data.ErrEmployeeNotFound)
	assert.Nil(t, employeeRead)

	// delete employee again
	err = s.EmployeeDelete(ctx, id)
	assert.Nil(t, err)
}

func (s *sqlTest) TestEmployeesFilters(t *testing.T) {
	ctx := context.TODO()

	err := s.EmployeesDelete(ctx)
	assert.Nil(t, err)

	// create employees
	var employees []*data.Employee
	for _, employee := range []*data.Employee{
		{FirstName: stringPtr("Anastasia"), Active: true},
		{FirstName: stringPtr("Joanna"), Active: false},
		{FirstName: stringPtr("ANA"), Active: true},
		{FirstName: nil, Active: false},
	} {
		employeeCreated, err := s.EmployeeSave(ctx, employee)
		if !assert.Nil(t, err) {
			assert.FailNow(t, "unable to create employee")
		}
		employees = append(employees, employeeCreated)
	}

	// read all
	employeesRead, err := s.EmployeesRead(ctx)
	assert.Nil(t, err)
	assert.Len(t, employeesRead, len(employees))
	for _, employee := range employees {
		assert.Contains(t, employeesRead, employee)
	}

	// read active/inactive
	employeesActive, err := s.EmployeesReadByActive(ctx, true)
	assert.Nil(t, err)
	assert.ElementsMatch(t, []*data.Employee{employees[0], employees[2]}, employeesActive)
	employeesInactive, err := s.EmployeesReadByActive(ctx, false)
	assert.Nil(t, err)
	assert.ElementsMatch(t, []*data.Employee{employees[1], employees[3]}, employeesInactive)

	// read first name containing (case-sensitive)
	employeesRead, err = s.EmployeesReadByFirstNameContaining(ctx, "na")
	assert.Nil(t, err)
	assert.ElementsMatch(t, []*data.Employee{employees[0], employees[1]}, employeesRead)
	employeesRead, err = s.EmployeesReadByFirstNameContaining(ctx, "ANA")
	assert.Nil(t, err)
	assert.ElementsMatch(t, []*data.Employee{employees[2]}, employeesRead)
	employeesRead, err = s.EmployeesReadByFirstNameContaining(ctx, "zzz")
	assert.Nil(t, err)
	assert.Empty(t, employeesRead)

	// delete all
	err = s.EmployeesDelete(ctx)
	assert.Nil(t, err)
	employeesRead, err = s.EmployeesRead(ctx)
	assert.Nil(t, err)
	assert.NotNil(t, employeesRead)
	assert.Empty(t, employeesRead)
	employeesActive, err = s.EmployeesReadByActive(ctx, true)
	assert.Nil(t, err)
	assert.Empty(t, employeesActive)
}

func testSql(t *testing.T) {
	c := newSqlTest()

	ctx := context.TODO()
	err := c.sql.Configure(envs)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to configure sqlTest")
	}
	err = c.sql.Open(ctx)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open sqlTest")
	}
	defer func() {
		_ = c.sql.Close(ctx)
	}()
	t.Run("Employee Crud", c.TestEmployeeCrud)
	t.Run("Employees Filters", c.TestEmployeesFilters)
}

func TestSql(t *testing.T) {
	testSql(t)
}

func TestSqlUnsupportedDriver(t *testing.T) {
	err := sql.NewSql().Configure(map[string]string{
		"DATABASE_DRIVER": "oracle",
	})
	assert.NotNil(t, err)
}
