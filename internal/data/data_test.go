package data_test

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/antonio-alexander/go-employee-booking/internal/data"

	"github.com/stretchr/testify/assert"
)

func TestDate(t *testing.T) {
	hireDate := data.NewDate(2021, time.March, 7)
	bytes, err := json.Marshal(hireDate)
	assert.Nil(t, err)
	assert.Equal(t, `"07-03-2021"`, string(bytes))

	dateRead := &data.Date{}
	err = json.Unmarshal([]byte(`"31-12-1999"`), dateRead)
	assert.Nil(t, err)
	assert.Equal(t, 1999, dateRead.Year())
	assert.Equal(t, time.December, dateRead.Month())
	assert.Equal(t, 31, dateRead.Day())

	err = json.Unmarshal([]byte(`"1999-12-31"`), dateRead)
	assert.NotNil(t, err)
}

func TestEmployeeJson(t *testing.T) {
	var employee data.Employee

	err := json.Unmarshal([]byte(`{"id":12,"firstName":"Ana","hireDate":"01-02-2020","active":true}`), &employee)
	assert.Nil(t, err)
	assert.Equal(t, int64(12), employee.Id)
	if assert.NotNil(t, employee.FirstName) {
		assert.Equal(t, "Ana", *employee.FirstName)
	}
	assert.Nil(t, employee.LastName)
	assert.Nil(t, employee.Email)
	assert.True(t, employee.Active)
	if assert.NotNil(t, employee.HireDate) {
		assert.Equal(t, "01-02-2020", employee.HireDate.String())
	}

	bytes, err := json.Marshal(&employee)
	assert.Nil(t, err)
	assert.JSONEq(t, `{"id":12,"firstName":"Ana","lastName":null,"email":null,
		"telephone":null,"hireDate":"01-02-2020","active":true}`, string(bytes))
}

func TestEmployeeReplace(t *testing.T) {
	firstName, email := "A", "a@x.com"
	employee := &data.Employee{
		Id:        4,
		FirstName: &firstName,
		Email:     &email,
		HireDate:  data.NewDate(2020, time.January, 1),
		Active:    true,
	}
	newFirstName := "B"
	employee.Replace(&data.Employee{Id: 99, FirstName: &newFirstName})
	assert.Equal(t, int64(4), employee.Id)
	if assert.NotNil(t, employee.FirstName) {
		assert.Equal(t, "B", *employee.FirstName)
	}
	assert.Nil(t, employee.Email)
	assert.Nil(t, employee.HireDate)
	assert.False(t, employee.Active)

	employeeCopy := employee.Copy()
	assert.Equal(t, employee, employeeCopy)
	*employeeCopy.FirstName = "C"
	assert.Equal(t, "B", *employee.FirstName)
}

func TestEmployeeSearch(t *testing.T) {
	var search data.EmployeeSearch

	search.FromParams(url.Values{data.ParameterFirstNameFilter: []string{""}})
	assert.Nil(t, search.FirstNameContaining)
	keyAll, err := search.ToKey()
	assert.Nil(t, err)

	search.FromParams(url.Values{data.ParameterFirstNameFilter: []string{"An"}})
	if assert.NotNil(t, search.FirstNameContaining) {
		assert.Equal(t, "An", *search.FirstNameContaining)
	}
	assert.Equal(t, "An", search.ToParams().Get(data.ParameterFirstNameFilter))
	keyFirstName, err := search.ToKey()
	assert.Nil(t, err)
	assert.NotEqual(t, keyAll, keyFirstName)

	active := true
	keyActive, err := (&data.EmployeeSearch{Active: &active}).ToKey()
	assert.Nil(t, err)
	assert.NotEqual(t, keyAll, keyActive)
	assert.NotEqual(t, keyFirstName, keyActive)
}
