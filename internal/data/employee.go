package data

import "encoding/json"

// Employee is the only record stored by the service, id is generated by the
// database on creation and never changes afterwards
type Employee struct {
	Id        int64   `json:"id"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
	Telephone *string `json:"telephone"`
	HireDate  *Date   `json:"hireDate"`
	Active    bool    `json:"active"`
}

// Replace overwrites every field except the id with the values found
// in newEmployee; fields that are unset in newEmployee are unset here too
func (e *Employee) Replace(newEmployee *Employee) {
	e.FirstName = copyString(newEmployee.FirstName)
	e.LastName = copyString(newEmployee.LastName)
	e.Email = copyString(newEmployee.Email)
	e.Telephone = copyString(newEmployee.Telephone)
	e.HireDate = copyDate(newEmployee.HireDate)
	e.Active = newEmployee.Active
}

// Copy returns a deep copy of the employee
func (e *Employee) Copy() *Employee {
	employee := &Employee{Id: e.Id}
	employee.Replace(e)
	return employee
}

func (e *Employee) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

func (e *Employee) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, e)
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func copyDate(d *Date) *Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
