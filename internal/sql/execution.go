package sql

import (
	"database/sql"
	"strings"

	"github.com/antonio-alexander/go-employee-booking/internal/data"
)

const employeeColumns string = "id, firstName, lastName, email, telephone, date, active"

func employeeCriteria(d dialect, search data.EmployeeSearch) (string, []any) {
	var args []any
	var criteria []string

	if search.Active != nil {
		args = append(args, *search.Active)
		criteria = append(criteria, "active = ?")
	}
	if search.FirstNameContaining != nil {
		args = append(args, *search.FirstNameContaining)
		criteria = append(criteria, d.containing)
	}
	if len(criteria) <= 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(criteria, " AND "), args
}

// employeeArgs returns the values of every column except id in
// the order they appear in employeeColumns
func employeeArgs(employee *data.Employee) []any {
	var hireDate sql.NullTime

	if employee.HireDate != nil {
		hireDate = sql.NullTime{Time: employee.HireDate.Time, Valid: true}
	}
	return []any{
		nullString(employee.FirstName),
		nullString(employee.LastName),
		nullString(employee.Email),
		nullString(employee.Telephone),
		hireDate,
		employee.Active,
	}
}

func employeeScan(scanFx func(...any) error) (*data.Employee, error) {
	var firstName, lastName, email, telephone sql.NullString
	var hireDate sql.NullTime

	employee := new(data.Employee)
	if err := scanFx(
		&employee.Id,
		&firstName,
		&lastName,
		&email,
		&telephone,
		&hireDate,
		&employee.Active,
	); err != nil {
		return nil, err
	}
	employee.FirstName = stringPtr(firstName)
	employee.LastName = stringPtr(lastName)
	employee.Email = stringPtr(email)
	employee.Telephone = stringPtr(telephone)
	if hireDate.Valid {
		employee.HireDate = data.DateFromTime(hireDate.Time)
	}
	return employee, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
