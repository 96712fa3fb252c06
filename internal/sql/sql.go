package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/antonio-alexander/go-employee-booking/internal"
	"github.com/antonio-alexander/go-employee-booking/internal/data"
	"github.com/antonio-alexander/go-employee-booking/internal/utilities"

	"github.com/cenkalti/backoff/v5"
)

const tableEmployee = "employee"

// Sql is the data access layer for employees, every method is a
// single query against the employee table
type Sql interface {
	// EmployeeSave inserts the employee if its id is zero, otherwise it
	// overwrites every column of the row with the matching id; an id with
	// no matching row returns data.ErrEmployeeNotFound
	EmployeeSave(ctx context.Context, employee *data.Employee) (*data.Employee, error)
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeesRead(ctx context.Context) ([]*data.Employee, error)
	EmployeesReadByActive(ctx context.Context, active bool) ([]*data.Employee, error)
	EmployeesReadByFirstNameContaining(ctx context.Context, firstName string) ([]*data.Employee, error)
	EmployeesSearch(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error)
	// EmployeeDelete doesn't fail if the employee doesn't exist
	EmployeeDelete(ctx context.Context, id int64) error
	EmployeesDelete(ctx context.Context) error
}

type sqlDB struct {
	config struct {
		Driver         string        `json:"driver"`
		Hostname       string        `json:"hostname"`
		Port           string        `json:"port"`
		Username       string        `json:"username"`
		Password       string        `json:"password"`
		Database       string        `json:"database"`
		SslMode        string        `json:"ssl_mode"`
		QueryTimeout   time.Duration `json:"query_timeout"`
		ParseTime      bool          `json:"parse_time"`
		ConnectRetries uint          `json:"connect_retries"`
		CreateTable    bool          `json:"create_table"`
	}
	dialect dialect
	*sql.DB
	utilities.Logger
	opened bool
}

func NewSql(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Sql
} {
	s := &sqlDB{Logger: utilities.NewNopLogger()}
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case utilities.Logger:
			s.Logger = v
		}
	}
	return s
}

func (s *sqlDB) Configure(envs map[string]string) error {
	s.config.Driver = DriverMySql
	s.config.ParseTime = true
	s.config.SslMode = "disable"
	if driver := envs["DATABASE_DRIVER"]; driver != "" {
		s.config.Driver = driver
	}
	if _, ok := dialects[s.config.Driver]; !ok {
		return fmt.Errorf("unsupported database driver: %s", s.config.Driver)
	}
	if databaseHost := envs["DATABASE_HOST"]; databaseHost != "" {
		s.config.Hostname = databaseHost
	}
	if databasePort := envs["DATABASE_PORT"]; databasePort != "" {
		s.config.Port = databasePort
	}
	if database := envs["DATABASE_NAME"]; database != "" {
		s.config.Database = database
	}
	if username := envs["DATABASE_USER"]; username != "" {
		s.config.Username = username
	}
	if password := envs["DATABASE_PASSWORD"]; password != "" {
		s.config.Password = password
	}
	if sslMode := envs["DATABASE_SSL_MODE"]; sslMode != "" {
		s.config.SslMode = sslMode
	}
	if _, ok := envs["DATABASE_QUERY_TIMEOUT"]; ok {
		i, _ := strconv.ParseInt(envs["DATABASE_QUERY_TIMEOUT"], 10, 64)
		s.config.QueryTimeout = time.Duration(i) * time.Second
	}
	if _, ok := envs["DATABASE_PARSE_TIME"]; ok {
		s.config.ParseTime, _ = strconv.ParseBool(envs["DATABASE_PARSE_TIME"])
	}
	if _, ok := envs["DATABASE_CONNECT_RETRIES"]; ok {
		i, _ := strconv.ParseUint(envs["DATABASE_CONNECT_RETRIES"], 10, 32)
		s.config.ConnectRetries = uint(i)
	}
	if _, ok := envs["DATABASE_CREATE_TABLE"]; ok {
		s.config.CreateTable, _ = strconv.ParseBool(envs["DATABASE_CREATE_TABLE"])
	}
	return nil
}

func (s *sqlDB) Open(ctx context.Context) error {
	s.dialect = dialects[s.config.Driver]
	dataSourceName := s.dialect.dataSourceName(s.config.Hostname,
		s.config.Port, s.config.Username, s.config.Password,
		s.config.Database, s.config.ParseTime, s.config.SslMode)
	db, err := sql.Open(s.dialect.driverName, dataSourceName)
	if err != nil {
		return err
	}
	if s.dialect.maxOpenConns > 0 {
		db.SetMaxOpenConns(s.dialect.maxOpenConns)
	}
	if _, err := backoff.Retry(ctx, func() (struct{}, error) {
		if err := db.PingContext(ctx); err != nil {
			s.Debug(ctx, "unable to ping database (%s): %s", s.config.Driver, err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(s.config.ConnectRetries+1)); err != nil {
		_ = db.Close()
		return err
	}
	if s.config.CreateTable {
		if _, err := db.ExecContext(ctx, s.dialect.createTable); err != nil {
			_ = db.Close()
			return err
		}
	}
	s.DB = db
	s.opened = true
	s.Info(ctx, "connected to database (%s)", s.config.Driver)
	return nil
}

func (s *sqlDB) Close(ctx context.Context) error {
	if !s.opened {
		return nil
	}
	if err := s.DB.Close(); err != nil {
		s.Error(ctx, "error while closing sql: %s", err)
	}
	s.opened = false
	return nil
}

func (s *sqlDB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.QueryTimeout)
}

func (s *sqlDB) employeeInsert(ctx context.Context, employee *data.Employee) (int64, error) {
	query := s.dialect.rebind(fmt.Sprintf(`INSERT INTO %s (firstName, lastName,
		email, telephone, date, active) VALUES (?, ?, ?, ?, ?, ?)`, tableEmployee))
	args := employeeArgs(employee)
	if s.dialect.returning {
		var id int64

		row := s.QueryRowContext(ctx, query+" RETURNING id", args...)
		if err := row.Scan(&id); err != nil {
			return -1, err
		}
		return id, nil
	}
	result, err := s.ExecContext(ctx, query, args...)
	if err != nil {
		return -1, err
	}
	return result.LastInsertId()
}

func (s *sqlDB) EmployeeSave(ctx context.Context, employee *data.Employee) (*data.Employee, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	id := employee.Id
	if id == 0 {
		var err error

		if id, err = s.employeeInsert(ctx, employee); err != nil {
			return nil, err
		}
		return s.EmployeeRead(ctx, id)
	}
	query := s.dialect.rebind(fmt.Sprintf(`UPDATE %s SET firstName = ?,
		lastName = ?, email = ?, telephone = ?, date = ?, active = ?
		WHERE id = ?;`, tableEmployee))
	args := append(employeeArgs(employee), id)
	if _, err := s.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}
	return s.EmployeeRead(ctx, id)
}

func (s *sqlDB) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := s.dialect.rebind(fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?;`,
		employeeColumns, tableEmployee))
	row := s.QueryRowContext(ctx, query, id)
	employee, err := employeeScan(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, data.ErrEmployeeNotFound
		}
		return nil, err
	}
	return employee, nil
}

func (s *sqlDB) EmployeesRead(ctx context.Context) ([]*data.Employee, error) {
	return s.EmployeesSearch(ctx, data.EmployeeSearch{})
}

func (s *sqlDB) EmployeesReadByActive(ctx context.Context, active bool) ([]*data.Employee, error) {
	return s.EmployeesSearch(ctx, data.EmployeeSearch{Active: &active})
}

func (s *sqlDB) EmployeesReadByFirstNameContaining(ctx context.Context, firstName string) ([]*data.Employee, error) {
	return s.EmployeesSearch(ctx, data.EmployeeSearch{FirstNameContaining: &firstName})
}

func (s *sqlDB) EmployeesSearch(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	employees := []*data.Employee{}
	criteria, args := employeeCriteria(s.dialect, search)
	query := s.dialect.rebind(fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY id;`,
		employeeColumns, tableEmployee, criteria))
	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		employee, err := employeeScan(rows.Scan)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

func (s *sqlDB) EmployeeDelete(ctx context.Context, id int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := s.dialect.rebind(fmt.Sprintf(`DELETE FROM %s WHERE id = ?;`,
		tableEmployee))
	if _, err := s.ExecContext(ctx, query, id); err != nil {
		return err
	}
	return nil
}

func (s *sqlDB) EmployeesDelete(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`DELETE FROM %s;`, tableEmployee)
	if _, err := s.ExecContext(ctx, query); err != nil {
		return err
	}
	return nil
}
