package sql

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	//import for driver support
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverMySql    string = "mysql"
	DriverSqlite   string = "sqlite3"
	DriverPostgres string = "postgres"
)

// dialect holds the bits of sql that aren't portable between the
// supported databases
type dialect struct {
	driverName   string
	containing   string // case-sensitive substring match against firstName
	createTable  string
	returning    bool // the generated id can only be read using RETURNING
	numbered     bool // placeholders are $1, $2... rather than ?
	maxOpenConns int
}

var dialects = map[string]dialect{
	DriverMySql: {
		driverName:  "mysql",
		containing:  "LOCATE(CAST(? AS BINARY), CAST(firstName AS BINARY)) > 0",
		createTable: `CREATE TABLE IF NOT EXISTS ` + tableEmployee + ` (
			id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			firstName VARCHAR(255),
			lastName VARCHAR(255),
			email VARCHAR(255),
			telephone VARCHAR(255),
			date DATE,
			active BOOLEAN NOT NULL DEFAULT FALSE
		);`,
	},
	DriverSqlite: {
		driverName:  "sqlite3",
		containing:  "instr(firstName, ?) > 0",
		createTable: `CREATE TABLE IF NOT EXISTS ` + tableEmployee + ` (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			firstName TEXT,
			lastName TEXT,
			email TEXT,
			telephone TEXT,
			date DATE,
			active BOOLEAN NOT NULL DEFAULT 0
		);`,
		//KIM: every connection to :memory: gets its own database
		maxOpenConns: 1,
	},
	DriverPostgres: {
		driverName:  "pgx",
		containing:  "strpos(firstName, ?) > 0",
		createTable: `CREATE TABLE IF NOT EXISTS ` + tableEmployee + ` (
			id BIGSERIAL PRIMARY KEY,
			firstName TEXT,
			lastName TEXT,
			email TEXT,
			telephone TEXT,
			date DATE,
			active BOOLEAN NOT NULL DEFAULT FALSE
		);`,
		returning: true,
		numbered:  true,
	},
}

func (d dialect) dataSourceName(hostname, port, username, password, database string, parseTime bool, sslMode string) string {
	switch d.driverName {
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=%t",
			username, password, hostname, port, database, parseTime)
	case "sqlite3":
		return database
	case "pgx":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(username, password),
			Host:     net.JoinHostPort(hostname, port),
			Path:     database,
			RawQuery: "sslmode=" + sslMode,
		}
		return u.String()
	}
}

// rebind replaces ? placeholders with $n when the dialect requires it
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var builder strings.Builder
	var n int

	for _, r := range query {
		if r != '?' {
			builder.WriteRune(r)
			continue
		}
		n++
		builder.WriteString("$" + strconv.Itoa(n))
	}
	return builder.String()
}
