package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/antonio-alexander/go-employee-booking/internal"
	"github.com/antonio-alexander/go-employee-booking/internal/client"
	"github.com/antonio-alexander/go-employee-booking/internal/data"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	Version   string
	GitCommit string
	GitBranch string
)

func init() {
	if Version = data.Version; Version == "" {
		Version = "<no_version_provided>"
	}
	if GitCommit = data.GitCommit; GitCommit == "" {
		GitCommit = "<no_git_commit>"
	}
	if GitBranch = data.GitBranch; GitBranch == "" {
		GitBranch = "<no_git_branch>"
	}
}

func main() {
	args := os.Args[1:]
	_ = godotenv.Load()
	envs := make(map[string]string)
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal, syscall.SIGINT, syscall.SIGTERM)
	if err := Main(args, envs, osSignal); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

type employeeFlags struct {
	firstName string
	lastName  string
	email     string
	telephone string
	hireDate  string
	active    bool
}

func (f *employeeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&f.lastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&f.email, "email", "", "email")
	cmd.Flags().StringVar(&f.telephone, "telephone", "", "telephone")
	cmd.Flags().StringVar(&f.hireDate, "hire-date", "", "hire date ("+data.DateLayout+")")
	cmd.Flags().BoolVar(&f.active, "active", false, "active")
}

// employee only sets the fields whose flags were provided, update is a
// full replace so omitted flags are cleared
func (f *employeeFlags) employee(cmd *cobra.Command) (*data.Employee, error) {
	employee := &data.Employee{Active: f.active}
	if cmd.Flags().Changed("first-name") {
		employee.FirstName = &f.firstName
	}
	if cmd.Flags().Changed("last-name") {
		employee.LastName = &f.lastName
	}
	if cmd.Flags().Changed("email") {
		employee.Email = &f.email
	}
	if cmd.Flags().Changed("telephone") {
		employee.Telephone = &f.telephone
	}
	if cmd.Flags().Changed("hire-date") {
		hireDate := &data.Date{}
		if err := hireDate.UnmarshalJSON([]byte(strconv.Quote(f.hireDate))); err != nil {
			return nil, errors.Wrap(err, "invalid hire date")
		}
		employee.HireDate = hireDate
	}
	return employee, nil
}

func printJson(item any) error {
	bytes, err := json.MarshalIndent(item, "", " ")
	if err != nil {
		return err
	}
	fmt.Println(string(bytes))
	return nil
}

func parseId(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid id: %s", s)
	}
	return id, nil
}

func newRootCommand(ctx context.Context, c client.Client) *cobra.Command {
	var firstNameFilter string
	var createFlags, updateFlags employeeFlags

	root := &cobra.Command{
		Use:           "client",
		Short:         "go-employee-booking client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "list employees, optionally filtered by first name (case-sensitive)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			employees, err := c.EmployeesRead(ctx, firstNameFilter)
			if err != nil {
				return err
			}
			return printJson(employees)
		},
	}
	list.Flags().StringVar(&firstNameFilter, "first-name-filter", "", "substring of the first name")
	read := &cobra.Command{
		Use:   "read ID",
		Short: "read an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseId(args[0])
			if err != nil {
				return err
			}
			employee, err := c.EmployeeRead(ctx, id)
			if err != nil {
				return err
			}
			return printJson(employee)
		},
	}
	active := &cobra.Command{
		Use:   "active",
		Short: "list active employees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			employees, err := c.EmployeesActiveRead(ctx)
			if err != nil {
				return err
			}
			return printJson(employees)
		},
	}
	create := &cobra.Command{
		Use:   "create",
		Short: "create an employee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			employee, err := createFlags.employee(cmd)
			if err != nil {
				return err
			}
			employeeCreated, err := c.EmployeeCreate(ctx, employee)
			if err != nil {
				return err
			}
			return printJson(employeeCreated)
		},
	}
	createFlags.bind(create)
	update := &cobra.Command{
		Use:   "update ID",
		Short: "replace every field of an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseId(args[0])
			if err != nil {
				return err
			}
			employee, err := updateFlags.employee(cmd)
			if err != nil {
				return err
			}
			employeeUpdated, err := c.EmployeeUpdate(ctx, id, employee)
			if err != nil {
				return err
			}
			return printJson(employeeUpdated)
		},
	}
	updateFlags.bind(update)
	remove := &cobra.Command{
		Use:   "delete [ID]",
		Short: "delete an employee or, without an id, every employee",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return c.EmployeesDelete(ctx)
			}
			id, err := parseId(args[0])
			if err != nil {
				return err
			}
			return c.EmployeeDelete(ctx, id)
		},
	}
	cache := &cobra.Command{
		Use:   "cache",
		Short: "clear the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.CacheClear(ctx)
		},
	}
	counters := &cobra.Command{
		Use:   "counters",
		Short: "read the cache counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cacheCounters, err := c.CacheCountersRead(ctx)
			if err != nil {
				return err
			}
			return printJson(cacheCounters)
		},
	}
	timers := &cobra.Command{
		Use:   "timers",
		Short: "read the endpoint timers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			timers, err := c.TimersRead(ctx)
			if err != nil {
				return err
			}
			return printJson(timers)
		},
	}
	version := &cobra.Command{
		Use:   "version",
		Short: "print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("client: go-employee-booking v%s (%s) built from: %s\n",
				Version, GitCommit, GitBranch)
		},
	}
	root.AddCommand(list, read, active, create, update, remove,
		cache, counters, timers, version)
	return root
}

func Main(args []string, envs map[string]string, osSignal chan (os.Signal)) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-ctx.Done():
		case <-osSignal:
			cancel()
		}
	}()

	//create client
	client := client.NewClient()
	if err := client.Configure(envs); err != nil {
		return err
	}
	if err := client.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := client.Close(ctx); err != nil {
			fmt.Printf("error while closing client: %s\n", err)
		}
	}()

	// execute command
	ctx = internal.CtxWithCorrelationId(ctx, "client_"+internal.GenerateId())
	root := newRootCommand(ctx, client)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
