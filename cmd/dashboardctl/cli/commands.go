package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/novaq/novaq-dashboard/internal/balances"
	"github.com/novaq/novaq-dashboard/internal/client"
	"github.com/novaq/novaq-dashboard/internal/customers"
	"github.com/novaq/novaq-dashboard/internal/datatable"
	"github.com/novaq/novaq-dashboard/internal/shared"
)

func (r *Runner) login(ctx context.Context, args []string) int {
	fs := newFlagSet("login", r.errOut())
	user := fs.String("user", "", "user name")
	role := fs.String("role", shared.RoleAccountant, "Accountant or SystemAdmin")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if strings.TrimSpace(*user) == "" {
		_, _ = fmt.Fprintln(r.errOut(), "login: -user is required")
		return ExitUsage
	}
	if *password == "" {
		if r.Password == nil {
			return r.failf("login: no password given")
		}
		value, err := r.Password("password: ")
		if err != nil {
			return r.failf("login: read password: %v", err)
		}
		*password = value
	}

	res := r.Auth.Login(ctx, client.LoginFormValues{UserID: strings.TrimSpace(*user), Password: *password, Role: *role})
	if !res.OK {
		_, _ = fmt.Fprintf(r.errOut(), "login failed: %s\n", res.Error)
		keys := make([]string, 0, len(res.Fields))
		for k := range res.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_, _ = fmt.Fprintf(r.errOut(), "  %s: %s\n", k, res.Fields[k])
		}
		return ExitError
	}
	_, _ = fmt.Fprintf(r.out(), "signed in as %s\n", res.User.DisplayName())
	return ExitOK
}

func (r *Runner) whoami(ctx context.Context) int {
	if !r.requireSession(ctx) {
		return ExitSignedIn
	}
	u := r.Auth.User()
	w := tabwriter.NewWriter(r.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "name\t%s\n", u.DisplayName())
	_, _ = fmt.Fprintf(w, "user\t%s\n", u.UserName)
	_, _ = fmt.Fprintf(w, "role\t%s\n", u.RoleName)
	if u.AccountantOid != "" {
		_, _ = fmt.Fprintf(w, "accountant\t%s\n", u.AccountantOid)
	}
	return flushExit(w, r)
}

func (r *Runner) customers(ctx context.Context, args []string) int {
	fs := newFlagSet("customers", r.errOut())
	quick := fs.String("q", "", "quick filter")
	hide := fs.String("hide", "", "comma separated column ids to toggle")
	csvPath := fs.String("csv", "", "write CSV to this file")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if !r.requireSession(ctx) {
		return ExitSignedIn
	}
	rows, err := r.API.Customers(ctx)
	if err != nil {
		return r.failf("customers: %v", err)
	}
	ref, err := r.API.Reference(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(r.errOut(), "customers: reference data unavailable: %v\n", err)
	}
	table, err := datatable.New(rows, customers.ListColumns(ref), datatable.Options{FileName: "customers.csv"})
	if err != nil {
		return r.failf("customers: %v", err)
	}
	for _, id := range splitList(*hide) {
		if err := table.ToggleColumn(id); err != nil {
			return r.failf("customers: %v", err)
		}
	}
	table.SetQuickFilter(*quick)
	return r.emit(table, *csvPath)
}

func (r *Runner) balances(ctx context.Context, args []string) int {
	fs := newFlagSet("balances", r.errOut())
	year := fs.String("year", "", "balance year")
	customer := fs.String("customer", "", "customer oid")
	csvPath := fs.String("csv", "", "write CSV to this file")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if *year != "" {
		if _, err := strconv.Atoi(*year); err != nil {
			_, _ = fmt.Fprintf(r.errOut(), "balances: invalid year %q\n", *year)
			return ExitUsage
		}
	}
	if !r.requireSession(ctx) {
		return ExitSignedIn
	}
	rows, err := r.API.Balances(ctx, *year, *customer)
	if err != nil {
		return r.failf("balances: %v", err)
	}
	table := datatable.MustNew(rows, balances.ListColumns(), datatable.Options{FileName: "account-period-balances.csv"})
	table.SetPinnedBottom([]balances.AccountBalance{balances.TotalsRow(table.Rows())})
	return r.emit(table, *csvPath)
}

func (r *Runner) jobs(ctx context.Context, args []string) int {
	if r.Jobs == nil {
		return r.failf("jobs: -redis is not set")
	}
	if len(args) == 0 {
		r.Usage()
		return ExitUsage
	}
	switch args[0] {
	case "stats":
		stats, err := r.Jobs.InspectQueue(ctx)
		if err != nil {
			return r.failf("jobs: %v", err)
		}
		_, _ = fmt.Fprintf(r.out(), "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return ExitOK
	case "trigger":
		if len(args) < 2 {
			r.Usage()
			return ExitUsage
		}
		info, err := r.Jobs.Trigger(ctx, args[1])
		if err != nil {
			return r.failf("jobs: %v", err)
		}
		_, _ = fmt.Fprintf(r.out(), "enqueued %s id=%s\n", info.Type, info.ID)
		return ExitOK
	default:
		r.Usage()
		return ExitUsage
	}
}

// exportable is satisfied by every datatable.Table.
type exportable interface {
	Records() [][]string
	WriteCSV(io.Writer) error
}

// emit writes the table as CSV when path is set, otherwise as aligned text.
func (r *Runner) emit(table exportable, path string) int {
	if path == "" {
		w := tabwriter.NewWriter(r.out(), 0, 4, 2, ' ', 0)
		for _, record := range table.Records() {
			_, _ = fmt.Fprintln(w, strings.Join(record, "\t"))
		}
		return flushExit(w, r)
	}
	f, err := os.Create(path)
	if err != nil {
		return r.failf("export: %v", err)
	}
	if err := table.WriteCSV(f); err != nil {
		_ = f.Close()
		return r.failf("export: %v", err)
	}
	if err := f.Close(); err != nil {
		return r.failf("export: %v", err)
	}
	_, _ = fmt.Fprintf(r.out(), "wrote %s\n", path)
	return ExitOK
}

func flushExit(w *tabwriter.Writer, r *Runner) int {
	if err := w.Flush(); err != nil {
		return r.failf("write: %v", err)
	}
	return ExitOK
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" && !slices.Contains(out, part) {
			out = append(out, part)
		}
	}
	return out
}
