// Package cli implements the dashboardctl commands on top of the client SDK.
package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/novaq/novaq-dashboard/internal/client"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitUsage    = 2
	ExitSignedIn = 3
)

// PasswordFunc reads a password without echoing it.
type PasswordFunc func(prompt string) (string, error)

// Runner executes commands against one auth context. The session cookies live
// in the client's jar for the lifetime of the Runner.
type Runner struct {
	API      *client.Client
	Auth     *client.AuthContext
	Password PasswordFunc
	// Jobs is optional; the jobs command fails without it.
	Jobs   *JobsCLI
	Stdout io.Writer
	Stderr io.Writer
}

func (r *Runner) out() io.Writer {
	if r.Stdout == nil {
		return os.Stdout
	}
	return r.Stdout
}

func (r *Runner) errOut() io.Writer {
	if r.Stderr == nil {
		return os.Stderr
	}
	return r.Stderr
}

func (r *Runner) failf(format string, args ...any) int {
	_, _ = fmt.Fprintf(r.errOut(), format+"\n", args...)
	return ExitError
}

// Usage prints the command summary.
func (r *Runner) Usage() {
	_, _ = fmt.Fprint(r.errOut(), `commands:
  login -user ID [-role Accountant|SystemAdmin] [-password P]
  whoami
  customers [-q text] [-hide col,col] [-csv file]
  balances [-year YYYY] [-customer OID] [-csv file]
  jobs stats | jobs trigger TASK
  logout
`)
}

// Run executes one command line.
func (r *Runner) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		r.Usage()
		return ExitUsage
	}
	name, rest := args[0], args[1:]
	switch name {
	case "login":
		return r.login(ctx, rest)
	case "whoami":
		return r.whoami(ctx)
	case "customers":
		return r.customers(ctx, rest)
	case "balances":
		return r.balances(ctx, rest)
	case "jobs":
		return r.jobs(ctx, rest)
	case "logout":
		r.Auth.Logout(ctx)
		_, _ = fmt.Fprintln(r.out(), "signed out")
		return ExitOK
	case "help":
		r.Usage()
		return ExitOK
	default:
		_, _ = fmt.Fprintf(r.errOut(), "unknown command %q\n", name)
		r.Usage()
		return ExitUsage
	}
}

// Shell reads commands line by line until EOF or "exit". It returns the exit
// code of the last command.
func (r *Runner) Shell(ctx context.Context, in io.Reader) int {
	code := ExitOK
	scanner := bufio.NewScanner(in)
	for {
		_, _ = fmt.Fprint(r.errOut(), "novaq> ")
		if !scanner.Scan() {
			break
		}
		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			break
		}
		code = r.Run(ctx, args)
		if ctx.Err() != nil {
			break
		}
	}
	return code
}

// requireSession refreshes the context once when it is not signed in.
func (r *Runner) requireSession(ctx context.Context) bool {
	if r.Auth.IsLogged() {
		return true
	}
	r.Auth.Refresh(ctx)
	if r.Auth.IsLogged() {
		return true
	}
	_, _ = fmt.Fprintln(r.errOut(), "not signed in; run login first")
	return false
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}
