package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/novaq/novaq-dashboard/cmd/dashboardctl/cli"
	"github.com/novaq/novaq-dashboard/internal/client"
	"github.com/novaq/novaq-dashboard/internal/shared"
)

const userAgent = "dashboardctl/1.0"

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("dashboardctl", flag.ContinueOnError)
	baseURL := fs.String("url", envOr("NOVAQ_URL", "http://localhost:8080"), "dashboard base URL")
	user := fs.String("user", os.Getenv("NOVAQ_USER"), "sign in as this user before running the command")
	role := fs.String("role", shared.RoleAccountant, "role used with -user")
	redisAddr := fs.String("redis", "", "redis address for the jobs command")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return cli.ExitUsage
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nav := client.NewMemoryNavigator("/dashboard", func(path string) {
		if path == client.LoginPath {
			logger.Debug("navigated to login")
		}
	})
	api, err := client.New(*baseURL, client.WithNavigator(nav), client.WithLogger(logger))
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return cli.ExitUsage
	}
	auth := client.NewAuthContext(api, nav, client.LocalDevice(userAgent))
	auth.Mount(ctx)
	defer auth.Close()

	runner := &cli.Runner{API: api, Auth: auth, Password: readPassword, Stdout: os.Stdout, Stderr: os.Stderr}
	if *redisAddr != "" {
		jobsCLI, err := cli.NewJobsCLI(*redisAddr)
		if err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			return cli.ExitUsage
		}
		runner.Jobs = jobsCLI
		defer func() {
			if err := runner.Jobs.Close(); err != nil {
				logger.Warn("jobs close", slog.Any("error", err))
			}
		}()
	}

	args := fs.Args()
	if *user != "" && (len(args) == 0 || args[0] != "login") {
		if code := runner.Run(ctx, []string{"login", "-user", *user, "-role", *role}); code != cli.ExitOK {
			return code
		}
	}
	if len(args) == 0 {
		return runner.Shell(ctx, os.Stdin)
	}
	return runner.Run(ctx, args)
}

// readPassword prompts on the terminal; piped input is read as one line.
func readPassword(prompt string) (string, error) {
	if env := os.Getenv("NOVAQ_PASSWORD"); env != "" {
		return env, nil
	}
	fd := int(os.Stdin.Fd())
	_, _ = fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(os.Stderr)
		return string(raw), err
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
