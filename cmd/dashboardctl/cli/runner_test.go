package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaq/novaq-dashboard/internal/client"
)

const sessionCookie = "novaq_access_token"

type fakeDashboard struct {
	logins   int
	devices  []string
	loggedIn bool
}

func (f *fakeDashboard) router() http.Handler {
	r := chi.NewRouter()
	authed := func(w http.ResponseWriter, req *http.Request) bool {
		if c, err := req.Cookie(sessionCookie); err == nil && c.Value == "tok-1" {
			return true
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"UNAUTHORIZED"}`))
		return false
	}
	r.Post(client.LoginRoute, func(w http.ResponseWriter, req *http.Request) {
		f.logins++
		f.devices = append(f.devices, req.Header.Get("x-device-id"))
		var body client.LoginFormValues
		_ = json.NewDecoder(req.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		if body.UserID != "bold" || body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Нэвтрэх нэр эсвэл нууц үг буруу байна."}`))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "tok-1", Path: "/"})
		f.loggedIn = true
		_, _ = w.Write([]byte(`{"token":"tok-1","user":{"Oid":"u-1","UserName":"bold","Firstname":"Болд","LastName":"Дорж","RoleName":"Accountant"}}`))
	})
	r.Get(client.AuthDataRoute, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if c, err := req.Cookie(sessionCookie); err != nil || c.Value != "tok-1" {
			_, _ = w.Write([]byte(`null`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok-1","user":{"Oid":"u-1","UserName":"bold","Firstname":"Болд","LastName":"Дорж"}}`))
	})
	r.Post(client.LogoutRoute, func(w http.ResponseWriter, req *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
		f.loggedIn = false
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get(client.AccountantCustomers, func(w http.ResponseWriter, req *http.Request) {
		if !authed(w, req) {
			return
		}
		_, _ = w.Write([]byte(`[{"Oid":"c-1","CustomerID":"1234567","CustomerName":"Алтан ХХК"},{"Oid":"c-2","CustomerID":"7654321","CustomerName":"Бор ХХК"}]`))
	})
	r.Get(client.ReferenceRoute, func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"regions":[],"subRegions":[],"businessClasses":[]}`))
	})
	r.Get(client.AccountPeriodBalances, func(w http.ResponseWriter, req *http.Request) {
		if !authed(w, req) {
			return
		}
		_, _ = w.Write([]byte(`[{"Oid":"bal-1","YearType":2024,"CustomerName":"Алтан ХХК","ActiveAmount":1000,"PassiveAmount":250.5}]`))
	})
	return r
}

func newRunner(t *testing.T) (*Runner, *fakeDashboard, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	fake := &fakeDashboard{}
	srv := httptest.NewServer(fake.router())
	t.Cleanup(srv.Close)

	nav := client.NewMemoryNavigator("/dashboard", nil)
	api, err := client.New(srv.URL, client.WithNavigator(nav))
	require.NoError(t, err)
	auth := client.NewAuthContext(api, nav, client.DeviceInfo{UserAgent: "test"})
	t.Cleanup(auth.Close)

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	runner := &Runner{
		API:      api,
		Auth:     auth,
		Password: func(string) (string, error) { return "secret", nil },
		Stdout:   stdout,
		Stderr:   stderr,
	}
	return runner, fake, stdout, stderr
}

func TestLoginPromptsForPassword(t *testing.T) {
	runner, fake, stdout, _ := newRunner(t)

	code := runner.Run(context.Background(), []string{"login", "-user", "bold"})
	require.Equal(t, ExitOK, code)
	assert.Contains(t, stdout.String(), "Д.БОЛД")
	assert.True(t, runner.Auth.IsLogged())
	assert.Equal(t, []string{client.Fingerprint(client.DeviceInfo{UserAgent: "test"})}, fake.devices)
}

func TestLoginFailurePrintsMessage(t *testing.T) {
	runner, _, _, stderr := newRunner(t)

	code := runner.Run(context.Background(), []string{"login", "-user", "bold", "-password", "wrong"})
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr.String(), "Нэвтрэх нэр эсвэл нууц үг буруу байна.")
	assert.False(t, runner.Auth.IsLogged())

	assert.Equal(t, ExitUsage, runner.Run(context.Background(), []string{"login"}))
}

func TestCommandsRequireSession(t *testing.T) {
	runner, _, _, stderr := newRunner(t)
	assert.Equal(t, ExitSignedIn, runner.Run(context.Background(), []string{"customers"}))
	assert.Contains(t, stderr.String(), "run login first")
}

func TestCustomersFilterAndExport(t *testing.T) {
	runner, _, stdout, _ := newRunner(t)
	ctx := context.Background()
	require.Equal(t, ExitOK, runner.Run(ctx, []string{"login", "-user", "bold"}))
	stdout.Reset()

	require.Equal(t, ExitOK, runner.Run(ctx, []string{"customers", "-q", "бор"}))
	out := stdout.String()
	assert.Contains(t, out, "Бор ХХК")
	assert.NotContains(t, out, "Алтан ХХК")

	path := filepath.Join(t.TempDir(), "customers.csv")
	require.Equal(t, ExitOK, runner.Run(ctx, []string{"customers", "-csv", path}))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Алтан ХХК")
	assert.Contains(t, string(raw), "Бор ХХК")

	assert.Equal(t, ExitError, runner.Run(ctx, []string{"customers", "-hide", "bogus"}))
}

func TestBalancesPrintsTotals(t *testing.T) {
	runner, _, stdout, _ := newRunner(t)
	ctx := context.Background()
	require.Equal(t, ExitOK, runner.Run(ctx, []string{"login", "-user", "bold"}))
	stdout.Reset()

	require.Equal(t, ExitOK, runner.Run(ctx, []string{"balances", "-year", "2024"}))
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Алтан ХХК")
	assert.Contains(t, lines[2], "Нийт")

	assert.Equal(t, ExitUsage, runner.Run(ctx, []string{"balances", "-year", "20x4"}))
}

func TestShellSharesSession(t *testing.T) {
	runner, fake, stdout, _ := newRunner(t)

	in := strings.NewReader("login -user bold\nwhoami\nlogout\nwhoami\nexit\ncustomers\n")
	code := runner.Shell(context.Background(), in)

	assert.Equal(t, ExitSignedIn, code)
	assert.Equal(t, 1, fake.logins)
	assert.False(t, fake.loggedIn)
	assert.Contains(t, stdout.String(), "user  bold")
	assert.Contains(t, stdout.String(), "signed out")
}

func TestUnknownCommandAndJobsWithoutRedis(t *testing.T) {
	runner, _, _, stderr := newRunner(t)
	assert.Equal(t, ExitUsage, runner.Run(context.Background(), []string{"bogus"}))
	assert.Equal(t, ExitUsage, runner.Run(context.Background(), nil))
	assert.Equal(t, ExitError, runner.Run(context.Background(), []string{"jobs", "stats"}))
	assert.Contains(t, stderr.String(), "-redis is not set")
}
