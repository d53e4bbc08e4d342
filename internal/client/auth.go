package client

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/novaq/novaq-dashboard/internal/shared"
)

// Status is the auth context state.
type Status string

const (
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// LoginResult reports a login attempt. Login never returns an error.
type LoginResult struct {
	OK     bool
	Status int
	User   *shared.User
	Token  string
	Error  string
	Fields map[string]string
}

// AuthContext tracks who is signed in for one host (a browser tab or a CLI
// process). It is constructed explicitly and passed to whatever needs it.
//
// Transitions: loading -> authenticated | unauthenticated on Mount and
// Refresh, authenticated -> loading on Login, anything -> unauthenticated on
// Logout or a failed Refresh. Overlapping Login calls are not serialised; the
// last reply wins.
type AuthContext struct {
	api    *Client
	nav    Navigator
	device DeviceInfo

	mu        sync.Mutex
	status    Status
	user      *shared.User
	token     string
	listeners map[int]func(Status)
	nextID    int
	mounted   bool
	closed    bool
}

// NewAuthContext builds a context in the loading state. nav receives the
// post-logout navigation and may be nil.
func NewAuthContext(api *Client, nav Navigator, device DeviceInfo) *AuthContext {
	return &AuthContext{
		api:       api,
		nav:       nav,
		device:    device,
		status:    StatusLoading,
		listeners: map[int]func(Status){},
	}
}

// Mount performs the initial Refresh. Later calls do nothing.
func (a *AuthContext) Mount(ctx context.Context) {
	a.mu.Lock()
	if a.mounted || a.closed {
		a.mu.Unlock()
		return
	}
	a.mounted = true
	a.mu.Unlock()
	a.Refresh(ctx)
}

// Close drops listeners and state. The context is unusable afterwards.
func (a *AuthContext) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.listeners = map[int]func(Status){}
	a.user = nil
	a.token = ""
	a.status = StatusUnauthenticated
}

// Status returns the current state.
func (a *AuthContext) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// User returns the signed-in user or nil.
func (a *AuthContext) User() *shared.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user
}

// Token returns the access token or "".
func (a *AuthContext) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *AuthContext) IsLoading() bool { return a.Status() == StatusLoading }

func (a *AuthContext) IsLogged() bool { return a.Status() == StatusAuthenticated }

// Subscribe registers fn for every transition and returns its cancel func.
func (a *AuthContext) Subscribe(fn func(Status)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || fn == nil {
		return func() {}
	}
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.listeners, id)
	}
}

// Login signs in. Failures, network or rejected, leave the context
// unauthenticated and come back inside the result.
func (a *AuthContext) Login(ctx context.Context, in LoginFormValues) LoginResult {
	a.transition(StatusLoading, nil, "", false)

	data, err := a.api.Login(ctx, in, Fingerprint(a.device))
	if err != nil {
		a.transition(StatusUnauthenticated, nil, "", true)
		res := LoginResult{Status: StatusOf(err), Error: MsgLoginFailed}
		var apiErr *Error
		if errors.As(err, &apiErr) {
			res.Error = apiErr.Message
			res.Fields = apiErr.Fields
		}
		return res
	}
	if data == nil || data.Token == "" {
		a.transition(StatusUnauthenticated, nil, "", true)
		return LoginResult{Error: MsgLoginFailed}
	}
	a.transition(StatusAuthenticated, data.User, data.Token, true)
	return LoginResult{OK: true, Status: http.StatusOK, User: data.User, Token: data.Token}
}

// Logout ends the server session on a best-effort basis, navigates to the
// login page and clears the state.
func (a *AuthContext) Logout(ctx context.Context) {
	if err := a.api.Logout(ctx); err != nil {
		a.api.logger.Debug("logout call failed", slog.Any("error", err))
	}
	if a.nav != nil {
		a.nav.Navigate(LoginPath)
	}
	a.transition(StatusUnauthenticated, nil, "", true)
}

// Refresh reloads the session from the server. A failure or an empty
// session leaves the context unauthenticated.
func (a *AuthContext) Refresh(ctx context.Context) {
	data, err := a.api.AuthData(ctx)
	if err != nil || data == nil || data.Token == "" {
		a.transition(StatusUnauthenticated, nil, "", true)
		return
	}
	a.transition(StatusAuthenticated, data.User, data.Token, true)
}

// transition sets the status and, when setSession is true, the session
// fields. Listeners run outside the lock.
func (a *AuthContext) transition(status Status, user *shared.User, token string, setSession bool) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.status = status
	if setSession {
		a.user = user
		a.token = token
	}
	listeners := make([]func(Status), 0, len(a.listeners))
	for _, fn := range a.listeners {
		listeners = append(listeners, fn)
	}
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(status)
	}
}
