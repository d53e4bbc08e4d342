// Package gateway guards dashboard pages and the internal API by session state.
package gateway

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/novaq/novaq-dashboard/internal/platform/httpx"
	"github.com/novaq/novaq-dashboard/internal/shared"
)

// Route prefixes the gateway distinguishes.
const (
	DashboardPrefix = "/dashboard"
	InternalPrefix  = "/internal"
	InternalAuth    = "/internal/auth"
	AuthPrefix      = "/auth"
	LoginPath       = "/auth/login"
)

// Middleware enforces the authentication rules for every non-static request.
type Middleware struct {
	Store  shared.SessionStore
	Logger *slog.Logger
}

// Handler wraps next with the gateway rules.
func (m Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if Skip(path) {
			next.ServeHTTP(w, r)
			return
		}
		logger := shared.LoggerFromContext(r.Context(), m.Logger)

		sess, err := m.load(r)
		if err != nil {
			logger.Error("gateway load session", slog.Any("error", err))
			if hasPrefix(path, InternalPrefix) {
				httpx.Error(w, http.StatusInternalServerError, httpx.GenericMessage)
				return
			}
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		authenticated := sess != nil && sess.Token != ""

		switch {
		case hasPrefix(path, DashboardPrefix) && !authenticated:
			http.Redirect(w, r, LoginRedirect(r.URL), http.StatusFound)
			return
		case hasPrefix(path, InternalPrefix) && !hasPrefix(path, InternalAuth) && !authenticated:
			if err := m.Store.Clear(r.Context(), w, r); err != nil {
				logger.Warn("gateway clear session", slog.Any("error", err))
			}
			httpx.Error(w, http.StatusUnauthorized, "UNAUTHORIZED")
			return
		case hasPrefix(path, AuthPrefix) && authenticated:
			http.Redirect(w, r, DashboardPrefix, http.StatusFound)
			return
		}

		if authenticated {
			r = r.WithContext(shared.ContextWithSession(r.Context(), sess))
		}
		next.ServeHTTP(w, r)
	})
}

// load returns the full session, or a token-only session when the user record
// is missing. A nil result means no token.
func (m Middleware) load(r *http.Request) (*shared.SessionData, error) {
	sess, err := m.Store.Authenticated(r.Context(), r)
	if err != nil || sess != nil {
		return sess, err
	}
	token, err := m.Store.AccessToken(r.Context(), r)
	if err != nil || token == "" {
		return nil, err
	}
	return &shared.SessionData{Token: token}, nil
}

// Skip reports whether the path bypasses the gateway.
func Skip(path string) bool {
	return strings.HasPrefix(path, "/static/") || path == "/favicon.ico"
}

// LoginRedirect builds the login URL that returns to target's path afterwards.
// The query string is not carried over.
func LoginRedirect(target *url.URL) string {
	return LoginPath + "?redirect=" + url.QueryEscape(target.EscapedPath())
}

// SafeRedirect returns raw when it is a local dashboard path, else /dashboard.
func SafeRedirect(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return DashboardPrefix
	}
	if !hasPrefix(raw, DashboardPrefix) {
		return DashboardPrefix
	}
	return raw
}

// hasPrefix matches whole path segments, so /dashboards does not match /dashboard.
func hasPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || rest[0] == '/' || rest[0] == '?'
}
