// Package client is a Go SDK for the dashboard's internal JSON API. It keeps
// the session cookies in a jar, the same way a browser tab would.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/novaq/novaq-dashboard/internal/backend"
	"github.com/novaq/novaq-dashboard/internal/balances"
	"github.com/novaq/novaq-dashboard/internal/customers"
	"github.com/novaq/novaq-dashboard/internal/reference"
	"github.com/novaq/novaq-dashboard/internal/shared"
)

// Internal API routes used by the SDK.
const (
	LoginRoute            = "/internal/auth/login"
	LogoutRoute           = "/internal/auth/logout"
	AuthDataRoute         = "/internal/auth/get-auth-data"
	AccountantCustomers   = "/internal/accountant/customers"
	AccountPeriodBalances = "/internal/v1/account-period-balance"
	ReferenceRoute        = "/internal/v1/reference"
)

// MsgLoginFailed is returned when the login call never got an answer.
const MsgLoginFailed = "Нэвтрэх үйлдэл амжилтгүй боллоо."

// Error is a non-2xx reply from the internal API.
type Error struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return fmt.Sprintf("internal api: %d %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status of an *Error, or 0 for transport failures.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// Client calls the internal API of one dashboard instance.
type Client struct {
	baseURL string
	http    *http.Client
	nav     Navigator
	logger  *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithNavigator installs the navigator used on 401 replies.
func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.nav = n }
}

// WithHTTPClient swaps the transport. Its Jar is replaced when nil.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New builds a client with an in-memory cookie jar.
func New(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, fmt.Errorf("client: invalid base url %q", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	return c, nil
}

// Do sends one request and decodes a 2xx JSON reply into dest (which may be
// nil). A 401 outside the login screens navigates to the login page.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any, header http.Header, dest any) error {
	raw, err := c.send(ctx, method, path, query, body, header)
	if err != nil {
		if StatusOf(err) == http.StatusUnauthorized {
			c.handleAuthFailure()
		}
		return err
	}
	if dest == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("client: decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any, header http.Header) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("client: encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.warnInsecureCookies(req.URL, resp)
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.Fields = payload.Fields
		}
		return nil, apiErr
	}
	return raw, nil
}

// warnInsecureCookies flags Secure cookies set over plain http. The jar never
// sends them back, so the session is gone on the next call.
func (c *Client) warnInsecureCookies(target *url.URL, resp *http.Response) {
	if target.Scheme != "http" {
		return
	}
	for _, ck := range resp.Cookies() {
		if ck.Secure && ck.MaxAge >= 0 {
			c.logger.Warn("secure cookie received over plain http will not be sent back; use https or run the dashboard with SESSION_SECURE=false",
				slog.String("cookie", ck.Name))
			return
		}
	}
}

func (c *Client) handleAuthFailure() {
	if c.nav == nil || onAuthPath(c.nav.CurrentPath()) {
		return
	}
	c.logger.Debug("session rejected, navigating to login")
	c.nav.Navigate(LoginPath)
}

// LoginFormValues is the login request body.
type LoginFormValues struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// AuthData is the session as reported by the server.
type AuthData struct {
	User  *shared.User `json:"user"`
	Token string       `json:"token"`
}

// Login posts credentials with the device id header.
func (c *Client) Login(ctx context.Context, in LoginFormValues, deviceID string) (*AuthData, error) {
	var out AuthData
	header := http.Header{backend.DeviceIDHeader: {deviceID}}
	if err := c.Do(ctx, http.MethodPost, LoginRoute, nil, in, header, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout ends the server session.
func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, LogoutRoute, nil, nil, nil, nil)
}

// AuthData returns the current session, or nil when signed out.
func (c *Client) AuthData(ctx context.Context) (*AuthData, error) {
	var out *AuthData
	if err := c.Do(ctx, http.MethodGet, AuthDataRoute, nil, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Customers returns the accountant's customers.
func (c *Client) Customers(ctx context.Context) ([]customers.Customer, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, AccountantCustomers, nil, nil, nil, &raw); err != nil {
		return nil, err
	}
	return backend.DecodeList[customers.Customer](&backend.Response{Status: http.StatusOK, Body: raw})
}

// Balances returns account period balances, optionally filtered.
func (c *Client) Balances(ctx context.Context, year, customerID string) ([]balances.AccountBalance, error) {
	q := url.Values{}
	if year != "" {
		q.Set("year", year)
	}
	if customerID != "" {
		q.Set("customerId", customerID)
	}
	out := []balances.AccountBalance{}
	if err := c.Do(ctx, http.MethodGet, AccountPeriodBalances, q, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Reference returns regions and business classes.
func (c *Client) Reference(ctx context.Context) (reference.Data, error) {
	var out reference.Data
	err := c.Do(ctx, http.MethodGet, ReferenceRoute, nil, nil, nil, &out)
	return out, err
}
