package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/novaq/novaq-dashboard/internal/backend"
	"github.com/novaq/novaq-dashboard/internal/shared"
)

// AuditRetention is how long expired login rows are kept.
const AuditRetention = 30 * 24 * time.Hour

// Backend issues raw backend requests.
type Backend interface {
	Do(ctx context.Context, req backend.Request) (*backend.Response, error)
}

// Service wraps the backend login and the login audit trail.
type Service struct {
	backend  Backend
	recorder Recorder
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a new Service. recorder may be nil.
func NewService(b Backend, recorder Recorder, logger *slog.Logger) *Service {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: b, recorder: recorder, validate: validator.New(), logger: logger, now: time.Now}
}

// Validate returns localised field errors, or nil.
func (s *Service) Validate(c Credentials) map[string]string {
	if err := s.validate.Struct(c); err != nil {
		return shared.FieldErrors(err, credentialMessages)
	}
	return nil
}

// Login exchanges credentials for a backend token. System administrators use
// their own endpoint; every other role logs in as an accountant. Failures are
// *backend.Error values carrying the user-facing message.
func (s *Service) Login(ctx context.Context, c Credentials, deviceID string) (*LoginResult, error) {
	path := AccountantLoginPath
	if c.Role == shared.RoleSystemAdmin {
		path = SysadminLoginPath
	}
	resp, err := s.backend.Do(ctx, backend.Request{
		Method:   http.MethodPost,
		Path:     path,
		Body:     backendLogin{UserName: strings.TrimSpace(c.UserID), PasswordHash: strings.TrimSpace(c.Password)},
		Header:   http.Header{backend.DeviceIDHeader: {deviceID}},
		Endpoint: "auth.login",
	})
	if err != nil {
		status := backend.StatusOf(err)
		if status == http.StatusUnauthorized {
			return nil, &backend.Error{Status: status, Message: MsgInvalidCredentials, Err: shared.ErrInvalidCredentials}
		}
		return nil, &backend.Error{Status: status, Message: MsgLoginFailed, Err: err}
	}
	var reply backendReply
	if err := resp.Decode(&reply); err != nil || reply.Token == "" || reply.Data == nil {
		s.logger.Warn("login reply without token or user", slog.Any("error", err))
		return nil, &backend.Error{Status: http.StatusBadGateway, Message: MsgLoginFailed, Err: backend.ErrInvalidPayload}
	}
	return &LoginResult{User: *reply.Data, Token: reply.Token}, nil
}

// RecordLogin writes the audit row. Failures are logged only.
func (s *Service) RecordLogin(ctx context.Context, res *LoginResult, role, deviceID string, r *http.Request, ttl time.Duration) {
	now := s.now()
	rec := LoginRecord{
		TokenHash: HashToken(res.Token),
		UserName:  res.User.UserName,
		Role:      role,
		DeviceID:  deviceID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if r != nil {
		rec.IP = r.RemoteAddr
		rec.UserAgent = r.UserAgent()
	}
	if err := s.recorder.RecordLogin(ctx, rec); err != nil {
		s.logger.Warn("record login", slog.Any("error", err))
	}
}

// EndSession marks the audit row of token as ended. Failures are logged only.
func (s *Service) EndSession(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.recorder.EndSession(ctx, HashToken(token), s.now()); err != nil {
		s.logger.Warn("end login session", slog.Any("error", err))
	}
}

// CleanupSessions deletes audit rows that expired more than AuditRetention ago.
func (s *Service) CleanupSessions(ctx context.Context) (int64, error) {
	return s.recorder.Cleanup(ctx, s.now().Add(-AuditRetention))
}
