package shared

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

const (
	// AccessTokenCookie carries the opaque backend token.
	AccessTokenCookie = "novaq_access_token"
	// UserCookie carries the signed user record.
	UserCookie = "novaq_user"
	// SessionIDCookie carries the Redis session identifier.
	SessionIDCookie = "novaq_session"

	// DefaultSessionTTL mirrors the six day cookie lifetime.
	DefaultSessionTTL = 6 * 24 * time.Hour
)

// SessionData is the authenticated pair stored for a browser.
type SessionData struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// SessionStore persists the access token and user record for a browser.
// Implementations write and clear both parts together.
type SessionStore interface {
	Set(ctx context.Context, w http.ResponseWriter, r *http.Request, token string, user User) error
	AccessToken(ctx context.Context, r *http.Request) (string, error)
	Authenticated(ctx context.Context, r *http.Request) (*SessionData, error)
	Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) error
	TTL() time.Duration
}

// CookieSessionStore keeps the whole session in two HttpOnly cookies.
type CookieSessionStore struct {
	ttl    time.Duration
	secure bool
	key    []byte
}

// NewCookieSessionStore constructs a cookie-backed store. The secret keys the user cookie MAC.
func NewCookieSessionStore(secret string, ttl time.Duration, secure bool) *CookieSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	key := blake2b.Sum256([]byte(secret))
	return &CookieSessionStore{ttl: ttl, secure: secure, key: key[:]}
}

// TTL exposes the configured session lifetime.
func (s *CookieSessionStore) TTL() time.Duration { return s.ttl }

// Set writes the token and user cookies. Nothing is written when either value is invalid.
func (s *CookieSessionStore) Set(ctx context.Context, w http.ResponseWriter, r *http.Request, token string, user User) error {
	if strings.TrimSpace(token) == "" {
		return ErrSessionInvalid
	}
	encoded, err := s.encodeUser(user)
	if err != nil {
		return err
	}
	http.SetCookie(w, s.cookie(AccessTokenCookie, token, int(s.ttl.Seconds())))
	http.SetCookie(w, s.cookie(UserCookie, encoded, int(s.ttl.Seconds())))
	return nil
}

// AccessToken returns the token cookie or an empty string.
func (s *CookieSessionStore) AccessToken(ctx context.Context, r *http.Request) (string, error) {
	cookie, err := r.Cookie(AccessTokenCookie)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", nil
		}
		return "", err
	}
	return cookie.Value, nil
}

// Authenticated returns both parts or nil when either is absent or tampered.
func (s *CookieSessionStore) Authenticated(ctx context.Context, r *http.Request) (*SessionData, error) {
	token, err := s.AccessToken(ctx, r)
	if err != nil || token == "" {
		return nil, err
	}
	cookie, err := r.Cookie(UserCookie)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}
	user, err := s.decodeUser(cookie.Value)
	if err != nil {
		return nil, nil
	}
	return &SessionData{Token: token, User: user}, nil
}

// Clear expires both cookies.
func (s *CookieSessionStore) Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, s.cookie(AccessTokenCookie, "", -1))
	http.SetCookie(w, s.cookie(UserCookie, "", -1))
	return nil
}

func (s *CookieSessionStore) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *CookieSessionStore) encodeUser(user User) (string, error) {
	raw, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("session: encode user: %w", err)
	}
	sig, err := s.sign(raw)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw) + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

func (s *CookieSessionStore) decodeUser(value string) (*User, error) {
	payload, signature, ok := strings.Cut(value, ".")
	if !ok {
		return nil, ErrSessionInvalid
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrSessionInvalid
	}
	sig, err := base64.RawURLEncoding.DecodeString(signature)
	if err != nil {
		return nil, ErrSessionInvalid
	}
	expected, err := s.sign(raw)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(sig, expected) != 1 {
		return nil, ErrSessionInvalid
	}
	var user User
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&user); err != nil {
		return nil, ErrSessionInvalid
	}
	return &user, nil
}

func (s *CookieSessionStore) sign(raw []byte) ([]byte, error) {
	mac, err := blake2b.New256(s.key)
	if err != nil {
		return nil, err
	}
	_, _ = mac.Write(raw)
	return mac.Sum(nil), nil
}

// RedisSessionStore keeps the session server side; the browser only holds an identifier.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewRedisSessionStore constructs a Redis-backed store.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration, secure bool) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionStore{client: client, ttl: ttl, secure: secure}
}

// TTL exposes the configured session lifetime.
func (s *RedisSessionStore) TTL() time.Duration { return s.ttl }

// Set stores the pair under a fresh identifier and issues the cookie.
func (s *RedisSessionStore) Set(ctx context.Context, w http.ResponseWriter, r *http.Request, token string, user User) error {
	if strings.TrimSpace(token) == "" {
		return ErrSessionInvalid
	}
	data, err := json.Marshal(SessionData{Token: token, User: &user})
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	id := uuid.NewString()
	if err := s.client.Set(ctx, s.redisKey(id), data, s.ttl).Err(); err != nil {
		return err
	}
	if old, err := r.Cookie(SessionIDCookie); err == nil && old.Value != "" {
		_ = s.client.Del(ctx, s.redisKey(old.Value)).Err()
	}
	http.SetCookie(w, s.cookie(id, int(s.ttl.Seconds())))
	return nil
}

// AccessToken returns the stored token or an empty string.
func (s *RedisSessionStore) AccessToken(ctx context.Context, r *http.Request) (string, error) {
	data, err := s.load(ctx, r)
	if err != nil || data == nil {
		return "", err
	}
	return data.Token, nil
}

// Authenticated returns the stored pair or nil when incomplete.
func (s *RedisSessionStore) Authenticated(ctx context.Context, r *http.Request) (*SessionData, error) {
	data, err := s.load(ctx, r)
	if err != nil || data == nil {
		return nil, err
	}
	if data.Token == "" || data.User == nil {
		return nil, nil
	}
	return data, nil
}

// Clear deletes the Redis entry and expires the cookie.
func (s *RedisSessionStore) Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if cookie, err := r.Cookie(SessionIDCookie); err == nil && cookie.Value != "" {
		if err := s.client.Del(ctx, s.redisKey(cookie.Value)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
	}
	http.SetCookie(w, s.cookie("", -1))
	return nil
}

func (s *RedisSessionStore) load(ctx context.Context, r *http.Request) (*SessionData, error) {
	cookie, err := r.Cookie(SessionIDCookie)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return nil, nil
	}
	payload, err := s.client.Get(ctx, s.redisKey(cookie.Value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var data SessionData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, nil
	}
	return &data, nil
}

func (s *RedisSessionStore) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionIDCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *RedisSessionStore) redisKey(id string) string {
	return "session:" + id
}

var (
	_ SessionStore = (*CookieSessionStore)(nil)
	_ SessionStore = (*RedisSessionStore)(nil)
)

// SessionExpiredPath clears the session and sends the browser to the login
// page. Pages redirect there when the backend rejects the stored token.
const SessionExpiredPath = "/internal/auth/expired"
