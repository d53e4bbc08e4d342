package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithCookies(cookies []*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range cookies {
		if c.MaxAge < 0 {
			continue
		}
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return req
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCookieSessionStoreSetWritesBothCookies(t *testing.T) {
	store := NewCookieSessionStore("secret", 0, true)
	rec := httptest.NewRecorder()
	user := User{Oid: "u-1", UserName: "bold", Firstname: "Болд", LastName: "Бат"}

	require.NoError(t, store.Set(context.Background(), rec, httptest.NewRequest(http.MethodPost, "/", nil), "tok-123", user))

	cookies := rec.Result().Cookies()
	for _, name := range []string{AccessTokenCookie, UserCookie} {
		c := cookieByName(cookies, name)
		require.NotNil(t, c, name)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, int((6 * 24 * time.Hour).Seconds()), c.MaxAge)
	}

	data, err := store.Authenticated(context.Background(), requestWithCookies(cookies))
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, "tok-123", data.Token)
	assert.Equal(t, user, *data.User)
}

func TestCookieSessionStoreRejectsEmptyToken(t *testing.T) {
	store := NewCookieSessionStore("secret", time.Hour, false)
	rec := httptest.NewRecorder()

	err := store.Set(context.Background(), rec, httptest.NewRequest(http.MethodPost, "/", nil), "  ", User{UserName: "x"})
	assert.ErrorIs(t, err, ErrSessionInvalid)
	assert.Empty(t, rec.Result().Cookies())
}

func TestCookieSessionStorePartialSessionIsNil(t *testing.T) {
	store := NewCookieSessionStore("secret", time.Hour, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "tok"})

	token, err := store.AccessToken(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	data, err := store.Authenticated(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestCookieSessionStoreTamperedUserIsNil(t *testing.T) {
	store := NewCookieSessionStore("secret", time.Hour, false)
	rec := httptest.NewRecorder()
	require.NoError(t, store.Set(context.Background(), rec, httptest.NewRequest(http.MethodPost, "/", nil), "tok", User{UserName: "a"}))

	cookies := rec.Result().Cookies()
	userCookie := cookieByName(cookies, UserCookie)
	payload, sig, _ := strings.Cut(userCookie.Value, ".")
	userCookie.Value = payload + "x." + sig

	data, err := store.Authenticated(context.Background(), requestWithCookies(cookies))
	require.NoError(t, err)
	assert.Nil(t, data)

	other := NewCookieSessionStore("another-secret", time.Hour, false)
	rec = httptest.NewRecorder()
	require.NoError(t, other.Set(context.Background(), rec, httptest.NewRequest(http.MethodPost, "/", nil), "tok", User{UserName: "a"}))
	data, err = store.Authenticated(context.Background(), requestWithCookies(rec.Result().Cookies()))
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestCookieSessionStoreClearExpiresBoth(t *testing.T) {
	store := NewCookieSessionStore("secret", time.Hour, false)
	rec := httptest.NewRecorder()

	require.NoError(t, store.Clear(context.Background(), rec, httptest.NewRequest(http.MethodPost, "/", nil)))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.Less(t, c.MaxAge, 0)
		assert.Empty(t, c.Value)
	}
}

func newRedisStore(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessionStore(client, time.Hour, false), mr
}

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	rec := httptest.NewRecorder()

	require.NoError(t, store.Set(ctx, rec, httptest.NewRequest(http.MethodPost, "/", nil), "tok-9", User{Oid: "u", UserName: "dorj"}))

	cookie := cookieByName(rec.Result().Cookies(), SessionIDCookie)
	require.NotNil(t, cookie)
	assert.True(t, mr.Exists("session:"+cookie.Value))
	assert.Equal(t, time.Hour, mr.TTL("session:"+cookie.Value))

	req := requestWithCookies(rec.Result().Cookies())
	token, err := store.AccessToken(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "tok-9", token)

	data, err := store.Authenticated(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, "dorj", data.User.UserName)

	clearRec := httptest.NewRecorder()
	require.NoError(t, store.Clear(ctx, clearRec, req))
	assert.False(t, mr.Exists("session:"+cookie.Value))

	token, err = store.AccessToken(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestRedisSessionStoreUnknownIdentifier(t *testing.T) {
	store, _ := newRedisStore(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionIDCookie, Value: "not-a-uuid"})

	data, err := store.Authenticated(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestRedisSessionStorePropagatesStorageErrors(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	err := store.Set(context.Background(), httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil), "tok", User{})
	assert.Error(t, err)
}
