package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	calls []execCall
	tag   pgconn.CommandTag
	err   error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return f.tag, f.err
}

func TestHashTokenIsStableAndOpaque(t *testing.T) {
	a := HashToken("tok-1")
	assert.Equal(t, a, HashToken("tok-1"))
	assert.NotEqual(t, a, HashToken("tok-2"))
	assert.Len(t, a, 64)
	assert.NotContains(t, a, "tok-1")
}

func TestPGRecorderStatements(t *testing.T) {
	db := &fakeExecer{tag: pgconn.NewCommandTag("DELETE 4")}
	rec := &PGRecorder{db: db}
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.FixedZone("ULAT", 8*3600))

	require.NoError(t, rec.EnsureSchema(ctx))
	require.NoError(t, rec.RecordLogin(ctx, LoginRecord{TokenHash: "h1", UserName: "bold", CreatedAt: at, ExpiresAt: at.Add(time.Hour)}))
	require.NoError(t, rec.EndSession(ctx, "h1", at))
	n, err := rec.Cleanup(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	require.Len(t, db.calls, 4)
	assert.Contains(t, db.calls[0].sql, "CREATE TABLE IF NOT EXISTS login_sessions")
	assert.True(t, strings.HasPrefix(db.calls[1].sql, "INSERT INTO login_sessions"))
	assert.Equal(t, "h1", db.calls[1].args[0])
	assert.Equal(t, at.UTC(), db.calls[1].args[6])
	assert.Contains(t, db.calls[2].sql, "ended_at IS NULL")
	assert.Equal(t, at.UTC(), db.calls[3].args[0])
}

func TestServiceCleanupUsesRetention(t *testing.T) {
	db := &fakeExecer{tag: pgconn.NewCommandTag("DELETE 0")}
	svc := NewService(nil, &PGRecorder{db: db}, nil)
	now := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.CleanupSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, db.calls, 1)
	assert.Equal(t, now.Add(-AuditRetention), db.calls[0].args[0])
}

func TestRecorderFailuresDoNotPropagate(t *testing.T) {
	db := &fakeExecer{err: errors.New("connection refused")}
	svc := NewService(nil, &PGRecorder{db: db}, nil)

	svc.RecordLogin(context.Background(), &LoginResult{Token: "tok"}, "Accountant", "dev", nil, time.Hour)
	svc.EndSession(context.Background(), "tok")
	svc.EndSession(context.Background(), "")

	assert.Len(t, db.calls, 2)
}
