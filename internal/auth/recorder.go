package auth

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/blake2b"
)

// Recorder keeps the login audit trail.
type Recorder interface {
	RecordLogin(ctx context.Context, rec LoginRecord) error
	EndSession(ctx context.Context, tokenHash string, at time.Time) error
	Cleanup(ctx context.Context, before time.Time) (int64, error)
}

// HashToken derives the audit key of an access token. The token itself is
// never stored.
func HashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGRecorder implements Recorder using PostgreSQL.
type PGRecorder struct {
	db execer
}

// NewPGRecorder constructs a PostgreSQL recorder.
func NewPGRecorder(pool *pgxpool.Pool) *PGRecorder {
	return &PGRecorder{db: pool}
}

const schemaSQL = `CREATE TABLE IF NOT EXISTS login_sessions (
	token_hash TEXT PRIMARY KEY,
	user_name  TEXT NOT NULL,
	role       TEXT NOT NULL DEFAULT '',
	device_id  TEXT NOT NULL DEFAULT '',
	ip         TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	ended_at   TIMESTAMPTZ
)`

// EnsureSchema creates the audit table when missing.
func (r *PGRecorder) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schemaSQL)
	return err
}

// RecordLogin inserts a login row. Replayed tokens are ignored.
func (r *PGRecorder) RecordLogin(ctx context.Context, rec LoginRecord) error {
	_, err := r.db.Exec(ctx, `INSERT INTO login_sessions
		(token_hash, user_name, role, device_id, ip, user_agent, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (token_hash) DO NOTHING`,
		rec.TokenHash, rec.UserName, rec.Role, rec.DeviceID, rec.IP, rec.UserAgent, rec.CreatedAt.UTC(), rec.ExpiresAt.UTC())
	return err
}

// EndSession marks the login as ended.
func (r *PGRecorder) EndSession(ctx context.Context, tokenHash string, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE login_sessions SET ended_at = $2 WHERE token_hash = $1 AND ended_at IS NULL`, tokenHash, at.UTC())
	return err
}

// Cleanup deletes rows that expired before the cut-off.
func (r *PGRecorder) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM login_sessions WHERE expires_at < $1`, before.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// NopRecorder is used when no database is configured.
type NopRecorder struct{}

func (NopRecorder) RecordLogin(context.Context, LoginRecord) error { return nil }

func (NopRecorder) EndSession(context.Context, string, time.Time) error { return nil }

func (NopRecorder) Cleanup(context.Context, time.Time) (int64, error) { return 0, nil }

var (
	_ Recorder = (*PGRecorder)(nil)
	_ Recorder = NopRecorder{}
)
