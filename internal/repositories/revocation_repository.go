package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/prathamanvekar/video-app/internal/auth"
	"github.com/prathamanvekar/video-app/internal/db"
)

// PostgresRevocationStore persists revoked session ids to PostgreSQL.
type PostgresRevocationStore struct {
	pool db.Pool
	now  func() time.Time
}

// NewPostgresRevocationStore constructs a revocation store backed by PostgreSQL.
func NewPostgresRevocationStore(pool db.Pool) *PostgresRevocationStore {
	return &PostgresRevocationStore{pool: pool, now: time.Now}
}

// Revoke stores or extends a revocation record and prunes lapsed ones.
func (s *PostgresRevocationStore) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO revoked_sessions (session_id, revoked_until)
        VALUES ($1, $2)
        ON CONFLICT (session_id)
        DO UPDATE SET revoked_until = EXCLUDED.revoked_until
    `, sessionID, until.UTC())
	if err != nil {
		return fmt.Errorf("upsert revoked session: %w", err)
	}

	if _, err := conn.Exec(ctx, `DELETE FROM revoked_sessions WHERE revoked_until <= $1`, s.now().UTC()); err != nil {
		return fmt.Errorf("prune revoked sessions: %w", err)
	}

	return nil
}

// IsRevoked reports whether the session id has an active revocation.
func (s *PostgresRevocationStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var revoked bool
	err = conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM revoked_sessions
            WHERE session_id = $1 AND revoked_until > $2
        )
    `, sessionID, s.now().UTC()).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("select revoked session: %w", err)
	}

	return revoked, nil
}

var _ auth.RevocationStore = (*PostgresRevocationStore)(nil)
