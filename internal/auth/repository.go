package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"school-health-service/internal/metrics"

	"github.com/uptrace/bun"
)

// Repository is the database-backed SessionStore, for deployments where
// sessions must survive a process restart or be shared across replicas.
type Repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewRepository(db *bun.DB, m *metrics.Metrics) *Repository {
	return &Repository{
		db:      db,
		metrics: m,
		now:     time.Now,
	}
}

var _ SessionStore = (*Repository)(nil)

func (r *Repository) Put(ctx context.Context, userID int, token string, ttl time.Duration) error {
	start := time.Now()
	session := &Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: r.now().Add(ttl),
	}

	_, err := r.db.NewInsert().
		Model(session).
		On("CONFLICT (user_id) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("expires_at = EXCLUDED.expires_at").
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "sessions", time.Since(start), err)

	return err
}

func (r *Repository) Get(ctx context.Context, userID int) (string, error) {
	start := time.Now()
	session := new(Session)
	err := r.db.NewSelect().
		Model(session).
		Where("user_id = ?", userID).
		Where("expires_at > ?", r.now()).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "sessions", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrSessionNotFound
		}
		return "", err
	}
	return session.Token, nil
}

func (r *Repository) Delete(ctx context.Context, userID int) error {
	start := time.Now()
	_, err := r.db.NewDelete().
		Model((*Session)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "delete", "sessions", time.Since(start), err)
	return err
}

func (r *Repository) Validate(ctx context.Context, userID int, token string) (bool, error) {
	stored, err := r.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}
	return stored == token, nil
}

// DeleteExpired removes rows whose expiry has passed. Reads already treat
// them as absent; this is housekeeping only.
func (r *Repository) DeleteExpired(ctx context.Context) error {
	start := time.Now()
	_, err := r.db.NewDelete().
		Model((*Session)(nil)).
		Where("expires_at < ?", r.now()).
		Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "delete", "sessions", time.Since(start), err)
	return err
}
