package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"school-health-service/internal/metrics"

	"github.com/uptrace/bun"
)

var ErrUserNotFound = errors.New("user not found")

type Repository interface {
	Create(ctx context.Context, u *User) (*User, error)
	GetByID(ctx context.Context, id int) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateLastLogin(ctx context.Context, id int, at time.Time) error
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{
		db:      db,
		metrics: m,
	}
}

func (r *repository) Create(ctx context.Context, u *User) (*User, error) {
	start := time.Now()
	_, err := r.db.NewInsert().Model(u).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "users", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*User, error) {
	start := time.Now()
	u := new(User)
	err := r.db.NewSelect().Model(u).Where("id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "users", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	start := time.Now()
	u := new(User)
	err := r.db.NewSelect().Model(u).Where("email = ?", email).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "users", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *repository) UpdateLastLogin(ctx context.Context, id int, at time.Time) error {
	start := time.Now()
	_, err := r.db.NewUpdate().
		Model((*User)(nil)).
		Set("last_login_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "update", "users", time.Since(start), err)
	return err
}
