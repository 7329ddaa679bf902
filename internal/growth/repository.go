package growth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"school-health-service/internal/metrics"

	"github.com/uptrace/bun"
)

var ErrGrowthNotFound = errors.New("growth record not found")

type Repository interface {
	Create(ctx context.Context, record *Growth) (*Growth, error)
	GetByID(ctx context.Context, id int) (*Growth, error)
	ListByStudent(ctx context.Context, studentID int) ([]Growth, error)
	Update(ctx context.Context, record *Growth) error
	Delete(ctx context.Context, id int) error
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

func (r *repository) Create(ctx context.Context, record *Growth) (*Growth, error) {
	start := time.Now()
	_, err := r.db.NewInsert().Model(record).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "growths", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Growth, error) {
	start := time.Now()
	record := new(Growth)
	err := r.db.NewSelect().Model(record).Where("id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "growths", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGrowthNotFound
		}
		return nil, err
	}
	return record, nil
}

func (r *repository) ListByStudent(ctx context.Context, studentID int) ([]Growth, error) {
	start := time.Now()
	var records []Growth
	err := r.db.NewSelect().
		Model(&records).
		Where("student_id = ?", studentID).
		Order("measurement_date DESC", "id DESC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "growths", time.Since(start), err)

	return records, err
}

func (r *repository) Update(ctx context.Context, record *Growth) error {
	start := time.Now()
	result, err := r.db.NewUpdate().
		Model(record).
		WherePK().
		ExcludeColumn("created_at", "student_id").
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "growths", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrGrowthNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int) error {
	start := time.Now()
	result, err := r.db.NewDelete().
		Model((*Growth)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "growths", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrGrowthNotFound
	}
	return nil
}
