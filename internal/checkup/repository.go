package checkup

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"school-health-service/internal/metrics"

	"github.com/uptrace/bun"
)

var ErrCheckupNotFound = errors.New("health checkup not found")

type Repository interface {
	Create(ctx context.Context, record *Checkup) (*Checkup, error)
	GetByID(ctx context.Context, id int) (*Checkup, error)
	ListByStudent(ctx context.Context, studentID int) ([]Checkup, error)
	Update(ctx context.Context, record *Checkup) error
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

func (r *repository) Create(ctx context.Context, record *Checkup) (*Checkup, error) {
	start := time.Now()
	_, err := r.db.NewInsert().Model(record).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "health_checkups", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Checkup, error) {
	start := time.Now()
	record := new(Checkup)
	err := r.db.NewSelect().Model(record).Where("id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "health_checkups", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCheckupNotFound
		}
		return nil, err
	}
	return record, nil
}

func (r *repository) ListByStudent(ctx context.Context, studentID int) ([]Checkup, error) {
	start := time.Now()
	var records []Checkup
	err := r.db.NewSelect().
		Model(&records).
		Where("student_id = ?", studentID).
		Order("checkup_date DESC", "id DESC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "health_checkups", time.Since(start), err)

	return records, err
}

func (r *repository) Update(ctx context.Context, record *Checkup) error {
	start := time.Now()
	result, err := r.db.NewUpdate().
		Model(record).
		WherePK().
		ExcludeColumn("created_at", "student_id").
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "health_checkups", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrCheckupNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int) error {
	start := time.Now()
	result, err := r.db.NewDelete().
		Model((*Checkup)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "health_checkups", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrCheckupNotFound
	}
	return nil
}
