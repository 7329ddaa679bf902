package student

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"school-health-service/internal/metrics"
	"school-health-service/internal/user"

	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, student *Student) (*Student, error)
	GetByID(ctx context.Context, id int) (*Student, error)
	ListByIDs(ctx context.Context, ids []int) ([]Student, error)
	ListActiveIDs(ctx context.Context) ([]int, error)
	FilterActiveIDs(ctx context.Context, ids []int) ([]int, error)
	ListBySchoolType(ctx context.Context, schoolType user.SchoolType) ([]Student, error)
	ListAll(ctx context.Context) ([]Student, error)
	Update(ctx context.Context, student *Student) error
	Deactivate(ctx context.Context, id int) error
	HardDelete(ctx context.Context, id int) error
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

var ErrStudentNotFound = errors.New("student not found")

func (r *repository) Create(ctx context.Context, student *Student) (*Student, error) {
	start := time.Now()
	_, err := r.db.NewInsert().Model(student).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "students", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return student, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Student, error) {
	start := time.Now()
	student := new(Student)
	err := r.db.NewSelect().Model(student).Where("id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "students", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

// ListByIDs returns the students with the given ids in roster order
// (grade, class, student number). Order is stable for pagination.
func (r *repository) ListByIDs(ctx context.Context, ids []int) ([]Student, error) {
	if len(ids) == 0 {
		return []Student{}, nil
	}

	start := time.Now()
	var students []Student
	err := r.db.NewSelect().
		Model(&students).
		Where("id IN (?)", bun.In(ids)).
		Order("grade ASC", "class_number ASC", "student_number ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "students", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return students, nil
}

func (r *repository) ListActiveIDs(ctx context.Context) ([]int, error) {
	start := time.Now()
	var ids []int
	err := r.db.NewSelect().
		Model((*Student)(nil)).
		Column("id").
		Where("is_active = TRUE").
		Order("grade ASC", "class_number ASC", "student_number ASC").
		Scan(ctx, &ids)

	r.metrics.Database.RecordQuery(ctx, "select", "students", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) FilterActiveIDs(ctx context.Context, ids []int) ([]int, error) {
	if len(ids) == 0 {
		return []int{}, nil
	}

	start := time.Now()
	var active []int
	err := r.db.NewSelect().
		Model((*Student)(nil)).
		Column("id").
		Where("id IN (?)", bun.In(ids)).
		Where("is_active = TRUE").
		Order("grade ASC", "class_number ASC", "student_number ASC").
		Scan(ctx, &active)

	r.metrics.Database.RecordQuery(ctx, "select", "students", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return active, nil
}

func (r *repository) ListBySchoolType(ctx context.Context, schoolType user.SchoolType) ([]Student, error) {
	start := time.Now()
	var students []Student
	err := r.db.NewSelect().
		Model(&students).
		Where("school_type = ?", schoolType).
		Order("grade ASC", "class_number ASC", "student_number ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "students", time.Since(start), err)

	return students, err
}

func (r *repository) ListAll(ctx context.Context) ([]Student, error) {
	start := time.Now()
	var students []Student
	err := r.db.NewSelect().
		Model(&students).
		Order("school_type ASC", "grade ASC", "class_number ASC", "student_number ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "students", time.Since(start), err)

	return students, err
}

func (r *repository) Update(ctx context.Context, student *Student) error {
	start := time.Now()
	result, err := r.db.NewUpdate().
		Model(student).
		WherePK().
		ExcludeColumn("created_at").
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "students", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}

// Deactivate marks a student as no longer enrolled. Records and relation
// rows stay in place.
func (r *repository) Deactivate(ctx context.Context, id int) error {
	start := time.Now()
	result, err := r.db.NewUpdate().
		Model((*Student)(nil)).
		Set("is_active = FALSE").
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "students", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}

// HardDelete removes the row permanently. Relation rows are left intact
// for the audit trail.
func (r *repository) HardDelete(ctx context.Context, id int) error {
	start := time.Now()
	result, err := r.db.NewDelete().
		Model((*Student)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "students", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}
