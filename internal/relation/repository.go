package relation

import (
	"context"
	"errors"
	"time"

	"school-health-service/internal/metrics"

	"github.com/uptrace/bun"
)

var ErrRelationNotFound = errors.New("relation not found")

type Repository interface {
	Create(ctx context.Context, rel *Relation) (*Relation, error)
	ExistsActiveHomeroom(ctx context.Context, teacherID, studentID, schoolYear int) (bool, error)
	ListActiveHomeroomStudentIDs(ctx context.Context, teacherID, schoolYear int) ([]int, error)
	ListByStudent(ctx context.Context, studentID int) ([]Relation, error)
	Retire(ctx context.Context, id int) error
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

func (r *repository) Create(ctx context.Context, rel *Relation) (*Relation, error) {
	start := time.Now()
	_, err := r.db.NewInsert().Model(rel).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "student_teacher_relations", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return rel, nil
}

func (r *repository) ExistsActiveHomeroom(ctx context.Context, teacherID, studentID, schoolYear int) (bool, error) {
	start := time.Now()
	exists, err := r.db.NewSelect().
		Model((*Relation)(nil)).
		Where("teacher_id = ?", teacherID).
		Where("student_id = ?", studentID).
		Where("relation_type = ?", TypeHomeroom).
		Where("school_year = ?", schoolYear).
		Where("is_active = TRUE").
		Exists(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "student_teacher_relations", time.Since(start), err)

	return exists, err
}

func (r *repository) ListActiveHomeroomStudentIDs(ctx context.Context, teacherID, schoolYear int) ([]int, error) {
	start := time.Now()
	var ids []int
	err := r.db.NewSelect().
		Model((*Relation)(nil)).
		ColumnExpr("DISTINCT student_id").
		Where("teacher_id = ?", teacherID).
		Where("relation_type = ?", TypeHomeroom).
		Where("school_year = ?", schoolYear).
		Where("is_active = TRUE").
		Scan(ctx, &ids)

	r.metrics.Database.RecordQuery(ctx, "select", "student_teacher_relations", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) ListByStudent(ctx context.Context, studentID int) ([]Relation, error) {
	start := time.Now()
	var relations []Relation
	err := r.db.NewSelect().
		Model(&relations).
		Where("student_id = ?", studentID).
		Order("school_year DESC", "id DESC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "student_teacher_relations", time.Since(start), err)

	return relations, err
}

// Retire clears is_active on a relation. Rows are never deleted.
func (r *repository) Retire(ctx context.Context, id int) error {
	start := time.Now()
	result, err := r.db.NewUpdate().
		Model((*Relation)(nil)).
		Set("is_active = FALSE").
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "student_teacher_relations", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrRelationNotFound
	}
	return nil
}
