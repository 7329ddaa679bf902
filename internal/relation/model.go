package relation

import (
	"time"

	"github.com/uptrace/bun"
)

// Type scopes what a teacher-student relation grants.
type Type string

const (
	TypeHomeroom       Type = "homeroom"
	TypeHealth         Type = "health"
	TypeSubject        Type = "subject"
	TypeAdministrative Type = "administrative"
)

// Relation ties a teacher to a student for a school year. Only rows with
// IsActive set and the current school year count for authorization.
// Rows are retired by clearing IsActive, never deleted, so historical
// assignments stay auditable.
type Relation struct {
	bun.BaseModel `bun:"table:student_teacher_relations,alias:str"`

	ID           int       `bun:"id,pk,autoincrement" json:"id"`
	StudentID    int       `bun:"student_id,notnull" json:"studentId"`
	TeacherID    int       `bun:"teacher_id,notnull" json:"teacherId"`
	RelationType Type      `bun:"relation_type,notnull,default:'homeroom'" json:"relationType"`
	SchoolYear   int       `bun:"school_year,notnull" json:"schoolYear"`
	Semester     int       `bun:"semester,nullzero" json:"semester,omitempty"`
	SubjectName  string    `bun:"subject_name,nullzero" json:"subjectName,omitempty"`
	IsActive     bool      `bun:"is_active,notnull,default:true" json:"isActive"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// AssignRequest is the request body for creating a relation
type AssignRequest struct {
	StudentID    int    `json:"studentId" validate:"required"`
	TeacherID    int    `json:"teacherId" validate:"required"`
	RelationType Type   `json:"relationType" validate:"required,oneof=homeroom health subject administrative"`
	SchoolYear   int    `json:"schoolYear" validate:"required"`
	Semester     int    `json:"semester"`
	SubjectName  string `json:"subjectName"`
}
