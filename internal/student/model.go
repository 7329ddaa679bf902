package student

import (
	"time"

	"school-health-service/internal/user"

	"github.com/uptrace/bun"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type Student struct {
	bun.BaseModel `bun:"table:students,alias:st"`

	ID             int             `bun:"id,pk,autoincrement" json:"id"`
	Name           string          `bun:"name,notnull" json:"name" validate:"required"`
	BirthDate      time.Time       `bun:"birth_date,notnull" json:"birthDate" validate:"required"`
	Gender         Gender          `bun:"gender,notnull" json:"gender" validate:"required,oneof=male female"`
	SchoolType     user.SchoolType `bun:"school_type,notnull" json:"schoolType" validate:"required,oneof=elementary middle high"`
	SchoolName     string          `bun:"school_name,notnull" json:"schoolName" validate:"required"`
	Grade          int             `bun:"grade,notnull" json:"grade" validate:"required,min=1,max=6"`
	ClassNumber    int             `bun:"class_number,notnull" json:"classNumber" validate:"required,min=1"`
	StudentNumber  int             `bun:"student_number,notnull" json:"studentNumber" validate:"required,min=1"`
	Address        string          `bun:"address,nullzero" json:"address,omitempty"`
	ParentName     string          `bun:"parent_name,nullzero" json:"parentName,omitempty"`
	ParentRelation string          `bun:"parent_relation,nullzero" json:"parentRelation,omitempty"`
	ParentContact  string          `bun:"parent_contact,nullzero" json:"parentContact,omitempty"`
	Note           string          `bun:"note,nullzero" json:"note,omitempty"`
	IsActive       bool            `bun:"is_active,notnull,default:true" json:"isActive"`
	CreatedAt      time.Time       `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt      time.Time       `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// GenderCount aggregates headcounts split by gender.
type GenderCount struct {
	All    int `json:"all"`
	Male   int `json:"male"`
	Female int `json:"female"`
}

// GradeStatistics is the per-grade slice of Statistics.
type GradeStatistics struct {
	Grade  int `json:"grade"`
	Total  int `json:"total"`
	Male   int `json:"male"`
	Female int `json:"female"`
}

// Statistics summarizes students for one school type (or all of them).
type Statistics struct {
	SchoolType string            `json:"schoolType"`
	Total      GenderCount       `json:"total"`
	Grades     []GradeStatistics `json:"grades"`
}
