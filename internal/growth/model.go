package growth

import (
	"time"

	"github.com/uptrace/bun"
)

// Growth is one height/weight measurement for a student.
type Growth struct {
	bun.BaseModel `bun:"table:growths,alias:g"`

	ID                 int       `bun:"id,pk,autoincrement" json:"id"`
	StudentID          int       `bun:"student_id,notnull" json:"studentId"`
	Height             float64   `bun:"height,notnull" json:"height" validate:"required,gt=0"`
	Weight             float64   `bun:"weight,notnull" json:"weight" validate:"required,gt=0"`
	BMI                float64   `bun:"bmi" json:"bmi"`
	WaistCircumference float64   `bun:"waist_circumference,nullzero" json:"waistCircumference,omitempty"`
	MeasurementDate    time.Time `bun:"measurement_date,notnull" json:"measurementDate" validate:"required"`
	Note               string    `bun:"note,nullzero" json:"note,omitempty"`
	CreatedAt          time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt          time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// ComputeBMI fills the BMI field from height (cm) and weight (kg).
func (g *Growth) ComputeBMI() {
	if g.Height <= 0 {
		return
	}
	meters := g.Height / 100
	g.BMI = g.Weight / (meters * meters)
}
