package checkup

import (
	"time"

	"github.com/uptrace/bun"
)

// Checkup is one annual health checkup result for a student.
type Checkup struct {
	bun.BaseModel `bun:"table:health_checkups,alias:hc"`

	ID                 int       `bun:"id,pk,autoincrement" json:"id"`
	StudentID          int       `bun:"student_id,notnull" json:"studentId"`
	Height             float64   `bun:"height,notnull" json:"height" validate:"required,gt=0"`
	Weight             float64   `bun:"weight,notnull" json:"weight" validate:"required,gt=0"`
	BMI                float64   `bun:"bmi" json:"bmi"`
	WaistCircumference float64   `bun:"waist_circumference" json:"waistCircumference" validate:"required,gt=0"`
	SystolicPressure   int       `bun:"systolic_pressure,notnull" json:"systolicPressure" validate:"required,gt=0"`
	DiastolicPressure  int       `bun:"diastolic_pressure,notnull" json:"diastolicPressure" validate:"required,gt=0"`
	LeftEyesight       float64   `bun:"left_eyesight,notnull" json:"leftEyesight" validate:"required,gt=0"`
	RightEyesight      float64   `bun:"right_eyesight,notnull" json:"rightEyesight" validate:"required,gt=0"`
	CheckupDate        time.Time `bun:"checkup_date,notnull" json:"checkupDate" validate:"required"`
	Note               string    `bun:"note,nullzero" json:"note,omitempty"`
	CreatedAt          time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt          time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

func (c *Checkup) ComputeBMI() {
	if c.Height <= 0 {
		return
	}
	meters := c.Height / 100
	c.BMI = c.Weight / (meters * meters)
}
