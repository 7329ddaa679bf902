package user

import (
	"time"

	"github.com/uptrace/bun"
)

// Role is the staff account role. Unknown values are treated as no access.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleTeacher       Role = "teacher"
	RoleHealthTeacher Role = "health_teacher"
)

type SchoolType string

const (
	SchoolElementary SchoolType = "elementary"
	SchoolMiddle     SchoolType = "middle"
	SchoolHigh       SchoolType = "high"
)

// User is a staff account (teacher, health teacher or admin).
// Password holds the bcrypt hash and is never serialized.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID          int        `bun:"id,pk,autoincrement" json:"id"`
	Name        string     `bun:"name,notnull" json:"name"`
	Email       string     `bun:"email,unique,notnull" json:"email"`
	Password    string     `bun:"password,notnull" json:"-"`
	Role        Role       `bun:"role,notnull,default:'teacher'" json:"role"`
	SchoolType  SchoolType `bun:"school_type,notnull" json:"schoolType"`
	SchoolName  string     `bun:"school_name,notnull" json:"schoolName"`
	PhoneNumber string     `bun:"phone_number" json:"phoneNumber"`
	IsActive    bool       `bun:"is_active,notnull,default:true" json:"isActive"`
	LastLoginAt *time.Time `bun:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}
