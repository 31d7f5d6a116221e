package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleGuardian = "guardian"
	RoleChild    = "child"
	RoleElderly  = "elderly"
)

// IsDependentRole reports whether the role belongs to a protected user.
func IsDependentRole(role string) bool {
	return role == RoleChild || role == RoleElderly
}

// Account is a registered app user. Phone/email verification and the real
// credential flows live outside this service; this table only keeps what the
// linking workflow needs.
type Account struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	FullName     string       `gorm:"not null" json:"full_name"`
	Email        string       `gorm:"uniqueIndex;not null" json:"email"`
	Phone        string       `gorm:"column:phone" json:"phone,omitempty"`
	Role         string       `gorm:"not null" json:"role"`
	PasswordHash string       `gorm:"column:password_hash;not null" json:"-"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "users" }

// Session is an opaque bearer token bound to an account.
type Session struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;index" json:"user_id"`
	Token     string       `gorm:"uniqueIndex;not null" json:"-"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	ExpiresAt time.Time    `gorm:"not null" json:"expires_at"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }
