package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// DependentStub is the placeholder profile a guardian creates before any real
// account is linked. Invitations reference it; the approved relationship
// copies its relation label.
type DependentStub struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	GuardianID snowflake.ID `gorm:"not null;index" json:"guardian_id"`
	Name       string       `gorm:"not null" json:"name"`
	Relation   string       `gorm:"not null" json:"relation"`
	Age        int          `gorm:"not null" json:"age"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (DependentStub) TableName() string { return "pending_dependents" }
