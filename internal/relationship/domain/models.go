package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	// LinkRolePrimary marks the first guardian approved for a dependent.
	LinkRolePrimary = "primary"
	// LinkRoleCollaborator marks every guardian linked after a primary exists.
	LinkRoleCollaborator = "collaborator"
)

// Relationship is the durable guardian-dependent edge. It is created only by
// an approved invitation and deleted only by an explicit revoke.
type Relationship struct {
	ID              snowflake.ID  `gorm:"primaryKey" json:"id"`
	GuardianID      snowflake.ID  `gorm:"not null;uniqueIndex:idx_guardian_dependent" json:"guardian_id"`
	DependentID     snowflake.ID  `gorm:"not null;uniqueIndex:idx_guardian_dependent;index" json:"dependent_id"`
	Kind            string        `gorm:"not null" json:"kind"`
	LinkRole        string        `gorm:"not null" json:"link_role"`
	DependentStubID *snowflake.ID `gorm:"column:dependent_stub_id" json:"dependent_stub_id,omitempty"`
	CreatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Relationship) TableName() string { return "guardian_dependents" }
