package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// CollaboratorInvitation lets a primary guardian invite another guardian to
// co-monitor an already-linked dependent. Unlike QR invitations there is no
// approval round trip: accepting the code creates the edge directly.
type CollaboratorInvitation struct {
	ID                snowflake.ID  `gorm:"primaryKey" json:"id"`
	PrimaryGuardianID snowflake.ID  `gorm:"not null;index" json:"primary_guardian_id"`
	DependentID       snowflake.ID  `gorm:"not null;index" json:"dependent_id"`
	Code              string        `gorm:"uniqueIndex;not null" json:"code"`
	Status            string        `gorm:"not null;default:pending;index" json:"status"`
	CollaboratorID    *snowflake.ID `gorm:"column:collaborator_id" json:"collaborator_id,omitempty"`
	CreatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	ExpiresAt         time.Time     `gorm:"not null" json:"expires_at"`
	AcceptedAt        *time.Time    `json:"accepted_at,omitempty"`
}

// TableName sets the database table name.
func (CollaboratorInvitation) TableName() string { return "collaborator_invitations" }
