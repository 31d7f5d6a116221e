package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Invitation lifecycle. pending and scanned are live; approved, rejected and
// expired are terminal.
const (
	StatusPending  = "pending"
	StatusScanned  = "scanned"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusExpired  = "expired"
)

// Invitation is a QR-token-backed link request from a guardian to a
// not-yet-identified dependent. The token is the bearer credential embedded
// in the QR image; ScannedByID is bound exactly once, by the atomic claim in
// the repository.
type Invitation struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	Token           string            `gorm:"uniqueIndex;not null" json:"token"`
	GuardianID      snowflake.ID      `gorm:"not null;index" json:"guardian_id"`
	DependentStubID snowflake.ID      `gorm:"not null;index" json:"dependent_stub_id"`
	ScannedByID     *snowflake.ID     `gorm:"column:scanned_by_id" json:"scanned_by_id,omitempty"`
	Status          string            `gorm:"not null;default:pending" json:"status"`
	IsApproved      bool              `gorm:"not null;default:false" json:"is_approved"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	ScannedAt       *time.Time        `json:"scanned_at,omitempty"`
	ApprovedAt      *time.Time        `json:"approved_at,omitempty"`
	ExpiresAt       time.Time         `gorm:"not null" json:"expires_at"`
}

// TableName sets the database table name.
func (Invitation) TableName() string { return "qr_invitations" }

// Terminal reports whether no further transition is legal from the status.
func Terminal(status string) bool {
	switch status {
	case StatusApproved, StatusRejected, StatusExpired:
		return true
	}
	return false
}
