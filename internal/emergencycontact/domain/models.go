package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	SourceManual       = "manual"
	SourceAutoGuardian = "auto_guardian"

	PriorityPrimary      = 1
	PriorityCollaborator = 2
	PriorityDefault      = 999
)

// EmergencyContact is one entry in a user's SOS call list. Contacts with
// source auto_guardian mirror a live guardian relationship and are managed by
// the sync collaborator, not by hand.
type EmergencyContact struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	UserID         snowflake.ID  `gorm:"not null;index" json:"user_id"`
	Name           string        `gorm:"column:contact_name;not null" json:"name"`
	Phone          string        `gorm:"column:contact_phone;not null" json:"phone"`
	Email          string        `gorm:"column:contact_email" json:"email,omitempty"`
	Label          string        `gorm:"column:contact_relationship" json:"relationship,omitempty"`
	Priority       int           `gorm:"not null;default:999" json:"priority"`
	IsActive       bool          `gorm:"not null;default:true" json:"is_active"`
	Source         string        `gorm:"not null;default:manual" json:"source"`
	RelationshipID *snowflake.ID `gorm:"column:guardian_relationship_id" json:"guardian_relationship_id,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (EmergencyContact) TableName() string { return "emergency_contacts" }
