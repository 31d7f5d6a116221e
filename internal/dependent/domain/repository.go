package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// InvitationSummary is the slice of qr_invitations the stub list view needs.
type InvitationSummary struct {
	StubID    snowflake.ID
	Status    string
	Token     string
	ExpiresAt time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, stub *DependentStub) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*DependentStub, error)
	ListByGuardian(ctx context.Context, db *gorm.DB, guardianID snowflake.ID) ([]DependentStub, error)
	ActiveInvitations(ctx context.Context, db *gorm.DB, stubIDs []snowflake.ID) ([]InvitationSummary, error)
	HasApprovedInvitation(ctx context.Context, db *gorm.DB, stubID snowflake.ID) (bool, error)
	DeleteWithInvitations(ctx context.Context, db *gorm.DB, stubID snowflake.ID) error
}
