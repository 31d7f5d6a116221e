package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, inv *CollaboratorInvitation) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CollaboratorInvitation, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*CollaboratorInvitation, error)
	FindPendingByDependent(ctx context.Context, db *gorm.DB, primaryGuardianID, dependentID snowflake.ID) (*CollaboratorInvitation, error)
	ListByGuardian(ctx context.Context, db *gorm.DB, guardianID snowflake.ID) ([]CollaboratorInvitation, error)

	// MarkAccepted transitions pending -> accepted; false when the row was no
	// longer pending.
	MarkAccepted(ctx context.Context, db *gorm.DB, id, collaboratorID snowflake.ID, at time.Time) (bool, error)
	// MarkCancelled transitions pending -> cancelled; false when the row was
	// no longer pending.
	MarkCancelled(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	MarkExpired(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
