package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, inv *Invitation) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invitation, error)
	FindByToken(ctx context.Context, db *gorm.DB, token string) (*Invitation, error)
	FindActiveByStub(ctx context.Context, db *gorm.DB, stubID snowflake.ID) (*Invitation, error)

	// ClaimScan binds the scanner with a conditional update on
	// status = pending and reports whether this caller won the claim.
	ClaimScan(ctx context.Context, db *gorm.DB, id, userID snowflake.ID, at time.Time, meta datatypes.JSONMap) (bool, error)
	// MarkApproved transitions scanned -> approved; false when the row was no
	// longer in scanned.
	MarkApproved(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error)
	// MarkRejected transitions scanned -> rejected; false when the row was no
	// longer in scanned.
	MarkRejected(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	// MarkExpired transitions any live status to expired.
	MarkExpired(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	ListScannedByGuardian(ctx context.Context, db *gorm.DB, guardianID snowflake.ID) ([]PendingApproval, error)
}
