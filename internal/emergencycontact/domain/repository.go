package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, contact *EmergencyContact) error
	Update(ctx context.Context, db *gorm.DB, contact *EmergencyContact) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*EmergencyContact, error)
	FindAutoByRelationship(ctx context.Context, db *gorm.DB, userID, relationshipID snowflake.ID) (*EmergencyContact, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]EmergencyContact, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	DeleteAutoByRelationship(ctx context.Context, db *gorm.DB, userID, relationshipID snowflake.ID) error
}
