package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository methods take the db handle explicitly so the invitation approval
// transaction can insert an edge inside its own unit of work.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rel *Relationship) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Relationship, error)
	FindByPair(ctx context.Context, db *gorm.DB, guardianID, dependentID snowflake.ID) (*Relationship, error)
	ExistsForDependent(ctx context.Context, db *gorm.DB, dependentID snowflake.ID) (bool, error)
	FindPrimaryByDependent(ctx context.Context, db *gorm.DB, dependentID snowflake.ID) (*Relationship, error)
	ListByGuardian(ctx context.Context, db *gorm.DB, guardianID snowflake.ID) ([]DependentLink, error)
	ListByDependent(ctx context.Context, db *gorm.DB, dependentID snowflake.ID) ([]GuardianLink, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
