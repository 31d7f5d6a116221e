package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/guardline/guardline/internal/collabinvite/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, inv *domain.CollaboratorInvitation) error {
	return db.WithContext(ctx).Create(inv).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.CollaboratorInvitation, error) {
	return r.findOne(ctx, db, "id = ?", id)
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.CollaboratorInvitation, error) {
	return r.findOne(ctx, db, "code = ?", code)
}

func (r *repo) FindPendingByDependent(ctx context.Context, db *gorm.DB, primaryGuardianID, dependentID snowflake.ID) (*domain.CollaboratorInvitation, error) {
	return r.findOne(ctx, db, "primary_guardian_id = ? AND dependent_id = ? AND status = ?",
		primaryGuardianID, dependentID, domain.StatusPending)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, query string, args ...any) (*domain.CollaboratorInvitation, error) {
	var inv domain.CollaboratorInvitation
	err := db.WithContext(ctx).
		Where(query, args...).
		Take(&inv).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repo) ListByGuardian(ctx context.Context, db *gorm.DB, guardianID snowflake.ID) ([]domain.CollaboratorInvitation, error) {
	var invites []domain.CollaboratorInvitation
	err := db.WithContext(ctx).
		Where("primary_guardian_id = ?", guardianID).
		Order("created_at desc").
		Find(&invites).Error
	if err != nil {
		return nil, err
	}
	return invites, nil
}

func (r *repo) MarkAccepted(ctx context.Context, db *gorm.DB, id, collaboratorID snowflake.ID, at time.Time) (bool, error) {
	result := db.WithContext(ctx).
		Model(&domain.CollaboratorInvitation{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(map[string]any{
			"status":          domain.StatusAccepted,
			"collaborator_id": collaboratorID,
			"accepted_at":     at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) MarkCancelled(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).
		Model(&domain.CollaboratorInvitation{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Update("status", domain.StatusCancelled)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) MarkExpired(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.CollaboratorInvitation{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Update("status", domain.StatusExpired).Error
}
