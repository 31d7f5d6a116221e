package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/guardline/guardline/internal/dependent/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, stub *domain.DependentStub) error {
	return db.WithContext(ctx).Create(stub).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.DependentStub, error) {
	var stub domain.DependentStub
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&stub).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stub, nil
}

func (r *repo) ListByGuardian(ctx context.Context, db *gorm.DB, guardianID snowflake.ID) ([]domain.DependentStub, error) {
	var stubs []domain.DependentStub
	err := db.WithContext(ctx).
		Where("guardian_id = ?", guardianID).
		Order("created_at desc, id desc").
		Find(&stubs).Error
	if err != nil {
		return nil, err
	}
	return stubs, nil
}

func (r *repo) ActiveInvitations(ctx context.Context, db *gorm.DB, stubIDs []snowflake.ID) ([]domain.InvitationSummary, error) {
	if len(stubIDs) == 0 {
		return nil, nil
	}
	var rows []domain.InvitationSummary
	err := db.WithContext(ctx).Raw(
		`SELECT dependent_stub_id AS stub_id, status, token, expires_at
		 FROM qr_invitations
		 WHERE dependent_stub_id IN ? AND status IN ('pending', 'scanned')`,
		stubIDs,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) HasApprovedInvitation(ctx context.Context, db *gorm.DB, stubID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Table("qr_invitations").
		Where("dependent_stub_id = ? AND is_approved = ?", stubID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) DeleteWithInvitations(ctx context.Context, db *gorm.DB, stubID snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM qr_invitations WHERE dependent_stub_id = ?`, stubID).Error; err != nil {
			return err
		}
		return tx.Exec(`DELETE FROM pending_dependents WHERE id = ?`, stubID).Error
	})
}
