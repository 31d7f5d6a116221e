package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/guardline/guardline/internal/emergencycontact/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, contact *domain.EmergencyContact) error {
	return db.WithContext(ctx).Create(contact).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, contact *domain.EmergencyContact) error {
	return db.WithContext(ctx).Save(contact).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.EmergencyContact, error) {
	var contact domain.EmergencyContact
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&contact).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *repo) FindAutoByRelationship(ctx context.Context, db *gorm.DB, userID, relationshipID snowflake.ID) (*domain.EmergencyContact, error) {
	var contact domain.EmergencyContact
	err := db.WithContext(ctx).
		Where("user_id = ? AND guardian_relationship_id = ? AND source = ?",
			userID, relationshipID, domain.SourceAutoGuardian).
		Take(&contact).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]domain.EmergencyContact, error) {
	var contacts []domain.EmergencyContact
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("priority asc, created_at asc").
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.EmergencyContact{}).Error
}

func (r *repo) DeleteAutoByRelationship(ctx context.Context, db *gorm.DB, userID, relationshipID snowflake.ID) error {
	return db.WithContext(ctx).
		Where("user_id = ? AND guardian_relationship_id = ? AND source = ?",
			userID, relationshipID, domain.SourceAutoGuardian).
		Delete(&domain.EmergencyContact{}).Error
}
