package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/guardline/guardline/internal/relationship/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rel *domain.Relationship) error {
	return db.WithContext(ctx).Create(rel).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Relationship, error) {
	var rel domain.Relationship
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&rel).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (r *repo) FindByPair(ctx context.Context, db *gorm.DB, guardianID, dependentID snowflake.ID) (*domain.Relationship, error) {
	var rel domain.Relationship
	err := db.WithContext(ctx).
		Where("guardian_id = ? AND dependent_id = ?", guardianID, dependentID).
		Take(&rel).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (r *repo) ExistsForDependent(ctx context.Context, db *gorm.DB, dependentID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Relationship{}).
		Where("dependent_id = ?", dependentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) FindPrimaryByDependent(ctx context.Context, db *gorm.DB, dependentID snowflake.ID) (*domain.Relationship, error) {
	var rel domain.Relationship
	err := db.WithContext(ctx).
		Where("dependent_id = ? AND link_role = ?", dependentID, domain.LinkRolePrimary).
		Take(&rel).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (r *repo) ListByGuardian(ctx context.Context, db *gorm.DB, guardianID snowflake.ID) ([]domain.DependentLink, error) {
	var links []domain.DependentLink
	err := db.WithContext(ctx).Raw(
		`SELECT gd.id AS relationship_id,
		        gd.dependent_id,
		        u.full_name AS dependent_name,
		        u.email AS dependent_email,
		        gd.kind,
		        gd.link_role,
		        pd.age AS age,
		        gd.created_at AS linked_at
		 FROM guardian_dependents gd
		 JOIN users u ON u.id = gd.dependent_id
		 LEFT JOIN pending_dependents pd ON pd.id = gd.dependent_stub_id
		 WHERE gd.guardian_id = ?
		 ORDER BY gd.created_at DESC`,
		guardianID,
	).Scan(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repo) ListByDependent(ctx context.Context, db *gorm.DB, dependentID snowflake.ID) ([]domain.GuardianLink, error) {
	var links []domain.GuardianLink
	err := db.WithContext(ctx).Raw(
		`SELECT gd.id AS relationship_id,
		        gd.guardian_id,
		        u.full_name AS guardian_name,
		        u.email AS guardian_email,
		        gd.kind,
		        gd.link_role,
		        gd.created_at AS linked_at
		 FROM guardian_dependents gd
		 JOIN users u ON u.id = gd.guardian_id
		 WHERE gd.dependent_id = ?
		 ORDER BY gd.link_role, gd.created_at`,
		dependentID,
	).Scan(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Relationship{}).Error
}
