package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/guardline/guardline/internal/invitation/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, inv *domain.Invitation) error {
	return db.WithContext(ctx).Create(inv).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invitation, error) {
	return r.findOne(ctx, db, "id = ?", id)
}

func (r *repo) FindByToken(ctx context.Context, db *gorm.DB, token string) (*domain.Invitation, error) {
	return r.findOne(ctx, db, "token = ?", token)
}

func (r *repo) FindActiveByStub(ctx context.Context, db *gorm.DB, stubID snowflake.ID) (*domain.Invitation, error) {
	return r.findOne(ctx, db, "dependent_stub_id = ? AND status IN ?",
		stubID, []string{domain.StatusPending, domain.StatusScanned})
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, query string, args ...any) (*domain.Invitation, error) {
	var inv domain.Invitation
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

// ClaimScan is the compare-and-swap that guarantees at most one scanner ever
// binds scanned_by_id: the guard on status = pending makes concurrent scans
// race on affected-row count instead of overwriting each other.
func (r *repo) ClaimScan(ctx context.Context, db *gorm.DB, id, userID snowflake.ID, at time.Time, meta datatypes.JSONMap) (bool, error) {
	result := db.WithContext(ctx).
		Model(&domain.Invitation{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(map[string]any{
			"scanned_by_id": userID,
			"status":        domain.StatusScanned,
			"scanned_at":    at,
			"metadata":      meta,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) MarkApproved(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error) {
	result := db.WithContext(ctx).
		Model(&domain.Invitation{}).
		Where("id = ? AND status = ?", id, domain.StatusScanned).
		Updates(map[string]any{
			"status":      domain.StatusApproved,
			"is_approved": true,
			"approved_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) MarkRejected(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).
		Model(&domain.Invitation{}).
		Where("id = ? AND status = ?", id, domain.StatusScanned).
		Update("status", domain.StatusRejected)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) MarkExpired(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.Invitation{}).
		Where("id = ? AND status IN ?", id, []string{domain.StatusPending, domain.StatusScanned}).
		Update("status", domain.StatusExpired).Error
}

func (r *repo) ListScannedByGuardian(ctx context.Context, db *gorm.DB, guardianID snowflake.ID) ([]domain.PendingApproval, error) {
	var rows []domain.PendingApproval
	err := db.WithContext(ctx).Raw(
		`SELECT qi.id AS invitation_id,
		        qi.dependent_stub_id AS stub_id,
		        pd.name AS dependent_name,
		        pd.relation,
		        pd.age,
		        qi.status,
		        qi.scanned_by_id,
		        u.full_name AS scanned_by_name,
		        qi.scanned_at,
		        qi.created_at,
		        qi.expires_at
		 FROM qr_invitations qi
		 JOIN pending_dependents pd ON pd.id = qi.dependent_stub_id
		 LEFT JOIN users u ON u.id = qi.scanned_by_id
		 WHERE qi.guardian_id = ? AND qi.status = ? AND qi.is_approved = ?
		 ORDER BY qi.scanned_at DESC`,
		guardianID, domain.StatusScanned, false,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
