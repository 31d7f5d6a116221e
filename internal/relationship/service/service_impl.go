package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	emcdomain "github.com/guardline/guardline/internal/emergencycontact/domain"
	"github.com/guardline/guardline/internal/relationship/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Repo   domain.Repository
	Syncer emcdomain.Syncer
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	repo   domain.Repository
	syncer emcdomain.Syncer
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("relationship.service"),
		repo:   p.Repo,
		syncer: p.Syncer,
	}
}

func (s *Service) ListForGuardian(ctx context.Context, guardianID snowflake.ID) ([]domain.DependentLink, error) {
	return s.repo.ListByGuardian(ctx, s.db, guardianID)
}

func (s *Service) ListForDependent(ctx context.Context, dependentID snowflake.ID) ([]domain.GuardianLink, error) {
	return s.repo.ListByDependent(ctx, s.db, dependentID)
}

func (s *Service) Exists(ctx context.Context, guardianID, dependentID snowflake.ID) (bool, error) {
	rel, err := s.repo.FindByPair(ctx, s.db, guardianID, dependentID)
	if err != nil {
		return false, err
	}
	return rel != nil, nil
}

func (s *Service) GetPrimary(ctx context.Context, dependentID snowflake.ID) (*domain.Relationship, error) {
	return s.repo.FindPrimaryByDependent(ctx, s.db, dependentID)
}

// Revoke deletes the edge. Either side of the relationship may revoke it.
// Emergency-contact cleanup runs after the delete, best effort.
func (s *Service) Revoke(ctx context.Context, requesterID, relationshipID snowflake.ID) error {
	rel, err := s.repo.FindByID(ctx, s.db, relationshipID)
	if err != nil {
		return err
	}
	if rel == nil {
		return domain.ErrNotFound
	}
	if rel.GuardianID != requesterID && rel.DependentID != requesterID {
		return domain.ErrForbidden
	}

	if err := s.repo.Delete(ctx, s.db, rel.ID); err != nil {
		return err
	}

	s.log.Info("relationship revoked",
		zap.String("relationship_id", rel.ID.String()),
		zap.String("requester_id", requesterID.String()),
		zap.String("link_role", rel.LinkRole))

	if err := s.syncer.OnRelationshipRevoked(ctx, *rel); err != nil {
		s.log.Warn("emergency contact cleanup failed",
			zap.String("relationship_id", rel.ID.String()),
			zap.Error(err))
	}
	return nil
}
