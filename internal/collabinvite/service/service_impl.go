package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/guardline/guardline/internal/clock"
	"github.com/guardline/guardline/internal/collabinvite/domain"
	"github.com/guardline/guardline/internal/config"
	emcdomain "github.com/guardline/guardline/internal/emergencycontact/domain"
	relationshipdomain "github.com/guardline/guardline/internal/relationship/domain"
	"github.com/guardline/guardline/internal/token"
	pkgdb "github.com/guardline/guardline/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Cfg     config.Config
	Clock   clock.Clock
	Issuer  *token.Issuer
	Repo    domain.Repository
	RelRepo relationshipdomain.Repository
	Syncer  emcdomain.Syncer
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	issuer  *token.Issuer
	repo    domain.Repository
	relRepo relationshipdomain.Repository
	syncer  emcdomain.Syncer
	ttl     time.Duration
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("collabinvite.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		issuer:  p.Issuer,
		repo:    p.Repo,
		relRepo: p.RelRepo,
		syncer:  p.Syncer,
		ttl:     time.Duration(p.Cfg.CollabInviteTTLDays) * 24 * time.Hour,
	}
}

// Create issues an invitation code. Only the dependent's primary guardian may
// invite collaborators, and only one pending code per dependent is kept.
func (s *Service) Create(ctx context.Context, guardianID, dependentID snowflake.ID) (domain.CollaboratorInvitation, error) {
	primary, err := s.relRepo.FindPrimaryByDependent(ctx, s.db, dependentID)
	if err != nil {
		return domain.CollaboratorInvitation{}, err
	}
	if primary == nil {
		return domain.CollaboratorInvitation{}, domain.ErrNotFound
	}
	if primary.GuardianID != guardianID {
		return domain.CollaboratorInvitation{}, domain.ErrNotPrimary
	}

	pending, err := s.repo.FindPendingByDependent(ctx, s.db, guardianID, dependentID)
	if err != nil {
		return domain.CollaboratorInvitation{}, err
	}
	if pending != nil {
		if !s.clock.Now().After(pending.ExpiresAt) {
			return domain.CollaboratorInvitation{}, domain.ErrActivePending
		}
		if err := s.repo.MarkExpired(ctx, s.db, pending.ID); err != nil {
			return domain.CollaboratorInvitation{}, err
		}
	}

	code, expiresAt := s.issuer.Issue(s.ttl)
	inv := domain.CollaboratorInvitation{
		ID:                s.genID.Generate(),
		PrimaryGuardianID: guardianID,
		DependentID:       dependentID,
		Code:              code,
		Status:            domain.StatusPending,
		CreatedAt:         s.clock.Now(),
		ExpiresAt:         expiresAt,
	}

	if err := s.repo.Insert(ctx, s.db, &inv); err != nil {
		return domain.CollaboratorInvitation{}, err
	}

	s.log.Info("collaborator invitation created",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("dependent_id", dependentID.String()))
	return inv, nil
}

// Accept redeems a code and links the accepting guardian as a collaborator.
func (s *Service) Accept(ctx context.Context, code string, guardianID snowflake.ID) (relationshipdomain.Relationship, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return relationshipdomain.Relationship{}, domain.ErrNotFound
	}

	inv, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		return relationshipdomain.Relationship{}, err
	}
	if inv == nil {
		return relationshipdomain.Relationship{}, domain.ErrNotFound
	}

	now := s.clock.Now()
	if now.After(inv.ExpiresAt) {
		if err := s.repo.MarkExpired(ctx, s.db, inv.ID); err != nil {
			return relationshipdomain.Relationship{}, err
		}
		return relationshipdomain.Relationship{}, domain.ErrExpired
	}

	if inv.Status != domain.StatusPending {
		return relationshipdomain.Relationship{}, domain.ErrInvalidState
	}
	if inv.PrimaryGuardianID == guardianID {
		return relationshipdomain.Relationship{}, domain.ErrForbidden
	}

	existing, err := s.relRepo.FindByPair(ctx, s.db, guardianID, inv.DependentID)
	if err != nil {
		return relationshipdomain.Relationship{}, err
	}
	if existing != nil {
		return relationshipdomain.Relationship{}, relationshipdomain.ErrRelationshipExists
	}

	primary, err := s.relRepo.FindPrimaryByDependent(ctx, s.db, inv.DependentID)
	if err != nil {
		return relationshipdomain.Relationship{}, err
	}
	kind := "caregiver"
	if primary != nil {
		kind = primary.Kind
	}

	rel := relationshipdomain.Relationship{
		ID:          s.genID.Generate(),
		GuardianID:  guardianID,
		DependentID: inv.DependentID,
		Kind:        kind,
		LinkRole:    relationshipdomain.LinkRoleCollaborator,
		CreatedAt:   now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.relRepo.Insert(ctx, tx, &rel); err != nil {
			if pkgdb.IsDuplicateKeyErr(err) {
				return relationshipdomain.ErrRelationshipExists
			}
			return err
		}

		ok, err := s.repo.MarkAccepted(ctx, tx, inv.ID, guardianID, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidState
		}
		return nil
	})
	if err != nil {
		return relationshipdomain.Relationship{}, err
	}

	s.log.Info("collaborator invitation accepted",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("relationship_id", rel.ID.String()))

	if err := s.syncer.OnRelationshipCreated(ctx, rel); err != nil {
		s.log.Warn("emergency contact sync failed",
			zap.String("relationship_id", rel.ID.String()),
			zap.Error(err))
	}
	return rel, nil
}

// Cancel withdraws a pending invitation. Creator only.
func (s *Service) Cancel(ctx context.Context, invitationID, guardianID snowflake.ID) error {
	inv, err := s.repo.FindByID(ctx, s.db, invitationID)
	if err != nil {
		return err
	}
	if inv == nil {
		return domain.ErrNotFound
	}
	if inv.PrimaryGuardianID != guardianID {
		return domain.ErrForbidden
	}

	ok, err := s.repo.MarkCancelled(ctx, s.db, inv.ID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidState
	}
	return nil
}

func (s *Service) List(ctx context.Context, guardianID snowflake.ID) ([]domain.CollaboratorInvitation, error) {
	return s.repo.ListByGuardian(ctx, s.db, guardianID)
}
