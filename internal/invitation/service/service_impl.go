package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/guardline/guardline/internal/account/domain"
	"github.com/guardline/guardline/internal/clock"
	"github.com/guardline/guardline/internal/config"
	dependentdomain "github.com/guardline/guardline/internal/dependent/domain"
	emcdomain "github.com/guardline/guardline/internal/emergencycontact/domain"
	"github.com/guardline/guardline/internal/invitation/domain"
	relationshipdomain "github.com/guardline/guardline/internal/relationship/domain"
	"github.com/guardline/guardline/internal/token"
	pkgdb "github.com/guardline/guardline/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Cfg      config.Config
	Clock    clock.Clock
	Issuer   *token.Issuer
	Repo     domain.Repository
	Stubs    dependentdomain.Service
	Accounts accountdomain.Service
	RelRepo  relationshipdomain.Repository
	Syncer   emcdomain.Syncer
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	issuer    *token.Issuer
	repo      domain.Repository
	stubs     dependentdomain.Service
	accounts  accountdomain.Service
	relRepo   relationshipdomain.Repository
	syncer    emcdomain.Syncer
	inviteTTL time.Duration
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("invitation.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		issuer:    p.Issuer,
		repo:      p.Repo,
		stubs:     p.Stubs,
		accounts:  p.Accounts,
		relRepo:   p.RelRepo,
		syncer:    p.Syncer,
		inviteTTL: time.Duration(p.Cfg.InviteTTLDays) * 24 * time.Hour,
	}
}

// Generate mints a fresh invitation for one of the guardian's dependent
// stubs. One live invitation per stub: a pending or scanned one blocks a new
// token until it is resolved or expires.
func (s *Service) Generate(ctx context.Context, guardianID, stubID snowflake.ID) (domain.Invitation, error) {
	stub, err := s.stubs.GetForGuardian(ctx, guardianID, stubID)
	if err != nil {
		if errors.Is(err, dependentdomain.ErrNotFound) {
			return domain.Invitation{}, domain.ErrNotFound
		}
		return domain.Invitation{}, err
	}

	active, err := s.repo.FindActiveByStub(ctx, s.db, stub.ID)
	if err != nil {
		return domain.Invitation{}, err
	}
	if active != nil {
		if !s.clock.Now().After(active.ExpiresAt) {
			return domain.Invitation{}, domain.ErrActiveInvitation
		}
		// Lazy expiry: the stale row no longer blocks a new token.
		if err := s.repo.MarkExpired(ctx, s.db, active.ID); err != nil {
			return domain.Invitation{}, err
		}
	}

	rawToken, expiresAt := s.issuer.Issue(s.inviteTTL)
	inv := domain.Invitation{
		ID:              s.genID.Generate(),
		Token:           rawToken,
		GuardianID:      guardianID,
		DependentStubID: stub.ID,
		Status:          domain.StatusPending,
		CreatedAt:       s.clock.Now(),
		ExpiresAt:       expiresAt,
	}

	if err := s.repo.Insert(ctx, s.db, &inv); err != nil {
		return domain.Invitation{}, err
	}

	s.log.Info("invitation generated",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("guardian_id", guardianID.String()),
		zap.Time("expires_at", expiresAt))
	return inv, nil
}

// Scan redeems a token for the scanning user. Preconditions are checked in
// order: existence, expiry, status, self-scan. The claim itself is a CAS so
// two concurrent scanners cannot both bind.
func (s *Service) Scan(ctx context.Context, rawToken string, userID snowflake.ID, meta map[string]any) (domain.ScanResult, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return domain.ScanResult{}, domain.ErrNotFound
	}

	inv, err := s.repo.FindByToken(ctx, s.db, rawToken)
	if err != nil {
		return domain.ScanResult{}, err
	}
	if inv == nil {
		return domain.ScanResult{}, domain.ErrNotFound
	}

	now := s.clock.Now()
	if now.After(inv.ExpiresAt) {
		if err := s.repo.MarkExpired(ctx, s.db, inv.ID); err != nil {
			return domain.ScanResult{}, err
		}
		return domain.ScanResult{}, domain.ErrExpired
	}

	switch inv.Status {
	case domain.StatusPending:
		// claimed below
	case domain.StatusScanned:
		// A repeat scan by the scanner who already holds the claim is
		// answered idempotently while approval is still outstanding.
		if inv.ScannedByID == nil || *inv.ScannedByID != userID || inv.IsApproved {
			return domain.ScanResult{}, &domain.AlreadyProcessedError{Status: inv.Status}
		}
	default:
		return domain.ScanResult{}, &domain.AlreadyProcessedError{Status: inv.Status}
	}

	if inv.GuardianID == userID {
		return domain.ScanResult{}, domain.ErrSelfScan
	}

	if inv.Status == domain.StatusPending {
		claimed, err := s.repo.ClaimScan(ctx, s.db, inv.ID, userID, now, datatypes.JSONMap(meta))
		if err != nil {
			return domain.ScanResult{}, err
		}
		if !claimed {
			// Lost the race. Re-read to tell a benign same-user retry apart
			// from another scanner having claimed first.
			current, err := s.repo.FindByID(ctx, s.db, inv.ID)
			if err != nil {
				return domain.ScanResult{}, err
			}
			if current == nil {
				return domain.ScanResult{}, domain.ErrNotFound
			}
			if current.Status != domain.StatusScanned || current.ScannedByID == nil || *current.ScannedByID != userID {
				return domain.ScanResult{}, &domain.AlreadyProcessedError{Status: current.Status}
			}
		}
	}

	guardianName, err := s.accounts.DisplayName(ctx, inv.GuardianID)
	if err != nil {
		return domain.ScanResult{}, err
	}
	stub, err := s.stubs.Find(ctx, inv.DependentStubID)
	if err != nil {
		return domain.ScanResult{}, err
	}

	s.log.Info("invitation scanned",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("scanned_by", userID.String()))

	return domain.ScanResult{
		InvitationID:  inv.ID,
		Status:        domain.StatusScanned,
		GuardianName:  guardianName,
		DependentName: stub.Name,
		Relation:      stub.Relation,
		Age:           stub.Age,
	}, nil
}

// Approve confirms a scanned invitation and materializes the relationship in
// one transaction. The first approved guardian for a dependent becomes
// primary; later ones are collaborators. Retries return the existing edge.
func (s *Service) Approve(ctx context.Context, invitationID, guardianID snowflake.ID) (domain.ApproveResult, error) {
	inv, err := s.owned(ctx, invitationID, guardianID)
	if err != nil {
		return domain.ApproveResult{}, err
	}

	// Idempotent retry: the relationship this invitation produced (or would
	// produce) already exists.
	if inv.ScannedByID != nil {
		existing, err := s.relRepo.FindByPair(ctx, s.db, guardianID, *inv.ScannedByID)
		if err != nil {
			return domain.ApproveResult{}, err
		}
		if existing != nil {
			if !inv.IsApproved {
				if _, err := s.repo.MarkApproved(ctx, s.db, inv.ID, s.clock.Now()); err != nil {
					return domain.ApproveResult{}, err
				}
			}
			return domain.ApproveResult{Relationship: *existing, AlreadyLinked: true}, nil
		}
	}

	now := s.clock.Now()
	if now.After(inv.ExpiresAt) {
		if err := s.repo.MarkExpired(ctx, s.db, inv.ID); err != nil {
			return domain.ApproveResult{}, err
		}
		return domain.ApproveResult{}, domain.ErrExpired
	}

	if inv.Status != domain.StatusScanned || inv.ScannedByID == nil {
		return domain.ApproveResult{}, domain.ErrInvalidState
	}

	stub, err := s.stubs.Find(ctx, inv.DependentStubID)
	if err != nil {
		if errors.Is(err, dependentdomain.ErrNotFound) {
			return domain.ApproveResult{}, domain.ErrNotFound
		}
		return domain.ApproveResult{}, err
	}

	dependentID := *inv.ScannedByID
	stubID := stub.ID
	rel := relationshipdomain.Relationship{
		ID:              s.genID.Generate(),
		GuardianID:      guardianID,
		DependentID:     dependentID,
		Kind:            stub.Relation,
		DependentStubID: &stubID,
		CreatedAt:       now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		linked, err := s.relRepo.ExistsForDependent(ctx, tx, dependentID)
		if err != nil {
			return err
		}
		rel.LinkRole = relationshipdomain.LinkRolePrimary
		if linked {
			rel.LinkRole = relationshipdomain.LinkRoleCollaborator
		}

		if err := s.relRepo.Insert(ctx, tx, &rel); err != nil {
			if pkgdb.IsDuplicateKeyErr(err) {
				return relationshipdomain.ErrRelationshipExists
			}
			return err
		}

		ok, err := s.repo.MarkApproved(ctx, tx, inv.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidState
		}
		return nil
	})
	if err != nil {
		return domain.ApproveResult{}, err
	}

	s.log.Info("invitation approved",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("relationship_id", rel.ID.String()),
		zap.String("link_role", rel.LinkRole))

	// Best effort: contact sync failure never unwinds the approval.
	if err := s.syncer.OnRelationshipCreated(ctx, rel); err != nil {
		s.log.Warn("emergency contact sync failed",
			zap.String("relationship_id", rel.ID.String()),
			zap.Error(err))
	}

	return domain.ApproveResult{Relationship: rel}, nil
}

// Reject declines a scanned invitation. Terminal; the token cannot be reused.
func (s *Service) Reject(ctx context.Context, invitationID, guardianID snowflake.ID) error {
	inv, err := s.owned(ctx, invitationID, guardianID)
	if err != nil {
		return err
	}

	switch inv.Status {
	case domain.StatusScanned:
		if inv.ScannedByID == nil {
			return domain.ErrInvalidState
		}
	case domain.StatusPending:
		// Rejection needs a scanner to reject.
		return domain.ErrInvalidState
	default:
		return &domain.AlreadyProcessedError{Status: inv.Status}
	}

	ok, err := s.repo.MarkRejected(ctx, s.db, inv.ID)
	if err != nil {
		return err
	}
	if !ok {
		current, err := s.repo.FindByID(ctx, s.db, inv.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		return &domain.AlreadyProcessedError{Status: current.Status}
	}

	s.log.Info("invitation rejected",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("guardian_id", guardianID.String()))
	return nil
}

func (s *Service) GetByToken(ctx context.Context, guardianID snowflake.ID, rawToken string) (*domain.Invitation, error) {
	inv, err := s.repo.FindByToken(ctx, s.db, strings.TrimSpace(rawToken))
	if err != nil {
		return nil, err
	}
	if inv == nil || inv.GuardianID != guardianID {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

func (s *Service) ListPendingApprovals(ctx context.Context, guardianID snowflake.ID) ([]domain.PendingApproval, error) {
	return s.repo.ListScannedByGuardian(ctx, s.db, guardianID)
}

func (s *Service) owned(ctx context.Context, invitationID, guardianID snowflake.ID) (*domain.Invitation, error) {
	inv, err := s.repo.FindByID(ctx, s.db, invitationID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.GuardianID != guardianID {
		return nil, domain.ErrForbidden
	}
	return inv, nil
}
