package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/guardline/guardline/internal/clock"
	"github.com/guardline/guardline/internal/dependent/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("dependent.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, guardianID snowflake.ID, req domain.CreateStubRequest) (domain.DependentStub, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.DependentStub{}, domain.ErrInvalidName
	}

	relation := strings.TrimSpace(req.Relation)
	if relation == "" {
		return domain.DependentStub{}, domain.ErrInvalidRelation
	}

	if req.Age < 0 || req.Age > 150 {
		return domain.DependentStub{}, domain.ErrInvalidAge
	}

	stub := domain.DependentStub{
		ID:         s.genID.Generate(),
		GuardianID: guardianID,
		Name:       name,
		Relation:   relation,
		Age:        req.Age,
		CreatedAt:  s.clock.Now(),
	}

	if err := s.repo.Insert(ctx, s.db, &stub); err != nil {
		return domain.DependentStub{}, err
	}

	return stub, nil
}

func (s *Service) List(ctx context.Context, guardianID snowflake.ID) ([]domain.StubWithInvitation, error) {
	stubs, err := s.repo.ListByGuardian(ctx, s.db, guardianID)
	if err != nil {
		return nil, err
	}
	if len(stubs) == 0 {
		return []domain.StubWithInvitation{}, nil
	}

	ids := make([]snowflake.ID, 0, len(stubs))
	for _, stub := range stubs {
		ids = append(ids, stub.ID)
	}

	invitations, err := s.repo.ActiveInvitations(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	byStub := make(map[snowflake.ID]domain.InvitationSummary, len(invitations))
	for _, inv := range invitations {
		byStub[inv.StubID] = inv
	}

	result := make([]domain.StubWithInvitation, 0, len(stubs))
	for _, stub := range stubs {
		item := domain.StubWithInvitation{DependentStub: stub}
		if inv, ok := byStub[stub.ID]; ok {
			item.HasInvitation = true
			item.InvitationStatus = inv.Status
			expiresAt := inv.ExpiresAt
			item.ExpiresAt = &expiresAt
			if inv.Status == "pending" {
				item.InvitationToken = inv.Token
			}
		}
		result = append(result, item)
	}
	return result, nil
}

func (s *Service) GetForGuardian(ctx context.Context, guardianID, stubID snowflake.ID) (*domain.DependentStub, error) {
	stub, err := s.repo.FindByID(ctx, s.db, stubID)
	if err != nil {
		return nil, err
	}
	if stub == nil || stub.GuardianID != guardianID {
		return nil, domain.ErrNotFound
	}
	return stub, nil
}

func (s *Service) Find(ctx context.Context, stubID snowflake.ID) (*domain.DependentStub, error) {
	stub, err := s.repo.FindByID(ctx, s.db, stubID)
	if err != nil {
		return nil, err
	}
	if stub == nil {
		return nil, domain.ErrNotFound
	}
	return stub, nil
}

func (s *Service) Delete(ctx context.Context, guardianID, stubID snowflake.ID) error {
	stub, err := s.GetForGuardian(ctx, guardianID, stubID)
	if err != nil {
		return err
	}

	approved, err := s.repo.HasApprovedInvitation(ctx, s.db, stub.ID)
	if err != nil {
		return err
	}
	if approved {
		return domain.ErrApprovedInvitation
	}

	if err := s.repo.DeleteWithInvitations(ctx, s.db, stub.ID); err != nil {
		return err
	}

	s.log.Info("dependent stub deleted",
		zap.String("stub_id", stub.ID.String()),
		zap.String("guardian_id", guardianID.String()))
	return nil
}
