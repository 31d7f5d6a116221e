package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/guardline/guardline/internal/account/domain"
	"github.com/guardline/guardline/internal/clock"
	"github.com/guardline/guardline/internal/emergencycontact/domain"
	relationshipdomain "github.com/guardline/guardline/internal/relationship/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Accounts accountdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	accounts accountdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("emergencycontact.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		accounts: p.Accounts,
	}
}

func (s *Service) List(ctx context.Context, userID snowflake.ID) ([]domain.EmergencyContact, error) {
	return s.repo.ListByUser(ctx, s.db, userID)
}

func (s *Service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateContactRequest) (domain.EmergencyContact, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.EmergencyContact{}, domain.ErrInvalidName
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return domain.EmergencyContact{}, domain.ErrInvalidPhone
	}

	priority := req.Priority
	if priority <= 0 {
		priority = domain.PriorityDefault
	}

	now := s.clock.Now()
	contact := domain.EmergencyContact{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Name:      name,
		Phone:     phone,
		Email:     strings.TrimSpace(req.Email),
		Label:     strings.TrimSpace(req.Label),
		Priority:  priority,
		IsActive:  true,
		Source:    domain.SourceManual,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &contact); err != nil {
		return domain.EmergencyContact{}, err
	}
	return contact, nil
}

func (s *Service) Update(ctx context.Context, userID, contactID snowflake.ID, req domain.UpdateContactRequest) (domain.EmergencyContact, error) {
	contact, err := s.ownedContact(ctx, userID, contactID)
	if err != nil {
		return domain.EmergencyContact{}, err
	}
	if contact.Source == domain.SourceAutoGuardian {
		return domain.EmergencyContact{}, domain.ErrAutoManaged
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.EmergencyContact{}, domain.ErrInvalidName
		}
		contact.Name = name
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			return domain.EmergencyContact{}, domain.ErrInvalidPhone
		}
		contact.Phone = phone
	}
	if req.Email != nil {
		contact.Email = strings.TrimSpace(*req.Email)
	}
	if req.Label != nil {
		contact.Label = strings.TrimSpace(*req.Label)
	}
	if req.Priority != nil && *req.Priority > 0 {
		contact.Priority = *req.Priority
	}
	if req.IsActive != nil {
		contact.IsActive = *req.IsActive
	}
	contact.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, contact); err != nil {
		return domain.EmergencyContact{}, err
	}
	return *contact, nil
}

func (s *Service) Delete(ctx context.Context, userID, contactID snowflake.ID) error {
	contact, err := s.ownedContact(ctx, userID, contactID)
	if err != nil {
		return err
	}
	if contact.Source == domain.SourceAutoGuardian {
		return domain.ErrAutoManaged
	}
	return s.repo.Delete(ctx, s.db, contact.ID)
}

// OnRelationshipCreated upserts the dependent's auto contact for the guardian
// edge. Priority and label follow the link role.
func (s *Service) OnRelationshipCreated(ctx context.Context, rel relationshipdomain.Relationship) error {
	guardian, err := s.accounts.Get(ctx, rel.GuardianID)
	if err != nil {
		return err
	}

	name := guardian.FullName
	if name == "" {
		name = guardian.Email
	}
	phone := guardian.Phone
	if phone == "" {
		phone = "+0000000000"
	}

	label := "Collaborator Guardian"
	priority := domain.PriorityCollaborator
	if rel.LinkRole == relationshipdomain.LinkRolePrimary {
		label = "Primary Guardian"
		priority = domain.PriorityPrimary
	}

	relID := rel.ID
	now := s.clock.Now()

	existing, err := s.repo.FindAutoByRelationship(ctx, s.db, rel.DependentID, rel.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		existing.Name = name
		existing.Phone = phone
		existing.Email = guardian.Email
		existing.Label = label
		existing.Priority = priority
		existing.IsActive = true
		existing.UpdatedAt = now
		return s.repo.Update(ctx, s.db, existing)
	}

	contact := domain.EmergencyContact{
		ID:             s.genID.Generate(),
		UserID:         rel.DependentID,
		Name:           name,
		Phone:          phone,
		Email:          guardian.Email,
		Label:          label,
		Priority:       priority,
		IsActive:       true,
		Source:         domain.SourceAutoGuardian,
		RelationshipID: &relID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return s.repo.Insert(ctx, s.db, &contact)
}

// OnRelationshipRevoked removes the auto contact that mirrored the edge.
func (s *Service) OnRelationshipRevoked(ctx context.Context, rel relationshipdomain.Relationship) error {
	return s.repo.DeleteAutoByRelationship(ctx, s.db, rel.DependentID, rel.ID)
}

func (s *Service) ownedContact(ctx context.Context, userID, contactID snowflake.ID) (*domain.EmergencyContact, error) {
	contact, err := s.repo.FindByID(ctx, s.db, contactID)
	if err != nil {
		return nil, err
	}
	if contact == nil || contact.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return contact, nil
}
