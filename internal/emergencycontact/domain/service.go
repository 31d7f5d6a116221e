package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	relationshipdomain "github.com/guardline/guardline/internal/relationship/domain"
)

type CreateContactRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Label    string `json:"relationship"`
	Priority int    `json:"priority"`
}

type UpdateContactRequest struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	Label    *string `json:"relationship"`
	Priority *int    `json:"priority"`
	IsActive *bool   `json:"is_active"`
}

// Syncer keeps a dependent's call list in step with guardian relationships.
// Callers treat it as best effort: a failure is logged, never propagated into
// the transaction that created or revoked the edge.
type Syncer interface {
	OnRelationshipCreated(ctx context.Context, rel relationshipdomain.Relationship) error
	OnRelationshipRevoked(ctx context.Context, rel relationshipdomain.Relationship) error
}

type Service interface {
	Syncer

	List(ctx context.Context, userID snowflake.ID) ([]EmergencyContact, error)
	Create(ctx context.Context, userID snowflake.ID, req CreateContactRequest) (EmergencyContact, error)
	Update(ctx context.Context, userID, contactID snowflake.ID, req UpdateContactRequest) (EmergencyContact, error)
	Delete(ctx context.Context, userID, contactID snowflake.ID) error
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidPhone = errors.New("invalid_phone")
	ErrNotFound     = errors.New("not_found")
	// ErrAutoManaged rejects manual edits of auto_guardian contacts; they
	// follow the relationship lifecycle instead.
	ErrAutoManaged = errors.New("auto_managed_contact")
)
