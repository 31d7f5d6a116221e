package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateStubRequest struct {
	Name     string `json:"name"`
	Relation string `json:"relation"`
	Age      int    `json:"age"`
}

// StubWithInvitation is the guardian's list view: the stub plus the state of
// its active QR invitation, if any. The raw token is exposed only while the
// invitation is still pending so the client can render the QR.
type StubWithInvitation struct {
	DependentStub
	HasInvitation    bool       `json:"has_invitation"`
	InvitationStatus string     `json:"invitation_status,omitempty"`
	InvitationToken  string     `json:"invitation_token,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

type Service interface {
	Create(ctx context.Context, guardianID snowflake.ID, req CreateStubRequest) (DependentStub, error)
	List(ctx context.Context, guardianID snowflake.ID) ([]StubWithInvitation, error)
	GetForGuardian(ctx context.Context, guardianID, stubID snowflake.ID) (*DependentStub, error)
	Find(ctx context.Context, stubID snowflake.ID) (*DependentStub, error)
	Delete(ctx context.Context, guardianID, stubID snowflake.ID) error
}

var (
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidRelation = errors.New("invalid_relation")
	ErrInvalidAge      = errors.New("invalid_age")
	ErrNotFound        = errors.New("not_found")
	// ErrApprovedInvitation guards deletion: once an invitation for the stub
	// was approved the relationship owns the stub's history.
	ErrApprovedInvitation = errors.New("approved_invitation_exists")
)
