package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	relationshipdomain "github.com/guardline/guardline/internal/relationship/domain"
)

type Service interface {
	Create(ctx context.Context, guardianID, dependentID snowflake.ID) (CollaboratorInvitation, error)
	Accept(ctx context.Context, code string, guardianID snowflake.ID) (relationshipdomain.Relationship, error)
	Cancel(ctx context.Context, invitationID, guardianID snowflake.ID) error
	List(ctx context.Context, guardianID snowflake.ID) ([]CollaboratorInvitation, error)
}

var (
	ErrNotFound      = errors.New("not_found")
	ErrExpired       = errors.New("expired")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidState  = errors.New("invalid_state")
	ErrNotPrimary    = errors.New("not_primary_guardian")
	ErrActivePending = errors.New("active_invitation_exists")
)
