package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// DependentLink is a guardian's view of one linked dependent.
type DependentLink struct {
	RelationshipID snowflake.ID `json:"relationship_id"`
	DependentID    snowflake.ID `json:"dependent_id"`
	DependentName  string       `json:"dependent_name"`
	DependentEmail string       `json:"dependent_email"`
	Kind           string       `json:"kind"`
	LinkRole       string       `json:"link_role"`
	Age            *int         `json:"age,omitempty"`
	LinkedAt       time.Time    `json:"linked_at"`
}

// GuardianLink is a dependent's view of one linked guardian.
type GuardianLink struct {
	RelationshipID snowflake.ID `json:"relationship_id"`
	GuardianID     snowflake.ID `json:"guardian_id"`
	GuardianName   string       `json:"guardian_name"`
	GuardianEmail  string       `json:"guardian_email"`
	Kind           string       `json:"kind"`
	LinkRole       string       `json:"link_role"`
	LinkedAt       time.Time    `json:"linked_at"`
}

type Service interface {
	ListForGuardian(ctx context.Context, guardianID snowflake.ID) ([]DependentLink, error)
	ListForDependent(ctx context.Context, dependentID snowflake.ID) ([]GuardianLink, error)
	Exists(ctx context.Context, guardianID, dependentID snowflake.ID) (bool, error)
	GetPrimary(ctx context.Context, dependentID snowflake.ID) (*Relationship, error)
	Revoke(ctx context.Context, requesterID, relationshipID snowflake.ID) error
}

var (
	ErrNotFound           = errors.New("not_found")
	ErrForbidden          = errors.New("forbidden")
	ErrRelationshipExists = errors.New("relationship_exists")
)
