package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	relationshipdomain "github.com/guardline/guardline/internal/relationship/domain"
)

// ScanResult is what the scanning client renders on its confirmation screen.
type ScanResult struct {
	InvitationID  snowflake.ID `json:"invitation_id"`
	Status        string       `json:"status"`
	GuardianName  string       `json:"guardian_name"`
	DependentName string       `json:"dependent_name"`
	Relation      string       `json:"relation"`
	Age           int          `json:"age"`
}

// ApproveResult carries the relationship the approval produced. AlreadyLinked
// is set when the call was an idempotent retry.
type ApproveResult struct {
	Relationship  relationshipdomain.Relationship `json:"relationship"`
	AlreadyLinked bool                            `json:"already_linked"`
}

// PendingApproval is one entry in the guardian's inbox of unconfirmed scans.
type PendingApproval struct {
	InvitationID  snowflake.ID  `json:"invitation_id"`
	StubID        snowflake.ID  `json:"dependent_stub_id"`
	DependentName string        `json:"dependent_name"`
	Relation      string        `json:"relation"`
	Age           int           `json:"age"`
	Status        string        `json:"status"`
	ScannedByID   *snowflake.ID `json:"scanned_by_id,omitempty"`
	ScannedByName string        `json:"scanned_by_name,omitempty"`
	ScannedAt     *time.Time    `json:"scanned_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	ExpiresAt     time.Time     `json:"expires_at"`
}

type Service interface {
	Generate(ctx context.Context, guardianID, stubID snowflake.ID) (Invitation, error)
	Scan(ctx context.Context, rawToken string, userID snowflake.ID, meta map[string]any) (ScanResult, error)
	Approve(ctx context.Context, invitationID, guardianID snowflake.ID) (ApproveResult, error)
	Reject(ctx context.Context, invitationID, guardianID snowflake.ID) error
	GetByToken(ctx context.Context, guardianID snowflake.ID, rawToken string) (*Invitation, error)
	ListPendingApprovals(ctx context.Context, guardianID snowflake.ID) ([]PendingApproval, error)
}

var (
	ErrNotFound         = errors.New("not_found")
	ErrExpired          = errors.New("expired")
	ErrAlreadyProcessed = errors.New("already_processed")
	ErrSelfScan         = errors.New("self_scan_forbidden")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidState     = errors.New("invalid_state")
	ErrActiveInvitation = errors.New("active_invitation_exists")
)

// AlreadyProcessedError reports which status made the transition illegal.
type AlreadyProcessedError struct {
	Status string
}

func (e *AlreadyProcessedError) Error() string {
	return "already_processed: " + e.Status
}

func (e *AlreadyProcessedError) Is(target error) bool {
	return target == ErrAlreadyProcessed
}
