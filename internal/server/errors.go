package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	accountdomain "github.com/guardline/guardline/internal/account/domain"
	collabdomain "github.com/guardline/guardline/internal/collabinvite/domain"
	dependentdomain "github.com/guardline/guardline/internal/dependent/domain"
	contactdomain "github.com/guardline/guardline/internal/emergencycontact/domain"
	invitationdomain "github.com/guardline/guardline/internal/invitation/domain"
	relationshipdomain "github.com/guardline/guardline/internal/relationship/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not_found")
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrTooManyRequests = errors.New("too_many_requests")
	ErrInternal        = errors.New("internal_error")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, accountdomain.ErrInvalidCredentials),
		errors.Is(err, accountdomain.ErrInvalidSession),
		errors.Is(err, accountdomain.ErrSessionExpired):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, invitationdomain.ErrSelfScan):
		return http.StatusForbidden, errorPayload{
			Type:    "self_scan_forbidden",
			Message: "guardians cannot scan their own invitation",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, invitationdomain.ErrForbidden),
		errors.Is(err, relationshipdomain.ErrForbidden),
		errors.Is(err, collabdomain.ErrForbidden),
		errors.Is(err, collabdomain.ErrNotPrimary):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, invitationdomain.ErrExpired),
		errors.Is(err, collabdomain.ErrExpired):
		return http.StatusGone, errorPayload{
			Type:    "expired",
			Message: "invitation expired",
		}
	case errors.Is(err, invitationdomain.ErrAlreadyProcessed):
		return http.StatusConflict, errorPayload{
			Type:    "already_processed",
			Message: err.Error(),
		}
	case errors.Is(err, invitationdomain.ErrInvalidState),
		errors.Is(err, collabdomain.ErrInvalidState):
		return http.StatusConflict, errorPayload{
			Type:    "invalid_state",
			Message: "invitation is not in a state that allows this transition",
		}
	case errors.Is(err, invitationdomain.ErrActiveInvitation),
		errors.Is(err, collabdomain.ErrActivePending):
		return http.StatusConflict, errorPayload{
			Type:    "active_invitation_exists",
			Message: "an active invitation already exists",
		}
	case errors.Is(err, relationshipdomain.ErrRelationshipExists):
		return http.StatusConflict, errorPayload{
			Type:    "relationship_exists",
			Message: "relationship already exists",
		}
	case errors.Is(err, accountdomain.ErrEmailTaken):
		return http.StatusConflict, errorPayload{
			Type:    "email_taken",
			Message: "email already registered",
		}
	case errors.Is(err, dependentdomain.ErrApprovedInvitation):
		return http.StatusConflict, errorPayload{
			Type:    "approved_invitation_exists",
			Message: "dependent has an approved invitation",
		}
	case errors.Is(err, contactdomain.ErrAutoManaged):
		return http.StatusConflict, errorPayload{
			Type:    "auto_managed_contact",
			Message: "contact is managed automatically",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "too many requests",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isAccountValidationError(err),
		isDependentValidationError(err),
		isContactValidationError(err):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, accountdomain.ErrNotFound),
		errors.Is(err, dependentdomain.ErrNotFound),
		errors.Is(err, invitationdomain.ErrNotFound),
		errors.Is(err, relationshipdomain.ErrNotFound),
		errors.Is(err, collabdomain.ErrNotFound),
		errors.Is(err, contactdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}
