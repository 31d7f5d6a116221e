package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type RegisterRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Account Account
	Token   string
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (Account, error)
	Login(ctx context.Context, req LoginRequest) (LoginResult, error)
	Authenticate(ctx context.Context, rawToken string) (*Account, error)
	Logout(ctx context.Context, rawToken string) error
	Get(ctx context.Context, userID snowflake.ID) (*Account, error)
	DisplayName(ctx context.Context, userID snowflake.ID) (string, error)
	Exists(ctx context.Context, userID snowflake.ID) (bool, error)
}

var (
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidPhone       = errors.New("invalid_phone")
	ErrInvalidRole        = errors.New("invalid_role")
	ErrInvalidPassword    = errors.New("invalid_password")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidSession     = errors.New("invalid_session")
	ErrSessionExpired     = errors.New("session_expired")
	ErrNotFound           = errors.New("not_found")
)
