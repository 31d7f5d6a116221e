package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/guardline/guardline/internal/account/domain"
	"github.com/guardline/guardline/internal/clock"
	"github.com/guardline/guardline/internal/token"
	pkgdb "github.com/guardline/guardline/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const sessionTTL = 30 * 24 * time.Hour

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Issuer *token.Issuer
	Repo   domain.Repository
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	issuer *token.Issuer
	repo   domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("account.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		issuer: p.Issuer,
		repo:   p.Repo,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (domain.Account, error) {
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return domain.Account{}, domain.ErrInvalidName
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.Account{}, domain.ErrInvalidEmail
	}

	role := strings.TrimSpace(req.Role)
	if role != domain.RoleGuardian && !domain.IsDependentRole(role) {
		return domain.Account{}, domain.ErrInvalidRole
	}

	if len(req.Password) < 8 {
		return domain.Account{}, domain.ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Account{}, err
	}

	account := domain.Account{
		ID:           s.genID.Generate(),
		FullName:     name,
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	}

	if err := s.repo.Insert(ctx, s.db, &account); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return domain.Account{}, domain.ErrEmailTaken
		}
		return domain.Account{}, err
	}

	s.log.Info("account registered",
		zap.String("user_id", account.ID.String()),
		zap.String("role", account.Role))
	return account, nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return domain.LoginResult{}, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return domain.LoginResult{}, err
	}
	if account == nil {
		return domain.LoginResult{}, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return domain.LoginResult{}, domain.ErrInvalidCredentials
	}

	rawToken, expiresAt := s.issuer.Issue(sessionTTL)
	session := domain.Session{
		ID:        s.genID.Generate(),
		UserID:    account.ID,
		Token:     rawToken,
		CreatedAt: s.clock.Now(),
		ExpiresAt: expiresAt,
	}

	if err := s.repo.InsertSession(ctx, s.db, &session); err != nil {
		return domain.LoginResult{}, err
	}

	return domain.LoginResult{Account: *account, Token: rawToken}, nil
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.Account, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, domain.ErrInvalidSession
	}

	session, err := s.repo.FindSessionByToken(ctx, s.db, rawToken)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrInvalidSession
	}
	if s.clock.Now().After(session.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}

	account, err := s.repo.FindByID(ctx, s.db, session.UserID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrInvalidSession
	}
	return account, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil
	}
	return s.repo.DeleteSession(ctx, s.db, rawToken)
}

func (s *Service) Get(ctx context.Context, userID snowflake.ID) (*domain.Account, error) {
	account, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrNotFound
	}
	return account, nil
}

func (s *Service) DisplayName(ctx context.Context, userID snowflake.ID) (string, error) {
	account, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if account.FullName != "" {
		return account.FullName, nil
	}
	// Fall back to the email local part, same as the mobile clients do.
	if at := strings.Index(account.Email, "@"); at > 0 {
		return account.Email[:at], nil
	}
	return account.Email, nil
}

func (s *Service) Exists(ctx context.Context, userID snowflake.ID) (bool, error) {
	account, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return false, err
	}
	return account != nil, nil
}
