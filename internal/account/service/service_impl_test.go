package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/guardline/guardline/internal/account/domain"
	accountrepo "github.com/guardline/guardline/internal/account/repository"
	accountservice "github.com/guardline/guardline/internal/account/service"
	"github.com/guardline/guardline/internal/clock"
	"github.com/guardline/guardline/internal/token"
)

func setupAccountService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&domain.Account{}, &domain.Session{}))

	node, err := snowflake.NewNode(21)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	svc := accountservice.New(accountservice.Params{
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  clk,
		Issuer: token.NewIssuer(clk),
		Repo:   accountrepo.Provide(),
	})
	return svc, clk
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupAccountService(t)

	account, err := svc.Register(ctx, domain.RegisterRequest{
		FullName: "Dewi Lestari",
		Email:    "Dewi@Example.com",
		Role:     domain.RoleGuardian,
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "dewi@example.com", account.Email)
	assert.NotEmpty(t, account.ID)

	result, err := svc.Login(ctx, domain.LoginRequest{
		Email:    "dewi@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, account.ID, result.Account.ID)
	assert.NotEmpty(t, result.Token)

	authed, err := svc.Authenticate(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, authed.ID)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupAccountService(t)

	_, err := svc.Register(ctx, domain.RegisterRequest{Email: "a@b.c", Role: domain.RoleChild, Password: "longenough"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Register(ctx, domain.RegisterRequest{FullName: "A", Email: "nope", Role: domain.RoleChild, Password: "longenough"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Register(ctx, domain.RegisterRequest{FullName: "A", Email: "a@b.c", Role: "admin", Password: "longenough"})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	_, err = svc.Register(ctx, domain.RegisterRequest{FullName: "A", Email: "a@b.c", Role: domain.RoleElderly, Password: "short"})
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupAccountService(t)

	_, err := svc.Register(ctx, domain.RegisterRequest{
		FullName: "Dewi",
		Email:    "dewi@example.com",
		Role:     domain.RoleGuardian,
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, domain.RegisterRequest{
		FullName: "Other Dewi",
		Email:    "DEWI@example.com",
		Role:     domain.RoleGuardian,
		Password: "s3cret-pass",
	})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupAccountService(t)

	_, err := svc.Register(ctx, domain.RegisterRequest{
		FullName: "Dewi",
		Email:    "dewi@example.com",
		Role:     domain.RoleGuardian,
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "dewi@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "nobody@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	svc, clk := setupAccountService(t)

	_, err := svc.Register(ctx, domain.RegisterRequest{
		FullName: "Dewi",
		Email:    "dewi@example.com",
		Role:     domain.RoleGuardian,
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	result, err := svc.Login(ctx, domain.LoginRequest{Email: "dewi@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	clk.Advance(31 * 24 * time.Hour)

	_, err = svc.Authenticate(ctx, result.Token)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupAccountService(t)

	_, err := svc.Register(ctx, domain.RegisterRequest{
		FullName: "Dewi",
		Email:    "dewi@example.com",
		Role:     domain.RoleGuardian,
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	result, err := svc.Login(ctx, domain.LoginRequest{Email: "dewi@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, result.Token))

	_, err = svc.Authenticate(ctx, result.Token)
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestDisplayNameFallsBackToEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupAccountService(t)

	account, err := svc.Register(ctx, domain.RegisterRequest{
		FullName: "Dewi",
		Email:    "dewi@example.com",
		Role:     domain.RoleGuardian,
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	name, err := svc.DisplayName(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dewi", name)
}
