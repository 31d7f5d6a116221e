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

	accountdomain "github.com/guardline/guardline/internal/account/domain"
	accountrepo "github.com/guardline/guardline/internal/account/repository"
	accountservice "github.com/guardline/guardline/internal/account/service"
	"github.com/guardline/guardline/internal/clock"
	"github.com/guardline/guardline/internal/collabinvite/domain"
	collabrepo "github.com/guardline/guardline/internal/collabinvite/repository"
	collabservice "github.com/guardline/guardline/internal/collabinvite/service"
	"github.com/guardline/guardline/internal/config"
	contactdomain "github.com/guardline/guardline/internal/emergencycontact/domain"
	contactrepo "github.com/guardline/guardline/internal/emergencycontact/repository"
	contactservice "github.com/guardline/guardline/internal/emergencycontact/service"
	relationshipdomain "github.com/guardline/guardline/internal/relationship/domain"
	relationshiprepo "github.com/guardline/guardline/internal/relationship/repository"
	"github.com/guardline/guardline/internal/token"
)

type collabEnv struct {
	db       *gorm.DB
	node     *snowflake.Node
	clk      *clock.FakeClock
	accounts accountdomain.Service
	contacts contactdomain.Service
	relRepo  relationshipdomain.Repository
	svc      domain.Service
}

func setupCollabEnv(t *testing.T) *collabEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&accountdomain.Account{},
		&accountdomain.Session{},
		&relationshipdomain.Relationship{},
		&domain.CollaboratorInvitation{},
		&contactdomain.EmergencyContact{},
	))

	node, err := snowflake.NewNode(25)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	issuer := token.NewIssuer(clk)
	log := zap.NewNop()

	accountSvc := accountservice.New(accountservice.Params{
		DB:     db,
		Log:    log,
		GenID:  node,
		Clock:  clk,
		Issuer: issuer,
		Repo:   accountrepo.Provide(),
	})
	contactSvc := contactservice.New(contactservice.Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    clk,
		Repo:     contactrepo.Provide(),
		Accounts: accountSvc,
	})

	relRepo := relationshiprepo.Provide()
	svc := collabservice.New(collabservice.Params{
		DB:      db,
		Log:     log,
		GenID:   node,
		Cfg:     config.Config{CollabInviteTTLDays: 7},
		Clock:   clk,
		Issuer:  issuer,
		Repo:    collabrepo.Provide(),
		RelRepo: relRepo,
		Syncer:  contactSvc,
	})

	return &collabEnv{
		db:       db,
		node:     node,
		clk:      clk,
		accounts: accountSvc,
		contacts: contactSvc,
		relRepo:  relRepo,
		svc:      svc,
	}
}

func (e *collabEnv) register(t *testing.T, name, email, role string) accountdomain.Account {
	t.Helper()
	account, err := e.accounts.Register(context.Background(), accountdomain.RegisterRequest{
		FullName: name,
		Email:    email,
		Phone:    "+6282222222222",
		Role:     role,
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	return account
}

func (e *collabEnv) linkPrimary(t *testing.T, guardianID, dependentID snowflake.ID) relationshipdomain.Relationship {
	t.Helper()
	rel := relationshipdomain.Relationship{
		ID:          e.node.Generate(),
		GuardianID:  guardianID,
		DependentID: dependentID,
		Kind:        "daughter",
		LinkRole:    relationshipdomain.LinkRolePrimary,
		CreatedAt:   e.clk.Now(),
	}
	require.NoError(t, e.relRepo.Insert(context.Background(), e.db, &rel))
	return rel
}

func TestCreateAndAcceptCollaboratorInvitation(t *testing.T) {
	ctx := context.Background()
	e := setupCollabEnv(t)

	primary := e.register(t, "Dewi", "dewi@example.com", accountdomain.RoleGuardian)
	collaborator := e.register(t, "Rudi", "rudi@example.com", accountdomain.RoleGuardian)
	child := e.register(t, "Sari", "sari@example.com", accountdomain.RoleChild)
	e.linkPrimary(t, primary.ID, child.ID)

	inv, err := e.svc.Create(ctx, primary.ID, child.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, inv.Status)
	assert.NotEmpty(t, inv.Code)
	assert.Equal(t, e.clk.Now().Add(7*24*time.Hour), inv.ExpiresAt)

	rel, err := e.svc.Accept(ctx, inv.Code, collaborator.ID)
	require.NoError(t, err)
	assert.Equal(t, collaborator.ID, rel.GuardianID)
	assert.Equal(t, child.ID, rel.DependentID)
	assert.Equal(t, relationshipdomain.LinkRoleCollaborator, rel.LinkRole)
	// Kind is inherited from the primary edge.
	assert.Equal(t, "daughter", rel.Kind)

	list, err := e.svc.List(ctx, primary.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.StatusAccepted, list[0].Status)
	require.NotNil(t, list[0].CollaboratorID)
	assert.Equal(t, collaborator.ID, *list[0].CollaboratorID)

	contacts, err := e.contacts.List(ctx, child.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, contactdomain.PriorityCollaborator, contacts[0].Priority)
}

func TestCreateRequiresPrimaryGuardian(t *testing.T) {
	ctx := context.Background()
	e := setupCollabEnv(t)

	primary := e.register(t, "Dewi", "dewi@example.com", accountdomain.RoleGuardian)
	other := e.register(t, "Rudi", "rudi@example.com", accountdomain.RoleGuardian)
	child := e.register(t, "Sari", "sari@example.com", accountdomain.RoleChild)
	unlinked := e.register(t, "Bima", "bima@example.com", accountdomain.RoleChild)
	e.linkPrimary(t, primary.ID, child.ID)

	_, err := e.svc.Create(ctx, other.ID, child.ID)
	assert.ErrorIs(t, err, domain.ErrNotPrimary)

	_, err = e.svc.Create(ctx, primary.ID, unlinked.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateBlocksSecondPendingCode(t *testing.T) {
	ctx := context.Background()
	e := setupCollabEnv(t)

	primary := e.register(t, "Dewi", "dewi@example.com", accountdomain.RoleGuardian)
	child := e.register(t, "Sari", "sari@example.com", accountdomain.RoleChild)
	e.linkPrimary(t, primary.ID, child.ID)

	_, err := e.svc.Create(ctx, primary.ID, child.ID)
	require.NoError(t, err)

	_, err = e.svc.Create(ctx, primary.ID, child.ID)
	assert.ErrorIs(t, err, domain.ErrActivePending)

	// An expired code stops blocking.
	e.clk.Advance(8 * 24 * time.Hour)
	_, err = e.svc.Create(ctx, primary.ID, child.ID)
	require.NoError(t, err)
}

func TestAcceptGuards(t *testing.T) {
	ctx := context.Background()
	e := setupCollabEnv(t)

	primary := e.register(t, "Dewi", "dewi@example.com", accountdomain.RoleGuardian)
	collaborator := e.register(t, "Rudi", "rudi@example.com", accountdomain.RoleGuardian)
	child := e.register(t, "Sari", "sari@example.com", accountdomain.RoleChild)
	e.linkPrimary(t, primary.ID, child.ID)

	inv, err := e.svc.Create(ctx, primary.ID, child.ID)
	require.NoError(t, err)

	_, err = e.svc.Accept(ctx, "bogus-code", collaborator.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The issuing guardian cannot accept their own code.
	_, err = e.svc.Accept(ctx, inv.Code, primary.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = e.svc.Accept(ctx, inv.Code, collaborator.ID)
	require.NoError(t, err)

	// The code is single use.
	_, err = e.svc.Accept(ctx, inv.Code, collaborator.ID)
	assert.ErrorIs(t, err, relationshipdomain.ErrRelationshipExists)
}

func TestAcceptExpiredCode(t *testing.T) {
	ctx := context.Background()
	e := setupCollabEnv(t)

	primary := e.register(t, "Dewi", "dewi@example.com", accountdomain.RoleGuardian)
	collaborator := e.register(t, "Rudi", "rudi@example.com", accountdomain.RoleGuardian)
	child := e.register(t, "Sari", "sari@example.com", accountdomain.RoleChild)
	e.linkPrimary(t, primary.ID, child.ID)

	inv, err := e.svc.Create(ctx, primary.ID, child.ID)
	require.NoError(t, err)

	e.clk.Advance(7*24*time.Hour + time.Hour)

	_, err = e.svc.Accept(ctx, inv.Code, collaborator.ID)
	assert.ErrorIs(t, err, domain.ErrExpired)
}

func TestCancelInvitation(t *testing.T) {
	ctx := context.Background()
	e := setupCollabEnv(t)

	primary := e.register(t, "Dewi", "dewi@example.com", accountdomain.RoleGuardian)
	other := e.register(t, "Rudi", "rudi@example.com", accountdomain.RoleGuardian)
	collaborator := e.register(t, "Tono", "tono@example.com", accountdomain.RoleGuardian)
	child := e.register(t, "Sari", "sari@example.com", accountdomain.RoleChild)
	e.linkPrimary(t, primary.ID, child.ID)

	inv, err := e.svc.Create(ctx, primary.ID, child.ID)
	require.NoError(t, err)

	err = e.svc.Cancel(ctx, inv.ID, other.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, e.svc.Cancel(ctx, inv.ID, primary.ID))

	_, err = e.svc.Accept(ctx, inv.Code, collaborator.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	// Cancelling twice is not a legal transition.
	err = e.svc.Cancel(ctx, inv.ID, primary.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}
