package sweeper_test

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

	"github.com/guardline/guardline/internal/clock"
	collabdomain "github.com/guardline/guardline/internal/collabinvite/domain"
	"github.com/guardline/guardline/internal/config"
	invitationdomain "github.com/guardline/guardline/internal/invitation/domain"
	"github.com/guardline/guardline/internal/sweeper"
)

func TestRunOnceExpiresOverdueInvitations(t *testing.T) {
	ctx := context.Background()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&invitationdomain.Invitation{}, &collabdomain.CollaboratorInvitation{}))

	node, err := snowflake.NewNode(26)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC))
	sw := sweeper.New(sweeper.Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clk,
		Cfg:   config.Config{SweepIntervalMinutes: 60},
	})

	overdue := invitationdomain.Invitation{
		ID:              node.Generate(),
		Token:           "overdue",
		GuardianID:      node.Generate(),
		DependentStubID: node.Generate(),
		Status:          invitationdomain.StatusPending,
		CreatedAt:       clk.Now().Add(-96 * time.Hour),
		ExpiresAt:       clk.Now().Add(-24 * time.Hour),
	}
	live := invitationdomain.Invitation{
		ID:              node.Generate(),
		Token:           "live",
		GuardianID:      node.Generate(),
		DependentStubID: node.Generate(),
		Status:          invitationdomain.StatusScanned,
		CreatedAt:       clk.Now(),
		ExpiresAt:       clk.Now().Add(24 * time.Hour),
	}
	approved := invitationdomain.Invitation{
		ID:              node.Generate(),
		Token:           "approved",
		GuardianID:      node.Generate(),
		DependentStubID: node.Generate(),
		Status:          invitationdomain.StatusApproved,
		IsApproved:      true,
		CreatedAt:       clk.Now().Add(-96 * time.Hour),
		ExpiresAt:       clk.Now().Add(-24 * time.Hour),
	}
	require.NoError(t, db.Create(&overdue).Error)
	require.NoError(t, db.Create(&live).Error)
	require.NoError(t, db.Create(&approved).Error)

	staleCode := collabdomain.CollaboratorInvitation{
		ID:                node.Generate(),
		PrimaryGuardianID: node.Generate(),
		DependentID:       node.Generate(),
		Code:              "stale",
		Status:            collabdomain.StatusPending,
		CreatedAt:         clk.Now().Add(-10 * 24 * time.Hour),
		ExpiresAt:         clk.Now().Add(-3 * 24 * time.Hour),
	}
	require.NoError(t, db.Create(&staleCode).Error)

	require.NoError(t, sw.RunOnce(ctx))

	status := func(table string, id snowflake.ID) string {
		var s string
		require.NoError(t, db.Raw(fmt.Sprintf("SELECT status FROM %s WHERE id = ?", table), id).Scan(&s).Error)
		return s
	}

	assert.Equal(t, invitationdomain.StatusExpired, status("qr_invitations", overdue.ID))
	assert.Equal(t, invitationdomain.StatusScanned, status("qr_invitations", live.ID))
	// Terminal rows are left alone.
	assert.Equal(t, invitationdomain.StatusApproved, status("qr_invitations", approved.ID))
	assert.Equal(t, collabdomain.StatusExpired, status("collaborator_invitations", staleCode.ID))
}
