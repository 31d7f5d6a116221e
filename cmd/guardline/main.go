package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/guardline/guardline/internal/account"
	"github.com/guardline/guardline/internal/clock"
	"github.com/guardline/guardline/internal/collabinvite"
	"github.com/guardline/guardline/internal/config"
	"github.com/guardline/guardline/internal/dependent"
	"github.com/guardline/guardline/internal/emergencycontact"
	"github.com/guardline/guardline/internal/invitation"
	"github.com/guardline/guardline/internal/migration"
	"github.com/guardline/guardline/internal/ratelimit"
	"github.com/guardline/guardline/internal/relationship"
	"github.com/guardline/guardline/internal/server"
	"github.com/guardline/guardline/internal/sweeper"
	"github.com/guardline/guardline/internal/token"
	"github.com/guardline/guardline/pkg/db"
	"github.com/guardline/guardline/pkg/log"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		token.Module,
		ratelimit.Module,

		// Functional domains
		account.Module,
		dependent.Module,
		relationship.Module,
		emergencycontact.Module,
		invitation.Module,
		collabinvite.Module,

		migration.Module,
		sweeper.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
