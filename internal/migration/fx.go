package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	accountdomain "github.com/guardline/guardline/internal/account/domain"
	collabdomain "github.com/guardline/guardline/internal/collabinvite/domain"
	"github.com/guardline/guardline/internal/config"
	dependentdomain "github.com/guardline/guardline/internal/dependent/domain"
	contactdomain "github.com/guardline/guardline/internal/emergencycontact/domain"
	invitationdomain "github.com/guardline/guardline/internal/invitation/domain"
	relationshipdomain "github.com/guardline/guardline/internal/relationship/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// sqlite is for local development; let gorm derive the schema.
			return conn.AutoMigrate(
				&accountdomain.Account{},
				&accountdomain.Session{},
				&dependentdomain.DependentStub{},
				&invitationdomain.Invitation{},
				&relationshipdomain.Relationship{},
				&collabdomain.CollaboratorInvitation{},
				&contactdomain.EmergencyContact{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
