package sweeper

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/guardline/guardline/internal/clock"
	collabdomain "github.com/guardline/guardline/internal/collabinvite/domain"
	"github.com/guardline/guardline/internal/config"
	invitationdomain "github.com/guardline/guardline/internal/invitation/domain"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Cfg   config.Config
}

// Sweeper moves overdue invitations to expired in the background. Expiry is
// also applied lazily on access, so the sweeper only keeps listings and
// storage tidy; correctness does not depend on it running.
type Sweeper struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	interval time.Duration
}

func New(p Params) *Sweeper {
	return &Sweeper{
		db:       p.DB,
		log:      p.Log.Named("sweeper"),
		clock:    p.Clock,
		interval: time.Duration(p.Cfg.SweepIntervalMinutes) * time.Minute,
	}
}

// RunOnce expires every invitation whose deadline has passed.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	now := s.clock.Now()

	qr := s.db.WithContext(ctx).
		Model(&invitationdomain.Invitation{}).
		Where("status IN ? AND expires_at < ?",
			[]string{invitationdomain.StatusPending, invitationdomain.StatusScanned}, now).
		Update("status", invitationdomain.StatusExpired)
	if qr.Error != nil {
		return qr.Error
	}

	collab := s.db.WithContext(ctx).
		Model(&collabdomain.CollaboratorInvitation{}).
		Where("status = ? AND expires_at < ?", collabdomain.StatusPending, now).
		Update("status", collabdomain.StatusExpired)
	if collab.Error != nil {
		return collab.Error
	}

	if qr.RowsAffected > 0 || collab.RowsAffected > 0 {
		s.log.Info("expired stale invitations",
			zap.Int64("qr_invitations", qr.RowsAffected),
			zap.Int64("collaborator_invitations", collab.RowsAffected))
	}
	return nil
}

func (s *Sweeper) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
