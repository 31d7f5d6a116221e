package sweeper

import (
	"context"

	"go.uber.org/fx"

	"github.com/guardline/guardline/internal/config"
)

var Module = fx.Module("sweeper",
	fx.Provide(New),
	fx.Invoke(Start),
)

func Start(lc fx.Lifecycle, cfg config.Config, s *Sweeper) {
	if cfg.SweepIntervalMinutes <= 0 {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go s.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
