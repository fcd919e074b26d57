package session

import (
	"context"

	"github.com/smallbiznis/catalogadmin/internal/clock"
	"github.com/smallbiznis/catalogadmin/internal/config"
	"github.com/smallbiznis/catalogadmin/internal/observability/metrics"
	"github.com/smallbiznis/catalogadmin/internal/product/domain"
	"github.com/smallbiznis/catalogadmin/internal/product/form"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("session",
	fx.Provide(NewManager),
	fx.Provide(NewRegistry),
	fx.Invoke(runSweeper),
)

type Params struct {
	fx.In

	Config     config.Config
	Options    *config.OptionsHolder
	Repository domain.Repository
	Log        *zap.Logger
	Clock      clock.Clock
	Metrics    *metrics.Metrics `optional:"true"`
	OnSubmit   form.SubmitHook  `optional:"true"`
}

func NewRegistry(p Params) *Registry {
	return New(Deps{
		Repository:      p.Repository,
		Log:             p.Log,
		Metrics:         p.Metrics,
		Clock:           p.Clock,
		TTL:             p.Config.ViewSessionTTL,
		SubmitDelay:     p.Config.SubmitDelay,
		PageSizes:       func() []int { return p.Options.Get().PageSizes },
		DefaultPageSize: func() int { return p.Options.Get().DefaultPageSize },
		OnSubmit:        p.OnSubmit,
	})
}

func runSweeper(lc fx.Lifecycle, registry *Registry) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go registry.RunForever(ctx)

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
