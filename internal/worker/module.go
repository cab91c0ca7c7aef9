package worker

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/finovel/loanledger/internal/app"
	"github.com/finovel/loanledger/internal/config"
)

// Module wires the settlement worker into the fx runtime.
var Module = fx.Options(
	fx.Provide(newSettler),
	fx.Invoke(registerLifecycle),
)

type settlerParams struct {
	fx.In

	Facade *app.LendingFacade
	Config *config.Config
	Logger *slog.Logger
}

func newSettler(p settlerParams) *Settler {
	return NewSettler(p.Facade, p.Config.SettlementWorkers, p.Config.ReconcileInterval, p.Logger)
}

type lifecycleParams struct {
	fx.In

	Ctx       context.Context
	Lifecycle fx.Lifecycle
	Settler   *Settler
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			p.Settler.Start(p.Ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			p.Settler.Stop()
			return nil
		},
	})
}
