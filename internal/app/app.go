package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/finovel/loanledger/internal/adapter/ledger"
	"github.com/finovel/loanledger/internal/config"
	"github.com/finovel/loanledger/internal/domain/repository"
	"github.com/finovel/loanledger/internal/usecase"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewLendingFacade,
		newOrchestrator,
		newHTTPServer,
	),
	fx.Invoke(registerLifecycle),
)

type orchestratorParams struct {
	fx.In

	Loans        repository.LoanRepository
	Users        repository.UserRepository
	Events       repository.EventRepository
	Lifecycle    *usecase.LoanUseCase
	Underwriting *usecase.UnderwritingEngine
	Ledger       ledger.Client
	Config       *config.Config
	Logger       *slog.Logger
}

func newOrchestrator(p orchestratorParams) *Orchestrator {
	return NewOrchestrator(
		p.Loans,
		p.Users,
		p.Events,
		p.Lifecycle,
		p.Underwriting,
		p.Ledger,
		p.Config.EngineAddress,
		p.Logger,
	)
}

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting loanledger", slog.String("addr", p.Server.Addr))
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("loanledger stopped")
			return nil
		},
	})
}
