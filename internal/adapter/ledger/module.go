package ledger

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/finovel/loanledger/internal/config"
	"github.com/finovel/loanledger/internal/pkg/cache"
	"github.com/finovel/loanledger/internal/pkg/callqueue"
	"github.com/finovel/loanledger/internal/pkg/failover"
)

// Module assembles the full resilience stack around the contract client:
// cache in front, then the rate-limited queue, then the failover-routed
// JSON-RPC transport.
var Module = fx.Options(
	fx.Provide(
		newQueue,
		newFailoverManager,
		newRPCClient,
		newClient,
	),
	fx.Invoke(registerLifecycle),
)

type queueParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newQueue(p queueParams) *callqueue.Queue {
	return callqueue.New(callqueue.Options{
		MinInterval: p.Config.MinCallInterval,
		MaxRetries:  p.Config.MaxCallRetries,
		BaseDelay:   p.Config.RetryBaseDelay,
		MaxDelay:    p.Config.MaxRetryDelay,
	}, p.Logger)
}

func newFailoverManager(p queueParams) (*failover.Manager, error) {
	return failover.New(p.Config.ProviderURLs(), p.Config.ProviderCooldown, p.Logger)
}

func newRPCClient(providers *failover.Manager, logger *slog.Logger) *RPCClient {
	return NewRPCClient(providers, logger)
}

type clientParams struct {
	fx.In

	RPC    *RPCClient
	Queue  *callqueue.Queue
	Cache  cache.Cache
	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) Client {
	resilient := NewResilient(p.RPC, p.Queue)
	return NewCached(resilient, p.Cache, p.Config.CacheTTL, p.Logger)
}

type lifecycleParams struct {
	fx.In

	Ctx       context.Context
	Lifecycle fx.Lifecycle
	Queue     *callqueue.Queue
	Providers *failover.Manager
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			p.Providers.Start(p.Ctx)
			p.Queue.Start(p.Ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			p.Queue.Stop()
			p.Providers.Stop()
			return nil
		},
	})
}
