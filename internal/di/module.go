package di

import (
	"go.uber.org/fx"

	"github.com/finovel/loanledger/internal/adapter/ledger"
	"github.com/finovel/loanledger/internal/app"
	"github.com/finovel/loanledger/internal/config"
	"github.com/finovel/loanledger/internal/logger"
	"github.com/finovel/loanledger/internal/pkg/cache"
	"github.com/finovel/loanledger/internal/pkg/callqueue"
	"github.com/finovel/loanledger/internal/pkg/failover"
	"github.com/finovel/loanledger/internal/server/http/handlers"
	"github.com/finovel/loanledger/internal/server/http/router"
	"github.com/finovel/loanledger/internal/storage/postgres"
	"github.com/finovel/loanledger/internal/usecase"
	"github.com/finovel/loanledger/internal/worker"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		postgres.Module,
		cache.Module,
		ledger.Module,
		usecase.Module,
		router.Module,
		app.Module,
		worker.Module,
		fx.Provide(
			func(f *app.LendingFacade) handlers.LendingFacade { return f },
			func(s *worker.Settler) handlers.SettlementTrigger { return s },
			func(q *callqueue.Queue) handlers.QueueStats { return q },
			func(m *failover.Manager) handlers.ProviderDirectory { return m },
			func(s *postgres.Storage) handlers.HealthChecker { return s },
		),
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
