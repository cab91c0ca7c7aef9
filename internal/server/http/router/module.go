package router

import (
	"go.uber.org/fx"

	"github.com/finovel/loanledger/internal/server/http/handlers"
)

// Module registers HTTP router construction for fx runtime.
var Module = fx.Options(
	fx.Provide(handlers.NewDiagnosticsHandler),
	fx.Provide(Setup),
)
