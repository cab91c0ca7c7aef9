package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/finovel/loanledger/internal/config"
	"github.com/finovel/loanledger/internal/server/http/handlers"
	"github.com/finovel/loanledger/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(
	facade handlers.LendingFacade,
	trigger handlers.SettlementTrigger,
	diagnostics *handlers.DiagnosticsHandler,
	cfg *config.Config,
	logger *slog.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	loanHandler := handlers.NewLoanHandler(facade, trigger)
	borrowerHandler := handlers.NewBorrowerHandler(facade, facade)
	treasuryHandler := handlers.NewTreasuryHandler(facade)

	adminOnly := middleware.AdminRequired(cfg.AdminKeyHash)

	api := engine.Group("/api")

	loans := api.Group("/loans")
	loans.POST("", loanHandler.Request)
	loans.GET("/:id", loanHandler.Get)
	loans.POST("/:id/repayments", loanHandler.Repay)
	loans.POST("/:id/cancel", adminOnly, loanHandler.Cancel)
	loans.POST("/:id/default", adminOnly, loanHandler.Default)

	borrowers := api.Group("/borrowers/:address")
	borrowers.GET("/eligibility", borrowerHandler.Eligibility)
	borrowers.GET("/recommended", borrowerHandler.Recommended)
	borrowers.GET("/loans", borrowerHandler.Loans)
	borrowers.GET("/events", borrowerHandler.Events)

	treasury := api.Group("/treasury")
	treasury.GET("", treasuryHandler.Summary)
	treasury.POST("/deposits", adminOnly, treasuryHandler.Deposit)
	treasury.POST("/withdrawals", adminOnly, treasuryHandler.Withdraw)

	api.GET("/diagnostics", diagnostics.Diagnostics)

	return engine
}
