package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finovel/loanledger/internal/server/http/dto"
)

// QueueStats reports the depth of the ledger call queue.
type QueueStats interface {
	Len() int
}

// ProviderDirectory lists configured RPC providers with credentials masked.
type ProviderDirectory interface {
	Redacted() []string
}

// HealthChecker verifies a dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// DiagnosticsHandler exposes runtime health of the ledger call path.
type DiagnosticsHandler struct {
	queue     QueueStats
	providers ProviderDirectory
	database  HealthChecker
}

// NewDiagnosticsHandler constructs DiagnosticsHandler.
func NewDiagnosticsHandler(queue QueueStats, providers ProviderDirectory, database HealthChecker) *DiagnosticsHandler {
	return &DiagnosticsHandler{queue: queue, providers: providers, database: database}
}

// Diagnostics handles GET /api/diagnostics.
func (h *DiagnosticsHandler) Diagnostics(c *gin.Context) {
	resp := dto.DiagnosticsResponse{
		QueueLength: h.queue.Len(),
		Providers:   h.providers.Redacted(),
		DatabaseOK:  h.database.HealthCheck(c.Request.Context()) == nil,
	}
	c.JSON(http.StatusOK, resp)
}
