package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finovel/loanledger/internal/domain/model"
	"github.com/finovel/loanledger/internal/pkg/money"
	"github.com/finovel/loanledger/internal/server/http/dto"
)

// TreasuryHandler manages pool liquidity endpoints.
type TreasuryHandler struct {
	facade TreasuryFacade
}

// NewTreasuryHandler constructs TreasuryHandler.
func NewTreasuryHandler(facade TreasuryFacade) *TreasuryHandler {
	return &TreasuryHandler{facade: facade}
}

// Summary handles GET /api/treasury.
func (h *TreasuryHandler) Summary(c *gin.Context) {
	summary, err := h.facade.TreasurySummary(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTreasurySummaryResponse(summary))
}

// Deposit handles POST /api/treasury/deposits.
func (h *TreasuryHandler) Deposit(c *gin.Context) {
	h.record(c, h.facade.RecordDeposit)
}

// Withdraw handles POST /api/treasury/withdrawals.
func (h *TreasuryHandler) Withdraw(c *gin.Context) {
	h.record(c, h.facade.RecordWithdrawal)
}

func (h *TreasuryHandler) record(c *gin.Context, op func(ctx context.Context, amount int64, txHash string) (*model.Treasury, error)) {
	var req dto.TreasuryMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	amount, err := money.ToMicro(req.Amount)
	if err != nil {
		c.Status(http.StatusUnprocessableEntity)
		return
	}

	treasury, err := op(c.Request.Context(), amount, req.TxHash)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTreasuryResponse(treasury))
}
