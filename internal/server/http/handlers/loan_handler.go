package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finovel/loanledger/internal/pkg/money"
	"github.com/finovel/loanledger/internal/server/http/dto"
)

// LoanHandler manages loan lifecycle endpoints.
type LoanHandler struct {
	facade  LoanFacade
	trigger SettlementTrigger
}

// NewLoanHandler constructs LoanHandler.
func NewLoanHandler(facade LoanFacade, trigger SettlementTrigger) *LoanHandler {
	return &LoanHandler{facade: facade, trigger: trigger}
}

// Request handles POST /api/loans. The loan is stored as REQUESTED and
// auto-approval runs in the background, so the reply is 202 and callers poll.
func (h *LoanHandler) Request(c *gin.Context) {
	var req dto.LoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	amount, err := money.ToMicro(req.Amount)
	if err != nil {
		c.Status(http.StatusUnprocessableEntity)
		return
	}

	loan, err := h.facade.RequestLoan(c.Request.Context(), req.Borrower, amount, req.DurationDays)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	h.trigger.Trigger(loan.ID)
	c.JSON(http.StatusAccepted, dto.NewLoanResponse(loan))
}

// Get handles GET /api/loans/:id.
func (h *LoanHandler) Get(c *gin.Context) {
	id, ok := loanIDParam(c)
	if !ok {
		return
	}

	loan, err := h.facade.Loan(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewLoanResponse(loan))
}

// Repay handles POST /api/loans/:id/repayments.
func (h *LoanHandler) Repay(c *gin.Context) {
	id, ok := loanIDParam(c)
	if !ok {
		return
	}

	var req dto.RepaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	amount, err := money.ToMicro(req.Amount)
	if err != nil {
		c.Status(http.StatusUnprocessableEntity)
		return
	}

	loan, err := h.facade.RecordRepayment(c.Request.Context(), id, amount)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewLoanResponse(loan))
}

// Cancel handles POST /api/loans/:id/cancel.
func (h *LoanHandler) Cancel(c *gin.Context) {
	id, ok := loanIDParam(c)
	if !ok {
		return
	}

	loan, err := h.facade.CancelLoan(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewLoanResponse(loan))
}

// Default handles POST /api/loans/:id/default.
func (h *LoanHandler) Default(c *gin.Context) {
	id, ok := loanIDParam(c)
	if !ok {
		return
	}

	loan, err := h.facade.DefaultLoan(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewLoanResponse(loan))
}
