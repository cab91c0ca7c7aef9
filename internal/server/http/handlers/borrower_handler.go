package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/finovel/loanledger/internal/pkg/money"
	"github.com/finovel/loanledger/internal/server/http/dto"
)

const defaultEventLimit = 50

// BorrowerHandler manages borrower-centric endpoints.
type BorrowerHandler struct {
	facade BorrowerFacade
	loans  LoanFacade
}

// NewBorrowerHandler constructs BorrowerHandler.
func NewBorrowerHandler(facade BorrowerFacade, loans LoanFacade) *BorrowerHandler {
	return &BorrowerHandler{facade: facade, loans: loans}
}

// Eligibility handles GET /api/borrowers/:address/eligibility?amount=.
// An ineligible borrower is still a 200; the typed result carries the reason.
func (h *BorrowerHandler) Eligibility(c *gin.Context) {
	amount, err := money.ToMicro(c.Query("amount"))
	if err != nil || amount <= 0 {
		c.Status(http.StatusUnprocessableEntity)
		return
	}

	result, err := h.facade.CheckEligibility(c.Request.Context(), c.Param("address"), amount)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewEligibilityResponse(result))
}

// Recommended handles GET /api/borrowers/:address/recommended.
func (h *BorrowerHandler) Recommended(c *gin.Context) {
	address := c.Param("address")
	amount, err := h.facade.RecommendedAmount(c.Request.Context(), address)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RecommendedAmountResponse{
		Address:           address,
		RecommendedAmount: money.FromMicro(amount),
	})
}

// Loans handles GET /api/borrowers/:address/loans.
func (h *BorrowerHandler) Loans(c *gin.Context) {
	loans, err := h.loans.LoansByBorrower(c.Request.Context(), c.Param("address"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if len(loans) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, dto.NewLoanResponses(loans))
}

// Events handles GET /api/borrowers/:address/events.
func (h *BorrowerHandler) Events(c *gin.Context) {
	limit := defaultEventLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.Status(http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	events, err := h.facade.EventsBySubject(c.Request.Context(), c.Param("address"), limit)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if len(events) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, dto.NewEventResponses(events))
}
