package dto

import (
	"time"

	"github.com/finovel/loanledger/internal/domain/model"
	"github.com/finovel/loanledger/internal/pkg/money"
)

// EligibilityResponse describes the outcome of a standalone eligibility check.
// Ineligible borrowers get a 200 with Eligible=false and a reason.
type EligibilityResponse struct {
	Eligible        bool   `json:"eligible"`
	Tier            int    `json:"tier"`
	ApprovedAmount  string `json:"approved_amount"`
	InterestRateBps int    `json:"interest_rate_bps"`
	Reason          string `json:"reason,omitempty"`
}

// NewEligibilityResponse converts a domain eligibility result.
func NewEligibilityResponse(result *model.EligibilityResult) EligibilityResponse {
	return EligibilityResponse{
		Eligible:        result.Eligible,
		Tier:            int(result.Tier),
		ApprovedAmount:  money.FromMicro(result.ApprovedAmount),
		InterestRateBps: result.InterestRateBps,
		Reason:          result.Reason,
	}
}

// RecommendedAmountResponse carries the borrower's tier ceiling.
type RecommendedAmountResponse struct {
	Address           string `json:"address"`
	RecommendedAmount string `json:"recommended_amount"`
}

// EventResponse describes one audit record.
type EventResponse struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	Subject     string         `json:"subject"`
	TxHash      string         `json:"tx_hash,omitempty"`
	BlockNumber int64          `json:"block_number,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewEventResponses converts domain events.
func NewEventResponses(events []model.Event) []EventResponse {
	resp := make([]EventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, EventResponse{
			ID:          e.ID,
			Kind:        string(e.Kind),
			Subject:     e.Subject,
			TxHash:      e.TxHash,
			BlockNumber: e.BlockNumber,
			Payload:     e.Payload,
			CreatedAt:   e.CreatedAt,
		})
	}
	return resp
}
