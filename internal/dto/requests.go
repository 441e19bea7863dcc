package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateDisputeRequest represents the request to open a dispute
type CreateDisputeRequest struct {
	RespondentID        uuid.UUID       `json:"respondent_id" binding:"required"`
	ContractID          *int64          `json:"contract_id"`
	EscrowTransactionID *int64          `json:"escrow_transaction_id"`
	DisputeType         string          `json:"dispute_type" binding:"required"`
	Priority            string          `json:"priority"`
	Title               string          `json:"title" binding:"required"`
	Description         string          `json:"description" binding:"required"`
	DisputedAmount      decimal.Decimal `json:"disputed_amount"`
	Currency            string          `json:"currency"`
}

// UpdateDisputeStatusRequest represents an admin status change
type UpdateDisputeStatusRequest struct {
	Status  string  `json:"status" binding:"required"`
	Comment *string `json:"comment"`
}

// AssignDisputeRequest assigns a dispute to an admin; empty admin_id means the caller
type AssignDisputeRequest struct {
	AdminID *uuid.UUID `json:"admin_id"`
}

// ResolveDisputeRequest represents an admin decision
type ResolveDisputeRequest struct {
	ResolutionType    string           `json:"resolution_type" binding:"required"`
	ResolutionSummary string           `json:"resolution_summary" binding:"required"`
	RefundAmount      *decimal.Decimal `json:"refund_amount"`
	FavoredParty      string           `json:"favored_party" binding:"required"`
}

// WithdrawDisputeRequest represents a complainant withdrawal
type WithdrawDisputeRequest struct {
	Reason *string `json:"reason"`
}

// SubmitEvidenceRequest represents evidence from a dispute party
type SubmitEvidenceRequest struct {
	EvidenceType string  `json:"evidence_type"`
	Title        string  `json:"title" binding:"required"`
	Description  *string `json:"description"`
	FileURL      *string `json:"file_url"`
	FileName     *string `json:"file_name"`
}

// EscalateDisputeRequest represents an escalation
type EscalateDisputeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// AddCommentRequest represents an audit comment
type AddCommentRequest struct {
	Comment string `json:"comment" binding:"required"`
}
