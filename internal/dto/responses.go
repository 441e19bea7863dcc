package dto

import (
	"github.com/ignatzorin/dispute-backend/internal/models"
)

// DisputeListResponse represents a paginated dispute list
type DisputeListResponse struct {
	Data       []models.DisputeCase `json:"data"`
	Pagination Pagination           `json:"pagination"`
}

// NewDisputeListResponse builds pagination metadata from total and the requested page
func NewDisputeListResponse(disputes []models.DisputeCase, total, limit, offset int) *DisputeListResponse {
	if disputes == nil {
		disputes = []models.DisputeCase{}
	}
	return &DisputeListResponse{
		Data: disputes,
		Pagination: Pagination{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(disputes) < total,
		},
	}
}

// ActiveDisputeConflictResponse is returned when a contract already has an active dispute
type ActiveDisputeConflictResponse struct {
	Error   string              `json:"error"`
	Dispute *models.DisputeCase `json:"dispute"`
}

// SLACheckResponse reports how many disputes were flagged in one sweep
type SLACheckResponse struct {
	BreachedCount int `json:"breached_count"`
}

// Pagination represents pagination metadata
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
