package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	vo "github.com/ignatzorin/dispute-backend/internal/domain/valueobject"
)

// DisputeCase описывает спор по сделке между инициатором и ответчиком.
type DisputeCase struct {
	ID                  int64               `db:"id" json:"id"`
	CaseNumber          string              `db:"case_number" json:"case_number"`
	ComplainantID       uuid.UUID           `db:"complainant_id" json:"complainant_id"`
	RespondentID        uuid.UUID           `db:"respondent_id" json:"respondent_id"`
	ContractID          *int64              `db:"contract_id" json:"contract_id,omitempty"`
	EscrowTransactionID *int64              `db:"escrow_transaction_id" json:"escrow_transaction_id,omitempty"`
	DisputeType         vo.DisputeType      `db:"dispute_type" json:"dispute_type"`
	Priority            vo.DisputePriority  `db:"priority" json:"priority"`
	Title               string              `db:"title" json:"title"`
	Description         string              `db:"description" json:"description"`
	DisputedAmount      decimal.Decimal     `db:"disputed_amount" json:"disputed_amount"`
	Currency            string              `db:"currency" json:"currency"`
	Status              vo.DisputeStatus    `db:"status" json:"status"`
	SLADeadline         time.Time           `db:"sla_deadline" json:"sla_deadline"`
	SLABreached         bool                `db:"sla_breached" json:"sla_breached"`
	AssignedAdminID     *uuid.UUID          `db:"assigned_admin_id" json:"assigned_admin_id,omitempty"`
	AssignedAt          *time.Time          `db:"assigned_at" json:"assigned_at,omitempty"`
	RespondedAt         *time.Time          `db:"responded_at" json:"responded_at,omitempty"`
	ResolutionType      *vo.ResolutionType  `db:"resolution_type" json:"resolution_type,omitempty"`
	ResolutionSummary   *string             `db:"resolution_summary" json:"resolution_summary,omitempty"`
	RefundAmount        decimal.NullDecimal `db:"refund_amount" json:"refund_amount"`
	ResolvedAt          *time.Time          `db:"resolved_at" json:"resolved_at,omitempty"`
	ClosedAt            *time.Time          `db:"closed_at" json:"closed_at,omitempty"`
	CreatedAt           time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time           `db:"updated_at" json:"updated_at"`
}

// IsParty сообщает, является ли пользователь стороной спора.
func (d *DisputeCase) IsParty(userID uuid.UUID) bool {
	return d.ComplainantID == userID || d.RespondentID == userID
}

// DisputeEvidence - доказательство, приложенное стороной спора. Не изменяется после вставки.
type DisputeEvidence struct {
	ID           int64           `db:"id" json:"id"`
	DisputeID    int64           `db:"dispute_id" json:"dispute_id"`
	SubmittedBy  uuid.UUID       `db:"submitted_by" json:"submitted_by"`
	EvidenceType vo.EvidenceType `db:"evidence_type" json:"evidence_type"`
	Title        string          `db:"title" json:"title"`
	Description  *string         `db:"description" json:"description,omitempty"`
	FileURL      *string         `db:"file_url" json:"file_url,omitempty"`
	FileName     *string         `db:"file_name" json:"file_name,omitempty"`
	FileType     *string         `db:"file_type" json:"file_type,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// DisputeActivity - запись журнала действий по спору.
type DisputeActivity struct {
	ID            int64           `db:"id" json:"id"`
	DisputeID     int64           `db:"dispute_id" json:"dispute_id"`
	ActorID       *uuid.UUID      `db:"actor_id" json:"actor_id,omitempty"`
	ActivityType  vo.ActivityType `db:"activity_type" json:"activity_type"`
	Description   string          `db:"description" json:"description"`
	PreviousValue *string         `db:"previous_value" json:"previous_value,omitempty"`
	NewValue      *string         `db:"new_value" json:"new_value,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// DisputeStats - агрегаты для панели администратора.
type DisputeStats struct {
	Total                  int                        `json:"total"`
	ByStatus               map[vo.DisputeStatus]int   `json:"by_status"`
	ByPriority             map[vo.DisputePriority]int `json:"by_priority"`
	SLABreached            int                        `json:"sla_breached"`
	AverageResolutionHours float64                    `json:"average_resolution_hours"`
}

// UserDisputeFilter - фильтр споров пользователя.
type UserDisputeFilter struct {
	Status *vo.DisputeStatus
	Limit  int
	Offset int
}

// AdminDisputeFilter - фильтр очереди администратора.
type AdminDisputeFilter struct {
	Status     *vo.DisputeStatus
	Priority   *vo.DisputePriority
	AssignedTo *uuid.UUID
	Unassigned bool
	Limit      int
	Offset     int
}
