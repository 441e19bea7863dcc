package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	vo "github.com/ignatzorin/dispute-backend/internal/domain/valueobject"
)

// EscrowTransaction представляет средства, удерживаемые по контракту.
type EscrowTransaction struct {
	ID             int64               `db:"id" json:"id"`
	ContractID     *int64              `db:"contract_id" json:"contract_id,omitempty"`
	PayerID        uuid.UUID           `db:"payer_id" json:"payer_id"`
	PayeeID        uuid.UUID           `db:"payee_id" json:"payee_id"`
	Amount         decimal.Decimal     `db:"amount" json:"amount"`
	Status         vo.EscrowStatus     `db:"status" json:"status"`
	RefundedAmount decimal.NullDecimal `db:"refunded_amount" json:"refunded_amount"`
	RefundedAt     *time.Time          `db:"refunded_at" json:"refunded_at,omitempty"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updated_at"`
}

// EscrowAccount - баланс пользователя в escrow.
type EscrowAccount struct {
	UserID           uuid.UUID       `db:"user_id" json:"user_id"`
	AvailableBalance decimal.Decimal `db:"available_balance" json:"available_balance"`
	PendingBalance   decimal.Decimal `db:"pending_balance" json:"pending_balance"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// Contract - минимальная проекция контракта, нужная спорам.
type Contract struct {
	ID         int64     `db:"id" json:"id"`
	CustomerID uuid.UUID `db:"customer_id" json:"customer_id"`
	ProviderID uuid.UUID `db:"provider_id" json:"provider_id"`
}
