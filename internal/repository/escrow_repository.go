package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	vo "github.com/ignatzorin/dispute-backend/internal/domain/valueobject"
	"github.com/ignatzorin/dispute-backend/internal/models"
	"github.com/ignatzorin/dispute-backend/internal/repository/common"
)

var ErrEscrowNotFound = errors.New("escrow transaction not found")

// LockEscrowTransaction читает escrow-транзакцию с блокировкой; (nil, nil) если её нет.
func (t *disputeTx) LockEscrowTransaction(ctx context.Context, id int64) (*models.EscrowTransaction, error) {
	e, err := common.GetOne[models.EscrowTransaction](ctx, t.tx, `
		SELECT id, contract_id, payer_id, payee_id, amount, status, refunded_amount, refunded_at, created_at, updated_at
		FROM escrow_transactions WHERE id = $1 FOR UPDATE
	`, id)
	if err != nil {
		return nil, fmt.Errorf("escrow: lock transaction %d: %w", id, err)
	}
	return e, nil
}

func (t *disputeTx) SetEscrowStatus(ctx context.Context, id int64, status vo.EscrowStatus) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE escrow_transactions SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("escrow: set status %s: %w", status, err)
	}
	return requireAffected(res.RowsAffected())
}

func (t *disputeTx) MarkEscrowRefunded(ctx context.Context, id int64, amount decimal.Decimal, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE escrow_transactions
		SET status = $2, refunded_amount = $3, refunded_at = $4, updated_at = $4
		WHERE id = $1
	`, id, string(vo.EscrowStatusRefunded), amount, at)
	if err != nil {
		return fmt.Errorf("escrow: mark refunded: %w", err)
	}
	return requireAffected(res.RowsAffected())
}

// EscrowProvider ищет исполнителя по контракту транзакции, иначе берёт payee.
func (t *disputeTx) EscrowProvider(ctx context.Context, escrow *models.EscrowTransaction) (uuid.UUID, error) {
	if escrow.ContractID != nil {
		c, err := common.GetOne[models.Contract](ctx, t.tx,
			`SELECT id, customer_id, provider_id FROM contracts WHERE id = $1`, *escrow.ContractID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("escrow: contract provider: %w", err)
		}
		if c != nil {
			return c.ProviderID, nil
		}
	}
	return escrow.PayeeID, nil
}

// DecrementPendingBalance уменьшает pending-баланс; отсутствие счёта не ошибка.
func (t *disputeTx) DecrementPendingBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE escrow_accounts
		SET pending_balance = pending_balance - $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("escrow: decrement pending balance: %w", err)
	}
	return nil
}

func requireAffected(n int64, err error) error {
	if err != nil {
		return fmt.Errorf("escrow: rows affected: %w", err)
	}
	if n == 0 {
		return ErrEscrowNotFound
	}
	return nil
}
