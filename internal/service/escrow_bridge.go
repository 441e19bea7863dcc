package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domainrepo "github.com/ignatzorin/dispute-backend/internal/domain/repository"
	vo "github.com/ignatzorin/dispute-backend/internal/domain/valueobject"
	"github.com/ignatzorin/dispute-backend/internal/models"
	"github.com/ignatzorin/dispute-backend/internal/pkg/apperror"
)

var (
	ErrEscrowNotFound = apperror.New(apperror.ErrCodeNotFound, "escrow transaction not found")
	ErrEscrowSettled  = apperror.New(apperror.ErrCodeValidation, "escrow transaction is already settled")
)

// EscrowBridge меняет escrow-записи как побочный эффект исхода спора.
// Все операции выполняются в транзакции вызывающей мутации.
type EscrowBridge struct {
	now func() time.Time
}

func NewEscrowBridge(now func() time.Time) *EscrowBridge {
	if now == nil {
		now = time.Now
	}
	return &EscrowBridge{now: now}
}

// Hold помечает транзакцию disputed, чтобы средства не ушли до решения.
func (b *EscrowBridge) Hold(ctx context.Context, store domainrepo.EscrowStore, escrowID int64) error {
	escrow, err := b.lock(ctx, store, escrowID)
	if err != nil {
		return err
	}
	switch escrow.Status {
	case vo.EscrowStatusReleased, vo.EscrowStatusRefunded:
		return ErrEscrowSettled
	case vo.EscrowStatusDisputed:
		return nil
	}
	return store.SetEscrowStatus(ctx, escrowID, vo.EscrowStatusDisputed)
}

// Release снимает удержание: disputed -> funded. Другие статусы не трогает.
func (b *EscrowBridge) Release(ctx context.Context, store domainrepo.EscrowStore, escrowID int64) error {
	escrow, err := b.lock(ctx, store, escrowID)
	if err != nil {
		return err
	}
	if escrow.Status != vo.EscrowStatusDisputed {
		return nil
	}
	return store.SetEscrowStatus(ctx, escrowID, vo.EscrowStatusFunded)
}

// Refund возвращает amount инициатору и уменьшает pending-баланс исполнителя на ту же сумму.
func (b *EscrowBridge) Refund(ctx context.Context, store domainrepo.EscrowStore, escrowID int64, amount decimal.Decimal) error {
	escrow, err := b.lock(ctx, store, escrowID)
	if err != nil {
		return err
	}
	if escrow.Status == vo.EscrowStatusRefunded || escrow.Status == vo.EscrowStatusReleased {
		return ErrEscrowSettled
	}
	if !amount.IsPositive() {
		return apperror.New(apperror.ErrCodeValidation, "refund amount must be positive")
	}
	if amount.GreaterThan(escrow.Amount) {
		return apperror.Newf(apperror.ErrCodeValidation,
			"refund amount %s exceeds escrow amount %s", amount.StringFixed(2), escrow.Amount.StringFixed(2))
	}

	if err := store.MarkEscrowRefunded(ctx, escrowID, amount, b.now().UTC()); err != nil {
		return err
	}

	provider, err := store.EscrowProvider(ctx, escrow)
	if err != nil {
		return err
	}
	return store.DecrementPendingBalance(ctx, provider, amount)
}

func (b *EscrowBridge) lock(ctx context.Context, store domainrepo.EscrowStore, escrowID int64) (*models.EscrowTransaction, error) {
	escrow, err := store.LockEscrowTransaction(ctx, escrowID)
	if err != nil {
		return nil, err
	}
	if escrow == nil {
		return nil, ErrEscrowNotFound
	}
	return escrow, nil
}
