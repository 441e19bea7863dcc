package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	vo "github.com/ignatzorin/dispute-backend/internal/domain/valueobject"
	"github.com/ignatzorin/dispute-backend/internal/models"
)

// ErrActiveDisputeExists возвращается при вставке второго активного спора по контракту.
var ErrActiveDisputeExists = errors.New("active dispute already exists for contract")

// DisputeReader - чтение споров вне транзакции. Отсутствующая запись даёт (nil, nil).
type DisputeReader interface {
	GetByID(ctx context.Context, id int64) (*models.DisputeCase, error)
	GetByCaseNumber(ctx context.Context, caseNumber string) (*models.DisputeCase, error)
	GetActiveByContract(ctx context.Context, contractID int64) (*models.DisputeCase, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter models.UserDisputeFilter) ([]models.DisputeCase, int, error)
	ListForAdmin(ctx context.Context, filter models.AdminDisputeFilter) ([]models.DisputeCase, int, error)
	ListEvidence(ctx context.Context, disputeID int64) ([]models.DisputeEvidence, error)
	ListActivities(ctx context.Context, disputeID int64) ([]models.DisputeActivity, error)
	Stats(ctx context.Context) (*models.DisputeStats, error)
}

// DisputeRepository объединяет чтение, SLA-проверку и единицу работы.
type DisputeRepository interface {
	DisputeReader

	// MarkSLABreaches помечает просроченные споры и пишет по одной записи журнала на каждый.
	MarkSLABreaches(ctx context.Context, now time.Time) ([]models.DisputeCase, error)

	// WithinTx выполняет fn в одной транзакции; ошибка fn откатывает всё.
	WithinTx(ctx context.Context, fn func(tx DisputeTx) error) error
}

// DisputeTx - операции внутри транзакции одной мутации спора.
type DisputeTx interface {
	// LockDispute читает спор с блокировкой строки; (nil, nil) если его нет.
	LockDispute(ctx context.Context, id int64) (*models.DisputeCase, error)
	FindActiveByContract(ctx context.Context, contractID int64) (*models.DisputeCase, error)
	NextCaseNumber(ctx context.Context, year int) (string, error)
	InsertDispute(ctx context.Context, d *models.DisputeCase) error
	UpdateDispute(ctx context.Context, d *models.DisputeCase) error
	InsertEvidence(ctx context.Context, e *models.DisputeEvidence) error
	InsertActivity(ctx context.Context, a *models.DisputeActivity) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)

	EscrowStore
}

// EscrowStore - внешние escrow-таблицы, изменяемые как побочный эффект спора.
type EscrowStore interface {
	LockEscrowTransaction(ctx context.Context, id int64) (*models.EscrowTransaction, error)
	SetEscrowStatus(ctx context.Context, id int64, status vo.EscrowStatus) error
	MarkEscrowRefunded(ctx context.Context, id int64, amount decimal.Decimal, at time.Time) error
	// EscrowProvider возвращает получателя средств: исполнителя по контракту или payee транзакции.
	EscrowProvider(ctx context.Context, escrow *models.EscrowTransaction) (uuid.UUID, error)
	DecrementPendingBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
}
