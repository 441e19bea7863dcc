package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainrepo "github.com/ignatzorin/dispute-backend/internal/domain/repository"
	vo "github.com/ignatzorin/dispute-backend/internal/domain/valueobject"
	"github.com/ignatzorin/dispute-backend/internal/models"
)

// memoryRepo - in-memory DisputeRepository. WithinTx сериализует транзакции
// и откатывает состояние при ошибке fn.
type memoryRepo struct {
	mu sync.Mutex

	disputes   map[int64]models.DisputeCase
	evidence   []models.DisputeEvidence
	activities []models.DisputeActivity
	users      map[uuid.UUID]models.User
	escrows    map[int64]models.EscrowTransaction
	accounts   map[uuid.UUID]models.EscrowAccount
	contracts  map[int64]models.Contract

	nextID int64

	// failActivity заставляет InsertActivity вернуть ошибку.
	failActivity error
	// skipActiveCheck имитирует гонку: FindActiveByContract ничего не находит.
	skipActiveCheck bool
}

var errInjected = errors.New("injected failure")

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		disputes:  make(map[int64]models.DisputeCase),
		users:     make(map[uuid.UUID]models.User),
		escrows:   make(map[int64]models.EscrowTransaction),
		accounts:  make(map[uuid.UUID]models.EscrowAccount),
		contracts: make(map[int64]models.Contract),
	}
}

type memorySnapshot struct {
	disputes   map[int64]models.DisputeCase
	evidence   []models.DisputeEvidence
	activities []models.DisputeActivity
	escrows    map[int64]models.EscrowTransaction
	accounts   map[uuid.UUID]models.EscrowAccount
	nextID     int64
}

func (r *memoryRepo) snapshot() memorySnapshot {
	s := memorySnapshot{
		disputes:   make(map[int64]models.DisputeCase, len(r.disputes)),
		evidence:   append([]models.DisputeEvidence(nil), r.evidence...),
		activities: append([]models.DisputeActivity(nil), r.activities...),
		escrows:    make(map[int64]models.EscrowTransaction, len(r.escrows)),
		accounts:   make(map[uuid.UUID]models.EscrowAccount, len(r.accounts)),
		nextID:     r.nextID,
	}
	for k, v := range r.disputes {
		s.disputes[k] = v
	}
	for k, v := range r.escrows {
		s.escrows[k] = v
	}
	for k, v := range r.accounts {
		s.accounts[k] = v
	}
	return s
}

func (r *memoryRepo) restore(s memorySnapshot) {
	r.disputes = s.disputes
	r.evidence = s.evidence
	r.activities = s.activities
	r.escrows = s.escrows
	r.accounts = s.accounts
	r.nextID = s.nextID
}

func (r *memoryRepo) WithinTx(ctx context.Context, fn func(tx domainrepo.DisputeTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.snapshot()
	if err := fn(&memoryTx{r: r}); err != nil {
		r.restore(snap)
		return err
	}
	return nil
}

func (r *memoryRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *memoryRepo) GetByID(_ context.Context, id int64) (*models.DisputeCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.disputes[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *memoryRepo) GetByCaseNumber(_ context.Context, caseNumber string) (*models.DisputeCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.disputes {
		if d.CaseNumber == caseNumber {
			return &d, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) GetActiveByContract(_ context.Context, contractID int64) (*models.DisputeCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeByContract(contractID), nil
}

func (r *memoryRepo) activeByContract(contractID int64) *models.DisputeCase {
	for _, d := range r.disputes {
		if d.ContractID != nil && *d.ContractID == contractID && d.Status.IsActive() {
			return &d
		}
	}
	return nil
}

func (r *memoryRepo) ListByUser(_ context.Context, userID uuid.UUID, filter models.UserDisputeFilter) ([]models.DisputeCase, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.DisputeCase
	for _, d := range r.disputes {
		if !d.IsParty(userID) {
			continue
		}
		if filter.Status != nil && d.Status != *filter.Status {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i], out[j])
	})
	return page(out, filter.Limit, filter.Offset), len(out), nil
}

func (r *memoryRepo) ListForAdmin(_ context.Context, filter models.AdminDisputeFilter) ([]models.DisputeCase, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.DisputeCase
	for _, d := range r.disputes {
		switch {
		case filter.Status != nil && d.Status != *filter.Status:
			continue
		case filter.Priority != nil && d.Priority != *filter.Priority:
			continue
		case filter.Unassigned && d.AssignedAdminID != nil:
			continue
		case filter.AssignedTo != nil && (d.AssignedAdminID == nil || *d.AssignedAdminID != *filter.AssignedTo):
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if ri, rj := out[i].Priority.Rank(), out[j].Priority.Rank(); ri != rj {
			return ri < rj
		}
		return newerFirst(out[i], out[j])
	})
	return page(out, filter.Limit, filter.Offset), len(out), nil
}

func newerFirst(a, b models.DisputeCase) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func page(in []models.DisputeCase, limit, offset int) []models.DisputeCase {
	if offset >= len(in) {
		return []models.DisputeCase{}
	}
	end := offset + limit
	if end > len(in) {
		end = len(in)
	}
	return in[offset:end]
}

func (r *memoryRepo) ListEvidence(_ context.Context, disputeID int64) ([]models.DisputeEvidence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DisputeEvidence
	for i := len(r.evidence) - 1; i >= 0; i-- {
		if r.evidence[i].DisputeID == disputeID {
			out = append(out, r.evidence[i])
		}
	}
	return out, nil
}

func (r *memoryRepo) ListActivities(_ context.Context, disputeID int64) ([]models.DisputeActivity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DisputeActivity
	for i := len(r.activities) - 1; i >= 0; i-- {
		if r.activities[i].DisputeID == disputeID {
			out = append(out, r.activities[i])
		}
	}
	return out, nil
}

func (r *memoryRepo) Stats(_ context.Context) (*models.DisputeStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := &models.DisputeStats{
		ByStatus:   make(map[vo.DisputeStatus]int),
		ByPriority: make(map[vo.DisputePriority]int),
	}
	var hours float64
	var resolved int
	for _, d := range r.disputes {
		stats.Total++
		stats.ByStatus[d.Status]++
		stats.ByPriority[d.Priority]++
		if d.SLABreached {
			stats.SLABreached++
		}
		if d.ResolvedAt != nil {
			hours += d.ResolvedAt.Sub(d.CreatedAt).Hours()
			resolved++
		}
	}
	if resolved > 0 {
		stats.AverageResolutionHours = hours / float64(resolved)
	}
	return stats, nil
}

func (r *memoryRepo) MarkSLABreaches(_ context.Context, now time.Time) ([]models.DisputeCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.DisputeCase
	for id, d := range r.disputes {
		if d.SLABreached || d.SLADeadline.After(now) || !d.Status.IsSLATracked() {
			continue
		}
		previous := d.Priority
		d.SLABreached = true
		d.Priority = vo.PriorityUrgent
		d.UpdatedAt = now
		r.disputes[id] = d
		r.activities = append(r.activities, models.DisputeActivity{
			ID:            r.id(),
			DisputeID:     id,
			ActivityType:  vo.ActivitySLABreached,
			Description:   "SLA deadline breached",
			PreviousValue: strPtr(string(previous)),
			NewValue:      strPtr(string(vo.PriorityUrgent)),
			CreatedAt:     now,
		})
		out = append(out, d)
	}
	return out, nil
}

// activitiesFor возвращает журнал спора в порядке вставки.
func (r *memoryRepo) activitiesFor(disputeID int64) []models.DisputeActivity {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DisputeActivity
	for _, a := range r.activities {
		if a.DisputeID == disputeID {
			out = append(out, a)
		}
	}
	return out
}

func (r *memoryRepo) escrow(id int64) models.EscrowTransaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.escrows[id]
}

func (r *memoryRepo) account(userID uuid.UUID) models.EscrowAccount {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[userID]
}

func (r *memoryRepo) disputeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.disputes)
}

type memoryTx struct {
	r *memoryRepo
}

func (t *memoryTx) LockDispute(_ context.Context, id int64) (*models.DisputeCase, error) {
	d, ok := t.r.disputes[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (t *memoryTx) FindActiveByContract(_ context.Context, contractID int64) (*models.DisputeCase, error) {
	if t.r.skipActiveCheck {
		return nil, nil
	}
	return t.r.activeByContract(contractID), nil
}

func (t *memoryTx) NextCaseNumber(_ context.Context, year int) (string, error) {
	prefix := vo.CaseNumberYearPrefix(year)
	last := ""
	for _, d := range t.r.disputes {
		if strings.HasPrefix(d.CaseNumber, prefix) && d.CaseNumber > last {
			last = d.CaseNumber
		}
	}
	return vo.NextCaseNumber(year, last)
}

func (t *memoryTx) InsertDispute(_ context.Context, d *models.DisputeCase) error {
	if d.ContractID != nil && t.r.activeByContract(*d.ContractID) != nil {
		return domainrepo.ErrActiveDisputeExists
	}
	d.ID = t.r.id()
	t.r.disputes[d.ID] = *d
	return nil
}

func (t *memoryTx) UpdateDispute(_ context.Context, d *models.DisputeCase) error {
	current, ok := t.r.disputes[d.ID]
	if !ok {
		return errors.New("dispute not found")
	}
	d.SLABreached = d.SLABreached || current.SLABreached
	t.r.disputes[d.ID] = *d
	return nil
}

func (t *memoryTx) InsertEvidence(_ context.Context, e *models.DisputeEvidence) error {
	e.ID = t.r.id()
	t.r.evidence = append(t.r.evidence, *e)
	return nil
}

func (t *memoryTx) InsertActivity(_ context.Context, a *models.DisputeActivity) error {
	if t.r.failActivity != nil {
		return t.r.failActivity
	}
	a.ID = t.r.id()
	t.r.activities = append(t.r.activities, *a)
	return nil
}

func (t *memoryTx) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := t.r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (t *memoryTx) LockEscrowTransaction(_ context.Context, id int64) (*models.EscrowTransaction, error) {
	e, ok := t.r.escrows[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (t *memoryTx) SetEscrowStatus(_ context.Context, id int64, status vo.EscrowStatus) error {
	e, ok := t.r.escrows[id]
	if !ok {
		return errors.New("escrow transaction not found")
	}
	e.Status = status
	t.r.escrows[id] = e
	return nil
}

func (t *memoryTx) MarkEscrowRefunded(_ context.Context, id int64, amount decimal.Decimal, at time.Time) error {
	e, ok := t.r.escrows[id]
	if !ok {
		return errors.New("escrow transaction not found")
	}
	e.Status = vo.EscrowStatusRefunded
	e.RefundedAmount = decimal.NewNullDecimal(amount)
	e.RefundedAt = &at
	t.r.escrows[id] = e
	return nil
}

func (t *memoryTx) EscrowProvider(_ context.Context, escrow *models.EscrowTransaction) (uuid.UUID, error) {
	if escrow.ContractID != nil {
		if c, ok := t.r.contracts[*escrow.ContractID]; ok {
			return c.ProviderID, nil
		}
	}
	return escrow.PayeeID, nil
}

func (t *memoryTx) DecrementPendingBalance(_ context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	acc, ok := t.r.accounts[userID]
	if !ok {
		return nil
	}
	acc.PendingBalance = acc.PendingBalance.Sub(amount)
	t.r.accounts[userID] = acc
	return nil
}
