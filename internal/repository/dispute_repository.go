package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	domainrepo "github.com/ignatzorin/dispute-backend/internal/domain/repository"
	vo "github.com/ignatzorin/dispute-backend/internal/domain/valueobject"
	"github.com/ignatzorin/dispute-backend/internal/models"
	"github.com/ignatzorin/dispute-backend/internal/repository/common"
)

const (
	disputeColumns = `id, case_number, complainant_id, respondent_id, contract_id, escrow_transaction_id,
		dispute_type, priority, title, description, disputed_amount, currency, status,
		sla_deadline, sla_breached, assigned_admin_id, assigned_at, responded_at,
		resolution_type, resolution_summary, refund_amount, resolved_at, closed_at,
		created_at, updated_at`

	activeContractConstraint = "uq_dispute_cases_active_contract"

	// Ключ advisory-lock для выдачи номеров дел.
	caseNumberLockKey int64 = 0x44495350

	priorityOrder = `CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'normal' THEN 2 ELSE 3 END`
)

var _ domainrepo.DisputeRepository = (*DisputeRepository)(nil)

type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

func (r *DisputeRepository) GetByID(ctx context.Context, id int64) (*models.DisputeCase, error) {
	d, err := common.GetOne[models.DisputeCase](ctx, r.db,
		`SELECT `+disputeColumns+` FROM dispute_cases WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: get by id: %w", err)
	}
	return d, nil
}

func (r *DisputeRepository) GetByCaseNumber(ctx context.Context, caseNumber string) (*models.DisputeCase, error) {
	d, err := common.GetOne[models.DisputeCase](ctx, r.db,
		`SELECT `+disputeColumns+` FROM dispute_cases WHERE case_number = $1`, caseNumber)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: get by case number: %w", err)
	}
	return d, nil
}

func (r *DisputeRepository) GetActiveByContract(ctx context.Context, contractID int64) (*models.DisputeCase, error) {
	d, err := findActiveByContract(ctx, r.db, contractID, false)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: get active by contract: %w", err)
	}
	return d, nil
}

// ListByUser возвращает споры, где пользователь - инициатор или ответчик.
func (r *DisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter models.UserDisputeFilter) ([]models.DisputeCase, int, error) {
	w := newWhere()
	w.add("(complainant_id = %s OR respondent_id = %s)", userID, userID)
	if filter.Status != nil {
		w.add("status = %s", string(*filter.Status))
	}
	return r.list(ctx, w, "created_at DESC", filter.Limit, filter.Offset)
}

// ListForAdmin сортирует очередь по срочности, затем по свежести.
func (r *DisputeRepository) ListForAdmin(ctx context.Context, filter models.AdminDisputeFilter) ([]models.DisputeCase, int, error) {
	w := newWhere()
	if filter.Status != nil {
		w.add("status = %s", string(*filter.Status))
	}
	if filter.Priority != nil {
		w.add("priority = %s", string(*filter.Priority))
	}
	if filter.AssignedTo != nil {
		w.add("assigned_admin_id = %s", *filter.AssignedTo)
	}
	if filter.Unassigned {
		w.add("assigned_admin_id IS NULL")
	}
	return r.list(ctx, w, priorityOrder+", created_at DESC", filter.Limit, filter.Offset)
}

func (r *DisputeRepository) list(ctx context.Context, w *whereBuilder, orderBy string, limit, offset int) ([]models.DisputeCase, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM dispute_cases`+w.sql(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("dispute repository: count: %w", err)
	}

	args := append(w.args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM dispute_cases%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		disputeColumns, w.sql(), orderBy, len(w.args)+1, len(w.args)+2)

	disputes := make([]models.DisputeCase, 0)
	if err := r.db.SelectContext(ctx, &disputes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("dispute repository: list: %w", err)
	}
	return disputes, total, nil
}

func (r *DisputeRepository) ListEvidence(ctx context.Context, disputeID int64) ([]models.DisputeEvidence, error) {
	evidence := make([]models.DisputeEvidence, 0)
	err := r.db.SelectContext(ctx, &evidence, `
		SELECT id, dispute_id, submitted_by, evidence_type, title, description, file_url, file_name, file_type, created_at
		FROM dispute_evidence WHERE dispute_id = $1
		ORDER BY created_at DESC, id DESC
	`, disputeID)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: list evidence: %w", err)
	}
	return evidence, nil
}

func (r *DisputeRepository) ListActivities(ctx context.Context, disputeID int64) ([]models.DisputeActivity, error) {
	activities := make([]models.DisputeActivity, 0)
	err := r.db.SelectContext(ctx, &activities, `
		SELECT id, dispute_id, actor_id, activity_type, description, previous_value, new_value, created_at
		FROM dispute_activities WHERE dispute_id = $1
		ORDER BY created_at DESC, id DESC
	`, disputeID)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: list activities: %w", err)
	}
	return activities, nil
}

type statusCount struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}

// Stats собирает четыре агрегата параллельно.
func (r *DisputeRepository) Stats(ctx context.Context) (*models.DisputeStats, error) {
	var (
		byStatus   []statusCount
		byPriority []statusCount
		breached   int
		avgHours   float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.db.SelectContext(gctx, &byStatus,
			`SELECT status AS key, COUNT(*) AS count FROM dispute_cases GROUP BY status`)
	})
	g.Go(func() error {
		return r.db.SelectContext(gctx, &byPriority,
			`SELECT priority AS key, COUNT(*) AS count FROM dispute_cases GROUP BY priority`)
	})
	g.Go(func() error {
		return r.db.GetContext(gctx, &breached,
			`SELECT COUNT(*) FROM dispute_cases WHERE sla_breached = TRUE`)
	})
	g.Go(func() error {
		return r.db.GetContext(gctx, &avgHours, `
			SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600), 0)::float8
			FROM dispute_cases WHERE resolved_at IS NOT NULL
		`)
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dispute repository: stats: %w", err)
	}

	stats := &models.DisputeStats{
		ByStatus:               make(map[vo.DisputeStatus]int, len(byStatus)),
		ByPriority:             make(map[vo.DisputePriority]int, len(byPriority)),
		SLABreached:            breached,
		AverageResolutionHours: avgHours,
	}
	for _, row := range byStatus {
		stats.ByStatus[vo.DisputeStatus(row.Key)] = row.Count
		stats.Total += row.Count
	}
	for _, row := range byPriority {
		stats.ByPriority[vo.DisputePriority(row.Key)] = row.Count
	}
	return stats, nil
}

type breachedDispute struct {
	models.DisputeCase
	PreviousPriority vo.DisputePriority `db:"previous_priority"`
}

// MarkSLABreaches помечает просроченные споры одним UPDATE и пишет журнал в той же транзакции.
// Условие sla_breached = FALSE делает повторный вызов холостым.
func (r *DisputeRepository) MarkSLABreaches(ctx context.Context, now time.Time) ([]models.DisputeCase, error) {
	var rows []breachedDispute
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.SelectContext(ctx, &rows, `
			WITH due AS (
				SELECT id, priority FROM dispute_cases
				WHERE sla_breached = FALSE AND sla_deadline <= $1 AND status = ANY($2)
				FOR UPDATE SKIP LOCKED
			)
			UPDATE dispute_cases d
			SET sla_breached = TRUE, priority = $3, updated_at = $1
			FROM due
			WHERE d.id = due.id
			RETURNING `+prefixColumns("d.")+`, due.priority AS previous_priority
		`, now, statusArray(vo.SLATrackedStatuses()), string(vo.PriorityUrgent))
		if err != nil {
			return fmt.Errorf("mark breaches: %w", err)
		}

		ins := common.NewBatchInserter(tx,
			`INSERT INTO dispute_activities (dispute_id, actor_id, activity_type, description, previous_value, new_value, created_at)`,
			7, 100)
		for _, row := range rows {
			if err := ins.Add(ctx,
				row.ID, nil, string(vo.ActivitySLABreached),
				"SLA deadline breached, priority raised to urgent",
				string(row.PreviousPriority), string(vo.PriorityUrgent), now,
			); err != nil {
				return err
			}
		}
		return ins.Flush(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("dispute repository: %w", err)
	}

	out := make([]models.DisputeCase, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.DisputeCase)
	}
	return out, nil
}

// WithinTx открывает транзакцию и передаёт fn единицу работы над спором.
func (r *DisputeRepository) WithinTx(ctx context.Context, fn func(tx domainrepo.DisputeTx) error) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&disputeTx{tx: tx})
	})
}

func findActiveByContract(ctx context.Context, q sqlx.QueryerContext, contractID int64, lock bool) (*models.DisputeCase, error) {
	query := `SELECT ` + disputeColumns + ` FROM dispute_cases
		WHERE contract_id = $1 AND status = ANY($2)
		ORDER BY created_at DESC LIMIT 1`
	if lock {
		query += ` FOR UPDATE`
	}
	return common.GetOne[models.DisputeCase](ctx, q, query, contractID, statusArray(vo.ActiveDisputeStatuses()))
}

func statusArray(statuses []vo.DisputeStatus) pq.StringArray {
	out := make(pq.StringArray, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func prefixColumns(prefix string) string {
	cols := strings.Split(disputeColumns, ",")
	for i, c := range cols {
		cols[i] = prefix + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

// whereBuilder собирает WHERE с позиционными параметрами; %s в условии заменяется на $N.
type whereBuilder struct {
	conds []string
	args  []any
}

func newWhere() *whereBuilder {
	return &whereBuilder{}
}

func (w *whereBuilder) add(cond string, args ...any) {
	placeholders := make([]any, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", len(w.args)+i+1)
	}
	w.conds = append(w.conds, fmt.Sprintf(cond, placeholders...))
	w.args = append(w.args, args...)
}

func (w *whereBuilder) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
