package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	domainrepo "github.com/ignatzorin/dispute-backend/internal/domain/repository"
	vo "github.com/ignatzorin/dispute-backend/internal/domain/valueobject"
	"github.com/ignatzorin/dispute-backend/internal/models"
	"github.com/ignatzorin/dispute-backend/internal/repository/common"
)

var _ domainrepo.DisputeTx = (*disputeTx)(nil)

// disputeTx - единица работы поверх открытой транзакции.
type disputeTx struct {
	tx *sqlx.Tx
}

func (t *disputeTx) LockDispute(ctx context.Context, id int64) (*models.DisputeCase, error) {
	d, err := common.GetOne[models.DisputeCase](ctx, t.tx,
		`SELECT `+disputeColumns+` FROM dispute_cases WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("dispute tx: lock dispute %d: %w", id, err)
	}
	return d, nil
}

func (t *disputeTx) FindActiveByContract(ctx context.Context, contractID int64) (*models.DisputeCase, error) {
	d, err := findActiveByContract(ctx, t.tx, contractID, true)
	if err != nil {
		return nil, fmt.Errorf("dispute tx: find active by contract: %w", err)
	}
	return d, nil
}

// NextCaseNumber выдаёт номер под транзакционным advisory-lock,
// поэтому параллельные создания получают разные номера.
func (t *disputeTx) NextCaseNumber(ctx context.Context, year int) (string, error) {
	if _, err := t.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, caseNumberLockKey); err != nil {
		return "", fmt.Errorf("dispute tx: case number lock: %w", err)
	}

	var last []string
	err := t.tx.SelectContext(ctx, &last, `
		SELECT case_number FROM dispute_cases
		WHERE case_number LIKE $1
		ORDER BY case_number DESC LIMIT 1
	`, vo.CaseNumberYearPrefix(year)+"%")
	if err != nil {
		return "", fmt.Errorf("dispute tx: last case number: %w", err)
	}

	prev := ""
	if len(last) > 0 {
		prev = last[0]
	}
	return vo.NextCaseNumber(year, prev)
}

func (t *disputeTx) InsertDispute(ctx context.Context, d *models.DisputeCase) error {
	err := t.tx.QueryRowxContext(ctx, `
		INSERT INTO dispute_cases (
			case_number, complainant_id, respondent_id, contract_id, escrow_transaction_id,
			dispute_type, priority, title, description, disputed_amount, currency, status,
			sla_deadline, sla_breached, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, FALSE, $14, $14)
		RETURNING id, created_at, updated_at
	`,
		d.CaseNumber, d.ComplainantID, d.RespondentID, d.ContractID, d.EscrowTransactionID,
		string(d.DisputeType), string(d.Priority), d.Title, d.Description, d.DisputedAmount, d.Currency,
		string(d.Status), d.SLADeadline, d.CreatedAt,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err, activeContractConstraint) {
			return domainrepo.ErrActiveDisputeExists
		}
		return fmt.Errorf("dispute tx: insert dispute: %w", err)
	}
	return nil
}

// UpdateDispute сохраняет изменяемые поля. Номер дела и стороны не меняются,
// а sla_breached может только стать TRUE.
func (t *disputeTx) UpdateDispute(ctx context.Context, d *models.DisputeCase) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE dispute_cases SET
			priority = $2,
			status = $3,
			sla_breached = sla_breached OR $4,
			assigned_admin_id = $5,
			assigned_at = $6,
			responded_at = $7,
			resolution_type = $8,
			resolution_summary = $9,
			refund_amount = $10,
			resolved_at = $11,
			closed_at = $12,
			updated_at = $13
		WHERE id = $1
	`,
		d.ID, string(d.Priority), string(d.Status), d.SLABreached,
		d.AssignedAdminID, d.AssignedAt, d.RespondedAt,
		d.ResolutionType, d.ResolutionSummary, d.RefundAmount,
		d.ResolvedAt, d.ClosedAt, d.UpdatedAt,
	)
	if err != nil {
		if common.IsUniqueViolation(err, activeContractConstraint) {
			return domainrepo.ErrActiveDisputeExists
		}
		return fmt.Errorf("dispute tx: update dispute %d: %w", d.ID, err)
	}
	return nil
}

func (t *disputeTx) InsertEvidence(ctx context.Context, e *models.DisputeEvidence) error {
	err := t.tx.QueryRowxContext(ctx, `
		INSERT INTO dispute_evidence (dispute_id, submitted_by, evidence_type, title, description, file_url, file_name, file_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, e.DisputeID, e.SubmittedBy, string(e.EvidenceType), e.Title, e.Description, e.FileURL, e.FileName, e.FileType, e.CreatedAt).
		Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("dispute tx: insert evidence: %w", err)
	}
	return nil
}

func (t *disputeTx) InsertActivity(ctx context.Context, a *models.DisputeActivity) error {
	err := t.tx.QueryRowxContext(ctx, `
		INSERT INTO dispute_activities (dispute_id, actor_id, activity_type, description, previous_value, new_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, a.DisputeID, a.ActorID, string(a.ActivityType), a.Description, a.PreviousValue, a.NewValue, a.CreatedAt).
		Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("dispute tx: insert activity: %w", err)
	}
	return nil
}

func (t *disputeTx) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := common.GetOne[models.User](ctx, t.tx, `SELECT id, role FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("dispute tx: get user: %w", err)
	}
	return u, nil
}
