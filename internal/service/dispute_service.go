package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	domainrepo "github.com/ignatzorin/dispute-backend/internal/domain/repository"
	vo "github.com/ignatzorin/dispute-backend/internal/domain/valueobject"
	"github.com/ignatzorin/dispute-backend/internal/events"
	"github.com/ignatzorin/dispute-backend/internal/logger"
	"github.com/ignatzorin/dispute-backend/internal/metrics"
	"github.com/ignatzorin/dispute-backend/internal/models"
	"github.com/ignatzorin/dispute-backend/internal/pkg/apperror"
	"github.com/ignatzorin/dispute-backend/internal/validation"
)

var (
	ErrDisputeNotFound     = apperror.New(apperror.ErrCodeNotFound, "dispute not found")
	ErrActiveDisputeExists = apperror.New(apperror.ErrCodeConflict, "Active dispute already exists for this contract")
	ErrNotParticipant      = apperror.New(apperror.ErrCodeForbidden, "only the complainant or respondent may act on this dispute")
	ErrNotComplainant      = apperror.New(apperror.ErrCodeForbidden, "only the complainant may withdraw the dispute")
	ErrAdminNotFound       = apperror.New(apperror.ErrCodeNotFound, "admin user not found")
	ErrNotAdmin            = apperror.New(apperror.ErrCodeForbidden, "assignee is not an admin")
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// DisputeConfig - настройки сервиса споров.
type DisputeConfig struct {
	StatsCacheTTL   time.Duration
	DefaultCurrency string
	// Now подменяется в тестах.
	Now func() time.Time
}

// DisputeService управляет жизненным циклом споров. Каждая мутация выполняется
// в одной транзакции и добавляет ровно одну запись в журнал.
type DisputeService struct {
	repo      domainrepo.DisputeRepository
	escrow    *EscrowBridge
	publisher events.Publisher
	metrics   *metrics.DisputeMetrics
	cache     *CacheService
	cfg       DisputeConfig
}

func NewDisputeService(
	repo domainrepo.DisputeRepository,
	publisher events.Publisher,
	m *metrics.DisputeMetrics,
	cache *CacheService,
	cfg DisputeConfig,
) *DisputeService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "KRW"
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if cache == nil {
		cache = NewCacheService(0)
	}
	return &DisputeService{
		repo:      repo,
		escrow:    NewEscrowBridge(cfg.Now),
		publisher: publisher,
		metrics:   m,
		cache:     cache,
		cfg:       cfg,
	}
}

// CreateDisputeInput - данные нового спора. Инициатор - актор запроса.
type CreateDisputeInput struct {
	RespondentID        uuid.UUID
	ContractID          *int64
	EscrowTransactionID *int64
	DisputeType         string
	Priority            string
	Title               string
	Description         string
	DisputedAmount      decimal.Decimal
	Currency            string
}

// ResolutionInput - решение администратора.
type ResolutionInput struct {
	ResolutionType    string
	ResolutionSummary string
	RefundAmount      *decimal.Decimal
	FavoredParty      string
}

// EvidenceInput - доказательство стороны спора.
type EvidenceInput struct {
	EvidenceType string
	Title        string
	Description  *string
	FileURL      *string
	FileName     *string
}

// DisputeList - страница споров с общим количеством.
type DisputeList struct {
	Disputes []models.DisputeCase `json:"disputes"`
	Total    int                  `json:"total"`
}

// mutation - результат изменения спора внутри транзакции.
type mutation struct {
	activity models.DisputeActivity
	// touched означает, что строка спора изменилась и её нужно сохранить.
	touched bool
}

// CreateDispute открывает спор. Если по контракту уже есть активный спор,
// возвращает его вместе с ErrActiveDisputeExists.
func (s *DisputeService) CreateDispute(ctx context.Context, in CreateDisputeInput, actorID uuid.UUID) (*models.DisputeCase, error) {
	const op = "create"
	start := s.cfg.Now()

	d, err := s.newDispute(in, actorID)
	if err != nil {
		s.reject(op, err)
		return nil, err
	}

	var (
		existing *models.DisputeCase
		activity models.DisputeActivity
	)
	err = s.repo.WithinTx(ctx, func(tx domainrepo.DisputeTx) error {
		if d.ContractID != nil {
			found, err := tx.FindActiveByContract(ctx, *d.ContractID)
			if err != nil {
				return err
			}
			if found != nil {
				existing = found
				return ErrActiveDisputeExists
			}
		}

		caseNumber, err := tx.NextCaseNumber(ctx, d.CreatedAt.Year())
		if err != nil {
			return err
		}
		d.CaseNumber = caseNumber

		if err := tx.InsertDispute(ctx, d); err != nil {
			return err
		}

		activity = models.DisputeActivity{
			DisputeID:    d.ID,
			ActorID:      &actorID,
			ActivityType: vo.ActivityCreated,
			Description:  fmt.Sprintf("Dispute %s opened", d.CaseNumber),
			NewValue:     strPtr(string(d.Status)),
			CreatedAt:    d.CreatedAt,
		}
		if err := tx.InsertActivity(ctx, &activity); err != nil {
			return err
		}

		if d.EscrowTransactionID != nil {
			return s.escrow.Hold(ctx, tx, *d.EscrowTransactionID)
		}
		return nil
	})

	if errors.Is(err, domainrepo.ErrActiveDisputeExists) {
		// Параллельная вставка упёрлась в частичный уникальный индекс.
		existing, err = s.repo.GetActiveByContract(ctx, *d.ContractID)
		if err != nil {
			return nil, err
		}
		err = ErrActiveDisputeExists
	}
	if errors.Is(err, ErrActiveDisputeExists) {
		s.reject(op, err)
		return existing, ErrActiveDisputeExists
	}
	if err != nil {
		s.reject(op, err)
		return nil, err
	}

	s.metrics.RecordCreated(string(d.DisputeType), string(d.Priority))
	s.afterCommit(ctx, op, start, d, activity)
	return d, nil
}

func (s *DisputeService) newDispute(in CreateDisputeInput, actorID uuid.UUID) (*models.DisputeCase, error) {
	if actorID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	if in.RespondentID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "respondent is required")
	}
	if in.RespondentID == actorID {
		return nil, apperror.New(apperror.ErrCodeValidation, "respondent must differ from complainant")
	}

	disputeType, err := vo.NewDisputeType(in.DisputeType)
	if err != nil {
		return nil, err
	}
	priority, err := vo.NewDisputePriority(in.Priority)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if err := validation.ValidateRequired("title", title, validation.MinDisputeTitleLength, validation.MaxDisputeTitleLength); err != nil {
		return nil, validationError(err)
	}
	if err := validation.ValidateRequired("description", description, validation.MinDisputeDescriptionLength, validation.MaxDisputeDescriptionLength); err != nil {
		return nil, validationError(err)
	}
	if err := validation.ValidateAmount("disputed amount", in.DisputedAmount); err != nil {
		return nil, validationError(err)
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	if err := validation.ValidateCurrency(currency); err != nil {
		return nil, validationError(err)
	}

	now := s.cfg.Now().UTC()
	return &models.DisputeCase{
		ComplainantID:       actorID,
		RespondentID:        in.RespondentID,
		ContractID:          in.ContractID,
		EscrowTransactionID: in.EscrowTransactionID,
		DisputeType:         disputeType,
		Priority:            priority,
		Title:               title,
		Description:         description,
		DisputedAmount:      in.DisputedAmount,
		Currency:            currency,
		Status:              vo.DisputeStatusOpen,
		SLADeadline:         priority.SLADeadline(now),
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// GetDisputeByID возвращает (nil, nil), если спора нет.
func (s *DisputeService) GetDisputeByID(ctx context.Context, id int64) (*models.DisputeCase, error) {
	return s.repo.GetByID(ctx, id)
}

// GetDisputeByCaseNumber возвращает (nil, nil), если спора нет.
func (s *DisputeService) GetDisputeByCaseNumber(ctx context.Context, caseNumber string) (*models.DisputeCase, error) {
	if !vo.IsCaseNumber(caseNumber) {
		return nil, nil
	}
	return s.repo.GetByCaseNumber(ctx, caseNumber)
}

func (s *DisputeService) GetUserDisputes(ctx context.Context, userID uuid.UUID, filter models.UserDisputeFilter) (*DisputeList, error) {
	filter.Limit, filter.Offset = normalizePage(filter.Limit, filter.Offset)
	disputes, total, err := s.repo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	return &DisputeList{Disputes: disputes, Total: total}, nil
}

// GetAdminDisputes - очередь администратора: сначала срочные, затем новые.
func (s *DisputeService) GetAdminDisputes(ctx context.Context, filter models.AdminDisputeFilter) (*DisputeList, error) {
	filter.Limit, filter.Offset = normalizePage(filter.Limit, filter.Offset)
	disputes, total, err := s.repo.ListForAdmin(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &DisputeList{Disputes: disputes, Total: total}, nil
}

// UpdateDisputeStatus переводит спор по таблице переходов.
// Закрытие или отзыв без решения снимает удержание escrow.
func (s *DisputeService) UpdateDisputeStatus(ctx context.Context, id int64, newStatus string, actorID uuid.UUID, comment *string) (*models.DisputeCase, error) {
	to, err := vo.NewDisputeStatus(newStatus)
	if err != nil {
		s.reject("update_status", err)
		return nil, err
	}
	if err := validation.ValidateOptional("comment", comment, validation.MaxCommentLength); err != nil {
		err = validationError(err)
		s.reject("update_status", err)
		return nil, err
	}

	return s.mutate(ctx, "update_status", id, &actorID, func(tx domainrepo.DisputeTx, d *models.DisputeCase, now time.Time) (*mutation, error) {
		from := d.Status
		if err := vo.ValidateTransition(from, to); err != nil {
			return nil, err
		}
		applyStatus(d, to, now)

		if from.IsActive() && (to == vo.DisputeStatusClosed || to == vo.DisputeStatusWithdrawn) && d.EscrowTransactionID != nil {
			if err := s.escrow.Release(ctx, tx, *d.EscrowTransactionID); err != nil {
				return nil, err
			}
		}

		description := fmt.Sprintf("Status changed from %s to %s", from, to)
		if c := trimmed(comment); c != nil {
			description = *c
		}
		return &mutation{
			touched: true,
			activity: models.DisputeActivity{
				ActivityType:  vo.ActivityStatusChanged,
				Description:   description,
				PreviousValue: strPtr(string(from)),
				NewValue:      strPtr(string(to)),
			},
		}, nil
	})
}

// AssignDispute назначает спор администратору.
func (s *DisputeService) AssignDispute(ctx context.Context, id int64, adminID, actorID uuid.UUID) (*models.DisputeCase, error) {
	return s.mutate(ctx, "assign", id, &actorID, func(tx domainrepo.DisputeTx, d *models.DisputeCase, now time.Time) (*mutation, error) {
		if err := ensureOpen(d); err != nil {
			return nil, err
		}

		admin, err := tx.GetUser(ctx, adminID)
		if err != nil {
			return nil, err
		}
		if admin == nil {
			return nil, ErrAdminNotFound
		}
		if !admin.IsAdmin() {
			return nil, ErrNotAdmin
		}

		var previous *string
		if d.AssignedAdminID != nil {
			previous = strPtr(d.AssignedAdminID.String())
		}
		d.AssignedAdminID = &adminID
		d.AssignedAt = &now

		return &mutation{
			touched: true,
			activity: models.DisputeActivity{
				ActivityType:  vo.ActivityAssigned,
				Description:   "Dispute assigned to admin " + adminID.String(),
				PreviousValue: previous,
				NewValue:      strPtr(adminID.String()),
			},
		}, nil
	})
}

// ResolveDispute выносит решение. Возвратные решения по спору с escrow
// в той же транзакции возвращают средства и уменьшают pending-баланс исполнителя.
func (s *DisputeService) ResolveDispute(ctx context.Context, id int64, in ResolutionInput, actorID uuid.UUID) (*models.DisputeCase, error) {
	const op = "resolve"

	resolutionType, err := vo.NewResolutionType(in.ResolutionType)
	if err != nil {
		s.reject(op, err)
		return nil, err
	}
	target, err := vo.FavoredParty(in.FavoredParty).ResolvedStatus()
	if err != nil {
		s.reject(op, err)
		return nil, err
	}
	summary := strings.TrimSpace(in.ResolutionSummary)
	if err := validation.ValidateRequired("resolution summary", summary, 1, validation.MaxResolutionSummaryLength); err != nil {
		err = validationError(err)
		s.reject(op, err)
		return nil, err
	}
	if in.RefundAmount != nil {
		if !resolutionType.MovesFunds() && !in.RefundAmount.IsZero() {
			err := apperror.New(apperror.ErrCodeValidation, "refund amount is not allowed for no_refund resolution")
			s.reject(op, err)
			return nil, err
		}
		if err := validation.ValidateAmount("refund amount", *in.RefundAmount); err != nil {
			err = validationError(err)
			s.reject(op, err)
			return nil, err
		}
	}

	var refunded decimal.Decimal
	d, err := s.mutate(ctx, op, id, &actorID, func(tx domainrepo.DisputeTx, d *models.DisputeCase, now time.Time) (*mutation, error) {
		if err := ensureOpen(d); err != nil {
			return nil, err
		}
		from := d.Status
		if err := vo.ValidateTransition(from, target); err != nil {
			return nil, err
		}

		d.ResolutionType = &resolutionType
		d.ResolutionSummary = &summary
		d.RefundAmount = decimal.NullDecimal{}

		if resolutionType.MovesFunds() {
			amount := d.DisputedAmount
			if in.RefundAmount != nil {
				amount = *in.RefundAmount
			}
			if !amount.IsPositive() {
				return nil, apperror.New(apperror.ErrCodeValidation, "refund amount must be positive")
			}
			if d.EscrowTransactionID != nil {
				if err := s.escrow.Refund(ctx, tx, *d.EscrowTransactionID, amount); err != nil {
					return nil, err
				}
			}
			d.RefundAmount = decimal.NewNullDecimal(amount)
			refunded = amount
		}
		applyStatus(d, target, now)

		return &mutation{
			touched: true,
			activity: models.DisputeActivity{
				ActivityType:  vo.ActivityResolved,
				Description:   summary,
				PreviousValue: strPtr(string(from)),
				NewValue:      strPtr(string(target)),
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordResolved(string(d.Status), string(resolutionType), d.Currency, refunded.InexactFloat64())
	return d, nil
}

// WithdrawDispute - отзыв спора инициатором; удержание escrow снимается.
func (s *DisputeService) WithdrawDispute(ctx context.Context, id int64, userID uuid.UUID, reason *string) (*models.DisputeCase, error) {
	if err := validation.ValidateOptional("reason", reason, validation.MaxCommentLength); err != nil {
		err = validationError(err)
		s.reject("withdraw", err)
		return nil, err
	}

	return s.mutate(ctx, "withdraw", id, &userID, func(tx domainrepo.DisputeTx, d *models.DisputeCase, now time.Time) (*mutation, error) {
		if d.ComplainantID != userID {
			return nil, ErrNotComplainant
		}
		if err := ensureOpen(d); err != nil {
			return nil, err
		}
		from := d.Status
		if err := vo.ValidateTransition(from, vo.DisputeStatusWithdrawn); err != nil {
			return nil, err
		}
		applyStatus(d, vo.DisputeStatusWithdrawn, now)

		if d.EscrowTransactionID != nil {
			if err := s.escrow.Release(ctx, tx, *d.EscrowTransactionID); err != nil {
				return nil, err
			}
		}

		description := "Dispute withdrawn by complainant"
		if r := trimmed(reason); r != nil {
			description = *r
		}
		return &mutation{
			touched: true,
			activity: models.DisputeActivity{
				ActivityType:  vo.ActivityWithdrawn,
				Description:   description,
				PreviousValue: strPtr(string(from)),
				NewValue:      strPtr(string(vo.DisputeStatusWithdrawn)),
			},
		}, nil
	})
}

// SubmitEvidence принимает доказательство от стороны спора. Первое доказательство
// ответчика фиксирует responded_at.
func (s *DisputeService) SubmitEvidence(ctx context.Context, id int64, in EvidenceInput, actorID uuid.UUID) (*models.DisputeEvidence, error) {
	const op = "submit_evidence"

	evidence, err := buildEvidence(in)
	if err != nil {
		s.reject(op, err)
		return nil, err
	}

	_, err = s.mutate(ctx, op, id, &actorID, func(tx domainrepo.DisputeTx, d *models.DisputeCase, now time.Time) (*mutation, error) {
		if !d.IsParty(actorID) {
			return nil, ErrNotParticipant
		}
		if err := ensureOpen(d); err != nil {
			return nil, err
		}

		evidence.DisputeID = d.ID
		evidence.SubmittedBy = actorID
		evidence.CreatedAt = now
		if err := tx.InsertEvidence(ctx, evidence); err != nil {
			return nil, err
		}

		touched := false
		if actorID == d.RespondentID && d.RespondedAt == nil {
			d.RespondedAt = &now
			touched = true
		}

		return &mutation{
			touched: touched,
			activity: models.DisputeActivity{
				ActivityType: vo.ActivityEvidenceSubmitted,
				Description:  "Evidence submitted: " + evidence.Title,
				NewValue:     strPtr(string(evidence.EvidenceType)),
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return evidence, nil
}

func buildEvidence(in EvidenceInput) (*models.DisputeEvidence, error) {
	title := strings.TrimSpace(in.Title)
	if err := validation.ValidateRequired("evidence title", title, 1, validation.MaxEvidenceTitleLength); err != nil {
		return nil, validationError(err)
	}
	if err := validation.ValidateOptional("evidence description", in.Description, validation.MaxEvidenceDescriptionLen); err != nil {
		return nil, validationError(err)
	}

	e := &models.DisputeEvidence{
		Title:       title,
		Description: trimmed(in.Description),
		FileURL:     trimmed(in.FileURL),
		FileName:    trimmed(in.FileName),
	}

	if e.FileURL != nil {
		if err := validation.ValidateExternalLink(e.FileURL); err != nil {
			return nil, validationError(err)
		}
	}

	var detected vo.EvidenceType
	if e.FileName != nil {
		at, err := validation.DetectAttachmentType(*e.FileName)
		if err != nil {
			return nil, validationError(err)
		}
		e.FileType = strPtr(at.MIME)
		detected = vo.EvidenceTypeForMIME(at.MediaType)
	}

	evidenceType := vo.EvidenceType(in.EvidenceType)
	switch {
	case in.EvidenceType == "" && detected != "":
		evidenceType = detected
	case in.EvidenceType == "" && e.FileURL != nil:
		evidenceType = vo.EvidenceLink
	case in.EvidenceType == "":
		evidenceType = vo.EvidenceText
	}
	if !evidenceType.IsValid() {
		return nil, apperror.Newf(apperror.ErrCodeValidation, "unknown evidence type %q", in.EvidenceType)
	}

	switch evidenceType {
	case vo.EvidenceText:
		if e.Description == nil || *e.Description == "" {
			return nil, apperror.New(apperror.ErrCodeValidation, "text evidence requires a description")
		}
	case vo.EvidenceLink:
		if e.FileURL == nil {
			return nil, apperror.New(apperror.ErrCodeValidation, "link evidence requires a URL")
		}
	default:
		if e.FileURL == nil && e.FileName == nil {
			return nil, apperror.Newf(apperror.ErrCodeValidation, "%s evidence requires an attachment", evidenceType)
		}
	}
	e.EvidenceType = evidenceType
	return e, nil
}

func (s *DisputeService) GetDisputeEvidence(ctx context.Context, id int64) ([]models.DisputeEvidence, error) {
	return s.repo.ListEvidence(ctx, id)
}

func (s *DisputeService) GetDisputeActivities(ctx context.Context, id int64) ([]models.DisputeActivity, error) {
	return s.repo.ListActivities(ctx, id)
}

// EscalateDispute поднимает спор на эскалацию с приоритетом urgent.
func (s *DisputeService) EscalateDispute(ctx context.Context, id int64, actorID uuid.UUID, reason string) (*models.DisputeCase, error) {
	reason = strings.TrimSpace(reason)
	if err := validation.ValidateRequired("reason", reason, 1, validation.MaxCommentLength); err != nil {
		err = validationError(err)
		s.reject("escalate", err)
		return nil, err
	}

	return s.mutate(ctx, "escalate", id, &actorID, func(tx domainrepo.DisputeTx, d *models.DisputeCase, now time.Time) (*mutation, error) {
		if err := ensureOpen(d); err != nil {
			return nil, err
		}
		from := d.Status
		if !from.CanEscalate() {
			return nil, apperror.Newf(apperror.ErrCodeInvalidTransition, "cannot escalate dispute from %s", from)
		}
		if err := vo.ValidateTransition(from, vo.DisputeStatusEscalated); err != nil {
			return nil, err
		}
		applyStatus(d, vo.DisputeStatusEscalated, now)
		d.Priority = vo.PriorityUrgent

		return &mutation{
			touched: true,
			activity: models.DisputeActivity{
				ActivityType:  vo.ActivityEscalated,
				Description:   reason,
				PreviousValue: strPtr(string(from)),
				NewValue:      strPtr(string(vo.DisputeStatusEscalated)),
			},
		}, nil
	})
}

// CheckSLABreaches помечает просроченные споры и возвращает их количество за этот проход.
// Повторный вызов не считает уже помеченные споры.
func (s *DisputeService) CheckSLABreaches(ctx context.Context) (int, error) {
	now := s.cfg.Now().UTC()
	breached, err := s.repo.MarkSLABreaches(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(breached) == 0 {
		return 0, nil
	}

	s.cache.InvalidateDisputeCache()
	s.metrics.RecordSLABreaches(len(breached))

	batch := make([]events.DisputeEvent, 0, len(breached))
	for _, d := range breached {
		batch = append(batch, events.DisputeEvent{
			DisputeID:  d.ID,
			CaseNumber: d.CaseNumber,
			Type:       vo.ActivitySLABreached,
			Status:     d.Status,
			Priority:   d.Priority,
			OccurredAt: now,
		})
	}
	s.publish(ctx, batch...)

	logger.L().WithFields(logrus.Fields{
		"operation": "sla_check",
		"breached":  len(breached),
	}).Warn("SLA deadlines breached")
	return len(breached), nil
}

// GetDisputeStats возвращает агрегаты; результат кэшируется на StatsCacheTTL.
func (s *DisputeService) GetDisputeStats(ctx context.Context) (*models.DisputeStats, error) {
	v, err := s.cache.GetOrSet(ctx, DisputeStatsCacheKey, s.cfg.StatsCacheTTL, func(ctx context.Context) (interface{}, error) {
		return s.repo.Stats(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.DisputeStats), nil
}

// AddComment только дописывает журнал; статус спора не важен.
func (s *DisputeService) AddComment(ctx context.Context, id int64, actorID uuid.UUID, comment string) error {
	comment = strings.TrimSpace(comment)
	if err := validation.ValidateRequired("comment", comment, 1, validation.MaxCommentLength); err != nil {
		err = validationError(err)
		s.reject("comment", err)
		return err
	}

	_, err := s.mutate(ctx, "comment", id, &actorID, func(_ domainrepo.DisputeTx, _ *models.DisputeCase, _ time.Time) (*mutation, error) {
		return &mutation{
			activity: models.DisputeActivity{
				ActivityType: vo.ActivityCommentAdded,
				Description:  comment,
			},
		}, nil
	})
	return err
}

// mutate блокирует строку спора, применяет fn, сохраняет спор (если изменён)
// и пишет одну запись журнала. Всё в одной транзакции.
func (s *DisputeService) mutate(
	ctx context.Context,
	op string,
	id int64,
	actorID *uuid.UUID,
	fn func(tx domainrepo.DisputeTx, d *models.DisputeCase, now time.Time) (*mutation, error),
) (*models.DisputeCase, error) {
	start := s.cfg.Now()

	var (
		updated  *models.DisputeCase
		activity models.DisputeActivity
	)
	err := s.repo.WithinTx(ctx, func(tx domainrepo.DisputeTx) error {
		d, err := tx.LockDispute(ctx, id)
		if err != nil {
			return err
		}
		if d == nil {
			return ErrDisputeNotFound
		}

		now := s.cfg.Now().UTC()
		m, err := fn(tx, d, now)
		if err != nil {
			return err
		}

		if m.touched {
			d.UpdatedAt = now
			if err := tx.UpdateDispute(ctx, d); err != nil {
				return err
			}
		}

		activity = m.activity
		activity.DisputeID = d.ID
		activity.ActorID = actorID
		activity.CreatedAt = now
		if err := tx.InsertActivity(ctx, &activity); err != nil {
			return err
		}

		updated = d
		return nil
	})
	if err != nil {
		s.reject(op, err)
		return nil, err
	}

	s.afterCommit(ctx, op, start, updated, activity)
	return updated, nil
}

// afterCommit выполняет побочные эффекты, которые не должны влиять на результат операции.
func (s *DisputeService) afterCommit(ctx context.Context, op string, start time.Time, d *models.DisputeCase, a models.DisputeActivity) {
	s.cache.InvalidateDisputeCache()
	s.metrics.ObserveDuration(op, s.cfg.Now().Sub(start).Seconds())
	if a.ActivityType != vo.ActivityAssigned && a.PreviousValue != nil && a.NewValue != nil {
		s.metrics.RecordTransition(*a.PreviousValue, *a.NewValue)
	}

	s.publish(ctx, events.DisputeEvent{
		DisputeID:  d.ID,
		CaseNumber: d.CaseNumber,
		Type:       a.ActivityType,
		Status:     d.Status,
		Priority:   d.Priority,
		ActorID:    a.ActorID,
		OccurredAt: a.CreatedAt,
	})

	entry := logger.Dispute(d.ID, d.CaseNumber).WithFields(logrus.Fields{
		"operation": op,
		"status":    d.Status,
	})
	if a.ActorID != nil {
		entry = entry.WithField("actor_id", a.ActorID.String())
	}
	entry.Info("dispute updated")
}

func (s *DisputeService) publish(ctx context.Context, batch ...events.DisputeEvent) {
	if err := s.publisher.Publish(ctx, batch...); err != nil {
		s.metrics.RecordPublishFailure()
		logger.L().WithError(err).WithField("events", len(batch)).Warn("failed to publish dispute events")
	}
}

// reject учитывает отказ бизнес-правила; инфраструктурные ошибки не считаются.
func (s *DisputeService) reject(op string, err error) {
	if code := apperror.CodeOf(err); code != "" {
		s.metrics.RecordRejection(op, string(code))
	}
}

// ensureOpen отклоняет изменения решённых, отозванных и закрытых споров.
func ensureOpen(d *models.DisputeCase) error {
	if d.Status.IsTerminal() {
		return apperror.Newf(apperror.ErrCodeCaseClosed, "dispute %s is %s", d.CaseNumber, d.Status)
	}
	return nil
}

// applyStatus меняет статус и проставляет терминальные отметки времени.
func applyStatus(d *models.DisputeCase, to vo.DisputeStatus, now time.Time) {
	d.Status = to
	if to.IsResolved() && d.ResolvedAt == nil {
		d.ResolvedAt = &now
	}
	if to == vo.DisputeStatusClosed {
		d.ClosedAt = &now
	}
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func validationError(err error) error {
	return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
}

func strPtr(s string) *string {
	return &s
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
