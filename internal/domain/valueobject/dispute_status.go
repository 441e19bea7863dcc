package valueobject

import "github.com/ignatzorin/dispute-backend/internal/pkg/apperror"

type DisputeStatus string

const (
	DisputeStatusOpen                    DisputeStatus = "open"
	DisputeStatusUnderReview             DisputeStatus = "under_review"
	DisputeStatusEvidenceRequested       DisputeStatus = "evidence_requested"
	DisputeStatusAwaitingResponse        DisputeStatus = "awaiting_response"
	DisputeStatusMediation               DisputeStatus = "mediation"
	DisputeStatusEscalated               DisputeStatus = "escalated"
	DisputeStatusResolvedFavorInitiator  DisputeStatus = "resolved_favor_initiator"
	DisputeStatusResolvedFavorRespondent DisputeStatus = "resolved_favor_respondent"
	DisputeStatusResolvedPartial         DisputeStatus = "resolved_partial"
	DisputeStatusWithdrawn               DisputeStatus = "withdrawn"
	DisputeStatusClosed                  DisputeStatus = "closed"
)

// AllDisputeStatuses перечисляет статусы в порядке жизненного цикла.
var AllDisputeStatuses = []DisputeStatus{
	DisputeStatusOpen,
	DisputeStatusUnderReview,
	DisputeStatusEvidenceRequested,
	DisputeStatusAwaitingResponse,
	DisputeStatusMediation,
	DisputeStatusEscalated,
	DisputeStatusResolvedFavorInitiator,
	DisputeStatusResolvedFavorRespondent,
	DisputeStatusResolvedPartial,
	DisputeStatusWithdrawn,
	DisputeStatusClosed,
}

var resolvedStatuses = []DisputeStatus{
	DisputeStatusResolvedFavorInitiator,
	DisputeStatusResolvedFavorRespondent,
	DisputeStatusResolvedPartial,
}

// disputeTransitions - единственный источник правды для смены статуса спора.
var disputeTransitions = map[DisputeStatus][]DisputeStatus{
	DisputeStatusOpen: {
		DisputeStatusUnderReview, DisputeStatusEvidenceRequested, DisputeStatusWithdrawn, DisputeStatusClosed,
	},
	DisputeStatusUnderReview: {
		DisputeStatusEvidenceRequested, DisputeStatusAwaitingResponse, DisputeStatusMediation, DisputeStatusEscalated,
		DisputeStatusResolvedFavorInitiator, DisputeStatusResolvedFavorRespondent, DisputeStatusResolvedPartial,
		DisputeStatusClosed,
	},
	DisputeStatusEvidenceRequested: {
		DisputeStatusUnderReview, DisputeStatusAwaitingResponse, DisputeStatusWithdrawn, DisputeStatusClosed,
	},
	DisputeStatusAwaitingResponse: {
		DisputeStatusUnderReview, DisputeStatusMediation, DisputeStatusEscalated,
		DisputeStatusResolvedFavorInitiator, DisputeStatusResolvedFavorRespondent, DisputeStatusResolvedPartial,
		DisputeStatusClosed,
	},
	DisputeStatusMediation: {
		DisputeStatusResolvedFavorInitiator, DisputeStatusResolvedFavorRespondent, DisputeStatusResolvedPartial,
		DisputeStatusEscalated, DisputeStatusClosed,
	},
	DisputeStatusEscalated: {
		DisputeStatusResolvedFavorInitiator, DisputeStatusResolvedFavorRespondent, DisputeStatusResolvedPartial,
		DisputeStatusClosed,
	},
	DisputeStatusResolvedFavorInitiator:  {DisputeStatusClosed},
	DisputeStatusResolvedFavorRespondent: {DisputeStatusClosed},
	DisputeStatusResolvedPartial:         {DisputeStatusClosed},
	DisputeStatusWithdrawn:               {DisputeStatusClosed},
	DisputeStatusClosed:                  {},
}

// slaTrackedStatuses - статусы, в которых спор ждёт действия администратора.
var slaTrackedStatuses = []DisputeStatus{
	DisputeStatusOpen,
	DisputeStatusUnderReview,
	DisputeStatusEvidenceRequested,
	DisputeStatusAwaitingResponse,
}

var escalatableStatuses = []DisputeStatus{
	DisputeStatusUnderReview,
	DisputeStatusAwaitingResponse,
	DisputeStatusMediation,
}

func (s DisputeStatus) IsValid() bool {
	_, ok := disputeTransitions[s]
	return ok
}

func (s DisputeStatus) CanTransitionTo(next DisputeStatus) bool {
	for _, allowed := range disputeTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedTransitions возвращает копию списка допустимых переходов.
func (s DisputeStatus) AllowedTransitions() []DisputeStatus {
	return append([]DisputeStatus(nil), disputeTransitions[s]...)
}

func (s DisputeStatus) IsResolved() bool {
	return containsStatus(resolvedStatuses, s)
}

// IsTerminal сообщает, что дальше возможно только закрытие (или уже закрыт).
func (s DisputeStatus) IsTerminal() bool {
	return s == DisputeStatusClosed || s == DisputeStatusWithdrawn || s.IsResolved()
}

// IsActive - спор ещё в работе и блокирует новый спор по тому же контракту.
func (s DisputeStatus) IsActive() bool {
	return s.IsValid() && !s.IsTerminal()
}

func (s DisputeStatus) IsSLATracked() bool {
	return containsStatus(slaTrackedStatuses, s)
}

func (s DisputeStatus) CanEscalate() bool {
	return containsStatus(escalatableStatuses, s)
}

// ActiveDisputeStatuses возвращает статусы, считающиеся активными.
func ActiveDisputeStatuses() []DisputeStatus {
	var out []DisputeStatus
	for _, s := range AllDisputeStatuses {
		if s.IsActive() {
			out = append(out, s)
		}
	}
	return out
}

// SLATrackedStatuses возвращает статусы, по которым считается SLA.
func SLATrackedStatuses() []DisputeStatus {
	return append([]DisputeStatus(nil), slaTrackedStatuses...)
}

// ValidateTransition проверяет переход по таблице.
func ValidateTransition(from, to DisputeStatus) error {
	if !to.IsValid() {
		return apperror.Newf(apperror.ErrCodeValidation, "unknown dispute status %q", to)
	}
	if !from.CanTransitionTo(to) {
		return apperror.Newf(apperror.ErrCodeInvalidTransition, "cannot transition dispute from %s to %s", from, to)
	}
	return nil
}

func NewDisputeStatus(status string) (DisputeStatus, error) {
	s := DisputeStatus(status)
	if !s.IsValid() {
		return "", apperror.Newf(apperror.ErrCodeValidation, "unknown dispute status %q", status)
	}
	return s, nil
}

func containsStatus(list []DisputeStatus, s DisputeStatus) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

type FavoredParty string

const (
	FavoredPartyInitiator  FavoredParty = "initiator"
	FavoredPartyRespondent FavoredParty = "respondent"
	FavoredPartyPartial    FavoredParty = "partial"
)

var favoredPartyStatus = map[FavoredParty]DisputeStatus{
	FavoredPartyInitiator:  DisputeStatusResolvedFavorInitiator,
	FavoredPartyRespondent: DisputeStatusResolvedFavorRespondent,
	FavoredPartyPartial:    DisputeStatusResolvedPartial,
}

// ResolvedStatus отображает сторону, в пользу которой решён спор, в итоговый статус.
func (p FavoredParty) ResolvedStatus() (DisputeStatus, error) {
	s, ok := favoredPartyStatus[p]
	if !ok {
		return "", apperror.Newf(apperror.ErrCodeValidation, "unknown favored party %q", p)
	}
	return s, nil
}
