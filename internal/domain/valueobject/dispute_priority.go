package valueobject

import (
	"time"

	"github.com/ignatzorin/dispute-backend/internal/pkg/apperror"
)

type DisputePriority string

const (
	PriorityLow    DisputePriority = "low"
	PriorityNormal DisputePriority = "normal"
	PriorityHigh   DisputePriority = "high"
	PriorityUrgent DisputePriority = "urgent"
)

// AllPriorities упорядочены от самого срочного к наименее срочному.
var AllPriorities = []DisputePriority{PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow}

// slaHours - время на реакцию администратора по приоритету.
var slaHours = map[DisputePriority]int{
	PriorityLow:    72,
	PriorityNormal: 48,
	PriorityHigh:   24,
	PriorityUrgent: 4,
}

func (p DisputePriority) IsValid() bool {
	_, ok := slaHours[p]
	return ok
}

// SLAWindow возвращает окно SLA для приоритета; неизвестный приоритет считается normal.
func (p DisputePriority) SLAWindow() time.Duration {
	hours, ok := slaHours[p]
	if !ok {
		hours = slaHours[PriorityNormal]
	}
	return time.Duration(hours) * time.Hour
}

// SLADeadline считает дедлайн ответа от момента now.
func (p DisputePriority) SLADeadline(now time.Time) time.Time {
	return now.Add(p.SLAWindow())
}

// Rank: меньше - срочнее. Используется для сортировки очереди администратора.
func (p DisputePriority) Rank() int {
	for i, candidate := range AllPriorities {
		if candidate == p {
			return i
		}
	}
	return len(AllPriorities)
}

// NewDisputePriority разбирает приоритет; пустая строка даёт normal.
func NewDisputePriority(priority string) (DisputePriority, error) {
	if priority == "" {
		return PriorityNormal, nil
	}
	p := DisputePriority(priority)
	if !p.IsValid() {
		return "", apperror.Newf(apperror.ErrCodeValidation, "unknown dispute priority %q", priority)
	}
	return p, nil
}
