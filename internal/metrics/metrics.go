package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DisputeMetrics содержит метрики жизненного цикла споров.
// Методы безопасны для nil-получателя, чтобы сервис работал без метрик.
type DisputeMetrics struct {
	// Созданные споры
	DisputesCreatedTotal *prometheus.CounterVec

	// Смены статуса и решения
	StatusTransitionsTotal *prometheus.CounterVec
	DisputesResolvedTotal  *prometheus.CounterVec
	RefundedAmountTotal    *prometheus.CounterVec

	// SLA
	SLABreachesTotal prometheus.Counter

	// Отказы бизнес-правил по коду ошибки
	OperationRejectionsTotal *prometheus.CounterVec

	// Время выполнения операций
	OperationDuration *prometheus.HistogramVec

	// Публикация событий
	EventPublishFailuresTotal prometheus.Counter
}

// NewDisputeMetrics регистрирует метрики в reg.
func NewDisputeMetrics(reg prometheus.Registerer) *DisputeMetrics {
	factory := promauto.With(reg)
	return &DisputeMetrics{
		DisputesCreatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "disputes_created_total",
				Help: "Количество созданных споров",
			},
			[]string{"dispute_type", "priority"},
		),

		StatusTransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispute_status_transitions_total",
				Help: "Количество переходов статуса спора",
			},
			[]string{"from", "to"},
		),

		DisputesResolvedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "disputes_resolved_total",
				Help: "Количество решённых споров",
			},
			[]string{"status", "resolution_type"},
		),

		RefundedAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispute_refunded_amount_total",
				Help: "Сумма возвратов из escrow по решениям споров",
			},
			[]string{"currency"},
		),

		SLABreachesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dispute_sla_breaches_total",
				Help: "Количество споров, просрочивших SLA",
			},
		),

		OperationRejectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispute_operation_rejections_total",
				Help: "Отклонённые операции по спорам",
			},
			[]string{"operation", "code"},
		),

		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dispute_operation_duration_seconds",
				Help:    "Время выполнения операций по спорам",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms, 10ms, 20ms...
			},
			[]string{"operation"},
		),

		EventPublishFailuresTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dispute_event_publish_failures_total",
				Help: "Ошибки публикации событий споров",
			},
		),
	}
}

// RecordCreated записывает созданный спор
func (m *DisputeMetrics) RecordCreated(disputeType, priority string) {
	if m == nil {
		return
	}
	m.DisputesCreatedTotal.WithLabelValues(disputeType, priority).Inc()
}

// RecordTransition записывает смену статуса
func (m *DisputeMetrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.StatusTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordResolved записывает решение и сумму возврата
func (m *DisputeMetrics) RecordResolved(status, resolutionType, currency string, refunded float64) {
	if m == nil {
		return
	}
	m.DisputesResolvedTotal.WithLabelValues(status, resolutionType).Inc()
	if refunded > 0 {
		m.RefundedAmountTotal.WithLabelValues(currency).Add(refunded)
	}
}

// RecordSLABreaches записывает число просрочек за проход
func (m *DisputeMetrics) RecordSLABreaches(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SLABreachesTotal.Add(float64(n))
}

// RecordRejection записывает отказ бизнес-правила
func (m *DisputeMetrics) RecordRejection(operation, code string) {
	if m == nil {
		return
	}
	m.OperationRejectionsTotal.WithLabelValues(operation, code).Inc()
}

// ObserveDuration записывает длительность операции
func (m *DisputeMetrics) ObserveDuration(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordPublishFailure записывает ошибку публикации события
func (m *DisputeMetrics) RecordPublishFailure() {
	if m == nil {
		return
	}
	m.EventPublishFailuresTotal.Inc()
}
