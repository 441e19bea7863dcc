package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/dispute-backend/internal/goroutine"
	"github.com/ignatzorin/dispute-backend/internal/logger"
)

// SLAChecker помечает споры с просроченным SLA.
type SLAChecker interface {
	CheckSLABreaches(ctx context.Context) (int, error)
}

// SLASweeper периодически запускает проверку SLA.
// Проверка идемпотентна, поэтому несколько экземпляров сервиса могут работать одновременно.
type SLASweeper struct {
	checker  SLAChecker
	interval time.Duration
	timeout  time.Duration
	recovery *goroutine.RecoveryHandler
	done     chan struct{}
}

func NewSLASweeper(checker SLAChecker, interval time.Duration) *SLASweeper {
	timeout := interval / 2
	if timeout <= 0 || timeout > time.Minute {
		timeout = time.Minute
	}
	return &SLASweeper{
		checker:  checker,
		interval: interval,
		timeout:  timeout,
		recovery: goroutine.DefaultRecoveryHandler,
		done:     make(chan struct{}),
	}
}

// Start запускает цикл в отдельной горутине до отмены ctx.
// Нулевой интервал отключает проверку.
func (s *SLASweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		logger.L().Info("SLA sweeper отключён")
		close(s.done)
		return
	}
	goroutine.SafeGoWithContext(ctx, s.loop)
}

// Done закрывается после остановки цикла.
func (s *SLASweeper) Done() <-chan struct{} {
	return s.done
}

func (s *SLASweeper) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.L().WithField("interval", s.interval.String()).Info("SLA sweeper запущен")
	for {
		select {
		case <-ctx.Done():
			logger.L().Info("SLA sweeper остановлен")
			return
		case <-ticker.C:
			s.recovery.Run(func() { s.sweep(ctx) })
		}
	}
}

func (s *SLASweeper) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	count, err := s.checker.CheckSLABreaches(ctx)
	if err != nil {
		logger.L().WithError(err).Error("SLA sweep failed")
		return
	}
	if count > 0 {
		logger.L().WithFields(logrus.Fields{"breached": count}).Info("SLA sweep completed")
	}
}
