package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/dispute-backend/internal/config"
	"github.com/ignatzorin/dispute-backend/internal/db"
	"github.com/ignatzorin/dispute-backend/internal/events"
	httpHandlers "github.com/ignatzorin/dispute-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/dispute-backend/internal/http/router"
	"github.com/ignatzorin/dispute-backend/internal/logger"
	"github.com/ignatzorin/dispute-backend/internal/metrics"
	"github.com/ignatzorin/dispute-backend/internal/repository"
	"github.com/ignatzorin/dispute-backend/internal/service"
	"github.com/ignatzorin/dispute-backend/internal/worker"
	"github.com/ignatzorin/dispute-backend/migrations"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.Env)
	log := logger.L()

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, migrations.FS); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Метрики в собственном реестре.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(dbConn.DB, "disputes"),
	)
	disputeMetrics := metrics.NewDisputeMetrics(registry)

	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaDisputeTopic)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Warn("main: ошибка закрытия kafka writer")
		}
	}()

	cache := service.NewCacheService(time.Minute)
	defer cache.Close()

	// Сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	disputeService := service.NewDisputeService(
		repository.NewDisputeRepository(dbConn),
		publisher,
		disputeMetrics,
		cache,
		service.DisputeConfig{
			StatsCacheTTL:   cfg.StatsCacheTTL,
			DefaultCurrency: cfg.DefaultCurrency,
		},
	)

	// HTTP хэндлеры.
	checks := map[string]httpHandlers.HealthCheck{}
	if len(cfg.KafkaBrokers) > 0 {
		brokers := cfg.KafkaBrokers
		checks["kafka"] = func(ctx context.Context) error { return events.Ping(ctx, brokers) }
	}
	disputeHandler := httpHandlers.NewDisputeHandler(disputeService)
	adminDisputeHandler := httpHandlers.NewAdminDisputeHandler(disputeService)
	healthHandler := httpHandlers.NewHealthHandler(dbConn, checks)

	engine := httpRouter.SetupRouter(
		cfg,
		tokenManager,
		disputeHandler,
		adminDisputeHandler,
		healthHandler,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	)

	// Фоновая проверка SLA.
	sweeper := worker.NewSLASweeper(disputeService, cfg.SLASweepInterval)
	sweeper.Start(ctx)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	}()

	log.WithField("port", cfg.HTTPPort).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}

	<-sweeper.Done()
	log.Info("main: сервер остановлен")
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.L().WithError(err).Error("main: ошибка закрытия базы")
	}
}
