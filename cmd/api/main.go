package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/okatech-org/consulat-scheduling/internal/config"
	appointmentHandler "github.com/okatech-org/consulat-scheduling/internal/handler/appointment"
	healthHandler "github.com/okatech-org/consulat-scheduling/internal/handler/health"
	"github.com/okatech-org/consulat-scheduling/internal/middleware"
	"github.com/okatech-org/consulat-scheduling/internal/repository/postgres"
	"github.com/okatech-org/consulat-scheduling/internal/router"
	"github.com/okatech-org/consulat-scheduling/internal/scheduling"
	appointmentService "github.com/okatech-org/consulat-scheduling/internal/service/appointment"
	"github.com/okatech-org/consulat-scheduling/internal/service/orgagent"
	"github.com/okatech-org/consulat-scheduling/pkg/auth"
	"github.com/okatech-org/consulat-scheduling/pkg/logger"
	"github.com/okatech-org/consulat-scheduling/pkg/messaging/redis"
	"github.com/okatech-org/consulat-scheduling/pkg/metrics"
	"github.com/okatech-org/consulat-scheduling/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	appMetrics := metrics.NewMetrics(prometheus.DefaultRegisterer, "consulat_scheduling")

	// Repositories
	appointmentRepo := postgres.NewAppointmentRepository(db)
	orgAgentRepo := postgres.NewOrgAgentRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	agentSvc := orgagent.NewService(orgAgentRepo)
	appointmentSvc := appointmentService.NewService(appointmentRepo, agentSvc, appointmentService.Options{
		Window: scheduling.Window{
			OpenHour:        cfg.Scheduling.OpenHour,
			CloseHour:       cfg.Scheduling.CloseHour,
			DefaultDuration: cfg.Scheduling.DefaultDuration,
		},
		StrictTransitions: cfg.Scheduling.StrictTransitions,
	}, appMetrics)

	// Middleware and handlers
	tokenSvc := auth.NewTokenService(cfg.JWT)
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)
	aptHandler := appointmentHandler.NewHandler(appointmentSvc)
	hlthHandler := healthHandler.NewHandler(db)

	r := router.NewRouter(authMiddleware, aptHandler, hlthHandler, router.Config{
		RateLimit:     rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:     cfg.RateLimit.Burst,
		CORSConfig:    middleware.DefaultCORSConfig(),
		MetricsPrefix: "consulat_scheduling_http",
	})
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Event publication
	broker, err := redis.NewRedisBroker(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	outboxProcessor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:     cfg.Outbox.BatchSize,
		PollInterval:  cfg.Outbox.PollInterval,
		RetryAttempts: cfg.Outbox.RetryAttempts,
		RetryDelay:    cfg.Outbox.RetryDelay,
	}, logger.NewLogger(nil), appMetrics)
	go outboxProcessor.Start(workerCtx)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("scheduling service started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
