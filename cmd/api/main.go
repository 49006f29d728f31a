package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/careops/scheduler-api/internal/config"
	"github.com/careops/scheduler-api/internal/handler"
	"github.com/careops/scheduler-api/internal/handler/appointment"
	"github.com/careops/scheduler-api/internal/middleware"
	"github.com/careops/scheduler-api/internal/repository/postgres"
	"github.com/careops/scheduler-api/internal/router"
	directoryService "github.com/careops/scheduler-api/internal/service/directory"
	eventService "github.com/careops/scheduler-api/internal/service/event"
	schedulerService "github.com/careops/scheduler-api/internal/service/scheduler"
	"github.com/careops/scheduler-api/pkg/auth"
	"github.com/careops/scheduler-api/pkg/logger"
	"github.com/careops/scheduler-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logLevel := logger.InfoLevel
	if cfg.Debug {
		logLevel = logger.DebugLevel
	}
	appLogger := logger.NewLogger(&logger.Config{
		Level:      logLevel,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Pretty:     cfg.Debug,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	// Repositories
	appointmentRepo := postgres.NewAppointmentRepository(db)
	directoryRepo := postgres.NewDirectoryRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	appMetrics := metrics.New("scheduler")
	directorySvc := directoryService.NewService(directoryRepo)
	eventSvc := eventService.NewService(outboxRepo)
	schedulerSvc := schedulerService.NewService(appointmentRepo, directorySvc, eventSvc, appLogger, appMetrics)

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(auth.NewJWTVerifier(cfg.JWT.Secret))
	h := handler.NewHandler(db)
	appointmentHandler := appointment.NewHandler(schedulerSvc)

	r := router.NewRouter(authMiddleware, appointmentHandler, h, router.Config{
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSConfig:     cfg.CORS.ToMiddlewareConfig(),
		MetricsPrefix:  "scheduler_http",
		Debug:          cfg.Debug,
	})
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal(err, "server forced to shutdown")
	}

	appLogger.Info("server exited properly")
}
