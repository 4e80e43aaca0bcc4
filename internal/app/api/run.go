package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	notifierclient "github.com/medisupply/restock/internal/clients/http/notifier"
	invhttp "github.com/medisupply/restock/internal/domains/inventory/adapters/http"
	invmemory "github.com/medisupply/restock/internal/domains/inventory/adapters/memory"
	invobs "github.com/medisupply/restock/internal/domains/inventory/adapters/observability"
	invpostgres "github.com/medisupply/restock/internal/domains/inventory/adapters/persistence/postgres"
	invworkflows "github.com/medisupply/restock/internal/domains/inventory/adapters/workflows"
	invapp "github.com/medisupply/restock/internal/domains/inventory/application"
	invports "github.com/medisupply/restock/internal/domains/inventory/ports"
	"github.com/medisupply/restock/internal/platform/migrations"
	platformobservability "github.com/medisupply/restock/internal/platform/observability"
	platformpostgres "github.com/medisupply/restock/internal/platform/postgres"
)

// Run boots the restock HTTP API with observability, repositories, the
// notification client, the scheduler, and workflows wired.
func Run(ctx context.Context) error {
	const serviceName = "restock-api"
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	repo, cleanupRepo := buildInventoryRepository(ctx, cfg, logger)
	defer cleanupRepo()
	notifier := buildNotifier(cfg, logger)

	coreService := invapp.NewService(repo, notifier)
	service := invobs.New(
		coreService,
		invobs.WithLogger(logger),
		invobs.WithTracer(instruments.Tracer("internal.inventory.application")),
		invobs.WithMeter(instruments.Meter("internal.inventory.application")),
	)

	var workflows invports.WorkflowOrchestrator = invworkflows.NewInlineRestockWorkflows(service)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, running restock cycles inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		workflows = invworkflows.NewTemporalRestockWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	scheduler := invapp.NewIntervalScheduler(service, cfg.RestockInterval, logger)
	if cfg.RestockAutostart {
		scheduler.Start()
		defer scheduler.Stop()
		logger.Info("restock scheduler started", slog.Duration("interval", cfg.RestockInterval))
	} else {
		logger.Info("restock scheduler idle, start it via the schedule endpoint")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	invhttp.NewHandler(service, scheduler, workflows).RegisterRoutes(router)

	addr := ":" + cfg.Port
	logger.Info("restock API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("restock API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

func buildInventoryRepository(ctx context.Context, cfg Config, logger *slog.Logger) (invports.Repository, func()) {
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory inventory repository")
		return invmemory.NewRepository(), func() {}
	}
	db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to memory", slog.String("error", err.Error()))
		return invmemory.NewRepository(), func() {}
	}
	if err := migrations.Run(db); err != nil {
		logger.Warn("failed to run migrations, falling back to memory", slog.String("error", err.Error()))
		return invmemory.NewRepository(), func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to unwrap postgres connection, falling back to memory", slog.String("error", err.Error()))
		return invmemory.NewRepository(), func() {}
	}
	logger.Info("inventory repository configured with postgres")
	return invpostgres.NewRepository(db), func() { _ = sqlDB.Close() }
}

func buildNotifier(cfg Config, logger *slog.Logger) invports.Notifier {
	if cfg.NotifierBaseURL == "" {
		logger.Warn("NOTIFIER_BASE_URL not set, notifications will only be logged")
		return invmemory.NewLogNotifier(logger)
	}
	client, err := notifierclient.NewClient(cfg.NotifierBaseURL, notifierclient.WithTimeout(cfg.NotifierTimeout))
	if err != nil {
		logger.Warn("failed to build notification client, notifications will only be logged", slog.String("error", err.Error()))
		return invmemory.NewLogNotifier(logger)
	}
	logger.Info("notification gateway configured", slog.String("base_url", cfg.NotifierBaseURL))
	return client
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	logger := workerlog.NewStructuredLogger(effectiveLogger(instruments))
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    logger,
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
