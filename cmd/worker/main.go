package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	notifierclient "github.com/medisupply/restock/internal/clients/http/notifier"
	invmemory "github.com/medisupply/restock/internal/domains/inventory/adapters/memory"
	invobs "github.com/medisupply/restock/internal/domains/inventory/adapters/observability"
	invpostgres "github.com/medisupply/restock/internal/domains/inventory/adapters/persistence/postgres"
	invapp "github.com/medisupply/restock/internal/domains/inventory/application"
	invports "github.com/medisupply/restock/internal/domains/inventory/ports"
	restockworkflows "github.com/medisupply/restock/internal/durable/temporal/workflows/restock"
	"github.com/medisupply/restock/internal/platform/migrations"
	platformobservability "github.com/medisupply/restock/internal/platform/observability"
	platformpostgres "github.com/medisupply/restock/internal/platform/postgres"
	restockactivities "github.com/medisupply/restock/internal/platform/temporal/activities/restock"
)

func main() {
	ctx := context.Background()
	const serviceName = "restock-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	repo, cleanupRepo := buildInventoryRepository(ctx, logger)
	defer cleanupRepo()
	service := invobs.New(
		invapp.NewService(repo, buildNotifier(logger)),
		invobs.WithLogger(logger),
		invobs.WithTracer(instruments.Tracer("internal.inventory.application")),
		invobs.WithMeter(instruments.Meter("internal.inventory.application")),
	)
	activities := restockactivities.NewActivities(service)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, restockworkflows.CycleTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(restockworkflows.CycleWorkflow, workflow.RegisterOptions{Name: restockworkflows.CycleWorkflowName})
	w.RegisterActivityWithOptions(activities.RunCycle, activity.RegisterOptions{Name: restockactivities.RunCycleActivityName})

	logger.Info("worker listening", slog.String("taskQueue", restockworkflows.CycleTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

func buildInventoryRepository(ctx context.Context, logger *slog.Logger) (invports.Repository, func()) {
	dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	if dsn == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory inventory repository")
		return invmemory.NewRepository(), func() {}
	}
	db, err := platformpostgres.Connect(ctx, dsn)
	if err != nil {
		logger.Warn("worker failed to connect to postgres (falling back to memory)", slog.String("error", err.Error()))
		return invmemory.NewRepository(), func() {}
	}
	if err := migrations.Run(db); err != nil {
		logger.Warn("worker failed to run migrations (falling back to memory)", slog.String("error", err.Error()))
		return invmemory.NewRepository(), func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("worker failed to unwrap postgres connection (falling back to memory)", slog.String("error", err.Error()))
		return invmemory.NewRepository(), func() {}
	}
	logger.Info("worker inventory repository configured with postgres")
	return invpostgres.NewRepository(db), func() { _ = sqlDB.Close() }
}

func buildNotifier(logger *slog.Logger) invports.Notifier {
	baseURL := strings.TrimSpace(os.Getenv("NOTIFIER_BASE_URL"))
	if baseURL == "" {
		logger.Warn("NOTIFIER_BASE_URL not set, notifications will only be logged")
		return invmemory.NewLogNotifier(logger)
	}
	client, err := notifierclient.NewClient(baseURL)
	if err != nil {
		logger.Warn("failed to build notification client, notifications will only be logged", slog.String("error", err.Error()))
		return invmemory.NewLogNotifier(logger)
	}
	return client
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
