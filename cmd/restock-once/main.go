package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	notifierclient "github.com/medisupply/restock/internal/clients/http/notifier"
	invmemory "github.com/medisupply/restock/internal/domains/inventory/adapters/memory"
	invpostgres "github.com/medisupply/restock/internal/domains/inventory/adapters/persistence/postgres"
	invapp "github.com/medisupply/restock/internal/domains/inventory/application"
	invtypes "github.com/medisupply/restock/internal/domains/inventory/application/types"
	invports "github.com/medisupply/restock/internal/domains/inventory/ports"
	"github.com/medisupply/restock/internal/platform/migrations"
	platformpostgres "github.com/medisupply/restock/internal/platform/postgres"
)

// restock-once runs a single restock cycle and exits. It is meant for cron
// or Kubernetes CronJob deployments where no long-lived scheduler runs.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot run restock cycle")
	}
	if err := migrations.Run(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	service := invapp.NewService(invpostgres.NewRepository(db), buildNotifier(logger))
	report, err := service.CheckAndRestock(ctx, invtypes.RestockOptions{})
	if err != nil {
		log.Fatalf("restock cycle failed: %v", err)
	}
	logger.Info("restock cycle completed",
		slog.String("batch_id", report.BatchID),
		slog.Int("items_eligible", report.ItemsEligible),
		slog.Int("items_processed", report.ItemsProcessed),
		slog.Int64("total_value_cents", report.TotalRestockValueCents),
	)
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
