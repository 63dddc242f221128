package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/medkom/dialog-gateway/internal/adapters/archive"
	"github.com/medkom/dialog-gateway/internal/adapters/attachmentstore"
	"github.com/medkom/dialog-gateway/internal/adapters/permission"
	"github.com/medkom/dialog-gateway/internal/adapters/renderer"
	apihttp "github.com/medkom/dialog-gateway/internal/api/http"
	archiveapp "github.com/medkom/dialog-gateway/internal/archive/app"
	dialogapp "github.com/medkom/dialog-gateway/internal/dialog/app"
	"github.com/medkom/dialog-gateway/internal/dialog/repository/postgres"
	ingestapp "github.com/medkom/dialog-gateway/internal/ingest/app"
	"github.com/medkom/dialog-gateway/internal/platform/config"
	"github.com/medkom/dialog-gateway/internal/platform/database"
	"github.com/medkom/dialog-gateway/internal/platform/leaderlock"
	"github.com/medkom/dialog-gateway/internal/platform/logger"
	"github.com/medkom/dialog-gateway/internal/platform/messagebus"
	publisherapp "github.com/medkom/dialog-gateway/internal/publisher/app"
)

const serviceName = "dialog_gateway"

// Advisory lock keys for the periodic jobs. Stable across releases; each
// job must keep its key forever so replicas on different versions never run
// the same job concurrently.
const (
	lockKeyUnansweredSweep = int64(4001)
	lockKeyRejectedSweep   = int64(4002)
	lockKeyForwardSweep    = int64(4003)
	lockKeyArchiveDispatch = int64(4004)
	lockKeyIdentityRecon   = int64(4005)
)

const shutdownTimeout = 10 * time.Second

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)
	appLogger.Info("starting service",
		"log_level", cfg.LogLevel,
		"kafka_brokers", cfg.KafkaBrokers,
		"http_port", cfg.HTTPPort,
	)

	if err := runMigrations(cfg, appLogger); err != nil {
		appLogger.Error("failed to run database migrations", "error", err)
		os.Exit(1)
	}

	dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("failed to initialize database pool", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("database connection pool initialized")

	// Repositories.
	messageRepo := postgres.NewMessageRepository(dbPool)
	statusRepo := postgres.NewStatusRepository(dbPool)
	attachmentRepo := postgres.NewAttachmentRepository(dbPool)
	identityRepo := postgres.NewIdentityChangeRepository(dbPool)

	// External service clients.
	httpClient := &http.Client{Timeout: 30 * time.Second}
	renderClient := renderer.NewHTTPRenderer(cfg.RendererURL, httpClient, appLogger)
	archiveClient := archive.NewHTTPArchiver(cfg.ArchiveURL, httpClient, appLogger)
	permissionClient := permission.NewHTTPChecker(cfg.PermissionURL, httpClient, appLogger)
	attachmentStore := attachmentstore.NewHTTPStore(cfg.AttachmentStoreURL, httpClient, appLogger)

	// Bus producer, shared by the API service and the sweeps.
	producer := messagebus.NewProducer(cfg.KafkaBrokerList(), appLogger)
	defer producer.Close()

	g, groupCtx := errgroup.WithContext(mainCtx)

	// Ingestion: one consumer + gateway per consumed topic.
	correlator := ingestapp.NewCorrelator(messageRepo, appLogger)
	dialogHandler := ingestapp.NewDialogMessageHandler(
		correlator, messageRepo, attachmentRepo, attachmentStore,
		cfg.TopicDialogMessage, appLogger.With("component", "dialog_message_handler"))
	statementHandler := ingestapp.NewStatementHandler(
		correlator, messageRepo, attachmentRepo, attachmentStore,
		cfg.TopicMedicalStatement, appLogger.With("component", "statement_handler"))
	receiptHandler := ingestapp.NewReceiptHandler(
		messageRepo, statusRepo,
		cfg.TopicDeliveryReceipt, appLogger.With("component", "receipt_handler"))
	identityHandler := ingestapp.NewIdentityChangeHandler(
		identityRepo,
		cfg.TopicIdentityChange, appLogger.With("component", "identity_handler"))

	startConsumer(g, groupCtx, cfg, dbPool, appLogger, cfg.TopicDialogMessage, dialogHandler.Handle)
	startConsumer(g, groupCtx, cfg, dbPool, appLogger, cfg.TopicMedicalStatement, statementHandler.Handle)
	startConsumer(g, groupCtx, cfg, dbPool, appLogger, cfg.TopicDeliveryReceipt, receiptHandler.Handle)
	startConsumer(g, groupCtx, cfg, dbPool, appLogger, cfg.TopicIdentityChange, identityHandler.Handle)

	// Periodic leader-gated jobs.
	lock := leaderlock.New(dbPool, appLogger)
	scheduler := publisherapp.NewScheduler(lock, appLogger)

	unansweredSweep := publisherapp.NewUnansweredSweep(
		messageRepo, producer, cfg.TopicUnanswered,
		cfg.UnansweredAfter, cfg.SweepBatchSize, appLogger.With("component", "unanswered_sweep"))
	rejectedSweep := publisherapp.NewRejectedSweep(
		messageRepo, statusRepo, producer, cfg.TopicRejected,
		cfg.SweepBatchSize, appLogger.With("component", "rejected_sweep"))
	forwardSweep := publisherapp.NewForwardSweep(
		messageRepo, producer, cfg.TopicForwardedInbound,
		cfg.SweepBatchSize, appLogger.With("component", "forward_sweep"))
	archiveDispatcher := archiveapp.NewDispatcher(
		messageRepo, attachmentRepo, archiveClient,
		cfg.SweepBatchSize, appLogger.With("component", "archive_dispatcher"))
	identityReconciler := publisherapp.NewIdentityReconciler(
		identityRepo, messageRepo,
		cfg.SweepBatchSize, appLogger.With("component", "identity_reconciler"))

	jobs := []publisherapp.Job{
		{Name: "unanswered_sweep", LockKey: lockKeyUnansweredSweep, InitialDelay: cfg.SweepInitialDelay, Interval: cfg.UnansweredSweepInterval, Run: unansweredSweep.Run},
		{Name: "rejected_sweep", LockKey: lockKeyRejectedSweep, InitialDelay: cfg.SweepInitialDelay, Interval: cfg.RejectedSweepInterval, Run: rejectedSweep.Run},
		{Name: "forward_sweep", LockKey: lockKeyForwardSweep, InitialDelay: cfg.SweepInitialDelay, Interval: cfg.ForwardSweepInterval, Run: forwardSweep.Run},
		{Name: "archive_dispatcher", LockKey: lockKeyArchiveDispatch, InitialDelay: cfg.SweepInitialDelay, Interval: cfg.ArchiveSweepInterval, Run: archiveDispatcher.Run},
		{Name: "identity_reconciler", LockKey: lockKeyIdentityRecon, InitialDelay: cfg.SweepInitialDelay, Interval: cfg.IdentitySweepInterval, Run: identityReconciler.Run},
	}
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			scheduler.Start(groupCtx, job)
			return nil
		})
	}

	// Case-handler HTTP API plus /metrics and /healthz.
	dialogService := dialogapp.NewDialogService(
		dbPool, messageRepo, statusRepo, attachmentRepo,
		renderClient, permissionClient, producer, cfg.TopicMessageRequest,
		appLogger.With("component", "dialog_service"))
	apiHandler := apihttp.NewDialogHandler(dialogService, appLogger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           apihttp.NewRouter(apiHandler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		appLogger.Info("http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	appLogger.Info("service components started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		appLogger.Info("received termination signal", "signal", sig.String())
	case <-groupCtx.Done():
		appLogger.Error("a critical component failed, initiating shutdown")
	}

	mainCancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("error during shutdown", "error", err)
	}
	appLogger.Info("service shutdown complete")
}

// startConsumer launches the poll / handle / commit loop for one topic. Each
// topic gets its own consumer group member and its own gateway so a stalled
// topic never holds back the others.
func startConsumer(
	g *errgroup.Group,
	ctx context.Context,
	cfg *config.Config,
	dbPool *pgxpool.Pool,
	logger *slog.Logger,
	topic string,
	handler ingestapp.RecordHandler,
) {
	consumer := messagebus.NewBatchConsumer(
		cfg.KafkaBrokerList(), cfg.KafkaGroupID, topic,
		cfg.IngestBatchSize, cfg.IngestPollTimeout, logger)
	gateway := ingestapp.NewGateway(dbPool, topic, handler, logger)
	g.Go(func() error {
		return consumer.Run(ctx, gateway.HandleBatch)
	})
}

func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations", "source", cfg.MigrationsPath)
	m, err := migrate.New(cfg.MigrationsPath, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close() //nolint:errcheck

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("database migrations up to date")
	return nil
}
