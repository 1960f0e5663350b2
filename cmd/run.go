package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"skillarena/bot"
	"skillarena/config"
	"skillarena/database"
	"skillarena/events"
	"skillarena/gateway"
	"skillarena/handlers"
	"skillarena/infrastructure"
	"skillarena/infrastructure/observability"
	"skillarena/repository"
	"skillarena/service"
	"skillarena/storage"
	"skillarena/workers"
)

// ConfigureLogging applies LOG_LEVEL and switches to JSON output in production
func ConfigureLogging(cfg *config.Config) {
	log.SetOutput(os.Stdout)
	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Invalid LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// Load configuration
	cfg := config.Get()
	ConfigureLogging(cfg)

	log.WithField("environment", cfg.Environment).Info("Starting skillarena...")

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Initialize event bus and unit of work factory
	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize metrics
	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metrics.Attach(eventBus)

	// Forward domain events to NATS
	var natsClient *infrastructure.NATSClient
	if cfg.NATSEnabled {
		natsClient, err = startEventForwarder(ctx, cfg, eventBus, metrics)
		if err != nil {
			return err
		}
	}

	// Initialize external integrations
	paymentGateway := gateway.NewClient(cfg)

	var documents service.DocumentStore
	docStore, err := storage.NewDocumentStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize document storage: %w", err)
	}
	if docStore != nil {
		documents = docStore
	} else {
		log.Info("S3_BUCKET not set, verification document uploads disabled")
	}

	// Initialize services
	accountService := service.NewAccountService(uowFactory)
	walletService := service.NewWalletService(uowFactory)
	paymentService := service.NewPaymentService(uowFactory, paymentGateway)
	verificationService := service.NewVerificationService(uowFactory, documents)
	matchService := service.NewMatchService(uowFactory, cfg.PlatformFeePercent)
	supportService := service.NewSupportService(uowFactory)
	adminService := service.NewAdminService(uowFactory)
	gameService := service.NewGameService(uowFactory)
	log.WithField("platformFeePercent", cfg.PlatformFeePercent).Info("Services initialized successfully")

	// Initialize Discord admin notifier
	var notifier *bot.Bot
	if cfg.DiscordToken != "" {
		notifier, err = bot.New(bot.Config{
			Token:          cfg.DiscordToken,
			AdminChannelID: cfg.DiscordAdminChannelID,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Discord notifier: %w", err)
		}
		notifier.Attach(eventBus)
	}

	// Start background jobs
	scheduler, err := workers.NewScheduler(workers.Config{
		ReconcileInterval:  cfg.ReconcileInterval,
		ReconcileAfter:     cfg.ReconcileAfter,
		StaleMatchInterval: cfg.StaleMatchInterval,
		StaleMatchGrace:    cfg.StaleMatchGrace,
	}, paymentService, matchService, metrics)
	if err != nil {
		return err
	}
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// Start HTTP API
	app := handlers.NewApp(handlers.NewHandler(handlers.Services{
		Accounts:     accountService,
		Wallet:       walletService,
		Payments:     paymentService,
		Verification: verificationService,
		Matches:      matchService,
		Support:      supportService,
		Admin:        adminService,
		Games:        gameService,
	}), handlers.AppConfig{
		GatewayToken:   cfg.GatewayToken,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP API listening")
		serverErr <- app.Listen(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			log.WithError(err).Error("HTTP server stopped")
		}
	}

	// Cleanup resources
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}
	if err := scheduler.Shutdown(); err != nil {
		log.WithError(err).Error("Error stopping scheduler")
	}
	if notifier != nil {
		if err := notifier.Close(); err != nil {
			log.WithError(err).Error("Error closing Discord notifier")
		}
	}
	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS connection")
		}
	}
	if err := metrics.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	log.Info("Shutdown completed")
	return nil
}

func startEventForwarder(ctx context.Context, cfg *config.Config, bus *events.Bus, metrics *observability.MetricsProvider) (*infrastructure.NATSClient, error) {
	client := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	mapper := infrastructure.NewEventSubjectMapper()
	if err := client.EnsureStream(infrastructure.DomainEventStream, mapper.GetAllSubjects()); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ensure NATS stream: %w", err)
	}

	infrastructure.NewNATSEventForwarder(client, mapper).WithMetrics(metrics).Attach(bus)
	log.WithField("servers", cfg.NATSServers).Info("Forwarding domain events to NATS")
	return client, nil
}
