package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/spec-kit/support-chat/internal/api/http"
	"github.com/spec-kit/support-chat/internal/api/http/handlers"
	"github.com/spec-kit/support-chat/internal/auth"
	"github.com/spec-kit/support-chat/internal/config"
	"github.com/spec-kit/support-chat/internal/events"
	"github.com/spec-kit/support-chat/internal/guard"
	"github.com/spec-kit/support-chat/internal/hub"
	"github.com/spec-kit/support-chat/internal/observability"
	"github.com/spec-kit/support-chat/internal/persistence"
	"github.com/spec-kit/support-chat/internal/relay"
	"github.com/spec-kit/support-chat/internal/repository"
	"github.com/spec-kit/support-chat/internal/service"
	"github.com/spec-kit/support-chat/internal/storage"
	"github.com/spec-kit/support-chat/internal/worker"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	readiness := map[string]handlers.Pinger{}
	customerRepo, messageRepo := repositories(pg, logger)
	if pg.PoolHandle() != nil {
		readiness["postgres"] = pg
	}

	var (
		counters    guard.CounterStore
		memCounters *guard.MemoryStore
	)
	switch cfg.RateLimit.Backend {
	case "redis":
		rdb := persistence.NewRedis(cfg.Redis, logger)
		defer rdb.Close()
		readiness["redis"] = rdb
		counters = guard.NewRedisStore(rdb.Client, "ratelimit")
	default:
		memCounters = guard.NewMemoryStore()
		counters = memCounters
	}
	limiter := guard.NewLimiter(counters, cfg.RateLimit.Window(), cfg.RateLimit.Limits, nil)

	media, err := storage.NewMediaStore(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	if err != nil {
		return err
	}

	notificationHub := hub.New(cfg.Hub.Capacity)
	credentials := auth.NewManager(auth.Options{
		Secret:      cfg.Auth.SessionSecret,
		OTPTTL:      cfg.Auth.OTPTTL(),
		SessionTTL:  cfg.Auth.SessionTTL(),
		MaxAttempts: cfg.Auth.OTPMaxAttempts,
		Logger:      logger,
	})
	if cfg.Auth.ExposeOTP {
		logger.Warn("AUTH_EXPOSE_OTP is enabled; OTP codes are returned in API responses")
	}

	var (
		notifier relay.Notifier
		telegram *relay.Telegram
	)
	if cfg.Telegram.Enabled() {
		telegram, err = relay.NewTelegram(cfg.Telegram, logger)
		if err != nil {
			return fmt.Errorf("init telegram relay: %w", err)
		}
		notifier = telegram
	} else {
		logger.Warn("telegram credentials not set; relay notifications are only logged")
		notifier = relay.NewLogNotifier(logger)
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, notifier, logger))

	validator := guard.NewValidator(guard.DefaultLimits)
	metrics := observability.NewMetrics()

	chatService := service.NewChatService(service.ChatDependencies{
		CustomerRepo:    customerRepo,
		MessageRepo:     messageRepo,
		Hub:             notificationHub,
		Media:           media,
		Dispatcher:      dispatcher,
		Validator:       validator,
		ImageExtensions: cfg.Upload.ImageExtensions,
		VoiceExtensions: cfg.Upload.VoiceExtensions,
		Logger:          logger,
	})
	authService := service.NewAuthService(service.AuthDependencies{
		Credentials: credentials,
		Dispatcher:  dispatcher,
		ExposeOTP:   cfg.Auth.ExposeOTP,
		Logger:      logger,
	})
	adminService := service.NewAdminService(service.AdminDependencies{
		CustomerRepo: customerRepo,
		MessageRepo:  messageRepo,
		Hub:          notificationHub,
		Media:        media,
		Credentials:  credentials,
		Limiter:      limiter,
		Metrics:      metrics,
		Validator:    validator,
		Logger:       logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		BodyLimit:             int(cfg.Upload.MaxBytes) + 1<<20,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readiness),
		Chat:            handlers.NewChatHandler(chatService),
		Files:           handlers.NewFilesHandler(chatService),
		Admin:           handlers.NewAdminHandler(authService, adminService, cfg.Auth.CookieSecure),
		Stream:          handlers.NewStreamHandler(gctx, notificationHub, validator, cfg.Hub.Keepalive(), logger),
		AdminMiddleware: auth.NewAdminMiddleware(authService),
		Limiter:         limiter,
		UploadDir:       media.Root(),
		Logger:          logger,
	})

	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		return app.Listen(cfg.App.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})
	g.Go(func() error {
		return worker.RunSweeper(gctx, credentials, sweepInterval, logger)
	})
	if telegram != nil {
		g.Go(func() error { return telegram.Run(gctx) })
	}
	if memCounters != nil {
		g.Go(func() error {
			memCounters.Start()
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			memCounters.Stop()
			return nil
		})
	}

	return g.Wait()
}

// repositories picks Postgres when a pool is configured and the in-process
// store otherwise.
func repositories(pg *persistence.Postgres, logger *zap.Logger) (repository.CustomerRepository, repository.MessageRepository) {
	if pool := pg.PoolHandle(); pool != nil {
		return repository.NewCustomerRepository(pool), repository.NewMessageRepository(pool)
	}
	logger.Warn("running with in-memory storage; data is lost on restart")
	mem := repository.NewMemoryStore()
	return mem.Customers(), mem.Messages()
}

