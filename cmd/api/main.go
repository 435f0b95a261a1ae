package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"surfside/internal/api"
	"surfside/internal/bot"
	"surfside/internal/config"
	"surfside/internal/database"
	"surfside/internal/domain"
	"surfside/internal/events"
	"surfside/internal/google"
	"surfside/internal/logging"
	"surfside/internal/metrics"
	"surfside/internal/repository"
	"surfside/internal/service"
	"surfside/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const sheetsCacheRefresh = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	location, err := cfg.Booking.Location()
	if err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, stateRepo := initStateRepository(ctx, cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	eventBus := events.NewEventBus()

	sheetsWorker := initSheetsWorker(ctx, cfg, db, redisClient, &logger)
	var syncWorker domain.SyncWorker
	var resyncer api.Resyncer
	if sheetsWorker != nil {
		syncWorker, resyncer = sheetsWorker, sheetsWorker
		go sheetsWorker.Start(ctx)
	}

	defaults, err := config.LoadInstructors(cfg.Booking.InstructorsFile)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.Booking.InstructorsFile).Msg("load instructors")
		return err
	}

	bookingService := service.NewBookingService(db, eventBus, syncWorker, cfg.Booking.MaxBookingDays, location, logging.Component(&logger, "bookings"))
	instructorService := service.NewInstructorService(db, eventBus, defaults, logging.Component(&logger, "instructors"))
	if err := instructorService.EnsureRoster(ctx); err != nil {
		logger.Error().Err(err).Msg("seed instructor roster")
		return err
	}

	formService := service.NewFormService(
		stateRepo, bookingService,
		cfg.Booking.RateLimitRequests, time.Duration(cfg.Booking.RateLimitWindow)*time.Second,
		logging.Component(&logger, "forms"),
	)

	auditService := service.NewAuditService(db, logging.Component(&logger, "audit"))
	defer auditService.Attach(eventBus)()

	botAPI := initTelegram(cfg, &logger)
	var sender domain.TelegramSender
	if botAPI != nil {
		sender = botAPI
	}
	notificationService := service.NewNotificationService(db, eventBus, sender, cfg.Notification, cfg.Telegram.StaffChatID, logging.Component(&logger, "notifications"))
	defer notificationService.Attach(eventBus)()

	if botAPI != nil && cfg.Telegram.StaffChatID != 0 {
		staffBot := bot.NewBot(bot.NewBotWrapper(botAPI), bookingService, instructorService, cfg.Telegram.StaffChatID, &logger)
		go staffBot.Start(ctx)
		defer staffBot.Stop()
	}

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(db, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	svc := api.Services{
		Bookings:      bookingService,
		Instructors:   instructorService,
		Forms:         formService,
		Audit:         auditService,
		Notifications: notificationService,
		Sync:          resyncer,
	}
	return startServers(ctx, cfg, svc, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	dirs := []string{filepath.Dir(cfg.Database.Path), cfg.Exports.Path}
	if cfg.Backup.Enabled && cfg.Backup.StoragePath != "" {
		dirs = append(dirs, cfg.Backup.StoragePath)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error().Err(err).Str("dir", dir).Msg("create directory")
			return err
		}
	}
	return nil
}

// initStateRepository prefers Redis for form drafts and rate limits and
// falls back to memory when Redis is absent or goes down.
func initStateRepository(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.StateRepository) {
	ttl := time.Duration(cfg.Booking.FormStateTTL) * time.Second
	memory := repository.NewMemoryStateRepository(ttl)
	if cfg.Redis.Address == "" {
		return nil, memory
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, form state starts in memory")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}

	primary := repository.NewRedisStateRepository(redisClient, ttl)
	return redisClient, repository.NewFailoverStateRepository(primary, memory, logging.Component(logger, "state"))
}

func initSheetsWorker(ctx context.Context, cfg *config.Config, db *database.DB, redisClient *redis.Client, logger *zerolog.Logger) *worker.SheetsWorker {
	if !cfg.Google.Enabled() {
		logger.Info().Msg("google sheets mirror disabled")
		return nil
	}

	sheetsService, err := google.NewSheetsService(ctx, cfg.Google, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := sheetsService.TestConnection(ctx); err != nil {
		if email, emailErr := google.ServiceAccountEmail(cfg.Google.GoogleCredentialsFile); emailErr == nil {
			logger.Warn().Err(err).Str("share_with", email).Msg("google sheets unreachable, share the spreadsheet with the service account")
		} else {
			logger.Warn().Err(err).Msg("google sheets unreachable")
		}
		return nil
	}
	if err := sheetsService.WarmUpCache(ctx); err != nil {
		logger.Warn().Err(err).Msg("sheets row cache warm up failed")
	}
	sheetsService.StartCacheRefresh(ctx, sheetsCacheRefresh)

	retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
	logger.Info().Msg("google sheets connected")
	return worker.NewSheetsWorker(db, sheetsService, redisClient, retryPolicy, logger)
}

func initTelegram(cfg *config.Config, logger *zerolog.Logger) *tgbotapi.BotAPI {
	if cfg.Telegram.BotToken == "" {
		return nil
	}
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, staff notifications disabled")
		return nil
	}
	botAPI.Debug = cfg.Telegram.Debug
	return botAPI
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServers(ctx context.Context, cfg *config.Config, svc api.Services, logger *zerolog.Logger) error {
	httpServer := api.NewHTTPServer(cfg.API, svc, logging.Component(logger, "http"))

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		var err error
		grpcServer, err = api.NewGRPCServer(&cfg.API, svc, logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Bool("grpc", grpcServer != nil).Msg("server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
