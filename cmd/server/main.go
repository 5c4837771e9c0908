package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"sync_service/internal/cache"
	"sync_service/internal/config"
	"sync_service/internal/database/postgres"
	"sync_service/internal/domain"
	"sync_service/internal/handler"
	"sync_service/internal/kafka"
	"sync_service/internal/lock"
	"sync_service/internal/metrics"
	"sync_service/internal/middleware"
	"sync_service/internal/oauthstate"
	"sync_service/internal/proposal"
	"sync_service/internal/provider/calendar"
	"sync_service/internal/provider/course"
	"sync_service/internal/service"
	"sync_service/internal/tokenvault"
	"sync_service/pkg/logging"
	"sync_service/pkg/metadata"
)

type eventPublisher interface {
	service.EventPublisher
	Close() error
}

func main() {
	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("cannot create logger: %v", err))
	}
	logger := logging.New(zapLogger)
	defer logger.Sync()

	ctx = logging.ContextWithLogger(ctx, logger)

	cfg := config.GetConfig()

	var repoOpts []postgres.Option
	key, err := cfg.EncryptionKey()
	if err != nil {
		logger.Fatal(ctx, "invalid token encryption key", zap.Error(err))
	}
	if key != nil {
		cipher, err := tokenvault.NewCipher(key)
		if err != nil {
			logger.Fatal(ctx, "cannot create token cipher", zap.Error(err))
		}
		repoOpts = append(repoOpts, postgres.WithTokenCipher(cipher))
	}
	database, err := postgres.New(ctx, cfg, repoOpts...)
	if err != nil {
		logger.Fatal(ctx, "cannot create db", zap.Error(err))
	}

	var (
		locker    lock.Locker
		respCache cache.Cache
		redisConn *redis.Client
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal(ctx, "invalid REDIS_URL", zap.Error(err))
		}
		redisConn = redis.NewClient(opts)
		locker = lock.NewRedisLocker(redisConn, "sync_service:lock:")
		respCache = cache.NewRedisCache(redisConn, "sync_service:cache:")
	} else {
		logger.Warn(ctx, "REDIS_URL not set, locks and caches are process-local")
		locker = lock.NewLocalLocker()
		respCache = cache.NewMemoryCache()
	}

	var publisher eventPublisher = kafka.NopSender{}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		publisher = kafka.NewEventSender(brokers, cfg.KafkaSyncTopic, cfg.KafkaReminderTopic)
	} else {
		logger.Warn(ctx, "KAFKA_BROKERS not set, events are not published")
	}

	courseClient := course.NewClient(cfg.ProviderTimeout, course.WithRateLimit(cfg.CourseRateLimit, cfg.CourseRateBurst))
	calendarClient := calendar.NewClient(cfg.ProviderTimeout, calendar.WithEndpoints(cfg.CalendarEndpoint, cfg.TasksEndpoint))
	oauth := calendar.NewOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL,
		calendar.WithOAuthHTTPClient(&http.Client{Timeout: cfg.ProviderTimeout}))

	vault := tokenvault.New(database, locker, logger,
		tokenvault.WithRefresher(domain.ProviderGoogle, oauth),
		tokenvault.WithRefreshMargin(cfg.TokenRefreshMargin))

	syncService := service.NewSyncService(service.Deps{
		Repo:       database,
		Courses:    courseClient,
		Calendar:   calendarClient,
		Authorizer: oauth,
		Tokens:     vault,
		Generator:  proposal.NewClient(cfg.ProposalGeneratorURL, cfg.ProviderTimeout, nil),
		Publisher:  publisher,
		Signer:     oauthstate.NewSigner(cfg.OAuthStateSecret, oauthstate.DefaultTTL),
		Locker:     locker,
		Cache:      respCache,
	}, service.Settings{
		Concurrency:          cfg.SyncConcurrency,
		MaxAttempts:          cfg.ProviderMaxRetries,
		RetryDelay:           cfg.ProviderRetryDelay,
		CalendarID:           cfg.CalendarID,
		Location:             cfg.Location(),
		PushTasks:            cfg.CalendarPushTasks,
		SyncLockTTL:          cfg.SyncLockTTL,
		DefaultIntervalHours: cfg.DefaultSyncIntervalHours,
	}, logger)

	r := chi.NewRouter()
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(metrics.Middleware())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := database.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Route("/api/v1", func(r chi.Router) {
		handler.NewHandler(syncService).RegisterRoutes(r, middleware.RequireUser)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", ":"+cfg.GRPCHealthPort)
	if err != nil {
		logger.Fatal(ctx, "cannot create listener", zap.Error(err))
	}
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(
			metadata.NewMetadataUnaryInterceptor(),
			logging.NewUnaryLoggingInterceptor(logger),
		)),
		grpc.StreamInterceptor(grpc_middleware.ChainStreamServer(
			metadata.NewMetadataStreamInterceptor(),
			logging.NewStreamLoggingInterceptor(logger),
		)),
	)
	database.RegisterHealthService(ctx, grpcServer)

	logger.Info(ctx, "Starting servers...",
		zap.String("http_port", cfg.HTTPPort),
		zap.String("grpc_health_port", cfg.GRPCHealthPort))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "cannot start http server", zap.Error(err))
		}
	}()
	go func() {
		if err := grpcServer.Serve(listener); err != nil {
			logger.Fatal(ctx, "failed to serve", zap.Error(err))
		}
	}()

	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		runWorkers(ctx,
			NewAutoSyncWorker(syncService, logger, cfg.AutoSyncPollInterval),
			NewReminderWorker(syncService, logger, cfg.ReminderPollInterval, cfg.ReminderWindow),
		)
	}()

	<-ctx.Done()
	logger.Info(ctx, "Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "http server forced to shutdown", zap.Error(err))
	}

	shutdownDone := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(shutdownDone)
	}()
	select {
	case <-shutdownDone:
	case <-shutdownCtx.Done():
		logger.Info(ctx, "GracefulStop timed out, forcing Stop")
		grpcServer.Stop()
	}

	select {
	case <-workersDone:
	case <-shutdownCtx.Done():
		logger.Warn(ctx, "workers did not stop in time")
	}

	if err := publisher.Close(); err != nil {
		logger.Error(ctx, "failed to close event sender", zap.Error(err))
	}
	if redisConn != nil {
		if err := redisConn.Close(); err != nil {
			logger.Error(ctx, "failed to close redis", zap.Error(err))
		}
	}
	database.Close()
	logger.Info(ctx, "Server Stopped")
}
