package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SharanBarfa/ERM-server/internal/activity"
	"github.com/SharanBarfa/ERM-server/internal/contacts"
	"github.com/SharanBarfa/ERM-server/internal/events"
	"github.com/SharanBarfa/ERM-server/internal/kafka"
	mongostore "github.com/SharanBarfa/ERM-server/internal/mongo"
	"github.com/SharanBarfa/ERM-server/internal/postgres"
	"github.com/SharanBarfa/ERM-server/internal/projects"
	redisstore "github.com/SharanBarfa/ERM-server/internal/redis"
	"github.com/SharanBarfa/ERM-server/internal/tasks"
	"github.com/SharanBarfa/ERM-server/pkg/telemetry"
	"github.com/SharanBarfa/ERM-server/services/api-gateway/config"
	"github.com/SharanBarfa/ERM-server/services/api-gateway/handler"
	"github.com/SharanBarfa/ERM-server/services/api-gateway/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("http-port", "8080", "HTTP server port")
	serveCmd.Flags().String("metrics-addr", ":9095", "Prometheus metrics server address")
	serveCmd.Flags().String("mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI")
	serveCmd.Flags().String("mongo-database", "erm", "MongoDB database name")
	serveCmd.Flags().String("redis-addr", "localhost:6379", "Redis address (host:port); empty disables cache, shared lock and rate limiting")
	serveCmd.Flags().String("kafka-brokers", "localhost:9092", "comma-separated Kafka broker addresses; empty disables activity publishing")
	serveCmd.Flags().String("activity-topic", activity.DefaultTopic, "Kafka topic for activity events")
	serveCmd.Flags().String("jwt-secret", "", "JWT signing secret (required)")
	serveCmd.Flags().String("trusted-proxies", "", "comma-separated proxy CIDRs whose forwarding headers are trusted for the client IP")
	serveCmd.Flags().String("completed-at-policy", "clear", "completedAt on re-open: clear | keep")
	serveCmd.Flags().Duration("task-cache-ttl", redisstore.DefaultTaskTTL, "task cache entry lifetime")
	serveCmd.Flags().Duration("lock-ttl", 10*time.Second, "per-project rollup lock lifetime in Redis")
	serveCmd.Flags().Int("contact-rate-limit", 5, "contact submissions allowed per IP per window")
	serveCmd.Flags().Duration("contact-rate-window", time.Hour, "contact rate limit window")
	serveCmd.Flags().String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")

	bindFlag("http_port", serveCmd.Flags(), "http-port")
	bindFlag("metrics_addr", serveCmd.Flags(), "metrics-addr")
	bindFlag("mongo_uri", serveCmd.Flags(), "mongo-uri")
	bindFlag("mongo_database", serveCmd.Flags(), "mongo-database")
	bindFlag("redis_addr", serveCmd.Flags(), "redis-addr")
	bindFlag("kafka_brokers", serveCmd.Flags(), "kafka-brokers")
	bindFlag("activity_topic", serveCmd.Flags(), "activity-topic")
	bindFlag("jwt_secret", serveCmd.Flags(), "jwt-secret")
	bindFlag("trusted_proxies", serveCmd.Flags(), "trusted-proxies")
	bindFlag("completed_at_policy", serveCmd.Flags(), "completed-at-policy")
	bindFlag("task_cache_ttl", serveCmd.Flags(), "task-cache-ttl")
	bindFlag("lock_ttl", serveCmd.Flags(), "lock-ttl")
	bindFlag("contact_rate_limit", serveCmd.Flags(), "contact-rate-limit")
	bindFlag("contact_rate_window", serveCmd.Flags(), "contact-rate-window")
	bindFlag("otel_endpoint", serveCmd.Flags(), "otel-endpoint")
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	if err := cfg.Validate(); err != nil {
		return err
	}
	trustedProxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}
	logger := buildLogger(cfg.LogLevel, "api-gateway")

	shutdownTracer, err := telemetry.InitTracer(context.Background(), "api-gateway", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer shutdownTracer()

	// ── MongoDB ───────────────────────────────────────────────────────────────
	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	mongoClient, db, err := mongostore.Connect(initCtx, cfg.MongoURI, cfg.MongoDatabase)
	if err == nil {
		err = mongostore.EnsureIndexes(initCtx, db)
	}
	cancel()
	if err != nil {
		return fmt.Errorf("mongo: %w", err)
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	taskRepo := mongostore.NewTaskRepository(db)
	projectRepo := mongostore.NewProjectRepository(db)
	directory := mongostore.NewDirectory(db)

	// ── PostgreSQL (activity log, read side) ──────────────────────────────────
	initCtx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := postgres.NewPool(initCtx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	activityRepo := postgres.NewRepository(pool)

	checks := []telemetry.ReadyCheck{
		{Name: "mongo", Check: func(ctx context.Context) error { return mongostore.Ping(ctx, mongoClient) }},
		{Name: "postgres", Check: pool.Ping},
	}

	// ── Kafka (activity publishing) ───────────────────────────────────────────
	var publisher tasks.Publisher
	if cfg.KafkaBrokers != "" {
		producer := kafka.NewProducer(strings.Split(cfg.KafkaBrokers, ","))
		defer func() { _ = producer.Close() }()
		publisher = activity.NewPublisher(producer, cfg.ActivityTopic)
	} else {
		logger.Warn("kafka_brokers not set, activity events are not published")
	}

	// ── Redis (cache, shared rollup lock, contact rate limit) ─────────────────
	taskOpts := []tasks.Option{
		tasks.WithLogger(logger),
		tasks.WithCompletedAtPolicy(tasks.ParseCompletedAtPolicy(cfg.CompletedAtPolicy)),
	}
	if publisher != nil {
		taskOpts = append(taskOpts, tasks.WithPublisher(publisher))
	}
	var locker tasks.Locker = tasks.NewKeyedMutex()
	contactLimit := func(next http.Handler) http.Handler { return next }
	if cfg.RedisAddr != "" {
		redisClient := redisstore.NewClient(cfg.RedisAddr)
		defer func() { _ = redisClient.Close() }()
		checks = append(checks, telemetry.ReadyCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})

		taskOpts = append(taskOpts, tasks.WithCache(redisstore.NewTaskCache(redisClient, cfg.TaskCacheTTL)))
		locker = tasks.Chain(locker, redisstore.NewLocker(redisClient, cfg.LockTTL))
		contactLimit = contactLimiter(redisClient, cfg, logger)
	} else {
		logger.Warn("redis_addr not set, running without task cache, shared lock and contact rate limit")
	}

	rollup := tasks.NewRollup(taskRepo, projectRepo, locker, logger)
	svc := handler.Services{
		Tasks:      tasks.NewService(taskRepo, directory, rollup, taskOpts...),
		Projects:   projects.NewService(projectRepo, taskRepo, directory, logger),
		Contacts:   contacts.NewService(mongostore.NewContactRepository(db), publisher, logger),
		Events:     events.NewService(mongostore.NewEventRepository(db), directory, publisher, logger),
		Activities: activityRepo,
	}
	restHandler := handler.NewREST(svc, logger, checks...)

	// ── HTTP server ───────────────────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(middleware.TrustedRealIP(trustedProxies))
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1MB limit
	restHandler.Mount(r, middleware.Authenticate([]byte(cfg.JWTSecret)), contactLimit)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ── signal handling ───────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	// ── Prometheus metrics ────────────────────────────────────────────────────
	telemetry.StartMetricsServer(runCtx, cfg.MetricsAddr, logger, checks...)

	go func() {
		logger.Info("api-gateway HTTP starting", slog.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-quit
	logger.Info("shutting down...")
	runCancel()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutCancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		logger.Error("HTTP shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("stopped")
	return nil
}

func contactLimiter(client *goredis.Client, cfg config.Config, logger *slog.Logger) handler.Middleware {
	limiter := redisstore.NewRateLimiter(client, "contact", cfg.ContactRateLimit, cfg.ContactRateWindow)
	return middleware.RateLimitByIP(limiter, int(cfg.ContactRateWindow.Seconds()), logger)
}
