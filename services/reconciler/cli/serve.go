package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	mongostore "github.com/SharanBarfa/ERM-server/internal/mongo"
	redisstore "github.com/SharanBarfa/ERM-server/internal/redis"
	"github.com/SharanBarfa/ERM-server/internal/tasks"
	"github.com/SharanBarfa/ERM-server/pkg/telemetry"
	"github.com/SharanBarfa/ERM-server/services/reconciler"
	"github.com/SharanBarfa/ERM-server/services/reconciler/config"
)

const leaderKey = "erm:reconciler:leader"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reconciler",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI")
	serveCmd.Flags().String("mongo-database", "erm", "MongoDB database name")
	serveCmd.Flags().String("redis-addr", "localhost:6379", "Redis address (host:port); empty runs without leader election")
	serveCmd.Flags().String("cron", reconciler.DefaultSchedule, "reconciliation schedule (standard cron expression)")
	serveCmd.Flags().Duration("leader-ttl", 30*time.Second, "leadership lease lifetime")
	serveCmd.Flags().Duration("lock-ttl", 10*time.Second, "per-project rollup lock lifetime in Redis")
	serveCmd.Flags().String("metrics-addr", ":9097", "Prometheus metrics server address")
	serveCmd.Flags().String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")

	bindFlag("mongo_uri", serveCmd.Flags(), "mongo-uri")
	bindFlag("mongo_database", serveCmd.Flags(), "mongo-database")
	bindFlag("redis_addr", serveCmd.Flags(), "redis-addr")
	bindFlag("cron", serveCmd.Flags(), "cron")
	bindFlag("leader_ttl", serveCmd.Flags(), "leader-ttl")
	bindFlag("lock_ttl", serveCmd.Flags(), "lock-ttl")
	bindFlag("metrics_addr", serveCmd.Flags(), "metrics-addr")
	bindFlag("otel_endpoint", serveCmd.Flags(), "otel-endpoint")
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	logger := buildLogger(cfg.LogLevel, "reconciler")
	instanceID := "reconciler-" + uuid.New().String()[:8]

	shutdownTracer, err := telemetry.InitTracer(context.Background(), "reconciler", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer shutdownTracer()

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	mongoClient, db, err := mongostore.Connect(initCtx, cfg.MongoURI, cfg.MongoDatabase)
	cancel()
	if err != nil {
		return fmt.Errorf("mongo: %w", err)
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	taskRepo := mongostore.NewTaskRepository(db)
	projectRepo := mongostore.NewProjectRepository(db)

	checks := []telemetry.ReadyCheck{
		{Name: "mongo", Check: func(ctx context.Context) error { return mongostore.Ping(ctx, mongoClient) }},
	}

	var locker tasks.Locker = tasks.NewKeyedMutex()
	var elector reconciler.Elector = reconciler.Solo{}
	if cfg.RedisAddr != "" {
		redisClient := redisstore.NewClient(cfg.RedisAddr)
		defer func() { _ = redisClient.Close() }()
		checks = append(checks, telemetry.ReadyCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
		locker = tasks.Chain(locker, redisstore.NewLocker(redisClient, cfg.LockTTL))
		elector = redisstore.NewLeader(redisClient, leaderKey, instanceID, cfg.LeaderTTL)
	} else {
		logger.Warn("redis_addr not set, running as the only reconciler")
	}

	rollup := tasks.NewRollup(taskRepo, projectRepo, locker, logger)
	rec, err := reconciler.New(cfg.Cron, elector, projectRepo, rollup,
		reconciler.WithLogger(logger),
		reconciler.WithHeartbeat(cfg.LeaderTTL/3),
	)
	if err != nil {
		return err
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	telemetry.StartMetricsServer(runCtx, cfg.MetricsAddr, logger, checks...)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-quit
		logger.Info("shutting down...")
		runCancel()
	}()

	logger.Info("reconciler starting",
		slog.String("instance_id", instanceID),
		slog.String("cron", cfg.Cron),
	)
	rec.Run(runCtx)
	logger.Info("stopped")
	return nil
}
