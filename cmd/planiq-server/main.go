// cmd/planiq-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"planiq/internal/common/config"
	"planiq/internal/common/database"
	"planiq/internal/common/llm"
	"planiq/internal/common/logger"
	"planiq/internal/common/observability"
	"planiq/internal/pipeline/executor"
	"planiq/internal/pipeline/expander"
	"planiq/internal/pipeline/intent"
	"planiq/internal/pipeline/orchestrator"
	"planiq/internal/pipeline/resolver"
	"planiq/internal/pipeline/response"
	"planiq/internal/pipeline/synthesizer"
	"planiq/internal/pipeline/visualization"
	"planiq/internal/server"
	"planiq/internal/session"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting Plan IQ server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New("planiq-server")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Graph (Gremlin) client ---
	// The graph is a degradable dependency: expansion falls back to empty
	// when it is down, so startup does not block on it.
	graph := database.NewGraph(cfg.Database.Graph)
	if err := graph.Ping(ctx); err != nil {
		zapLog.Warn("graph unreachable at startup, expansion will degrade", zap.Error(err))
	} else {
		zapLog.Info("Graph connected successfully")
	}

	completer := llm.NewClient(cfg.APIs)

	// --- Assemble the pipeline ---
	sessions := session.NewStore(redis.GetClient(), cfg.Session, log)

	orch := orchestrator.New(
		intent.NewHandler(intent.LoadConfig(), completer, log),
		resolver.NewHandler(resolver.LoadConfig(cfg), esClient.Client, log),
		expander.NewHandler(expander.LoadConfig(cfg), graph, log),
		synthesizer.NewHandler(synthesizer.LoadConfig(cfg), completer, log),
		executor.NewHandler(executor.LoadConfig(cfg), pg, redis.GetClient(), log),
		visualization.NewHandler(visualization.LoadConfig(), completer, log),
		response.NewHandler(response.LoadConfig(), completer, log),
		completer,
		sessions,
		log,
	)

	pingers := map[string]server.Pinger{
		"postgres":      pg.Ping,
		"redis":         redis.Ping,
		"graph":         graph.Ping,
		"elasticsearch": func(ctx context.Context) error { return esClient.Ping() },
	}

	srv := server.New(orch, pingers, obs, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Plan IQ server stopped gracefully")
}
