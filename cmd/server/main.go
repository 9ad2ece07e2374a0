package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/suPer8Hu/tutor-platform/internal/agent"
	"github.com/suPer8Hu/tutor-platform/internal/ai"
	"github.com/suPer8Hu/tutor-platform/internal/config"
	"github.com/suPer8Hu/tutor-platform/internal/db"
	"github.com/suPer8Hu/tutor-platform/internal/httpapi"
	"github.com/suPer8Hu/tutor-platform/internal/httpapi/handlers"
	"github.com/suPer8Hu/tutor-platform/internal/lesson"
	"github.com/suPer8Hu/tutor-platform/internal/logger"
	"github.com/suPer8Hu/tutor-platform/internal/metrics"
	"github.com/suPer8Hu/tutor-platform/internal/planning"
	"github.com/suPer8Hu/tutor-platform/internal/space"
	"github.com/suPer8Hu/tutor-platform/internal/store/rabbitmq"
	"github.com/suPer8Hu/tutor-platform/internal/store/redisstore"
	"github.com/suPer8Hu/tutor-platform/internal/transcription"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	gdb, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal("db open failed", "driver", cfg.DBDriver, "error", err.Error())
	}
	if err := db.Migrate(gdb, lesson.Models()...); err != nil {
		log.Fatal("db migrate failed", "error", err.Error())
	}
	repo := lesson.NewRepo(gdb)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// pipeline lock: redis when reachable, in-process otherwise
	var locker transcription.Locker
	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := rds.Ping(ctx); err != nil {
		log.Warn("redis unavailable, using in-process pipeline lock", "addr", cfg.RedisAddr, "error", err.Error())
		_ = rds.Close()
		locker = redisstore.NewLocalLocker()
	} else {
		defer rds.Close()
		locker = rds
	}

	var events transcription.EventPublisher = rabbitmq.Noop{}
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Fatal("rabbit publisher failed", "queue", cfg.RabbitQueue, "error", err.Error())
		}
		defer pub.Close()
		events = pub
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Provider registry (engine resolves AI_PROVIDER per call)
	providers := ai.NewRegistry()
	providers.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		if strings.TrimSpace(model) == "" {
			model = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, model), nil
	})
	providers.Register("openrouter", func(ctx context.Context, model string) (ai.Provider, error) {
		if strings.TrimSpace(model) == "" {
			model = cfg.OpenRouterModel
		}
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, model, cfg.OpenRouterSiteURL, cfg.OpenRouterAppName), nil
	})
	engine := ai.NewEngine(providers, cfg.AIProvider, cfg.AIModel, cfg.AgentTimeout)
	agents := agent.New(engine, "", m, log)

	ts := transcription.NewService(repo, agents, log, transcription.Options{
		Locker:          locker,
		LockTTL:         cfg.LessonLockTTL,
		Events:          events,
		Metrics:         m,
		DownloadTimeout: cfg.DownloadTimeout,
	})
	ps := planning.NewService(agents, log)
	sp := space.NewClient(cfg.LessonspaceAPIURL, cfg.LessonspaceAPIKey, cfg.BaseURL, repo, log)

	h := handlers.NewHandler(ts, ps, sp, log)
	r := httpapi.NewRouter(h, cfg, log, reg)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server started", "addr", cfg.HTTPAddr, "ai_provider", cfg.AIProvider, "providers", providers.Names())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err.Error())
		}
	}()

	<-ctx.Done()
	log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err.Error())
	}
}
