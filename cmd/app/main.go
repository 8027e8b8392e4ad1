// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"telegram-ai-forge/internal/application"
	"telegram-ai-forge/internal/config"
	"telegram-ai-forge/internal/domain/ports/adapter"
	"telegram-ai-forge/internal/domain/ports/repository"
	aiAdapters "telegram-ai-forge/internal/infra/adapters/ai"
	tele "telegram-ai-forge/internal/infra/adapters/telegram"
	"telegram-ai-forge/internal/infra/artifact"
	"telegram-ai-forge/internal/infra/i18n"
	"telegram-ai-forge/internal/infra/logging"
	"telegram-ai-forge/internal/infra/metrics"
	"telegram-ai-forge/internal/infra/pricing"
	"telegram-ai-forge/internal/infra/sched"
	"telegram-ai-forge/internal/infra/state"
	"telegram-ai-forge/internal/infra/web"
	"telegram-ai-forge/internal/infra/worker"
	"telegram-ai-forge/internal/routing"
	"telegram-ai-forge/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	// ---- State backend ----
	var store repository.StateStore
	var rateLimiter repository.RateLimiter
	if strings.EqualFold(cfg.State.Backend, "redis") {
		rs, err := state.NewRedisStore(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer rs.Close()
		store = rs
		rateLimiter = state.NewRedisRateLimiter(rs)
		logger.Info().Str("addr", cfg.Redis.URL).Msg("state backend: redis")
	} else {
		store = state.NewMemoryStore()
		rateLimiter = state.NewMemoryRateLimiter()
		logger.Info().Msg("state backend: memory")
	}

	// ---- AI providers ----
	byProvider := map[string]adapter.CompletionClient{}
	if cfg.AI.OpenAIKey != "" {
		c, err := aiAdapters.NewOpenAIClient(cfg.AI.OpenAIKey, cfg.AI.OpenAIBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai client")
		}
		byProvider["openai"] = c
	}
	if cfg.AI.GeminiKey != "" {
		c, err := aiAdapters.NewGeminiClient(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini client")
		}
		byProvider["gemini"] = c
	}
	if cfg.AI.GatewayKey != "" {
		c, err := aiAdapters.NewGatewayClient(cfg.AI.GatewayKey, cfg.AI.GatewayBaseURL, cfg.AI.RequestTimeout)
		if err != nil {
			logger.Fatal().Err(err).Msg("gateway client")
		}
		byProvider["gateway"] = c
	}
	if len(byProvider) == 0 {
		logger.Fatal().Msgf("no AI provider configured: set ai.openai_key, ai.gemini_key or ai.gateway_key in %s", *cfgPath)
	}
	var client adapter.CompletionClient = aiAdapters.NewMultiClient(cfg.AI.DefaultProvider, byProvider, cfg.AI.ModelProviders)
	client = aiAdapters.NewLimitedClient(client, cfg.AI.ConcurrentLimit)
	caps := aiAdapters.NewStaticCapabilities(cfg.AI.CacheModels)
	logger.Info().Str("default_model", cfg.AI.DefaultModel).Str("default_provider", cfg.AI.DefaultProvider).
		Int("providers", len(byProvider)).Msg("AI clients ready")

	// ---- Use cases ----
	catalog := pricing.NewStaticCatalog(cfg.Pricing)
	jobs := usecase.NewJobManager(cfg.Paths, logger)
	gen := usecase.NewCodeGenerator(cfg.AI, cfg.Codegen, client, caps, catalog, jobs, logger)
	artifacts := artifact.NewWriter(logger)
	router := routing.NewRouter()
	pipe := usecase.NewGenerationPipeline(router, jobs, gen, artifacts, cfg.Paths, cfg.Codegen, logger)
	debugSvc := usecase.NewDebugService(store, cfg.Redis.TTL, logger)

	// ---- Queue and pool ----
	queue := worker.NewGenerationQueue(logger)
	queue.Start(ctx)
	pool := worker.NewPool(cfg.Bot.Workers, logger)
	pool.Start(ctx)

	twoStage := cfg.Codegen.Pipeline == usecase.PipelineTwoStage
	facade := application.NewBotFacade(pipe, jobs, debugSvc, queue, pool, twoStage, logger)

	// ---- Telegram ----
	translator, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}
	bot, err := tele.NewBot(&cfg.Bot, facade, rateLimiter, translator, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}
	go func() {
		if err := bot.StartPolling(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Web server ----
	webSrv := web.NewServer(cfg.Web, cfg.Paths, facade, logger)
	go func() {
		if err := webSrv.Start(); err != nil {
			logger.Error().Err(err).Msg("web server")
		}
	}()

	// ---- Retention janitor ----
	janitor := sched.NewCleanupWorker(cfg.Paths, logger)
	go func() { _ = janitor.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	bot.StopPolling()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := webSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("web shutdown")
	}

	// Cancel in-flight generations, then wait for the queue drain and the
	// pool workers to observe it.
	cancel()
	queue.Close()
	pool.Stop()
	logger.Info().Msg("bye")
}
