// Offline smoke run: wires the pipeline against the noop AI provider and
// the noop bot, generates one project end to end and prints the result.
// No API keys, no Telegram token, no Redis required.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"telegram-ai-forge/internal/application"
	"telegram-ai-forge/internal/config"
	"telegram-ai-forge/internal/domain/model"
	aiAdapters "telegram-ai-forge/internal/infra/adapters/ai"
	tele "telegram-ai-forge/internal/infra/adapters/telegram"
	"telegram-ai-forge/internal/infra/artifact"
	"telegram-ai-forge/internal/infra/logging"
	"telegram-ai-forge/internal/infra/metrics"
	"telegram-ai-forge/internal/infra/pricing"
	"telegram-ai-forge/internal/infra/state"
	"telegram-ai-forge/internal/infra/worker"
	"telegram-ai-forge/internal/routing"
	"telegram-ai-forge/internal/usecase"
)

func main() {
	// 1. Config from defaults, data under a throwaway dir
	base, err := os.MkdirTemp("", "forge-demo-*")
	if err != nil {
		log.Fatalf("tempdir: %v", err)
	}
	defer os.RemoveAll(base)

	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Log.Format = "console"
	cfg.Paths.WorkspaceBase = filepath.Join(base, "workspaces")
	cfg.Paths.OutputBase = filepath.Join(base, "output")
	cfg.Paths.LogBase = filepath.Join(base, "logs")
	cfg.Paths.ArchiveBase = filepath.Join(base, "archives")

	logger := logging.New(cfg.Log, true)
	metrics.MustRegister()

	// 2. Offline adapters: noop AI, noop bot, in-memory state
	client := aiAdapters.NewNoopClient()
	caps := aiAdapters.NewStaticCapabilities(nil)
	catalog := pricing.NewStaticCatalog(cfg.Pricing)
	store := state.NewMemoryStore()
	bot := tele.NewNoopBot()

	// 3. Pipeline wiring, same shape as cmd/app
	jobs := usecase.NewJobManager(cfg.Paths, logger)
	gen := usecase.NewCodeGenerator(cfg.AI, cfg.Codegen, client, caps, catalog, jobs, logger)
	pipe := usecase.NewGenerationPipeline(routing.NewRouter(), jobs, gen, artifact.NewWriter(logger), cfg.Paths, cfg.Codegen, logger)
	debugSvc := usecase.NewDebugService(store, cfg.Redis.TTL, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	queue := worker.NewGenerationQueue(logger)
	queue.Start(ctx)
	defer queue.Close()
	pool := worker.NewPool(2, logger)
	pool.Start(ctx)
	defer pool.Stop()

	facade := application.NewBotFacade(pipe, jobs, debugSvc, queue, pool, false, logger)

	// 4. Submit one heavyweight request and wait for delivery
	input := model.JobInput{
		UserMessage: "a small static html portfolio page",
		UserID:      "demo-user",
		ChannelID:   "demo-chat",
		Username:    "demo",
	}
	done := make(chan struct{})
	progress := func(stage, detail string) {
		fmt.Printf("stage %-12s %s\n", stage, detail)
	}
	deliver := func(dctx context.Context, outcome *usecase.PipelineOutcome, derr error) {
		defer close(done)
		if derr != nil {
			log.Printf("generation failed: %v", derr)
			return
		}
		fmt.Printf("job %s done: %d files copied\n", outcome.Job.ID, outcome.FilesCopied)
		for _, f := range outcome.Job.Result.Files {
			fmt.Printf("  - %s (%d bytes)\n", f.Path, len(f.Content))
		}
		fmt.Printf("archive: %s\n", outcome.ArchivePath)
		fmt.Printf("usage: %d calls, %d tokens, $%.4f estimated\n",
			outcome.Metadata.TotalCalls, outcome.Metadata.TotalTokens, outcome.Metadata.EstimatedCost)

		// Deliver through the gateway port the way the bot adapter would.
		if err := bot.SendDocument(dctx, 1001, outcome.ArchivePath, "demo archive"); err != nil {
			log.Printf("send document: %v", err)
		}
	}

	ticket, err := facade.SubmitGeneration(ctx, input, progress, deliver)
	if err != nil {
		log.Fatalf("submit: %v", err)
	}
	fmt.Printf("submitted job %s (type=%s queued=%v)\n", ticket.Job.ID, ticket.Decision.ProjectType, ticket.Queued)

	select {
	case <-done:
	case <-ctx.Done():
		log.Fatalf("timed out waiting for the job: %v", ctx.Err())
	}
}
