package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-ai-forge/internal/domain"
	"telegram-ai-forge/internal/domain/model"
	"telegram-ai-forge/internal/infra/metrics"
	"telegram-ai-forge/internal/usecase"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (b *Bot) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":  b.handleStartCommand,
		"new":    b.handleNewCommand,
		"status": b.handleStatusCommand,
		"queue":  b.handleQueueCommand,
		"help":   b.handleHelpCommand,

		// Wrapped in the adminOnly middleware.
		"debug": b.adminOnly(b.handleDebugCommand),
	}
}

func (b *Bot) adminOnly(next commandHandler) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		if _, isAdmin := b.adminIDsMap[message.From.ID]; !isAdmin {
			metrics.IncAdminCommand("/"+message.Command(), "unauthorized")
			return b.SendMessage(ctx, message.Chat.ID, b.translator.T("error_unauthorized"))
		}
		metrics.IncAdminCommand("/"+message.Command(), "authorized")
		return next(ctx, message)
	}
}

// handleStartCommand greets the user and installs the command menu.
func (b *Bot) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	_, isAdmin := b.adminIDsMap[message.From.ID]
	if err := b.SetMenuCommands(ctx, message.Chat.ID, isAdmin); err != nil {
		// Menu is cosmetic; never block the welcome on it.
		b.log.Warn().Err(err).Int64("tg_id", message.From.ID).Msg("failed to set menu commands")
	}

	name := message.From.UserName
	if name == "" {
		name = message.From.FirstName
	}
	return b.SendMessage(ctx, message.Chat.ID, fmt.Sprintf(b.translator.T("welcome_message"), name))
}

// handleNewCommand submits a generation request. The reply arrives
// asynchronously: the deliver callback runs once the pipeline is done.
func (b *Bot) handleNewCommand(ctx context.Context, message *tgbotapi.Message) error {
	request := strings.TrimSpace(message.CommandArguments())
	if request == "" {
		return b.SendMessage(ctx, message.Chat.ID, b.translator.T("usage_new"))
	}

	chatID := message.Chat.ID
	userID := strconv.FormatInt(message.From.ID, 10)
	input := model.JobInput{
		UserMessage: request,
		UserID:      userID,
		GuildID:     groupOf(message),
		ChannelID:   strconv.FormatInt(chatID, 10),
		Username:    message.From.UserName,
	}

	debug := b.facade.IsDebug(ctx, userID)

	var progress usecase.ProgressFunc
	if debug {
		progress = func(stage, detail string) {
			// Fire and forget: progress must never block the pipeline.
			go func() {
				_ = b.SendMessage(ctx, chatID, fmt.Sprintf(b.translator.T("job_stage"), stage, detail))
			}()
		}
	}

	deliver := func(dctx context.Context, outcome *usecase.PipelineOutcome, err error) {
		if err != nil {
			_ = b.SendMessage(dctx, chatID, fmt.Sprintf(b.translator.T("job_failed"), shortError(err)))
			return
		}
		files := 0
		if outcome.Job.Result != nil {
			files = len(outcome.Job.Result.Files)
		}

		caption := fmt.Sprintf(b.translator.T("job_done"), files)
		if debug {
			caption += "\n" + formatUsage(outcome.Metadata)
		}

		if outcome.ArchivePath == "" {
			_ = b.SendMessage(dctx, chatID, fmt.Sprintf(b.translator.T("job_done_no_zip"), files))
			return
		}
		if sendErr := b.SendDocument(dctx, chatID, outcome.ArchivePath, caption); sendErr != nil {
			b.log.Warn().Err(sendErr).Str("job_id", outcome.Job.ID).Msg("archive upload failed")
			_ = b.SendMessage(dctx, chatID, fmt.Sprintf(b.translator.T("job_done_no_zip"), files))
		}
	}

	ticket, err := b.facade.SubmitGeneration(ctx, input, progress, deliver)
	switch {
	case errors.Is(err, domain.ErrUserAlreadyQueued):
		return b.SendMessage(ctx, chatID, b.translator.T("already_queued"))
	case errors.Is(err, domain.ErrInvalidArgument):
		return b.SendMessage(ctx, chatID, b.translator.T("usage_new"))
	case err != nil:
		return b.SendMessage(ctx, chatID, b.translator.T("queue_busy"))
	}

	if ticket.Queued && ticket.Position > 0 {
		return b.SendMessage(ctx, chatID,
			fmt.Sprintf(b.translator.T("job_queued"), ticket.Position, ticket.Job.ID))
	}
	return b.SendMessage(ctx, chatID,
		fmt.Sprintf(b.translator.T("job_accepted"), ticket.Decision.ProjectType, ticket.Job.ID))
}

// handleStatusCommand shows the user's most recent job.
func (b *Bot) handleStatusCommand(ctx context.Context, message *tgbotapi.Message) error {
	userID := strconv.FormatInt(message.From.ID, 10)
	job, err := b.facade.LatestJob(userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return b.SendMessage(ctx, message.Chat.ID, b.translator.T("status_none"))
		}
		return b.SendMessage(ctx, message.Chat.ID, b.translator.T("error_generic"))
	}

	var sb strings.Builder
	sb.WriteString(b.translator.T("status_header") + "\n")
	sb.WriteString(fmt.Sprintf(b.translator.T("status_line"), job.ID, job.Status, job.ProjectType))
	if job.LastError != "" {
		sb.WriteString("\n" + fmt.Sprintf(b.translator.T("job_failed"), shortError(errors.New(job.LastError))))
	}
	if b.facade.IsDebug(ctx, userID) {
		sb.WriteString("\n" + formatUsage(b.facade.Summarize(job)))
	}
	return b.SendMessage(ctx, message.Chat.ID, sb.String())
}

// handleQueueCommand shows the live generation queue.
func (b *Bot) handleQueueCommand(ctx context.Context, message *tgbotapi.Message) error {
	entries := b.facade.QueueView()
	if len(entries) == 0 {
		return b.SendMessage(ctx, message.Chat.ID, b.translator.T("queue_empty"))
	}

	var sb strings.Builder
	sb.WriteString(b.translator.T("queue_header") + "\n")
	pos := 0
	for _, e := range entries {
		label := e.Label
		if e.Username != "" {
			label = "@" + e.Username + " (" + e.Label + ")"
		}
		if e.Active {
			sb.WriteString(fmt.Sprintf(b.translator.T("queue_entry_active"), label) + "\n")
			continue
		}
		pos++
		sb.WriteString(fmt.Sprintf(b.translator.T("queue_entry_waiting"), pos, label) + "\n")
	}
	return b.SendMessage(ctx, message.Chat.ID, strings.TrimRight(sb.String(), "\n"))
}

// handleHelpCommand sends the long-form help text.
func (b *Bot) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	return b.SendMessage(ctx, message.Chat.ID, b.translator.Help())
}

// handleDebugCommand toggles verbose diagnostics for the calling admin.
func (b *Bot) handleDebugCommand(ctx context.Context, message *tgbotapi.Message) error {
	arg := strings.ToLower(strings.TrimSpace(message.CommandArguments()))
	userID := strconv.FormatInt(message.From.ID, 10)

	switch arg {
	case "on":
		if err := b.facade.SetDebug(ctx, userID, true); err != nil {
			return b.SendMessage(ctx, message.Chat.ID, b.translator.T("error_generic"))
		}
		return b.SendMessage(ctx, message.Chat.ID, b.translator.T("debug_on"))
	case "off":
		if err := b.facade.SetDebug(ctx, userID, false); err != nil {
			return b.SendMessage(ctx, message.Chat.ID, b.translator.T("error_generic"))
		}
		return b.SendMessage(ctx, message.Chat.ID, b.translator.T("debug_off"))
	default:
		return b.SendMessage(ctx, message.Chat.ID, b.translator.T("usage_debug"))
	}
}

// groupOf reports the group chat id, or empty for direct messages.
func groupOf(message *tgbotapi.Message) string {
	if message.Chat == nil || message.Chat.IsPrivate() {
		return ""
	}
	return strconv.FormatInt(message.Chat.ID, 10)
}

func formatUsage(m model.AggregatedLLMMetadata) string {
	return fmt.Sprintf("calls=%d tokens=%d (cache %d) cost=$%.4f llm=%dms tools=%dms models=%s",
		m.TotalCalls, m.TotalTokens, m.CacheReadTokens, m.EstimatedCost,
		m.LLMLatencyMs, m.ToolLatencyMs, strings.Join(m.ModelsUsed, ","))
}

// shortError keeps user-facing failure messages readable; full detail
// stays in the job log.
func shortError(err error) string {
	s := err.Error()
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
