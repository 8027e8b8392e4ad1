package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-ai-forge/internal/application"
	"telegram-ai-forge/internal/config"
	"telegram-ai-forge/internal/domain/ports/adapter"
	"telegram-ai-forge/internal/domain/ports/repository"
	"telegram-ai-forge/internal/infra/i18n"
	"telegram-ai-forge/internal/infra/metrics"
)

var _ adapter.BotGateway = (*Bot)(nil)

// Bot polls Telegram updates and delegates commands to the BotFacade.
// Updates fan out to a small worker group so one slow generation reply
// never stalls the poll loop.
type Bot struct {
	bot         *tgbotapi.BotAPI
	cfg         *config.BotConfig
	facade      *application.BotFacade
	rateLimiter repository.RateLimiter
	translator  *i18n.Translator
	log         *zerolog.Logger

	adminIDsMap   map[int64]struct{}
	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewBot(
	cfg *config.BotConfig,
	facade *application.BotFacade,
	rateLimiter repository.RateLimiter,
	translator *i18n.Translator,
	logger *zerolog.Logger,
) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	if translator == nil {
		return nil, errors.New("translator is nil")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	adminMap := map[int64]struct{}{}
	for _, id := range cfg.AdminIDs {
		adminMap[id] = struct{}{}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}

	l := logger.With().Str("component", "TelegramBot").Logger()
	return &Bot{
		bot:           api,
		cfg:           cfg,
		facade:        facade,
		rateLimiter:   rateLimiter,
		translator:    translator,
		log:           &l,
		adminIDsMap:   adminMap,
		updateWorkers: workers,
	}, nil
}

func (b *Bot) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	b.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < b.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					if err := b.handleUpdate(ctx, up); err != nil {
						b.log.Error().Err(err).Int("worker", id).Msg("update handler failed")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

func (b *Bot) StopPolling() {
	if b.cancelPolling != nil {
		b.cancelPolling()
	}
}

// SendMessage implements the gateway port with a plain text message.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.bot.Send(msg)
	return err
}

// SendDocument uploads a local file (the job archive) with a caption.
func (b *Bot) SendDocument(ctx context.Context, chatID int64, path, caption string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	_, err := b.bot.Send(doc)
	return err
}

// SetMenuCommands installs the per-chat command menu; admins get the
// /debug entry on top of the regular set.
func (b *Bot) SetMenuCommands(ctx context.Context, chatID int64, isAdmin bool) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	commands := []tgbotapi.BotCommand{
		{Command: "new", Description: "Generate a project from a description"},
		{Command: "status", Description: "Show your latest job"},
		{Command: "queue", Description: "Show the generation queue"},
		{Command: "help", Description: "How to use the bot"},
	}
	if isAdmin {
		commands = append(commands, tgbotapi.BotCommand{Command: "debug", Description: "Toggle diagnostics"})
	}
	scope := tgbotapi.NewBotCommandScopeChat(chatID)
	_, err := b.bot.Request(tgbotapi.NewSetMyCommandsWithScope(scope, commands...))
	return err
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	message := update.Message
	if message == nil || message.From == nil {
		return nil
	}

	command := "message"
	if message.IsCommand() {
		command = message.Command()
	}

	// Basic rate limiting per user per command.
	if b.rateLimiter != nil {
		key := userCommandKey(message.From.ID, command)
		allowed, err := b.rateLimiter.Allow(ctx, key, b.cfg.RateLimit, b.cfg.RateLimitWindow)
		if err != nil {
			b.log.Warn().Err(err).Msg("rate limit check failed")
		} else if !allowed {
			metrics.IncRateLimitTriggered()
			return b.SendMessage(ctx, message.Chat.ID, b.translator.T("rate_limited"))
		}
	}

	if !message.IsCommand() {
		// Free-form text is not a chat; nudge toward /new.
		if strings.TrimSpace(message.Text) != "" {
			return b.SendMessage(ctx, message.Chat.ID, b.translator.T("usage_new"))
		}
		return nil
	}

	metrics.IncBotCommand("/" + command)
	if handler, ok := b.commandRoutes()[command]; ok {
		return handler(ctx, message)
	}
	return b.SendMessage(ctx, message.Chat.ID, b.translator.T("usage_new"))
}

func userCommandKey(tgID int64, command string) string {
	return "rl:" + strconv.FormatInt(tgID, 10) + ":" + command
}
