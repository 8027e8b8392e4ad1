package telegram

import (
	"context"
	"log"
	"time"

	"telegram-ai-forge/internal/domain/ports/adapter"
)

var _ adapter.BotGateway = (*NoopBot)(nil)

// NoopBot implements adapter.BotGateway for local/dev runs. It logs
// messages instead of calling Telegram.
type NoopBot struct{}

func NewNoopBot() *NoopBot {
	return &NoopBot{}
}

// SendMessage logs the message and simulates a small delay.
func (b *NoopBot) SendMessage(ctx context.Context, chatID int64, text string) error {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	log.Printf("[noop-telegram] To chat %d: %s\n", chatID, text)
	return nil
}

// SendDocument logs the upload instead of pushing bytes anywhere.
func (b *NoopBot) SendDocument(ctx context.Context, chatID int64, path, caption string) error {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	log.Printf("[noop-telegram] To chat %d: document %s (%s)\n", chatID, path, caption)
	return nil
}
