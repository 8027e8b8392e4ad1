// File: internal/domain/ports/adapter/telegram.go
package adapter

import "context"

// BotGateway is the outbound chat surface: plain text and document
// delivery. Inbound updates are the gateway implementation's own
// concern; nothing above the adapter layer sees them.
type BotGateway interface {
	SendMessage(ctx context.Context, chatID int64, text string) error

	// SendDocument uploads a local file (the job archive) with a caption.
	SendDocument(ctx context.Context, chatID int64, path, caption string) error
}
