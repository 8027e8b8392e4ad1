package application

import (
	"telegram-ai-forge/internal/infra/worker"
)

// GenerationQueueIface is the queue surface the facade uses for
// heavyweight job admission and status views.
type GenerationQueueIface interface {
	Enqueue(item *worker.Item) error
	HasUserInQueue(userID string) bool
	Position(userID string) int
	Snapshot() []worker.QueueEntry
}

// WorkerPoolIface accepts light job executions.
type WorkerPoolIface interface {
	Submit(task worker.Task) error
}
