package core

import "context"

// TopicPublisher defines the interface for publishing webhook notifications
type TopicPublisher interface {
	Publish(ctx context.Context, n Notification) error
}

// OrderedQueue defines the interface for the per-sender ordered queue
type OrderedQueue interface {
	Enqueue(ctx context.Context, rec QueueRecord) error
	Read(ctx context.Context) ([]QueueRecord, error)
	Ack(ctx context.Context, id string) error
}

// SecretStore defines the interface for credential lookup by name
type SecretStore interface {
	Get(ctx context.Context, name string) (string, error)
}

// Processor defines the interface for the external reply generator.
// Implementations never fail: on any fault they return a fallback reply.
type Processor interface {
	GenerateReply(ctx context.Context, prompt string) string
}

// TextResponder defines the interface for sending outbound text messages
type TextResponder interface {
	SendText(ctx context.Context, to, body string, previewURL bool) SendResult
	SendReply(ctx context.Context, to, body, replyToID string, previewURL bool) SendResult
}
