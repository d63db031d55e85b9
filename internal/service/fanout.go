package service

import (
	"context"
	"log/slog"

	"github.com/dumu-tech/wa-relay/internal/core"
	"github.com/dumu-tech/wa-relay/internal/webhook"
)

// Fanout forwards topic notifications onto the ordered queue. This is the
// only place where per-sender ordering is established: the sender phone
// extracted here becomes the queue's partition key, and the notification id
// its deduplication key.
type Fanout struct {
	queue core.OrderedQueue
	log   *slog.Logger
}

// NewFanout creates the fan-out service
func NewFanout(queue core.OrderedQueue, log *slog.Logger) *Fanout {
	return &Fanout{queue: queue, log: log}
}

// HandleNotification processes one topic delivery. Every problem with the
// record itself (wrong subject, unparseable payload, invalid envelope,
// missing sender) is a skip, never an error: only a queue infrastructure
// failure comes back to the caller.
func (f *Fanout) HandleNotification(ctx context.Context, n core.Notification) error {
	if n.Subject != core.NotificationSubject {
		f.log.Info("skipping notification with unexpected subject", "subject", n.Subject)
		return nil
	}

	env, err := webhook.Decode(n.Payload)
	if err != nil {
		f.log.Error("failed to parse webhook payload, skipping", "notification_id", n.ID, "error", err)
		return nil
	}
	if !env.Valid() {
		f.log.Warn("invalid WhatsApp webhook payload, skipping", "notification_id", n.ID)
		return nil
	}

	sender, ok := webhook.SenderInfo(env)
	if !ok || sender.Phone == "" {
		f.log.Error("could not extract sender phone number, skipping", "notification_id", n.ID)
		return nil
	}

	rec := core.QueueRecord{
		Sender:  sender.Phone,
		DedupID: n.ID,
		Payload: n.Payload,
	}
	if err := f.queue.Enqueue(ctx, rec); err != nil {
		f.log.Error("failed to enqueue record", "notification_id", n.ID, "sender", sender.Phone, "error", err)
		return err
	}

	f.log.Info("notification enqueued", "notification_id", n.ID, "sender", sender.Phone)
	return nil
}
