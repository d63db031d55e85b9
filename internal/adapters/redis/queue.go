package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dumu-tech/wa-relay/internal/core"
)

const (
	// DedupKeyPrefix is the prefix for deduplication marker keys
	DedupKeyPrefix = "dedup:"
	// DefaultDedupWindow bounds how long a notification id blocks duplicates
	DefaultDedupWindow = 5 * time.Minute

	readBlock = 5 * time.Second
	readCount = 10
)

// Queue is the per-sender ordered queue, backed by a Redis stream consumed
// through a single consumer group. Sequential group delivery gives FIFO per
// stream, which subsumes FIFO per sender; the partition key travels on every
// entry so the stream can be sharded by sender later without touching
// producers.
type Queue struct {
	client      *redis.Client
	stream      string
	group       string
	consumer    string
	dedupWindow time.Duration
}

// NewQueue creates a queue bound to a stream and consumer group
func NewQueue(client *redis.Client, stream, group, consumer string, dedupWindow time.Duration) *Queue {
	if dedupWindow <= 0 {
		dedupWindow = DefaultDedupWindow
	}
	return &Queue{
		client:      client,
		stream:      stream,
		group:       group,
		consumer:    consumer,
		dedupWindow: dedupWindow,
	}
}

// EnsureGroup creates the consumer group (and the stream, if missing).
// Safe to call on every start.
func (q *Queue) EnsureGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// Enqueue appends a record to the stream unless its deduplication id was
// already seen inside the dedup window, in which case the record is silently
// dropped.
func (q *Queue) Enqueue(ctx context.Context, rec core.QueueRecord) error {
	fresh, err := q.client.SetNX(ctx, DedupKeyPrefix+rec.DedupID, rec.Sender, q.dedupWindow).Result()
	if err != nil {
		return fmt.Errorf("failed to check dedup key: %w", err)
	}
	if !fresh {
		return nil
	}

	err = q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]interface{}{
			"sender":   rec.Sender,
			"dedup_id": rec.DedupID,
			"payload":  string(rec.Payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue record: %w", err)
	}
	return nil
}

// Read blocks for up to a few seconds waiting for new records. A timeout
// with no records returns an empty slice and no error.
func (q *Queue) Read(ctx context.Context) ([]core.QueueRecord, error) {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: q.consumer,
		Streams:  []string{q.stream, ">"},
		Count:    readCount,
		Block:    readBlock,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}

	var records []core.QueueRecord
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			rec := core.QueueRecord{ID: msg.ID}
			if sender, ok := msg.Values["sender"].(string); ok {
				rec.Sender = sender
			}
			if dedupID, ok := msg.Values["dedup_id"].(string); ok {
				rec.DedupID = dedupID
			}
			if payload, ok := msg.Values["payload"].(string); ok {
				rec.Payload = json.RawMessage(payload)
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// Ack acknowledges a delivered record
func (q *Queue) Ack(ctx context.Context, id string) error {
	if err := q.client.XAck(ctx, q.stream, q.group, id).Err(); err != nil {
		return fmt.Errorf("failed to ack record: %w", err)
	}
	return nil
}
