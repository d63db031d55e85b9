package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	redisAdapter "github.com/dumu-tech/wa-relay/internal/adapters/redis"
	"github.com/dumu-tech/wa-relay/internal/config"
	"github.com/dumu-tech/wa-relay/internal/core"
	"github.com/dumu-tech/wa-relay/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	if cfg.RedisPassword != "" {
		redisOpts.Password = cfg.RedisPassword
	}

	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Redis connection established")

	topic := redisAdapter.NewTopic(rdb, cfg.TopicChannel)
	queue := redisAdapter.NewQueue(rdb, cfg.QueueStream, cfg.QueueGroup, cfg.QueueConsumer,
		time.Duration(cfg.DedupWindow)*time.Second)
	fanout := service.NewFanout(queue, slogger)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		cancel()
	}()

	sub := topic.Subscribe(ctx)
	defer sub.Close()

	log.Printf("Fan-out consumer listening on channel %s", cfg.TopicChannel)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}

			var n core.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				slogger.Error("failed to parse notification, skipping", "error", err)
				continue
			}

			if err := fanout.HandleNotification(ctx, n); err != nil {
				// Queue infrastructure failure; the notification is lost but
				// the consumer keeps running.
				slogger.Error("failed to process notification", "notification_id", n.ID, "error", err)
			}
		}
	}
}
