package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	procAdapter "github.com/dumu-tech/wa-relay/internal/adapters/processor"
	redisAdapter "github.com/dumu-tech/wa-relay/internal/adapters/redis"
	"github.com/dumu-tech/wa-relay/internal/adapters/whatsapp"
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

	queue := redisAdapter.NewQueue(rdb, cfg.QueueStream, cfg.QueueGroup, cfg.QueueConsumer,
		time.Duration(cfg.DedupWindow)*time.Second)
	if err := queue.EnsureGroup(ctx); err != nil {
		log.Fatalf("Failed to create consumer group: %v", err)
	}

	secrets := redisAdapter.NewSecretStore(rdb)
	processor := procAdapter.NewClient(cfg.ProcessorURL, slogger)

	factory := func(token, phoneNumberID string) core.TextResponder {
		return whatsapp.NewClient(token, phoneNumberID, cfg.WhatsAppAPIVersion, slogger)
	}
	responder := service.NewResponder(secrets, processor, factory, cfg.TokenSecretName, slogger)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		cancel()
	}()

	log.Printf("Responder consuming stream %s as %s/%s", cfg.QueueStream, cfg.QueueGroup, cfg.QueueConsumer)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		records, err := queue.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slogger.Error("failed to read queue", "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, rec := range records {
			responder.HandleRecord(ctx, rec)
			// Records are acked regardless of outcome: skips are final, there
			// is no requeue.
			if err := queue.Ack(ctx, rec.ID); err != nil {
				slogger.Error("failed to ack record", "record_id", rec.ID, "error", err)
			}
		}
	}
}
