// Package main is the transactional outbox poller. It drains unprocessed
// transaction events from PostgreSQL and publishes them to Kafka, so
// event delivery survives crashes between the DB commit and the publish.
package main

import (
	"context"
	"log"
	"strings"
	"time"

	"amstapay/internal/config"
	applog "amstapay/internal/logger"
	"amstapay/internal/repositories"

	"github.com/segmentio/kafka-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	config.LoadEnv()

	zlog, err := applog.NewLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	dsn := config.GetEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=amstapay port=5432 sslmode=disable")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{PrepareStmt: true})
	if err != nil {
		zlog.Fatalw("failed to open postgres", "error", err)
	}

	brokers := strings.Split(config.GetEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	topic := config.GetEnv("KAFKA_TOPIC", "amstapay.transactions")

	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	defer writer.Close() //nolint:errcheck

	outbox := repositories.NewOutboxRepository(db)

	interval := config.GetDurationEnv("POLL_INTERVAL", 1*time.Second)
	batchSize := config.GetIntEnv("POLL_BATCH_SIZE", 100)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	zlog.Infow("outbox poller started", "topic", topic, "interval", interval)
	for range ticker.C {
		ctx := context.Background()
		events, err := outbox.PollUnprocessed(ctx, batchSize)
		if err != nil {
			zlog.Errorw("failed to poll outbox", "error", err)
			continue
		}
		for _, evt := range events {
			msg := kafka.Message{
				// Key by reference so all events for one transaction land
				// on the same partition, preserving their order.
				Key:   []byte(evt.Reference),
				Value: []byte(evt.Payload),
				Headers: []kafka.Header{
					{Key: "event_type", Value: []byte(evt.EventType)},
					{Key: "aggregate", Value: []byte(evt.Aggregate)},
				},
			}
			if err := writer.WriteMessages(ctx, msg); err != nil {
				zlog.Errorw("failed to publish event", "id", evt.ID, "error", err)
				continue
			}
			if err := outbox.MarkProcessed(evt.ID); err != nil {
				zlog.Errorw("failed to mark event processed", "id", evt.ID, "error", err)
				continue
			}
			zlog.Infow("event published", "id", evt.ID, "type", evt.EventType, "reference", evt.Reference)
		}
	}
}
