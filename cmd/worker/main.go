// Worker consumes domain events from Kafka and writes them to the structured log.
// Set KAFKA_BROKERS, EVENTS_KAFKA_TOPIC, and KAFKA_GROUP_ID.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"org-access-api/backend/internal/config"
	"org-access-api/backend/internal/platform/logging"
	"org-access-api/backend/internal/telemetry/consumer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.IsProduction(), cfg.Level())
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}

	reader := consumer.NewReader(brokers, cfg.EventsKafkaTopic, cfg.KafkaGroupID)
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("worker: consuming",
		zap.String("topic", cfg.EventsKafkaTopic),
		zap.String("group", cfg.KafkaGroupID),
	)
	if err := consumer.Run(ctx, reader, consumer.LogHandler(log.Named("events")), log); err != nil {
		log.Error("worker: stopped", zap.Error(err))
		return
	}
	log.Info("worker: stopped")
}
