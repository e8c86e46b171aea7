// Package main tails the credverify audit topic and prints one line per event.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/twmb/franz-go/pkg/kgo"

	"credverify/internal/platform/config"
	"credverify/internal/platform/logger"
	kafkaaudit "credverify/pkg/platform/audit/store/kafka"
)

func main() {
	cfg := config.FromEnv()
	brokers := flag.String("brokers", cfg.Kafka.Brokers, "Comma-separated Kafka brokers")
	topic := flag.String("topic", cfg.Kafka.AuditTopic, "Audit topic")
	subject := flag.String("subject", "", "Only print events for this subject")
	fromStart := flag.Bool("from-start", false, "Read the topic from the beginning")
	flag.Parse()

	log := logger.New(cfg.LogLevel)
	if strings.TrimSpace(*brokers) == "" {
		log.Error("no brokers: set -brokers or KAFKA_BROKERS")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tail(ctx, log, *brokers, *topic, *subject, *fromStart); err != nil {
		log.Error("audit tail failed", "error", err)
		os.Exit(1)
	}
}

func tail(ctx context.Context, log *slog.Logger, brokers, topic, subject string, fromStart bool) error {
	offset := kgo.NewOffset().AtEnd()
	if fromStart {
		offset = kgo.NewOffset().AtStart()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(brokers, ",")...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(offset),
	)
	if err != nil {
		return fmt.Errorf("create kafka consumer: %w", err)
	}
	defer client.Close()

	log.Info("tailing audit events", "topic", topic, "subject", subject)
	for {
		fetches := client.PollFetches(ctx)
		if ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(t string, p int32, err error) {
			log.Warn("fetch error", "topic", t, "partition", p, "error", err)
		})
		fetches.EachRecord(func(r *kgo.Record) {
			if subject != "" && string(r.Key) != subject {
				return
			}
			event, err := kafkaaudit.Decode(r.Value)
			if err != nil {
				log.Warn("undecodable audit record", "offset", r.Offset, "error", err)
				return
			}
			fmt.Printf("%s  %-28s %-40s outcome=%s actor=%s request_id=%s\n",
				event.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
				event.Action, event.Subject, event.Outcome, event.Actor, event.RequestID)
		})
	}
}
