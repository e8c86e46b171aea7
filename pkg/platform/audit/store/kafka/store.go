// Package kafka publishes audit events to a Kafka topic as JSON, keyed by
// subject so one party's events stay ordered within a partition.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credverify/internal/platform/kafka/producer"
	audit "credverify/pkg/platform/audit"
	"credverify/pkg/platform/circuit"
)

// ErrCircuitOpen is reported by Health while publishing is failing.
var ErrCircuitOpen = errors.New("kafka audit sink circuit open")

// Producer is the subset of producer.Producer the store needs.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Store writes events to Kafka. Kafka is write-only from here, so listing is
// served by an optional local store that every event is also appended to.
//
// Publish failures are returned until the breaker opens. While it is open the
// store appends locally only, probing Kafka after each cooldown, and reports
// unhealthy.
type Store struct {
	producer Producer
	topic    string
	local    audit.Store
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLocalStore mirrors events into local for ListBySubject.
func WithLocalStore(local audit.Store) Option {
	return func(s *Store) {
		s.local = local
	}
}

// WithBreaker replaces the default breaker (5 failures to open, 30s
// cooldown, 3 probe successes to close).
func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Store) {
		s.breaker = b
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func New(p Producer, topic string, opts ...Option) *Store {
	s := &Store{
		producer: p,
		topic:    topic,
		breaker:  circuit.New("kafka-audit"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type wireEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject"`
	Resource  string    `json:"resource,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(wireEvent(event))
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	var publishErr error
	degraded := true
	if s.breaker.Allow() {
		publishErr = s.producer.Produce(ctx, &producer.Message{
			Topic: s.topic,
			Key:   []byte(event.Subject),
			Value: payload,
			Headers: map[string]string{
				"action":     event.Action,
				"request_id": event.RequestID,
			},
		})
		degraded = s.record(ctx, publishErr)
	}

	if s.local != nil {
		if err := s.local.Append(ctx, event); err != nil {
			return errors.Join(publishErr, err)
		}
	}
	if publishErr != nil && !degraded {
		return fmt.Errorf("publish audit event: %w", publishErr)
	}
	return nil
}

// record feeds the breaker and reports whether the sink is degraded.
func (s *Store) record(ctx context.Context, publishErr error) bool {
	if publishErr == nil {
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.InfoContext(ctx, "kafka audit sink recovered", "topic", s.topic)
		}
		return false
	}
	useFallback, change := s.breaker.RecordFailure()
	if change.Opened {
		s.logger.WarnContext(ctx, "kafka audit sink degraded, keeping events locally",
			"topic", s.topic,
			"error", publishErr,
		)
	}
	return useFallback
}

// Health fails while the breaker is open.
func (s *Store) Health(context.Context) error {
	if s.breaker.IsOpen() {
		return ErrCircuitOpen
	}
	return nil
}

func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	if s.local == nil {
		return []audit.Event{}, nil
	}
	return s.local.ListBySubject(ctx, subject)
}

// Decode parses a record value written by Append.
func Decode(value []byte) (audit.Event, error) {
	var w wireEvent
	if err := json.Unmarshal(value, &w); err != nil {
		return audit.Event{}, fmt.Errorf("decode audit event: %w", err)
	}
	return audit.Event(w), nil
}
