package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/trendingvenues/termdict/internal/query"
)

// ProducerConfig holds configuration for the change-event producer.
type ProducerConfig struct {
	// Brokers is a list of broker addresses
	Brokers []string
	// InstanceID identifies this service instance in event origins
	InstanceID string
	// LingerMS is the time to wait before sending a batch
	LingerMS int64
	// MaxRetries is the maximum number of retries for failed sends
	MaxRetries int
	// RetryBackoffMS is the backoff time between retries
	RetryBackoffMS int64
}

// DefaultProducerConfig returns defaults sized for a low-volume mutation
// stream.
func DefaultProducerConfig(instanceID string) ProducerConfig {
	return ProducerConfig{
		Brokers:        []string{"localhost:9092"},
		InstanceID:     instanceID,
		LingerMS:       10,
		MaxRetries:     3,
		RetryBackoffMS: 100,
	}
}

// Producer publishes term change events.
type Producer struct {
	client   *kgo.Client
	instance string
	logger   *zap.Logger
}

// NewProducer creates a change-event producer.
func NewProducer(cfg ProducerConfig, logger *zap.Logger) (*Producer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ProducerLinger(time.Duration(cfg.LingerMS) * time.Millisecond),
		kgo.RecordRetries(cfg.MaxRetries),
		kgo.RetryBackoffFn(func(attempt int) time.Duration {
			return time.Duration(cfg.RetryBackoffMS) * time.Millisecond * time.Duration(attempt+1)
		}),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &Producer{client: client, instance: cfg.InstanceID, logger: logger}, nil
}

// PublishChange emits one event for a committed mutation. Failures are
// logged, not propagated: the mutation already succeeded and local
// invalidation already happened, peers merely catch up later.
func (p *Producer) PublishChange(ctx context.Context, ch query.Change) {
	ev := Event{
		Kind:      ch.Kind,
		TermID:    ch.TermID,
		Actor:     ch.Actor,
		Origin:    p.instance,
		Timestamp: time.Now().UTC(),
	}
	value, err := ev.Encode()
	if err != nil {
		p.logger.Error("encode change event", zap.Error(err))
		return
	}

	record := &kgo.Record{
		Topic: TopicTermChanges,
		Key:   []byte(ch.TermID),
		Value: value,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Warn("publish change event failed",
				zap.String("term_id", ch.TermID),
				zap.Error(err))
		}
	})
}

// Close flushes pending records and releases the client.
func (p *Producer) Close(ctx context.Context) error {
	if err := p.client.Flush(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	p.client.Close()
	return nil
}
