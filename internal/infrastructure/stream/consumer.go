package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// ConsumerConfig holds configuration for the change-event consumer.
type ConsumerConfig struct {
	// Brokers is a list of broker addresses
	Brokers []string
	// GroupID is the consumer group ID. Each instance uses its own group so
	// every replica sees every change.
	GroupID string
	// InstanceID is this instance's origin id, used to skip its own events
	InstanceID string
	// SessionTimeout for group membership
	SessionTimeout time.Duration
}

// DefaultConsumerConfig returns defaults for the invalidation feed.
func DefaultConsumerConfig(instanceID string) ConsumerConfig {
	return ConsumerConfig{
		Brokers:        []string{"localhost:9092"},
		GroupID:        "dictionary-" + instanceID,
		InstanceID:     instanceID,
		SessionTimeout: 30 * time.Second,
	}
}

// EventHandler is called for each change event from another instance.
type EventHandler func(ctx context.Context, ev Event)

// Consumer tails the term-change topic and forwards peer events.
type Consumer struct {
	client  *kgo.Client
	config  ConsumerConfig
	handler EventHandler
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewConsumer creates a consumer over the term-change topic. The handler
// only sees events originating from other instances.
func NewConsumer(cfg ConsumerConfig, handler EventHandler, logger *zap.Logger) (*Consumer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if handler == nil {
		return nil, fmt.Errorf("event handler is required")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(TopicTermChanges),
		kgo.SessionTimeout(cfg.SessionTimeout),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		client:  client,
		config:  cfg,
		handler: handler,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start begins the poll loop.
func (c *Consumer) Start() {
	c.wg.Add(1)
	go c.poll()
	c.logger.Info("change-event consumer started",
		zap.String("group", c.config.GroupID),
		zap.String("topic", TopicTermChanges))
}

func (c *Consumer) poll() {
	defer c.wg.Done()
	for {
		fetches := c.client.PollFetches(c.ctx)
		if c.ctx.Err() != nil {
			return
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Warn("fetch error",
				zap.String("topic", topic),
				zap.Int32("partition", partition),
				zap.Error(err))
		})
		fetches.EachRecord(func(record *kgo.Record) {
			ev, err := DecodeEvent(record.Value)
			if err != nil {
				c.logger.Warn("malformed change event", zap.Error(err))
				return
			}
			if ev.Origin == c.config.InstanceID {
				return
			}
			c.handler(c.ctx, ev)
		})
	}
}

// Close stops polling and releases the client.
func (c *Consumer) Close() {
	c.cancel()
	c.wg.Wait()
	c.client.Close()
}
