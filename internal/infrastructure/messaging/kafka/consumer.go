package kafka

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/SeaCert-Compliance/internal/config"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// ErrAlreadyRunning is returned when Start is called on a running consumer.
var ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "kafka consumer is already running")

// ─────────────────────────────────────────────────────────────────────────────
// Consumer
// ─────────────────────────────────────────────────────────────────────────────

// ReaderInterface abstracts kafka.Reader so tests can substitute a fake.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
	Stats() kafka.ReaderStats
}

// ConsumerMetrics counts consumer activity.
type ConsumerMetrics struct {
	MessagesConsumed     atomic.Int64
	MessagesProcessed    atomic.Int64
	MessagesFailed       atomic.Int64
	MessagesRetried      atomic.Int64
	MessagesDeadLettered atomic.Int64
	Lag                  atomic.Int64
}

// Consumer runs a consumer-group fetch/handle/commit loop over the platform
// topics. Handlers are registered per topic; a message whose handler keeps
// failing after the retry budget goes to the dead-letter topic and the
// offset is committed so the partition keeps moving.
type Consumer struct {
	reader ReaderInterface
	logger logging.Logger

	maxRetries   int
	retryBackoff time.Duration
	dlqTopic     string
	dlqProducer  *Producer

	handlers map[string]common.MessageHandler
	mu       sync.RWMutex

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	metrics *ConsumerMetrics
}

// NewConsumer builds a consumer-group reader over the given topics. A
// dead-letter producer is created when the configuration names a DLQ topic.
func NewConsumer(cfg config.KafkaConfig, topics []string, logger logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "at least one kafka broker is required")
	}
	if cfg.GroupID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "kafka consumer group id is required")
	}
	if len(topics) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "at least one topic is required")
	}

	startOffset := kafka.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		GroupTopics:       topics,
		MinBytes:          1,
		MaxBytes:          10 * 1024 * 1024,
		MaxWait:           time.Second,
		SessionTimeout:    30 * time.Second,
		HeartbeatInterval: 3 * time.Second,
		StartOffset:       startOffset,
	})

	retryBackoff := cfg.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	c := &Consumer{
		reader:       reader,
		logger:       logger,
		maxRetries:   maxRetries,
		retryBackoff: retryBackoff,
		dlqTopic:     cfg.DLQTopic,
		handlers:     make(map[string]common.MessageHandler),
		metrics:      &ConsumerMetrics{},
	}

	if cfg.DLQTopic != "" {
		p, err := NewProducer(cfg, logger.Named("dlq"))
		if err != nil {
			return nil, err
		}
		c.dlqProducer = p
	}
	return c, nil
}

// NewConsumerWithReader wraps an existing reader. Used by tests.
func NewConsumerWithReader(reader ReaderInterface, logger logging.Logger) *Consumer {
	return &Consumer{
		reader:       reader,
		logger:       logger,
		maxRetries:   3,
		retryBackoff: time.Millisecond,
		handlers:     make(map[string]common.MessageHandler),
		metrics:      &ConsumerMetrics{},
	}
}

// Subscribe registers the handler for a topic, replacing any previous one.
func (c *Consumer) Subscribe(topic string, handler common.MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
	c.logger.Info("subscribed to topic", logging.String("topic", topic))
}

// Start launches the consume loop. Stop or context cancellation ends it.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.Info("kafka consumer started")
	return nil
}

// Stop cancels the consume loop, waits for it to drain, and closes the
// reader and the dead-letter producer.
func (c *Consumer) Stop() error {
	if !c.running.Swap(false) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	err := c.reader.Close()
	if c.dlqProducer != nil {
		if dlqErr := c.dlqProducer.Close(); err == nil {
			err = dlqErr
		}
	}
	c.logger.Info("kafka consumer stopped",
		logging.Int64("messages_processed", c.metrics.MessagesProcessed.Load()))
	return err
}

// GetMetrics returns a snapshot of the consumer counters.
func (c *Consumer) GetMetrics() *ConsumerMetrics {
	m := &ConsumerMetrics{}
	m.MessagesConsumed.Store(c.metrics.MessagesConsumed.Load())
	m.MessagesProcessed.Store(c.metrics.MessagesProcessed.Load())
	m.MessagesFailed.Store(c.metrics.MessagesFailed.Load())
	m.MessagesRetried.Store(c.metrics.MessagesRetried.Load())
	m.MessagesDeadLettered.Store(c.metrics.MessagesDeadLettered.Load())
	m.Lag.Store(c.metrics.Lag.Load())
	return m
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("failed to fetch message", logging.Err(err))
			// Back off so a broken broker connection does not spin.
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		c.metrics.MessagesConsumed.Add(1)
		c.metrics.Lag.Store(m.HighWaterMark - m.Offset)

		msg := toCommonMessage(m)

		c.mu.RLock()
		handler, ok := c.handlers[m.Topic]
		c.mu.RUnlock()

		if !ok {
			c.logger.Warn("no handler registered for topic", logging.String("topic", m.Topic))
			c.commit(ctx, m)
			continue
		}

		if err := c.processWithRetry(ctx, msg, handler); err != nil {
			c.metrics.MessagesFailed.Add(1)
		} else {
			c.metrics.MessagesProcessed.Add(1)
		}
		// Failed messages were dead-lettered or dropped; commit either way
		// so one poison message cannot stall the partition.
		c.commit(ctx, m)
	}
}

func (c *Consumer) commit(ctx context.Context, m kafka.Message) {
	if err := c.reader.CommitMessages(ctx, m); err != nil {
		c.logger.Error("failed to commit offset",
			logging.Err(err),
			logging.String("topic", m.Topic),
			logging.Int64("offset", m.Offset))
	}
}

// processWithRetry runs the handler with exponential backoff between
// attempts. When the budget is exhausted the message is forwarded to the
// dead-letter topic, annotated with the original topic and last error.
func (c *Consumer) processWithRetry(ctx context.Context, msg *common.Message, handler common.MessageHandler) error {
	err := handler(ctx, msg)
	if err == nil {
		return nil
	}

	backoff := c.retryBackoff
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		c.metrics.MessagesRetried.Add(1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		if err = handler(ctx, msg); err == nil {
			return nil
		}
		backoff *= 2
	}

	c.logger.Error("message processing failed after retries",
		logging.Err(err),
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Int("retries", c.maxRetries))

	if c.dlqProducer != nil && c.dlqTopic != "" {
		headers := make(map[string]string, len(msg.Headers)+2)
		for k, v := range msg.Headers {
			headers[k] = v
		}
		headers["original_topic"] = msg.Topic
		headers["error_message"] = err.Error()

		dlMsg := &common.ProducerMessage{
			Topic:   c.dlqTopic,
			Key:     msg.Key,
			Value:   msg.Value,
			Headers: headers,
		}
		if dlErr := c.dlqProducer.Publish(ctx, dlMsg); dlErr != nil {
			c.logger.Error("failed to publish to dead-letter topic", logging.Err(dlErr))
		} else {
			c.metrics.MessagesDeadLettered.Add(1)
		}
	}
	return err
}

func toCommonMessage(m kafka.Message) *common.Message {
	msg := &common.Message{
		Topic:     m.Topic,
		Key:       m.Key,
		Value:     m.Value,
		Partition: m.Partition,
		Offset:    m.Offset,
		Timestamp: m.Time,
		Headers:   make(map[string]string, len(m.Headers)),
	}
	for _, h := range m.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}
