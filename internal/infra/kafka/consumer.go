package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookstore/internal/config"
	"bookstore/internal/events"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DeadLetterSink receives records that exhausted their retries.
type DeadLetterSink interface {
	SendDeadLetter(ctx context.Context, msg *sarama.ConsumerMessage, cause error, attempts int) error
}

type groupFactory func() (sarama.ConsumerGroup, error)

// ConsumerGroup runs a fixed number of group members over the same topics.
// Offsets are committed only after a record was handled or dead-lettered.
type ConsumerGroup struct {
	newGroup groupFactory
	topics   []string
	members  int
	handler  *claimHandler
	logger   *zap.Logger
}

func NewConsumerGroup(cfg config.KafkaConfig, topics []string, h events.Handler, dlq DeadLetterSink, logger *zap.Logger) *ConsumerGroup {
	conf := NewSaramaConfig(cfg)
	return &ConsumerGroup{
		newGroup: func() (sarama.ConsumerGroup, error) {
			return sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, conf)
		},
		topics:  topics,
		members: cfg.Concurrency,
		handler: newClaimHandler(h, dlq, cfg.MaxRetries, cfg.RetryBackoff, logger),
		logger:  logger,
	}
}

// Run blocks until ctx is canceled or a member fails to start.
func (c *ConsumerGroup) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < c.members; i++ {
		member := i
		g.Go(func() error {
			return c.runMember(ctx, member)
		})
	}
	return g.Wait()
}

func (c *ConsumerGroup) runMember(ctx context.Context, member int) error {
	group, err := c.newGroup()
	if err != nil {
		return fmt.Errorf("failed to create consumer group member %d: %w", member, err)
	}
	defer group.Close()

	go func() {
		for err := range group.Errors() {
			c.logger.Error("Kafka consumer error", zap.Int("member", member), zap.Error(err))
		}
	}()

	c.logger.Info("Kafka consumer started", zap.Int("member", member), zap.Strings("topics", c.topics))
	for {
		if err := group.Consume(ctx, c.topics, c.handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			c.logger.Error("consume session ended", zap.Int("member", member), zap.Error(err))
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

type claimHandler struct {
	handler    events.Handler
	dlq        DeadLetterSink
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

func newClaimHandler(h events.Handler, dlq DeadLetterSink, maxRetries int, backoff time.Duration, logger *zap.Logger) *claimHandler {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &claimHandler{handler: h, dlq: dlq, maxRetries: maxRetries, backoff: backoff, logger: logger}
}

func (h *claimHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *claimHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *claimHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.process(sess.Context(), msg); err != nil {
				// neither handled nor parked: leave the offset so it is redelivered
				return err
			}
			sess.MarkMessage(msg, "")
			sess.Commit()
		case <-sess.Context().Done():
			return nil
		}
	}
}

// process retries with linear backoff, then parks the record on the DLQ.
// A nil return means the offset may be committed.
func (h *claimHandler) process(ctx context.Context, msg *sarama.ConsumerMessage) error {
	ctx = otel.GetTextMapPropagator().Extract(ctx, saramaHeaderCarrierConsumer(msg.Headers))
	ctx, span := otel.Tracer("bookstore/kafka").Start(ctx, "ConsumeMessage")
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.destination", msg.Topic),
		attribute.Int("messaging.partition", int(msg.Partition)),
		attribute.Int64("messaging.offset", msg.Offset),
	)

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= h.maxRetries; attempt++ {
		attempts = attempt
		lastErr = h.handler.HandleMessage(ctx, string(msg.Key), msg.Value)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, events.ErrPermanent) {
			break
		}
		if attempt < h.maxRetries {
			wait := time.Duration(attempt) * h.backoff
			h.logger.Warn("Retrying message handling",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", wait),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	h.logger.Error("message handling failed, sending to dlq",
		zap.String("topic", msg.Topic),
		zap.Int32("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
		zap.Int("attempts", attempts),
		zap.Error(lastErr),
	)
	if h.dlq == nil {
		return nil
	}
	if err := h.dlq.SendDeadLetter(ctx, msg, lastErr, attempts); err != nil {
		return fmt.Errorf("dlq forward at offset %d: %w", msg.Offset, err)
	}
	return nil
}
