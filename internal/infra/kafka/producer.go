package kafka

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"bookstore/internal/config"
	"bookstore/internal/domain/model"
	"bookstore/internal/events"
	"bookstore/internal/observability"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var (
	ErrProducerClosed = errors.New("kafka producer closed")
	ErrProducerBusy   = errors.New("kafka producer queue full")
)

const (
	defaultQueueSize    = 1024
	defaultFlushTimeout = 10 * time.Second
)

const (
	HeaderOriginalTopic     = "x-original-topic"
	HeaderOriginalPartition = "x-original-partition"
	HeaderOriginalOffset    = "x-original-offset"
	HeaderError             = "x-error"
	HeaderAttempts          = "x-attempts"
)

// pending travels in ProducerMessage.Metadata until the broker answers.
type pending struct {
	ctx      context.Context
	delivery *events.Delivery
	// failed records go to the outbox unless they already come from it
	record bool
	key    string
	value  []byte
}

// Producer wraps a sarama AsyncProducer. Publish never blocks: records go
// through a bounded queue that one goroutine feeds into sarama's Input, and a
// full queue fails the delivery with ErrProducerBusy. Completion goroutines
// resolve each Delivery from Successes/Errors.
type Producer struct {
	producer     sarama.AsyncProducer
	failures     events.FailureRecorder
	logger       *zap.Logger
	queue        chan *sarama.ProducerMessage
	stop         chan struct{}
	forwarded    chan struct{}
	flushTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewProducer(cfg config.KafkaConfig, logger *zap.Logger) (*Producer, error) {
	p, err := sarama.NewAsyncProducer(cfg.Brokers, NewSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Brokers), zap.Int("queue", cfg.ProducerQueue))
	return NewProducerFromAsync(p, cfg.ProducerQueue, logger), nil
}

// NewProducerFromAsync takes ownership of p. The config must return successes.
// queueSize <= 0 uses the default.
func NewProducerFromAsync(p sarama.AsyncProducer, queueSize int, logger *zap.Logger) *Producer {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	pr := &Producer{
		producer:     p,
		logger:       logger,
		queue:        make(chan *sarama.ProducerMessage, queueSize),
		stop:         make(chan struct{}),
		forwarded:    make(chan struct{}),
		flushTimeout: defaultFlushTimeout,
	}
	pr.wg.Add(2)
	go pr.forward()
	go pr.drainSuccesses()
	go pr.drainErrors()
	return pr
}

func (p *Producer) SetFailureRecorder(r events.FailureRecorder) {
	p.failures = r
}

func (p *Producer) Publish(ctx context.Context, topic, key string, value []byte) *events.Delivery {
	return p.dispatch(ctx, p.message(ctx, topic, key, value), true, false)
}

func (p *Producer) PublishEvent(ctx context.Context, topic string, ev model.DomainEvent) *events.Delivery {
	value, err := events.MarshalEvent(ev)
	if err != nil {
		p.logger.Error("marshal domain event", zap.String("event_id", ev.EventID), zap.Error(err))
		return events.Resolved(err)
	}
	return p.Publish(ctx, topic, ev.AggregateID, value)
}

// Send publishes and waits. Failures are returned, not recorded.
func (p *Producer) Send(ctx context.Context, topic, key string, value []byte) error {
	return p.dispatch(ctx, p.message(ctx, topic, key, value), false, true).Wait(ctx)
}

// SendDeadLetter copies a consumed record to the DLQ with its origin and failure in headers.
func (p *Producer) SendDeadLetter(ctx context.Context, msg *sarama.ConsumerMessage, cause error, attempts int) error {
	out := p.message(ctx, events.TopicDLQ, string(msg.Key), msg.Value)
	out.Headers = append(out.Headers,
		sarama.RecordHeader{Key: []byte(HeaderOriginalTopic), Value: []byte(msg.Topic)},
		sarama.RecordHeader{Key: []byte(HeaderOriginalPartition), Value: []byte(strconv.Itoa(int(msg.Partition)))},
		sarama.RecordHeader{Key: []byte(HeaderOriginalOffset), Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		sarama.RecordHeader{Key: []byte(HeaderError), Value: []byte(cause.Error())},
		sarama.RecordHeader{Key: []byte(HeaderAttempts), Value: []byte(strconv.Itoa(attempts))},
	)
	return p.dispatch(ctx, out, false, true).Wait(ctx)
}

func (p *Producer) message(ctx context.Context, topic, key string, value []byte) *sarama.ProducerMessage {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(value),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}

	carrier := make(saramaHeaderCarrier, 0)
	otel.GetTextMapPropagator().Inject(ctx, &carrier)
	msg.Headers = []sarama.RecordHeader(carrier)
	return msg
}

// wait is for synchronous senders only; Publish must never wait on a full queue.
func (p *Producer) dispatch(ctx context.Context, msg *sarama.ProducerMessage, record, wait bool) *events.Delivery {
	d := events.NewDelivery()
	key := ""
	if msg.Key != nil {
		if b, err := msg.Key.Encode(); err == nil {
			key = string(b)
		}
	}
	value, _ := msg.Value.Encode()
	msg.Metadata = &pending{ctx: ctx, delivery: d, record: record, key: key, value: value}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.fail(msg, ErrProducerClosed)
		return d
	}

	if !wait {
		select {
		case p.queue <- msg:
		default:
			p.fail(msg, ErrProducerBusy)
		}
		return d
	}

	select {
	case p.queue <- msg:
	case <-ctx.Done():
		p.fail(msg, ctx.Err())
	}
	return d
}

func (p *Producer) forward() {
	defer close(p.forwarded)
	for msg := range p.queue {
		select {
		case p.producer.Input() <- msg:
		case <-p.stop:
			p.fail(msg, ErrProducerClosed)
		}
	}
}

func (p *Producer) drainSuccesses() {
	defer p.wg.Done()
	for msg := range p.producer.Successes() {
		pd, ok := msg.Metadata.(*pending)
		if !ok {
			continue
		}
		observability.EventsPublishedTotal.WithLabelValues(msg.Topic, "success").Inc()
		observability.WithTrace(pd.ctx, p.logger).Debug("Event published",
			zap.String("topic", msg.Topic),
			zap.Int32("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
		)
		pd.delivery.Resolve(nil)
	}
}

func (p *Producer) drainErrors() {
	defer p.wg.Done()
	for perr := range p.producer.Errors() {
		p.fail(perr.Msg, perr.Err)
	}
}

func (p *Producer) fail(msg *sarama.ProducerMessage, err error) {
	pd, ok := msg.Metadata.(*pending)
	if !ok {
		p.logger.Error("kafka publish failed", zap.String("topic", msg.Topic), zap.Error(err))
		return
	}
	observability.EventsPublishedTotal.WithLabelValues(msg.Topic, "failure").Inc()
	observability.WithTrace(pd.ctx, p.logger).Error("kafka publish failed",
		zap.String("topic", msg.Topic),
		zap.String("key", pd.key),
		zap.Error(err),
	)
	if pd.record && p.failures != nil {
		p.failures.Record(pd.ctx, msg.Topic, pd.key, pd.value, err)
	}
	pd.delivery.Resolve(err)
}

// Close flushes queued and in-flight records and waits for their deliveries
// to resolve. Records still queued after the flush timeout fail with
// ErrProducerClosed.
func (p *Producer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	select {
	case <-p.forwarded:
	case <-time.After(p.flushTimeout):
		p.logger.Warn("kafka producer flush timed out", zap.Int("queued", len(p.queue)))
		close(p.stop)
		<-p.forwarded
	}

	p.producer.AsyncClose()
	p.wg.Wait()
	return nil
}
