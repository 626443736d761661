package events

import (
	"context"
	"encoding/json"
	"sync"

	"bookstore/internal/domain/model"

	"go.uber.org/zap"
)

// Publisher hands records to the broker without blocking the caller.
// Failures surface only through the returned Delivery.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) *Delivery
	PublishEvent(ctx context.Context, topic string, ev model.DomainEvent) *Delivery
}

// Delivery is the completion handle of one publication.
type Delivery struct {
	once sync.Once
	done chan struct{}
	err  error
}

func NewDelivery() *Delivery {
	return &Delivery{done: make(chan struct{})}
}

// Resolved returns an already completed delivery.
func Resolved(err error) *Delivery {
	d := NewDelivery()
	d.Resolve(err)
	return d
}

// Resolve completes the delivery. Later calls are ignored.
func (d *Delivery) Resolve(err error) {
	d.once.Do(func() {
		d.err = err
		close(d.done)
	})
}

func (d *Delivery) Done() <-chan struct{} {
	return d.done
}

// Err is nil until the delivery has completed.
func (d *Delivery) Err() error {
	select {
	case <-d.done:
		return d.err
	default:
		return nil
	}
}

func (d *Delivery) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		return d.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MarshalEvent is the wire encoding shared by every Publisher.
func MarshalEvent(ev model.DomainEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// LogPublisher stands in for the broker when Kafka is switched off.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, topic, key string, value []byte) *Delivery {
	p.logger.Info("kafka disabled, event not published",
		zap.String("topic", topic),
		zap.String("key", key),
		zap.Int("bytes", len(value)),
	)
	return Resolved(nil)
}

func (p *LogPublisher) PublishEvent(ctx context.Context, topic string, ev model.DomainEvent) *Delivery {
	value, err := MarshalEvent(ev)
	if err != nil {
		p.logger.Error("marshal domain event", zap.String("event_id", ev.EventID), zap.Error(err))
		return Resolved(err)
	}
	return p.Publish(ctx, topic, ev.AggregateID, value)
}
