package events

import (
	"context"
	"time"

	"bookstore/internal/domain/model"
	"bookstore/internal/observability"
	"bookstore/internal/repository"

	"go.uber.org/zap"
)

// Sender publishes one record and waits for the broker's answer.
type Sender interface {
	Send(ctx context.Context, topic, key string, value []byte) error
}

type OutboxOptions struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

const maxOutboxBackoff = 5 * time.Minute

// OutboxRelay keeps records the broker refused and replays them until they
// are accepted or run out of attempts. Dead rows are copied to the DLQ.
type OutboxRelay struct {
	repo   repository.OutboxRepository
	sender Sender
	opts   OutboxOptions
	logger *zap.Logger
	now    func() time.Time
}

func NewOutboxRelay(repo repository.OutboxRepository, sender Sender, opts OutboxOptions, logger *zap.Logger) *OutboxRelay {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 10
	}
	return &OutboxRelay{
		repo:   repo,
		sender: sender,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// SetSender is used when the sender itself reports failures back here.
func (r *OutboxRelay) SetSender(s Sender) {
	r.sender = s
}

// Record stores a failed publication. It outlives the request that caused it.
func (r *OutboxRelay) Record(ctx context.Context, topic, key string, value []byte, cause error) {
	ev := &model.OutboxEvent{
		Topic:       topic,
		MessageKey:  key,
		Payload:     value,
		Status:      model.OutboxStatusPending,
		Attempts:    1,
		LastError:   errString(cause),
		NextAttempt: r.now().Add(r.opts.Interval),
	}
	if err := r.repo.Enqueue(context.WithoutCancel(ctx), ev); err != nil {
		r.logger.Error("outbox enqueue failed, record lost",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return
	}
	observability.OutboxEventsTotal.WithLabelValues("enqueued").Inc()
}

func (r *OutboxRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	r.logger.Info("outbox relay started", zap.Duration("interval", r.opts.Interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return nil
		case <-ticker.C:
			if _, err := r.ProcessOnce(ctx); err != nil {
				r.logger.Error("outbox relay pass failed", zap.Error(err))
			}
		}
	}
}

// ProcessOnce replays one batch of due rows and reports how many were sent.
func (r *OutboxRelay) ProcessOnce(ctx context.Context) (int, error) {
	due, err := r.repo.ListDue(ctx, r.now(), r.opts.BatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, ev := range due {
		sendErr := r.sender.Send(ctx, ev.Topic, ev.MessageKey, ev.Payload)
		if sendErr == nil {
			if err := r.repo.MarkSent(ctx, ev.ID); err != nil {
				r.logger.Error("outbox mark sent", zap.Int64("outbox_id", ev.ID), zap.Error(err))
				continue
			}
			observability.OutboxEventsTotal.WithLabelValues("sent").Inc()
			sent++
			continue
		}

		attempts := ev.Attempts + 1
		if attempts >= r.opts.MaxAttempts {
			r.bury(ctx, ev, attempts, sendErr)
			continue
		}

		next := r.now().Add(r.backoff(attempts))
		if err := r.repo.MarkRetry(ctx, ev.ID, attempts, sendErr.Error(), next); err != nil {
			r.logger.Error("outbox mark retry", zap.Int64("outbox_id", ev.ID), zap.Error(err))
			continue
		}
		observability.OutboxEventsTotal.WithLabelValues("retry").Inc()
		r.logger.Warn("outbox replay failed",
			zap.Int64("outbox_id", ev.ID),
			zap.String("topic", ev.Topic),
			zap.Int("attempts", attempts),
			zap.Time("next_attempt", next),
			zap.Error(sendErr),
		)
	}
	return sent, nil
}

func (r *OutboxRelay) bury(ctx context.Context, ev model.OutboxEvent, attempts int, cause error) {
	if ev.Topic != TopicDLQ {
		if err := r.sender.Send(ctx, TopicDLQ, ev.MessageKey, ev.Payload); err != nil {
			r.logger.Error("outbox dlq forward failed", zap.Int64("outbox_id", ev.ID), zap.Error(err))
		}
	}
	if err := r.repo.MarkDead(ctx, ev.ID, attempts, cause.Error()); err != nil {
		r.logger.Error("outbox mark dead", zap.Int64("outbox_id", ev.ID), zap.Error(err))
		return
	}
	observability.OutboxEventsTotal.WithLabelValues("dead").Inc()
	r.logger.Error("outbox record dead",
		zap.Int64("outbox_id", ev.ID),
		zap.String("topic", ev.Topic),
		zap.Int("attempts", attempts),
		zap.Error(cause),
	)
}

// doubles per attempt, capped
func (r *OutboxRelay) backoff(attempts int) time.Duration {
	d := r.opts.Interval
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxOutboxBackoff {
			return maxOutboxBackoff
		}
	}
	return d
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
