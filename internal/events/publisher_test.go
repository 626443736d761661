package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookstore/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDelivery_ResolveOnce(t *testing.T) {
	d := NewDelivery()
	assert.NoError(t, d.Err())

	boom := errors.New("boom")
	d.Resolve(boom)
	d.Resolve(nil)

	select {
	case <-d.Done():
	default:
		t.Fatal("delivery should be done")
	}
	assert.ErrorIs(t, d.Err(), boom)
	assert.ErrorIs(t, d.Wait(context.Background()), boom)
}

func TestDelivery_WaitHonoursContext(t *testing.T) {
	d := NewDelivery()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := d.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewDomainEvent(t *testing.T) {
	ev, err := NewDomainEvent(model.EventOrderCreated, model.AggregateOrder, "42",
		OrderCreatedPayload{OrderNumber: "ORD-1", UserID: 7, TotalAmount: "22.50"}, "corr-1")
	require.NoError(t, err)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, "42", ev.AggregateID)
	assert.Equal(t, model.CurrentSchemaVersion, ev.SchemaVersion)
	assert.JSONEq(t, `{"orderNumber":"ORD-1","userId":7,"totalAmount":"22.50"}`, string(ev.Payload))

	other, err := NewDomainEvent(model.EventOrderCreated, model.AggregateOrder, "42", nil, "")
	require.NoError(t, err)
	assert.NotEqual(t, ev.EventID, other.EventID)
}

func TestLogPublisher_ResolvesImmediately(t *testing.T) {
	p := NewLogPublisher(zaptest.NewLogger(t))
	d := p.PublishEvent(context.Background(), TopicOrders, model.DomainEvent{AggregateID: "1"})
	assert.NoError(t, d.Wait(context.Background()))
}
