package redishub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"bookstore/internal/domain/model"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type published struct {
	channel string
	payload []byte
}

type fakeClient struct {
	sent []published
	err  error
}

func (f *fakeClient) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.sent = append(f.sent, published{channel: channel, payload: message.([]byte)})
	return redis.NewIntResult(1, nil)
}

func (f *fakeClient) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	panic("not used")
}

func TestHub_Channels(t *testing.T) {
	client := &fakeClient{}
	hub := NewHub(client, zaptest.NewLogger(t))

	n := model.Notification{ID: "n1", Type: model.NotificationGeneral, Title: "Hello"}
	require.NoError(t, hub.Broadcast(context.Background(), n))
	require.NoError(t, hub.SendToUser(context.Background(), 42, n))

	require.Len(t, client.sent, 2)
	assert.Equal(t, "notifications:general", client.sent[0].channel)
	assert.Equal(t, "notifications:user:42", client.sent[1].channel)

	var got model.Notification
	require.NoError(t, json.Unmarshal(client.sent[1].payload, &got))
	assert.Equal(t, "n1", got.ID)
}

func TestHub_PublishError(t *testing.T) {
	hub := NewHub(&fakeClient{err: errors.New("connection refused")}, zaptest.NewLogger(t))

	err := hub.Broadcast(context.Background(), model.Notification{ID: "n1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notifications:general")
}

func TestHub_PumpDecodesAndSkipsGarbage(t *testing.T) {
	hub := NewHub(&fakeClient{}, zaptest.NewLogger(t))

	in := make(chan *redis.Message, 3)
	out := make(chan model.Notification, 3)

	b, _ := json.Marshal(model.Notification{ID: "n2", Title: "Order Packed!"})
	in <- &redis.Message{Channel: GeneralChannel, Payload: "{not json"}
	in <- &redis.Message{Channel: UserChannel(1), Payload: string(b)}
	close(in)

	hub.pump(context.Background(), in, out)

	var got []model.Notification
	for n := range out {
		got = append(got, n)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "n2", got[0].ID)
}

func TestHub_PumpStopsOnCancel(t *testing.T) {
	hub := NewHub(&fakeClient{}, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan *redis.Message)
	out := make(chan model.Notification, 1)

	done := make(chan struct{})
	go func() {
		hub.pump(ctx, in, out)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pump did not stop")
	}
	_, ok := <-out
	assert.False(t, ok)
}
