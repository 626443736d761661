package redishub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"bookstore/internal/config"
	"bookstore/internal/domain/model"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	GeneralChannel    = "notifications:general"
	userChannelPrefix = "notifications:user:"

	subscriberBuffer = 16
)

func UserChannel(userID int64) string {
	return userChannelPrefix + strconv.FormatInt(userID, 10)
}

func Connect(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established", zap.String("addr", cfg.Addr))
	return rdb, nil
}

type pubSubClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Hub pushes notifications to connected browsers. Every API instance
// subscribes, so a push reaches the user whichever instance holds the stream.
type Hub struct {
	client pubSubClient
	logger *zap.Logger
}

func NewHub(client pubSubClient, logger *zap.Logger) *Hub {
	return &Hub{client: client, logger: logger}
}

func (h *Hub) Broadcast(ctx context.Context, n model.Notification) error {
	return h.publish(ctx, GeneralChannel, n)
}

func (h *Hub) SendToUser(ctx context.Context, userID int64, n model.Notification) error {
	return h.publish(ctx, UserChannel(userID), n)
}

func (h *Hub) publish(ctx context.Context, channel string, n model.Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := h.client.Publish(ctx, channel, b).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}

// Subscribe streams the general channel and the user's own channel until
// ctx is done. The returned channel is closed on exit.
func (h *Hub) Subscribe(ctx context.Context, userID int64) (<-chan model.Notification, error) {
	ps := h.client.Subscribe(ctx, GeneralChannel, UserChannel(userID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan model.Notification, subscriberBuffer)
	go func() {
		defer ps.Close()
		h.pump(ctx, ps.Channel(), out)
	}()
	return out, nil
}

// pump decodes messages into out. Slow readers lose messages rather than
// stalling the subscription.
func (h *Hub) pump(ctx context.Context, in <-chan *redis.Message, out chan<- model.Notification) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			var n model.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				h.logger.Warn("drop undecodable push message", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			select {
			case out <- n:
			default:
				h.logger.Warn("subscriber too slow, dropping notification", zap.String("channel", msg.Channel), zap.String("id", n.ID))
			}
		}
	}
}
