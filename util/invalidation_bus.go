// util/invalidation_bus.go

package util

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/relay/logging"
)

// Invalidator is anything that drops its cached redirects on demand.
type Invalidator interface {
	Invalidate()
}

// InvalidationMessage is the payload sent on the invalidation channel.
type InvalidationMessage struct {
	Origin string    `json:"origin"`
	Reason string    `json:"reason"`
	SentAt time.Time `json:"sentAt"`
}

// RedisInvalidationBus fans cache invalidations out to every instance
// subscribed to the same Redis channel.
type RedisInvalidationBus struct {
	client     *redis.Client
	channel    string
	instanceID string
}

func NewRedisInvalidationBus(client *redis.Client, channel string) *RedisInvalidationBus {
	return &RedisInvalidationBus{
		client:     client,
		channel:    channel,
		instanceID: uuid.New().String(),
	}
}

func (b *RedisInvalidationBus) InstanceID() string {
	return b.instanceID
}

// Publish announces that the redirect rules changed.
func (b *RedisInvalidationBus) Publish(ctx context.Context, reason string) error {
	payload, err := encodeInvalidation(InvalidationMessage{
		Origin: b.instanceID,
		Reason: reason,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return err
	}
	logger.Debug("Published redirect invalidation",
		zap.String("channel", b.channel),
		zap.String("reason", reason))
	return nil
}

// Run subscribes to the channel and invalidates target for every message sent
// by another instance. It returns when ctx is done.
func (b *RedisInvalidationBus) Run(ctx context.Context, target Invalidator) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	logger.Info("Listening for redirect invalidations",
		zap.String("channel", b.channel),
		zap.String("instanceID", b.instanceID))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(msg.Payload, target)
		}
	}
}

// handle reports whether the message caused an invalidation.
func (b *RedisInvalidationBus) handle(payload string, target Invalidator) bool {
	msg, err := decodeInvalidation(payload)
	if err != nil {
		logger.Warn("Ignoring malformed invalidation message", zap.Error(err))
		return false
	}
	if msg.Origin == b.instanceID {
		return false
	}
	target.Invalidate()
	logger.Info("Redirect cache invalidated by peer",
		zap.String("origin", msg.Origin),
		zap.String("reason", msg.Reason))
	return true
}

func encodeInvalidation(msg InvalidationMessage) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeInvalidation(payload string) (InvalidationMessage, error) {
	var msg InvalidationMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return msg, err
	}
	if msg.Origin == "" {
		return msg, errors.New("invalidation message without origin")
	}
	return msg, nil
}
