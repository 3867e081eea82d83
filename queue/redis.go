package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"payment-service/logging"
	"payment-service/models"
)

// RedisPublisher appends orders to a Redis list; consumers pop from the head.
type RedisPublisher struct {
	client *redis.Client
	key    string
}

// NewRedisPublisher connects to redisURL and verifies the server answers.
func NewRedisPublisher(redisURL string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisPublisher{client: client, key: QueueName}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, order models.Order) error {
	body, err := encode(order)
	if err != nil {
		return err
	}
	if err := p.client.RPush(ctx, p.key, body).Err(); err != nil {
		return fmt.Errorf("publish order %s: %w", order.ID, err)
	}

	logging.FromContext(ctx).Info("Order queued", zap.String("order_id", order.ID), zap.String("broker", "redis"))
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
