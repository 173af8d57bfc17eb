package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"appointment-booking-api/internal/config"
	"appointment-booking-api/internal/notify"
)

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// Redis publishes every event on a single pub/sub channel.
type Redis struct {
	client  redisPublisher
	channel string
}

func DialRedis(cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Addr, err)
	}
	return newRedis(client, cfg.Channel), nil
}

func newRedis(client redisPublisher, channel string) *Redis {
	return &Redis{client: client, channel: channel}
}

func (r *Redis) Name() string { return "redis" }

func (r *Redis) Publish(ctx context.Context, _ notify.Event, payload []byte) error {
	return r.client.Publish(ctx, r.channel, payload).Err()
}

func (r *Redis) Close() error { return r.client.Close() }
