package redis

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"wifitracker/internal/transform/probe"
	"wifitracker/pkg/models"
)

// Config configures the Redis consumer.
type Config struct {
	Addr         string
	Password     string
	DB           int
	Key          string
	BlockTimeout time.Duration
}

// Consumer pops JSON probe requests from a Redis list filled by an external
// frame decoder.
type Consumer struct {
	client       *redis.Client
	key          string
	blockTimeout time.Duration
}

// NewConsumer creates a Redis consumer for list-based queues.
func NewConsumer(cfg Config) (*Consumer, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("redis key is required")
	}
	if cfg.BlockTimeout == 0 {
		cfg.BlockTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Consumer{
		client:       client,
		key:          cfg.Key,
		blockTimeout: cfg.BlockTimeout,
	}, nil
}

// Pop pops one raw message from the list; nil means the block timeout elapsed.
func (c *Consumer) Pop(ctx context.Context) ([]byte, error) {
	res, err := c.client.BLPop(ctx, c.blockTimeout, c.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(res) < 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}

// Next pops and parses the next probe request. ok is false when nothing
// arrived within the block timeout. Unparseable payloads are returned as
// errors wrapping probe.ErrMalformed.
func (c *Consumer) Next(ctx context.Context) (models.ProbeRequest, bool, error) {
	payload, err := c.Pop(ctx)
	if err != nil || payload == nil {
		return models.ProbeRequest{}, false, err
	}
	req, err := probe.Parse(payload)
	if err != nil {
		return models.ProbeRequest{}, false, err
	}
	return req, true, nil
}

// Close closes the consumer.
func (c *Consumer) Close() error {
	return c.client.Close()
}
