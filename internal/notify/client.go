package notify

import (
	"context"

	"address_lookup_backend/platform/config"
	"address_lookup_backend/platform/redisclient"

	"github.com/hibiken/asynq"
)

const defaultQueue = "default"

// Client enqueues relay tasks on one asynq queue.
type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.NotifyConfig) (*Client, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Enqueue submits task to the relay queue.
func (c *Client) Enqueue(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.client == nil {
		return nil
	}
	_, err := c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func queueName(cfg config.NotifyConfig) string {
	if q := cfg.GetNotifyQueueName(); q != "" {
		return q
	}
	return defaultQueue
}

func redisClientOpt(cfg config.RedisConfig) (asynq.RedisClientOpt, error) {
	opt, err := redisclient.Options(cfg)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
