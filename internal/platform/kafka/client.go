// Package kafka builds franz-go producer and admin clients from config.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"idgraph/internal/platform/config"
)

// ErrNotConfigured is returned when no brokers are set.
var ErrNotConfigured = errors.New("kafka brokers not configured")

// Client bundles a producer client and an admin client sharing connections.
type Client struct {
	*kgo.Client
	Admin *kadm.Client
}

// New connects to the configured brokers and pings them.
func New(ctx context.Context, cfg config.KafkaConfig, opts ...kgo.Opt) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNotConfigured
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression(), kgo.NoCompression()),
	}
	cl, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := cl.Ping(ctx); err != nil {
		cl.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}
	return &Client{Client: cl, Admin: kadm.NewClient(cl)}, nil
}

// Health pings the brokers.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx)
}
