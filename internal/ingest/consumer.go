package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"gitlab.com/nevasik7/alerting/logger"

	"poolstats/internal/config"
	"poolstats/internal/domain"
	"poolstats/internal/metrics"
)

// EventHandler is the aggregation entrypoint the consumer feeds.
type EventHandler interface {
	ProcessPoolEvent(ctx context.Context, ev *domain.PoolEvent) error
}

// Consumer subscribes to the decoded pool event stream. Events are
// processed one at a time per instance; a queue group spreads the
// subjects across instances.
type Consumer struct {
	log     logger.Logger
	nc      *nats.Conn
	cfg     config.IngestConfig
	handler EventHandler
	sub     *nats.Subscription
}

func NewConsumer(log logger.Logger, nc *nats.Conn, cfg config.IngestConfig, handler EventHandler) (*Consumer, error) {
	if nc == nil {
		return nil, errors.New("nats connection is required to the consumer")
	}
	if handler == nil {
		return nil, errors.New("event handler is required to the consumer")
	}
	if cfg.Subject == "" {
		return nil, errors.New("ingest subject is required")
	}

	return &Consumer{
		log:     log,
		nc:      nc,
		cfg:     cfg,
		handler: handler,
	}, nil
}

func (c *Consumer) Start(ctx context.Context) error {
	handle := func(msg *nats.Msg) {
		var ev domain.PoolEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			metrics.EventsFailed.Inc()
			c.log.Errorf("Failed to decode pool event: %v", err)
			return
		}

		if err := c.handler.ProcessPoolEvent(ctx, &ev); err != nil {
			metrics.EventsFailed.Inc()
			c.log.Errorf("Failed to process event %s: %v", ev.EventID, err)
		}
	}

	var (
		sub *nats.Subscription
		err error
	)
	if c.cfg.QueueGroup != "" {
		sub, err = c.nc.QueueSubscribe(c.cfg.Subject, c.cfg.QueueGroup, handle)
	} else {
		sub, err = c.nc.Subscribe(c.cfg.Subject, handle)
	}
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", c.cfg.Subject, err)
	}

	if c.cfg.MaxInflight > 0 {
		if err = sub.SetPendingLimits(c.cfg.MaxInflight, -1); err != nil {
			return fmt.Errorf("set pending limits: %w", err)
		}
	}

	c.sub = sub
	c.log.Infof("Consuming pool events from %s (queue=%s)", c.cfg.Subject, c.cfg.QueueGroup)
	return nil
}

func (c *Consumer) Stop() error {
	if c.sub == nil {
		return nil
	}
	return c.sub.Drain()
}
