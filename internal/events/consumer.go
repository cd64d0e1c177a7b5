// Package events consumes order lifecycle events so carts emptied on
// another device or by the payment webhook are emptied here too.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	StatusPlaced = "placed"
	StatusPaid   = "paid"
)

var errMissingProfile = errors.New("event has no profile_id")

type OrderEvent struct {
	ProfileID string `json:"profile_id"`
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
}

type CartClearer interface {
	ClearCart(ctx context.Context, profileID string) error
}

// OrderSettler forgets orders that no longer await payment.
type OrderSettler interface {
	Settled(ctx context.Context, orderID string) error
}

type Config struct {
	Brokers []string
	Topic   string
	GroupID string
	// InstanceID gives every storefront instance its own consumer group,
	// so each one drops its cached copy of a cleared cart. Empty shares
	// GroupID across instances.
	InstanceID string
}

func (c Config) group() string {
	if c.InstanceID == "" {
		return c.GroupID
	}
	return c.GroupID + "." + c.InstanceID
}

type Consumer struct {
	carts   CartClearer
	settler OrderSettler
	reader  *kafka.Reader
	log     *zap.Logger
}

func NewConsumer(carts CartClearer, settler OrderSettler, cfg Config, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	rc := kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.group(),
		MaxBytes: 10e6, // 10MB
	}
	if cfg.InstanceID != "" {
		// a new instance only cares about carts it may still hold
		rc.StartOffset = kafka.LastOffset
	}
	reader := kafka.NewReader(rc)
	return &Consumer{
		carts:   carts,
		settler: settler,
		reader:  reader,
		log:     log.With(zap.String("topic", cfg.Topic), zap.String("group", rc.GroupID)),
	}
}

// Run reads events until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("order events consumer started")
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn("error reading message", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		if err := c.handle(ctx, m.Value); err != nil {
			c.log.Warn("skipping order event",
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
				zap.Error(err))
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func (c *Consumer) handle(ctx context.Context, value []byte) error {
	var event OrderEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("error parsing message: %w", err)
	}
	if event.ProfileID == "" {
		return errMissingProfile
	}

	switch event.Status {
	case StatusPlaced, StatusPaid:
	default:
		c.log.Debug("ignoring order event", zap.String("status", event.Status))
		return nil
	}

	if err := c.carts.ClearCart(ctx, event.ProfileID); err != nil {
		return fmt.Errorf("failed to clear cart for %s: %w", event.ProfileID, err)
	}
	if event.Status == StatusPaid && event.OrderID != "" && c.settler != nil {
		if err := c.settler.Settled(ctx, event.OrderID); err != nil {
			c.log.Warn("failed to settle order", zap.String("order_id", event.OrderID), zap.Error(err))
		}
	}

	c.log.Info("cart cleared by order event",
		zap.String("profile_id", event.ProfileID),
		zap.String("order_id", event.OrderID),
		zap.String("status", event.Status))
	return nil
}
