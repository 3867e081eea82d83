// Package queue hands finalized orders to the downstream fulfillment queue.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"payment-service/models"
)

// Publisher hands an order to a message broker. It does not wait for the
// order to be consumed.
type Publisher interface {
	Publish(ctx context.Context, order models.Order) error
}

// Delayed holds every order back for a fixed delay before publishing it. The
// delay exists to simulate slow downstream processing under load tests.
type Delayed struct {
	next  Publisher
	delay time.Duration
}

// NewDelayed wraps next. A non-positive delay publishes immediately.
func NewDelayed(next Publisher, delay time.Duration) *Delayed {
	return &Delayed{next: next, delay: delay}
}

func (d *Delayed) Publish(ctx context.Context, order models.Order) error {
	if d.delay > 0 {
		timer := time.NewTimer(d.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("publish order %s: %w", order.ID, ctx.Err())
		}
	}
	return d.next.Publish(ctx, order)
}

func encode(order models.Order) ([]byte, error) {
	data, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("encode order %s: %w", order.ID, err)
	}
	return data, nil
}
