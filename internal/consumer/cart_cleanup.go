package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

type CartClearer interface {
	ClearCartPlacedBefore(ctx context.Context, owner string, placedAt time.Time) (bool, error)
}

// CartCleanup empties a customer's cart once their order_placed event is
// published. Checkout clears the cart inline; this catches the cases where
// that call failed after the order had committed.
type CartCleanup struct {
	carts  CartClearer
	reader MessageReader
	retry  *Consumer
	log    zerolog.Logger
}

func NewCartCleanup(carts CartClearer, reader MessageReader, log zerolog.Logger) *CartCleanup {
	l := log.With().Str("component", "cart_cleanup").Logger()
	return &CartCleanup{
		carts:  carts,
		reader: reader,
		retry:  &Consumer{reader: reader, attempts: defaultAttempts, backoff: defaultBackoff, log: l},
		log:    l,
	}
}

func (c *CartCleanup) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *CartCleanup) Close() {
	c.retry.Close()
}

func (c *CartCleanup) processMessage(ctx context.Context) {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		c.log.Error().Err(err).Msg("error reading message")
		c.retry.sleep(ctx)
		return
	}

	var event domain.Event
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.log.Error().Err(err).Int64("offset", m.Offset).Msg("error parsing message, skipping")
		c.retry.commit(ctx, m)
		return
	}
	if event.Type != domain.EventOrderPlaced || event.UserID == "" {
		c.retry.commit(ctx, m)
		return
	}

	owner := domain.UserCartOwner(event.UserID)
	var cleared bool
	err = c.retry.withRetry(ctx, func() error {
		var err error
		cleared, err = c.carts.ClearCartPlacedBefore(ctx, owner, event.OccurredAt)
		return err
	})
	if err != nil {
		c.log.Error().Err(err).Str("order_id", event.OrderID).Msg("failed to clear cart")
	} else if cleared {
		c.log.Info().Str("order_id", event.OrderID).Str("owner", owner).Msg("cleared cart left behind by checkout")
	}
	if ctx.Err() != nil {
		return
	}
	c.retry.commit(ctx, m)
}
