// README: Inbound trip.completed consumer; prices each delivery on a bounded worker pool.
package messaging

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sourcegraph/conc/pool"

	ierr "mobility-pricing/internal/errors"
	"mobility-pricing/internal/logger"
	"mobility-pricing/internal/modules/pricing"
	"mobility-pricing/internal/pubsub"
)

type Calculator interface {
	Calculate(ctx context.Context, evt pricing.TripCompletedEvent) (*pricing.Quote, error)
}

// Guard marks a trip as taken before it is priced. Acquire reports false when
// another delivery already claimed the trip.
type Guard interface {
	Acquire(ctx context.Context, tripID int64) (bool, error)
	Release(ctx context.Context, tripID int64) error
}

type ConsumerConfig struct {
	Topic       string
	Concurrency int
}

type TripEventConsumer struct {
	sub   pubsub.Subscriber
	calc  Calculator
	guard Guard
	cfg   ConsumerConfig
	log   *logger.Logger
}

// NewTripEventConsumer builds a consumer. guard may be nil.
func NewTripEventConsumer(sub pubsub.Subscriber, calc Calculator, guard Guard, cfg ConsumerConfig, log *logger.Logger) *TripEventConsumer {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &TripEventConsumer{sub: sub, calc: calc, guard: guard, cfg: cfg, log: log}
}

// Run blocks until ctx is cancelled or the subscription closes, then waits for
// in-flight deliveries.
func (c *TripEventConsumer) Run(ctx context.Context) error {
	msgs, err := c.sub.Subscribe(ctx, c.cfg.Topic)
	if err != nil {
		return err
	}
	c.log.Infow("trip event consumer started", "topic", c.cfg.Topic, "concurrency", c.cfg.Concurrency)

	p := pool.New().WithMaxGoroutines(c.cfg.Concurrency)
	defer p.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			p.Go(func() { c.handle(ctx, msg) })
		}
	}
}

func (c *TripEventConsumer) handle(ctx context.Context, msg *message.Message) {
	var evt pricing.TripCompletedEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		c.log.Errorw("undecodable trip completed event, rejecting", "message_id", msg.UUID, "error", err)
		pubsub.Reject(msg)
		return
	}
	if err := evt.Validate(); err != nil {
		c.log.Errorw("invalid trip completed event, rejecting", "message_id", msg.UUID, "trip_id", evt.TripID, "error", err)
		pubsub.Reject(msg)
		return
	}
	log := c.log.With("trip_id", evt.TripID, "message_id", msg.UUID)

	if c.guard != nil {
		fresh, err := c.guard.Acquire(ctx, evt.TripID)
		switch {
		case err != nil:
			log.Warnw("idempotency guard unavailable, pricing anyway", "error", err)
		case !fresh:
			log.Infow("trip already priced, skipping redelivery")
			msg.Ack()
			return
		}
	}

	quote, err := c.calc.Calculate(ctx, evt)
	switch {
	case err == nil:
		msg.Ack()
	case ierr.Is(err, pricing.ErrPublishFailed):
		// Audit row exists; the event can be resent through republish.
		log.Errorw("trip priced but event not published", "result_id", quote.ResultID, "error", err)
		msg.Ack()
	default:
		log.Errorw("trip pricing failed, requeueing", "error", err)
		c.release(evt.TripID, log)
		msg.Nack()
	}
}

func (c *TripEventConsumer) release(tripID int64, log *logger.Logger) {
	if c.guard == nil {
		return
	}
	if err := c.guard.Release(context.Background(), tripID); err != nil {
		log.Warnw("release idempotency guard", "error", err)
	}
}
