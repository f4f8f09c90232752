// README: Outbound trip.priced publisher with configurable retry policy (backoff).
package messaging

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"mobility-pricing/internal/logger"
	"mobility-pricing/internal/modules/pricing"
	"mobility-pricing/internal/pubsub"
)

type PublisherConfig struct {
	Topic string
	// Retry enables exponential backoff between attempts. Receivers must tolerate
	// duplicates when it is on.
	Retry           bool
	MaxRetries      uint64
	InitialInterval time.Duration
}

type TripPricedPublisher struct {
	pub pubsub.Publisher
	cfg PublisherConfig
	log *logger.Logger
}

func NewTripPricedPublisher(pub pubsub.Publisher, cfg PublisherConfig, log *logger.Logger) *TripPricedPublisher {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}
	return &TripPricedPublisher{pub: pub, cfg: cfg, log: log}
}

// PublishTripPriced sends evt keyed by trip id. Every attempt reuses the same
// message id so consumers can drop redeliveries.
func (p *TripPricedPublisher) PublishTripPriced(ctx context.Context, evt pricing.TripPricedEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	id := uuid.NewString()
	key := strconv.FormatInt(evt.TripID, 10)

	attempt := 0
	op := func() error {
		attempt++
		msg := message.NewMessage(id, payload)
		msg.Metadata.Set(pubsub.MetadataKey, key)
		err := p.pub.Publish(ctx, p.cfg.Topic, msg)
		if err != nil {
			p.log.Warnw("trip priced publish attempt failed", "trip_id", evt.TripID, "attempt", attempt, "error", err)
		}
		return err
	}

	if !p.cfg.Retry {
		return op()
	}
	return backoff.Retry(op, p.backoff(ctx))
}

func (p *TripPricedPublisher) backoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.InitialInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, p.cfg.MaxRetries), ctx)
}
