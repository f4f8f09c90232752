// README: In-process broker (watermill gochannel) for local runs and tests.
package memory

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"mobility-pricing/internal/pubsub"
)

type PubSub struct {
	pubsub *gochannel.GoChannel
}

func NewPubSub() pubsub.PubSub {
	goChannel := gochannel.NewGoChannel(
		gochannel.Config{
			// Keep messages published before a subscriber attaches.
			Persistent:          true,
			OutputChannelBuffer: 100,
		},
		watermill.NopLogger{},
	)
	return &PubSub{pubsub: goChannel}
}

func (p *PubSub) Publish(_ context.Context, topic string, msg *message.Message) error {
	return p.pubsub.Publish(topic, msg)
}

// Subscribe relays gochannel deliveries. gochannel redelivers every nacked
// message, so a nack carrying requeue=false is turned into an upstream ack.
func (p *PubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	upstream, err := p.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}

	out := make(chan *message.Message)
	go func() {
		defer close(out)
		for src := range upstream {
			msg := src.Copy()
			msg.SetContext(src.Context())
			select {
			case out <- msg:
			case <-ctx.Done():
				src.Nack()
				return
			}
			select {
			case <-msg.Acked():
				src.Ack()
			case <-msg.Nacked():
				if msg.Metadata.Get(pubsub.MetadataRequeue) == "false" {
					src.Ack()
				} else {
					src.Nack()
				}
			case <-ctx.Done():
				src.Nack()
				return
			}
		}
	}()
	return out, nil
}

func (p *PubSub) Close() error {
	return p.pubsub.Close()
}
