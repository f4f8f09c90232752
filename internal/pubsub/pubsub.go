// README: Broker-agnostic publish/subscribe contracts built on watermill messages.
package pubsub

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	// MetadataKey carries the partition/correlation key of a message (the trip id).
	MetadataKey = "key"
	// MetadataRequeue set to "false" before Nack drops the message instead of redelivering it.
	MetadataRequeue = "requeue"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, msg *message.Message) error
	Close() error
}

type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	Close() error
}

type PubSub interface {
	Publisher
	Subscriber
}

// Reject nacks msg and asks the broker not to redeliver it.
func Reject(msg *message.Message) bool {
	msg.Metadata.Set(MetadataRequeue, "false")
	return msg.Nack()
}
