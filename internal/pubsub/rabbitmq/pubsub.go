// README: RabbitMQ broker (amqp091) exposing watermill messages on a direct exchange.
package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	amqp "github.com/rabbitmq/amqp091-go"

	"mobility-pricing/internal/logger"
	"mobility-pricing/internal/pubsub"
)

type Config struct {
	// Exchange is a durable direct exchange; topics are its routing keys.
	Exchange string
	// Queue is the durable queue bound to every subscribed routing key.
	Queue    string
	Prefetch int
}

type PubSub struct {
	conn *amqp.Connection
	cfg  Config
	log  *logger.Logger

	mu    sync.Mutex
	pubCh *amqp.Channel
	subCh []*amqp.Channel
}

func NewPubSub(conn *amqp.Connection, cfg Config, log *logger.Logger) (*PubSub, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publish channel: %w", err)
	}
	if err := declareExchange(ch, cfg.Exchange); err != nil {
		_ = ch.Close()
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}
	return &PubSub{conn: conn, cfg: cfg, log: log, pubCh: ch}, nil
}

func declareExchange(ch *amqp.Channel, name string) error {
	return ch.ExchangeDeclare(
		name,
		amqp.ExchangeDirect,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
}

// Publish sends msg to the exchange with topic as routing key and waits for the
// broker confirm.
func (p *PubSub) Publish(ctx context.Context, topic string, msg *message.Message) error {
	headers := amqp.Table{}
	for k, v := range msg.Metadata {
		headers[k] = v
	}

	p.mu.Lock()
	confirm, err := p.pubCh.PublishWithDeferredConfirmWithContext(
		ctx,
		p.cfg.Exchange,
		topic,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     msg.UUID,
			CorrelationId: msg.Metadata.Get(pubsub.MetadataKey),
			Timestamp:     time.Now().UTC(),
			Headers:       headers,
			Body:          msg.Payload,
		},
	)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("await confirm %s: %w", topic, err)
	}
	if !acked {
		return fmt.Errorf("broker nacked message %s on %s", msg.UUID, topic)
	}
	return nil
}

// Subscribe binds the configured queue to topic and streams its deliveries. The
// amqp delivery is acked or nacked once the handler acks or nacks the message.
func (p *PubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open consume channel: %w", err)
	}
	if err := p.declareQueue(ch, topic); err != nil {
		_ = ch.Close()
		return nil, err
	}
	deliveries, err := ch.Consume(
		p.cfg.Queue,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume %s: %w", p.cfg.Queue, err)
	}

	p.mu.Lock()
	p.subCh = append(p.subCh, ch)
	p.mu.Unlock()

	out := make(chan *message.Message)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				msg := toMessage(ctx, d)
				select {
				case out <- msg:
				case <-ctx.Done():
					_ = d.Nack(false, true)
					return
				}
				go settle(ctx, d, msg, p.log)
			}
		}
	}()
	return out, nil
}

func (p *PubSub) declareQueue(ch *amqp.Channel, topic string) error {
	if err := declareExchange(ch, p.cfg.Exchange); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(
		p.cfg.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare queue %s: %w", p.cfg.Queue, err)
	}
	if err := ch.QueueBind(p.cfg.Queue, topic, p.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s to %s: %w", p.cfg.Queue, topic, err)
	}
	if p.cfg.Prefetch > 0 {
		if err := ch.Qos(p.cfg.Prefetch, 0, false); err != nil {
			return fmt.Errorf("set prefetch: %w", err)
		}
	}
	return nil
}

func (p *PubSub) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subCh {
		_ = ch.Close()
	}
	p.subCh = nil
	return p.pubCh.Close()
}

func toMessage(ctx context.Context, d amqp.Delivery) *message.Message {
	id := d.MessageId
	if id == "" {
		id = watermill.NewUUID()
	}
	msg := message.NewMessage(id, d.Body)
	for k, v := range d.Headers {
		if s, ok := v.(string); ok {
			msg.Metadata.Set(k, s)
		}
	}
	if d.CorrelationId != "" && msg.Metadata.Get(pubsub.MetadataKey) == "" {
		msg.Metadata.Set(pubsub.MetadataKey, d.CorrelationId)
	}
	msg.SetContext(ctx)
	return msg
}

func settle(ctx context.Context, d amqp.Delivery, msg *message.Message, log *logger.Logger) {
	var err error
	select {
	case <-msg.Acked():
		err = d.Ack(false)
	case <-msg.Nacked():
		requeue := msg.Metadata.Get(pubsub.MetadataRequeue) != "false"
		err = d.Nack(false, requeue)
	case <-ctx.Done():
		err = d.Nack(false, true)
	}
	if err != nil && log != nil {
		log.Warnw("settle amqp delivery", "message_id", msg.UUID, "error", err)
	}
}
