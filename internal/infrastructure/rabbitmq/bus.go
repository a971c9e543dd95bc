package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"outletchat/internal/domain/service"
	"outletchat/internal/infrastructure/metrics"
)

// EventHandler consumes one message.created event.
type EventHandler func(ctx context.Context, event service.MessageCreatedEvent) error

// Bus publishes chat events and feeds them to a consumer.
type Bus interface {
	service.EventPublisher
	Consume(ctx context.Context, handler EventHandler) error
	Close() error
}

const handlerTimeout = 30 * time.Second

// NewBus builds a RabbitMQ-backed bus, or an in-process bus when AMQP is
// disabled or unreachable.
func NewBus(amqpURL, exchange, queue string) Bus {
	if amqpURL == "" {
		log.Printf("rabbitmq disabled, using in-process bus: empty amqp url")
		return &localBus{reason: "empty amqp url"}
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		log.Printf("rabbitmq disabled, using in-process bus: %v", err)
		return &localBus{reason: err.Error()}
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq disabled, using in-process bus: %v", err)
		_ = conn.Close()
		return &localBus{reason: err.Error()}
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		log.Printf("rabbitmq disabled, using in-process bus: %v", err)
		_ = ch.Close()
		_ = conn.Close()
		return &localBus{reason: err.Error()}
	}

	log.Printf("rabbitmq connected exchange=%s queue=%s", exchange, queue)
	return &amqpBus{conn: conn, ch: ch, exchange: exchange, queue: queue}
}

type amqpBus struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	queue    string
}

func (b *amqpBus) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = b.ch.PublishWithContext(ctx, b.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		metrics.IncAMQPPublishError()
		log.Printf("rabbitmq publish failed: %v", err)
	}
	return err
}

func (b *amqpBus) Consume(ctx context.Context, handler EventHandler) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consumer channel: %w", err)
	}

	if _, err := ch.QueueDeclare(b.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("declare queue %s: %w", b.queue, err)
	}
	if err := ch.QueueBind(b.queue, service.RoutingKeyMessageCreated, b.exchange, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("bind queue %s: %w", b.queue, err)
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(b.queue, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume %s: %w", b.queue, err)
	}

	go func() {
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					log.Printf("rabbitmq consumer channel closed queue=%s", b.queue)
					return
				}
				handleDelivery(ctx, d, handler)
			}
		}
	}()
	return nil
}

func handleDelivery(ctx context.Context, d amqp.Delivery, handler EventHandler) {
	event, err := DecodeMessageCreated(d.Body)
	if err != nil {
		log.Printf("rabbitmq dropping malformed event: %v", err)
		_ = d.Nack(false, false)
		return
	}

	hctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	// Push is best-effort; a failed handler is logged, not redelivered.
	if err := handler(hctx, event); err != nil {
		log.Printf("rabbitmq handler failed chat=%s message=%s: %v", event.ChatID, event.MessageID, err)
	}
	_ = d.Ack(false)
}

func (b *amqpBus) Close() error {
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}

// DecodeMessageCreated parses a message.created body.
func DecodeMessageCreated(body []byte) (service.MessageCreatedEvent, error) {
	var event service.MessageCreatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, err
	}
	if event.ChatID == "" || event.MessageID == "" {
		return event, fmt.Errorf("event missing chat_id or message_id")
	}
	return event, nil
}

// localBus hands events to the handler on a goroutine in this process.
type localBus struct {
	reason string

	mu      sync.RWMutex
	handler EventHandler
	ctx     context.Context
	wg      sync.WaitGroup
}

func (b *localBus) Publish(ctx context.Context, routingKey string, event any) error {
	var created service.MessageCreatedEvent
	switch e := event.(type) {
	case service.MessageCreatedEvent:
		created = e
	case *service.MessageCreatedEvent:
		created = *e
	default:
		log.Printf("in-process bus ignoring routing_key=%s", routingKey)
		return nil
	}

	b.mu.RLock()
	handler, base := b.handler, b.ctx
	b.mu.RUnlock()
	if handler == nil {
		log.Printf("in-process bus has no consumer routing_key=%s", routingKey)
		return nil
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		hctx, cancel := context.WithTimeout(base, handlerTimeout)
		defer cancel()
		if err := handler(hctx, created); err != nil {
			log.Printf("in-process handler failed chat=%s message=%s: %v", created.ChatID, created.MessageID, err)
		}
	}()
	return nil
}

func (b *localBus) Consume(ctx context.Context, handler EventHandler) error {
	b.mu.Lock()
	b.handler = handler
	b.ctx = ctx
	b.mu.Unlock()
	return nil
}

// Close waits for in-flight handlers.
func (b *localBus) Close() error {
	b.wg.Wait()
	return nil
}

// Mode reports the bus mode for logging.
func Mode(b Bus) string {
	switch b.(type) {
	case *amqpBus:
		return "amqp"
	case *localBus:
		return "in-process"
	default:
		return "unknown"
	}
}

func DisabledReason(b Bus) string {
	if local, ok := b.(*localBus); ok {
		return local.reason
	}
	return ""
}
