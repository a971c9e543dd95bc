package rabbitmq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outletchat/internal/domain/service"
)

func TestNewBusWithoutURLIsInProcess(t *testing.T) {
	bus := NewBus("", "chat.events", "chat.push")
	assert.Equal(t, "in-process", Mode(bus))
	assert.Equal(t, "empty amqp url", DisabledReason(bus))
}

func TestLocalBusDeliversToConsumer(t *testing.T) {
	bus := NewBus("", "chat.events", "chat.push")
	got := make(chan service.MessageCreatedEvent, 1)

	require.NoError(t, bus.Consume(context.Background(), func(ctx context.Context, e service.MessageCreatedEvent) error {
		got <- e
		return nil
	}))

	sent := service.MessageCreatedEvent{ChatID: "c1", MessageID: "m1", SenderID: "u1", CreatedAt: time.Now()}
	require.NoError(t, bus.Publish(context.Background(), service.RoutingKeyMessageCreated, sent))
	require.NoError(t, bus.Close())

	select {
	case e := <-got:
		assert.Equal(t, "m1", e.MessageID)
	default:
		t.Fatal("handler was not called")
	}
}

func TestLocalBusWithoutConsumerDropsQuietly(t *testing.T) {
	bus := NewBus("", "chat.events", "chat.push")
	assert.NoError(t, bus.Publish(context.Background(), service.RoutingKeyMessageCreated, service.MessageCreatedEvent{ChatID: "c"}))
	assert.NoError(t, bus.Publish(context.Background(), "other", map[string]string{}))
}

func TestDecodeMessageCreated(t *testing.T) {
	event, err := DecodeMessageCreated([]byte(`{"chat_id":"c1","message_id":"m1","sender_id":"u1","created_at":"2024-05-01T10:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "c1", event.ChatID)
	assert.Equal(t, "u1", event.SenderID)

	_, err = DecodeMessageCreated([]byte(`{"chat_id":"c1"}`))
	assert.Error(t, err)

	_, err = DecodeMessageCreated([]byte(`{`))
	assert.Error(t, err)
}
