package service

import (
	"context"
	"time"
)

const RoutingKeyMessageCreated = "message.created"

type MessageCreatedEvent struct {
	ChatID    string    `json:"chat_id"`
	MessageID string    `json:"message_id"`
	SenderID  string    `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}
