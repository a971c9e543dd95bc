package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"outletchat/internal/domain/entity"
	"outletchat/internal/domain/repository"
	"outletchat/internal/domain/service"
	"outletchat/pkg/errors"
	"outletchat/pkg/logger"
)

const tokenLookupConcurrency = 8

type NotificationUseCase struct {
	chatRepo   repository.ChatRepository
	userRepo   repository.UserRepository
	tokenRepo  repository.PushTokenRepository
	dispatcher service.PushDispatcher
	presence   Realtime
}

func NewNotificationUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	tokenRepo repository.PushTokenRepository,
	dispatcher service.PushDispatcher,
	presence Realtime,
) *NotificationUseCase {
	return &NotificationUseCase{
		chatRepo:   chatRepo,
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		dispatcher: dispatcher,
		presence:   presence,
	}
}

// NotifyMessage wakes the offline recipients of a stored message. Recipients
// with an open websocket already received it and are skipped.
func (uc *NotificationUseCase) NotifyMessage(ctx context.Context, event service.MessageCreatedEvent) error {
	chat, err := uc.chatRepo.GetByID(ctx, event.ChatID)
	if err != nil {
		return err
	}
	message, err := uc.chatRepo.GetMessageByID(ctx, event.ChatID, event.MessageID)
	if err != nil {
		return err
	}

	var recipients []string
	for _, participantID := range chat.Participants {
		if participantID == message.SenderID || uc.presence.IsOnline(participantID) {
			continue
		}
		recipients = append(recipients, participantID)
	}
	if len(recipients) == 0 {
		logger.Debug("Notify: chat=%s message=%s has no offline recipients", chat.ID, message.ID)
		return nil
	}

	tokens, err := uc.collectTokens(ctx, recipients)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		logger.Debug("Notify: chat=%s message=%s recipients have no devices", chat.ID, message.ID)
		return nil
	}

	var senderName string
	if sender, err := uc.userRepo.GetByID(ctx, message.SenderID); err == nil {
		senderName = sender.Name
	}

	payload := BuildPushPayload(chat, message, senderName)
	result := uc.dispatcher.Dispatch(ctx, tokens, payload)
	logger.Info("Notify: chat=%s message=%s success=%d failure=%d", chat.ID, message.ID, result.SuccessCount, result.FailureCount)

	for _, token := range result.InvalidTokens {
		if err := uc.tokenRepo.Delete(ctx, token); err != nil {
			logger.Warn("Notify: failed to prune invalid token: %v", err)
		}
	}

	return nil
}

// HandleMessageCreated adapts NotifyMessage to the event bus; failures are
// logged and never reach the sender.
func (uc *NotificationUseCase) HandleMessageCreated(ctx context.Context, event service.MessageCreatedEvent) error {
	if err := uc.NotifyMessage(ctx, event); err != nil {
		logger.LogDeliveryError("push", event.ChatID, err)
	}
	return nil
}

func (uc *NotificationUseCase) collectTokens(ctx context.Context, recipients []string) ([]string, error) {
	var (
		mu     sync.Mutex
		tokens []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tokenLookupConcurrency)
	for _, userID := range recipients {
		userID := userID
		g.Go(func() error {
			list, err := uc.tokenRepo.ListByUserID(gctx, userID)
			if err != nil {
				return fmt.Errorf("list tokens for %s: %w", userID, err)
			}
			mu.Lock()
			for _, t := range list {
				tokens = append(tokens, t.Token)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tokens, nil
}

// BuildPushPayload renders the notification shown for a message.
func BuildPushPayload(chat *entity.Chat, message *entity.Message, senderName string) service.PushPayload {
	title := senderName
	if chat.Type == entity.ChatTypeGroup && chat.Name != "" {
		if senderName != "" {
			title = chat.Name + " · " + senderName
		} else {
			title = chat.Name
		}
	}
	if title == "" {
		title = "New message"
	}

	body := message.Preview()
	if message.Type == entity.MessageTypeAudio {
		body = fmt.Sprintf("Voice message (%ds)", message.AudioDuration)
	}
	if runes := []rune(body); len(runes) > 140 {
		body = strings.TrimSpace(string(runes[:137])) + "..."
	}

	return service.PushPayload{
		Title: title,
		Body:  body,
		Data: map[string]any{
			"chatId":    chat.ID,
			"messageId": message.ID,
			"type":      message.Type,
			"senderId":  message.SenderID,
		},
	}
}

func (uc *NotificationUseCase) RegisterToken(ctx context.Context, userID, token, platform string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.Validation("token", "Push token is required")
	}
	return uc.tokenRepo.Save(ctx, &entity.PushToken{
		Token:     token,
		UserID:    userID,
		Platform:  platform,
		UpdatedAt: time.Now(),
	})
}

func (uc *NotificationUseCase) UnregisterToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.Validation("token", "Push token is required")
	}
	return uc.tokenRepo.Delete(ctx, token)
}
