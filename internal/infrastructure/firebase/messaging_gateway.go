package firebase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	fbapp "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"outletchat/internal/domain/service"
	"outletchat/internal/infrastructure/metrics"
	"outletchat/pkg/config"
	"outletchat/pkg/logger"
)

// FCM accepts at most 500 tokens per multicast request.
const maxMulticastTokens = 500

const disabledLogKey = "push-gateway-disabled"

type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type senderFactory func(ctx context.Context, creds config.PushCredentials) (multicastSender, error)

// MessagingGateway delivers push notifications through Firebase Cloud
// Messaging. It is best-effort: Dispatch never returns an error.
type MessagingGateway struct {
	credentials func() config.PushCredentials
	newSender   senderFactory

	mu     sync.Mutex
	sender multicastSender
}

var _ service.PushDispatcher = (*MessagingGateway)(nil)

func NewMessagingGateway(credentials func() config.PushCredentials) *MessagingGateway {
	return &MessagingGateway{
		credentials: credentials,
		newSender:   newFirebaseSender,
	}
}

func newFirebaseSender(ctx context.Context, creds config.PushCredentials) (multicastSender, error) {
	serviceAccount, err := json.Marshal(map[string]string{
		"type":         "service_account",
		"project_id":   creds.ProjectID,
		"client_email": creds.ClientEmail,
		"private_key":  creds.PrivateKey,
		"token_uri":    "https://oauth2.googleapis.com/token",
	})
	if err != nil {
		return nil, err
	}

	app, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: creds.ProjectID}, option.WithCredentialsJSON(serviceAccount))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging: %w", err)
	}
	return client, nil
}

// client returns the cached sender, initialising it the first time the
// credentials are complete. Nil means push is unavailable.
func (g *MessagingGateway) client(ctx context.Context) multicastSender {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sender != nil {
		return g.sender
	}

	creds := g.credentials()
	if !creds.Complete() {
		logger.WarnOnce(disabledLogKey, "Push gateway disabled: PUSH_PROJECT_ID, PUSH_CLIENT_EMAIL and PUSH_PRIVATE_KEY are required")
		return nil
	}

	sender, err := g.newSender(ctx, creds)
	if err != nil {
		logger.Error("Push gateway initialization failed: %v", err)
		return nil
	}

	logger.Info("Push gateway initialized for project %s", creds.ProjectID)
	logger.ResetOnce(disabledLogKey)
	g.sender = sender
	return sender
}

// Enabled reports whether push can be attempted, without initialising.
func (g *MessagingGateway) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sender != nil || g.credentials().Complete()
}

func (g *MessagingGateway) Dispatch(ctx context.Context, tokens []string, payload service.PushPayload) service.DispatchResult {
	distinct := UniqueTokens(tokens)
	if len(distinct) == 0 {
		return service.DispatchResult{}
	}

	sender := g.client(ctx)
	if sender == nil {
		metrics.ObservePush(0, len(distinct))
		return service.DispatchResult{FailureCount: len(distinct)}
	}

	data := PayloadData(payload.Data)
	var result service.DispatchResult

	for start := 0; start < len(distinct); start += maxMulticastTokens {
		end := start + maxMulticastTokens
		if end > len(distinct) {
			end = len(distinct)
		}
		chunk := distinct[start:end]

		resp, err := sender.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens: chunk,
			Data:   data,
			Notification: &messaging.Notification{
				Title: payload.Title,
				Body:  payload.Body,
			},
			Webpush: &messaging.WebpushConfig{
				FCMOptions: &messaging.WebpushFCMOptions{Link: data["link"]},
			},
		})
		if err != nil || resp == nil {
			logger.Error("Push dispatch failed for %d tokens: %v", len(chunk), err)
			result.FailureCount += len(chunk)
			continue
		}

		success := resp.SuccessCount
		if success < 0 {
			success = 0
		}
		if success > len(chunk) {
			success = len(chunk)
		}
		result.SuccessCount += success
		result.FailureCount += len(chunk) - success

		for i, r := range resp.Responses {
			if i >= len(chunk) || r == nil || r.Success || r.Error == nil {
				continue
			}
			if messaging.IsUnregistered(r.Error) || messaging.IsSenderIDMismatch(r.Error) {
				result.InvalidTokens = append(result.InvalidTokens, chunk[i])
			}
		}
	}

	metrics.ObservePush(result.SuccessCount, result.FailureCount)
	return result
}

// UniqueTokens drops blanks and repeated tokens, keeping first-seen order.
func UniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// PayloadData converts every value to a string and fills in "link": an
// explicit link wins, then /chat/<chatId>, then the root route.
func PayloadData(data map[string]any) map[string]string {
	out := make(map[string]string, len(data)+1)
	for k, v := range data {
		if v == nil {
			out[k] = ""
			continue
		}
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		out[k] = fmt.Sprint(v)
	}

	switch {
	case out["link"] != "":
	case out["chatId"] != "":
		out["link"] = "/chat/" + out["chatId"]
	default:
		out["link"] = "/"
	}
	return out
}
