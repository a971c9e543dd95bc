package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"outletchat/internal/domain/entity"
	"outletchat/internal/domain/repository"
	"outletchat/pkg/errors"
)

const pushTokensCollection = "push_tokens"

type firestorePushTokenRepository struct {
	client *firestore.Client
}

func NewFirestorePushTokenRepository(client *firestore.Client) repository.PushTokenRepository {
	return &firestorePushTokenRepository{
		client: client,
	}
}

// Tokens can contain characters Firestore rejects in document ids, so the
// document is keyed by the token's digest. Re-registering a token on another
// account moves it rather than duplicating it.
func tokenDocID(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (r *firestorePushTokenRepository) Save(ctx context.Context, token *entity.PushToken) error {
	token.UpdatedAt = time.Now()
	_, err := r.client.Collection(pushTokensCollection).Doc(tokenDocID(token.Token)).Set(ctx, token)
	if err != nil {
		return errors.Internal("Failed to save push token", err)
	}
	return nil
}

func (r *firestorePushTokenRepository) Delete(ctx context.Context, token string) error {
	_, err := r.client.Collection(pushTokensCollection).Doc(tokenDocID(token)).Delete(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return errors.Internal("Failed to delete push token", err)
	}
	return nil
}

func (r *firestorePushTokenRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.PushToken, error) {
	docs, err := r.client.Collection(pushTokensCollection).Where("userId", "==", userID).Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to list push tokens", err)
	}

	tokens := make([]*entity.PushToken, 0, len(docs))
	for _, doc := range docs {
		var token entity.PushToken
		if err := doc.DataTo(&token); err != nil {
			continue
		}
		tokens = append(tokens, &token)
	}
	return tokens, nil
}
