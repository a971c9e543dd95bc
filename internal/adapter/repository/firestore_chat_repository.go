package repository

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"outletchat/internal/domain/entity"
	"outletchat/internal/domain/repository"
	"outletchat/pkg/errors"
)

const (
	chatsCollection    = "chats"
	messagesCollection = "messages"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) chats() *firestore.CollectionRef {
	return r.client.Collection(chatsCollection)
}

func (r *firestoreChatRepository) messages(chatID string) *firestore.CollectionRef {
	return r.chats().Doc(chatID).Collection(messagesCollection)
}

func (r *firestoreChatRepository) Create(ctx context.Context, chat *entity.Chat) (*entity.Chat, bool, error) {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}

	now := time.Now()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	if chat.LastMessageAt.IsZero() {
		chat.LastMessageAt = now
	}
	if chat.LastReadBy == nil {
		chat.LastReadBy = make(map[string]time.Time)
	}

	// Create fails on an existing document, which makes deterministic ids
	// (direct pairs, outlet groups) race-free.
	_, err := r.chats().Doc(chat.ID).Create(ctx, chat)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			existing, getErr := r.GetByID(ctx, chat.ID)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, errors.Internal("Failed to create chat", err)
	}

	return chat, true, nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.chats().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", err)
		}
		return nil, errors.Internal("Failed to get chat", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}
	chat.ID = doc.Ref.ID

	return &chat, nil
}

func (r *firestoreChatRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error) {
	query := r.chats().Where("participants", "array-contains", userID).OrderBy("lastMessageAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		log.Printf("Firestore error while fetching chats for user %s: %v", userID, err)
		return nil, 0, errors.Internal("Failed to fetch chats", err)
	}

	total := int64(len(allDocs))

	// Pagination in memory; the array-contains query is already a single round trip.
	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	chats := make([]*entity.Chat, 0, end-start)
	for _, doc := range allDocs[start:end] {
		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			log.Printf("Error parsing chat data for user %s: %v", userID, err)
			continue
		}
		chat.ID = doc.Ref.ID
		chats = append(chats, &chat)
	}

	return chats, total, nil
}

func (r *firestoreChatRepository) AddParticipants(ctx context.Context, chatID string, userIDs []string) error {
	ids := make([]interface{}, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, id)
	}

	_, err := r.chats().Doc(chatID).Update(ctx, []firestore.Update{
		{Path: "participants", Value: firestore.ArrayUnion(ids...)},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Chat", err)
		}
		return errors.Internal("Failed to add chat participants", err)
	}
	return nil
}

func (r *firestoreChatRepository) UpdateLastMessage(ctx context.Context, chatID string, preview string, at time.Time) error {
	_, err := r.chats().Doc(chatID).Update(ctx, []firestore.Update{
		{Path: "lastMessage", Value: preview},
		{Path: "lastMessageAt", Value: at},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		return errors.Internal("Failed to update chat", err)
	}
	return nil
}

func (r *firestoreChatRepository) AdvanceReadMark(ctx context.Context, chatID, userID string, at time.Time) (time.Time, error) {
	ref := r.chats().Doc(chatID)
	var stored time.Time

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			return err
		}

		current := chat.LastReadBy[userID]
		if !at.After(current) {
			stored = current
			return nil
		}

		stored = at
		return tx.Update(ref, []firestore.Update{
			{FieldPath: firestore.FieldPath{"lastReadBy", userID}, Value: at},
		})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return time.Time{}, errors.NotFound("Chat", err)
		}
		return time.Time{}, errors.Internal("Failed to update read marker", err)
	}

	return stored, nil
}

func (r *firestoreChatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	_, err := r.messages(message.ChatID).Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetMessageByID(ctx context.Context, chatID, messageID string) (*entity.Message, error) {
	doc, err := r.messages(chatID).Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &message, nil
}

func (r *firestoreChatRepository) GetMessageByClientID(ctx context.Context, chatID, senderID, clientID string) (*entity.Message, error) {
	iter := r.messages(chatID).
		Where("clientId", "==", clientID).
		Where("senderId", "==", senderID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Message", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query message by client id", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &message, nil
}

func (r *firestoreChatRepository) ListMessages(ctx context.Context, chatID string, q repository.MessageQuery) ([]*entity.Message, int64, error) {
	query := r.messages(chatID).Query
	if !q.From.IsZero() {
		query = query.Where("createdAt", ">=", q.From)
	}
	if !q.To.IsZero() {
		query = query.Where("createdAt", "<=", q.To)
	}
	query = query.OrderBy("createdAt", firestore.Asc)

	total, err := r.count(ctx, query)
	if err != nil {
		log.Printf("Firestore error while counting messages for chat %s: %v", chatID, err)
		return nil, 0, errors.Internal("Failed to count messages for chat", err)
	}

	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Printf("Firestore error while iterating messages for chat %s: %v", chatID, err)
			return nil, 0, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			log.Printf("Error parsing message data for chat %s: %v", chatID, err)
			return nil, 0, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}

	return messages, total, nil
}

func (r *firestoreChatRepository) count(ctx context.Context, query firestore.Query) (int64, error) {
	result, err := query.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, err
	}
	value, ok := result["all"].(*firestorepb.Value)
	if !ok {
		return 0, nil
	}
	return value.GetIntegerValue(), nil
}
