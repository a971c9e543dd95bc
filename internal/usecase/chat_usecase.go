package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"outletchat/internal/domain/entity"
	"outletchat/internal/domain/repository"
	"outletchat/internal/domain/service"
	"outletchat/internal/infrastructure/ratelimit"
	ws "outletchat/internal/infrastructure/websocket"
	"outletchat/pkg/errors"
)

const (
	AddMemberModeDirect          = "direct"
	AddMemberModeStaffManagement = "staff_management"

	maxContentLength = 4000
	defaultGroupName = "Outlet team"
)

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	realtime    Realtime
	publisher   service.EventPublisher
	rateLimiter *ratelimit.RateLimiter
	now         func() time.Time
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	realtime Realtime,
	publisher service.EventPublisher,
	rateLimiter *ratelimit.RateLimiter,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		realtime:    realtime,
		publisher:   publisher,
		rateLimiter: rateLimiter,
		now:         time.Now,
	}
}

type CreateGroupChatInput struct {
	Name      string
	MemberIDs []string
}

type SendMessageInput struct {
	ChatID        string
	ClientID      string
	Type          string
	Content       string
	AudioURL      string
	AudioDuration int
	FileURL       string
	FileName      string
	FileMimeType  string
	FileSize      int64
}

type ChatResponse struct {
	*entity.Chat
	OtherUser *entity.User `json:"other_user,omitempty"`
}

type MessageResponse struct {
	*entity.Message
	Sender *entity.User `json:"sender,omitempty"`
}

// AddMemberOptions tells the client whether and how to offer "add member".
type AddMemberOptions struct {
	CanAdd          bool   `json:"can_add"`
	Mode            string `json:"mode,omitempty"`
	HasAddableStaff bool   `json:"has_addable_staff"`
	Target          string `json:"target,omitempty"`
}

// StaffManagementPath is where outlet group membership is edited.
func StaffManagementPath(outletID string) string {
	return "/outlets/" + outletID + "/staff"
}

// CreateDirectChat returns the one direct chat between the caller and the
// single other participant, creating it on first use.
func (uc *ChatUseCase) CreateDirectChat(ctx context.Context, userID string, participantIDs []string) (*ChatResponse, error) {
	others := uniqueIDs(participantIDs, userID)
	if len(others) != 1 {
		return nil, errors.Validation("participant_ids", "Select exactly one other participant")
	}
	otherID := others[0]

	otherUser, err := uc.userRepo.GetByID(ctx, otherID)
	if err != nil {
		log.Printf("CreateDirectChat Error: Participant %s not found: %v", otherID, err)
		return nil, err
	}

	chat := &entity.Chat{
		ID:           entity.DirectChatID(userID, otherID),
		Type:         entity.ChatTypeDirect,
		Participants: []string{userID, otherID},
		CreatedBy:    userID,
	}

	stored, created, err := uc.chatRepo.Create(ctx, chat)
	if err != nil {
		log.Printf("CreateDirectChat Error: Failed to create chat between %s and %s: %v", userID, otherID, err)
		return nil, err
	}

	if created {
		uc.realtime.SendToUsers(stored.Participants, userID, ws.NewEvent(ws.MessageTypeChat, stored.ID, stored))
	} else {
		log.Printf("CreateDirectChat: Reusing chat %s", stored.ID)
	}

	return &ChatResponse{Chat: stored, OtherUser: otherUser}, nil
}

func (uc *ChatUseCase) CreateGroupChat(ctx context.Context, userID string, input CreateGroupChatInput) (*ChatResponse, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.Validation("name", "Group name is required")
	}

	members := uniqueIDs(input.MemberIDs, userID)
	if len(members) == 0 {
		return nil, errors.Validation("member_ids", "Select at least one member")
	}

	if err := uc.requireUsers(ctx, members); err != nil {
		return nil, err
	}

	chat := &entity.Chat{
		Type:         entity.ChatTypeGroup,
		Name:         name,
		Participants: append([]string{userID}, members...),
		CreatedBy:    userID,
	}

	stored, _, err := uc.chatRepo.Create(ctx, chat)
	if err != nil {
		log.Printf("CreateGroupChat Error: Failed to create group %q: %v", name, err)
		return nil, err
	}

	uc.realtime.SendToUsers(stored.Participants, userID, ws.NewEvent(ws.MessageTypeChat, stored.ID, stored))
	return &ChatResponse{Chat: stored}, nil
}

// EnsureOutletChat returns the default outlet-wide group, creating it or
// adding staff who joined since it was created.
func (uc *ChatUseCase) EnsureOutletChat(ctx context.Context, userID, outletID string) (*ChatResponse, error) {
	caller, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if caller.Role != entity.RoleOwner && caller.OutletID != outletID {
		return nil, errors.Forbidden("User does not belong to this outlet", nil)
	}

	staff, err := uc.userRepo.ListByOutlet(ctx, outletID)
	if err != nil {
		log.Printf("EnsureOutletChat Error: Failed to list staff for outlet %s: %v", outletID, err)
		return nil, err
	}

	participants := []string{userID}
	for _, member := range staff {
		participants = append(participants, member.ID)
	}
	participants = uniqueIDs(participants, "")

	chat := &entity.Chat{
		ID:           entity.OutletChatID(outletID),
		Type:         entity.ChatTypeGroup,
		Name:         defaultGroupName,
		IsDefault:    true,
		OutletID:     outletID,
		Participants: participants,
		CreatedBy:    userID,
	}

	stored, created, err := uc.chatRepo.Create(ctx, chat)
	if err != nil {
		return nil, err
	}
	if created {
		return &ChatResponse{Chat: stored}, nil
	}

	missing := missingIDs(stored, participants)
	if len(missing) > 0 {
		if err := uc.chatRepo.AddParticipants(ctx, stored.ID, missing); err != nil {
			return nil, err
		}
		stored.Participants = append(stored.Participants, missing...)
		uc.realtime.SendToUsers(stored.Participants, "", ws.NewEvent(ws.MessageTypeMembers, stored.ID, map[string]interface{}{
			"member_ids": missing,
		}))
	}

	return &ChatResponse{Chat: stored}, nil
}

// AddMembers adds users to a group chat. Only owners may do this, and
// outlet-scoped groups are managed through the staff list instead.
func (uc *ChatUseCase) AddMembers(ctx context.Context, userID, chatID string, memberIDs []string) (*ChatResponse, error) {
	chat, caller, err := uc.loadForMembership(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	if chat.Type != entity.ChatTypeGroup {
		return nil, errors.BadRequest("Members can only be added to group chats", nil)
	}
	if caller.Role != entity.RoleOwner {
		return nil, errors.Forbidden("Only the owner can add members", nil)
	}
	if chat.OutletScoped() {
		return nil, errors.Redirect("STAFF_MANAGEMENT", "Outlet group members are managed from staff management", StaffManagementPath(chat.OutletID))
	}

	added := missingIDs(chat, uniqueIDs(memberIDs, userID))
	if len(added) == 0 {
		return nil, errors.Validation("member_ids", "Select at least one new member")
	}
	if err := uc.requireUsers(ctx, added); err != nil {
		return nil, err
	}

	if err := uc.chatRepo.AddParticipants(ctx, chatID, added); err != nil {
		log.Printf("AddMembers Error: Failed to add %v to chat %s: %v", added, chatID, err)
		return nil, err
	}
	chat.Participants = append(chat.Participants, added...)

	uc.realtime.SendToUsers(chat.Participants, "", ws.NewEvent(ws.MessageTypeMembers, chatID, map[string]interface{}{
		"member_ids": added,
		"added_by":   userID,
	}))

	return &ChatResponse{Chat: chat}, nil
}

func (uc *ChatUseCase) AddMemberOptions(ctx context.Context, userID, chatID string) (*AddMemberOptions, error) {
	chat, caller, err := uc.loadForMembership(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	opts := &AddMemberOptions{}
	if chat.Type != entity.ChatTypeGroup || caller.Role != entity.RoleOwner {
		return opts, nil
	}

	if !chat.OutletScoped() {
		opts.CanAdd = true
		opts.Mode = AddMemberModeDirect
		opts.HasAddableStaff = true
		return opts, nil
	}

	staff, err := uc.userRepo.ListByOutlet(ctx, chat.OutletID)
	if err != nil {
		return nil, err
	}
	for _, member := range staff {
		if !chat.HasParticipant(member.ID) {
			opts.HasAddableStaff = true
			break
		}
	}

	opts.CanAdd = opts.HasAddableStaff
	opts.Mode = AddMemberModeStaffManagement
	opts.Target = StaffManagementPath(chat.OutletID)
	return opts, nil
}

// MarkChatAsRead advances the caller's read-mark. The mark is clamped to
// now and never moves backward; the stored value is returned.
func (uc *ChatUseCase) MarkChatAsRead(ctx context.Context, userID, chatID string, at time.Time) (time.Time, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		log.Printf("MarkChatAsRead Error: Chat %s not found: %v", chatID, err)
		return time.Time{}, err
	}
	if !chat.HasParticipant(userID) {
		return time.Time{}, errors.Forbidden("User is not a participant in this chat", nil)
	}

	now := uc.now()
	if at.IsZero() || at.After(now) {
		at = now
	}

	previous := chat.LastReadBy[userID]
	stored, err := uc.chatRepo.AdvanceReadMark(ctx, chatID, userID, at)
	if err != nil {
		log.Printf("MarkChatAsRead Error: Failed to update read marker for %s in chat %s: %v", userID, chatID, err)
		return time.Time{}, err
	}

	if stored.After(previous) {
		uc.realtime.SendToUsers(chat.Participants, userID, ws.NewEvent(ws.MessageTypeRead, chatID, ws.ReadData{
			UserID: userID,
			At:     stored.UTC().Format(time.RFC3339Nano),
		}))
	}

	return stored, nil
}

// MarkRead serves mark_read frames arriving over the websocket.
func (uc *ChatUseCase) MarkRead(ctx context.Context, userID, chatID string, at time.Time) (time.Time, error) {
	return uc.MarkChatAsRead(ctx, userID, chatID, at)
}

// SendMessage persists a message. A retried send carrying the same client id
// returns the stored message instead of creating a second one.
func (uc *ChatUseCase) SendMessage(ctx context.Context, userID string, input SendMessageInput) (*MessageResponse, error) {
	if input.Type == "" {
		input.Type = entity.MessageTypeText
	}
	if err := validateMessageInput(input); err != nil {
		return nil, err
	}

	allowed, waitTime := uc.rateLimiter.Allow(userID, ratelimit.ActionSendMessage)
	if !allowed {
		log.Printf("SendMessage Rate Limited: User %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests(fmt.Sprintf("Sending too quickly, retry in %.0fs", waitTime.Seconds()))
	}

	chat, err := uc.chatRepo.GetByID(ctx, input.ChatID)
	if err != nil {
		log.Printf("SendMessage Error: Chat %s not found: %v", input.ChatID, err)
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		log.Printf("SendMessage Error: User %s is not a participant in chat %s", userID, input.ChatID)
		return nil, errors.Forbidden("User is not a participant in this chat", nil)
	}

	if input.ClientID != "" {
		existing, err := uc.chatRepo.GetMessageByClientID(ctx, input.ChatID, userID, input.ClientID)
		if err == nil {
			uc.ack(userID, existing)
			return uc.withSender(ctx, existing), nil
		}
		if !errors.Is(err, "NOT_FOUND") {
			return nil, err
		}
	}

	message := &entity.Message{
		ID:            uuid.New().String(),
		ChatID:        input.ChatID,
		SenderID:      userID,
		ClientID:      input.ClientID,
		Type:          input.Type,
		Content:       strings.TrimSpace(input.Content),
		AudioURL:      input.AudioURL,
		AudioDuration: input.AudioDuration,
		FileURL:       input.FileURL,
		FileName:      input.FileName,
		FileMimeType:  input.FileMimeType,
		FileSize:      input.FileSize,
		CreatedAt:     uc.now(),
	}

	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		log.Printf("SendMessage Error: Failed to create message for chat %s: %v", input.ChatID, err)
		return nil, err
	}

	// The message is stored; a stale chat summary is not worth failing the send.
	if err := uc.chatRepo.UpdateLastMessage(ctx, chat.ID, message.Preview(), message.CreatedAt); err != nil {
		log.Printf("SendMessage Warning: Failed to update last message of chat %s: %v", chat.ID, err)
	}

	response := uc.withSender(ctx, message)
	uc.realtime.SendToUsers(chat.Participants, userID, ws.NewEvent(ws.MessageTypeMessage, chat.ID, response))
	uc.ack(userID, message)

	event := service.MessageCreatedEvent{
		ChatID:    chat.ID,
		MessageID: message.ID,
		SenderID:  userID,
		CreatedAt: message.CreatedAt,
	}
	if err := uc.publisher.Publish(ctx, service.RoutingKeyMessageCreated, event); err != nil {
		log.Printf("SendMessage Warning: Failed to publish %s for message %s: %v", service.RoutingKeyMessageCreated, message.ID, err)
	}

	return response, nil
}

func (uc *ChatUseCase) ack(userID string, message *entity.Message) {
	uc.realtime.SendToUser(userID, ws.NewEvent(ws.MessageTypeAck, message.ChatID, ws.AckData{
		ClientID:  message.ClientID,
		MessageID: message.ID,
		CreatedAt: message.CreatedAt.UTC().Format(time.RFC3339Nano),
	}))
}

func (uc *ChatUseCase) withSender(ctx context.Context, message *entity.Message) *MessageResponse {
	resp := &MessageResponse{Message: message}
	sender, err := uc.userRepo.GetByID(ctx, message.SenderID)
	if err == nil {
		resp.Sender = sender
	} else {
		log.Printf("SendMessage Warning: Sender %s not found: %v", message.SenderID, err)
	}
	return resp
}

func validateMessageInput(input SendMessageInput) error {
	if strings.TrimSpace(input.ChatID) == "" {
		return errors.Validation("chat_id", "Chat is required")
	}

	switch input.Type {
	case entity.MessageTypeText:
		content := strings.TrimSpace(input.Content)
		if content == "" {
			return errors.Validation("content", "Message content is required")
		}
		if len(content) > maxContentLength {
			return errors.Validation("content", fmt.Sprintf("Message content exceeds %d characters", maxContentLength))
		}
	case entity.MessageTypeAudio:
		if input.AudioURL == "" {
			return errors.Validation("audio_url", "Voice message URL is required")
		}
		if input.AudioDuration < 0 {
			return errors.Validation("audio_duration", "Voice message duration cannot be negative")
		}
	case entity.MessageTypeFile:
		if input.FileURL == "" {
			return errors.Validation("file_url", "Attachment URL is required")
		}
		if input.FileMimeType == "" {
			return errors.Validation("file_mime_type", "Attachment type is required")
		}
		if input.FileSize <= 0 {
			return errors.Validation("file_size", "Attachment size is required")
		}
	default:
		return errors.Validation("type", "Unsupported message type")
	}
	return nil
}

func (uc *ChatUseCase) GetChatMessages(ctx context.Context, userID, chatID string, query repository.MessageQuery) ([]*MessageResponse, int64, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		log.Printf("GetChatMessages Error: Chat %s not found: %v", chatID, err)
		return nil, 0, err
	}
	if !chat.HasParticipant(userID) {
		log.Printf("GetChatMessages Error: User %s is not a participant in chat %s", userID, chatID)
		return nil, 0, errors.Forbidden("User is not a participant in this chat", nil)
	}

	messages, total, err := uc.chatRepo.ListMessages(ctx, chatID, query)
	if err != nil {
		log.Printf("GetChatMessages Error: Failed to get messages for chat %s: %v", chatID, err)
		return nil, 0, err
	}

	senders := make(map[string]*entity.User)
	var senderIDs []string
	for _, m := range messages {
		senderIDs = append(senderIDs, m.SenderID)
	}
	if ids := uniqueIDs(senderIDs, ""); len(ids) > 0 {
		users, err := uc.userRepo.GetByIDs(ctx, ids)
		if err != nil {
			log.Printf("GetChatMessages Warning: Failed to load senders for chat %s: %v", chatID, err)
		}
		for _, u := range users {
			senders[u.ID] = u
		}
	}

	responses := make([]*MessageResponse, 0, len(messages))
	for _, m := range messages {
		responses = append(responses, &MessageResponse{Message: m, Sender: senders[m.SenderID]})
	}

	return responses, total, nil
}

func (uc *ChatUseCase) GetUserChats(ctx context.Context, userID string, limit, offset int) ([]*ChatResponse, int64, error) {
	chats, total, err := uc.chatRepo.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		log.Printf("GetUserChats Error: Failed to list chats for user %s: %v", userID, err)
		return nil, 0, err
	}

	responses := make([]*ChatResponse, 0, len(chats))
	for _, chat := range chats {
		responses = append(responses, uc.chatResponse(ctx, userID, chat))
	}

	return responses, total, nil
}

func (uc *ChatUseCase) GetChatByID(ctx context.Context, userID, chatID string) (*ChatResponse, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		log.Printf("GetChatByID Error: Chat %s not found: %v", chatID, err)
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("User is not a participant in this chat", nil)
	}

	return uc.chatResponse(ctx, userID, chat), nil
}

func (uc *ChatUseCase) chatResponse(ctx context.Context, userID string, chat *entity.Chat) *ChatResponse {
	resp := &ChatResponse{Chat: chat}
	if chat.Type != entity.ChatTypeDirect {
		return resp
	}

	for _, participantID := range chat.Participants {
		if participantID == userID {
			continue
		}
		otherUser, err := uc.userRepo.GetByID(ctx, participantID)
		if err == nil {
			resp.OtherUser = otherUser
		} else {
			log.Printf("GetUserChats Warning: Other user %s not found for chat %s: %v", participantID, chat.ID, err)
		}
		break
	}
	return resp
}

func (uc *ChatUseCase) loadForMembership(ctx context.Context, userID, chatID string) (*entity.Chat, *entity.User, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, nil, errors.Forbidden("User is not a participant in this chat", nil)
	}
	caller, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return chat, caller, nil
}

func (uc *ChatUseCase) requireUsers(ctx context.Context, ids []string) error {
	users, err := uc.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	found := make(map[string]bool, len(users))
	for _, u := range users {
		found[u.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return errors.Validation("member_ids", fmt.Sprintf("Unknown member %s", id))
		}
	}
	return nil
}

// uniqueIDs trims, drops blanks and skip, and collapses duplicates in order.
func uniqueIDs(ids []string, skip string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || id == skip || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func missingIDs(chat *entity.Chat, ids []string) []string {
	var out []string
	for _, id := range ids {
		if !chat.HasParticipant(id) {
			out = append(out, id)
		}
	}
	return out
}
