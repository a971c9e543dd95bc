package usecase

import (
	"context"
	"sort"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"outletchat/internal/domain/entity"
	"outletchat/internal/domain/service"
	"outletchat/internal/mocks"
	"outletchat/pkg/errors"
)

type notifyFixture struct {
	chats      *mocks.ChatRepositoryMock
	users      *mocks.UserRepositoryMock
	tokens     *mocks.PushTokenRepositoryMock
	dispatcher *mocks.PushDispatcherMock
	presence   *mocks.RealtimeMock
	uc         *NotificationUseCase
}

func newNotifyFixture() *notifyFixture {
	f := &notifyFixture{
		chats:      &mocks.ChatRepositoryMock{},
		users:      &mocks.UserRepositoryMock{},
		tokens:     &mocks.PushTokenRepositoryMock{},
		dispatcher: &mocks.PushDispatcherMock{},
		presence:   &mocks.RealtimeMock{},
	}
	f.uc = NewNotificationUseCase(f.chats, f.users, f.tokens, f.dispatcher, f.presence)
	return f
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func TestNotifyMessageSkipsSenderAndOnlineRecipients(t *testing.T) {
	f := newNotifyFixture()
	chat := &entity.Chat{ID: "c", Type: entity.ChatTypeGroup, Name: "Kasir", Participants: []string{"a", "b", "c", "d"}}
	msg := &entity.Message{ID: "m", ChatID: "c", SenderID: "a", Type: entity.MessageTypeText, Content: "stok habis"}

	f.chats.On("GetByID", mock.Anything, "c").Return(chat, nil)
	f.chats.On("GetMessageByID", mock.Anything, "c", "m").Return(msg, nil)
	f.presence.On("IsOnline", "b").Return(true)
	f.presence.On("IsOnline", "c").Return(false)
	f.presence.On("IsOnline", "d").Return(false)
	f.tokens.On("ListByUserID", mock.Anything, "c").Return([]*entity.PushToken{{Token: "tc1"}, {Token: "tc2"}}, nil)
	f.tokens.On("ListByUserID", mock.Anything, "d").Return([]*entity.PushToken{{Token: "td"}}, nil)
	f.users.On("GetByID", mock.Anything, "a").Return(&entity.User{ID: "a", Name: "Ana"}, nil)

	var sent []string
	var payload service.PushPayload
	f.dispatcher.On("Dispatch", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(1).([]string)
		payload = args.Get(2).(service.PushPayload)
	}).Return(service.DispatchResult{SuccessCount: 2, FailureCount: 1, InvalidTokens: []string{"td"}})
	f.tokens.On("Delete", mock.Anything, "td").Return(nil)

	require.NoError(t, f.uc.NotifyMessage(context.Background(), service.MessageCreatedEvent{ChatID: "c", MessageID: "m"}))

	assert.Equal(t, []string{"tc1", "tc2", "td"}, sortedCopy(sent))
	assert.Equal(t, "Kasir · Ana", payload.Title)
	assert.Equal(t, "stok habis", payload.Body)
	assert.Equal(t, "c", payload.Data["chatId"])
	f.presence.AssertNotCalled(t, "IsOnline", "a")
	f.tokens.AssertExpectations(t)
}

func TestNotifyMessageAllOnlineDispatchesNothing(t *testing.T) {
	f := newNotifyFixture()
	f.chats.On("GetByID", mock.Anything, "c").Return(&entity.Chat{ID: "c", Participants: []string{"a", "b"}}, nil)
	f.chats.On("GetMessageByID", mock.Anything, "c", "m").Return(&entity.Message{ID: "m", SenderID: "a"}, nil)
	f.presence.On("IsOnline", "b").Return(true)

	require.NoError(t, f.uc.NotifyMessage(context.Background(), service.MessageCreatedEvent{ChatID: "c", MessageID: "m"}))
	f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleMessageCreatedSwallowsErrors(t *testing.T) {
	f := newNotifyFixture()
	f.chats.On("GetByID", mock.Anything, "gone").Return(nil, errors.NotFound("Chat", nil))

	err := f.uc.HandleMessageCreated(context.Background(), service.MessageCreatedEvent{ChatID: "gone", MessageID: "m"})
	assert.NoError(t, err)
}

func TestBuildPushPayload(t *testing.T) {
	direct := &entity.Chat{ID: "d", Type: entity.ChatTypeDirect}

	p := BuildPushPayload(direct, &entity.Message{ID: "m", Type: entity.MessageTypeAudio, AudioDuration: 12}, "Budi")
	assert.Equal(t, "Budi", p.Title)
	assert.Equal(t, "Voice message (12s)", p.Body)

	p = BuildPushPayload(direct, &entity.Message{Type: entity.MessageTypeFile, FileName: "invoice.pdf"}, "")
	assert.Equal(t, "New message", p.Title)
	assert.Equal(t, "Attachment: invoice.pdf", p.Body)

	p = BuildPushPayload(direct, &entity.Message{Type: entity.MessageTypeText, Content: strings.Repeat("a", 300)}, "x")
	assert.Len(t, p.Body, 140)

	p = BuildPushPayload(direct, &entity.Message{Type: entity.MessageTypeText, Content: "ab" + strings.Repeat("é", 100)}, "x")
	assert.Equal(t, "ab"+strings.Repeat("é", 100), p.Body)

	p = BuildPushPayload(direct, &entity.Message{Type: entity.MessageTypeText, Content: "ab" + strings.Repeat("é", 200)}, "x")
	assert.True(t, utf8.ValidString(p.Body))
	assert.Equal(t, 140, utf8.RuneCountInString(p.Body))
	assert.Equal(t, "ab"+strings.Repeat("é", 135)+"...", p.Body)
}

func TestRegisterToken(t *testing.T) {
	f := newNotifyFixture()
	f.tokens.On("Save", mock.Anything, mock.MatchedBy(func(tok *entity.PushToken) bool {
		return tok.Token == "abc" && tok.UserID == "u" && tok.Platform == "web"
	})).Return(nil)

	require.NoError(t, f.uc.RegisterToken(context.Background(), "u", " abc ", "web"))
	assertAppError(t, f.uc.RegisterToken(context.Background(), "u", " ", "web"), "VALIDATION_ERROR")
	assertAppError(t, f.uc.UnregisterToken(context.Background(), ""), "VALIDATION_ERROR")
	f.tokens.AssertExpectations(t)
}
