package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"outletchat/internal/adapter/api"
	"outletchat/internal/domain/entity"
	"outletchat/internal/domain/repository"
	"outletchat/internal/infrastructure/ratelimit"
	"outletchat/internal/mocks"
	"outletchat/internal/usecase"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code   string `json:"code"`
		Field  string `json:"field"`
		Target string `json:"target"`
	} `json:"error"`
}

type handlerFixture struct {
	e        *echo.Echo
	chats    *mocks.ChatRepositoryMock
	users    *mocks.UserRepositoryMock
	realtime *mocks.RealtimeMock
	handler  *ChatHandler
}

func newHandlerFixture() *handlerFixture {
	e := echo.New()
	e.Validator = api.NewValidator()
	f := &handlerFixture{
		e:        e,
		chats:    &mocks.ChatRepositoryMock{},
		users:    &mocks.UserRepositoryMock{},
		realtime: &mocks.RealtimeMock{},
	}
	uc := usecase.NewChatUseCase(f.chats, f.users, f.realtime, &mocks.PublisherMock{}, ratelimit.NewRateLimiter(60))
	f.handler = NewChatHandler(uc)
	return f
}

func (f *handlerFixture) call(t *testing.T, method, target, body, uid string, params map[string]string, h echo.HandlerFunc) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)
	c.Set("uid", uid)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}

	require.NoError(t, h(c))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestCreateDirectChatHandler(t *testing.T) {
	f := newHandlerFixture()
	chat := &entity.Chat{ID: "direct_a_b", Type: entity.ChatTypeDirect, Participants: []string{"a", "b"}}
	f.users.On("GetByID", mock.Anything, "b").Return(&entity.User{ID: "b", Name: "Budi"}, nil)
	f.chats.On("Create", mock.Anything, mock.Anything).Return(chat, true, nil)
	f.realtime.On("SendToUsers", mock.Anything, "a", mock.Anything)

	rec, env := f.call(t, http.MethodPost, "/api/chats/direct", `{"participant_ids":["b"]}`, "a", nil, f.handler.CreateDirectChat)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"direct_a_b"`)
}

func TestCreateDirectChatHandlerValidation(t *testing.T) {
	f := newHandlerFixture()

	rec, env := f.call(t, http.MethodPost, "/api/chats/direct", `{}`, "a", nil, f.handler.CreateDirectChat)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	rec, env = f.call(t, http.MethodPost, "/api/chats/direct", `{"participant_ids":["b","c"]}`, "a", nil, f.handler.CreateDirectChat)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "participant_ids", env.Error.Field)
}

func TestCreateGroupChatHandlerEmptyName(t *testing.T) {
	f := newHandlerFixture()

	rec, env := f.call(t, http.MethodPost, "/api/chats/group", `{"name":" ","member_ids":["b"]}`, "a", nil, f.handler.CreateGroupChat)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "name", env.Error.Field)
	f.chats.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAddMembersHandlerRedirectsOutletGroups(t *testing.T) {
	f := newHandlerFixture()
	f.chats.On("GetByID", mock.Anything, "outlet_1").Return(&entity.Chat{ID: "outlet_1", Type: entity.ChatTypeGroup, OutletID: "1", Participants: []string{"o"}}, nil)
	f.users.On("GetByID", mock.Anything, "o").Return(&entity.User{ID: "o", Role: entity.RoleOwner}, nil)

	rec, env := f.call(t, http.MethodPost, "/api/chats/outlet_1/members", `{"member_ids":["x"]}`, "o", map[string]string{"id": "outlet_1"}, f.handler.AddMembers)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "STAFF_MANAGEMENT", env.Error.Code)
	assert.Equal(t, "/outlets/1/staff", env.Error.Target)
}

func TestGetChatMessagesHandlerPassesRange(t *testing.T) {
	f := newHandlerFixture()
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)

	f.chats.On("GetByID", mock.Anything, "c").Return(&entity.Chat{ID: "c", Participants: []string{"a"}}, nil)
	f.chats.On("ListMessages", mock.Anything, "c", repository.MessageQuery{Limit: 10, Offset: 20, From: from, To: to}).
		Return([]*entity.Message{}, int64(0), nil)

	rec, env := f.call(t, http.MethodGet, "/api/chats/c/messages?limit=10&offset=20&from=2024-05-01&to=2024-05-01", "", "a", map[string]string{"id": "c"}, f.handler.GetChatMessages)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	f.chats.AssertExpectations(t)

	rec, _ = f.call(t, http.MethodGet, "/api/chats/c/messages?from=yesterday", "", "a", map[string]string{"id": "c"}, f.handler.GetChatMessages)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkChatAsReadHandlerWithoutBody(t *testing.T) {
	f := newHandlerFixture()
	f.chats.On("GetByID", mock.Anything, "c").Return(&entity.Chat{ID: "c", Participants: []string{"a"}}, nil)
	f.chats.On("AdvanceReadMark", mock.Anything, "c", "a", mock.AnythingOfType("time.Time")).
		Return(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), nil)
	f.realtime.On("SendToUsers", mock.Anything, "a", mock.Anything)

	rec, env := f.call(t, http.MethodPut, "/api/chats/c/read", "", "a", map[string]string{"id": "c"}, f.handler.MarkChatAsRead)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "2024-05-01T09:00:00Z")
}
