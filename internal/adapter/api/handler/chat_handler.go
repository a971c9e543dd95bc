package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"outletchat/internal/domain/repository"
	"outletchat/internal/usecase"
	"outletchat/pkg/errors"
	"outletchat/pkg/response"
	"outletchat/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type createDirectChatRequest struct {
	ParticipantIDs []string `json:"participant_ids" validate:"required"`
}

type createGroupChatRequest struct {
	Name      string   `json:"name" validate:"max=80"`
	MemberIDs []string `json:"member_ids"`
}

type addMembersRequest struct {
	MemberIDs []string `json:"member_ids" validate:"required"`
}

type sendMessageRequest struct {
	ClientID      string `json:"client_id" validate:"omitempty,max=64"`
	Type          string `json:"type" validate:"omitempty,oneof=text audio file"`
	Content       string `json:"content"`
	AudioURL      string `json:"audio_url"`
	AudioDuration int    `json:"audio_duration"`
	FileURL       string `json:"file_url"`
	FileName      string `json:"file_name"`
	FileMimeType  string `json:"file_mime_type"`
	FileSize      int64  `json:"file_size"`
}

type markReadRequest struct {
	At *time.Time `json:"at"`
}

// CreateDirectChat returns the caller's direct chat with one other user,
// creating it when it does not exist yet.
func (h *ChatHandler) CreateDirectChat(c echo.Context) error {
	var req createDirectChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	chat, err := h.chatUseCase.CreateDirectChat(c.Request().Context(), getUserIDFromContext(c), req.ParticipantIDs)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, chat)
}

func (h *ChatHandler) CreateGroupChat(c echo.Context) error {
	var req createGroupChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	chat, err := h.chatUseCase.CreateGroupChat(c.Request().Context(), getUserIDFromContext(c), usecase.CreateGroupChatInput{
		Name:      req.Name,
		MemberIDs: req.MemberIDs,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, chat)
}

func (h *ChatHandler) EnsureOutletChat(c echo.Context) error {
	chat, err := h.chatUseCase.EnsureOutletChat(c.Request().Context(), getUserIDFromContext(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chat)
}

// GetUserChats gets all chats for the authenticated user
func (h *ChatHandler) GetUserChats(c echo.Context) error {
	params := utils.GetPaginationParams(c, 20, 100)

	chats, total, err := h.chatUseCase.GetUserChats(c.Request().Context(), getUserIDFromContext(c), params.Limit, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, chats, total, params.Limit, params.Offset)
}

func (h *ChatHandler) GetChatByID(c echo.Context) error {
	chat, err := h.chatUseCase.GetChatByID(c.Request().Context(), getUserIDFromContext(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chat)
}

func (h *ChatHandler) AddMembers(c echo.Context) error {
	var req addMembersRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	chat, err := h.chatUseCase.AddMembers(c.Request().Context(), getUserIDFromContext(c), c.Param("id"), req.MemberIDs)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chat)
}

func (h *ChatHandler) GetAddMemberOptions(c echo.Context) error {
	opts, err := h.chatUseCase.AddMemberOptions(c.Request().Context(), getUserIDFromContext(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, opts)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), getUserIDFromContext(c), usecase.SendMessageInput{
		ChatID:        c.Param("id"),
		ClientID:      req.ClientID,
		Type:          req.Type,
		Content:       req.Content,
		AudioURL:      req.AudioURL,
		AudioDuration: req.AudioDuration,
		FileURL:       req.FileURL,
		FileName:      req.FileName,
		FileMimeType:  req.FileMimeType,
		FileSize:      req.FileSize,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// GetChatMessages pages through a chat's messages oldest first; "from" and
// "to" narrow the window.
func (h *ChatHandler) GetChatMessages(c echo.Context) error {
	params := utils.GetPaginationParams(c, 50, 200)
	dateRange, err := utils.GetDateRange(c)
	if err != nil {
		return response.Error(c, errors.BadRequest("Invalid date range, use RFC3339 or YYYY-MM-DD", err))
	}

	messages, total, err := h.chatUseCase.GetChatMessages(c.Request().Context(), getUserIDFromContext(c), c.Param("id"), repository.MessageQuery{
		Limit:  params.Limit,
		Offset: params.Offset,
		From:   dateRange.From,
		To:     dateRange.To,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, messages, total, params.Limit, params.Offset)
}

func (h *ChatHandler) MarkChatAsRead(c echo.Context) error {
	var req markReadRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return response.Error(c, errors.BadRequest("Invalid request body", err))
		}
	}

	var at time.Time
	if req.At != nil {
		at = *req.At
	}

	stored, err := h.chatUseCase.MarkChatAsRead(c.Request().Context(), getUserIDFromContext(c), c.Param("id"), at)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"chat_id":      c.Param("id"),
		"last_read_at": stored,
	})
}
