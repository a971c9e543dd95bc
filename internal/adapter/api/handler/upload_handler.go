package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"outletchat/internal/domain/entity"
	"outletchat/internal/usecase"
	"outletchat/pkg/errors"
	"outletchat/pkg/logger"
	"outletchat/pkg/response"
)

type UploadHandler struct {
	uploadUseCase *usecase.UploadUseCase
}

func NewUploadHandler(uploadUseCase *usecase.UploadUseCase) *UploadHandler {
	return &UploadHandler{
		uploadUseCase: uploadUseCase,
	}
}

// Upload accepts a multipart "file" plus chat_id, kind and, for voice
// notes, duration in seconds.
func (h *UploadHandler) Upload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		logger.Error("Error getting file from form: %v", err)
		return response.Error(c, errors.Validation("file", "Missing or invalid file"))
	}

	mimeType := file.Header.Get("Content-Type")
	kind := c.FormValue("kind")
	if kind == "" {
		kind = entity.AttachmentFile
		if strings.HasPrefix(mimeType, "audio/") {
			kind = entity.AttachmentAudio
		}
	}

	duration := 0
	if v := c.FormValue("duration"); v != "" {
		if duration, err = strconv.Atoi(v); err != nil {
			return response.Error(c, errors.Validation("duration", "Duration must be whole seconds"))
		}
	}

	logger.Debug("Received upload: %s, size: %d bytes, type: %s", file.Filename, file.Size, mimeType)

	input := usecase.UploadInput{
		ChatID:   c.FormValue("chat_id"),
		Kind:     kind,
		Filename: file.Filename,
		MimeType: mimeType,
		Size:     file.Size,
		Duration: duration,
	}

	// Reject on declared size before opening the part.
	if file.Size > h.uploadUseCase.MaxSize() {
		return response.Error(c, errors.Validation("file", "File size exceeds maximum allowed"))
	}

	src, err := file.Open()
	if err != nil {
		logger.Error("Error opening file: %v", err)
		return response.Error(c, errors.Internal("Unable to read file", err))
	}
	defer src.Close()
	input.Body = src

	metadata, err := h.uploadUseCase.UploadAttachment(c.Request().Context(), getUserIDFromContext(c), input)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, map[string]interface{}{
		"id":        metadata.ID,
		"url":       metadata.URL,
		"kind":      metadata.Kind,
		"filename":  metadata.Filename,
		"mime_type": metadata.FileType,
		"size":      metadata.FileSize,
		"duration":  metadata.Duration,
	})
}

// ResolveAudio redirects a bare voice-note id to its stored URL.
func (h *UploadHandler) ResolveAudio(c echo.Context) error {
	metadata, err := h.uploadUseCase.ResolveAudio(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return c.Redirect(http.StatusFound, metadata.URL)
}
