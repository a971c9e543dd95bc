package usecase

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"outletchat/internal/domain/entity"
	"outletchat/internal/domain/repository"
	"outletchat/internal/domain/service"
	"outletchat/pkg/attachment"
	"outletchat/pkg/errors"
	"outletchat/pkg/logger"
)

type UploadUseCase struct {
	fileService  service.FileUploadService
	metadataRepo repository.FileMetadataRepository
	chatRepo     repository.ChatRepository
	maxSize      int64
}

func NewUploadUseCase(
	fileService service.FileUploadService,
	metadataRepo repository.FileMetadataRepository,
	chatRepo repository.ChatRepository,
	maxSize int64,
) *UploadUseCase {
	if maxSize <= 0 {
		maxSize = attachment.DefaultMaxSize
	}
	return &UploadUseCase{
		fileService:  fileService,
		metadataRepo: metadataRepo,
		chatRepo:     chatRepo,
		maxSize:      maxSize,
	}
}

// UploadInput describes one attachment. Size and MimeType are the values the
// client declared; they are checked before any bytes reach storage.
type UploadInput struct {
	ChatID   string
	Kind     string
	Filename string
	MimeType string
	Size     int64
	Duration int
	Body     io.Reader
}

func (uc *UploadUseCase) MaxSize() int64 {
	return uc.maxSize
}

func (uc *UploadUseCase) validate(input UploadInput) error {
	if input.ChatID == "" {
		return errors.Validation("chat_id", "Chat is required")
	}
	if input.Size <= 0 {
		return errors.Validation("file", "File is empty")
	}
	if input.Size > uc.maxSize {
		return errors.Validation("file", fmt.Sprintf("File size exceeds maximum allowed (%dMB)", uc.maxSize/(1024*1024)))
	}

	switch input.Kind {
	case entity.AttachmentAudio:
		if !attachment.AllowedAudio(input.MimeType) {
			return errors.Validation("file", "Audio format not supported")
		}
		if input.Duration < 0 {
			return errors.Validation("duration", "Duration cannot be negative")
		}
	case entity.AttachmentFile:
		if !attachment.Allowed(input.MimeType) {
			return errors.Validation("file", "File type not supported")
		}
	default:
		return errors.Validation("kind", "Attachment kind must be audio or file")
	}
	return nil
}

// UploadAttachment stores an attachment for a chat the caller belongs to.
func (uc *UploadUseCase) UploadAttachment(ctx context.Context, userID string, input UploadInput) (*entity.FileMetadata, error) {
	input.MimeType = attachment.NormalizeMime(input.MimeType)
	if err := uc.validate(input); err != nil {
		return nil, err
	}

	chat, err := uc.chatRepo.GetByID(ctx, input.ChatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("User is not a participant in this chat", nil)
	}

	filename := sanitizeFilename(input.Filename, input.Kind)
	folder := path.Join("chats", chat.ID, input.Kind)

	// Declared sizes can lie; read one byte past the limit to detect it.
	body := io.LimitReader(input.Body, uc.maxSize+1)
	result, err := uc.fileService.UploadFile(ctx, body, input.MimeType, filename, folder)
	if err != nil {
		logger.Error("Upload to storage failed for chat %s: %v", chat.ID, err)
		return nil, errors.Internal("Failed to upload file", err)
	}
	if result.Size > uc.maxSize {
		if delErr := uc.fileService.DeleteFile(ctx, result.ObjectName); delErr != nil {
			logger.Warn("Failed to delete oversize object %s: %v", result.ObjectName, delErr)
		}
		return nil, errors.Validation("file", fmt.Sprintf("File size exceeds maximum allowed (%dMB)", uc.maxSize/(1024*1024)))
	}

	metadata := &entity.FileMetadata{
		ID:         uuid.New().String(),
		URL:        result.URL,
		ObjectName: result.ObjectName,
		Kind:       input.Kind,
		ChatID:     chat.ID,
		UploadedBy: userID,
		Filename:   filename,
		FileType:   input.MimeType,
		FileSize:   result.Size,
		Duration:   input.Duration,
		CreatedAt:  time.Now(),
	}

	if err := uc.metadataRepo.Create(ctx, metadata); err != nil {
		logger.Error("Failed to save file metadata: %v", err)
		if delErr := uc.fileService.DeleteFile(ctx, result.ObjectName); delErr != nil {
			logger.Warn("Failed to delete orphaned object %s: %v", result.ObjectName, delErr)
		}
		return nil, err
	}

	logger.Debug("Attachment %s stored for chat %s (%s, %d bytes)", metadata.ID, chat.ID, metadata.FileType, metadata.FileSize)
	return metadata, nil
}

// ResolveAudio looks up a voice clip by the bare id some messages carry.
func (uc *UploadUseCase) ResolveAudio(ctx context.Context, id string) (*entity.FileMetadata, error) {
	metadata, err := uc.metadataRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if metadata.Kind != entity.AttachmentAudio {
		return nil, errors.NotFound("Audio", nil)
	}
	return metadata, nil
}

func sanitizeFilename(name, kind string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		if kind == entity.AttachmentAudio {
			return "voice-note"
		}
		return "attachment"
	}
	return name
}
