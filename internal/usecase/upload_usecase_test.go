package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"outletchat/internal/domain/entity"
	"outletchat/internal/domain/service"
	"outletchat/internal/mocks"
	"outletchat/pkg/errors"
)

type uploadFixture struct {
	files *mocks.FileUploadServiceMock
	meta  *mocks.FileMetadataRepositoryMock
	chats *mocks.ChatRepositoryMock
	uc    *UploadUseCase
}

func newUploadFixture(max int64) *uploadFixture {
	f := &uploadFixture{
		files: &mocks.FileUploadServiceMock{},
		meta:  &mocks.FileMetadataRepositoryMock{},
		chats: &mocks.ChatRepositoryMock{},
	}
	f.uc = NewUploadUseCase(f.files, f.meta, f.chats, max)
	return f
}

func TestUploadRejectsBeforeStorage(t *testing.T) {
	f := newUploadFixture(1024)
	ctx := context.Background()

	cases := []UploadInput{
		{ChatID: "c", Kind: entity.AttachmentFile, MimeType: "application/pdf", Size: 2048},
		{ChatID: "c", Kind: entity.AttachmentFile, MimeType: "application/x-sh", Size: 10},
		{ChatID: "c", Kind: entity.AttachmentAudio, MimeType: "application/pdf", Size: 10},
		{ChatID: "c", Kind: "video", MimeType: "video/mp4", Size: 10},
		{Kind: entity.AttachmentFile, MimeType: "application/pdf", Size: 10},
		{ChatID: "c", Kind: entity.AttachmentFile, MimeType: "application/pdf"},
	}
	for _, in := range cases {
		_, err := f.uc.UploadAttachment(ctx, "u", in)
		assert.True(t, errors.Is(err, "VALIDATION_ERROR"), "%+v: %v", in, err)
	}
	f.chats.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	f.files.AssertNotCalled(t, "UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadAttachmentStoresMetadata(t *testing.T) {
	f := newUploadFixture(1024)
	ctx := context.Background()

	f.chats.On("GetByID", ctx, "c").Return(&entity.Chat{ID: "c", Participants: []string{"u"}}, nil)
	f.files.On("UploadFile", ctx, mock.Anything, "audio/webm", "voice.webm", "chats/c/audio").
		Return(&service.UploadResult{URL: "https://storage.googleapis.com/b/o", ObjectName: "o", Size: 300}, nil)
	f.meta.On("Create", ctx, mock.AnythingOfType("*entity.FileMetadata")).Return(nil)

	meta, err := f.uc.UploadAttachment(ctx, "u", UploadInput{
		ChatID:   "c",
		Kind:     entity.AttachmentAudio,
		Filename: "../../voice.webm",
		MimeType: "audio/webm;codecs=opus",
		Size:     300,
		Duration: 9,
		Body:     strings.NewReader(strings.Repeat("x", 300)),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, meta.ID)
	assert.Equal(t, 9, meta.Duration)
	assert.Equal(t, "audio/webm", meta.FileType)
	assert.Equal(t, int64(300), meta.FileSize)
	f.files.AssertExpectations(t)
}

func TestUploadAttachmentUnderstatedSize(t *testing.T) {
	f := newUploadFixture(100)
	ctx := context.Background()

	f.chats.On("GetByID", ctx, "c").Return(&entity.Chat{ID: "c", Participants: []string{"u"}}, nil)
	f.files.On("UploadFile", ctx, mock.Anything, "application/pdf", "a.pdf", "chats/c/file").
		Return(&service.UploadResult{ObjectName: "o", Size: 101}, nil)
	f.files.On("DeleteFile", ctx, "o").Return(nil)

	_, err := f.uc.UploadAttachment(ctx, "u", UploadInput{
		ChatID: "c", Kind: entity.AttachmentFile, Filename: "a.pdf", MimeType: "application/pdf", Size: 10,
		Body: strings.NewReader(strings.Repeat("x", 500)),
	})
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
	f.files.AssertExpectations(t)
	f.meta.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUploadAttachmentRequiresParticipant(t *testing.T) {
	f := newUploadFixture(0)
	f.chats.On("GetByID", mock.Anything, "c").Return(&entity.Chat{ID: "c", Participants: []string{"other"}}, nil)

	_, err := f.uc.UploadAttachment(context.Background(), "u", UploadInput{
		ChatID: "c", Kind: entity.AttachmentFile, MimeType: "image/png", Size: 1, Body: strings.NewReader("x"),
	})
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestResolveAudio(t *testing.T) {
	f := newUploadFixture(0)
	f.meta.On("GetByID", mock.Anything, "a1").Return(&entity.FileMetadata{ID: "a1", Kind: entity.AttachmentAudio, URL: "https://x/a1"}, nil)
	f.meta.On("GetByID", mock.Anything, "f1").Return(&entity.FileMetadata{ID: "f1", Kind: entity.AttachmentFile}, nil)

	meta, err := f.uc.ResolveAudio(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "https://x/a1", meta.URL)

	_, err = f.uc.ResolveAudio(context.Background(), "f1")
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}
