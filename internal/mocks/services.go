package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"outletchat/internal/domain/service"
	ws "outletchat/internal/infrastructure/websocket"
)

type FileUploadServiceMock struct {
	mock.Mock
}

func (m *FileUploadServiceMock) UploadFile(ctx context.Context, file io.Reader, fileType, filename, folder string) (*service.UploadResult, error) {
	args := m.Called(ctx, file, fileType, filename, folder)
	var result *service.UploadResult
	if val := args.Get(0); val != nil {
		result = val.(*service.UploadResult)
	}
	return result, args.Error(1)
}

func (m *FileUploadServiceMock) DeleteFile(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}

func (m *FileUploadServiceMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type PushDispatcherMock struct {
	mock.Mock
}

func (m *PushDispatcherMock) Dispatch(ctx context.Context, tokens []string, payload service.PushPayload) service.DispatchResult {
	args := m.Called(ctx, tokens, payload)
	return args.Get(0).(service.DispatchResult)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

// RealtimeMock records websocket fan-out.
type RealtimeMock struct {
	mock.Mock
}

func (m *RealtimeMock) IsOnline(userID string) bool {
	args := m.Called(userID)
	return args.Bool(0)
}

func (m *RealtimeMock) SendToUser(userID string, event ws.WSMessage) {
	m.Called(userID, event)
}

func (m *RealtimeMock) SendToUsers(userIDs []string, skip string, event ws.WSMessage) {
	m.Called(userIDs, skip, event)
}

type TokenVerifierMock struct {
	mock.Mock
}

func (m *TokenVerifierMock) VerifyToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}
