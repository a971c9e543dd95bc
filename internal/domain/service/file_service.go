package service

import (
	"context"
	"io"
)

type UploadResult struct {
	URL        string
	ObjectName string
	Size       int64
}

type FileUploadService interface {
	UploadFile(ctx context.Context, file io.Reader, fileType, filename, folder string) (*UploadResult, error)
	DeleteFile(ctx context.Context, objectName string) error
	Close() error
}
