package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"outletchat/internal/domain/service"
)

type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
}

var _ service.FileUploadService = (*CloudStorageClient)(nil)

func NewCloudStorageClient(ctx context.Context, bucketName string, opts ...option.ClientOption) (*CloudStorageClient, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	return &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
	}, nil
}

var extensions = map[string]string{
	"image/jpeg":         ".jpg",
	"image/jpg":          ".jpg",
	"image/png":          ".png",
	"image/gif":          ".gif",
	"image/webp":         ".webp",
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/vnd.ms-excel": ".xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": ".xlsx",
	"application/vnd.ms-powerpoint":                                      ".ppt",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": ".pptx",
	"text/plain": ".txt",
	"text/csv":   ".csv",
	"audio/webm": ".webm",
	"audio/ogg":  ".ogg",
	"audio/mp4":  ".m4a",
	"audio/mpeg": ".mp3",
	"audio/wav":  ".wav",
}

// ObjectName builds a collision-free object path that keeps a usable extension.
func ObjectName(folder, fileType, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		base := strings.TrimSpace(strings.SplitN(fileType, ";", 2)[0])
		ext = extensions[base]
	}
	if ext == "" {
		ext = ".bin"
	}
	folder = strings.Trim(folder, "/")
	return fmt.Sprintf("%s/%s-%s%s", folder, uuid.New().String(), time.Now().Format("20060102150405"), ext)
}

func (c *CloudStorageClient) UploadFile(ctx context.Context, file io.Reader, fileType, filename, folder string) (*service.UploadResult, error) {
	objectName := ObjectName(folder, fileType, filename)

	obj := c.client.Bucket(c.bucketName).Object(objectName)
	wc := obj.NewWriter(ctx)
	wc.ContentType = fileType
	wc.CacheControl = "private, max-age=86400"
	if filename != "" {
		wc.ContentDisposition = fmt.Sprintf("inline; filename=%q", path.Base(filename))
	}

	size, err := io.Copy(wc, file)
	if err != nil {
		wc.Close()
		return nil, fmt.Errorf("failed to copy file to GCS: %v", err)
	}

	if err := wc.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %v", err)
	}

	return &service.UploadResult{
		URL:        fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucketName, objectName),
		ObjectName: objectName,
		Size:       size,
	}, nil
}

func (c *CloudStorageClient) DeleteFile(ctx context.Context, objectName string) error {
	if err := c.client.Bucket(c.bucketName).Object(objectName).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete file: %v", err)
	}
	return nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}
