package entity

import (
	"time"
)

const (
	AttachmentAudio = "audio"
	AttachmentFile  = "file"
)

type FileMetadata struct {
	ID         string    `json:"id" firestore:"id"`
	URL        string    `json:"url" firestore:"url"`
	ObjectName string    `json:"object_name" firestore:"objectName"`
	Kind       string    `json:"kind" firestore:"kind"` // "audio", "file"
	ChatID     string    `json:"chat_id" firestore:"chatId"`
	UploadedBy string    `json:"uploaded_by" firestore:"uploadedBy"`
	Filename   string    `json:"filename" firestore:"filename"`
	FileType   string    `json:"file_type" firestore:"fileType"`
	FileSize   int64     `json:"file_size" firestore:"fileSize"`
	Duration   int       `json:"duration,omitempty" firestore:"duration,omitempty"`
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt"`
}
