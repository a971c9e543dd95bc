package entity

import "time"

const (
	MessageTypeText  = "text"
	MessageTypeAudio = "audio"
	MessageTypeFile  = "file"
)

type Message struct {
	ID            string    `json:"id" firestore:"id"`
	ChatID        string    `json:"chat_id" firestore:"chatId"`
	SenderID      string    `json:"sender_id" firestore:"senderId"`
	ClientID      string    `json:"client_id,omitempty" firestore:"clientId,omitempty"` // correlation id of the optimistic copy
	Type          string    `json:"type" firestore:"type"`                              // "text", "audio", "file"
	Content       string    `json:"content,omitempty" firestore:"content,omitempty"`
	AudioURL      string    `json:"audio_url,omitempty" firestore:"audioUrl,omitempty"`
	AudioDuration int       `json:"audio_duration,omitempty" firestore:"audioDuration,omitempty"` // seconds
	FileURL       string    `json:"file_url,omitempty" firestore:"fileUrl,omitempty"`
	FileName      string    `json:"file_name,omitempty" firestore:"fileName,omitempty"`
	FileMimeType  string    `json:"file_mime_type,omitempty" firestore:"fileMimeType,omitempty"`
	FileSize      int64     `json:"file_size,omitempty" firestore:"fileSize,omitempty"`
	CreatedAt     time.Time `json:"created_at" firestore:"createdAt"`
}

// Preview is the one-line summary used for chat lists and notifications.
func (m *Message) Preview() string {
	switch m.Type {
	case MessageTypeAudio:
		return "Voice message"
	case MessageTypeFile:
		if m.FileName != "" {
			return "Attachment: " + m.FileName
		}
		return "Attachment"
	default:
		return m.Content
	}
}
