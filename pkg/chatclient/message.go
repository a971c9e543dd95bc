package chatclient

import (
	"encoding/json"
	"time"
)

const (
	TypeText  = "text"
	TypeAudio = "audio"
	TypeFile  = "file"
)

type Message struct {
	ID            string         `json:"id"`
	ChatID        string         `json:"chat_id"`
	Sender        ParticipantRef `json:"sender"`
	ClientID      string         `json:"client_id,omitempty"`
	Type          string         `json:"type"`
	Content       string         `json:"content,omitempty"`
	AudioURL      string         `json:"audio_url,omitempty"`
	AudioDuration int            `json:"audio_duration,omitempty"`
	FileURL       string         `json:"file_url,omitempty"`
	FileName      string         `json:"file_name,omitempty"`
	FileMimeType  string         `json:"file_mime_type,omitempty"`
	FileSize      int64          `json:"file_size,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// UnmarshalJSON folds sender_id into Sender when the server did not embed
// the sender object.
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	var wire struct {
		plain
		SenderID string `json:"sender_id"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*m = Message(wire.plain)
	if m.Sender.ID == "" {
		m.Sender.ID = wire.SenderID
	}
	return nil
}

type Chat struct {
	ID           string               `json:"id"`
	Type         string               `json:"type"`
	Name         string               `json:"name,omitempty"`
	IsDefault    bool                 `json:"is_default"`
	Participants []ParticipantRef     `json:"participants"`
	OutletID     string               `json:"outlet_id,omitempty"`
	CreatedBy    string               `json:"created_by"`
	LastReadBy   map[string]time.Time `json:"last_read_by"`
	OtherUser    *ParticipantRef      `json:"other_user,omitempty"`
}

// Draft is an outbound message before the server has seen it.
type Draft struct {
	ClientID      string `json:"client_id"`
	Type          string `json:"type"`
	Content       string `json:"content,omitempty"`
	AudioURL      string `json:"audio_url,omitempty"`
	AudioDuration int    `json:"audio_duration,omitempty"`
	FileURL       string `json:"file_url,omitempty"`
	FileName      string `json:"file_name,omitempty"`
	FileMimeType  string `json:"file_mime_type,omitempty"`
	FileSize      int64  `json:"file_size,omitempty"`
}

func (d Draft) message(chatID string, sender ParticipantRef, at time.Time) Message {
	return Message{
		ChatID:        chatID,
		Sender:        sender,
		ClientID:      d.ClientID,
		Type:          d.Type,
		Content:       d.Content,
		AudioURL:      d.AudioURL,
		AudioDuration: d.AudioDuration,
		FileURL:       d.FileURL,
		FileName:      d.FileName,
		FileMimeType:  d.FileMimeType,
		FileSize:      d.FileSize,
		CreatedAt:     at,
	}
}

func draftOf(m Message) Draft {
	return Draft{
		ClientID:      m.ClientID,
		Type:          m.Type,
		Content:       m.Content,
		AudioURL:      m.AudioURL,
		AudioDuration: m.AudioDuration,
		FileURL:       m.FileURL,
		FileName:      m.FileName,
		FileMimeType:  m.FileMimeType,
		FileSize:      m.FileSize,
	}
}
