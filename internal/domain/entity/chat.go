package entity

import (
	"sort"
	"time"
)

const (
	ChatTypeDirect = "direct"
	ChatTypeGroup  = "group"
)

type Chat struct {
	ID            string               `json:"id" firestore:"id"`
	Type          string               `json:"type" firestore:"type"` // "direct", "group"
	Name          string               `json:"name,omitempty" firestore:"name,omitempty"`
	IsDefault     bool                 `json:"is_default" firestore:"isDefault"` // auto-created outlet-wide group
	Participants  []string             `json:"participants" firestore:"participants"`
	OutletID      string               `json:"outlet_id,omitempty" firestore:"outletId,omitempty"`
	CreatedBy     string               `json:"created_by" firestore:"createdBy"`
	LastReadBy    map[string]time.Time `json:"last_read_by" firestore:"lastReadBy"`
	LastMessage   string               `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt time.Time            `json:"last_message_at" firestore:"lastMessageAt"`
	CreatedAt     time.Time            `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time            `json:"updated_at" firestore:"updatedAt"`
}

func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OutletScoped reports whether membership is managed through the outlet's staff list.
func (c *Chat) OutletScoped() bool {
	return c.OutletID != ""
}

// DirectChatID is the document id shared by every direct chat between the
// same two users, whatever order they are given in.
func DirectChatID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return "direct_" + pair[0] + "_" + pair[1]
}

func OutletChatID(outletID string) string {
	return "outlet_" + outletID
}
