package entity

import "time"

type PushToken struct {
	Token     string    `json:"token" firestore:"token"`
	UserID    string    `json:"user_id" firestore:"userId"`
	Platform  string    `json:"platform,omitempty" firestore:"platform,omitempty"` // "web", "android", "ios"
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}
