package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectChatIDIsOrderIndependent(t *testing.T) {
	assert.Equal(t, DirectChatID("alice", "bob"), DirectChatID("bob", "alice"))
	assert.Equal(t, "direct_alice_bob", DirectChatID("bob", "alice"))
}

func TestMessagePreview(t *testing.T) {
	assert.Equal(t, "hi", (&Message{Type: MessageTypeText, Content: "hi"}).Preview())
	assert.Equal(t, "Voice message", (&Message{Type: MessageTypeAudio}).Preview())
	assert.Equal(t, "Attachment: stock.csv", (&Message{Type: MessageTypeFile, FileName: "stock.csv"}).Preview())
}
