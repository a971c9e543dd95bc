package chatclient

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipantRefDecodesBothShapes(t *testing.T) {
	var refs []ParticipantRef
	require.NoError(t, json.Unmarshal([]byte(`["u1", {"id":"u2","name":"Sari","role":"cashier"}, {"uid":"u3"}, null]`), &refs))

	require.Len(t, refs, 4)
	assert.Equal(t, "u1", ParticipantID(refs[0]))
	assert.Equal(t, "u2", ParticipantID(refs[1]))
	assert.Equal(t, "Sari", refs[1].Name)
	assert.Equal(t, "u3", ParticipantID(refs[2]))
	assert.Equal(t, "", ParticipantID(refs[3]))

	assert.True(t, SameParticipant(ParticipantRef{ID: "u2"}, refs[1]))
	assert.False(t, SameParticipant(refs[3], ParticipantRef{}))
}

func TestMessageFoldsSenderID(t *testing.T) {
	var plain Message
	require.NoError(t, json.Unmarshal([]byte(`{"id":"m1","chat_id":"c1","sender_id":"u1","type":"text","content":"hi"}`), &plain))
	assert.Equal(t, "u1", ParticipantID(plain.Sender))

	var embedded Message
	require.NoError(t, json.Unmarshal([]byte(`{"id":"m2","sender_id":"u1","sender":{"id":"u1","name":"Budi"}}`), &embedded))
	assert.Equal(t, "u1", ParticipantID(embedded.Sender))
	assert.Equal(t, "Budi", embedded.Sender.Name)
}
