package chatclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": status < 300, "data": data})
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", func(ctx context.Context) (string, error) { return "tok", nil })
}

func TestClientPersistMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chats/c1/messages", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "k1", body["client_id"])
		assert.Equal(t, "text", body["type"])

		writeEnvelope(w, http.StatusCreated, map[string]interface{}{
			"id": "m1", "chat_id": "c1", "sender_id": "u1", "client_id": "k1", "type": "text",
			"content": "hi", "created_at": "2024-05-01T09:00:00Z",
			"sender": map[string]string{"id": "u1", "name": "Sari"},
		})
	})

	msg, err := c.PersistMessage(context.Background(), "c1", Draft{ClientID: "k1", Type: TypeText, Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, "Sari", msg.Sender.Name)
	assert.Equal(t, t0, msg.CreatedAt)
}

func TestClientListMessagesQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Equal(t, "2024-05-01T09:00:00Z", r.URL.Query().Get("from"))
		assert.Empty(t, r.URL.Query().Get("to"))
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"items": []map[string]interface{}{{"id": "m1", "sender_id": "u2"}},
			"total": 1,
		})
	})

	messages, err := c.ListMessages(context.Background(), "c1", Query{Limit: 20, From: t0})
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "u2", ParticipantID(messages[0].Sender))
}

func TestClientSurfacesAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"success":false,"error":{"code":"VALIDATION_ERROR","message":"Group name is required","field":"name"}}`)
	})

	_, err := c.CreateGroup(context.Background(), " ", []string{"u2"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "name", apiErr.Field)
}

func TestClientUploadMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "c1", r.FormValue("chat_id"))
		assert.Equal(t, "audio", r.FormValue("kind"))
		assert.Equal(t, "4", r.FormValue("duration"))

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "opus", string(data))
		assert.Equal(t, "audio/webm", header.Header.Get("Content-Type"))

		writeEnvelope(w, http.StatusCreated, map[string]interface{}{"id": "f1", "url": "https://cdn/f1.webm"})
	})

	res, err := c.Upload(context.Background(), "c1", Upload{
		Kind: TypeAudio, Filename: "voice.webm", MimeType: "audio/webm", Duration: 4, Body: strings.NewReader("opus"),
	})
	require.NoError(t, err)
	assert.Equal(t, "f1", res.ID)
}

func TestClientMarkRead(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/chats/c1/read", r.URL.Path)
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"chat_id": "c1", "last_read_at": t0.Add(time.Minute)})
	})

	stored, err := c.MarkRead(context.Background(), "c1", t0)
	require.NoError(t, err)
	assert.True(t, stored.Equal(t0.Add(time.Minute)))
}
