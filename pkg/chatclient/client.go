package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TokenFunc returns the bearer token for the next request.
type TokenFunc func(ctx context.Context) (string, error)

// Upload is one attachment on its way to the server.
type Upload struct {
	Kind     string
	Filename string
	MimeType string
	Size     int64
	Duration int
	Body     io.Reader
}

type UploadResult struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Kind     string `json:"kind"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Duration int    `json:"duration"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field"`
	Target  string `json:"target"`
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

type page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

// Client talks to the chat REST API.
type Client struct {
	baseURL    string
	token      TokenFunc
	HTTPClient *http.Client
}

func NewClient(baseURL string, token TokenFunc) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) PersistMessage(ctx context.Context, chatID string, draft Draft) (*Message, error) {
	var msg Message
	if err := c.doJSON(ctx, http.MethodPost, "/api/chats/"+url.PathEscape(chatID)+"/messages", draft, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) ListMessages(ctx context.Context, chatID string, q Query) ([]Message, error) {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	if !q.From.IsZero() {
		params.Set("from", q.From.UTC().Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		params.Set("to", q.To.UTC().Format(time.RFC3339))
	}

	path := "/api/chats/" + url.PathEscape(chatID) + "/messages"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var p page[Message]
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	return p.Items, nil
}

func (c *Client) CreateDirect(ctx context.Context, otherID string) (*Chat, error) {
	var chat Chat
	body := map[string][]string{"participant_ids": {otherID}}
	if err := c.doJSON(ctx, http.MethodPost, "/api/chats/direct", body, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (c *Client) CreateGroup(ctx context.Context, name string, memberIDs []string) (*Chat, error) {
	var chat Chat
	body := map[string]interface{}{"name": name, "member_ids": memberIDs}
	if err := c.doJSON(ctx, http.MethodPost, "/api/chats/group", body, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (c *Client) GetChat(ctx context.Context, chatID string) (*Chat, error) {
	var chat Chat
	if err := c.doJSON(ctx, http.MethodGet, "/api/chats/"+url.PathEscape(chatID), nil, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// MarkRead advances the caller's read-mark; a zero at means now. The server
// returns the stored mark, which never moves backward.
func (c *Client) MarkRead(ctx context.Context, chatID string, at time.Time) (time.Time, error) {
	var body interface{}
	if !at.IsZero() {
		body = map[string]time.Time{"at": at}
	}

	var out struct {
		LastReadAt time.Time `json:"last_read_at"`
	}
	if err := c.doJSON(ctx, http.MethodPut, "/api/chats/"+url.PathEscape(chatID)+"/read", body, &out); err != nil {
		return time.Time{}, err
	}
	return out.LastReadAt, nil
}

func (c *Client) RegisterPushToken(ctx context.Context, token, platform string) error {
	body := map[string]string{"token": token, "platform": platform}
	return c.doJSON(ctx, http.MethodPost, "/api/push-tokens", body, nil)
}

func (c *Client) Upload(ctx context.Context, chatID string, u Upload) (*UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{"chat_id": chatID, "kind": u.Kind}
	if u.Duration > 0 {
		fields["duration"] = strconv.Itoa(u.Duration)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(u.Filename)))
	header.Set("Content-Type", u.MimeType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if u.Body != nil {
		if _, err := io.Copy(part, u.Body); err != nil {
			return nil, fmt.Errorf("read attachment: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var res UploadResult
	if err := c.do(ctx, http.MethodPost, "/api/uploads", w.FormDataContentType(), &buf, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	return c.do(ctx, method, path, "application/json", reader, out)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return fmt.Errorf("get token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode, Code: "HTTP_ERROR", Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 300 || !env.Success {
		apiErr := env.Error
		if apiErr == nil {
			apiErr = &APIError{Code: "HTTP_ERROR", Message: http.StatusText(resp.StatusCode)}
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
