package chatclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"outletchat/pkg/attachment"
)

var (
	ErrEmptyMessage   = errors.New("chatclient: message is empty")
	ErrNotRetryable   = errors.New("chatclient: message is not in a failed state")
	ErrUnknownMessage = errors.New("chatclient: unknown client id")
)

type Status int

const (
	StatusPending Status = iota
	StatusConfirmed
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusConfirmed:
		return "confirmed"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Entry is one row of the conversation. Pending entries have no server id.
type Entry struct {
	Message
	Status Status
	Err    error

	gen uint64
}

func (e Entry) Optimistic() bool {
	return e.Status != StatusConfirmed
}

// Outcome is the result of one send attempt.
type Outcome struct {
	ClientID string
	Message  *Message
	Err      error
}

// EntryView is an entry with its display annotations.
type EntryView struct {
	Entry
	ShowSender bool
	SeenBy     []string
}

// MessageStore persists and lists messages for one chat.
type MessageStore interface {
	PersistMessage(ctx context.Context, chatID string, draft Draft) (*Message, error)
	ListMessages(ctx context.Context, chatID string, query Query) ([]Message, error)
}

type Uploader interface {
	Upload(ctx context.Context, chatID string, upload Upload) (*UploadResult, error)
}

// Query pages through messages; zero From/To are open ends.
type Query struct {
	Limit  int
	Offset int
	From   time.Time
	To     time.Time
}

// Conversation is the client-side state of the active chat.
type Conversation struct {
	mu        sync.Mutex
	chatID    string
	self      ParticipantRef
	store     MessageStore
	uploader  Uploader
	entries   []*Entry
	readMarks map[string]time.Time
	loads     Latest[[]Message]
	gen       uint64

	now   func() time.Time
	newID func() string
}

func NewConversation(chatID string, self ParticipantRef, store MessageStore, uploader Uploader) *Conversation {
	return &Conversation{
		chatID:    chatID,
		self:      self,
		store:     store,
		uploader:  uploader,
		readMarks: make(map[string]time.Time),
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

func (c *Conversation) ChatID() string {
	return c.chatID
}

func (c *Conversation) SendText(ctx context.Context, text string) (<-chan Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	return c.send(ctx, Draft{Type: TypeText, Content: text})
}

// SendAttachment sends a message for an attachment that is already uploaded.
func (c *Conversation) SendAttachment(ctx context.Context, draft Draft) (<-chan Outcome, error) {
	switch draft.Type {
	case TypeAudio:
		if draft.AudioURL == "" {
			return nil, ErrEmptyMessage
		}
	case TypeFile:
		if draft.FileURL == "" {
			return nil, ErrEmptyMessage
		}
	default:
		return nil, fmt.Errorf("chatclient: unsupported attachment type %q", draft.Type)
	}
	return c.send(ctx, draft)
}

// SendVoice uploads the recorder's clip and then sends it. When the upload
// fails nothing is inserted and the clip stays on the recorder.
func (c *Conversation) SendVoice(ctx context.Context, rec *attachment.Recorder) (<-chan Outcome, error) {
	var out <-chan Outcome
	err := rec.Send(ctx, func(ctx context.Context, clip attachment.Clip) error {
		res, err := c.uploader.Upload(ctx, c.chatID, Upload{
			Kind:     TypeAudio,
			Filename: fmt.Sprintf("voice-%d%s", c.now().Unix(), voiceExtension(clip.MimeType)),
			MimeType: clip.MimeType,
			Size:     clip.Size,
			Duration: clip.Duration,
			Body:     bytes.NewReader(clip.Blob),
		})
		if err != nil {
			return err
		}
		out, err = c.SendAttachment(ctx, Draft{
			Type:          TypeAudio,
			AudioURL:      res.URL,
			AudioDuration: clip.Duration,
		})
		return err
	})
	return out, err
}

// SendFile uploads the picker's selection and then sends it. The picker keeps
// its selection when the upload fails.
func (c *Conversation) SendFile(ctx context.Context, picker *attachment.FilePicker) (<-chan Outcome, error) {
	var out <-chan Outcome
	err := picker.Send(ctx, func(ctx context.Context, f attachment.File) error {
		var body io.ReadCloser
		if f.Open != nil {
			var err error
			if body, err = f.Open(); err != nil {
				return fmt.Errorf("open %s: %w", f.Name, err)
			}
			defer body.Close()
		}

		res, err := c.uploader.Upload(ctx, c.chatID, Upload{
			Kind:     TypeFile,
			Filename: f.Name,
			MimeType: f.MimeType,
			Size:     f.Size,
			Body:     body,
		})
		if err != nil {
			return err
		}
		out, err = c.SendAttachment(ctx, Draft{
			Type:         TypeFile,
			FileURL:      res.URL,
			FileName:     f.Name,
			FileMimeType: f.MimeType,
			FileSize:     f.Size,
		})
		return err
	})
	return out, err
}

// Retry resends a failed entry under its original client id.
func (c *Conversation) Retry(ctx context.Context, clientID string) (<-chan Outcome, error) {
	c.mu.Lock()
	i := c.indexByClientID(clientID)
	if i < 0 {
		c.mu.Unlock()
		return nil, ErrUnknownMessage
	}
	e := c.entries[i]
	if e.Status != StatusFailed {
		c.mu.Unlock()
		return nil, ErrNotRetryable
	}
	e.Status = StatusPending
	e.Err = nil
	draft := draftOf(e.Message)
	c.mu.Unlock()

	return c.persist(ctx, draft), nil
}

func (c *Conversation) send(ctx context.Context, draft Draft) (<-chan Outcome, error) {
	draft.ClientID = c.newID()

	c.mu.Lock()
	c.insert(&Entry{
		Message: draft.message(c.chatID, c.self, c.now()),
		Status:  StatusPending,
	})
	c.mu.Unlock()

	return c.persist(ctx, draft), nil
}

func (c *Conversation) persist(ctx context.Context, draft Draft) <-chan Outcome {
	out := make(chan Outcome, 1)

	go func() {
		msg, err := c.store.PersistMessage(ctx, c.chatID, draft)
		if err == nil && msg == nil {
			err = errors.New("chatclient: empty response")
		}

		c.mu.Lock()
		if err != nil {
			if i := c.indexByClientID(draft.ClientID); i >= 0 && c.entries[i].Status == StatusPending {
				c.entries[i].Status = StatusFailed
				c.entries[i].Err = err
			}
		} else {
			if msg.ClientID == "" {
				msg.ClientID = draft.ClientID
			}
			c.confirm(*msg)
		}
		c.mu.Unlock()

		out <- Outcome{ClientID: draft.ClientID, Message: msg, Err: err}
		close(out)
	}()

	return out
}

// ApplyIncoming merges a message pushed by the server. It reports whether the
// conversation changed.
func (c *Conversation) ApplyIncoming(msg Message) bool {
	if msg.ID == "" || (msg.ChatID != "" && msg.ChatID != c.chatID) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexByID(msg.ID); i >= 0 && c.entries[i].Status == StatusConfirmed {
		return false
	}
	c.confirm(msg)
	return true
}

// SetReadMark records a participant's read position. Backward moves are ignored.
func (c *Conversation) SetReadMark(participantID string, at time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !at.After(c.readMarks[participantID]) {
		return false
	}
	c.readMarks[participantID] = at
	return true
}

func (c *Conversation) SetReadMarks(marks map[string]time.Time) {
	for participant, at := range marks {
		c.SetReadMark(participant, at)
	}
}

// Load fetches a page of messages. A newer Load supersedes an older one: the
// older request is cancelled and its result dropped.
func (c *Conversation) Load(ctx context.Context, query Query) (bool, error) {
	c.mu.Lock()
	start := c.gen
	c.mu.Unlock()

	return c.loads.Do(ctx, func(ctx context.Context) ([]Message, error) {
		return c.store.ListMessages(ctx, c.chatID, query)
	}, func(messages []Message) {
		c.replace(start, messages)
	})
}

// replace swaps in a fetched page. Local entries missing from the page survive
// when they are unconfirmed or were confirmed after generation start.
func (c *Conversation) replace(start uint64, messages []Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seenClient := make(map[string]bool, len(messages))
	seenID := make(map[string]bool, len(messages))
	entries := make([]*Entry, 0, len(messages)+len(c.entries))
	for _, m := range messages {
		if m.ClientID != "" {
			seenClient[m.ClientID] = true
		}
		if m.ID != "" {
			seenID[m.ID] = true
		}
		entries = append(entries, &Entry{Message: m, Status: StatusConfirmed})
	}
	for _, e := range c.entries {
		if (e.ClientID != "" && seenClient[e.ClientID]) || (e.ID != "" && seenID[e.ID]) {
			continue
		}
		if e.Status != StatusConfirmed || e.gen > start {
			entries = append(entries, e)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	c.entries = entries
}

// View returns the entries in timestamp order with grouping and seen-markers.
func (c *Conversation) View() []EntryView {
	c.mu.Lock()
	defer c.mu.Unlock()

	messages := make([]Message, len(c.entries))
	for i, e := range c.entries {
		if e.Status == StatusConfirmed {
			messages[i] = e.Message
		}
	}
	markers := SeenMarkers(messages, ParticipantID(c.self), c.readMarks)

	views := make([]EntryView, len(c.entries))
	for i, e := range c.entries {
		views[i] = EntryView{
			Entry:      *e,
			ShowSender: i == 0 || !SameParticipant(c.entries[i-1].Sender, e.Sender),
		}
		if e.Status == StatusConfirmed {
			views[i].SeenBy = markers[e.ID]
		}
	}
	return views
}

// confirm replaces the optimistic copy of msg, or an older copy with the
// same id, by the server record. Callers hold c.mu.
func (c *Conversation) confirm(msg Message) {
	if msg.ClientID != "" {
		if i := c.indexByClientID(msg.ClientID); i >= 0 {
			c.remove(i)
		}
	}
	if i := c.indexByID(msg.ID); i >= 0 {
		c.remove(i)
	}
	c.insert(&Entry{Message: msg, Status: StatusConfirmed})
}

func (c *Conversation) insert(e *Entry) {
	c.gen++
	e.gen = c.gen

	i := sort.Search(len(c.entries), func(i int) bool {
		return c.entries[i].CreatedAt.After(e.CreatedAt)
	})
	c.entries = append(c.entries, nil)
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = e
}

func (c *Conversation) remove(i int) {
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
}

func (c *Conversation) indexByClientID(clientID string) int {
	if clientID == "" {
		return -1
	}
	for i, e := range c.entries {
		if e.ClientID == clientID {
			return i
		}
	}
	return -1
}

func (c *Conversation) indexByID(id string) int {
	if id == "" {
		return -1
	}
	for i, e := range c.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

var voiceExtensions = map[string]string{
	"audio/webm":  ".webm",
	"audio/ogg":   ".ogg",
	"audio/mp4":   ".m4a",
	"audio/mpeg":  ".mp3",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/aac":   ".aac",
}

// voiceExtension maps a recorder mime type such as "audio/ogg;codecs=opus"
// to a file extension. Unknown types fall back to .webm.
func voiceExtension(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return ".webm"
	}
	if ext, ok := voiceExtensions[mediaType]; ok {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
		return exts[0]
	}
	return ".webm"
}
