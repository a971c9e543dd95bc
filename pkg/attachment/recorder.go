package attachment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrRecordingActive  = errors.New("attachment: a recording is already active")
	ErrClipPending      = errors.New("attachment: a recorded clip is waiting to be sent or cancelled")
	ErrNotRecording     = errors.New("attachment: not recording")
	ErrNoClip           = errors.New("attachment: no recorded clip")
	ErrSendInFlight     = errors.New("attachment: send already in progress")
	ErrPermissionDenied = errors.New("attachment: capture permission denied")
)

// CaptureDevice hands out exclusive capture sessions. Implementations return
// ErrPermissionDenied (or an error wrapping it) when the platform refuses access.
type CaptureDevice interface {
	Open(ctx context.Context) (CaptureSession, error)
}

// CaptureSession is one scoped hold on the device. Close must be safe to call
// after Finish.
type CaptureSession interface {
	Finish() (blob []byte, mimeType string, err error)
	Close() error
}

type RecorderState int

const (
	RecorderIdle RecorderState = iota
	RecorderRecording
	RecorderStopped
)

func (s RecorderState) String() string {
	switch s {
	case RecorderRecording:
		return "recording"
	case RecorderStopped:
		return "stopped"
	default:
		return "idle"
	}
}

type Clip struct {
	Blob     []byte
	MimeType string
	Duration int // whole seconds
	Size     int64
}

// Recorder drives one voice-note input. At most one recording is active at a
// time and the capture session is released on every exit path.
type Recorder struct {
	mu      sync.Mutex
	device  CaptureDevice
	now     func() time.Time
	state   RecorderState
	session CaptureSession
	started time.Time
	clip    *Clip
	sending bool
}

func NewRecorder(device CaptureDevice) *Recorder {
	return &Recorder{
		device: device,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for the duration counter.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

func (r *Recorder) State() RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Duration is the running counter while recording and the clip length once stopped.
func (r *Recorder) Duration() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case RecorderRecording:
		return elapsedSeconds(r.started, r.now())
	case RecorderStopped:
		return r.clip.Duration
	default:
		return 0
	}
}

// Clip returns the finished clip, if any.
func (r *Recorder) Clip() (Clip, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clip == nil {
		return Clip{}, false
	}
	return *r.clip, true
}

func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case RecorderRecording:
		return ErrRecordingActive
	case RecorderStopped:
		return ErrClipPending
	}

	session, err := r.device.Open(ctx)
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			return ErrPermissionDenied
		}
		return fmt.Errorf("open capture device: %w", err)
	}

	r.session = session
	r.started = r.now()
	r.state = RecorderRecording
	return nil
}

func (r *Recorder) Stop() (Clip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RecorderRecording {
		return Clip{}, ErrNotRecording
	}

	duration := elapsedSeconds(r.started, r.now())
	blob, mimeType, err := r.session.Finish()
	r.release()
	if err != nil {
		r.state = RecorderIdle
		return Clip{}, fmt.Errorf("finish recording: %w", err)
	}

	r.clip = &Clip{
		Blob:     blob,
		MimeType: NormalizeMime(mimeType),
		Duration: duration,
		Size:     int64(len(blob)),
	}
	r.state = RecorderStopped
	return *r.clip, nil
}

// Cancel discards whatever is in progress. It is a no-op when idle.
func (r *Recorder) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

// Send hands the clip to handoff. The clip is cleared only when handoff
// succeeds; on error it stays available for another attempt.
func (r *Recorder) Send(ctx context.Context, handoff func(context.Context, Clip) error) error {
	r.mu.Lock()
	if r.state != RecorderStopped {
		r.mu.Unlock()
		return ErrNoClip
	}
	if r.sending {
		r.mu.Unlock()
		return ErrSendInFlight
	}
	clip := r.clip
	r.sending = true
	r.mu.Unlock()

	err := handoff(ctx, *clip)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sending = false
	if err != nil {
		return err
	}
	// A Cancel during the handoff already cleared the clip.
	if r.clip == clip {
		r.reset()
	}
	return nil
}

// Close releases the device on teardown.
func (r *Recorder) Close() {
	r.Cancel()
}

func (r *Recorder) reset() {
	r.release()
	r.clip = nil
	r.started = time.Time{}
	r.state = RecorderIdle
}

func (r *Recorder) release() {
	if r.session != nil {
		_ = r.session.Close()
		r.session = nil
	}
}

func elapsedSeconds(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from) / time.Second)
}
