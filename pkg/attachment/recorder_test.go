package attachment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	blob      []byte
	finishErr error
	closed    int
}

func (s *fakeSession) Finish() ([]byte, string, error) {
	return s.blob, "audio/webm;codecs=opus", s.finishErr
}

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

type fakeDevice struct {
	sessions []*fakeSession
	err      error
}

func (d *fakeDevice) Open(ctx context.Context) (CaptureSession, error) {
	if d.err != nil {
		return nil, d.err
	}
	s := &fakeSession{blob: []byte("voice")}
	d.sessions = append(d.sessions, s)
	return s, nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRecorder() (*Recorder, *fakeDevice, *fakeClock) {
	device := &fakeDevice{}
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	return NewRecorder(device).WithClock(clock.now), device, clock
}

func TestRecorderStopProducesClip(t *testing.T) {
	r, device, clock := newTestRecorder()

	require.NoError(t, r.Start(context.Background()))
	assert.Equal(t, RecorderRecording, r.State())
	clock.advance(4500 * time.Millisecond)
	assert.Equal(t, 4, r.Duration())

	clip, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, 4, clip.Duration)
	assert.Equal(t, "audio/webm", clip.MimeType)
	assert.Equal(t, int64(5), clip.Size)
	assert.Equal(t, RecorderStopped, r.State())
	assert.Equal(t, 1, device.sessions[0].closed)
}

func TestRecorderRejectsSecondStart(t *testing.T) {
	r, device, clock := newTestRecorder()

	require.NoError(t, r.Start(context.Background()))
	clock.advance(3 * time.Second)

	assert.ErrorIs(t, r.Start(context.Background()), ErrRecordingActive)
	assert.Len(t, device.sessions, 1)
	assert.Equal(t, 3, r.Duration())
	assert.Zero(t, device.sessions[0].closed)

	_, err := r.Stop()
	require.NoError(t, err)
	assert.ErrorIs(t, r.Start(context.Background()), ErrClipPending)
	clip, ok := r.Clip()
	assert.True(t, ok)
	assert.Equal(t, []byte("voice"), clip.Blob)
}

func TestRecorderCancelReleasesFromEveryState(t *testing.T) {
	r, device, clock := newTestRecorder()

	r.Cancel()
	assert.Equal(t, RecorderIdle, r.State())

	require.NoError(t, r.Start(context.Background()))
	clock.advance(2 * time.Second)
	r.Cancel()
	assert.Equal(t, RecorderIdle, r.State())
	assert.Zero(t, r.Duration())
	assert.Equal(t, 1, device.sessions[0].closed)

	require.NoError(t, r.Start(context.Background()))
	_, err := r.Stop()
	require.NoError(t, err)
	r.Cancel()
	_, ok := r.Clip()
	assert.False(t, ok)
	assert.Zero(t, r.Duration())
}

func TestRecorderPermissionDenied(t *testing.T) {
	r, device, _ := newTestRecorder()
	device.err = errors.New("NotAllowedError: " + ErrPermissionDenied.Error())
	err := r.Start(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrPermissionDenied)

	device.err = ErrPermissionDenied
	assert.ErrorIs(t, r.Start(context.Background()), ErrPermissionDenied)
	assert.Equal(t, RecorderIdle, r.State())
}

func TestRecorderFinishFailureReleasesSession(t *testing.T) {
	r, device, _ := newTestRecorder()
	require.NoError(t, r.Start(context.Background()))
	device.sessions[0].finishErr = errors.New("encoder crashed")

	_, err := r.Stop()
	assert.Error(t, err)
	assert.Equal(t, RecorderIdle, r.State())
	assert.Equal(t, 1, device.sessions[0].closed)
}

func TestRecorderSendClearsOnlyOnSuccess(t *testing.T) {
	r, _, clock := newTestRecorder()
	require.NoError(t, r.Start(context.Background()))
	clock.advance(7 * time.Second)
	_, err := r.Stop()
	require.NoError(t, err)

	failed := r.Send(context.Background(), func(ctx context.Context, c Clip) error {
		return errors.New("upload failed")
	})
	assert.Error(t, failed)
	assert.Equal(t, RecorderStopped, r.State())
	assert.Equal(t, 7, r.Duration())

	var sent Clip
	require.NoError(t, r.Send(context.Background(), func(ctx context.Context, c Clip) error {
		sent = c
		return nil
	}))
	assert.Equal(t, 7, sent.Duration)
	assert.Equal(t, RecorderIdle, r.State())
	assert.Zero(t, r.Duration())

	assert.ErrorIs(t, r.Send(context.Background(), func(context.Context, Clip) error { return nil }), ErrNoClip)
}

func TestRecorderCloseWhileRecording(t *testing.T) {
	r, device, _ := newTestRecorder()
	require.NoError(t, r.Start(context.Background()))
	r.Close()
	assert.Equal(t, 1, device.sessions[0].closed)
	assert.Equal(t, RecorderIdle, r.State())
}
