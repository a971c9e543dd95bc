package attachment

import (
	"context"
	"errors"
	"io"
	"sync"
)

var (
	ErrUploadInFlight  = errors.New("attachment: upload in progress")
	ErrNothingSelected = errors.New("attachment: no file selected")
	ErrTypeNotAllowed  = errors.New("attachment: file type not allowed")
)

// File is a picked file as the platform reports it. Size and MimeType are
// declared values; Open may be called more than once.
type File struct {
	Name     string
	Size     int64
	MimeType string
	Open     func() (io.ReadCloser, error)
}

type PickerState int

const (
	PickerIdle PickerState = iota
	PickerSelected
	PickerUploading
)

// FilePicker holds at most one selected file and allows one upload at a time.
type FilePicker struct {
	mu       sync.Mutex
	state    PickerState
	selected *File
}

func NewFilePicker() *FilePicker {
	return &FilePicker{}
}

func (p *FilePicker) State() PickerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Select replaces the current selection. Picking the same file again is allowed.
func (p *FilePicker) Select(f File) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == PickerUploading {
		return ErrUploadInFlight
	}
	if !Allowed(f.MimeType) {
		return ErrTypeNotAllowed
	}

	f.MimeType = NormalizeMime(f.MimeType)
	p.selected = &f
	p.state = PickerSelected
	return nil
}

func (p *FilePicker) Selected() (File, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected == nil {
		return File{}, false
	}
	return *p.selected, true
}

func (p *FilePicker) CanCancel() bool {
	return p.State() != PickerUploading
}

func (p *FilePicker) Cancel() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == PickerUploading {
		return ErrUploadInFlight
	}
	p.selected = nil
	p.state = PickerIdle
	return nil
}

// Send uploads the selection through handoff. Success clears the picker;
// failure keeps the file selected so the user can retry.
func (p *FilePicker) Send(ctx context.Context, handoff func(context.Context, File) error) error {
	p.mu.Lock()
	switch {
	case p.state == PickerUploading:
		p.mu.Unlock()
		return ErrUploadInFlight
	case p.selected == nil:
		p.mu.Unlock()
		return ErrNothingSelected
	}
	file := *p.selected
	p.state = PickerUploading
	p.mu.Unlock()

	err := handoff(ctx, file)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.state = PickerSelected
		return err
	}
	p.selected = nil
	p.state = PickerIdle
	return nil
}
