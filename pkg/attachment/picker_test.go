package attachment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stockReport = File{Name: "stock.csv", Size: 2048, MimeType: "text/csv"}

func TestFilePickerSelectSurfacesMetadata(t *testing.T) {
	p := NewFilePicker()

	assert.ErrorIs(t, p.Select(File{Name: "run.exe", MimeType: "application/x-msdownload"}), ErrTypeNotAllowed)
	assert.Equal(t, PickerIdle, p.State())

	require.NoError(t, p.Select(stockReport))
	require.NoError(t, p.Select(stockReport))

	f, ok := p.Selected()
	require.True(t, ok)
	assert.Equal(t, "stock.csv", f.Name)
	assert.Equal(t, int64(2048), f.Size)
	assert.Equal(t, "text/csv", f.MimeType)
}

func TestFilePickerCancelDisabledDuringUpload(t *testing.T) {
	p := NewFilePicker()
	require.NoError(t, p.Select(stockReport))

	release := make(chan struct{})
	done := make(chan error, 1)
	started := make(chan struct{})
	go func() {
		done <- p.Send(context.Background(), func(ctx context.Context, f File) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	assert.False(t, p.CanCancel())
	assert.ErrorIs(t, p.Cancel(), ErrUploadInFlight)
	assert.ErrorIs(t, p.Select(stockReport), ErrUploadInFlight)
	assert.ErrorIs(t, p.Send(context.Background(), func(context.Context, File) error { return nil }), ErrUploadInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, PickerIdle, p.State())
	assert.True(t, p.CanCancel())
	_, ok := p.Selected()
	assert.False(t, ok)
}

func TestFilePickerFailedUploadKeepsSelection(t *testing.T) {
	p := NewFilePicker()
	require.NoError(t, p.Select(stockReport))

	err := p.Send(context.Background(), func(context.Context, File) error { return errors.New("network") })
	assert.Error(t, err)
	assert.Equal(t, PickerSelected, p.State())

	require.NoError(t, p.Cancel())
	assert.Equal(t, PickerIdle, p.State())
	assert.ErrorIs(t, p.Send(context.Background(), func(context.Context, File) error { return nil }), ErrNothingSelected)
}
