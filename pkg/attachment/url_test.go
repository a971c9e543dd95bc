package attachment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveURL(t *testing.T) {
	base := "https://pos.example.com/"

	tests := []struct {
		name string
		base string
		raw  string
		want string
	}{
		{"bare id", base, "abc123", "https://pos.example.com/api/uploads/audio/abc123"},
		{"api relative", base, "/api/files/xyz", "https://pos.example.com/api/files/xyz"},
		{"api relative without base", "", "/api/files/xyz", "/api/files/xyz"},
		{"absolute", base, "https://cdn/x.mp3", "https://cdn/x.mp3"},
		{"absolute http upper case", base, "HTTP://cdn/x.mp3", "HTTP://cdn/x.mp3"},
		{"blob preview", base, "blob:https://pos.example.com/1", "blob:https://pos.example.com/1"},
		{"empty", base, "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveURL(tt.base, tt.raw))
		})
	}
}
