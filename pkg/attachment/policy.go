package attachment

import (
	"mime"
	"sort"
	"strings"
)

// DefaultMaxSize is the upload ceiling used when none is configured.
const DefaultMaxSize int64 = 10 * 1024 * 1024

var fileTypes = setOf(
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"text/plain",
	"text/csv",
)

var audioTypes = setOf(
	"audio/webm",
	"audio/ogg",
	"audio/mp4",
	"audio/mpeg",
	"audio/wav",
	"audio/aac",
)

func setOf(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// NormalizeMime lower-cases a content type and strips parameters such as
// "codecs=opus".
func NormalizeMime(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}
	return mediaType
}

// Allowed reports whether a file attachment of this type may be sent.
func Allowed(contentType string) bool {
	return fileTypes[NormalizeMime(contentType)]
}

// AllowedAudio reports whether a voice clip of this type may be sent.
func AllowedAudio(contentType string) bool {
	return audioTypes[NormalizeMime(contentType)]
}

// AcceptList is the allow-list in the comma-separated form file inputs take.
func AcceptList() string {
	types := make([]string, 0, len(fileTypes))
	for t := range fileTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return strings.Join(types, ",")
}
