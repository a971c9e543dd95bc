package attachment

import (
	"net/url"
	"strings"
)

const audioPath = "/api/uploads/audio/"

// ResolveURL turns a stored attachment reference into a fetchable URL.
// Absolute URLs pass through, API-relative paths get base prepended and a
// bare id becomes the audio resolve route.
func ResolveURL(base, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	lower := strings.ToLower(raw)
	for _, scheme := range []string{"http://", "https://", "blob:", "data:"} {
		if strings.HasPrefix(lower, scheme) {
			return raw
		}
	}

	base = strings.TrimRight(base, "/")
	if strings.HasPrefix(raw, "/") {
		return base + raw
	}
	return base + audioPath + url.PathEscape(raw)
}
