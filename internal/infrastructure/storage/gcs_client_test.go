package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectNameExtension(t *testing.T) {
	name := ObjectName("chats/c1/audio", "audio/webm;codecs=opus", "")
	assert.True(t, strings.HasPrefix(name, "chats/c1/audio/"))
	assert.True(t, strings.HasSuffix(name, ".webm"))

	assert.True(t, strings.HasSuffix(ObjectName("f", "text/csv", "Stock Opname.CSV"), ".csv"))
	assert.True(t, strings.HasSuffix(ObjectName("f", "application/x-unknown", ""), ".bin"))
	assert.NotEqual(t, ObjectName("f", "text/csv", ""), ObjectName("f", "text/csv", ""))
}
