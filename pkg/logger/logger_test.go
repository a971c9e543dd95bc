package logger

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWarnOnce(t *testing.T) {
	var buf bytes.Buffer
	prev := WarnLogger
	WarnLogger = log.New(&buf, "WARN: ", 0)
	defer func() { WarnLogger = prev }()

	assert.True(t, WarnOnce("push-disabled", "push disabled"))
	assert.False(t, WarnOnce("push-disabled", "push disabled"))
	assert.Equal(t, "WARN: push disabled\n", buf.String())

	ResetOnce("push-disabled")
	assert.True(t, WarnOnce("push-disabled", "push disabled again"))
}
