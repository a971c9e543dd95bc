package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenDocIDIsStableAndPathSafe(t *testing.T) {
	token := "fcm:APA91b/abc-def_ghi"
	id := tokenDocID(token)

	assert.Equal(t, id, tokenDocID(token))
	assert.NotContains(t, id, "/")
	assert.Len(t, id, 64)
	assert.NotEqual(t, id, tokenDocID(token+"x"))
}
