package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVoiceObjectName(t *testing.T) {
	at := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
	name := VoiceObjectName("u1", at, "")

	assert.True(t, strings.HasPrefix(name, "voice/u1/2024-03-09/"))
	assert.True(t, strings.HasSuffix(name, ".wav"))
	assert.NotEqual(t, name, VoiceObjectName("u1", at, ""))
}
