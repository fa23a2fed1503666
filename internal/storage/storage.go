package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}

// VoiceObjectName lays clips out per user and day so lifecycle rules can expire them.
func VoiceObjectName(userID string, at time.Time, ext string) string {
	if ext == "" {
		ext = "wav"
	}
	return fmt.Sprintf("voice/%s/%s/%s.%s", userID, at.UTC().Format("2006-01-02"), uuid.NewString(), ext)
}
