package stt

import (
	"context"
	"errors"
)

// ErrNoSpeech is returned when the recognizer produced no transcript.
var ErrNoSpeech = errors.New("no speech recognized")

type Transcript struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language"`
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (*Transcript, error)
	Close() error
}
