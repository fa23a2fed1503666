package services

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/yooassist/internal/providers/stt"
	"github.com/yoockh/yooassist/internal/repositories/mongo/mongotest"
	"github.com/yoockh/yooassist/internal/utils"
)

type fakeTranscriber struct {
	text string
	err  error
	lang string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, language string) (*stt.Transcript, error) {
	f.lang = language
	if f.err != nil {
		return nil, f.err
	}
	return &stt.Transcript{Text: f.text, Confidence: 0.92, Language: language}, nil
}

func (f *fakeTranscriber) Close() error { return nil }

type fakeUploader struct {
	names []string
	err   error
}

func (u *fakeUploader) Upload(ctx context.Context, objectName, contentType string, r io.Reader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	_, _ = io.ReadAll(r)
	u.names = append(u.names, objectName)
	return "gs://clips/" + objectName, nil
}

type stubDialogue struct{ got string }

func (s *stubDialogue) HandleMessage(ctx context.Context, userID, text string) (*Reply, error) {
	s.got = text
	return &Reply{UserID: userID, Text: "echo: " + text, Provenance: "test", Suggestions: []string{}}, nil
}

func TestVoiceProcess_TranscribesArchivesAndAnswers(t *testing.T) {
	clips := mongotest.NewVoiceClips()
	tr := &fakeTranscriber{text: "what's 2+2"}
	up := &fakeUploader{}
	dlg := &stubDialogue{}
	svc := NewVoiceService(clips, tr, up, dlg, 0, nil)

	res, err := svc.Process(context.Background(), "u1", "en", "audio/wav", []byte("RIFF...."))
	require.NoError(t, err)

	assert.Equal(t, "what's 2+2", res.Transcript)
	assert.Equal(t, "echo: what's 2+2", res.Response)
	assert.Equal(t, "en-US", tr.lang)
	assert.Equal(t, "what's 2+2", dlg.got)
	require.Len(t, up.names, 1)

	require.Len(t, clips.Items, 1)
	assert.Equal(t, VoiceDone, clips.Items[0].Status)
	assert.Equal(t, "gs://clips/"+up.names[0], clips.Items[0].ObjectPath)
	assert.Equal(t, "echo: what's 2+2", clips.Items[0].Response)
}

func TestVoiceProcess_UploadFailureIsNotFatal(t *testing.T) {
	clips := mongotest.NewVoiceClips()
	svc := NewVoiceService(clips, &fakeTranscriber{text: "hi"}, &fakeUploader{err: errors.New("gcs down")}, &stubDialogue{}, 0, nil)

	res, err := svc.Process(context.Background(), "u1", "", "audio/wav", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", res.Response)
	assert.Empty(t, clips.Items[0].ObjectPath)
}

func TestVoiceProcess_Failures(t *testing.T) {
	clips := mongotest.NewVoiceClips()

	_, err := NewVoiceService(clips, nil, nil, &stubDialogue{}, 0, nil).Process(context.Background(), "u1", "", "", []byte("x"))
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))

	_, err = NewVoiceService(clips, &fakeTranscriber{}, nil, &stubDialogue{}, 0, nil).Process(context.Background(), "u1", "", "", nil)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	svc := NewVoiceService(clips, &fakeTranscriber{err: stt.ErrNoSpeech}, nil, &stubDialogue{}, 0, nil)
	_, err = svc.Process(context.Background(), "u1", "", "", []byte("x"))
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	require.Len(t, clips.Items, 1)
	assert.Equal(t, VoiceFailed, clips.Items[0].Status)
}
