package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yooassist/internal/models"
	"github.com/yoockh/yooassist/internal/providers/stt"
	mongorepo "github.com/yoockh/yooassist/internal/repositories/mongo"
	"github.com/yoockh/yooassist/internal/storage"
	"github.com/yoockh/yooassist/internal/utils"
)

const (
	VoicePending = "pending"
	VoiceDone    = "done"
	VoiceFailed  = "failed"

	MaxVoiceBytes = 10 << 20
)

type VoiceResult struct {
	ClipID      string   `json:"clip_id"`
	Transcript  string   `json:"transcript"`
	Confidence  float64  `json:"confidence"`
	Response    string   `json:"response"`
	Provenance  string   `json:"provenance"`
	Suggestions []string `json:"suggestions"`
}

type VoiceService interface {
	Process(ctx context.Context, userID, language, contentType string, audio []byte) (*VoiceResult, error)
	History(ctx context.Context, userID string, limit int64) ([]models.VoiceClip, error)
}

type voiceService struct {
	clips       mongorepo.VoiceClipRepository
	transcriber stt.Transcriber
	uploader    storage.Uploader
	dialogue    DialogueService
	ttl         time.Duration
	log         logrus.FieldLogger
	now         func() time.Time
}

// NewVoiceService wires the voice path. uploader may be nil (no archive); a nil
// transcriber makes Process answer UNAVAILABLE.
func NewVoiceService(clips mongorepo.VoiceClipRepository, transcriber stt.Transcriber, uploader storage.Uploader, dialogue DialogueService, ttl time.Duration, log logrus.FieldLogger) VoiceService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &voiceService{clips: clips, transcriber: transcriber, uploader: uploader, dialogue: dialogue, ttl: ttl, log: orQuiet(log), now: time.Now}
}

func (s *voiceService) Process(ctx context.Context, userID, language, contentType string, audio []byte) (*VoiceResult, error) {
	const op = "VoiceService.Process"

	if userID == "" {
		userID = models.GuestUserID
	}
	if len(audio) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "audio is required", nil)
	}
	if len(audio) > MaxVoiceBytes {
		return nil, utils.E(utils.CodeInvalidArgument, op, "audio is too large", nil)
	}
	if s.transcriber == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "speech recognition is not configured", nil)
	}
	log := s.log.WithField("user_id", userID)

	now := s.now().UTC()
	clip := &models.VoiceClip{
		UserID:    userID,
		Language:  stt.NormalizeLanguage(language),
		Status:    VoicePending,
		Timestamp: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if s.uploader != nil {
		path, err := s.uploader.Upload(ctx, storage.VoiceObjectName(userID, now, extFor(contentType)), contentType, bytes.NewReader(audio))
		if err != nil {
			log.WithError(err).Warn("voice clip not archived")
		} else {
			clip.ObjectPath = path
		}
	}

	if err := s.clips.Insert(ctx, clip); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to record voice clip", err)
	}
	clipID := clip.ID.Hex()

	tr, err := s.transcriber.Transcribe(ctx, audio, clip.Language)
	if err != nil {
		s.finish(ctx, log, clipID, "", 0, VoiceFailed, "")
		if errors.Is(err, stt.ErrNoSpeech) {
			return nil, utils.E(utils.CodeInvalidArgument, op, "no speech recognized", err)
		}
		return nil, utils.E(utils.CodeUnavailable, op, "speech recognition failed", err)
	}

	reply, err := s.dialogue.HandleMessage(ctx, userID, tr.Text)
	if err != nil {
		s.finish(ctx, log, clipID, tr.Text, tr.Confidence, VoiceFailed, "")
		return nil, err
	}
	s.finish(ctx, log, clipID, tr.Text, tr.Confidence, VoiceDone, reply.Text)

	return &VoiceResult{
		ClipID:      clipID,
		Transcript:  tr.Text,
		Confidence:  tr.Confidence,
		Response:    reply.Text,
		Provenance:  reply.Provenance,
		Suggestions: reply.Suggestions,
	}, nil
}

func (s *voiceService) finish(ctx context.Context, log logrus.FieldLogger, id, transcript string, conf float64, status, response string) {
	if err := s.clips.UpdateResult(ctx, id, transcript, conf, status, response); err != nil {
		log.WithError(err).WithField("clip_id", id).Warn("voice clip result not saved")
	}
}

func (s *voiceService) History(ctx context.Context, userID string, limit int64) ([]models.VoiceClip, error) {
	const op = "VoiceService.History"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	out, err := s.clips.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list voice clips", err)
	}
	return out, nil
}

func extFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "flac"):
		return "flac"
	case strings.Contains(contentType, "ogg"):
		return "ogg"
	case strings.Contains(contentType, "webm"):
		return "webm"
	case strings.Contains(contentType, "mpeg"), strings.Contains(contentType, "mp3"):
		return "mp3"
	default:
		return "wav"
	}
}
