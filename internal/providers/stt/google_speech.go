package stt

import (
	"context"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
)

const DefaultLanguage = "en-US"

type GoogleSpeech struct {
	c *speech.Client

	Encoding     speechpb.RecognitionConfig_AudioEncoding
	SampleRateHz int32
}

func NewGoogleSpeech(ctx context.Context, opts ...option.ClientOption) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GoogleSpeech{
		c:            c,
		Encoding:     speechpb.RecognitionConfig_LINEAR16,
		SampleRateHz: 16000,
	}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

// NormalizeLanguage maps short codes ("en", "id") to BCP-47 tags the recognizer accepts.
func NormalizeLanguage(language string) string {
	language = strings.TrimSpace(language)
	switch strings.ToLower(language) {
	case "":
		return DefaultLanguage
	case "en":
		return "en-US"
	case "id":
		return "id-ID"
	case "es":
		return "es-ES"
	case "fr":
		return "fr-FR"
	case "de":
		return "de-DE"
	}
	return language
}

func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte, language string) (*Transcript, error) {
	language = NormalizeLanguage(language)

	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   g.Encoding,
			SampleRateHertz:            g.SampleRateHz,
			LanguageCode:               language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return nil, err
	}

	best := BestAlternative(resp.GetResults())
	if best == nil {
		return nil, ErrNoSpeech
	}
	best.Language = language
	return best, nil
}

// BestAlternative joins the top alternative of each result segment and averages
// their confidence.
func BestAlternative(results []*speechpb.SpeechRecognitionResult) *Transcript {
	var parts []string
	var conf float64
	for _, r := range results {
		alts := r.GetAlternatives()
		if len(alts) == 0 || strings.TrimSpace(alts[0].GetTranscript()) == "" {
			continue
		}
		parts = append(parts, strings.TrimSpace(alts[0].GetTranscript()))
		conf += float64(alts[0].GetConfidence())
	}
	if len(parts) == 0 {
		return nil
	}
	return &Transcript{Text: strings.Join(parts, " "), Confidence: conf / float64(len(parts))}
}
