package external

import (
	"context"
	"errors"
	"html"

	"google.golang.org/api/option"
	translate "google.golang.org/api/translate/v2"
)

// GoogleTranslate calls the Cloud Translation v2 REST API.
type GoogleTranslate struct {
	svc *translate.Service
}

func NewGoogleTranslate(ctx context.Context, apiKey string, opts ...option.ClientOption) (*GoogleTranslate, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := translate.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GoogleTranslate{svc: svc}, nil
}

// Translate converts text into the target ISO-639-1 language code.
func (g *GoogleTranslate) Translate(ctx context.Context, text, target string) (*Translation, error) {
	res, err := g.svc.Translations.List([]string{text}, target).Format("text").Context(ctx).Do()
	if err != nil {
		return nil, &Error{Service: "translate", Err: err}
	}
	if len(res.Translations) == 0 {
		return nil, &Error{Service: "translate", Err: errors.New("no translations returned")}
	}
	t := res.Translations[0]
	return &Translation{Text: html.UnescapeString(t.TranslatedText), SourceLanguage: t.DetectedSourceLanguage}, nil
}
