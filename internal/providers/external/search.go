package external

import (
	"context"
	"errors"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// GoogleSearch uses the Programmable Search Engine JSON API.
type GoogleSearch struct {
	svc *customsearch.Service
	cx  string
}

func NewGoogleSearch(ctx context.Context, apiKey, engineID string, opts ...option.ClientOption) (*GoogleSearch, error) {
	if engineID == "" {
		return nil, errors.New("search engine id is not set")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GoogleSearch{svc: svc, cx: engineID}, nil
}

func (g *GoogleSearch) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 || limit > 10 {
		limit = 5
	}
	res, err := g.svc.Cse.List().Cx(g.cx).Q(query).Num(int64(limit)).Context(ctx).Do()
	if err != nil {
		return nil, &Error{Service: "search", Err: err}
	}
	out := make([]SearchResult, 0, len(res.Items))
	for _, it := range res.Items {
		out = append(out, SearchResult{Title: it.Title, Link: it.Link, Snippet: it.Snippet})
	}
	return out, nil
}
