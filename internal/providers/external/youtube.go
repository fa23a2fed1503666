package external

import (
	"context"
	"errors"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

type YouTube struct {
	svc *youtube.Service
}

func NewYouTube(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTube, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &YouTube{svc: svc}, nil
}

// ErrNoVideo is returned when a search has no video results.
var ErrNoVideo = errors.New("no matching video")

// FindVideo returns the top video result for query.
func (y *YouTube) FindVideo(ctx context.Context, query string) (*Video, error) {
	res, err := y.svc.Search.List([]string{"id", "snippet"}).
		Q(query).
		Type("video").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, &Error{Service: "youtube", Err: err}
	}
	for _, it := range res.Items {
		if it.Id == nil || it.Id.VideoId == "" {
			continue
		}
		v := &Video{ID: it.Id.VideoId, URL: "https://www.youtube.com/watch?v=" + it.Id.VideoId}
		if it.Snippet != nil {
			v.Title = it.Snippet.Title
			v.Channel = it.Snippet.ChannelTitle
		}
		return v, nil
	}
	return nil, ErrNoVideo
}
