package external

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultNewsAPIURL = "https://newsapi.org"

// NewsAPI returns top headlines, or the latest articles for a topic.
type NewsAPI struct {
	baseURL string
	apiKey  string
	country string
	client  *http.Client
}

func NewNewsAPI(baseURL, apiKey string, timeout time.Duration) *NewsAPI {
	if baseURL == "" {
		baseURL = defaultNewsAPIURL
	}
	return &NewsAPI{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, country: "us", client: newHTTPClient(timeout)}
}

type newsResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title  string `json:"title"`
		URL    string `json:"url"`
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (n *NewsAPI) Headlines(ctx context.Context, topic string, limit int) ([]Headline, error) {
	if limit <= 0 {
		limit = 5
	}
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(limit))

	endpoint := "/v2/top-headlines"
	if strings.TrimSpace(topic) != "" {
		endpoint = "/v2/everything"
		q.Set("q", topic)
		q.Set("sortBy", "publishedAt")
	} else {
		q.Set("country", n.country)
	}

	var out newsResponse
	err := doJSON(ctx, n.client, "news", http.MethodGet, n.baseURL+endpoint+"?"+q.Encode(),
		map[string]string{"X-Api-Key": n.apiKey}, nil, &out)
	if err != nil {
		return nil, err
	}
	if out.Status != "" && out.Status != "ok" {
		return nil, &Error{Service: "news", Err: errors.New(out.Message)}
	}

	items := make([]Headline, 0, len(out.Articles))
	for _, a := range out.Articles {
		if a.Title == "" || a.Title == "[Removed]" {
			continue
		}
		items = append(items, Headline{Title: a.Title, Source: a.Source.Name, URL: a.URL})
		if len(items) == limit {
			break
		}
	}
	return items, nil
}
