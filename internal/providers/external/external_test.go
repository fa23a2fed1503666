package external

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestOpenWeather_Current(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		assert.Equal(t, "Paris", r.URL.Query().Get("q"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "k", r.URL.Query().Get("appid"))
		_, _ = w.Write([]byte(`{"name":"Paris","weather":[{"description":"clear sky"}],"main":{"temp":21.5,"feels_like":20.1,"humidity":40},"wind":{"speed":3.2}}`))
	}))
	defer srv.Close()

	w, err := NewOpenWeather(srv.URL, "k", time.Second).Current(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, "Paris", w.Location)
	assert.Equal(t, "clear sky", w.Description)
	assert.InDelta(t, 21.5, w.TempC, 0.001)
	assert.Equal(t, 40, w.Humidity)
}

func TestOpenWeather_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer srv.Close()

	_, err := NewOpenWeather(srv.URL, "k", time.Second).Current(context.Background(), "Atlantis")
	var xe *Error
	require.True(t, errors.As(err, &xe))
	assert.Equal(t, http.StatusNotFound, xe.Status)
	assert.Contains(t, err.Error(), "city not found")
}

func TestNewsAPI_TopicUsesEverything(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/everything", r.URL.Path)
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))
		_, _ = w.Write([]byte(`{"status":"ok","articles":[
			{"title":"Go 1.24 released","url":"https://go.dev","source":{"name":"Go Blog"}},
			{"title":"[Removed]","url":"","source":{"name":""}},
			{"title":"Generics in practice","url":"https://x","source":{"name":"X"}}
		]}`))
	}))
	defer srv.Close()

	items, err := NewNewsAPI(srv.URL, "key", time.Second).Headlines(context.Background(), "golang", 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Go Blog", items[0].Source)
}

func TestNewsAPI_TopHeadlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/top-headlines", r.URL.Path)
		assert.Equal(t, "us", r.URL.Query().Get("country"))
		_, _ = w.Write([]byte(`{"status":"error","message":"apiKey invalid"}`))
	}))
	defer srv.Close()

	_, err := NewNewsAPI(srv.URL, "key", time.Second).Headlines(context.Background(), "", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apiKey invalid")
}

func TestWhatsAppCloud_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var m waMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
		assert.Equal(t, "14155550123", m.To)
		assert.Equal(t, "whatsapp", m.MessagingProduct)
		assert.Equal(t, "running late", m.Text.Body)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	err := NewWhatsAppCloud(srv.URL, "tok", "12345", time.Second).Send(context.Background(), "+14155550123", "running late")
	require.NoError(t, err)
}

func TestGoogleSearch_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang channels", r.URL.Query().Get("q"))
		assert.Equal(t, "engine", r.URL.Query().Get("cx"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"title":"Channels","link":"https://go.dev/tour","snippet":"Channels are typed conduits"}]}`))
	}))
	defer srv.Close()

	g, err := NewGoogleSearch(context.Background(), "k", "engine", option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	res, err := g.Search(context.Background(), "golang channels", 3)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "https://go.dev/tour", res[0].Link)
}

func TestYouTube_FindVideo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "video", r.URL.Query().Get("type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":{"kind":"youtube#video","videoId":"JGwWNGJdvx8"},"snippet":{"title":"Shape of You","channelTitle":"Ed Sheeran"}}]}`))
	}))
	defer srv.Close()

	y, err := NewYouTube(context.Background(), "k", option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	v, err := y.FindVideo(context.Background(), "shape of you")
	require.NoError(t, err)
	assert.Equal(t, "Shape of You", v.Title)
	assert.Equal(t, "https://www.youtube.com/watch?v=JGwWNGJdvx8", v.URL)
}
