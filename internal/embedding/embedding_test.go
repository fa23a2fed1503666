package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeDropsStopWords(t *testing.T) {
	assert.Equal(t, []string{"live"}, Tokenize("Where do I live?"))
	assert.Equal(t, []string{"live", "boston"}, Tokenize("I live in Boston"))
	assert.Equal(t, []string{"like", "pizza"}, Tokenize("I like pizza!"))
}

func TestHashingEmbedderIsDeterministicAndNormalized(t *testing.T) {
	e := NewHashingEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "I live in Boston")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "I live in Boston")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.InDelta(t, 1.0, Cosine(a, a), 1e-6)
}

func TestHashingEmbedderRanksSharedTermsHigher(t *testing.T) {
	e := NewHashingEmbedder(768)
	ctx := context.Background()

	q, _ := e.Embed(ctx, "where do I live")
	boston, _ := e.Embed(ctx, "I live in Boston")
	pizza, _ := e.Embed(ctx, "I like pizza")

	assert.Greater(t, Cosine(q, boston), Cosine(q, pizza))
}

func TestCosineEdgeCases(t *testing.T) {
	assert.Zero(t, Cosine(nil, nil))
	assert.Zero(t, Cosine([]float32{1, 0}, []float32{1}))
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 0}))
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
}

func TestHTTPEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"hello"}, req.Input)

		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.5,0.5]}]}`))
	}))
	defer srv.Close()

	e := NewHTTPEmbedder(srv.URL+"/v1/", "key", "m", 2)
	v, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, v)
}

func TestHTTPEmbedderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewHTTPEmbedder(srv.URL, "", "m", 2).Embed(context.Background(), "hello")
	assert.Error(t, err)
}
