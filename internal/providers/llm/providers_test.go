package llm

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
)

func TestOpenAICompatible_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-3.5-turbo", req.Model)
		assert.Len(t, req.Messages, 2)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" hi there "}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAICompatible("openai", srv.URL+"/v1", "sk-test", "gpt-3.5-turbo", 100, 0.7, time.Second)
	out, err := p.Chat(context.Background(), []Message{{Role: "system", Content: "be nice"}, {Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "hi there", out)
}

func TestOpenAICompatible_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		status int
		class  FailureClass
	}{
		{http.StatusTooManyRequests, ClassQuota},
		{http.StatusUnauthorized, ClassAuth},
		{http.StatusForbidden, ClassAuth},
		{http.StatusNotFound, ClassNotFound},
		{http.StatusBadGateway, ClassServer},
		{http.StatusBadRequest, ClassBadResponse},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
		}))

		_, err := NewOpenAICompatible("openai", srv.URL, "k", "m", 0, 0, time.Second).Chat(context.Background(), userMsg)
		srv.Close()

		var pe *ProviderError
		require.True(t, errors.As(err, &pe), "status %d", tt.status)
		assert.Equal(t, tt.class, pe.Class, "status %d", tt.status)
		assert.True(t, pe.Reachable())
		assert.Contains(t, pe.Error(), "nope")
	}
}

func TestOpenAICompatible_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewOpenAICompatible("openai", url, "k", "m", 0, 0, time.Second).Chat(context.Background(), userMsg)
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.False(t, pe.Reachable())
}

func TestOpenAICompatible_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewOpenAICompatible("openai", srv.URL, "k", "m", 0, 0, 20*time.Millisecond).Chat(context.Background(), userMsg)
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ClassTimeout, pe.Class)
	assert.False(t, pe.Reachable())
}

func TestAnthropic_SendsSystemSeparately(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "be brief", req.System)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"short answer"}]}`))
	}))
	defer srv.Close()

	out, err := NewAnthropic(srv.URL, "key", "claude", 0, 0.5, time.Second).Chat(context.Background(), []Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "short answer", out)
}

func TestOllama_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"local says hi"}}`))
	}))
	defer srv.Close()

	out, err := NewOllama(srv.URL, "llama3", time.Second).Chat(context.Background(), userMsg)
	require.NoError(t, err)
	assert.Equal(t, "local says hi", out)
}

func TestOllama_EmptyMessageIsBadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":""}}`))
	}))
	defer srv.Close()

	_, err := NewOllama(srv.URL, "llama3", time.Second).Chat(context.Background(), userMsg)
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ClassBadResponse, pe.Class)
}
