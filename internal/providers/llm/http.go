package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// postJSON sends body and decodes a 200 response into out. Every failure comes back
// as a *ProviderError.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return &ProviderError{Provider: provider, Class: ClassBadResponse, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return &ProviderError{Provider: provider, Class: ClassBadResponse, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &ProviderError{Provider: provider, Class: classifyTransport(err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &ProviderError{Provider: provider, Class: classifyTransport(err), Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &ProviderError{
			Provider: provider,
			Class:    ClassifyHTTPStatus(resp.StatusCode),
			Status:   resp.StatusCode,
			Err:      errors.New(errorMessage(raw)),
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ProviderError{Provider: provider, Class: ClassBadResponse, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorMessage extracts {"error":{"message":...}} or {"error":"..."} payloads.
func errorMessage(raw []byte) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &nested) == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}
	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &flat) == nil && flat.Error != "" {
		return flat.Error
	}
	if len(raw) > 200 {
		raw = raw[:200]
	}
	if len(raw) == 0 {
		return "empty response body"
	}
	return string(raw)
}
