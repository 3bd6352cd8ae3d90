package neural

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIBackend(t *testing.T) {
	var completions atomic.Int32
	requests := make(chan map[string]any, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models/gpt2", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"gpt2","object":"model","created":1,"owned_by":"shrek"}`))
	})
	mux.HandleFunc("/v1/completions", func(w http.ResponseWriter, r *http.Request) {
		completions.Add(1)
		body := map[string]any{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		requests <- body
		_, _ = w.Write([]byte(`{
			"id":"cmpl-1","object":"text_completion","created":1,"model":"gpt2",
			"choices":[{"text":"ogres are like onions.","index":0,"finish_reason":"stop"}],
			"usage":{"prompt_tokens":2,"completion_tokens":4,"total_tokens":6}
		}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	backend, err := OpenAILoader(OpenAIConfig{
		Token:   "sk-test",
		BaseURL: srv.URL + "/v1",
		Model:   "gpt2",
		Stop:    DefaultEndOfText,
	})(context.Background())
	require.NoError(t, err)
	defer backend.Close()

	text, err := backend.Generate(context.Background(), "ogres", 4)
	require.NoError(t, err)
	assert.Equal(t, "ogres are like onions.", text)
	assert.Equal(t, int32(1), completions.Load())

	lastRequest := <-requests
	assert.Equal(t, "ogres", lastRequest["prompt"])
	assert.Equal(t, float64(4), lastRequest["max_tokens"])
	assert.Equal(t, true, lastRequest["echo"])
	assert.Equal(t, []any{DefaultEndOfText}, lastRequest["stop"])
}

func TestOpenAILoaderFailsForMissingModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := OpenAILoader(OpenAIConfig{Token: "sk-test", BaseURL: srv.URL + "/v1", Model: "gpt2"})(context.Background())
	require.Error(t, err)
}
