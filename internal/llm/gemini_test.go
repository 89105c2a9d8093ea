package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req map[string]any
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Contains(t, string(body), "expert epee fencing coach")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"scenario\":\"x\"}"}]}}],"modelVersion":"gemini-test"}`))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.Provider = ProviderGemini
	cfg.APIKey = "test-key"
	cfg.Model = "gemini-2.5-flash"
	cfg.Endpoint = srv.URL
	cfg.MaxRetries = 0

	var captured LLMCallEvent
	client, err := NewGeminiClient(context.Background(), cfg, &captureObserver{fn: func(e LLMCallEvent) { captured = e }})
	require.NoError(t, err)

	resp, err := client.Generate(context.Background(), GenerateRequest{
		Task:         TaskScenario,
		SystemPrompt: "You are an expert epee fencing coach creating tactical scenarios.",
		UserPrompt:   "write one",
		JSON:         true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"scenario":"x"}`, resp.Text)
	assert.Equal(t, "gemini-test", resp.Model)
	assert.Equal(t, ProviderGemini, captured.Provider)
	assert.True(t, captured.Success)
}

func TestGeminiClient_ServerErrorExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"bad","status":"INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.Provider = ProviderGemini
	cfg.APIKey = "test-key"
	cfg.Endpoint = srv.URL
	cfg.MaxRetries = 0

	client, err := NewGeminiClient(context.Background(), cfg, nil)
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), GenerateRequest{Task: TaskChoices, UserPrompt: "p"})
	assert.ErrorIs(t, err, ErrRetryExhausted)
}
