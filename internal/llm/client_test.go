package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(endpoint string) LLMConfig {
	cfg := DefaultConfig()
	cfg.Endpoint = endpoint
	return cfg
}

// fastTimeouts gives every task a short per-attempt timeout.
func fastTimeouts(cfg LLMConfig, ms int) LLMConfig {
	cfg.Tasks = map[TaskType]TaskConfig{
		TaskScenario: {Temperature: 0.7, MaxTokens: 512, TimeoutMs: ms},
	}
	return cfg
}

// fakeOllama answers chat calls with reply and counts attempts. before runs
// first and may short-circuit by returning true.
type fakeOllama struct {
	reply    string
	attempts atomic.Int32
	before   func(n int32, w http.ResponseWriter) bool

	mu   sync.Mutex
	last ollamaChatRequest
}

func (f *fakeOllama) lastRequest() ollamaChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *fakeOllama) start(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := f.attempts.Add(1)
		if f.before != nil && f.before(n, w) {
			return
		}
		assert.Equal(t, ollamaChatPath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		var req ollamaChatRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		f.mu.Lock()
		f.last = req
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Model:   "llama3.2",
			Message: ollamaMessage{Role: "assistant", Content: f.reply},
			Done:    true,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOllama_GenerateSendsChatRequest(t *testing.T) {
	fake := &fakeOllama{reply: `{"scenario":"down 3-4 with forty seconds left"}`}
	srv := fake.start(t)

	resp, err := NewOllamaClient(testConfig(srv.URL), nil).Generate(context.Background(), GenerateRequest{
		Task:         TaskScenario,
		SystemPrompt: "you are an epee coach",
		UserPrompt:   "build a scenario",
		JSON:         true,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"scenario":"down 3-4 with forty seconds left"}`, resp.Text)
	assert.Equal(t, "llama3.2", resp.Model)
	assert.GreaterOrEqual(t, resp.LatencyMs, int64(0))

	sent := fake.lastRequest()
	assert.Equal(t, "llama3.2", sent.Model)
	assert.False(t, sent.Stream)
	assert.Equal(t, "json", sent.Format)
	assert.Equal(t, 0.7, sent.Options.Temperature)
	assert.Equal(t, []ollamaMessage{
		{Role: "system", Content: "you are an epee coach"},
		{Role: "user", Content: "build a scenario"},
	}, sent.Messages)
}

func TestOllama_OverridesAndNoSystemMessage(t *testing.T) {
	fake := &fakeOllama{reply: "ok"}
	srv := fake.start(t)

	temp, maxTok := 0.1, 64
	_, err := NewOllamaClient(testConfig(srv.URL), nil).Generate(context.Background(), GenerateRequest{
		Task:        TaskFeedback,
		UserPrompt:  "p",
		Temperature: &temp,
		MaxTokens:   &maxTok,
	})
	require.NoError(t, err)

	sent := fake.lastRequest()
	assert.Equal(t, 0.1, sent.Options.Temperature)
	assert.Equal(t, 64, sent.Options.NumPredict)
	assert.Empty(t, sent.Format)
	require.Len(t, sent.Messages, 1)
	assert.Equal(t, "user", sent.Messages[0].Role)
}

func TestOllama_Retries(t *testing.T) {
	tests := []struct {
		name    string
		timeout int
		before  func(n int32, w http.ResponseWriter) bool
	}{
		{
			name:    "server error then success",
			timeout: 1000,
			before: func(n int32, w http.ResponseWriter) bool {
				if n == 1 {
					http.Error(w, "internal error", http.StatusInternalServerError)
					return true
				}
				return false
			},
		},
		{
			name:    "slow first attempt",
			timeout: 50,
			before: func(n int32, w http.ResponseWriter) bool {
				if n == 1 {
					time.Sleep(120 * time.Millisecond)
				}
				return false
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeOllama{reply: "ok", before: tt.before}
			cfg := fastTimeouts(testConfig(fake.start(t).URL), tt.timeout)
			cfg.MaxRetries = 1

			resp, err := NewOllamaClient(cfg, nil).Generate(context.Background(), GenerateRequest{Task: TaskScenario, UserPrompt: "p"})
			require.NoError(t, err)
			assert.Equal(t, "ok", resp.Text)
			assert.Equal(t, int32(2), fake.attempts.Load())
		})
	}
}

func TestOllama_Failures(t *testing.T) {
	slow := &fakeOllama{before: func(int32, http.ResponseWriter) bool {
		time.Sleep(300 * time.Millisecond)
		return true
	}}
	rejecting := &fakeOllama{before: func(_ int32, w http.ResponseWriter) bool {
		http.Error(w, "bad request", http.StatusBadRequest)
		return true
	}}

	tests := []struct {
		name     string
		endpoint string
		wantErr  error
		wantCode string
		contains string
	}{
		{name: "timeout", endpoint: slow.start(t).URL, wantErr: ErrTimeout, wantCode: "TIMEOUT"},
		{name: "nothing listening", endpoint: "http://127.0.0.1:1", wantErr: ErrUnavailable, wantCode: "UNAVAILABLE"},
		{name: "bad status", endpoint: rejecting.start(t).URL, wantErr: ErrRetryExhausted, wantCode: "UNKNOWN", contains: "status 400"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fastTimeouts(testConfig(tt.endpoint), 50)
			cfg.MaxRetries = 0
			var captured LLMCallEvent
			obs := &captureObserver{fn: func(e LLMCallEvent) { captured = e }}

			_, err := NewOllamaClient(cfg, obs).Generate(context.Background(), GenerateRequest{Task: TaskScenario, UserPrompt: "p"})
			require.ErrorIs(t, err, tt.wantErr)
			if tt.contains != "" {
				assert.ErrorContains(t, err, tt.contains)
			}
			assert.False(t, captured.Success)
			assert.Equal(t, 1, captured.Attempts)
			assert.Equal(t, tt.wantCode, captured.ErrorCode)
		})
	}
}

func TestOllama_ParentCanceledSendsNothing(t *testing.T) {
	fake := &fakeOllama{reply: "ok"}
	srv := fake.start(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOllamaClient(testConfig(srv.URL), nil).Generate(ctx, GenerateRequest{Task: TaskScenario, UserPrompt: "p"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, fake.attempts.Load())
}

func TestOllama_Available(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ollamaVersionPath, r.URL.Path)
		_, _ = w.Write([]byte(`{"version":"0.5.7"}`))
	}))
	defer srv.Close()

	assert.True(t, NewOllamaClient(testConfig(srv.URL), nil).Available(context.Background()))
	assert.False(t, NewOllamaClient(testConfig("http://127.0.0.1:1"), nil).Available(context.Background()))
}

func TestOllama_ObserverOnSuccess(t *testing.T) {
	fake := &fakeOllama{reply: "ok"}
	srv := fake.start(t)

	var captured LLMCallEvent
	obs := &captureObserver{fn: func(e LLMCallEvent) { captured = e }}
	_, err := NewOllamaClient(testConfig(srv.URL), obs).Generate(context.Background(), GenerateRequest{Task: TaskFeedback, UserPrompt: "p"})
	require.NoError(t, err)

	assert.Equal(t, LLMCallEvent{
		Task:      TaskFeedback,
		Provider:  ProviderOllama,
		Model:     "llama3.2",
		LatencyMs: captured.LatencyMs,
		Attempts:  1,
		Success:   true,
	}, captured)
}

func TestNewClient_SelectsProvider(t *testing.T) {
	c, err := NewClient(context.Background(), DefaultConfig(), nil)
	require.NoError(t, err)
	assert.IsType(t, &ollamaClient{}, c)

	cfg := DefaultConfig()
	cfg.Provider = ProviderGemini
	_, err = NewClient(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "api key")

	cfg.Provider = "nope"
	_, err = NewClient(context.Background(), cfg, nil)
	assert.Error(t, err)
}

type captureObserver struct {
	fn func(LLMCallEvent)
}

func (o *captureObserver) OnCallComplete(e LLMCallEvent) { o.fn(e) }
