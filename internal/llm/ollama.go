package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	ollamaChatPath    = "/api/chat"
	ollamaVersionPath = "/api/version"
	ollamaProbeWait   = 2 * time.Second
	maxErrorBody      = 512
)

type ollamaClient struct {
	cfg      LLMConfig
	http     *http.Client
	observer Observer
}

// NewOllamaClient talks to a local Ollama daemon over its chat endpoint.
func NewOllamaClient(cfg LLMConfig, observer Observer) LLMClient {
	if observer == nil {
		observer = NoopObserver{}
	}
	cfg.Provider = ProviderOllama
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	return &ollamaClient{
		cfg:      cfg,
		http:     &http.Client{Transport: &http.Transport{DialContext: dialer.DialContext}},
		observer: observer,
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// statusError is a non-200 reply. It is retried like any other failure.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ollama replied status %d: %s", e.Code, e.Body)
}

func (c *ollamaClient) chatRequest(req GenerateRequest) ollamaChatRequest {
	temp, maxTok := c.cfg.params(req)
	body := ollamaChatRequest{
		Model:   c.cfg.Model,
		Options: ollamaOptions{Temperature: temp, NumPredict: maxTok},
	}
	if req.SystemPrompt != "" {
		body.Messages = append(body.Messages, ollamaMessage{Role: "system", Content: req.SystemPrompt})
	}
	body.Messages = append(body.Messages, ollamaMessage{Role: "user", Content: req.UserPrompt})
	if req.JSON {
		body.Format = "json"
	}
	return body
}

func (c *ollamaClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	payload, err := json.Marshal(c.chatRequest(req))
	if err != nil {
		return nil, fmt.Errorf("encoding chat request: %w", err)
	}
	return generateWithRetry(ctx, c.cfg, req.Task, c.observer, func(ctx context.Context) (string, string, error) {
		var out ollamaChatResponse
		if err := c.post(ctx, ollamaChatPath, payload, &out); err != nil {
			return "", "", err
		}
		return out.Message.Content, out.Model, nil
	})
}

func (c *ollamaClient) post(ctx context.Context, path string, payload []byte, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &statusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding ollama reply: %w", err)
	}
	return nil
}

// Available probes the version endpoint.
func (c *ollamaClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, ollamaProbeWait)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+ollamaVersionPath, nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
