package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// geminiClient implements LLMClient over the Gemini API.
type geminiClient struct {
	cfg      LLMConfig
	client   *genai.Client
	observer Observer
}

// NewGeminiClient creates an LLMClient backed by Gemini. A non-empty
// cfg.Endpoint replaces the default API base URL.
func NewGeminiClient(ctx context.Context, cfg LLMConfig, observer Observer) (LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if observer == nil {
		observer = NoopObserver{}
	}
	cfg.Provider = ProviderGemini

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}
	return &geminiClient{cfg: cfg, client: client, observer: observer}, nil
}

func (c *geminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	temp, maxTok := c.cfg.params(req)
	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temp)),
	}
	if req.SystemPrompt != "" {
		gc.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemPrompt}}}
	}
	if maxTok > 0 {
		gc.MaxOutputTokens = int32(maxTok)
	}
	if req.JSON {
		gc.ResponseMIMEType = "application/json"
	}

	return generateWithRetry(ctx, c.cfg, req.Task, c.observer, func(ctx context.Context) (string, string, error) {
		resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(req.UserPrompt), gc)
		if err != nil {
			return "", "", err
		}
		return resp.Text(), resp.ModelVersion, nil
	})
}

func (c *geminiClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err := c.client.Models.Get(ctx, c.cfg.Model, nil)
	return err == nil
}
