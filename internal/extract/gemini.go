package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

// GeminiConfig holds the settings for GeminiClient.
type GeminiConfig struct {
	APIKey          string
	Model           string
	MaxOutputTokens int32
	Timeout         time.Duration
}

// GeminiClient calls the Gemini API for table extraction.
type GeminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int32
	stats     *LLMStats
	log       *slog.Logger
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig, stats *LLMStats, log *slog.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{Timeout: &timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if stats == nil {
		stats = NewLLMStats(time.Hour)
	}
	return &GeminiClient{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxOutputTokens,
		stats:     stats,
		log:       log,
	}, nil
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string {
	return c.model
}

// Stats returns the latency and usage tracker.
func (c *GeminiClient) Stats() *LLMStats {
	return c.stats
}

// ExtractTables sends the document inline with the extraction prompt and
// returns the raw response text.
func (c *GeminiClient) ExtractTables(ctx context.Context, data []byte, mimeType string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, mimeType),
			genai.NewPartFromText(TableExtractionPrompt),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.1),
		MaxOutputTokens:  c.maxTokens,
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
		ThinkingConfig:   &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	elapsed := time.Since(start)
	if err != nil {
		c.stats.RecordFailure(elapsed)
		return "", fmt.Errorf("gemini generate: %w", classify(err))
	}

	var usage Usage
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int64(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	c.stats.Record(elapsed, usage)

	text := resp.Text()
	c.log.Debug("gemini response",
		"model", c.model,
		"mime_type", mimeType,
		"bytes", len(data),
		"duration_ms", elapsed.Milliseconds(),
		"prompt_tokens", usage.PromptTokens,
		"output_tokens", usage.OutputTokens,
		"response_len", len(text),
	)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
