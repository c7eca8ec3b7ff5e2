// Package openai implements trait extraction and description generation
// against any OpenAI-compatible chat completions API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/petmatch/internal/domain"
	"github.com/kailas-cloud/petmatch/internal/domain/listing"
	"github.com/kailas-cloud/petmatch/internal/domain/trait"
	"github.com/kailas-cloud/petmatch/internal/metrics"
)

// Vision is a vision-language client using the OpenAI-compatible API.
type Vision struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	provider    string
	logger      *zap.Logger
}

// Config holds the provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Provider    string
	Logger      *zap.Logger
}

// NewVision creates an OpenAI-compatible vision client.
func NewVision(cfg *Config) *Vision {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Vision{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		provider:    provider,
		logger:      logger,
	}
}

// Extract sends the reference images with the taxonomy prompt and returns the raw model text.
func (v *Vision) Extract(ctx context.Context, images []string) (string, error) {
	if len(images) == 0 {
		return "", fmt.Errorf("no images: %w", domain.ErrTraitExtraction)
	}

	parts := make([]openai.ChatMessagePart, 0, len(images)+1)
	for _, u := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    u,
				Detail: openai.ImageURLDetailLow,
			},
		})
	}
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: trait.ExtractionPrompt(),
	})

	text, err := v.complete(ctx, "extract", openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: parts,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrTraitExtraction, err)
	}
	return text, nil
}

// Describe generates a short adoption description for l.
func (v *Vision) Describe(ctx context.Context, l listing.Listing) (string, error) {
	text, err := v.complete(ctx, "describe", openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: listing.DescriptionPrompt(&l),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrEnrichment, err)
	}
	return text, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (v *Vision) HealthCheck(ctx context.Context) error {
	if _, err := v.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (v *Vision) complete(ctx context.Context, op string, msg openai.ChatCompletionMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       v.model,
		Messages:    []openai.ChatCompletionMessage{msg},
		Temperature: v.temperature,
		MaxTokens:   v.maxTokens,
	}

	start := time.Now()
	resp, err := v.client.CreateChatCompletion(ctx, req)
	metrics.VisionRequestDuration.WithLabelValues(v.provider, op).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.VisionRequestsTotal.WithLabelValues(v.provider, op, "error").Inc()
		return "", parseAPIError(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		metrics.VisionRequestsTotal.WithLabelValues(v.provider, op, "empty").Inc()
		return "", errors.New("empty completion response")
	}

	metrics.VisionRequestsTotal.WithLabelValues(v.provider, op, "success").Inc()
	v.logger.Debug("Completion received",
		zap.String("operation", op),
		zap.String("model", v.model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// parseAPIError extracts a human-readable error from the API response.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("vision API error %d: %s", reqErr.HTTPStatusCode, detail)
		}
		return fmt.Errorf("vision API error %d: %s", reqErr.HTTPStatusCode, string(reqErr.Body))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 {
			return fmt.Errorf("vision API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, domain.ErrRateLimited)
		}
		return fmt.Errorf("vision API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("vision request failed: %w", err)
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
