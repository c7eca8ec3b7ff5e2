// Package gemini implements trait extraction and description generation
// against the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/petmatch/internal/domain"
	"github.com/kailas-cloud/petmatch/internal/domain/listing"
	"github.com/kailas-cloud/petmatch/internal/domain/trait"
	"github.com/kailas-cloud/petmatch/internal/metrics"
)

const (
	provider = "gemini"

	// maxImageBytes caps a single downloaded reference image.
	maxImageBytes = 10 << 20
)

// Config holds the Gemini client settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// Vision extracts traits from images and writes listing descriptions with Gemini.
type Vision struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	http        *http.Client
	logger      *zap.Logger
}

// NewVision creates a Gemini client.
func NewVision(ctx context.Context, cfg *Config) (*Vision, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("gemini model is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Vision{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   int32(cfg.MaxTokens),
		http:        httpClient,
		logger:      logger,
	}, nil
}

// Extract downloads the reference images, sends them inline with the
// taxonomy prompt and returns the raw model text.
func (v *Vision) Extract(ctx context.Context, images []string) (string, error) {
	if len(images) == 0 {
		return "", fmt.Errorf("no images: %w", domain.ErrTraitExtraction)
	}

	parts := make([]*genai.Part, 0, len(images)+1)
	for _, u := range images {
		data, mime, err := v.fetchImage(ctx, u)
		if err != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrTraitExtraction, err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, mime))
	}
	parts = append(parts, genai.NewPartFromText(trait.ExtractionPrompt()))

	text, err := v.generate(ctx, "extract", parts)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrTraitExtraction, err)
	}
	return text, nil
}

// Describe generates a short adoption description for l.
func (v *Vision) Describe(ctx context.Context, l listing.Listing) (string, error) {
	text, err := v.generate(ctx, "describe", []*genai.Part{
		genai.NewPartFromText(listing.DescriptionPrompt(&l)),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrEnrichment, err)
	}
	return text, nil
}

// HealthCheck verifies that the configured model is reachable.
func (v *Vision) HealthCheck(ctx context.Context) error {
	if _, err := v.client.Models.Get(ctx, v.model, nil); err != nil {
		return fmt.Errorf("gemini get model %s: %w", v.model, err)
	}
	return nil
}

func (v *Vision) generate(ctx context.Context, op string, parts []*genai.Part) (string, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(v.temperature),
		MaxOutputTokens: v.maxTokens,
	}

	start := time.Now()
	resp, err := v.client.Models.GenerateContent(ctx, v.model, contents, cfg)
	metrics.VisionRequestDuration.WithLabelValues(provider, op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.VisionRequestsTotal.WithLabelValues(provider, op, "error").Inc()
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		metrics.VisionRequestsTotal.WithLabelValues(provider, op, "empty").Inc()
		return "", errors.New("empty generation response")
	}

	metrics.VisionRequestsTotal.WithLabelValues(provider, op, "success").Inc()
	v.logger.Debug("Generation received",
		zap.String("operation", op),
		zap.String("model", v.model),
		zap.Int("chars", len(text)),
	)
	return text, nil
}

func (v *Vision) fetchImage(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, "", fmt.Errorf("build image request: %w", err)
	}
	resp, err := v.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch image %s: status %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("image %s exceeds %d bytes", rawURL, maxImageBytes)
	}

	return data, imageMIME(resp.Header.Get("Content-Type"), data), nil
}

// imageMIME prefers the server-declared image type and sniffs otherwise.
func imageMIME(header string, data []byte) string {
	if mt, _, _ := strings.Cut(header, ";"); strings.HasPrefix(strings.TrimSpace(mt), "image/") {
		return strings.TrimSpace(mt)
	}
	if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	return "image/jpeg"
}
