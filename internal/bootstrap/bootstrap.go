// Package bootstrap builds the upstream clients shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/petmatch/internal/config"
	"github.com/kailas-cloud/petmatch/internal/domain/trait"
	"github.com/kailas-cloud/petmatch/internal/transport/gemini"
	"github.com/kailas-cloud/petmatch/internal/transport/openai"
	"github.com/kailas-cloud/petmatch/internal/transport/petfinder"
	budgetuc "github.com/kailas-cloud/petmatch/internal/usecase/budget"
	"github.com/kailas-cloud/petmatch/internal/usecase/relax"
)

// NewVision builds the configured vision-language client.
func NewVision(ctx context.Context, cfg *config.VisionConfig, logger *zap.Logger) (budgetuc.Vision, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewVision(&openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxOutputTokens,
			Provider:    cfg.Provider,
			Logger:      logger,
		}), nil
	case config.ProviderGemini:
		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		v, err := gemini.NewVision(initCtx, &gemini.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxOutputTokens,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown vision provider %q", cfg.Provider)
	}
}

// NewDirectory builds the Petfinder client from config.
func NewDirectory(cfg *config.DirectoryConfig, logger *zap.Logger) *petfinder.Client {
	return petfinder.NewClient(&petfinder.Config{
		BaseURL:        cfg.BaseURL,
		ClientID:       cfg.ClientID,
		ClientSecret:   cfg.ClientSecret,
		RequestsPerSec: cfg.RequestsPerSec,
		Burst:          cfg.Burst,
		Timeout:        time.Duration(cfg.TimeoutSec) * time.Second,
		Logger:         logger,
	})
}

// NewEngine builds the relaxation engine over searcher from the search settings.
func NewEngine(cfg *config.SearchConfig, searcher relax.Searcher, logger *zap.Logger) (*relax.Engine, error) {
	priority, err := trait.ParsePriority(cfg.Priority)
	if err != nil {
		return nil, fmt.Errorf("search priority: %w", err)
	}
	engine, err := relax.New(searcher, relax.Config{
		Priority: priority,
		RadiusKm: cfg.RadiusKm,
		Limit:    cfg.Limit,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("relaxation engine: %w", err)
	}
	return engine, nil
}
