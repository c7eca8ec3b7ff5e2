package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/petmatch/internal/bootstrap"
	"github.com/kailas-cloud/petmatch/internal/config"
	logpkg "github.com/kailas-cloud/petmatch/internal/logger"
	"github.com/kailas-cloud/petmatch/internal/transport/petfinder"
	budgetuc "github.com/kailas-cloud/petmatch/internal/usecase/budget"
	matchuc "github.com/kailas-cloud/petmatch/internal/usecase/match"
	"github.com/kailas-cloud/petmatch/internal/usecase/relax"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	env     string
	verbose bool
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "petmatchctl",
		Short:         "Match photographed pet preferences to adoptable animals",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(), "config environment (config/<env>.yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging to stderr")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "overall deadline")

	root.AddCommand(
		newMatchCmd(opts),
		newRandomCmd(opts),
		newSanitizeCmd(),
		newPromptCmd(),
		newVersionCmd(),
	)
	return root
}

// pipeline holds the collaborators of a one-off run. Enrichment and caching stay off.
type pipeline struct {
	match     *matchuc.Service
	directory *petfinder.Client
	logger    *zap.Logger
}

func (o *options) newPipeline(ctx context.Context) (*pipeline, error) {
	cfg, err := config.Load(o.env)
	if err != nil {
		return nil, err
	}

	level := "warn"
	if o.verbose {
		level = "debug"
	}
	logger, err := logpkg.NewLogger("local", level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	directory := bootstrap.NewDirectory(&cfg.Directory, logger)
	provider, err := bootstrap.NewVision(ctx, &cfg.Vision, logger)
	if err != nil {
		return nil, err
	}
	vision := budgetuc.NewGuardedVision(provider, cfg.Vision.Provider, cfg.Vision.Model, nil, logger)

	engine, err := bootstrap.NewEngine(&cfg.Search, directory, logger)
	if err != nil {
		return nil, err
	}

	return &pipeline{
		match:     matchuc.New(vision, engine, nil, cfg.Vision.MaxImages, logger),
		directory: directory,
		logger:    logger,
	}, nil
}

func (o *options) context(parent context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, o.timeout)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// attemptView renders a relaxation attempt for terminal output.
type attemptView struct {
	Filters    map[string]string `json:"filters"`
	TotalCount int               `json:"total_count"`
	Error      string            `json:"error,omitempty"`
}

func attemptViews(attempts []relax.Attempt) []attemptView {
	out := make([]attemptView, len(attempts))
	for i, a := range attempts {
		f := make(map[string]string, len(a.Filters))
		for k, v := range a.Filters {
			f[string(k)] = v
		}
		out[i] = attemptView{Filters: f, TotalCount: a.TotalCount}
		if a.Err != nil {
			out[i].Error = a.Err.Error()
		}
	}
	return out
}
