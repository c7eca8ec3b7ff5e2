package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/petmatch/internal/domain/trait"
	"github.com/kailas-cloud/petmatch/internal/version"
)

func newSanitizeCmd() *cobra.Command {
	var parse bool

	cmd := &cobra.Command{
		Use:     "sanitize [TEXT]",
		Short:   "Clean raw vision model output (reads stdin when TEXT is omitted)",
		Example: "  echo '```json {\"type\":\"dog\"} ```' | petmatchctl sanitize --parse",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			if !parse {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), trait.Sanitize(raw))
				return err
			}

			profile, err := trait.Parse(raw)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"profile":  profile,
				"warnings": trait.Violations(profile),
			})
		},
	}
	cmd.Flags().BoolVar(&parse, "parse", false, "parse into a trait profile and check it against the taxonomy")
	return cmd
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.New("no input")
	}
	return string(data), nil
}

func newPromptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Print the trait extraction prompt sent to the vision model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), trait.ExtractionPrompt())
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "petmatchctl %s (commit %s, built %s)\n",
				version.Version, version.Commit, version.Date)
			return err
		},
	}
}
