package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thecodingpenguins/extractify/internal/api"
)

func newExtractCmd() *cobra.Command {
	var (
		keywords []string
		target   string
		minScore float64
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extracts named entities from the saved pages",
		Long: `Runs the extraction pipeline over the pages store and writes the ranked
entity list to the entities store. Partial results are written after every
page, so an interrupted run still leaves usable output.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtractCommand(cmd, keywords, target, minScore)
		},
	}

	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "keywords steering scoring and intent inference")
	cmd.Flags().StringVar(&target, "target", "auto", "entity intent: auto, leadership, legal, or a comma list of types")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "drop entities scoring below this from the printed output")

	return cmd
}

func runExtractCommand(cmd *cobra.Command, keywords []string, target string, minScore float64) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	cleaned, err := api.SanitizeKeywords(keywords)
	if err != nil {
		return err
	}
	score, err := api.ValidateMinScore(minScore)
	if err != nil {
		return err
	}

	result, err := appInstance.service.Extract(cmd.Context(), api.ExtractParams{
		Keywords: cleaned,
		Target:   target,
		MinScore: score,
	})
	if err != nil {
		if errors.Is(err, api.ErrNoPages) {
			return errors.New("no pages found, run 'extractify crawl' first")
		}
		return fmt.Errorf("run extraction: %w", err)
	}

	return printJSON(cmd, result)
}

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Signals a running extraction to stop",
		Long: `Drops the cancel sentinel into the data directory. A running extraction
checks for it between pages and stops at the next boundary, keeping the
entities written so far.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := appInstance.service.CancelExtraction(); err != nil {
				return fmt.Errorf("set cancel marker: %w", err)
			}
			cmd.Println("cancel requested")
			return nil
		},
	}
}
