// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meshintel/vignette-annotator/internal/consolidate"
	"github.com/meshintel/vignette-annotator/internal/tagger"
	"github.com/meshintel/vignette-annotator/pkg/types"
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate <model_output.json> [more.json ...]",
	Short: "Merge recognizer outputs onto one canonical tokenization",
	Long: `Consolidate merges the per-model recognizer outputs into one annotated
document per page. Span conflicts resolve by fixed model priority, every
token keeps the full label union, and token flags are promoted from the
winning labels. A page missing any model in the priority order fails that
page and lands in the error file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConsolidate,
}

func runConsolidate(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	errorsFile, _ := cmd.Flags().GetString("errors")
	workers, _ := cmd.Flags().GetInt("workers")

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	byModel, err := tagger.LoadByModel(args)
	if err != nil {
		return err
	}
	for model, outputs := range byModel {
		logger.Debug("model outputs loaded",
			zap.String("model", model),
			zap.Int("pages", len(outputs)))
	}

	cfg := types.DefaultConsolidationConfig()
	if workers > 0 {
		cfg.Workers = workers
	}

	res, err := consolidate.Run(cmd.Context(), byModel, cfg, logger)
	if err != nil {
		return err
	}

	if err := writeJSONFile(output, res.Documents); err != nil {
		return err
	}
	if err := writeJSONFile(errorsFile, res.Errors); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "consolidated %d page(s), %d error(s)\n", len(res.Documents), len(res.Errors))
	if res.HasFailures() {
		return fmt.Errorf("%d page(s) failed consolidation, see %s", len(res.Errors), errorsFile)
	}
	return nil
}

func init() {
	consolidateCmd.Flags().String("output", "data/outputs/consolidated.json", "output file for annotated documents")
	consolidateCmd.Flags().String("errors", "data/errors/consolidate_errors.json", "output file for per-page errors")
	consolidateCmd.Flags().Int("workers", 0, "worker pool size (0 uses the default)")

	rootCmd.AddCommand(consolidateCmd)
}
