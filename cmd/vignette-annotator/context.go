// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/vignette-annotator/internal/clinctx"
	"github.com/meshintel/vignette-annotator/pkg/types"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Classify clinical context and link medications to conditions",
	Long: `Context applies trigger-phrase rules to disease mentions (history, family
history and their negations) and, where a dependency parse is available,
matches syntactic patterns that link each medication to the condition it
treats. A page whose parse does not align with the canonical tokens fails
that page and lands in the error file.`,
	RunE: runContext,
}

func runContext(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	parseFile, _ := cmd.Flags().GetString("parse")
	output, _ := cmd.Flags().GetString("output")
	errorsFile, _ := cmd.Flags().GetString("errors")
	workers, _ := cmd.Flags().GetInt("workers")

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var docs []types.AnnotatedVignette
	if err := readJSONFile(input, &docs); err != nil {
		return err
	}

	var parses []types.ModelOutput
	if parseFile != "" {
		if err := readJSONFile(parseFile, &parses); err != nil {
			return err
		}
	}

	cfg := types.DefaultContextConfig()
	if workers > 0 {
		cfg.Workers = workers
	}

	res, err := clinctx.Run(cmd.Context(), docs, parses, cfg, logger)
	if err != nil {
		return err
	}

	if err := writeJSONFile(output, res.Documents); err != nil {
		return err
	}
	if err := writeJSONFile(errorsFile, res.Errors); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "classified %d page(s), %d error(s)\n", len(res.Documents), len(res.Errors))
	if res.HasFailures() {
		return fmt.Errorf("%d page(s) failed classification, see %s", len(res.Errors), errorsFile)
	}
	return nil
}

func init() {
	contextCmd.Flags().String("input", "data/outputs/consolidated.json", "consolidated documents file")
	contextCmd.Flags().String("parse", "", "tagger output file carrying dependency parses (optional)")
	contextCmd.Flags().String("output", "data/outputs/classified.json", "output file for classified documents")
	contextCmd.Flags().String("errors", "data/errors/context_errors.json", "output file for per-page errors")
	contextCmd.Flags().Int("workers", 0, "worker pool size (0 uses the default)")

	rootCmd.AddCommand(contextCmd)
}
