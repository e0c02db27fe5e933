// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meshintel/vignette-annotator/internal/lexicon"
	"github.com/meshintel/vignette-annotator/pkg/types"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Spot DrugBank medication names in extracted vignettes",
	Long: `Match runs the rule-based lexicon matcher over every extracted vignette.
Matches are whole-word and case-insensitive, longest span wins, and each
carries the DrugBank ID of the vocabulary row it came from. The output file
has the same shape as the neural recognizer outputs, so consolidation
treats the lexicon as just another model.`,
	RunE: runMatch,
}

func runMatch(cmd *cobra.Command, args []string) error {
	vocabFile, _ := cmd.Flags().GetString("vocab")
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var entries []types.VocabEntry
	if err := readJSONFile(vocabFile, &entries); err != nil {
		return err
	}
	matcher, err := lexicon.NewMatcher(entries)
	if err != nil {
		return err
	}

	var vignettes []types.Vignette
	if err := readJSONFile(input, &vignettes); err != nil {
		return err
	}

	outputs := make([]types.ModelOutput, 0, len(vignettes))
	total := 0
	for _, v := range vignettes {
		out := matcher.MatchVignette(v)
		total += len(out.BnerQuestion) + len(out.BnerAnswer)
		outputs = append(outputs, out)
	}
	logger.Info("lexicon matching done",
		zap.Int("vignettes", len(vignettes)),
		zap.Int("matches", total))

	if err := writeJSONFile(output, outputs); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "matched %d medication mention(s) across %d vignette(s)\n", total, len(vignettes))
	return nil
}

func init() {
	matchCmd.Flags().String("vocab", "data/outputs/drugbank_vocabulary.json", "preprocessed vocabulary file")
	matchCmd.Flags().String("input", "data/outputs/vignettes.json", "extracted vignettes file")
	matchCmd.Flags().String("output", "data/outputs/medication_bner_vignettes.json", "output file for lexicon matches")

	rootCmd.AddCommand(matchCmd)
}
