// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/vignette-annotator/internal/vocab"
)

var vocabCmd = &cobra.Command{
	Use:   "vocab <drugbank_vocabulary.zip|.csv>",
	Short: "Preprocess the DrugBank open vocabulary",
	Long: `Vocab reduces the DrugBank open-vocabulary release to the two columns
the lexicon matcher needs (DrugBank ID and common name) and writes them as
JSON. Zip archives are read in place; the first CSV member is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runVocab,
}

func runVocab(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")

	entries, err := vocab.Load(args[0])
	if err != nil {
		return err
	}
	if err := writeJSONFile(output, entries); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "wrote %d vocabulary entries to %s\n", len(entries), output)
	return nil
}

func init() {
	vocabCmd.Flags().String("output", "data/outputs/drugbank_vocabulary.json", "output file for the preprocessed vocabulary")

	rootCmd.AddCommand(vocabCmd)
}
