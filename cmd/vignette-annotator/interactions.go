// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/vignette-annotator/internal/interactions"
	"github.com/meshintel/vignette-annotator/pkg/types"
)

var interactionsCmd = &cobra.Command{
	Use:   "interactions",
	Short: "Look up drug-drug interactions for co-mentioned medications",
	Long: `Interactions queries the Bio2RDF DrugBank SPARQL endpoint for every pair
of medications mentioned in a vignette's question. Pairs whose lookup fails
after retries are recorded on the document as unresolved, never dropped.
With --fixture, lookups read a local JSON file instead of the network.`,
	RunE: runInteractions,
}

func runInteractions(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	fixture, _ := cmd.Flags().GetString("fixture")
	endpoint, _ := cmd.Flags().GetString("endpoint")

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var docs []types.AnnotatedVignette
	if err := readJSONFile(input, &docs); err != nil {
		return err
	}

	var src interactions.Source
	if fixture != "" {
		fs, err := interactions.NewFileSource(fixture)
		if err != nil {
			return err
		}
		src = fs
	} else {
		cfg := types.DefaultInteractionConfig()
		if ep := secretDefault("sparql-endpoint", endpoint); ep != "" {
			cfg.SPARQLEndpoint = ep
		}
		src = interactions.NewClient(cfg)
	}

	if err := interactions.Annotate(cmd.Context(), docs, src, logger); err != nil {
		return err
	}
	if err := writeJSONFile(output, docs); err != nil {
		return err
	}

	total, unresolved := 0, 0
	for _, doc := range docs {
		total += len(doc.Interactions)
		unresolved += len(doc.UnresolvedPairs)
	}
	fmt.Fprintf(os.Stdout, "found %d interaction(s), %d unresolved pair(s)\n", total, unresolved)
	return nil
}

func init() {
	interactionsCmd.Flags().String("input", "data/outputs/classified.json", "classified documents file")
	interactionsCmd.Flags().String("output", "data/outputs/annotated.json", "output file for documents with interactions")
	interactionsCmd.Flags().String("fixture", "", "local JSON interaction fixture (skips the network)")
	interactionsCmd.Flags().String("endpoint", "", "SPARQL endpoint URL (overrides the default)")

	rootCmd.AddCommand(interactionsCmd)
}
