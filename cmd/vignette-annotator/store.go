// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meshintel/vignette-annotator/internal/annostore"
	"github.com/meshintel/vignette-annotator/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the annotation store (ingest, retrieve, export)",
	Long: `Store manages a local SQLite annotation store built from fully annotated
vignettes. Use subcommands to ingest documents, query them, or export.`,
}

// --- ingest subcommand ---

var storeIngestCmd = &cobra.Command{
	Use:   "ingest <annotated.json>",
	Short: "Ingest annotated documents into the store",
	Long: `Ingest reads an annotated document file and indexes every page into a
SQLite database with FTS5 full-text search over question and answer text.
A page already in the store is replaced by the newer document.`,
	Args: cobra.ExactArgs(1),
	RunE: runStoreIngest,
}

func runStoreIngest(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	var docs []types.AnnotatedVignette
	if err := readJSONFile(args[0], &docs); err != nil {
		return err
	}

	summary, err := store.Ingest(context.Background(), docs, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d page(s) failed ingestion", summary.Failed)
	}
	return nil
}

// --- retrieve subcommand ---

var storeRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query the store with full-text search and filters",
	Long: `Retrieve searches stored vignettes using FTS5 full-text search over
question and answer text, structured filters (entity label, DrugBank ID),
or a combination of both. Filters combine with AND.

Use --page with a book page number to print one full annotated document.`,
	RunE: runStoreRetrieve,
}

func runStoreRetrieve(cmd *cobra.Command, args []string) error {
	page, _ := cmd.Flags().GetInt("page")

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	// Page mode: dump one full document as JSON.
	if page > 0 {
		doc, err := store.Get(context.Background(), page)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	opts := storeQueryOpts(cmd, args)
	results, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatStoreResults(results, jsonOutput)
}

func formatStoreResults(results []annostore.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-6s  %s\n", "Rank", "Page", "Question")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))

	for i, r := range results {
		question := r.Question
		if len(question) > 78 {
			question = question[:75] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-6d  %s\n", i+1, r.BookPage, question)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the annotation store to YAML or JSON",
	Long: `Export writes every stored document, in page order, to an export file
inside the store's index directory.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	storeDir, _ := cmd.Flags().GetString("store-dir")

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	switch format {
	case "yaml", "":
		path := filepath.Join(storeDir, "index", "export.yaml")
		if err := store.ExportYAML(context.Background(), path); err != nil {
			return err
		}
		fmt.Println("Exported to", path)
	case "json":
		path := filepath.Join(storeDir, "index", "export.json")
		if err := store.ExportJSON(context.Background(), path); err != nil {
			return err
		}
		fmt.Println("Exported to", path)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*annostore.Store, error) {
	storeDir, _ := cmd.Flags().GetString("store-dir")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return annostore.NewStore(types.StoreConfig{
		StoreDir:   storeDir,
		MaxResults: maxResults,
	})
}

func storeQueryOpts(cmd *cobra.Command, args []string) annostore.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	label, _ := cmd.Flags().GetString("label")
	drugbankID, _ := cmd.Flags().GetString("drugbank-id")
	limit, _ := cmd.Flags().GetInt("limit")

	return annostore.QueryOptions{
		Query:      queryText,
		Label:      label,
		DrugBankID: drugbankID,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	storeCmd.PersistentFlags().String("store-dir", "data/store", "base directory for the annotation store (contains index/)")
	storeCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Retrieve flags.
	storeRetrieveCmd.Flags().String("query", "", "full-text search query")
	storeRetrieveCmd.Flags().String("label", "", "filter by prefixed entity label, e.g. bc5cdr:DISEASE")
	storeRetrieveCmd.Flags().String("drugbank-id", "", "filter by DrugBank ID, e.g. DB00331")
	storeRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	storeRetrieveCmd.Flags().Int("page", 0, "print the full annotated document for a book page")
	storeRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	// Wire subcommands.
	storeCmd.AddCommand(storeIngestCmd)
	storeCmd.AddCommand(storeRetrieveCmd)
	storeCmd.AddCommand(storeExportCmd)

	rootCmd.AddCommand(storeCmd)
}
