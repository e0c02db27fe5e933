// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meshintel/vignette-annotator/internal/extract"
	"github.com/meshintel/vignette-annotator/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract <book.pdf|book.xhtml>",
	Short: "Extract clinical vignettes from the source book",
	Long: `Extract renders the book to paginated XHTML (through a Tika server, or
from a pre-rendered .xhtml file) and pulls the question/answer pair for each
selected page. Pages that cannot be parsed are collected into the error
file; they never produce empty vignettes.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	pagesFile, _ := cmd.Flags().GetString("pages")
	output, _ := cmd.Flags().GetString("output")
	errorsFile, _ := cmd.Flags().GetString("errors")
	tikaURL, _ := cmd.Flags().GetString("tika-url")

	pageIDs, err := readPageSelection(pagesFile)
	if err != nil {
		return err
	}

	cfg := types.DefaultExtractConfig()
	cfg.TikaURL = secretDefault("tika-url", tikaURL)

	var extractor extract.Extractor
	if strings.HasSuffix(strings.ToLower(args[0]), ".xhtml") {
		extractor = &extract.FileExtractor{Path: args[0]}
	} else {
		if cfg.TikaURL == "" {
			return fmt.Errorf("extracting from PDF requires --tika-url (or pass a pre-rendered .xhtml file)")
		}
		extractor = extract.NewTikaExtractor(cfg)
	}

	xhtml, err := extractor.Extract(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	pages, err := extract.SplitPages(xhtml)
	if err != nil {
		return err
	}

	res := extract.Cases(pages, pageIDs, cfg)

	if err := writeJSONFile(output, res.Vignettes); err != nil {
		return err
	}
	if err := writeJSONFile(errorsFile, res.Errors); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "extracted %d vignette(s), %d error(s)\n", len(res.Vignettes), len(res.Errors))
	if res.HasFailures() {
		return fmt.Errorf("%d page(s) failed extraction, see %s", len(res.Errors), errorsFile)
	}
	return nil
}

// readPageSelection reads one page number per line.
func readPageSelection(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading page selection: %w", err)
	}
	defer f.Close()

	var pages []int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("page selection %s: bad line %q", path, line)
		}
		pages = append(pages, n)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading page selection: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("page selection %s is empty", path)
	}
	return pages, nil
}

func init() {
	extractCmd.Flags().String("pages", "pages_selection.txt", "file with one book page number per line")
	extractCmd.Flags().String("output", "data/outputs/vignettes.json", "output file for extracted vignettes")
	extractCmd.Flags().String("errors", "data/errors/extract_errors.json", "output file for per-page errors")
	extractCmd.Flags().String("tika-url", "", "base URL of a running Apache Tika server")

	rootCmd.AddCommand(extractCmd)
}
