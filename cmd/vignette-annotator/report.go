// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meshintel/vignette-annotator/internal/report"
	"github.com/meshintel/vignette-annotator/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render annotated documents as HTML reports",
	Long: `Report writes one HTML page per annotated vignette with highlighted
entity mentions, a health-issues table split by clinical context, a
medication table with treatment purposes and DrugBank links, and the known
drug-drug interactions. An index page links every report. With --pdf, each
page is also converted through wkhtmltopdf when it is installed.`,
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	pdf, _ := cmd.Flags().GetBool("pdf")

	var docs []types.AnnotatedVignette
	if err := readJSONFile(input, &docs); err != nil {
		return err
	}

	paths, err := report.WriteReports(docs, types.DefaultConsolidationConfig(), types.ReportConfig{
		OutputDir: outputDir,
		PDF:       pdf,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "wrote %d report file(s) to %s\n", len(paths), outputDir)

	if pdf {
		if !report.PDFAvailable() {
			return fmt.Errorf("wkhtmltopdf not found on PATH, HTML reports were still written")
		}
		// Convert the per-page reports only, not the index.
		var pageReports []string
		for _, p := range paths {
			if !strings.HasSuffix(p, "index.html") {
				pageReports = append(pageReports, p)
			}
		}
		pdfPaths, err := report.ConvertPDF(pageReports)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "converted %d report(s) to PDF\n", len(pdfPaths))
	}
	return nil
}

func init() {
	reportCmd.Flags().String("input", "data/outputs/annotated.json", "annotated documents file")
	reportCmd.Flags().String("output-dir", "data/reports", "directory report files are written to")
	reportCmd.Flags().Bool("pdf", false, "also convert each report to PDF via wkhtmltopdf")

	rootCmd.AddCommand(reportCmd)
}
