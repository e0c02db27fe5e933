// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"os/exec"
	"strings"
)

const pdfBinary = "wkhtmltopdf"

// PDFAvailable reports whether the HTML-to-PDF converter is on PATH.
func PDFAvailable() bool {
	_, err := exec.LookPath(pdfBinary)
	return err == nil
}

// ConvertPDF converts rendered HTML reports to PDF files next to them,
// returning the PDF paths. The converter binary must be on PATH.
func ConvertPDF(htmlPaths []string) ([]string, error) {
	if !PDFAvailable() {
		return nil, fmt.Errorf("%s not found on PATH", pdfBinary)
	}

	var pdfPaths []string
	for _, htmlPath := range htmlPaths {
		pdfPath := strings.TrimSuffix(htmlPath, ".html") + ".pdf"
		cmd := exec.Command(pdfBinary, htmlPath, pdfPath)
		if out, err := cmd.CombinedOutput(); err != nil {
			return nil, fmt.Errorf("converting %s: %v: %s", htmlPath, err, out)
		}
		pdfPaths = append(pdfPaths, pdfPath)
	}
	return pdfPaths, nil
}
