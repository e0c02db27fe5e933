// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/meshintel/vignette-annotator/pkg/types"
)

// Extractor renders a source PDF to paginated XHTML. Backends are a running
// Tika server or a pre-rendered file.
type Extractor interface {
	Extract(ctx context.Context, pdfPath string) (string, error)
}

// TikaExtractor renders PDFs through the Apache Tika server's /tika
// endpoint, requesting the XHTML representation that carries page
// divisions.
type TikaExtractor struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewTikaExtractor builds an extractor against the configured Tika server.
func NewTikaExtractor(cfg types.ExtractConfig) *TikaExtractor {
	return &TikaExtractor{
		baseURL:   strings.TrimRight(cfg.TikaURL, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
	}
}

// Extract uploads the PDF and returns Tika's XHTML rendering.
func (t *TikaExtractor) Extract(ctx context.Context, pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, t.baseURL+"/tika", f)
	if err != nil {
		return "", fmt.Errorf("building Tika request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Accept", "text/xml")
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	// No retry wrapper here: the body is a streamed file and a retried
	// request would resend a consumed reader.
	resp, err := t.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Tika at %s: %w", t.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("Tika returned %s for %s", resp.Status, pdfPath)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading Tika response: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("Tika produced empty output for %s", pdfPath)
	}
	return string(data), nil
}

// FileExtractor serves a pre-rendered XHTML file, for offline runs and for
// reprocessing without a Tika server.
type FileExtractor struct {
	Path string
}

// Extract reads the pre-rendered XHTML, ignoring the PDF path.
func (f *FileExtractor) Extract(_ context.Context, _ string) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("reading pre-rendered XHTML: %w", err)
	}
	return string(data), nil
}
