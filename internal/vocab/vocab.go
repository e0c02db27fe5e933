// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vocab loads the DrugBank vocabulary release and projects it onto
// the two columns the lexicon matcher needs. Synonym columns are dropped;
// the book uses standard drug names.
// Implements: prd002-vocabulary (R1, R2); docs/ARCHITECTURE § Vocabulary.
package vocab

import (
	"archive/zip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/meshintel/vignette-annotator/pkg/types"
)

// row mirrors the vocabulary CSV columns of interest. The release carries
// more columns (CAS, UNII, synonyms); they are ignored.
type row struct {
	DrugBankID string `csv:"DrugBank ID"`
	CommonName string `csv:"Common name"`
}

// ParseCSV reads vocabulary entries from an open CSV stream. Rows with an
// empty identifier or name are skipped.
func ParseCSV(r io.Reader) ([]types.VocabEntry, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	header := dec.Header()
	for _, want := range []string{"DrugBank ID", "Common name"} {
		if !containsColumn(header, want) {
			return nil, fmt.Errorf("vocabulary CSV is missing column %q", want)
		}
	}

	var entries []types.VocabEntry
	for {
		var rec row
		if err := dec.Decode(&rec); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("decoding vocabulary row: %w", err)
		}
		if rec.DrugBankID == "" || rec.CommonName == "" {
			continue
		}
		entries = append(entries, types.VocabEntry{
			DrugBankID: rec.DrugBankID,
			CommonName: rec.CommonName,
		})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("vocabulary contains no usable rows")
	}
	return entries, nil
}

func containsColumn(header []string, want string) bool {
	for _, h := range header {
		if h == want {
			return true
		}
	}
	return false
}

// loadZip opens the first CSV member of a vocabulary release archive.
func loadZip(path string) ([]types.VocabEntry, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening vocabulary archive %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if !strings.EqualFold(filepath.Ext(f.Name), ".csv") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening archive member %s: %w", f.Name, err)
		}
		defer rc.Close()
		return ParseCSV(rc)
	}
	return nil, fmt.Errorf("no CSV member in vocabulary archive %s", path)
}

// Load reads the vocabulary from a release archive (.zip) or a plain CSV
// file, by extension.
func Load(path string) ([]types.VocabEntry, error) {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return loadZip(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening vocabulary %s: %w", path, err)
	}
	defer f.Close()
	return ParseCSV(f)
}
