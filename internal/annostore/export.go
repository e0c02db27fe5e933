// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annostore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/vignette-annotator/pkg/types"
)

// exportDocs loads every stored document in page order.
func (s *Store) exportDocs(ctx context.Context) ([]types.AnnotatedVignette, error) {
	pages, err := s.Pages(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]types.AnnotatedVignette, 0, len(pages))
	for _, page := range pages {
		doc, err := s.Get(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("exporting page %d: %w", page, err)
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// ExportYAML writes every stored document to path as YAML, in page order.
func (s *Store) ExportYAML(ctx context.Context, path string) error {
	docs, err := s.exportDocs(ctx)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes every stored document to path as JSON, in page order.
func (s *Store) ExportJSON(ctx context.Context, path string) error {
	docs, err := s.exportDocs(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
