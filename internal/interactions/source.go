// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package interactions looks up pairwise drug-drug interactions for the
// medications annotated in each vignette and appends them to the document.
// Implements: prd007-interactions (R1-R4); docs/ARCHITECTURE § Interactions.
package interactions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/meshintel/vignette-annotator/pkg/types"
)

// Source answers interaction lookups for one pair of DrugBank ids. An empty
// result with a nil error means the pair is known not to interact; a non-nil
// error means the question is unanswered and the pair must be reported as
// unresolved, never as interaction-free.
type Source interface {
	Lookup(ctx context.Context, id1, id2 string) ([]types.DrugInteraction, error)
}

// FileSource serves lookups from a JSON fixture, keyed "ID1|ID2". It backs
// offline runs and tests; pair order does not matter.
type FileSource struct {
	pairs map[string][]types.DrugInteraction
}

// NewFileSource loads a fixture file mapping "DBxxxx|DByyyy" keys to
// interaction lists.
func NewFileSource(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading interaction fixture: %w", err)
	}
	var pairs map[string][]types.DrugInteraction
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("parsing interaction fixture %s: %w", path, err)
	}
	return &FileSource{pairs: pairs}, nil
}

// Lookup returns the fixture entry for the pair in either order.
func (s *FileSource) Lookup(_ context.Context, id1, id2 string) ([]types.DrugInteraction, error) {
	if hits, ok := s.pairs[id1+"|"+id2]; ok {
		return hits, nil
	}
	return s.pairs[id2+"|"+id1], nil
}
