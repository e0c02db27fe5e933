// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tagger brings external recognizer output into the pipeline: it
// derives the producing model from output filenames, validates records, and
// drives the containerized statistical taggers.
// Implements: prd004-tagging (R1-R3); docs/ARCHITECTURE § Tagging.
package tagger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meshintel/vignette-annotator/pkg/types"
)

// Known model names, in no particular order. The consolidation priority
// order lives in ConsolidationConfig.
const (
	ModelDrugBank   = "drugbank"
	ModelBC5CDR     = "bc5cdr"
	ModelBioNLP13CG = "bionlp13cg"
)

// ModelFromFilename derives the producing model from an output filename.
// Lexicon matcher files are named medication_bner_*; statistical tagger
// files carry the model name in the filename.
func ModelFromFilename(path string) (string, error) {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasPrefix(base, "medication_bner_"):
		return ModelDrugBank, nil
	case strings.Contains(base, ModelBC5CDR):
		return ModelBC5CDR, nil
	case strings.Contains(base, ModelBioNLP13CG):
		return ModelBioNLP13CG, nil
	}
	return "", fmt.Errorf("cannot derive model from filename %q", filepath.Base(path))
}

// validate checks one output record for internal consistency. Character
// limits must form non-empty in-range spans; parse arrays, when present,
// are checked later against the canonical tokenization.
func validate(out *types.ModelOutput) error {
	check := func(text string, matches []types.RawEntityMatch, field string) error {
		for i, m := range matches {
			if m.CharLimits[0] < 0 || m.CharLimits[1] > len(text) || m.CharLimits[0] >= m.CharLimits[1] {
				return fmt.Errorf("%s[%d] %q has invalid char_limits %v",
					field, i, m.Entity, m.CharLimits)
			}
		}
		return nil
	}
	if err := check(out.Question, out.BnerQuestion, "bner_question"); err != nil {
		return err
	}
	return check(out.Answer, out.BnerAnswer, "bner_answer")
}

// LoadFile reads one model output file, stamps the derived model name onto
// every match, and validates each record. A record that fails validation
// fails the whole file; silent repair would desynchronize the models.
func LoadFile(path string) (string, []types.ModelOutput, error) {
	model, err := ModelFromFilename(path)
	if err != nil {
		return "", nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading model output: %w", err)
	}

	var outputs []types.ModelOutput
	if err := json.Unmarshal(data, &outputs); err != nil {
		return "", nil, fmt.Errorf("parsing model output %s: %w", path, err)
	}

	for i := range outputs {
		if err := validate(&outputs[i]); err != nil {
			return "", nil, fmt.Errorf("%s: book_page %d: %w", path, outputs[i].BookPage, err)
		}
		for j := range outputs[i].BnerQuestion {
			outputs[i].BnerQuestion[j].Model = model
		}
		for j := range outputs[i].BnerAnswer {
			outputs[i].BnerAnswer[j].Model = model
		}
	}
	return model, outputs, nil
}

// LoadByModel loads several output files and groups the records by derived
// model. Two files mapping to the same model merge; a page appearing twice
// for one model is an error.
func LoadByModel(paths []string) (map[string][]types.ModelOutput, error) {
	byModel := make(map[string][]types.ModelOutput)
	seen := make(map[string]map[int]bool)

	for _, path := range paths {
		model, outputs, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if seen[model] == nil {
			seen[model] = make(map[int]bool)
		}
		for _, out := range outputs {
			if seen[model][out.BookPage] {
				return nil, fmt.Errorf("%s: duplicate page %d for model %q", path, out.BookPage, model)
			}
			seen[model][out.BookPage] = true
		}
		byModel[model] = append(byModel[model], outputs...)
	}
	return byModel, nil
}
