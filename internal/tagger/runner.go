// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tagger

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/meshintel/vignette-annotator/internal/container"
	"github.com/meshintel/vignette-annotator/pkg/types"
)

// Runner drives one containerized tagger image. The container reads the
// vignette list as JSON on stdin and writes its model output list as JSON
// on stdout.
type Runner struct {
	runtime container.Runtime
	image   string
	model   string
}

// NewRunner verifies the tagger image exists in the detected runtime.
func NewRunner(rt container.Runtime, image, model string) (*Runner, error) {
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("tagger image not available in %s: %w", rt.Name(), err)
	}
	return &Runner{runtime: rt, image: image, model: model}, nil
}

// Model returns the model name the runner's image implements.
func (r *Runner) Model() string { return r.model }

// Tag pipes the vignettes through the tagger container and returns the
// validated, model-stamped output records.
func (r *Runner) Tag(vignettes []types.Vignette) ([]types.ModelOutput, error) {
	stdin, err := json.Marshal(vignettes)
	if err != nil {
		return nil, fmt.Errorf("encoding vignettes: %w", err)
	}

	var stdout bytes.Buffer
	opts := container.RunOptions{Env: map[string]string{"MODEL": r.model}}
	if err := r.runtime.Run(r.image, opts, bytes.NewReader(stdin), &stdout); err != nil {
		return nil, fmt.Errorf("running tagger %s: %w", r.image, err)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("tagger %s produced no output", r.image)
	}

	var outputs []types.ModelOutput
	if err := json.Unmarshal(stdout.Bytes(), &outputs); err != nil {
		return nil, fmt.Errorf("parsing tagger %s output: %w", r.image, err)
	}

	for i := range outputs {
		if err := validate(&outputs[i]); err != nil {
			return nil, fmt.Errorf("tagger %s: book_page %d: %w", r.image, outputs[i].BookPage, err)
		}
		for j := range outputs[i].BnerQuestion {
			outputs[i].BnerQuestion[j].Model = r.model
		}
		for j := range outputs[i].BnerAnswer {
			outputs[i].BnerAnswer[j].Model = r.model
		}
	}
	return outputs, nil
}
