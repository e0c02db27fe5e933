//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// runCLI invokes the built pipeline binary with the given arguments.
func runCLI(args ...string) error {
	bin := filepath.Join(binDir, binName)
	if _, err := os.Stat(bin); err != nil {
		return fmt.Errorf("%s not built, run mage build first", bin)
	}
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Vocab preprocesses the DrugBank open vocabulary into data/outputs/.
func Vocab() error {
	return runCLI("vocab", "data/inputs/drugbank_vocabulary.zip")
}

// Match runs the lexicon matcher over the extracted vignettes.
func Match() error {
	return runCLI("match")
}

// Consolidate merges the recognizer output files in data/outputs/.
func Consolidate() error {
	outputs, err := filepath.Glob("data/outputs/*_vignettes.json")
	if err != nil {
		return err
	}
	if len(outputs) == 0 {
		return fmt.Errorf("no recognizer output files in data/outputs/")
	}
	return runCLI(append([]string{"consolidate"}, outputs...)...)
}

// Context classifies clinical context and links medications to conditions.
func Context() error {
	return runCLI("context")
}

// Interactions looks up drug-drug interactions for the classified documents.
func Interactions() error {
	return runCLI("interactions")
}

// Report renders HTML reports for the annotated documents.
func Report() error {
	return runCLI("report")
}

// Ingest loads the annotated documents into the annotation store.
func Ingest() error {
	return runCLI("store", "ingest", "data/outputs/annotated.json")
}
