// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meshintel/vignette-annotator/internal/container"
	"github.com/meshintel/vignette-annotator/internal/tagger"
	"github.com/meshintel/vignette-annotator/pkg/types"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Run or validate the statistical tagger outputs",
	Long: `Tag handles the statistical recognizers. "tag run" pipes the extracted
vignettes through a containerized tagger image (docker or podman) and writes
the model output file. "tag check" validates tagger output files produced
elsewhere, stamping each record with the model derived from the filename.`,
}

var tagRunCmd = &cobra.Command{
	Use:   "run <image>",
	Short: "Run a containerized tagger over extracted vignettes",
	Args:  cobra.ExactArgs(1),
	RunE:  runTagRun,
}

var tagCheckCmd = &cobra.Command{
	Use:   "check <output.json> [more.json ...]",
	Short: "Validate tagger output files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTagCheck,
}

func runTagRun(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	model, _ := cmd.Flags().GetString("model")

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if model == "" {
		m, err := tagger.ModelFromFilename(output)
		if err != nil {
			return fmt.Errorf("cannot derive model from --output, pass --model: %w", err)
		}
		model = m
	}

	rt, err := container.DetectRuntime()
	if err != nil {
		return err
	}
	logger.Info("container runtime detected", zap.String("runtime", rt.Name()))

	runner, err := tagger.NewRunner(rt, args[0], model)
	if err != nil {
		return err
	}

	var vignettes []types.Vignette
	if err := readJSONFile(input, &vignettes); err != nil {
		return err
	}

	outputs, err := runner.Tag(vignettes)
	if err != nil {
		return err
	}
	if err := writeJSONFile(output, outputs); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "tagged %d vignette(s) with model %s\n", len(outputs), model)
	return nil
}

func runTagCheck(cmd *cobra.Command, args []string) error {
	byModel, err := tagger.LoadByModel(args)
	if err != nil {
		return err
	}
	for model, outputs := range byModel {
		fmt.Fprintf(os.Stdout, "%s: %d record(s) ok\n", model, len(outputs))
	}
	return nil
}

func init() {
	tagRunCmd.Flags().String("input", "data/outputs/vignettes.json", "extracted vignettes file")
	tagRunCmd.Flags().String("output", "data/outputs/bc5cdr_vignettes.json", "output file for tagger records")
	tagRunCmd.Flags().String("model", "", "model name for the image (derived from --output when empty)")

	tagCmd.AddCommand(tagRunCmd)
	tagCmd.AddCommand(tagCheckCmd)
	rootCmd.AddCommand(tagCmd)
}
