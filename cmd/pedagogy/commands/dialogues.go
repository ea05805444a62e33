// ABOUTME: CLI command to generate tutoring dialogues from extracted documents
// ABOUTME: One dialogue per overlapping source window, resumable across runs
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/pedagogy/internal/core"
	"github.com/harper/pedagogy/internal/storage"
)

var dialoguesPrompts string

// NewDialoguesCmd creates the dialogues command
func NewDialoguesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dialogues",
		Short: "Generate student/tutor dialogues from documents",
		Long: `Generate student/tutor dialogues from documents.jsonl.

Chunks of each document are grouped into windows of about
generation.window_chars characters with a generation.overlap_chars
margin on each side. The language model writes one conversation per
window. Windows that already have a dialogue are skipped.

Examples:
  pedagogy dialogues
  pedagogy dialogues --max-dialogues 20 --prompts ./prompts`,
		RunE: runDialogues,
	}

	cmd.Flags().StringVar(&dialoguesPrompts, "prompts", "", "Directory with prompt templates (default built-in)")
	cmd.Flags().Int("max-dialogues", 0, "Stop after writing this many new dialogues (0 = no limit)")

	return cmd
}

func runDialogues(cmd *cobra.Command, args []string) (err error) {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.finish(&err)
	if err := applyGenerationFlags(cmd, rt.cfg); err != nil {
		return err
	}
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	oracle, err := rt.newOracle(dialoguesPrompts)
	if err != nil {
		return err
	}
	ds, err := rt.openDataset()
	if err != nil {
		return err
	}

	report, err := dialogueStage(ctx, rt, oracle, ds, cmd)
	if err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d dialogues (%d already present, %d documents abandoned)\n",
			report.Written, report.Skipped, report.Abandoned)
	}
	return nil
}

func dialogueStage(ctx context.Context, rt *runtime, writer core.DialogueWriter, ds *storage.Dataset, cmd *cobra.Command) (core.DialogueReport, error) {
	gen := rt.dialogueGenerator(writer, ds, progressFunc(cmd.ErrOrStderr(), "dialogues"))
	report, err := gen.GenerateAll(ctx)
	if err != nil {
		return report, fmt.Errorf("dialogue generation failed: %w", err)
	}
	return report, nil
}
