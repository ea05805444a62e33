// ABOUTME: CLI command running the whole pipeline end to end
// ABOUTME: extract -> dialogues -> dpo, then prints dataset statistics
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harper/pedagogy/internal/core"
	"github.com/harper/pedagogy/internal/models"
)

var (
	runPDFDir  string
	runPrompts string
	runRules   string
)

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run extraction, dialogue and preference generation in sequence",
		Long: `Run the whole pipeline: extract PDFs, write dialogues, grow preference
trees, then print dataset statistics.

Each stage resumes from what is already stored, so running the same
command again only does the remaining work.

Examples:
  pedagogy run --pdf-dir ./papers --rules rules.txt
  pedagogy run --pdf-dir ./papers --rules rules.txt --max-dialogues 10 --seed 7`,
		RunE: runPipeline,
	}

	cmd.Flags().StringVar(&runPDFDir, "pdf-dir", "", "Directory to scan for PDF files")
	cmd.Flags().StringVar(&runRules, "rules", "", "Pedagogical rule list")
	cmd.Flags().StringVar(&runPrompts, "prompts", "", "Directory with prompt templates (default built-in)")
	cmd.Flags().Int("max-dialogues", 0, "Stop after writing this many new dialogues (0 = no limit)")
	cmd.Flags().Int64("seed", 0, "Random seed for rule sampling (0 = time based)")
	cmd.Flags().String("negative-policy", "", "Rejected answers: original or adversarial")
	_ = cmd.MarkFlagRequired("pdf-dir")
	_ = cmd.MarkFlagRequired("rules")

	return cmd
}

func runPipeline(cmd *cobra.Command, args []string) (err error) {
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

	rules, err := models.LoadRules(runRules)
	if err != nil {
		return err
	}
	oracle, err := rt.newOracle(runPrompts)
	if err != nil {
		return err
	}
	ds, err := rt.openDataset()
	if err != nil {
		return err
	}

	extracted, err := extractStage(ctx, rt, ds, runPDFDir, cmd)
	if err != nil {
		return err
	}
	written, err := dialogueStage(ctx, rt, oracle, ds, cmd)
	if err != nil {
		return err
	}
	grown, err := dpoStage(ctx, rt, oracle, rules, ds, cmd)
	if err != nil {
		return err
	}
	rt.logger.Info("pipeline finished",
		zap.Int("documents_written", extracted.Written),
		zap.Int("dialogues_written", written.Written),
		zap.Int("dpo_nodes_written", grown.Written))

	stats, err := core.ComputeStats(ds)
	if err != nil {
		return fmt.Errorf("computing statistics: %w", err)
	}
	if !quiet {
		printStats(cmd.OutOrStdout(), stats)
	}
	return nil
}
