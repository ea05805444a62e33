// ABOUTME: CLI command to grow preference trees over stored dialogues
// ABOUTME: Scores pedagogical rules per turn and stores every rewritten node
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/pedagogy/internal/core"
	"github.com/harper/pedagogy/internal/models"
	"github.com/harper/pedagogy/internal/storage"
)

var (
	dpoPrompts string
	dpoRules   string
)

// NewDPOCmd creates the dpo command
func NewDPOCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dpo",
		Short: "Generate rule-driven preference trees from dialogues",
		Long: `Generate preference trees from dialogues.jsonl.

For every dialogue turn each pedagogical rule is scored; the best
scoring rules (at most generation.branching of them) rewrite the turn
into a chosen answer, and the original answer becomes the rejected one.
Generation then continues below one of the new nodes. Rules used in the
last generation.recency_window turns are not considered.

The rules file has one rule per line: "<index> <text>".

Examples:
  pedagogy dpo --rules rules.txt
  pedagogy dpo --rules rules.txt --seed 42 --negative-policy adversarial`,
		RunE: runDPO,
	}

	cmd.Flags().StringVar(&dpoRules, "rules", "", "Pedagogical rule list")
	cmd.Flags().StringVar(&dpoPrompts, "prompts", "", "Directory with prompt templates (default built-in)")
	cmd.Flags().Int64("seed", 0, "Random seed for rule sampling (0 = time based)")
	cmd.Flags().String("negative-policy", "", "Rejected answers: original or adversarial")
	_ = cmd.MarkFlagRequired("rules")

	return cmd
}

func runDPO(cmd *cobra.Command, args []string) (err error) {
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

	rules, err := models.LoadRules(dpoRules)
	if err != nil {
		return err
	}
	oracle, err := rt.newOracle(dpoPrompts)
	if err != nil {
		return err
	}
	ds, err := rt.openDataset()
	if err != nil {
		return err
	}

	report, err := dpoStage(ctx, rt, oracle, rules, ds, cmd)
	if err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d preference nodes (%d already present, %d dialogues abandoned)\n",
			report.Written, report.Skipped, report.Abandoned)
	}
	return nil
}

func dpoStage(ctx context.Context, rt *runtime, oracle core.Oracle, rules *models.Rules, ds *storage.Dataset, cmd *cobra.Command) (core.DPOReport, error) {
	gen, err := rt.dpoGenerator(oracle, rules, ds, progressFunc(cmd.ErrOrStderr(), "preference trees"))
	if err != nil {
		return core.DPOReport{}, err
	}
	report, err := gen.GenerateAll(ctx)
	if err != nil {
		return report, fmt.Errorf("preference generation failed: %w", err)
	}
	return report, nil
}
