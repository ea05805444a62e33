// ABOUTME: CLI command printing dataset statistics
// ABOUTME: Coloured summary by default, JSON with --json
package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/pedagogy/internal/core"
	"github.com/harper/pedagogy/internal/storage"
)

var statsJSON bool

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dataset statistics",
		Long: `Show counts and word totals for the stored dataset.

Positive-answer words are counted along every deepest preference path,
so shared ancestors count once per path.

Examples:
  pedagogy stats
  pedagogy stats --json`,
		RunE: runStats,
	}

	cmd.Flags().BoolVar(&statsJSON, "json", false, "Print statistics as JSON")

	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	ds, err := storage.OpenDataset(datasetPaths())
	if err != nil {
		return err
	}
	stats, err := core.ComputeStats(ds)
	if err != nil {
		return fmt.Errorf("computing statistics: %w", err)
	}

	if statsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	printStats(cmd.OutOrStdout(), stats)
	return nil
}

func printStats(w io.Writer, s core.Stats) {
	heading := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgHiBlack)
	value := color.New(color.FgGreen)

	row := func(name string, n int) {
		label.Fprintf(w, "  %-24s", name)
		value.Fprintf(w, "%d\n", n)
	}

	heading.Fprintln(w, "Dataset")
	row("documents", s.Documents)
	row("chunks", s.Chunks)
	row("dialogues", s.Dialogues)
	row("preference nodes", s.DPONodes)
	row("deepest paths", s.DeepestPaths)

	heading.Fprintln(w, "Words")
	row("in documents", s.DocumentWords)
	row("in tutor answers", s.AssistantWords)
	row("in chosen answers", s.PositiveWords)
}
