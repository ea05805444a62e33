// ABOUTME: Root command and global flags for the pedagogy CLI
// ABOUTME: Wires every pipeline stage as a cobra subcommand
package commands

import (
	"github.com/spf13/cobra"
)

var (
	configPath    string
	dataDir       string
	documentsPath string
	dialoguesPath string
	dpoPath       string
	verbose       bool
	quiet         bool
	logFormat     string
	logFile       string
	metricsFile   string
)

const banner = `
█▀█ █▀▀ █▀▄ ▄▀█ █▀▀ █▀█ █▀▀ █▄█
█▀▀ ██▄ █▄▀ █▀█ █▄█ █▄█ █▄█  █
`

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pedagogy",
		Short: "Build pedagogical preference datasets from PDFs",
		Long: banner + `
Pedagogy turns a directory of PDF course material into a DPO dataset
for tutoring models.

  extract    PDFs -> documents.jsonl (cleaned, sentence-aligned chunks)
  dialogues  documents -> dialogues.jsonl (student/tutor conversations)
  dpo        dialogues -> dpo_dialogues.jsonl (rule-driven preference trees)
  export     preference trees -> prompt/chosen/rejected records

Every stage appends to JSON Lines files and skips work already recorded,
so an interrupted run can simply be started again.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "YAML configuration file")
	flags.StringVar(&dataDir, "data-dir", "data", "Directory holding the dataset files")
	flags.StringVar(&documentsPath, "documents", "", "Documents file (default <data-dir>/documents.jsonl)")
	flags.StringVar(&dialoguesPath, "dialogues", "", "Dialogues file (default <data-dir>/dialogues.jsonl)")
	flags.StringVar(&dpoPath, "dpo", "", "Preference node file (default <data-dir>/dpo_dialogues.jsonl)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Only log errors and hide progress bars")
	flags.StringVar(&logFormat, "log-format", "", "Log format: console or json")
	flags.StringVar(&logFile, "log-file", "", "Also write JSON logs to this rotating file")
	flags.StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when done")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewDialoguesCmd())
	cmd.AddCommand(NewDPOCmd())
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
