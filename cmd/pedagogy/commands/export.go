// ABOUTME: CLI command exporting preference nodes as training records
// ABOUTME: Writes prompt/chosen/rejected JSONL using the Llama 3.1 chat template
package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/harper/pedagogy/internal/core"
	"github.com/harper/pedagogy/internal/storage"
)

var exportOut string

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export preference nodes as prompt/chosen/rejected records",
		Long: `Export every stored preference node as one DPO training record.

The prompt holds the node's ancestors as chat history followed by the
student question; chosen and rejected are the node's two answers. The
output file is replaced. A node whose ancestors are missing fails the
export.

Examples:
  pedagogy export --out dpo_train.jsonl`,
		RunE: runExport,
	}

	cmd.Flags().StringVar(&exportOut, "out", "", "Output JSONL file")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	dpo, err := storage.LoadDPO(datasetPaths().DPO)
	if err != nil {
		return err
	}
	if err := os.Remove(exportOut); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("replacing %s: %w", exportOut, err)
	}

	n, err := core.ExportPreferences(ctx, dpo, storage.NewJSONLFile(exportOut))
	if err != nil {
		return fmt.Errorf("export failed after %d records: %w", n, err)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d preference records to %s\n", n, exportOut)
	}
	return nil
}
