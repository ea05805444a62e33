// ABOUTME: CLI command to extract PDFs into the document store
// ABOUTME: Assigns dc<n> ids by sorted file position and skips files already extracted
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/pedagogy/internal/core"
	"github.com/harper/pedagogy/internal/storage"
)

var extractPDFDir string

// NewExtractCmd creates the extract command
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract PDFs into cleaned, chunked documents",
		Long: `Extract every PDF under a directory into documents.jsonl.

Text is accent-folded, cut at the references section, split into
sentences and merged into chunks. Documents with too few words are
skipped. The n-th PDF in sorted path order always gets id dc<n>; a run
that would reuse an id for a different file stops before writing.

Ids are positions, so files added later must sort after every PDF
already extracted. A new name that sorts earlier shifts the ids of the
files behind it and the run stops with a duplicate id error; put such
files in a new directory or rename them with a later-sorting prefix.

Examples:
  pedagogy extract --pdf-dir ./papers
  pedagogy extract --pdf-dir ./papers --documents out/docs.jsonl`,
		RunE: runExtract,
	}

	cmd.Flags().StringVar(&extractPDFDir, "pdf-dir", "", "Directory to scan for PDF files")
	_ = cmd.MarkFlagRequired("pdf-dir")

	return cmd
}

func runExtract(cmd *cobra.Command, args []string) (err error) {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.finish(&err)
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	ds, err := rt.openDataset()
	if err != nil {
		return err
	}
	report, err := extractStage(ctx, rt, ds, extractPDFDir, cmd)
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d of %d PDFs (%d already present, %d rejected)\n",
			report.Written, report.Files, report.Skipped, report.Rejected)
	}
	return nil
}

func extractStage(ctx context.Context, rt *runtime, ds *storage.Dataset, pdfDir string, cmd *cobra.Command) (core.ExtractReport, error) {
	ex := rt.extractor(ds.Documents, progressFunc(cmd.ErrOrStderr(), "extracting"))
	report, err := ex.Run(ctx, pdfDir)
	if err != nil {
		return report, fmt.Errorf("extraction failed: %w", err)
	}
	return report, nil
}
