// ABOUTME: Extractor turns a directory of PDFs into stored Documents
// ABOUTME: Ids follow sorted file position; a reused id for another file stops the run
package core

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/harper/pedagogy/internal/ids"
	"github.com/harper/pedagogy/internal/logging"
	"github.com/harper/pedagogy/internal/metrics"
	"github.com/harper/pedagogy/internal/models"
	"github.com/harper/pedagogy/internal/storage"
)

// ExtractorOptions configures an Extractor
type ExtractorOptions struct {
	MinWords int
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Progress func(done, total int)
}

// ExtractReport summarises one extraction run
type ExtractReport struct {
	Files    int
	Written  int
	Skipped  int
	Rejected int
}

// Extractor owns the document store during extraction
type Extractor struct {
	source  TextSource
	chunker *Chunker
	docs    *storage.Collection[models.Document]
	opts    ExtractorOptions
	logger  *zap.Logger
}

// NewExtractor creates an Extractor
func NewExtractor(source TextSource, chunker *Chunker, docs *storage.Collection[models.Document], opts ExtractorOptions) *Extractor {
	return &Extractor{
		source:  source,
		chunker: chunker,
		docs:    docs,
		opts:    opts,
		logger:  logging.OrNop(opts.Logger),
	}
}

type pdfFile struct {
	id   string
	path string
	name string
}

// Run extracts every PDF under dir. The n-th file in sorted order gets id
// dc<n>. All ids are checked against the store before anything is written.
func (e *Extractor) Run(ctx context.Context, dir string) (ExtractReport, error) {
	files, err := findPDFs(dir)
	if err != nil {
		return ExtractReport{}, err
	}
	report := ExtractReport{Files: len(files)}

	var pending []pdfFile
	for _, f := range files {
		existing, err := e.docs.Get(f.id)
		if err != nil {
			pending = append(pending, f)
			continue
		}
		if existing.FileName != f.name {
			return report, &DuplicateIDError{ID: f.id, Recorded: existing.FileName, Incoming: f.name}
		}
		e.logger.Debug("document already processed", zap.String("id", f.id), zap.String("file", f.name))
		report.Skipped++
	}

	for i, f := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		written, err := e.extract(f)
		if err != nil {
			return report, err
		}
		if written {
			report.Written++
		} else {
			report.Rejected++
		}
		if e.opts.Progress != nil {
			e.opts.Progress(i+1, len(pending))
		}
	}

	e.logger.Info("extraction finished",
		zap.Int("files", report.Files),
		zap.Int("written", report.Written),
		zap.Int("skipped", report.Skipped),
		zap.Int("rejected", report.Rejected))
	return report, nil
}

// extract returns false when the file yields no usable document. Only
// store failures are returned as errors.
func (e *Extractor) extract(f pdfFile) (bool, error) {
	log := e.logger.With(zap.String("id", f.id), zap.String("file", f.name))

	text, err := e.source.Text(f.path)
	if err != nil {
		log.Warn("text extraction failed", zap.Error(err))
		e.opts.Metrics.DocumentRejected()
		return false, nil
	}

	pieces := e.chunker.Split(text)
	words := 0
	for _, p := range pieces {
		words += len(strings.Fields(p))
	}
	if len(pieces) == 0 || words < e.opts.MinWords {
		log.Warn("text is probably corrupted or not useful", zap.Int("chunks", len(pieces)), zap.Int("words", words))
		e.opts.Metrics.DocumentRejected()
		return false, nil
	}

	chunks := make([]models.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = models.Chunk{ID: ids.ChunkID(f.id, i), Text: p}
	}
	doc, err := models.NewDocument(f.id, f.name, chunks)
	if err != nil {
		return false, err
	}
	if err := e.docs.Save(doc); err != nil {
		return false, fmt.Errorf("saving document %s: %w", f.id, err)
	}

	log.Info("document written", zap.Int("chunks", len(chunks)), zap.Int("words", words))
	e.opts.Metrics.DocumentWritten()
	return true, nil
}

func findPDFs(dir string) ([]pdfFile, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(paths)

	files := make([]pdfFile, len(paths))
	for i, p := range paths {
		files[i] = pdfFile{id: ids.DocumentID(i + 1), path: p, name: filepath.Base(p)}
	}
	return files, nil
}
