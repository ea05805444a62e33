// ABOUTME: Tests for PDF directory extraction into the document store
// ABOUTME: Uses a scripted text source so no real PDF parsing is involved

package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/harper/pedagogy/internal/metrics"
	"github.com/harper/pedagogy/internal/models"
	"github.com/harper/pedagogy/internal/storage"
)

const usableText = "The derivative measures change. Integrals accumulate area under curves."

type fakeSource struct {
	texts map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeSource) Text(path string) (string, error) {
	name := filepath.Base(path)
	f.calls = append(f.calls, name)
	if err := f.errs[name]; err != nil {
		return "", err
	}
	return f.texts[name], nil
}

// pdfDir creates a.pdf, b.pdf, c.PDF, sub/d.pdf and notes.txt
func pdfDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	for _, name := range []string{"a.pdf", "b.pdf", "c.PDF", filepath.Join("sub", "d.pdf"), "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	return dir
}

func newSource() *fakeSource {
	return &fakeSource{texts: map[string]string{
		"a.pdf":     usableText,
		"b.pdf":     "!!! ???",
		"c.PDF":     usableText,
		"d.pdf":     usableText,
		"notes.txt": usableText,
	}}
}

func testChunker() *Chunker {
	return NewChunker(ChunkerOptions{MinChunkChars: 10, MaxChunkChars: 200, MinAlnumRatio: 0.5})
}

func TestExtractorRun(t *testing.T) {
	dir := pdfDir(t)
	storePath := filepath.Join(t.TempDir(), storage.DocumentsFile)
	docs, err := storage.Load[models.Document](storePath)
	require.NoError(t, err)

	m := metrics.New()
	var progress []int
	ex := NewExtractor(newSource(), testChunker(), docs, ExtractorOptions{
		MinWords: 5,
		Metrics:  m,
		Progress: func(done, total int) { progress = append(progress, done) },
	})

	report, err := ex.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, ExtractReport{Files: 4, Written: 3, Rejected: 1}, report)
	assert.Equal(t, []int{1, 2, 3, 4}, progress)

	reloaded, err := storage.Load[models.Document](storePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"dc1", "dc3", "dc4"}, reloaded.IDs())

	doc, err := reloaded.Get("dc1")
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", doc.FileName)
	require.NotEmpty(t, doc.Chunks)
	assert.Equal(t, "dc1_ch0", doc.Chunks[0].ID)

	doc, err = reloaded.Get("dc4")
	require.NoError(t, err)
	assert.Equal(t, "d.pdf", doc.FileName)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.DocumentsWritten))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentsRejected))
}

func TestExtractorSkipsProcessedFiles(t *testing.T) {
	dir := pdfDir(t)
	storePath := filepath.Join(t.TempDir(), storage.DocumentsFile)

	docs, err := storage.Load[models.Document](storePath)
	require.NoError(t, err)
	_, err = NewExtractor(newSource(), testChunker(), docs, ExtractorOptions{MinWords: 5}).Run(context.Background(), dir)
	require.NoError(t, err)
	before, err := os.ReadFile(storePath)
	require.NoError(t, err)

	docs, err = storage.Load[models.Document](storePath)
	require.NoError(t, err)
	source := newSource()
	report, err := NewExtractor(source, testChunker(), docs, ExtractorOptions{MinWords: 5}).Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, ExtractReport{Files: 4, Skipped: 3, Rejected: 1}, report)
	assert.Equal(t, []string{"b.pdf"}, source.calls)
	after, err := os.ReadFile(storePath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestExtractorIDConflictLeavesStoreUntouched(t *testing.T) {
	dir := pdfDir(t)
	storePath := filepath.Join(t.TempDir(), storage.DocumentsFile)
	docs, err := storage.Load[models.Document](storePath)
	require.NoError(t, err)
	require.NoError(t, docs.Save(models.Document{
		ID:       "dc2",
		FileName: "other.pdf",
		Chunks:   []models.Chunk{{ID: "dc2_ch0", Text: "recorded earlier"}},
	}))
	before, err := os.ReadFile(storePath)
	require.NoError(t, err)

	source := newSource()
	_, err = NewExtractor(source, testChunker(), docs, ExtractorOptions{MinWords: 5}).Run(context.Background(), dir)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateID))
	var dup *DuplicateIDError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "dc2", dup.ID)
	assert.Equal(t, "other.pdf", dup.Recorded)
	assert.Equal(t, "b.pdf", dup.Incoming)

	assert.Empty(t, source.calls)
	after, err := os.ReadFile(storePath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestExtractorSourceFailureRejectsFile(t *testing.T) {
	dir := pdfDir(t)
	docs, err := storage.Load[models.Document](filepath.Join(t.TempDir(), storage.DocumentsFile))
	require.NoError(t, err)

	source := newSource()
	source.errs = map[string]error{"a.pdf": errors.New("encrypted")}
	observed, logs := observer.New(zap.WarnLevel)

	report, err := NewExtractor(source, testChunker(), docs, ExtractorOptions{
		MinWords: 5,
		Logger:   zap.New(observed),
	}).Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Written)
	assert.Equal(t, 2, report.Rejected)
	assert.False(t, docs.Contains("dc1"))
	assert.Equal(t, 1, logs.FilterMessage("text extraction failed").Len())
}

func TestExtractorMinWords(t *testing.T) {
	dir := pdfDir(t)
	docs, err := storage.Load[models.Document](filepath.Join(t.TempDir(), storage.DocumentsFile))
	require.NoError(t, err)

	report, err := NewExtractor(newSource(), testChunker(), docs, ExtractorOptions{MinWords: 200}).Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Written)
	assert.Equal(t, 4, report.Rejected)
	assert.Equal(t, 0, docs.Len())
}

func TestExtractorCancelled(t *testing.T) {
	dir := pdfDir(t)
	docs, err := storage.Load[models.Document](filepath.Join(t.TempDir(), storage.DocumentsFile))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewExtractor(newSource(), testChunker(), docs, ExtractorOptions{}).Run(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, docs.Len())
}

func TestExtractorMissingDirectory(t *testing.T) {
	docs, err := storage.Load[models.Document](filepath.Join(t.TempDir(), storage.DocumentsFile))
	require.NoError(t, err)

	_, err = NewExtractor(newSource(), testChunker(), docs, ExtractorOptions{}).Run(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
