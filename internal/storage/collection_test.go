// ABOUTME: Tests for the JSONL appender and generic Collection loader
// ABOUTME: Verifies missing files, line errors, duplicate handling and saves

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/pedagogy/internal/models"
)

func writeLines(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	c, err := Load[models.Dialogue](filepath.Join(t.TempDir(), "nope.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Contains("dc1_ch[0]"))
}

func TestLoadIndexesRecords(t *testing.T) {
	path := writeLines(t,
		`{"id":"dc1_ch[0]","turns":[{"user":"a","assistant":"b"}]}`,
		``,
		`{"id":"dc1_ch[1_2]","turns":[]}`,
	)

	c, err := Load[models.Dialogue](path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Contains("dc1_ch[1_2]"))
	assert.Equal(t, []string{"dc1_ch[0]", "dc1_ch[1_2]"}, c.IDs())

	d, err := c.Get("dc1_ch[0]")
	require.NoError(t, err)
	assert.Equal(t, "b", d.Turns[0].Assistant)

	_, err = c.Get("dc9_ch[0]")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLoadLastDuplicateWins(t *testing.T) {
	path := writeLines(t,
		`{"id":"dc1_ch0","text":"first"}`,
		`{"id":"dc1_ch0","text":"second"}`,
	)

	c, err := Load[models.Chunk](path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"dc1_ch0"}, c.IDs())

	chunk, err := c.Get("dc1_ch0")
	require.NoError(t, err)
	assert.Equal(t, "second", chunk.Text)
}

func TestLoadReportsLineNumber(t *testing.T) {
	path := writeLines(t,
		`{"id":"dc1_ch0","text":"ok"}`,
		`{"id":"dc1_ch1"`,
	)

	_, err := Load[models.Chunk](path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadHandlesLongLines(t *testing.T) {
	long := strings.Repeat("word ", 400000)
	path := writeLines(t, `{"id":"dc1_ch0","text":"`+long+`"}`)

	c, err := Load[models.Chunk](path)
	require.NoError(t, err)
	chunk, err := c.Get("dc1_ch0")
	require.NoError(t, err)
	assert.Len(t, chunk.Text, len(long))
}

func TestLoadWithoutTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"dc1_ch0","text":"x"}`), 0644))

	c, err := Load[models.Chunk](path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestSaveAppendsAndIndexes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "docs.jsonl")
	c, err := Load[models.Document](path)
	require.NoError(t, err)

	doc, err := models.NewDocument("dc1", "a.pdf", []models.Chunk{{ID: "dc1_ch0", Text: "<b>bold</b> & more"}})
	require.NoError(t, err)
	require.NoError(t, c.Save(doc))
	assert.True(t, c.Contains("dc1"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<b>bold</b> & more")
	assert.True(t, strings.HasSuffix(string(raw), "\n"))

	reloaded, err := Load[models.Document](path)
	require.NoError(t, err)
	got, err := reloaded.Get("dc1")
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestJSONLFileAppendOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	f := NewJSONLFile(path)

	require.NoError(t, f.Append(models.Chunk{ID: "dc1_ch0", Text: "a"}))
	require.NoError(t, f.Append(models.Chunk{ID: "dc1_ch0", Text: "a"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(raw), "\n"), "store must not deduplicate")
}

func TestOpenDataset(t *testing.T) {
	dir := t.TempDir()
	paths := PathsIn(dir)
	require.NoError(t, os.WriteFile(paths.Dialogues, []byte(`{"id":"dc1_ch[0]","turns":[]}`+"\n"), 0644))

	ds, err := OpenDataset(paths)
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Documents.Len())
	assert.Equal(t, 1, ds.Dialogues.Len())
	assert.Equal(t, 0, ds.DPO.Len())
	assert.Equal(t, filepath.Join(dir, DPOFile), ds.DPO.Path())
}
