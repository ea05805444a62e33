// ABOUTME: Tests for the PDF text source failure paths
// ABOUTME: Unreadable inputs must surface as errors, never panics

package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFSourceMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.pdf")

	_, err := PDFSource{}.Text(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.pdf")
}

func TestPDFSourceNotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("plain text pretending to be a pdf"), 0o644))

	text, err := PDFSource{}.Text(path)
	require.Error(t, err)
	assert.Empty(t, text)
}
