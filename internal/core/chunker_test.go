// ABOUTME: Tests for the text cleanup and chunking pipeline
// ABOUTME: Covers accent folding, reference stripping, sentence guards, merging and polishing

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldAccents(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"accents", "Café naïve résumé", "Cafe naive resume"},
		{"quotes and dashes", "“quoted” – ‘single’", `"quoted" - 'single'`},
		{"ligatures", "ﬁnal ﬂow", "final flow"},
		{"nbsp", "a\u00a0b", "a b"},
		{"plain ascii", "nothing to do", "nothing to do"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, foldAccents(tt.in))
		})
	}
}

func TestStripReferences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"heading between words", "Body text. References [1] Smith", "Body text."},
		{"trailing heading", "Body text. See references", "Body text. See"},
		{"heading after newline", "Body.\nReferences\n[1] Smith", "Body.\n"},
		{"compound word kept", "user preferences matter", "user preferences matter"},
		{"no heading", "no section here", "no section here"},
		{"last heading wins", "Intro references are cited. References [2]", "Intro references are cited."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripReferences(tt.in))
		})
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "terminators",
			in:   "Hello world. How are you? Fine!",
			want: []string{"Hello world.", " How are you?", " Fine!", ""},
		},
		{
			name: "semicolon",
			in:   "one thing here; another thing",
			want: []string{"one thing here;", " another thing"},
		},
		{
			name: "short words keep their period",
			in:   "See Fig. 3 for details. Then stop.",
			want: []string{"See Fig. 3 for details.", " Then stop."},
		},
		{
			name: "short word before newline splits",
			in:   "A list a.\nNext item.",
			want: []string{"A list a.", "\nNext item."},
		},
		{
			name: "email",
			in:   "Write to john.doe@uni.edu today. Bye now",
			want: []string{"Write to john.doe@uni.edu today.", " Bye now"},
		},
		{
			name: "url",
			in:   "Visit https://example.com/a.b?c=1 please. Ok",
			want: []string{"Visit https://example.com/a.b?c=1 please.", " Ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitSentences(tt.in))
		})
	}
}

func TestUnify(t *testing.T) {
	t.Run("merges short and space-led pieces", func(t *testing.T) {
		c := NewChunker(ChunkerOptions{MinChunkChars: 10, MaxChunkChars: 40})
		got := c.unify([]string{"Short.", " Next part here.", "Another sentence is long.", "X"})
		assert.Equal(t, []string{"Short.  Next part here.", "Another sentence is long.", "X"}, got)
	})

	t.Run("respects the maximum", func(t *testing.T) {
		c := NewChunker(ChunkerOptions{MinChunkChars: 100, MaxChunkChars: 20})
		got := c.unify([]string{"aaaaaaaaaa", "bbbbbbbbbb", "cc"})
		assert.Equal(t, []string{"aaaaaaaaaa", "bbbbbbbbbb cc"}, got)
	})

	t.Run("counts characters not bytes", func(t *testing.T) {
		c := NewChunker(ChunkerOptions{MinChunkChars: 100, MaxChunkChars: 8})
		got := c.unify([]string{"éééé", "ééé"})
		assert.Equal(t, []string{"éééé ééé"}, got)
	})

	t.Run("single piece", func(t *testing.T) {
		c := NewChunker(DefaultChunkerOptions())
		assert.Equal(t, []string{"only"}, c.unify([]string{"only"}))
	})
}

func TestPolish(t *testing.T) {
	c := NewChunker(ChunkerOptions{MinAlnumRatio: 0.5})
	got := c.polish([]string{"  line\nbreak  ", "*** --- ***", "", "ok"})
	assert.Equal(t, []string{"linebreak", "ok"}, got)
}

func TestChunkerSplit(t *testing.T) {
	c := NewChunker(ChunkerOptions{MinChunkChars: 1, MaxChunkChars: 1000, MinAlnumRatio: 0.5})
	text := "Café au lait is tasty. It is served hot.\nReferences\n[1] Somebody."

	got := c.Split(text)

	assert.Equal(t, []string{"Cafe au lait is tasty.  It is served hot."}, got)
}

func TestChunkerSplitEmpty(t *testing.T) {
	c := NewChunker(DefaultChunkerOptions())
	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("... !!! ???"))
}
