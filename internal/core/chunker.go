// ABOUTME: Chunker turns raw extracted text into clean, sentence-aligned chunks
// ABOUTME: Folds accents, drops the references section, splits sentences and merges small pieces
package core

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ChunkerOptions bounds chunk sizes in characters
type ChunkerOptions struct {
	MinChunkChars int
	MaxChunkChars int
	MinAlnumRatio float64
}

// DefaultChunkerOptions returns the standard bounds
func DefaultChunkerOptions() ChunkerOptions {
	return ChunkerOptions{MinChunkChars: 1000, MaxChunkChars: 7000, MinAlnumRatio: 0.5}
}

// Chunker handles text cleanup and chunking
type Chunker struct {
	opts ChunkerOptions
}

// NewChunker creates a Chunker
func NewChunker(opts ChunkerOptions) *Chunker {
	return &Chunker{opts: opts}
}

var (
	emailPattern     = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)
	urlPattern       = regexp.MustCompile(`https?://[^\s]+`)
	smallWordPattern = regexp.MustCompile(`\b\w{1,4}\.`)

	typography = strings.NewReplacer(
		"‘", "'", "’", "'", "“", `"`, "”", `"`,
		"–", "-", "—", "-", "…", "...", "\u00a0", " ",
		"ﬁ", "fi", "ﬂ", "fl", "ß", "ss", "æ", "ae", "Æ", "AE",
	)

	// words that contain "references" without being the section heading
	referenceCompounds = []string{
		"coreferences", "crossreferences", "dereferences", "georeferences",
		"preferences", "subreferences",
	}
)

// Split runs the full cleanup pipeline and returns the chunk texts
func (c *Chunker) Split(text string) []string {
	text = foldAccents(text)
	text = stripReferences(text)
	pieces := splitSentences(text)
	pieces = c.unify(pieces)
	return c.polish(pieces)
}

// foldAccents maps text to its closest ASCII spelling where possible
func foldAccents(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return typography.Replace(folded)
}

// stripReferences cuts the text at the last "references" heading
func stripReferences(text string) string {
	lower := asciiLower(text)
	if !strings.Contains(lower, "references") {
		return text
	}

	if idx := strings.LastIndex(lower, " references "); idx >= 0 {
		return text[:idx]
	}
	if idx := strings.LastIndex(lower, " references"); idx >= 0 {
		return text[:idx]
	}

	idx := strings.LastIndex(lower, "references")
	left := idx - len("crossreferences")
	if left < 0 {
		left = 0
	}
	window := lower[left : idx+len("references")]
	for _, word := range referenceCompounds {
		if strings.Contains(window, word) {
			return text
		}
	}
	return text[:idx]
}

// splitSentences splits after every . ! ? ; that is not part of an e-mail
// address, a URL or a short word followed by a period on the same line.
func splitSentences(text string) []string {
	protected := make([]bool, len(text))
	mark := func(spans [][]int) {
		for _, span := range spans {
			for i := span[0]; i < span[1]; i++ {
				protected[i] = true
			}
		}
	}
	mark(emailPattern.FindAllStringIndex(text, -1))
	mark(urlPattern.FindAllStringIndex(text, -1))

	var smallWords [][]int
	for _, span := range smallWordPattern.FindAllStringIndex(text, -1) {
		if span[1] < len(text) && text[span[1]] == '\n' {
			continue
		}
		smallWords = append(smallWords, span)
	}
	mark(smallWords)

	var pieces []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?', ';':
			if protected[i] {
				continue
			}
			pieces = append(pieces, text[start:i+1])
			start = i + 1
		}
	}
	pieces = append(pieces, text[start:])
	return pieces
}

// unify merges a piece into its predecessor when the predecessor is too
// short or the split fell next to whitespace, as long as the result stays
// under the maximum size.
func (c *Chunker) unify(pieces []string) []string {
	if len(pieces) <= 1 {
		return pieces
	}

	unified := []string{pieces[0]}
	for _, current := range pieces[1:] {
		last := unified[len(unified)-1]
		lastLen := utf8.RuneCountInString(last)
		mergeable := lastLen < c.opts.MinChunkChars ||
			startsWithSpace(current) ||
			endsWithSpace(last)
		if mergeable && lastLen+utf8.RuneCountInString(current) < c.opts.MaxChunkChars {
			unified[len(unified)-1] = last + " " + current
			continue
		}
		unified = append(unified, current)
	}
	return unified
}

// polish removes newlines and drops chunks that are mostly symbols
func (c *Chunker) polish(pieces []string) []string {
	var out []string
	for _, piece := range pieces {
		piece = strings.TrimSpace(strings.ReplaceAll(piece, "\n", ""))
		if piece == "" {
			continue
		}
		if alnumRatio(piece) < c.opts.MinAlnumRatio {
			continue
		}
		out = append(out, piece)
	}
	return out
}

func alnumRatio(s string) float64 {
	total, alnum := 0, 0
	for _, r := range s {
		total++
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			alnum++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(alnum) / float64(total)
}

func startsWithSpace(s string) bool {
	return s != "" && (s[0] == ' ' || s[0] == '\n' || s[0] == '\t')
}

func endsWithSpace(s string) bool {
	n := len(s)
	return n > 0 && (s[n-1] == ' ' || s[n-1] == '\n' || s[n-1] == '\t')
}

// asciiLower lowercases ASCII letters only so byte offsets stay aligned
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
