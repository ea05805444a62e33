// ABOUTME: PedagogicalRules is the ordered index <-> text table of tutoring rules
// ABOUTME: Loaded once from "<index> <text>" lines and read-only afterwards
package models

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Rule is one entry of the rule table
type Rule struct {
	Index int
	Text  string
}

// Rules keeps rules in file order with lookups in both directions
type Rules struct {
	order  []Rule
	byIdx  map[int]string
	byText map[string]int
}

// NewRules builds a table from entries in the given order
func NewRules(entries ...Rule) (*Rules, error) {
	r := &Rules{
		order:  make([]Rule, 0, len(entries)),
		byIdx:  make(map[int]string, len(entries)),
		byText: make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if e.Index < 0 {
			return nil, fmt.Errorf("rule %d: index must be non-negative", e.Index)
		}
		if strings.TrimSpace(e.Text) == "" {
			return nil, missing("rule", "text")
		}
		if _, dup := r.byIdx[e.Index]; dup {
			return nil, fmt.Errorf("rule %d: duplicate index", e.Index)
		}
		r.order = append(r.order, e)
		r.byIdx[e.Index] = e.Text
		r.byText[e.Text] = e.Index
	}
	return r, nil
}

// LoadRules reads a rule table from a file
func LoadRules(path string) (*Rules, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rules: %w", err)
	}
	defer f.Close()
	return ParseRules(f)
}

// ParseRules reads "<index> <text>" lines; blank lines are ignored
func ParseRules(r io.Reader) (*Rules, error) {
	var entries []Rule
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		head, text, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("rules line %d: expected \"<index> <text>\"", lineNo)
		}
		idx, err := strconv.Atoi(head)
		if err != nil {
			return nil, fmt.Errorf("rules line %d: invalid index %q", lineNo, head)
		}
		entries = append(entries, Rule{Index: idx, Text: strings.TrimSpace(text)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	return NewRules(entries...)
}

// All returns the rules in file order
func (r *Rules) All() []Rule {
	out := make([]Rule, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of rules
func (r *Rules) Len() int { return len(r.order) }

// Text returns the rule text for an index
func (r *Rules) Text(idx int) (string, bool) {
	text, ok := r.byIdx[idx]
	return text, ok
}

// Index returns the index of a rule text
func (r *Rules) Index(text string) (int, bool) {
	idx, ok := r.byText[text]
	return idx, ok
}
