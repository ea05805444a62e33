// ABOUTME: Prompt templates for dialogue writing, rule scoring, rewriting and negatives
// ABOUTME: Defaults are embedded; a directory of .txt files overrides them per template
package llm

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Template placeholders
const (
	PlaceholderSourceText        = "<SOURCE_TEXT>"
	PlaceholderRule              = "<PEDAGOGICAL RULE>"
	PlaceholderConversation      = "<CONVERSATION SO FAR>"
	PlaceholderStudentQuestion   = "<STUDENT QUESTION>"
	PlaceholderTutorAnswer       = "<TUTOR ANSWER>"
	PlaceholderLastTutorResponse = "<LAST TUTOR RESPONSE>"
	PlaceholderGoodResponse      = "<GOOD TUTOR RESPONSE>"
)

// Template file names
const (
	DialoguePromptFile = "dialogue.txt"
	ScorePromptFile    = "rule_score.txt"
	RewritePromptFile  = "rewrite.txt"
	NegativePromptFile = "negative.txt"
)

const (
	emptyConversation = "// the conversation has just started, no conversation so far\n"
	emptyLastResponse = "// the conversation has just started, no tutor's response\n"
)

//go:embed prompts/*.txt
var defaultPrompts embed.FS

// Prompts holds the four templates
type Prompts struct {
	Dialogue string
	Score    string
	Rewrite  string
	Negative string
}

// DefaultPrompts returns the embedded templates
func DefaultPrompts() *Prompts {
	p, err := readPrompts(defaultPrompts, "prompts", nil)
	if err != nil {
		panic(fmt.Sprintf("embedded prompts: %v", err))
	}
	return p
}

// LoadPrompts reads templates from dir; missing files fall back to the defaults
func LoadPrompts(dir string) (*Prompts, error) {
	if dir == "" {
		return DefaultPrompts(), nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("prompt directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("prompt directory %s is not a directory", dir)
	}
	return readPrompts(os.DirFS(dir), ".", DefaultPrompts())
}

func readPrompts(fsys fs.FS, root string, fallback *Prompts) (*Prompts, error) {
	p := &Prompts{}
	targets := []struct {
		name     string
		dst      *string
		required string
	}{
		{DialoguePromptFile, &p.Dialogue, PlaceholderSourceText},
		{ScorePromptFile, &p.Score, PlaceholderRule},
		{RewritePromptFile, &p.Rewrite, PlaceholderRule},
		{NegativePromptFile, &p.Negative, PlaceholderGoodResponse},
	}

	for i, target := range targets {
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(root, target.name)))
		if errors.Is(err, fs.ErrNotExist) && fallback != nil {
			*target.dst = []string{fallback.Dialogue, fallback.Score, fallback.Rewrite, fallback.Negative}[i]
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", target.name, err)
		}
		text := string(data)
		if !strings.Contains(text, target.required) {
			return nil, fmt.Errorf("%s: missing placeholder %s", target.name, target.required)
		}
		*target.dst = text
	}
	return p, nil
}

func fill(template string, pairs ...string) string {
	return strings.NewReplacer(pairs...).Replace(template)
}
