// ABOUTME: DialogueGenerator writes tutoring dialogues over overlapping windows of document chunks
// ABOUTME: Skips windows already stored; a writer failure only abandons the current document
package core

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/harper/pedagogy/internal/ids"
	"github.com/harper/pedagogy/internal/logging"
	"github.com/harper/pedagogy/internal/metrics"
	"github.com/harper/pedagogy/internal/models"
	"github.com/harper/pedagogy/internal/storage"
)

// DialogueWriter produces the turns of a conversation grounded in source text
type DialogueWriter interface {
	WriteDialogue(ctx context.Context, source string) ([]models.Turn, error)
}

// errDialogueCap stops generation once the configured cap is reached
var errDialogueCap = errors.New("dialogue cap reached")

// DialogueOptions configures a DialogueGenerator
type DialogueOptions struct {
	WindowChars  int
	OverlapChars int
	// MaxDialogues caps newly written dialogues; zero means no cap
	MaxDialogues int
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
	Progress     func(done, total int)
}

// DefaultDialogueOptions returns the standard window sizes
func DefaultDialogueOptions() DialogueOptions {
	return DialogueOptions{WindowChars: 5000, OverlapChars: 1000}
}

// DialogueReport summarises one generation run
type DialogueReport struct {
	Documents int
	Written   int
	Skipped   int
	Abandoned int
}

// SourceWindow is the text a dialogue is generated from
type SourceWindow struct {
	ChunkIDs []string
	Text     string
}

// DialogueGenerator reads documents and appends dialogues
type DialogueGenerator struct {
	writer    DialogueWriter
	docs      *storage.Collection[models.Document]
	dialogues *storage.Collection[models.Dialogue]
	opts      DialogueOptions
	logger    *zap.Logger
}

// NewDialogueGenerator creates a DialogueGenerator
func NewDialogueGenerator(writer DialogueWriter, docs *storage.Collection[models.Document], dialogues *storage.Collection[models.Dialogue], opts DialogueOptions) *DialogueGenerator {
	return &DialogueGenerator{
		writer:    writer,
		docs:      docs,
		dialogues: dialogues,
		opts:      opts,
		logger:    logging.OrNop(opts.Logger),
	}
}

// GenerateAll processes every stored document in file order
func (g *DialogueGenerator) GenerateAll(ctx context.Context) (DialogueReport, error) {
	var report DialogueReport
	docs := g.docs.All()

	for i, doc := range docs {
		report.Documents++
		err := g.generateDocument(ctx, doc, &report)
		switch {
		case errors.Is(err, errDialogueCap):
			g.logger.Info("dialogue cap reached", zap.Int("max_dialogues", g.opts.MaxDialogues))
			return report, nil
		case err != nil && ctx.Err() != nil:
			return report, ctx.Err()
		case isOracleError(err):
			g.logger.Error("abandoning document", zap.String("document", doc.ID), zap.Error(err))
			g.opts.Metrics.DialogueAbandoned()
			report.Abandoned++
		case err != nil:
			return report, err
		}
		if g.opts.Progress != nil {
			g.opts.Progress(i+1, len(docs))
		}
	}

	g.logger.Info("dialogue generation finished",
		zap.Int("documents", report.Documents),
		zap.Int("written", report.Written),
		zap.Int("skipped", report.Skipped),
		zap.Int("abandoned", report.Abandoned))
	return report, nil
}

// GenerateDocument writes the missing dialogues of one document
func (g *DialogueGenerator) GenerateDocument(ctx context.Context, doc models.Document) (DialogueReport, error) {
	report := DialogueReport{Documents: 1}
	err := g.generateDocument(ctx, doc, &report)
	if errors.Is(err, errDialogueCap) {
		err = nil
	}
	return report, err
}

func (g *DialogueGenerator) generateDocument(ctx context.Context, doc models.Document, report *DialogueReport) error {
	for _, window := range SourceWindows(doc.Chunks, g.opts.WindowChars, g.opts.OverlapChars) {
		if err := ctx.Err(); err != nil {
			return err
		}

		dialogueID, err := ids.DialogueID(window.ChunkIDs)
		if err != nil {
			return err
		}
		if g.dialogues.Contains(dialogueID) {
			g.logger.Debug("dialogue already processed", zap.String("id", dialogueID))
			report.Skipped++
			continue
		}
		if g.opts.MaxDialogues > 0 && report.Written >= g.opts.MaxDialogues {
			return errDialogueCap
		}

		start := time.Now()
		turns, err := g.writer.WriteDialogue(ctx, window.Text)
		g.opts.Metrics.ObserveOracle(OpDialogue, time.Since(start))
		if err != nil {
			return &OracleError{Op: OpDialogue, Rule: -1, Err: err}
		}

		dialogue, err := models.NewDialogue(dialogueID, turns)
		if err != nil {
			return &OracleError{Op: OpDialogue, Rule: -1, Err: err}
		}
		if err := g.dialogues.Save(dialogue); err != nil {
			return fmt.Errorf("saving dialogue %s: %w", dialogueID, err)
		}

		g.logger.Info("dialogue written", zap.String("id", dialogueID), zap.Int("turns", len(turns)))
		g.opts.Metrics.DialogueWritten()
		report.Written++
	}
	return nil
}

// SourceWindows groups consecutive chunks until their combined length
// reaches windowChars. Each window's text is the tail of the preceding chunk,
// the window's chunks, then the head of the following chunk, with overlaps
// of overlapChars characters. Leftover chunks form a last window with only a
// left overlap.
func SourceWindows(chunks []models.Chunk, windowChars, overlapChars int) []SourceWindow {
	var windows []SourceWindow
	build := func(start, end int, rightOverlap bool) SourceWindow {
		w := SourceWindow{}
		text := ""
		if start > 0 {
			text += lastRunes(chunks[start-1].Text, overlapChars)
		}
		for i := start; i <= end; i++ {
			w.ChunkIDs = append(w.ChunkIDs, chunks[i].ID)
			text += chunks[i].Text
		}
		if rightOverlap && end < len(chunks)-1 {
			text += firstRunes(chunks[end+1].Text, overlapChars)
		}
		w.Text = text
		return w
	}

	start, length := 0, 0
	for end := 0; end < len(chunks); end++ {
		length += utf8.RuneCountInString(chunks[end].Text)
		if length >= windowChars {
			windows = append(windows, build(start, end, true))
			start, length = end+1, 0
		}
	}
	if start < len(chunks) {
		windows = append(windows, build(start, len(chunks)-1, false))
	}
	return windows
}

func lastRunes(s string, n int) string {
	r := []rune(s)
	if n >= len(r) {
		return s
	}
	return string(r[len(r)-n:])
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if n >= len(r) {
		return s
	}
	return string(r[:n])
}
