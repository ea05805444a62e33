// ABOUTME: Exports stored preference nodes as prompt/chosen/rejected records
// ABOUTME: Prompts use the Llama 3.1 chat template with the node's ancestors as history
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/pedagogy/internal/models"
	"github.com/harper/pedagogy/internal/storage"
)

// Llama 3.1 chat template tokens
const (
	BeginOfText     = "<|begin_of_text|>"
	EndOfTurn       = "<|eot_id|>"
	userHeader      = "<|start_header_id|>user<|end_header_id|>\n"
	assistantHeader = "<|start_header_id|>assistant<|end_header_id|>\n"
)

// PreferencePair is one training record
type PreferencePair struct {
	ID       string `json:"id"`
	Prompt   string `json:"prompt"`
	Chosen   string `json:"chosen"`
	Rejected string `json:"rejected"`
}

// RecordID returns the source node id
func (p PreferencePair) RecordID() string { return p.ID }

// BuildPreferencePair formats a root-to-node path. The last turn supplies
// chosen and rejected; earlier turns become chat history.
func BuildPreferencePair(id string, turns []models.DPOTurn) (PreferencePair, error) {
	if len(turns) == 0 {
		return PreferencePair{}, fmt.Errorf("preference pair %s: empty path", id)
	}

	var prompt strings.Builder
	prompt.WriteString(BeginOfText)
	for _, t := range turns[:len(turns)-1] {
		prompt.WriteString(userHeader + t.StudentQuestion + EndOfTurn)
		prompt.WriteString(assistantHeader + t.PositiveAnswer + EndOfTurn)
	}
	last := turns[len(turns)-1]
	prompt.WriteString(userHeader + last.StudentQuestion + EndOfTurn)
	prompt.WriteString(assistantHeader)

	return PreferencePair{
		ID:       id,
		Prompt:   prompt.String(),
		Chosen:   last.PositiveAnswer + EndOfTurn,
		Rejected: last.NegativeAnswer + EndOfTurn,
	}, nil
}

// PairWriter receives exported records
type PairWriter interface {
	Append(record any) error
}

// ExportPreferences writes one record per stored node in file order and
// returns the number written. An orphan node fails the export.
func ExportPreferences(ctx context.Context, dpo *storage.DPOCollection, out PairWriter) (int, error) {
	written := 0
	for _, id := range dpo.IDs() {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		turns, err := dpo.TurnsAlongPath(id)
		if err != nil {
			return written, err
		}
		pair, err := BuildPreferencePair(id, turns)
		if err != nil {
			return written, err
		}
		if err := out.Append(pair); err != nil {
			return written, fmt.Errorf("writing pair %s: %w", id, err)
		}
		written++
	}
	return written, nil
}
