// ABOUTME: Dialogue is a tutoring conversation grounded in contiguous chunks of one document
// ABOUTME: Its id encodes the chunk indices it was generated from
package models

import (
	"encoding/json"
	"strings"

	"github.com/harper/pedagogy/internal/ids"
)

// Dialogue represents an ordered conversation
type Dialogue struct {
	ID    string `json:"id"`
	Turns []Turn `json:"turns"`
}

// NewDialogue creates a Dialogue after checking the id grammar
func NewDialogue(id string, turns []Turn) (Dialogue, error) {
	if id == "" {
		return Dialogue{}, missing("dialogue", "id")
	}
	if turns == nil {
		return Dialogue{}, missing("dialogue", "turns")
	}
	if _, _, err := ids.ParseDialogueID(id); err != nil {
		return Dialogue{}, err
	}
	return Dialogue{ID: id, Turns: turns}, nil
}

// RecordID returns the dialogue id
func (d Dialogue) RecordID() string { return d.ID }

// DocumentID returns the id of the source document
func (d Dialogue) DocumentID() string {
	docID, _, _ := ids.ParseDialogueID(d.ID)
	return docID
}

// ChunkIDs returns the chunk ids the dialogue was built from
func (d Dialogue) ChunkIDs() ([]string, error) {
	return ids.DialogueChunkIDs(d.ID)
}

// AssistantWordCount counts the words of every assistant answer
func (d Dialogue) AssistantWordCount() int {
	total := 0
	for _, turn := range d.Turns {
		total += len(strings.Fields(turn.Assistant))
	}
	return total
}

// UnmarshalJSON decodes a dialogue in any of the persisted turn schemas
func (d *Dialogue) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID    *string           `json:"id"`
		Turns []json.RawMessage `json:"turns"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.ID == nil {
		return missing("dialogue", "id")
	}
	if wire.Turns == nil {
		return missing("dialogue", "turns")
	}
	turns, err := decodeTurns(wire.Turns)
	if err != nil {
		return err
	}
	dialogue, err := NewDialogue(*wire.ID, turns)
	if err != nil {
		return err
	}
	*d = dialogue
	return nil
}
