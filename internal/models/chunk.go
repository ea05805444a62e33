// ABOUTME: Chunk is a contiguous span of extracted document text
// ABOUTME: Addressed as "<doc_id>_ch<index>", owned by exactly one Document
package models

import (
	"encoding/json"

	"github.com/harper/pedagogy/internal/ids"
)

// Chunk represents a contiguous slice of source text
type Chunk struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// NewChunk creates a Chunk after checking the id grammar
func NewChunk(id, text string) (Chunk, error) {
	if id == "" {
		return Chunk{}, missing("chunk", "id")
	}
	if _, _, err := ids.ParseChunkID(id); err != nil {
		return Chunk{}, err
	}
	return Chunk{ID: id, Text: text}, nil
}

// RecordID returns the chunk id
func (c Chunk) RecordID() string { return c.ID }

// Index returns the chunk's position inside its document
func (c Chunk) Index() (int, error) {
	_, idx, err := ids.ParseChunkID(c.ID)
	return idx, err
}

// UnmarshalJSON decodes a chunk and rejects records without id or text
func (c *Chunk) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID   *string `json:"id"`
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.ID == nil {
		return missing("chunk", "id")
	}
	if wire.Text == nil {
		return missing("chunk", "text")
	}
	chunk, err := NewChunk(*wire.ID, *wire.Text)
	if err != nil {
		return err
	}
	*c = chunk
	return nil
}
