// ABOUTME: Document is a PDF source reduced to an ordered list of chunks
// ABOUTME: Its "dc<n>" id identifies one source file forever
package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harper/pedagogy/internal/ids"
)

// Document represents one processed source file
type Document struct {
	ID       string  `json:"id"`
	FileName string  `json:"file_name"`
	Chunks   []Chunk `json:"chunks"`
}

// NewDocument creates a Document. Chunk ids must belong to the document and
// be numbered sequentially from 0.
func NewDocument(id, fileName string, chunks []Chunk) (Document, error) {
	if id == "" {
		return Document{}, missing("document", "id")
	}
	if fileName == "" {
		return Document{}, missing("document", "file_name")
	}
	if chunks == nil {
		return Document{}, missing("document", "chunks")
	}
	if _, err := ids.ParseDocumentID(id); err != nil {
		return Document{}, err
	}
	for i, chunk := range chunks {
		docID, idx, err := ids.ParseChunkID(chunk.ID)
		if err != nil {
			return Document{}, err
		}
		if docID != id {
			return Document{}, fmt.Errorf("document %s: chunk %s belongs to %s", id, chunk.ID, docID)
		}
		if idx != i {
			return Document{}, fmt.Errorf("document %s: chunk %s at position %d", id, chunk.ID, i)
		}
	}
	return Document{ID: id, FileName: fileName, Chunks: chunks}, nil
}

// RecordID returns the document id
func (d Document) RecordID() string { return d.ID }

// ChunkByID returns the chunk with the given id
func (d Document) ChunkByID(chunkID string) (Chunk, bool) {
	for _, chunk := range d.Chunks {
		if chunk.ID == chunkID {
			return chunk, true
		}
	}
	return Chunk{}, false
}

// WordCount counts whitespace separated words across all chunks
func (d Document) WordCount() int {
	total := 0
	for _, chunk := range d.Chunks {
		total += len(strings.Fields(chunk.Text))
	}
	return total
}

// UnmarshalJSON decodes a document; chunks may be objects or JSON strings
func (d *Document) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID       *string           `json:"id"`
		FileName *string           `json:"file_name"`
		Chunks   []json.RawMessage `json:"chunks"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.ID == nil {
		return missing("document", "id")
	}
	if wire.FileName == nil {
		return missing("document", "file_name")
	}
	if wire.Chunks == nil {
		return missing("document", "chunks")
	}

	chunks := make([]Chunk, len(wire.Chunks))
	for i, raw := range wire.Chunks {
		if err := decodeNested(raw, &chunks[i]); err != nil {
			return fmt.Errorf("document %s chunk %d: %w", *wire.ID, i, err)
		}
	}

	doc, err := NewDocument(*wire.ID, *wire.FileName, chunks)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}
