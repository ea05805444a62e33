// ABOUTME: Dataset groups the three JSONL collections of a pipeline run
// ABOUTME: Resolves default file names inside a data directory
package storage

import (
	"fmt"
	"path/filepath"

	"github.com/harper/pedagogy/internal/models"
)

// Default file names inside a data directory
const (
	DocumentsFile = "documents.jsonl"
	DialoguesFile = "dialogues.jsonl"
	DPOFile       = "dpo_dialogues.jsonl"
)

// Paths locates the record files of a dataset
type Paths struct {
	Documents string
	Dialogues string
	DPO       string
}

// PathsIn returns the default file paths inside dir
func PathsIn(dir string) Paths {
	return Paths{
		Documents: filepath.Join(dir, DocumentsFile),
		Dialogues: filepath.Join(dir, DialoguesFile),
		DPO:       filepath.Join(dir, DPOFile),
	}
}

// Dataset is a loaded snapshot of every collection
type Dataset struct {
	Documents *Collection[models.Document]
	Dialogues *Collection[models.Dialogue]
	DPO       *DPOCollection
}

// OpenDataset loads all three collections
func OpenDataset(p Paths) (*Dataset, error) {
	docs, err := Load[models.Document](p.Documents)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	dialogues, err := Load[models.Dialogue](p.Dialogues)
	if err != nil {
		return nil, fmt.Errorf("failed to load dialogues: %w", err)
	}
	dpo, err := LoadDPO(p.DPO)
	if err != nil {
		return nil, fmt.Errorf("failed to load dpo dialogues: %w", err)
	}
	return &Dataset{Documents: docs, Dialogues: dialogues, DPO: dpo}, nil
}
