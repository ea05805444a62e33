// ABOUTME: Aggregate counts and word totals over a loaded dataset
// ABOUTME: Positive-answer words are counted along every deepest preference path
package core

import (
	"strings"

	"github.com/harper/pedagogy/internal/storage"
)

// Stats summarises a dataset
type Stats struct {
	Documents      int `json:"documents"`
	Chunks         int `json:"chunks"`
	Dialogues      int `json:"dialogues"`
	DPONodes       int `json:"dpo_nodes"`
	DeepestPaths   int `json:"deepest_paths"`
	DocumentWords  int `json:"document_words"`
	AssistantWords int `json:"assistant_words"`
	PositiveWords  int `json:"positive_words"`
}

// ComputeStats walks every collection once. A deepest path with a missing
// ancestor fails with storage.ErrNotFound.
func ComputeStats(ds *storage.Dataset) (Stats, error) {
	var s Stats

	for _, doc := range ds.Documents.All() {
		s.Documents++
		s.Chunks += len(doc.Chunks)
		s.DocumentWords += doc.WordCount()
	}

	for _, d := range ds.Dialogues.All() {
		s.Dialogues++
		s.AssistantWords += d.AssistantWordCount()
	}

	s.DPONodes = ds.DPO.Len()
	deepest := ds.DPO.UniqueDeepestIDs()
	s.DeepestPaths = len(deepest)
	for _, id := range deepest {
		turns, err := ds.DPO.TurnsAlongPath(id)
		if err != nil {
			return s, err
		}
		for _, t := range turns {
			s.PositiveWords += len(strings.Fields(t.PositiveAnswer))
		}
	}
	return s, nil
}
