// ABOUTME: DPO node collection with tree queries over lexical lineage
// ABOUTME: Finds the deepest node of each branch and rebuilds root-to-leaf paths
package storage

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/harper/pedagogy/internal/ids"
	"github.com/harper/pedagogy/internal/models"
)

// DPOCollection holds preference-tree nodes
type DPOCollection struct {
	*Collection[models.DPODialogue]
}

// LoadDPO loads a DPO node file
func LoadDPO(path string) (*DPOCollection, error) {
	c, err := Load[models.DPODialogue](path)
	if err != nil {
		return nil, err
	}
	return &DPOCollection{Collection: c}, nil
}

// UniqueDeepestIDs returns the ids that are not an ancestor of any other
// loaded id, sorted by length and then lexically.
func (c *DPOCollection) UniqueDeepestIDs() []string {
	all := c.IDs()
	unique := make(map[string]struct{}, len(all))
	for _, id := range all {
		unique[id] = struct{}{}
	}

	for _, id := range all {
		parent, err := ids.ParentDPOID(id)
		for err == nil && parent != "" {
			delete(unique, parent)
			parent, err = ids.ParentDPOID(parent)
		}
	}

	out := make([]string, 0, len(unique))
	for id := range unique {
		out = append(out, id)
	}
	sortDeepest(out)
	return out
}

// DeepestFor returns the deepest ids belonging to one dialogue
func (c *DPOCollection) DeepestFor(dialogueID string) []string {
	prefix := dialogueID + "_dpo["
	var out []string
	for _, id := range c.UniqueDeepestIDs() {
		if strings.HasPrefix(id, prefix) {
			out = append(out, id)
		}
	}
	return out
}

// TurnsAlongPath returns the turns from the tree root down to id. Every
// node on the way must be stored; a gap yields an error wrapping ErrNotFound.
func (c *DPOCollection) TurnsAlongPath(id string) ([]models.DPOTurn, error) {
	var turns []models.DPOTurn
	for current := id; current != ""; {
		node, err := c.Get(current)
		if err != nil {
			return nil, fmt.Errorf("path to %s: %w", id, err)
		}
		turns = append(turns, node.LastTurn)

		current, err = ids.ParentDPOID(current)
		if err != nil {
			return nil, err
		}
	}
	slices.Reverse(turns)
	return turns, nil
}

func sortDeepest(list []string) {
	slices.SortFunc(list, func(a, b string) int {
		if n := cmp.Compare(len(a), len(b)); n != 0 {
			return n
		}
		return strings.Compare(a, b)
	})
}
