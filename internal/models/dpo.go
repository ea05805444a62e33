// ABOUTME: DPOTurn and DPODialogue describe one node of a branching preference tree
// ABOUTME: A node stores only its own turn; ancestors are recovered through the id chain
package models

import (
	"encoding/json"
	"fmt"

	"github.com/harper/pedagogy/internal/ids"
)

// DPOTurn is a rule-conditioned rewrite of a dialogue turn into a preference pair
type DPOTurn struct {
	StudentQuestion string `json:"student_question"`
	PositiveAnswer  string `json:"positive_answer"`
	NegativeAnswer  string `json:"negative_answer"`
	RuleUsed        int    `json:"rule_used"`
}

// UnmarshalJSON decodes a DPO turn and rejects records with absent fields
func (t *DPOTurn) UnmarshalJSON(data []byte) error {
	var wire struct {
		StudentQuestion *string `json:"student_question"`
		PositiveAnswer  *string `json:"positive_answer"`
		NegativeAnswer  *string `json:"negative_answer"`
		RuleUsed        *int    `json:"rule_used"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch {
	case wire.StudentQuestion == nil:
		return missing("dpo turn", "student_question")
	case wire.PositiveAnswer == nil:
		return missing("dpo turn", "positive_answer")
	case wire.NegativeAnswer == nil:
		return missing("dpo turn", "negative_answer")
	case wire.RuleUsed == nil:
		return missing("dpo turn", "rule_used")
	}
	*t = DPOTurn{
		StudentQuestion: *wire.StudentQuestion,
		PositiveAnswer:  *wire.PositiveAnswer,
		NegativeAnswer:  *wire.NegativeAnswer,
		RuleUsed:        *wire.RuleUsed,
	}
	return nil
}

// DPODialogue is one node of a preference tree rooted at a Dialogue
type DPODialogue struct {
	ID       string  `json:"id"`
	LastTurn DPOTurn `json:"last_turn"`
}

// NewDPODialogue creates a node. The last rule of the id's path must be the
// rule used by lastTurn.
func NewDPODialogue(id string, lastTurn DPOTurn) (DPODialogue, error) {
	if id == "" {
		return DPODialogue{}, missing("dpo dialogue", "id")
	}
	path, err := ids.ParseDPORulePath(id)
	if err != nil {
		return DPODialogue{}, err
	}
	if last := path[len(path)-1]; last != lastTurn.RuleUsed {
		return DPODialogue{}, fmt.Errorf("dpo dialogue %s: path ends with rule %d but turn used rule %d", id, last, lastTurn.RuleUsed)
	}
	return DPODialogue{ID: id, LastTurn: lastTurn}, nil
}

// RecordID returns the node id
func (d DPODialogue) RecordID() string { return d.ID }

// DialogueID returns the id of the root dialogue
func (d DPODialogue) DialogueID() string {
	dialogueID, _ := ids.DPODialogueID(d.ID)
	return dialogueID
}

// RulePath returns the rules applied from the root to this node
func (d DPODialogue) RulePath() []int {
	path, _ := ids.ParseDPORulePath(d.ID)
	return path
}

// ParentID returns the parent node id, or "" for a root edge
func (d DPODialogue) ParentID() string {
	parent, _ := ids.ParentDPOID(d.ID)
	return parent
}

// UnmarshalJSON decodes a node; last_turn may be an object or a JSON string
func (d *DPODialogue) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID       *string         `json:"id"`
		LastTurn json.RawMessage `json:"last_turn"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.ID == nil {
		return missing("dpo dialogue", "id")
	}
	if isNull(wire.LastTurn) {
		return missing("dpo dialogue", "last_turn")
	}
	var turn DPOTurn
	if err := decodeNested(wire.LastTurn, &turn); err != nil {
		return fmt.Errorf("dpo dialogue %s: %w", *wire.ID, err)
	}
	node, err := NewDPODialogue(*wire.ID, turn)
	if err != nil {
		return err
	}
	*d = node
	return nil
}
