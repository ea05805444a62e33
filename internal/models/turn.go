// ABOUTME: Turn represents a single student/tutor exchange inside a Dialogue
// ABOUTME: Decodes both user/assistant records and role/content message pairs
package models

import (
	"encoding/json"
	"fmt"
)

// Turn represents one user question and the assistant's answer
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// wireTurn covers both persisted schemas: {"user","assistant"} records and
// chat-style {"role","content"} messages.
type wireTurn struct {
	User      *string `json:"user"`
	Assistant *string `json:"assistant"`
	Role      string  `json:"role"`
	Content   *string `json:"content"`
}

// UnmarshalJSON decodes a turn in the user/assistant schema
func (t *Turn) UnmarshalJSON(data []byte) error {
	var wire wireTurn
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.User == nil {
		return missing("turn", "user")
	}
	if wire.Assistant == nil {
		return missing("turn", "assistant")
	}
	t.User = *wire.User
	t.Assistant = *wire.Assistant
	return nil
}

// decodeTurns accepts a list of user/assistant turns, a list of role/content
// messages, or either of them with every element wrapped in a JSON string.
func decodeTurns(raws []json.RawMessage) ([]Turn, error) {
	turns := make([]Turn, 0, len(raws))
	var pending *string

	for i, raw := range raws {
		var wire wireTurn
		if err := decodeNested(raw, &wire); err != nil {
			return nil, fmt.Errorf("turn %d: %w", i, err)
		}

		if wire.Role == "" {
			if pending != nil {
				return nil, fmt.Errorf("turn %d: %w", i, missing("turn", "assistant"))
			}
			if wire.User == nil {
				return nil, fmt.Errorf("turn %d: %w", i, missing("turn", "user"))
			}
			if wire.Assistant == nil {
				return nil, fmt.Errorf("turn %d: %w", i, missing("turn", "assistant"))
			}
			turns = append(turns, Turn{User: *wire.User, Assistant: *wire.Assistant})
			continue
		}

		if wire.Content == nil {
			return nil, fmt.Errorf("message %d: %w", i, missing("message", "content"))
		}
		switch wire.Role {
		case "user":
			if pending != nil {
				return nil, fmt.Errorf("message %d: %w", i, missing("turn", "assistant"))
			}
			content := *wire.Content
			pending = &content
		case "assistant":
			if pending == nil {
				return nil, fmt.Errorf("message %d: %w", i, missing("turn", "user"))
			}
			turns = append(turns, Turn{User: *pending, Assistant: *wire.Content})
			pending = nil
		case "system":
		default:
			return nil, fmt.Errorf("message %d: unknown role %q", i, wire.Role)
		}
	}

	if pending != nil {
		return nil, missing("turn", "assistant")
	}
	return turns, nil
}
