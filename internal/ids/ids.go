// ABOUTME: Identifier codec for documents, chunks, dialogues and DPO nodes
// ABOUTME: Lineage is encoded lexically so parents are recovered without a store lookup
package ids

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedID is returned when an id does not match its grammar.
var ErrMalformedID = errors.New("malformed id")

const (
	documentPrefix = "dc"
	chunkSep       = "_ch"
	dpoSep         = "_dpo["
)

func malformed(id, reason string) error {
	return fmt.Errorf("%w: %q: %s", ErrMalformedID, id, reason)
}

// DocumentID returns the id of the n-th document of a run ("dc<n>").
func DocumentID(n int) string {
	return documentPrefix + strconv.Itoa(n)
}

// ParseDocumentID returns the integer part of a document id.
func ParseDocumentID(id string) (int, error) {
	if !strings.HasPrefix(id, documentPrefix) {
		return 0, malformed(id, "missing dc prefix")
	}
	n, err := parseIndex(id[len(documentPrefix):])
	if err != nil {
		return 0, malformed(id, "document number is not a non-negative integer")
	}
	return n, nil
}

// ChunkID returns "<docID>_ch<idx>".
func ChunkID(docID string, idx int) string {
	return docID + chunkSep + strconv.Itoa(idx)
}

// ParseChunkID splits a chunk id into its document id and chunk index.
func ParseChunkID(id string) (string, int, error) {
	pos := strings.LastIndex(id, chunkSep)
	if pos <= 0 {
		return "", 0, malformed(id, "missing _ch separator")
	}
	idx, err := parseIndex(id[pos+len(chunkSep):])
	if err != nil {
		return "", 0, malformed(id, "chunk index is not a non-negative integer")
	}
	return id[:pos], idx, nil
}

// DialogueID encodes the ordered chunk ids a dialogue was built from as
// "<docID>_ch[<i>_<j>_...]". All chunks must belong to the same document.
func DialogueID(chunkIDs []string) (string, error) {
	if len(chunkIDs) == 0 {
		return "", fmt.Errorf("%w: dialogue needs at least one chunk id", ErrMalformedID)
	}
	docID, _, err := ParseChunkID(chunkIDs[0])
	if err != nil {
		return "", err
	}
	indices := make([]int, 0, len(chunkIDs))
	for _, cid := range chunkIDs {
		d, idx, err := ParseChunkID(cid)
		if err != nil {
			return "", err
		}
		if d != docID {
			return "", malformed(cid, fmt.Sprintf("chunk belongs to %s, expected %s", d, docID))
		}
		indices = append(indices, idx)
	}
	return docID + chunkSep + "[" + joinInts(indices) + "]", nil
}

// ParseDialogueID returns the document id and chunk indices of a dialogue id.
// A DPO id is not accepted; use ParseDPOID first.
func ParseDialogueID(id string) (string, []int, error) {
	open := strings.Index(id, chunkSep+"[")
	if open <= 0 {
		return "", nil, malformed(id, "missing _ch[")
	}
	if !strings.HasSuffix(id, "]") {
		return "", nil, malformed(id, "missing closing ]")
	}
	body := id[open+len(chunkSep)+1 : len(id)-1]
	indices, err := splitInts(body)
	if err != nil {
		return "", nil, malformed(id, "chunk list: "+err.Error())
	}
	return id[:open], indices, nil
}

// DialogueChunkIDs decodes a dialogue id back into its chunk ids.
func DialogueChunkIDs(id string) ([]string, error) {
	docID, indices, err := ParseDialogueID(id)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = ChunkID(docID, idx)
	}
	return out, nil
}

// DPOID returns "<dialogueID>_dpo[<r1>_..._<rn>]". The rule path must not be empty.
func DPOID(dialogueID string, rulePath []int) (string, error) {
	if len(rulePath) == 0 {
		return "", fmt.Errorf("%w: empty rule path for %q", ErrMalformedID, dialogueID)
	}
	if dialogueID == "" {
		return "", fmt.Errorf("%w: empty dialogue id", ErrMalformedID)
	}
	for _, r := range rulePath {
		if r < 0 {
			return "", fmt.Errorf("%w: negative rule index %d", ErrMalformedID, r)
		}
	}
	return dialogueID + dpoSep + joinInts(rulePath) + "]", nil
}

// ParseDPOID splits a DPO id into its dialogue id and rule path.
func ParseDPOID(id string) (string, []int, error) {
	pos := strings.LastIndex(id, dpoSep)
	if pos <= 0 {
		return "", nil, malformed(id, "missing _dpo[")
	}
	if !strings.HasSuffix(id, "]") {
		return "", nil, malformed(id, "missing closing ]")
	}
	path, err := splitInts(id[pos+len(dpoSep) : len(id)-1])
	if err != nil {
		return "", nil, malformed(id, "rule path: "+err.Error())
	}
	return id[:pos], path, nil
}

// ParseDPORulePath returns the rule indices applied from the root to id.
func ParseDPORulePath(id string) ([]int, error) {
	_, path, err := ParseDPOID(id)
	return path, err
}

// DPODialogueID returns the dialogue a DPO node belongs to.
func DPODialogueID(id string) (string, error) {
	dialogueID, _, err := ParseDPOID(id)
	return dialogueID, err
}

// ParentDPOID drops the last rule of the path. It returns "" for a root edge
// (path of length one). Pure string transform.
func ParentDPOID(id string) (string, error) {
	dialogueID, path, err := ParseDPOID(id)
	if err != nil {
		return "", err
	}
	if len(path) == 1 {
		return "", nil
	}
	return DPOID(dialogueID, path[:len(path)-1])
}

func parseIndex(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("unexpected %q", r)
		}
	}
	return strconv.Atoi(s)
}

func splitInts(s string) ([]int, error) {
	if s == "" {
		return nil, errors.New("empty list")
	}
	parts := strings.Split(s, "_")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := parseIndex(p)
		if err != nil {
			return nil, fmt.Errorf("element %d: %v", i, err)
		}
		out[i] = n
	}
	return out, nil
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, "_")
}
