// ABOUTME: Collection loads a JSONL record file into memory with an id index
// ABOUTME: Generic over record types; also owns the appender for the same file
package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// ErrNotFound is returned when an id is not present in a collection
var ErrNotFound = errors.New("not found")

// Record is implemented by every persisted record type
type Record interface {
	RecordID() string
}

// Collection is a read snapshot of a JSONL file plus the records saved
// through it since loading. It does not observe appends by other processes.
type Collection[T Record] struct {
	file  *JSONLFile
	mu    sync.RWMutex
	items []T
	index map[string]int
}

// Load reads every non-blank line of path. A missing file yields an empty
// collection. When an id appears more than once the last occurrence wins.
func Load[T Record](path string) (*Collection[T], error) {
	c := &Collection[T]{
		file:  NewJSONLFile(path),
		index: make(map[string]int),
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	// ReadBytes has no line length limit; documents can be several MB per line.
	reader := bufio.NewReader(f)
	lineNo := 0
	for {
		line, readErr := reader.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
				var rec T
				if err := json.Unmarshal(trimmed, &rec); err != nil {
					return nil, fmt.Errorf("%s line %d: %w", path, lineNo, err)
				}
				c.add(rec)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, readErr)
		}
	}

	return c, nil
}

func (c *Collection[T]) add(rec T) {
	c.index[rec.RecordID()] = len(c.items)
	c.items = append(c.items, rec)
}

// Path returns the backing file location
func (c *Collection[T]) Path() string {
	return c.file.Path()
}

// Len returns the number of loaded records, duplicates included
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Contains reports whether id is present
func (c *Collection[T]) Contains(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.index[id]
	return ok
}

// Get returns the record with id or an error wrapping ErrNotFound
func (c *Collection[T]) Get(id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pos, ok := c.index[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.items[pos], nil
}

// All returns the records in file order
func (c *Collection[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// IDs returns the distinct ids in first-seen order
func (c *Collection[T]) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.index))
	seen := make(map[string]struct{}, len(c.index))
	for _, rec := range c.items {
		id := rec.RecordID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Save appends rec to the file and then adds it to the in-memory index.
// Duplicates are not rejected.
func (c *Collection[T]) Save(rec T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.file.Append(rec); err != nil {
		return err
	}
	c.add(rec)
	return nil
}
