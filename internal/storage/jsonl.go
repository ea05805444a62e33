// ABOUTME: Append-only JSON Lines file used as a write-once record log
// ABOUTME: One JSON object per line, flushed to disk after every append
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONLFile appends serialized records to a single file. It does not check
// for duplicate ids; callers consult a Collection first.
type JSONLFile struct {
	path string
	mu   sync.Mutex
}

// NewJSONLFile returns an appender for path. The file is created on first append.
func NewJSONLFile(path string) *JSONLFile {
	return &JSONLFile{path: path}
}

// Path returns the file location
func (f *JSONLFile) Path() string {
	return f.path
}

// Append writes record as one line and syncs the file
func (f *JSONLFile) Append(record any) error {
	line, err := encodeLine(record)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.path, err)
	}

	if _, err := file.Write(line); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to append to %s: %w", f.path, err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to flush %s: %w", f.path, err)
	}
	return file.Close()
}

// encodeLine marshals record without HTML escaping; chat template tokens
// such as "<|eot_id|>" stay readable in the output.
func encodeLine(record any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(record); err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	return buf.Bytes(), nil
}
