// Package stream owns the durable side channels for accepted events: the
// append-only JSONL file that is the system's source of truth, and an
// optional Kafka mirror for downstream consumers.
package stream

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Writer appends one JSON line per accepted event to a single growing
// file. It never reads, rotates or truncates the file.
type Writer struct {
	mu sync.Mutex
	f  *os.File
}

// NewWriter opens (creating parent directories as needed) the JSONL file
// for appending.
func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create stream dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream file: %w", err)
	}
	return &Writer{f: f}, nil
}

// Append writes one record as a single line and syncs before returning.
func (w *Writer) Append(line []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("stream append: %w", err)
	}
	if err := w.f.Sync(); err != nil {
		return fmt.Errorf("stream sync: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
