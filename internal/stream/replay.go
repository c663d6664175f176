package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/AgentPulse/AgentPulse/internal/event"
)

// Replay reads the JSONL file in arrival order and invokes fn for each
// event. Blank lines are skipped; a line that fails to decode aborts the
// replay with its line number.
func Replay(path string, fn func(e *event.Event) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open stream file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e event.Event
		if err := json.Unmarshal(line, &e); err != nil {
			return fmt.Errorf("stream line %d: %w", lineNo, err)
		}
		if e.Metadata == nil {
			e.Metadata = map[string]any{}
		}
		if err := fn(&e); err != nil {
			return fmt.Errorf("stream line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read: %w", err)
	}
	return nil
}
