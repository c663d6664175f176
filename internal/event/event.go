// Package event defines the wire-level telemetry event and its defaulting
// rules. A Submission keeps field presence explicit; Materialize produces
// the fully defaulted Event that the rest of the pipeline works with.
package event

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Submission is the raw inbound event as posted by an agent. Pointer fields
// distinguish "absent" from "present but zero" so defaults are applied in
// exactly one place.
type Submission struct {
	Type      *string        `json:"type"`
	Timestamp *string        `json:"timestamp"`
	AgentID   *string        `json:"agent_id"`
	AgentName *string        `json:"agent_name"`
	Platform  *string        `json:"platform"`
	SessionID *string        `json:"session_id"`
	TaskID    *string        `json:"task_id"`
	Project   *string        `json:"project"`
	TeamID    *string        `json:"team_id"`
	Metadata  map[string]any `json:"metadata"`
}

// Event is a defaulted, ready-to-ingest telemetry event. Its JSON form is
// the record written to the durable stream, one per line.
type Event struct {
	Type      string         `json:"type"`
	Timestamp string         `json:"timestamp"`
	AgentID   string         `json:"agent_id"`
	AgentName string         `json:"agent_name"`
	Platform  string         `json:"platform"`
	SessionID string         `json:"session_id"`
	TaskID    string         `json:"task_id"`
	Project   string         `json:"project"`
	TeamID    string         `json:"team_id"`
	Metadata  map[string]any `json:"metadata"`
}

// Parse decodes a raw submission body into a defaulted Event.
func Parse(raw []byte) (*Event, error) {
	var sub Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("parse event: %w", err)
	}
	return sub.Materialize(), nil
}

// Materialize applies the per-field defaults: absent strings become empty,
// agent_name falls back to agent_id, platform falls back to "unknown",
// metadata falls back to an empty map.
func (s *Submission) Materialize() *Event {
	e := &Event{
		Type:      deref(s.Type),
		Timestamp: deref(s.Timestamp),
		AgentID:   deref(s.AgentID),
		AgentName: deref(s.AgentName),
		Platform:  deref(s.Platform),
		SessionID: deref(s.SessionID),
		TaskID:    deref(s.TaskID),
		Project:   deref(s.Project),
		TeamID:    deref(s.TeamID),
		Metadata:  s.Metadata,
	}
	if e.AgentName == "" {
		e.AgentName = e.AgentID
	}
	if e.Platform == "" {
		e.Platform = "unknown"
	}
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	return e
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Line returns the JSONL form of the event (no trailing newline).
func (e *Event) Line() ([]byte, error) {
	return json.Marshal(e)
}

// MetadataJSON returns the metadata mapping serialized for storage.
func (e *Event) MetadataJSON() string {
	data, err := json.Marshal(e.Metadata)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// MetaString returns a string metadata value, or def when absent or not a
// string.
func (e *Event) MetaString(key, def string) string {
	if v, ok := e.Metadata[key].(string); ok {
		return v
	}
	return def
}

// MetaInt returns an integer metadata value, or def when absent. JSON
// numbers decode as float64 and are truncated.
func (e *Event) MetaInt(key string, def int) int {
	if v, ok := e.MetaNumber(key); ok {
		return int(v)
	}
	return def
}

// MetaFloat returns a numeric metadata value, or def when absent.
func (e *Event) MetaFloat(key string, def float64) float64 {
	if v, ok := e.MetaNumber(key); ok {
		return v
	}
	return def
}

// MetaNumber reports a numeric metadata value and whether it was present.
func (e *Event) MetaNumber(key string) (float64, bool) {
	switch v := e.Metadata[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// MetaBool returns a boolean metadata value, or def when absent.
func (e *Event) MetaBool(key string, def bool) bool {
	if v, ok := e.Metadata[key].(bool); ok {
		return v
	}
	return def
}

// MetaDurationMS returns the duration_ms metadata value when present. The
// column stays NULL when the producer did not report a duration.
func (e *Event) MetaDurationMS() *int64 {
	if v, ok := e.MetaNumber("duration_ms"); ok {
		ms := int64(v)
		return &ms
	}
	return nil
}

// DerivedToolName returns the tool name implied by the event type when the
// metadata does not carry one: the token after the first separator, so
// "agent.tool_call" yields "tool_call". A type with no separator is used
// whole.
func DerivedToolName(eventType string) string {
	if _, rest, ok := strings.Cut(eventType, "."); ok {
		return rest
	}
	return eventType
}
