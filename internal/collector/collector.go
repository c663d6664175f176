// Package collector is the ingestion core: it parses submissions, appends
// them to the durable JSONL stream, and projects them into the relational
// store through an ordered routing table of event-type handlers.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/AgentPulse/AgentPulse/internal/event"
	"github.com/AgentPulse/AgentPulse/internal/store"
	"github.com/AgentPulse/AgentPulse/internal/stream"
)

var (
	// ErrMalformed marks a submission body that is not a JSON object.
	// Nothing is written when it is returned.
	ErrMalformed = errors.New("malformed event")
	// ErrDuplicateKey marks a session/task id collision on the blind
	// insert handlers.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Collector drives one submission end to end. The mutex serializes the
// compound (stream append, store transaction) operation so concurrent
// submissions cannot interleave their log line with another submission's
// store writes.
type Collector struct {
	store  *store.Store
	log    *stream.Writer
	mirror stream.Publisher
	mu     sync.Mutex
	routes []route
}

// New creates a collector over the given store and stream writer. log may
// be nil for replay-only use (Project still works; Ingest does not).
func New(st *store.Store, log *stream.Writer) *Collector {
	c := &Collector{store: st, log: log}
	c.routes = c.buildRoutes()
	return c
}

// SetMirror attaches an optional downstream mirror. Mirror failures are
// logged and never fail an ingestion.
func (c *Collector) SetMirror(p stream.Publisher) {
	c.mirror = p
}

// Ingest accepts one raw submission: parse, append to the JSONL stream,
// then apply to the store as one transaction. A failed log append aborts
// before the store is touched; a failed store write after a successful
// append leaves the event durably logged but not projected.
func (c *Collector) Ingest(raw []byte) error {
	e, err := event.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	line, err := e.Line()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.log == nil {
		return errors.New("collector has no stream writer")
	}
	if err := c.log.Append(line); err != nil {
		return err
	}
	if err := c.project(e); err != nil {
		return err
	}
	if c.mirror != nil {
		if err := c.mirror.Publish(context.Background(), e.AgentID, line); err != nil {
			slog.Warn("event mirror publish failed", "event_type", e.Type, "error", err)
		}
	}
	return nil
}

// Project applies one already-parsed event to the store only. It is the
// replay path: no stream append, no mirror.
func (c *Collector) Project(e *event.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.project(e)
}

// project runs the per-submission transaction: raw event insert, agent
// upsert, then the matching handler (if any). All three commit as one
// unit.
func (c *Collector) project(e *event.Event) error {
	tx, err := c.store.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := c.store.InsertEvent(tx, &store.EventRecord{
		EventType:    e.Type,
		Timestamp:    e.Timestamp,
		AgentID:      e.AgentID,
		AgentName:    e.AgentName,
		Platform:     e.Platform,
		SessionID:    e.SessionID,
		TaskID:       e.TaskID,
		Project:      e.Project,
		TeamID:       e.TeamID,
		MetadataJSON: e.MetadataJSON(),
	}); err != nil {
		return err
	}
	if err := c.store.UpsertAgent(tx, e.AgentID, e.AgentName, e.Platform, e.Timestamp, e.Type); err != nil {
		return err
	}
	if r := c.routeFor(e.Type); r != nil {
		if err := r.apply(tx, e); err != nil {
			if store.IsDuplicateKey(err) {
				return fmt.Errorf("%w: %s: %v", ErrDuplicateKey, r.name, err)
			}
			return fmt.Errorf("%s: %w", r.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
