package collector

import (
	"database/sql"

	"github.com/AgentPulse/AgentPulse/internal/event"
	"github.com/AgentPulse/AgentPulse/internal/store"
)

// openSession handles agent.started: blind insert of an active session.
// A reused session_id surfaces as ErrDuplicateKey from the store.
func (c *Collector) openSession(tx *sql.Tx, e *event.Event) error {
	return c.store.InsertSession(tx, &store.Session{
		SessionID: e.SessionID,
		AgentID:   e.AgentID,
		Project:   e.Project,
		TeamID:    e.TeamID,
		StartedAt: e.Timestamp,
	})
}

// closeSession handles agent.stopped: completes the matching session with
// the run metrics carried in metadata. Unknown session_id is a no-op.
func (c *Collector) closeSession(tx *sql.Tx, e *event.Event) error {
	return c.store.CloseSession(tx,
		e.SessionID,
		e.Timestamp,
		e.MetaDurationMS(),
		e.MetaInt("tasks_completed", 0),
		e.MetaInt("files_modified", 0),
	)
}

// claimTask handles task.claimed: blind insert of a claimed task.
func (c *Collector) claimTask(tx *sql.Tx, e *event.Event) error {
	return c.store.InsertTask(tx, &store.Task{
		TaskID:    e.TaskID,
		AgentID:   e.AgentID,
		SessionID: e.SessionID,
		Project:   e.Project,
		TeamID:    e.TeamID,
		TaskName:  e.MetaString("task_name", "Unknown"),
		Priority:  e.MetaString("priority", "medium"),
		ClaimedAt: e.Timestamp,
	})
}

// completeTask handles task.completed. The agent counter increment is an
// independent statement and runs even when the task update matched zero
// rows.
func (c *Collector) completeTask(tx *sql.Tx, e *event.Event) error {
	if err := c.store.CompleteTask(tx,
		e.TaskID,
		e.Timestamp,
		e.MetaDurationMS(),
		e.MetaString("outcome", "success"),
		e.MetaInt("files_modified", 0),
		e.MetaInt("lines_changed", 0),
		e.MetaInt("tests_added", 0),
	); err != nil {
		return err
	}
	return c.store.IncrementTasksCompleted(tx, e.AgentID)
}

// failTask handles task.failed, symmetric to completeTask.
func (c *Collector) failTask(tx *sql.Tx, e *event.Event) error {
	if err := c.store.FailTask(tx,
		e.TaskID,
		e.Timestamp,
		e.MetaDurationMS(),
		e.MetaString("error", ""),
	); err != nil {
		return err
	}
	return c.store.IncrementTasksFailed(tx, e.AgentID)
}

// recordToolUsage appends one tool invocation. The tool name falls back to
// the token after the event type's first separator; success defaults to
// true.
func (c *Collector) recordToolUsage(tx *sql.Tx, e *event.Event) error {
	return c.store.InsertToolUsage(tx, &store.ToolUsage{
		Timestamp:    e.Timestamp,
		AgentID:      e.AgentID,
		SessionID:    e.SessionID,
		TaskID:       e.TaskID,
		ToolName:     e.MetaString("tool_name", event.DerivedToolName(e.Type)),
		Success:      e.MetaBool("success", true),
		DurationMS:   e.MetaDurationMS(),
		MetadataJSON: e.MetadataJSON(),
	})
}

// recordTokenUsage appends one token accounting entry with counts and cost
// defaulting to zero.
func (c *Collector) recordTokenUsage(tx *sql.Tx, e *event.Event) error {
	return c.store.InsertTokenUsage(tx, &store.TokenUsage{
		Timestamp:    e.Timestamp,
		AgentID:      e.AgentID,
		SessionID:    e.SessionID,
		TaskID:       e.TaskID,
		Model:        e.MetaString("model", ""),
		InputTokens:  e.MetaInt("input_tokens", 0),
		OutputTokens: e.MetaInt("output_tokens", 0),
		TotalTokens:  e.MetaInt("total_tokens", 0),
		CostUSD:      e.MetaFloat("cost_usd", 0),
		MetadataJSON: e.MetadataJSON(),
	})
}
