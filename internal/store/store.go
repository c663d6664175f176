// Package store is the relational side of the collector: an SQLite
// database holding the raw event log projection and the derived agent,
// session, task and usage tables.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite handle. All derived-state writes go through an
// explicit transaction begun by the caller so one submission commits as a
// single unit.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dbPath and applies the
// schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open store db: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// DB returns the underlying *sql.DB for shared read access.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error {
	return s.db.Close()
}

// Begin starts the transaction covering one submission's derived writes.
func (s *Store) Begin() (*sql.Tx, error) {
	return s.db.Begin()
}

// IsDuplicateKey reports whether err is an SQLite uniqueness violation.
func IsDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}

// InsertEvent appends one row to the events table.
func (s *Store) InsertEvent(tx *sql.Tx, rec *EventRecord) error {
	_, err := tx.Exec(`INSERT INTO events
		(event_type, timestamp, agent_id, agent_name, platform, session_id, task_id, project, team_id, metadata_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.EventType, rec.Timestamp, rec.AgentID, rec.AgentName, rec.Platform,
		rec.SessionID, rec.TaskID, rec.Project, rec.TeamID, rec.MetadataJSON)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// UpsertAgent registers an agent on its first event and refreshes
// last_seen, total_events and status on every later one. Status follows
// only the triggering event: inactive on an explicit stop, active
// otherwise.
func (s *Store) UpsertAgent(tx *sql.Tx, agentID, agentName, platform, timestamp, eventType string) error {
	_, err := tx.Exec(`INSERT INTO agents (agent_id, agent_name, platform, status, first_seen, last_seen)
		VALUES (?, ?, ?, 'active', ?, ?)
		ON CONFLICT(agent_id) DO UPDATE SET
			last_seen = excluded.last_seen,
			total_events = total_events + 1,
			status = CASE WHEN ? = 'agent.stopped' THEN 'inactive' ELSE 'active' END`,
		agentID, agentName, platform, timestamp, timestamp, eventType)
	if err != nil {
		return fmt.Errorf("upsert agent: %w", err)
	}
	return nil
}

// InsertSession performs the blind session insert; a duplicate session_id
// surfaces as the store's uniqueness violation.
func (s *Store) InsertSession(tx *sql.Tx, sess *Session) error {
	_, err := tx.Exec(`INSERT INTO sessions (session_id, agent_id, project, team_id, started_at, status)
		VALUES (?, ?, ?, ?, ?, 'active')`,
		sess.SessionID, sess.AgentID, sess.Project, sess.TeamID, sess.StartedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// CloseSession marks a session completed. Zero rows affected (unknown
// session_id) is not an error.
func (s *Store) CloseSession(tx *sql.Tx, sessionID, endedAt string, durationMS *int64, tasksCompleted, filesModified int) error {
	_, err := tx.Exec(`UPDATE sessions
		SET ended_at = ?, duration_ms = ?, status = 'completed', tasks_completed = ?, files_modified = ?
		WHERE session_id = ?`,
		endedAt, nullableInt(durationMS), tasksCompleted, filesModified, sessionID)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

// InsertTask performs the blind task insert; a duplicate task_id surfaces
// as the store's uniqueness violation.
func (s *Store) InsertTask(tx *sql.Tx, task *Task) error {
	_, err := tx.Exec(`INSERT INTO tasks
		(task_id, agent_id, session_id, project, team_id, task_name, priority, status, claimed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'claimed', ?)`,
		task.TaskID, task.AgentID, task.SessionID, task.Project, task.TeamID,
		task.TaskName, task.Priority, task.ClaimedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// CompleteTask moves a task to completed with its outcome metrics. Unknown
// task_id affects zero rows and is not an error.
func (s *Store) CompleteTask(tx *sql.Tx, taskID, completedAt string, durationMS *int64, outcome string, filesModified, linesAdded, testsAdded int) error {
	_, err := tx.Exec(`UPDATE tasks
		SET status = 'completed', completed_at = ?, duration_ms = ?, outcome = ?,
			files_modified = ?, lines_added = ?, tests_added = ?
		WHERE task_id = ?`,
		completedAt, nullableInt(durationMS), outcome, filesModified, linesAdded, testsAdded, taskID)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}

// FailTask moves a task to failed. Unknown task_id affects zero rows and is
// not an error.
func (s *Store) FailTask(tx *sql.Tx, taskID, completedAt string, durationMS *int64, errorMessage string) error {
	_, err := tx.Exec(`UPDATE tasks
		SET status = 'failed', completed_at = ?, duration_ms = ?, outcome = 'failure', error_message = ?
		WHERE task_id = ?`,
		completedAt, nullableInt(durationMS), errorMessage, taskID)
	if err != nil {
		return fmt.Errorf("fail task: %w", err)
	}
	return nil
}

// IncrementTasksCompleted bumps an agent's completed counter. This runs
// even when the matching task update affected zero rows; the two writes
// are independent statements.
func (s *Store) IncrementTasksCompleted(tx *sql.Tx, agentID string) error {
	_, err := tx.Exec(`UPDATE agents SET total_tasks_completed = total_tasks_completed + 1 WHERE agent_id = ?`, agentID)
	if err != nil {
		return fmt.Errorf("increment tasks completed: %w", err)
	}
	return nil
}

// IncrementTasksFailed bumps an agent's failed counter.
func (s *Store) IncrementTasksFailed(tx *sql.Tx, agentID string) error {
	_, err := tx.Exec(`UPDATE agents SET total_tasks_failed = total_tasks_failed + 1 WHERE agent_id = ?`, agentID)
	if err != nil {
		return fmt.Errorf("increment tasks failed: %w", err)
	}
	return nil
}

// InsertToolUsage appends one tool invocation record.
func (s *Store) InsertToolUsage(tx *sql.Tx, u *ToolUsage) error {
	_, err := tx.Exec(`INSERT INTO tool_usage
		(timestamp, agent_id, session_id, task_id, tool_name, success, duration_ms, metadata_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Timestamp, u.AgentID, u.SessionID, u.TaskID, u.ToolName, u.Success,
		nullableInt(u.DurationMS), u.MetadataJSON)
	if err != nil {
		return fmt.Errorf("insert tool usage: %w", err)
	}
	return nil
}

// InsertTokenUsage appends one token accounting record.
func (s *Store) InsertTokenUsage(tx *sql.Tx, u *TokenUsage) error {
	_, err := tx.Exec(`INSERT INTO token_usage
		(timestamp, agent_id, session_id, task_id, model, input_tokens, output_tokens, total_tokens, cost_usd, metadata_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Timestamp, u.AgentID, u.SessionID, u.TaskID, u.Model,
		u.InputTokens, u.OutputTokens, u.TotalTokens, u.CostUSD, u.MetadataJSON)
	if err != nil {
		return fmt.Errorf("insert token usage: %w", err)
	}
	return nil
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

// --- Read side ---

// RecentEvents returns up to limit event summaries, most recent arrival
// first.
func (s *Store) RecentEvents(limit int) ([]EventSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`SELECT event_type, COALESCE(timestamp,''), COALESCE(agent_id,''), COALESCE(project,''), COALESCE(metadata_json,'')
		FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	defer rows.Close()

	var out []EventSummary
	for rows.Next() {
		var e EventSummary
		var metaJSON string
		if err := rows.Scan(&e.Type, &e.Timestamp, &e.AgentID, &e.Project, &metaJSON); err != nil {
			return nil, err
		}
		e.Metadata = map[string]any{}
		if metaJSON != "" {
			_ = json.Unmarshal([]byte(metaJSON), &e.Metadata)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetAgent returns one agent row, or sql.ErrNoRows.
func (s *Store) GetAgent(agentID string) (*Agent, error) {
	var a Agent
	err := s.db.QueryRow(`SELECT agent_id, COALESCE(agent_name,''), COALESCE(platform,''), status,
		COALESCE(first_seen,''), COALESCE(last_seen,''), total_events, total_tasks_completed, total_tasks_failed
		FROM agents WHERE agent_id = ?`, agentID).
		Scan(&a.AgentID, &a.AgentName, &a.Platform, &a.Status,
			&a.FirstSeen, &a.LastSeen, &a.TotalEvents, &a.TotalTasksCompleted, &a.TotalTasksFailed)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAgents returns up to limit agents ordered by last activity.
func (s *Store) ListAgents(limit int) ([]Agent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`SELECT agent_id, COALESCE(agent_name,''), COALESCE(platform,''), status,
		COALESCE(first_seen,''), COALESCE(last_seen,''), total_events, total_tasks_completed, total_tasks_failed
		FROM agents ORDER BY last_seen DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var out []Agent
	for rows.Next() {
		var a Agent
		if err := rows.Scan(&a.AgentID, &a.AgentName, &a.Platform, &a.Status,
			&a.FirstSeen, &a.LastSeen, &a.TotalEvents, &a.TotalTasksCompleted, &a.TotalTasksFailed); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetSession returns one session row, or sql.ErrNoRows.
func (s *Store) GetSession(sessionID string) (*Session, error) {
	var sess Session
	var durationMS sql.NullInt64
	err := s.db.QueryRow(`SELECT session_id, COALESCE(agent_id,''), COALESCE(project,''), COALESCE(team_id,''),
		COALESCE(started_at,''), COALESCE(ended_at,''), duration_ms, status, tasks_completed, files_modified
		FROM sessions WHERE session_id = ?`, sessionID).
		Scan(&sess.SessionID, &sess.AgentID, &sess.Project, &sess.TeamID,
			&sess.StartedAt, &sess.EndedAt, &durationMS, &sess.Status, &sess.TasksCompleted, &sess.FilesModified)
	if err != nil {
		return nil, err
	}
	if durationMS.Valid {
		sess.DurationMS = &durationMS.Int64
	}
	return &sess, nil
}

// ListSessions returns up to limit sessions, newest first.
func (s *Store) ListSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`SELECT session_id, COALESCE(agent_id,''), COALESCE(project,''), COALESCE(team_id,''),
		COALESCE(started_at,''), COALESCE(ended_at,''), duration_ms, status, tasks_completed, files_modified
		FROM sessions ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		var durationMS sql.NullInt64
		if err := rows.Scan(&sess.SessionID, &sess.AgentID, &sess.Project, &sess.TeamID,
			&sess.StartedAt, &sess.EndedAt, &durationMS, &sess.Status, &sess.TasksCompleted, &sess.FilesModified); err != nil {
			return nil, err
		}
		if durationMS.Valid {
			sess.DurationMS = &durationMS.Int64
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// GetTask returns one task row, or sql.ErrNoRows.
func (s *Store) GetTask(taskID string) (*Task, error) {
	var t Task
	var durationMS sql.NullInt64
	err := s.db.QueryRow(taskSelect+` WHERE task_id = ?`, taskID).
		Scan(&t.TaskID, &t.AgentID, &t.SessionID, &t.Project, &t.TeamID,
			&t.TaskName, &t.Priority, &t.Status, &t.ClaimedAt, &t.CompletedAt,
			&durationMS, &t.Outcome, &t.FilesModified, &t.LinesAdded, &t.TestsAdded, &t.ErrorMessage)
	if err != nil {
		return nil, err
	}
	if durationMS.Valid {
		t.DurationMS = &durationMS.Int64
	}
	return &t, nil
}

const taskSelect = `SELECT task_id, COALESCE(agent_id,''), COALESCE(session_id,''), COALESCE(project,''), COALESCE(team_id,''),
	COALESCE(task_name,''), COALESCE(priority,''), status, COALESCE(claimed_at,''), COALESCE(completed_at,''),
	duration_ms, COALESCE(outcome,''), files_modified, lines_added, tests_added, COALESCE(error_message,'')
	FROM tasks`

// ListTasks returns up to limit tasks, newest first.
func (s *Store) ListTasks(limit int) ([]Task, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(taskSelect+` ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		var t Task
		var durationMS sql.NullInt64
		if err := rows.Scan(&t.TaskID, &t.AgentID, &t.SessionID, &t.Project, &t.TeamID,
			&t.TaskName, &t.Priority, &t.Status, &t.ClaimedAt, &t.CompletedAt,
			&durationMS, &t.Outcome, &t.FilesModified, &t.LinesAdded, &t.TestsAdded, &t.ErrorMessage); err != nil {
			return nil, err
		}
		if durationMS.Valid {
			t.DurationMS = &durationMS.Int64
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountRows returns the row count of one of the fixed schema tables.
func (s *Store) CountRows(table string) (int, error) {
	switch table {
	case "events", "agents", "sessions", "tasks", "tool_usage", "token_usage":
	default:
		return 0, fmt.Errorf("count rows: unknown table %q", table)
	}
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n)
	return n, err
}
