package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func inTx(t *testing.T, st *Store, fn func(tx *sql.Tx) error) {
	t.Helper()
	tx, err := st.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		t.Fatalf("tx: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestUpsertAgentFirstEvent(t *testing.T) {
	st := newTestStore(t)
	inTx(t, st, func(tx *sql.Tx) error {
		return st.UpsertAgent(tx, "a1", "Builder", "linux", "2026-02-11T10:00:00Z", "agent.started")
	})

	a, err := st.GetAgent("a1")
	if err != nil {
		t.Fatalf("GetAgent: %v", err)
	}
	if a.Status != AgentStatusActive {
		t.Errorf("Status = %q, want active", a.Status)
	}
	if a.TotalEvents != 1 {
		t.Errorf("TotalEvents = %d, want 1", a.TotalEvents)
	}
	if a.FirstSeen != a.LastSeen {
		t.Errorf("first/last seen diverge on first event: %q vs %q", a.FirstSeen, a.LastSeen)
	}
}

func TestUpsertAgentStatusTransitions(t *testing.T) {
	st := newTestStore(t)
	ts := []string{"2026-02-11T10:00:00Z", "2026-02-11T10:01:00Z", "2026-02-11T10:02:00Z"}

	inTx(t, st, func(tx *sql.Tx) error {
		return st.UpsertAgent(tx, "a1", "Builder", "linux", ts[0], "agent.started")
	})
	inTx(t, st, func(tx *sql.Tx) error {
		return st.UpsertAgent(tx, "a1", "Builder", "linux", ts[1], "agent.stopped")
	})

	a, err := st.GetAgent("a1")
	if err != nil {
		t.Fatalf("GetAgent: %v", err)
	}
	if a.Status != AgentStatusInactive {
		t.Errorf("Status after stop = %q, want inactive", a.Status)
	}
	if a.TotalEvents != 2 {
		t.Errorf("TotalEvents = %d, want 2", a.TotalEvents)
	}
	if a.FirstSeen != ts[0] || a.LastSeen != ts[1] {
		t.Errorf("seen bounds = %q..%q, want %q..%q", a.FirstSeen, a.LastSeen, ts[0], ts[1])
	}

	// Any later event flips it back to active.
	inTx(t, st, func(tx *sql.Tx) error {
		return st.UpsertAgent(tx, "a1", "Builder", "linux", ts[2], "heartbeat")
	})
	a, _ = st.GetAgent("a1")
	if a.Status != AgentStatusActive {
		t.Errorf("Status after heartbeat = %q, want active", a.Status)
	}
}

func TestSessionLifecycle(t *testing.T) {
	st := newTestStore(t)
	inTx(t, st, func(tx *sql.Tx) error {
		return st.InsertSession(tx, &Session{
			SessionID: "s1", AgentID: "a1", Project: "demo", StartedAt: "2026-02-11T10:00:00Z",
		})
	})

	sess, err := st.GetSession("s1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess.Status != SessionStatusActive {
		t.Errorf("Status = %q, want active", sess.Status)
	}
	if sess.DurationMS != nil {
		t.Error("DurationMS should be nil while session is open")
	}

	dur := int64(60000)
	inTx(t, st, func(tx *sql.Tx) error {
		return st.CloseSession(tx, "s1", "2026-02-11T10:01:00Z", &dur, 3, 5)
	})
	sess, _ = st.GetSession("s1")
	if sess.Status != SessionStatusCompleted {
		t.Errorf("Status = %q, want completed", sess.Status)
	}
	if sess.DurationMS == nil || *sess.DurationMS != 60000 {
		t.Errorf("DurationMS = %v, want 60000", sess.DurationMS)
	}
	if sess.TasksCompleted != 3 || sess.FilesModified != 5 {
		t.Errorf("metrics = %d/%d, want 3/5", sess.TasksCompleted, sess.FilesModified)
	}
}

func TestInsertSessionDuplicate(t *testing.T) {
	st := newTestStore(t)
	inTx(t, st, func(tx *sql.Tx) error {
		return st.InsertSession(tx, &Session{SessionID: "s1", AgentID: "a1"})
	})

	tx, err := st.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Rollback()
	err = st.InsertSession(tx, &Session{SessionID: "s1", AgentID: "a2"})
	if !IsDuplicateKey(err) {
		t.Errorf("duplicate insert error = %v, want uniqueness violation", err)
	}
}

func TestCloseUnknownSessionIsNoOp(t *testing.T) {
	st := newTestStore(t)
	inTx(t, st, func(tx *sql.Tx) error {
		return st.CloseSession(tx, "ghost", "2026-02-11T10:00:00Z", nil, 0, 0)
	})
	if _, err := st.GetSession("ghost"); err != sql.ErrNoRows {
		t.Errorf("GetSession(ghost) err = %v, want ErrNoRows", err)
	}
}

func TestTaskLifecycle(t *testing.T) {
	st := newTestStore(t)
	inTx(t, st, func(tx *sql.Tx) error {
		return st.InsertTask(tx, &Task{
			TaskID: "t1", AgentID: "a1", SessionID: "s1",
			TaskName: "refactor", Priority: "high", ClaimedAt: "2026-02-11T10:00:00Z",
		})
	})

	task, err := st.GetTask("t1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.Status != TaskStatusClaimed {
		t.Errorf("Status = %q, want claimed", task.Status)
	}

	dur := int64(2500)
	inTx(t, st, func(tx *sql.Tx) error {
		return st.CompleteTask(tx, "t1", "2026-02-11T10:05:00Z", &dur, "success", 2, 40, 1)
	})
	task, _ = st.GetTask("t1")
	if task.Status != TaskStatusCompleted || task.Outcome != "success" {
		t.Errorf("task = %q/%q, want completed/success", task.Status, task.Outcome)
	}
	if task.FilesModified != 2 || task.LinesAdded != 40 || task.TestsAdded != 1 {
		t.Errorf("metrics = %d/%d/%d, want 2/40/1", task.FilesModified, task.LinesAdded, task.TestsAdded)
	}
}

func TestFailTask(t *testing.T) {
	st := newTestStore(t)
	inTx(t, st, func(tx *sql.Tx) error {
		return st.InsertTask(tx, &Task{TaskID: "t1", AgentID: "a1", ClaimedAt: "2026-02-11T10:00:00Z"})
	})
	inTx(t, st, func(tx *sql.Tx) error {
		return st.FailTask(tx, "t1", "2026-02-11T10:05:00Z", nil, "timeout waiting for review")
	})

	task, err := st.GetTask("t1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.Status != TaskStatusFailed || task.Outcome != "failure" {
		t.Errorf("task = %q/%q, want failed/failure", task.Status, task.Outcome)
	}
	if task.ErrorMessage != "timeout waiting for review" {
		t.Errorf("ErrorMessage = %q", task.ErrorMessage)
	}
}

func TestAgentCounters(t *testing.T) {
	st := newTestStore(t)
	inTx(t, st, func(tx *sql.Tx) error {
		return st.UpsertAgent(tx, "a1", "Builder", "linux", "2026-02-11T10:00:00Z", "agent.started")
	})
	inTx(t, st, func(tx *sql.Tx) error {
		if err := st.IncrementTasksCompleted(tx, "a1"); err != nil {
			return err
		}
		if err := st.IncrementTasksCompleted(tx, "a1"); err != nil {
			return err
		}
		return st.IncrementTasksFailed(tx, "a1")
	})

	a, err := st.GetAgent("a1")
	if err != nil {
		t.Fatalf("GetAgent: %v", err)
	}
	if a.TotalTasksCompleted != 2 || a.TotalTasksFailed != 1 {
		t.Errorf("counters = %d/%d, want 2/1", a.TotalTasksCompleted, a.TotalTasksFailed)
	}
}

func TestRecentEventsOrderAndLimit(t *testing.T) {
	st := newTestStore(t)
	for i := 0; i < 5; i++ {
		rec := &EventRecord{
			EventType: "heartbeat", AgentID: "a1",
			Timestamp:    fmt.Sprintf("2026-02-11T10:00:0%dZ", i),
			MetadataJSON: "{}",
		}
		inTx(t, st, func(tx *sql.Tx) error { return st.InsertEvent(tx, rec) })
	}

	events, err := st.RecentEvents(3)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len = %d, want 3", len(events))
	}
	// Most recent arrival first.
	if events[0].Timestamp != "2026-02-11T10:00:04Z" {
		t.Errorf("first = %q, want newest", events[0].Timestamp)
	}
	if events[2].Timestamp != "2026-02-11T10:00:02Z" {
		t.Errorf("third = %q", events[2].Timestamp)
	}
}

func TestToolAndTokenUsageInserts(t *testing.T) {
	st := newTestStore(t)
	dur := int64(120)
	inTx(t, st, func(tx *sql.Tx) error {
		if err := st.InsertToolUsage(tx, &ToolUsage{
			Timestamp: "2026-02-11T10:00:00Z", AgentID: "a1", ToolName: "bash",
			Success: true, DurationMS: &dur, MetadataJSON: "{}",
		}); err != nil {
			return err
		}
		return st.InsertTokenUsage(tx, &TokenUsage{
			Timestamp: "2026-02-11T10:00:00Z", AgentID: "a1", Model: "gpt-4o",
			InputTokens: 100, OutputTokens: 50, TotalTokens: 150, CostUSD: 0.01,
			MetadataJSON: "{}",
		})
	})

	for table, want := range map[string]int{"tool_usage": 1, "token_usage": 1} {
		if n, err := st.CountRows(table); err != nil || n != want {
			t.Errorf("CountRows(%s) = %d, %v", table, n, err)
		}
	}
}

func TestCountRowsRejectsUnknownTable(t *testing.T) {
	st := newTestStore(t)
	if _, err := st.CountRows("sqlite_master"); err == nil {
		t.Error("CountRows accepted a table outside the schema")
	}
}
