package store

// EventRecord is one row of the append-only events table.
type EventRecord struct {
	ID           int64  `json:"id"`
	EventType    string `json:"event_type"`
	Timestamp    string `json:"timestamp"`
	AgentID      string `json:"agent_id"`
	AgentName    string `json:"agent_name"`
	Platform     string `json:"platform"`
	SessionID    string `json:"session_id"`
	TaskID       string `json:"task_id"`
	Project      string `json:"project"`
	TeamID       string `json:"team_id"`
	MetadataJSON string `json:"metadata_json"`
}

// EventSummary is the read-model row served by the recent-events query.
type EventSummary struct {
	Type      string         `json:"type"`
	Timestamp string         `json:"timestamp"`
	AgentID   string         `json:"agent_id"`
	Project   string         `json:"project"`
	Metadata  map[string]any `json:"metadata"`
}

// Agent is a registered event producer.
type Agent struct {
	AgentID             string `json:"agent_id"`
	AgentName           string `json:"agent_name"`
	Platform            string `json:"platform"`
	Status              string `json:"status"`
	FirstSeen           string `json:"first_seen"`
	LastSeen            string `json:"last_seen"`
	TotalEvents         int    `json:"total_events"`
	TotalTasksCompleted int    `json:"total_tasks_completed"`
	TotalTasksFailed    int    `json:"total_tasks_failed"`
}

const (
	AgentStatusActive   = "active"
	AgentStatusInactive = "inactive"
)

// Session is a bounded period of agent activity, opened by agent.started
// and closed by agent.stopped.
type Session struct {
	SessionID      string `json:"session_id"`
	AgentID        string `json:"agent_id"`
	Project        string `json:"project"`
	TeamID         string `json:"team_id"`
	StartedAt      string `json:"started_at"`
	EndedAt        string `json:"ended_at,omitempty"`
	DurationMS     *int64 `json:"duration_ms,omitempty"`
	Status         string `json:"status"`
	TasksCompleted int    `json:"tasks_completed"`
	FilesModified  int    `json:"files_modified"`
}

const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

// Task is a unit of work claimed by an agent and resolved to completion or
// failure.
type Task struct {
	TaskID        string `json:"task_id"`
	AgentID       string `json:"agent_id"`
	SessionID     string `json:"session_id"`
	Project       string `json:"project"`
	TeamID        string `json:"team_id"`
	TaskName      string `json:"task_name"`
	Priority      string `json:"priority"`
	Status        string `json:"status"`
	ClaimedAt     string `json:"claimed_at"`
	CompletedAt   string `json:"completed_at,omitempty"`
	DurationMS    *int64 `json:"duration_ms,omitempty"`
	Outcome       string `json:"outcome,omitempty"`
	FilesModified int    `json:"files_modified"`
	LinesAdded    int    `json:"lines_added"`
	TestsAdded    int    `json:"tests_added"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

const (
	TaskStatusClaimed   = "claimed"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

// ToolUsage is one recorded tool invocation.
type ToolUsage struct {
	ID           int64  `json:"id"`
	Timestamp    string `json:"timestamp"`
	AgentID      string `json:"agent_id"`
	SessionID    string `json:"session_id"`
	TaskID       string `json:"task_id"`
	ToolName     string `json:"tool_name"`
	Success      bool   `json:"success"`
	DurationMS   *int64 `json:"duration_ms,omitempty"`
	MetadataJSON string `json:"metadata_json"`
}

// TokenUsage is one recorded token/cost accounting entry.
type TokenUsage struct {
	ID           int64   `json:"id"`
	Timestamp    string  `json:"timestamp"`
	AgentID      string  `json:"agent_id"`
	SessionID    string  `json:"session_id"`
	TaskID       string  `json:"task_id"`
	Model        string  `json:"model"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	MetadataJSON string  `json:"metadata_json"`
}

const Schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_type TEXT,
	timestamp TEXT,
	agent_id TEXT,
	agent_name TEXT,
	platform TEXT,
	session_id TEXT,
	task_id TEXT,
	project TEXT,
	team_id TEXT,
	metadata_json TEXT DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_events_agent ON events(agent_id);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);

CREATE TABLE IF NOT EXISTS agents (
	agent_id TEXT PRIMARY KEY,
	agent_name TEXT,
	platform TEXT,
	status TEXT NOT NULL DEFAULT 'active',
	first_seen TEXT,
	last_seen TEXT,
	total_events INTEGER NOT NULL DEFAULT 1,
	total_tasks_completed INTEGER NOT NULL DEFAULT 0,
	total_tasks_failed INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	agent_id TEXT,
	project TEXT,
	team_id TEXT,
	started_at TEXT,
	ended_at TEXT,
	duration_ms INTEGER,
	status TEXT NOT NULL DEFAULT 'active',
	tasks_completed INTEGER NOT NULL DEFAULT 0,
	files_modified INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_sessions_agent ON sessions(agent_id);

CREATE TABLE IF NOT EXISTS tasks (
	task_id TEXT PRIMARY KEY,
	agent_id TEXT,
	session_id TEXT,
	project TEXT,
	team_id TEXT,
	task_name TEXT,
	priority TEXT,
	status TEXT NOT NULL DEFAULT 'claimed',
	claimed_at TEXT,
	completed_at TEXT,
	duration_ms INTEGER,
	outcome TEXT,
	files_modified INTEGER NOT NULL DEFAULT 0,
	lines_added INTEGER NOT NULL DEFAULT 0,
	tests_added INTEGER NOT NULL DEFAULT 0,
	error_message TEXT
);
CREATE INDEX IF NOT EXISTS idx_tasks_agent ON tasks(agent_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

CREATE TABLE IF NOT EXISTS tool_usage (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT,
	agent_id TEXT,
	session_id TEXT,
	task_id TEXT,
	tool_name TEXT,
	success BOOLEAN NOT NULL DEFAULT 1,
	duration_ms INTEGER,
	metadata_json TEXT DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_tool_usage_agent ON tool_usage(agent_id);

CREATE TABLE IF NOT EXISTS token_usage (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT,
	agent_id TEXT,
	session_id TEXT,
	task_id TEXT,
	model TEXT,
	input_tokens INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	total_tokens INTEGER NOT NULL DEFAULT 0,
	cost_usd REAL NOT NULL DEFAULT 0,
	metadata_json TEXT DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_token_usage_agent ON token_usage(agent_id);
`
