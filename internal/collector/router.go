package collector

import (
	"database/sql"
	"strings"

	"github.com/AgentPulse/AgentPulse/internal/event"
)

// route pairs a type predicate with the handler it selects. Routes are
// evaluated in declaration order and the first match wins, so the exact
// rules always shadow the substring rules: "task.tool_called" falls
// through the five exact matches and lands on the tool rule.
type route struct {
	name  string
	match func(eventType string) bool
	apply func(tx *sql.Tx, e *event.Event) error
}

func exact(t string) func(string) bool {
	return func(eventType string) bool { return eventType == t }
}

func substring(sub string) func(string) bool {
	return func(eventType string) bool { return strings.Contains(eventType, sub) }
}

func (c *Collector) buildRoutes() []route {
	return []route{
		{name: "session-open", match: exact("agent.started"), apply: c.openSession},
		{name: "session-close", match: exact("agent.stopped"), apply: c.closeSession},
		{name: "task-claim", match: exact("task.claimed"), apply: c.claimTask},
		{name: "task-complete", match: exact("task.completed"), apply: c.completeTask},
		{name: "task-fail", match: exact("task.failed"), apply: c.failTask},
		{name: "tool-usage", match: substring("tool"), apply: c.recordToolUsage},
		{name: "token-usage", match: substring("token"), apply: c.recordTokenUsage},
	}
}

// routeFor returns the first matching route, or nil when the event type is
// unrecognized (the event is still logged and the agent registry still
// updated).
func (c *Collector) routeFor(eventType string) *route {
	for i := range c.routes {
		if c.routes[i].match(eventType) {
			return &c.routes[i]
		}
	}
	return nil
}
