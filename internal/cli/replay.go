package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AgentPulse/AgentPulse/internal/collector"
	"github.com/AgentPulse/AgentPulse/internal/config"
	"github.com/AgentPulse/AgentPulse/internal/event"
	"github.com/AgentPulse/AgentPulse/internal/store"
	"github.com/AgentPulse/AgentPulse/internal/stream"
)

var (
	replayStreamPath string
	replayDBPath     string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Rebuild the projection database from the event stream",
	Long:  "Reads the append-only JSONL event stream and re-projects every event into a database. Point --db at a fresh path to rebuild from scratch.",
	Run:   runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayStreamPath, "stream", "", "event stream to replay (default: configured stream path)")
	replayCmd.Flags().StringVar(&replayDBPath, "db", "", "target database (default: configured db path)")
}

func runReplay(cmd *cobra.Command, args []string) {
	printHeader("🔁 AgentPulse Replay")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}
	streamPath := replayStreamPath
	if streamPath == "" {
		streamPath = cfg.Storage.StreamPath
	}
	dbPath := replayDBPath
	if dbPath == "" {
		dbPath = cfg.Storage.DBPath
	}

	st, err := store.Open(dbPath)
	if err != nil {
		fmt.Printf("Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	c := collector.New(st, nil)

	var applied, skipped int
	err = stream.Replay(streamPath, func(e *event.Event) error {
		if err := c.Project(e); err != nil {
			skipped++
			fmt.Printf("⚠️ Skipped event (%s): %v\n", e.Type, err)
		} else {
			applied++
		}
		return nil
	})
	if err != nil {
		fmt.Printf("Replay error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Replay complete: %d applied, %d skipped\n", applied, skipped)
	for _, table := range []string{"events", "agents", "sessions", "tasks", "tool_usage", "token_usage"} {
		if n, err := st.CountRows(table); err == nil {
			fmt.Printf("   %-12s %d rows\n", table, n)
		}
	}
}
