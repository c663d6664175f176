package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AgentPulse/AgentPulse/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("🏷️ AgentPulse Version")
		fmt.Printf("Version: %s\n", version)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show collector status",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("📊 AgentPulse Status")
		fmt.Printf("Version: %s\n", version)

		// Check config
		if path, err := config.ConfigPath(); err == nil {
			if _, err := os.Stat(path); err == nil {
				fmt.Println("Config:  ✓ Found (" + path + ")")
			} else {
				fmt.Println("Config:  ✗ Not found (using defaults)")
			}
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("Config error: %v\n", err)
			os.Exit(1)
		}

		// Check on-disk state
		if _, err := os.Stat(cfg.Storage.DBPath); err == nil {
			fmt.Println("Store:   ✓ Found (" + cfg.Storage.DBPath + ")")
		} else {
			fmt.Println("Store:   ✗ Not found (run 'agentpulse serve' first)")
		}
		if _, err := os.Stat(cfg.Storage.StreamPath); err == nil {
			fmt.Println("Stream:  ✓ Found (" + cfg.Storage.StreamPath + ")")
		} else {
			fmt.Println("Stream:  ✗ Not found")
		}

		// Probe the running collector
		client := &http.Client{Timeout: 2 * time.Second}
		resp, err := client.Get("http://" + cfg.Addr() + "/health")
		if err != nil {
			fmt.Println("Health:  ✗ Collector not reachable at " + cfg.Addr())
			return
		}
		defer resp.Body.Close()

		var body struct {
			Status string `json:"status"`
		}
		if resp.StatusCode == http.StatusOK && json.NewDecoder(resp.Body).Decode(&body) == nil && body.Status == "healthy" {
			fmt.Println("Health:  ✓ Collector healthy at " + cfg.Addr())
		} else {
			fmt.Printf("Health:  ⚠️ Unexpected response (HTTP %d)\n", resp.StatusCode)
		}
	},
}
