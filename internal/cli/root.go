package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/AgentPulse/AgentPulse/internal/cli.version=1.2.3"
	version = "1.0.0"
	logo    = "\n" +
		"     _                    _   ____        _\n" +
		"    / \\   __ _  ___ _ __ | |_|  _ \\ _   _| |___  ___\n" +
		"   / _ \\ / _` |/ _ \\ '_ \\| __| |_) | | | | / __|/ _ \\\n" +
		"  / ___ \\ (_| |  __/ | | | |_|  __/| |_| | \\__ \\  __/\n" +
		" /_/   \\_\\__, |\\___|_| |_|\\__|_|    \\__,_|_|___/\\___|\n" +
		"         |___/\n"
)

var rootCmd = &cobra.Command{
	Use:   "agentpulse",
	Short: "AgentPulse - Agent Telemetry Collector",
	Long:  color.CyanString(logo) + "\nA lightweight observability collector for distributed agent fleets.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func printHeader(title string) {
	fmt.Println(color.CyanString(logo))
	if title != "" {
		fmt.Println(title)
		fmt.Println("─────────────────────")
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
}
