// Package main is the entry point for the agentpulse CLI.
package main

import (
	"os"

	"github.com/AgentPulse/AgentPulse/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
