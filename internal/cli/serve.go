package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AgentPulse/AgentPulse/internal/collector"
	"github.com/AgentPulse/AgentPulse/internal/config"
	"github.com/AgentPulse/AgentPulse/internal/server"
	"github.com/AgentPulse/AgentPulse/internal/store"
	"github.com/AgentPulse/AgentPulse/internal/stream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the telemetry collector",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	printHeader("📡 AgentPulse Collector")
	fmt.Println("Starting AgentPulse Collector...")

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}

	// 2. Open the projection store
	st, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		fmt.Printf("Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()
	fmt.Printf("✓ Store ready: %s\n", cfg.Storage.DBPath)

	// 3. Open the append-only event stream
	w, err := stream.NewWriter(cfg.Storage.StreamPath)
	if err != nil {
		fmt.Printf("Failed to open event stream: %v\n", err)
		os.Exit(1)
	}
	defer w.Close()
	fmt.Printf("✓ Event stream ready: %s\n", cfg.Storage.StreamPath)

	// 4. Wire the collector, with the optional Kafka mirror
	c := collector.New(st, w)
	if cfg.Mirror.Enabled {
		mirror := stream.NewKafkaMirror(cfg.Mirror.Brokers, cfg.Mirror.Topic)
		defer mirror.Close()
		c.SetMirror(mirror)
		fmt.Printf("📡 Kafka mirror enabled: %s → %s\n", cfg.Mirror.Brokers, cfg.Mirror.Topic)
	}

	// 5. Start the API server
	addr := cfg.Addr()
	srv := &http.Server{
		Addr:    addr,
		Handler: server.New(c, st).Handler(),
	}
	go func() {
		fmt.Printf("📡 Collector listening on http://%s\n", addr)
		fmt.Println("   POST /events    ingest a telemetry event")
		fmt.Println("   GET  /events    recent events (?limit=N)")
		fmt.Println("   GET  /health    liveness probe")
		fmt.Println("   GET  /agents    agent registry")
		fmt.Println("   GET  /sessions  session lifecycle")
		fmt.Println("   GET  /tasks     task lifecycle")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("API Server Error: %v\n", err)
			os.Exit(1)
		}
	}()

	// 6. Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		fmt.Printf("⚠️ Shutdown error: %v\n", err)
	}
	fmt.Println("✓ Collector stopped")
}
