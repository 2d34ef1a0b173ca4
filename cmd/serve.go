package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facepoke/internal/config"
	"github.com/kozaktomas/facepoke/internal/database"
	"github.com/kozaktomas/facepoke/internal/database/postgres"
	"github.com/kozaktomas/facepoke/internal/session"
	"github.com/kozaktomas/facepoke/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the FacePoke web server.
The web server manages editing sessions, composes expression edits,
streams preview frames and serves the edit history API.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

// initHistory connects the optional PostgreSQL edit history. With no
// DATABASE_URL the service runs with history disabled.
func initHistory(cfg *config.Config) (database.HistoryWriter, database.HistoryReader, func(), error) {
	if cfg.Database.URL == "" {
		fmt.Println("No DATABASE_URL set, edit history disabled")
		return nil, nil, func() {}, nil
	}

	fmt.Println("Connecting to PostgreSQL database...")
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	repo := postgres.NewHistoryRepository(pool)
	fmt.Println("Edit history enabled (PostgreSQL)")
	return repo, repo, func() { _ = pool.Close() }, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	engine, err := newEngineClient(cfg)
	if err != nil {
		return err
	}

	historyWriter, historyReader, closeHistory, err := initHistory(cfg)
	if err != nil {
		return err
	}
	defer closeHistory()

	sessions := session.NewManager(engine, historyWriter, cfg.Session.TTL)
	defer sessions.Close()

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, port, host, sessions, historyReader)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting FacePoke on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
