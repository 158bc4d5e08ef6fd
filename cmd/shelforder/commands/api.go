package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/shelforder/internal/api"
	"github.com/wonny/shelforder/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the admin API server",
	Long: `Starts the admin REST API.

Endpoints:
  GET  /health                          - Health check
  GET  /api/groupings/{id}/order        - Persisted order
  POST /api/groupings/{id}/sort         - Sort one grouping (?dry_run=&strategy=)
  POST /api/groupings/{id}/undo         - Restore the previous order
  GET  /api/groupings/{id}/diagnostics  - Debug view of the latest run
  POST /api/sort/all                    - Bulk sort (background)
  GET  /api/events                      - Run events (websocket)

Example:
  go run ./cmd/shelforder api
  go run ./cmd/shelforder api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort       string
	withScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default PORT)")
	apiCmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "also run the nightly re-sort scheduler")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== shelforder API Server ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port":     a.cfg.Port,
		"env":      a.cfg.Env,
		"strategy": a.cfg.Sort.Strategy,
	}).Info("Initializing API server")

	sortHandler := handlers.NewSortHandler(a.runner, a.log)
	router := api.NewRouter(sortHandler, a.hub, a.log)
	server := api.New(a.cfg, a.log, router)

	if withScheduler {
		sched, err := newScheduler(a)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	a.log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	a.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
