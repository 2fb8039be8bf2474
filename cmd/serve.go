package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/floraeval/internal/handlers"
	"github.com/lehigh-university-libraries/floraeval/internal/storage"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var resultsDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for browsing statistics reports",
		Long: `Starts a report viewer on the specified port.

The viewer loads summary.json from the results directory and from each of its
sub-directories, and serves the statistics as JSON along with the rendered
charts.`,
		Example: `  # Serve ./report on default port 8888
  floraeval serve --results ./report

  # Compare several runs on a custom port
  floraeval serve --results ./reports --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := storage.New()
			n, err := store.LoadDir(resultsDir)
			if err != nil {
				return fmt.Errorf("failed to load reports: %w", err)
			}
			slog.Info("Loaded reports", "count", n, "dir", resultsDir)

			handler := handlers.New(store)
			mux := handlers.Routes(handler)

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Report viewer available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&resultsDir, "results", "report", "Directory containing summary.json reports")

	return cmd
}
