package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oghuzrustamli/iranisrael/internal/server"
)

var watchListen string

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Track the conflict continuously and serve the HTTP API",
	Long: `Watch runs fetch cycles at the configured interval and serves the
HTTP API: incident listing, manual entry, refresh triggering, and
Prometheus metrics.

Endpoints:
  GET    /api/incidents
  POST   /api/incidents
  DELETE /api/incidents/:id
  POST   /api/refresh
  POST   /api/clear
  GET    /api/status
  GET    /metrics

Example:
  iranisrael watch
  iranisrael watch --listen :9090`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchListen, "listen", "", "listen address (overrides server.listen)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.News.APIKey == "" {
		return fmt.Errorf("GNEWS_API_KEY environment variable not set")
	}
	if watchListen != "" {
		cfg.Server.Listen = watchListen
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	srv := server.New(a.incidents, a.gazetteer, a.scheduler, a.pipeline, a.logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Listen)
	}()
	go func() {
		if err := a.pipeline.Run(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("pipeline stopped", "error", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
