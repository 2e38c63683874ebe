package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pa-agent/internal/adapter/httpapi"

	"github.com/spf13/cobra"
)

const shutdownGrace = 30 * time.Second

var (
	serveAddr    string
	accessLog    bool
	accessLogRaw bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := container.Config.HTTPAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		srv := &http.Server{
			Addr: addr,
			Handler: httpapi.NewRouter(container.Handler, httpapi.RouterConfig{
				AccessLog:     accessLog,
				AccessLogJSON: !accessLogRaw,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signalContext()
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			container.Logger.Info("HTTP server listening", "addr", addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		container.Logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			container.Logger.Warn("HTTP shutdown", "error", err)
		}
		if err := container.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default HTTP_ADDR)")
	serveCmd.Flags().BoolVar(&accessLog, "access-log", true, "log every HTTP request")
	serveCmd.Flags().BoolVar(&accessLogRaw, "access-log-console", false, "human-readable access log instead of JSON")
}
