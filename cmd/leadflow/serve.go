package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/leadflow/internal/cli"
	httpAdapter "github.com/aretw0/leadflow/pkg/adapters/http"
	"github.com/aretw0/leadflow/pkg/wizard"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the wizard HTTP API",
	Long: `Starts the wizard API over HTTP with server-sent events and websocket streams
for toasts and state diffs, plus /health, /info, /openapi.yaml and /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		a, err := newApp(cfg, os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()

		ln, err := net.Listen("tcp", cfg.Server.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Addr, err)
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		if err := serve(ctx, a, ln); err != nil {
			return err
		}
		a.logger.Info("Leadflow server stopped gracefully", "signal", ctx.Signal())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides server.addr)")
}

// serve runs the HTTP server on ln until ctx is done, then drains it.
func serve(ctx context.Context, a *app, ln net.Listener) error {
	opts := []httpAdapter.Option{
		httpAdapter.WithStreams(a.streams),
		httpAdapter.WithLogger(a.logger),
	}
	if a.metrics != nil {
		opts = append(opts, httpAdapter.WithMetricsHandler(promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{})))
	}

	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler:           httpAdapter.NewHandler(a.svc, opts...),
		ReadHeaderTimeout: 10 * time.Second,
		// Streams end with the server context so Shutdown is not held open by SSE clients.
		BaseContext: func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		a.logger.Info("Starting leadflow server", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		return nil
	})

	if a.cfg.VariantsFile != "" && a.cfg.WatchVariants {
		g.Go(func() error {
			return wizard.WatchVariants(gctx, a.cfg.VariantsFile, a.svc.Registry(), a.logger)
		})
	}

	return g.Wait()
}
