// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/settlesmart/internal/server"
)

// shutdownTimeout bounds in-flight requests after a stop signal.
const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the plan HTTP API",
		Long: `Serves POST /api/plan, /api/progress and /api/export plus GET /api/schema
and /health. Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

// serve runs the API until ctx is done. A non-empty addr overrides
// server.addr.
func (a *app) serve(ctx context.Context, addr string) error {
	sc := a.cfg.Server
	if addr == "" {
		addr = sc.Addr
	}

	srv, err := server.New(a.newPipeline(), server.Options{
		Addr:                 addr,
		AllowedOrigins:       sc.AllowedOrigins,
		TrustedProxies:       sc.TrustedProxies,
		RateLimit:            sc.RateLimit,
		RateBurst:            sc.RateBurst,
		ReadTimeout:          time.Duration(sc.ReadTimeoutSecs) * time.Second,
		WriteTimeout:         time.Duration(sc.WriteTimeoutSecs) * time.Second,
		CompletionConfigured: a.cfg.Completion.HasAPIKey(),
		DefaultExportFormat:  a.cfg.Export.DefaultFormat,
		Version:              Version,
		Logger:               a.logger,
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", srv.Addr(), err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("graceful shutdown failed", zap.Error(err))
		ln.Close()
		return err
	}
	return <-errCh
}
