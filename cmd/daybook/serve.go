package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/unowned-ai/daybook/pkg/httpapi"
	"github.com/unowned-ai/daybook/pkg/journal"
	"github.com/unowned-ai/daybook/pkg/metrics"
	"github.com/unowned-ai/daybook/pkg/retention"
	"github.com/unowned-ai/daybook/pkg/stores"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the journal over a local JSON HTTP API",
	Long: `Starts the HTTP API on the configured address (127.0.0.1:8765 by default) together
with the trash janitor, which purges entries deleted longer ago than the retention period.

Prometheus metrics are exposed on /metrics.

Example:
  daybook serve
  daybook serve --addr 127.0.0.1:9000 --cors-origin http://localhost:5173`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		m, err := metrics.New()
		if err != nil {
			return err
		}

		svc, mgr, err := openServices(ctx, journal.WithRecorder(m))
		if err != nil {
			return err
		}
		defer mgr.Close()

		st := stores.New(svc,
			stores.WithTTL(cfg.Cache.TTL),
			stores.WithLogger(logger),
			stores.WithRecorder(m),
		)

		srv := &http.Server{
			Addr: cfg.HTTP.Addr,
			Handler: httpapi.NewRouter(httpapi.Deps{
				Stores:        st,
				Services:      svc,
				Metrics:       m,
				Log:           logger,
				CORSOrigins:   cfg.HTTP.CORSOrigins,
				SearchLimit:   cfg.Search.Limit,
				RetentionDays: cfg.Retention.Days,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		janitor := retention.NewJanitor(st.Entries, cfg.Retention.Days, cfg.Retention.Interval, logger, m)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info(gctx, "http server starting", "addr", srv.Addr, "db", mgr.Path())
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			logger.Info(shutdownCtx, "http server stopping")
			return srv.Shutdown(shutdownCtx)
		})
		g.Go(func() error {
			return janitor.Run(gctx)
		})

		return g.Wait()
	},
}

func initServeCmd() {
	serveCmd.Flags().String("addr", "127.0.0.1:8765", "Address to listen on")
	serveCmd.Flags().StringSlice("cors-origin", nil, "Allowed CORS origin (repeatable)")
}
