package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"idgraph/internal/platform/httpserver"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var seedFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts, seedFile)
		},
	}
	cmd.Flags().StringVar(&seedFile, "seed", "", "JSON file of persons, companies and IP intel to load at startup")
	return cmd
}

func serve(ctx context.Context, opts *rootOptions, seedFile string) error {
	cfg, log := opts.cfg, opts.logger

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	if seedFile != "" {
		if err := a.seed(ctx, seedFile); err != nil {
			return err
		}
	}

	srv := httpserver.New(cfg.Server, a.router)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.InfoContext(gctx, "starting idgraph", "addr", cfg.Server.Addr, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	for _, bg := range a.background {
		g.Go(func() error {
			if err := bg(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.InfoContext(shutdownCtx, "shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
