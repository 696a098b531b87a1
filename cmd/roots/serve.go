package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ersonp/roots-core/internal/interfaces/rest"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tree over a JSON REST API",
		Long: `Starts the REST API for one tree. With matching enabled, person
changes are indexed in the background while the server runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")

	return cmd
}

func runServe(cmd *cobra.Command, addr string) error {
	return withInternalDeps(cmd.Context(), func(d *internalDeps) error {
		if addr == "" {
			addr = d.Config.Server.Addr
		}

		server := &http.Server{
			Addr:              addr,
			Handler:           rest.NewRouter(d.RESTHandlers(), d.Logger).Setup(),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      120 * time.Second,
		}

		g, ctx := errgroup.WithContext(cmd.Context())

		if d.matchService != nil {
			g.Go(func() error {
				d.matchService.Run(ctx, d.writer)
				return nil
			})
		}

		g.Go(func() error {
			d.Logger.Info("server listening",
				zap.String("addr", addr),
				zap.Bool("match", d.matchService != nil))
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving http: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-ctx.Done()
			d.Logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})

		return g.Wait()
	})
}
