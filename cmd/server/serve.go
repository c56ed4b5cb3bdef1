package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jinwoo-notes/jinwoo/internal/auth"
	"github.com/jinwoo-notes/jinwoo/internal/config"
	"github.com/jinwoo-notes/jinwoo/internal/obs"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func serveCmd(flags *config.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the MCP endpoint",
		Long:  `Applies pending migrations, then serves the auth, folder, note, export and MCP routes until interrupted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadRuntime(flags)
			if err != nil {
				return err
			}
			defer obs.Close()
			cfg.PrintStartupSummary(os.Stderr)
			logger := obs.Pkg("server")

			store, err := openStore(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer store.Close()

			a, err := newApp(ctx, cfg, store, auth.Argon2Hasher{})
			if err != nil {
				return err
			}
			defer a.Close()

			cleanup, err := auth.StartSessionCleanup(ctx, a.sessions, cfg.SessionCleanupSchedule)
			if err != nil {
				return err
			}
			defer cleanup.Stop()

			srv := &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           a.handler,
				ReadHeaderTimeout: readHeaderTimeout,
			}
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			logger.Info("server_listening", "addr", cfg.ListenAddr, "base_url", cfg.BaseURL)

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("server_shutting_down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
