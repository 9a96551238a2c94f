package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"heist-engine/internal/admin"
	"heist-engine/internal/logging"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		addr string
		save string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the campaign admin API",
		Long:  "serve exposes the campaign over HTTP until interrupted, optionally saving a snapshot on shutdown.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.env.AdminAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx = logging.NewContext(ctx, a.log)

			srv := admin.NewServer(a.campaign, a.log)
			if err := srv.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin server: %w", err)
			}
			logging.FromContext(ctx).Info("campaign stopped")
			if save != "" {
				return saveSnapshot(a, save)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to HEIST_ADMIN_ADDR)")
	cmd.Flags().StringVar(&save, "save", "", "Write a state snapshot to this file on shutdown")
	return cmd
}

func saveSnapshot(a *app, path string) error {
	data, err := a.campaign.Snapshot()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	a.log.Info("snapshot saved", "path", path, "bytes", len(data))
	return nil
}
