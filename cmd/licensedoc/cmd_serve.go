package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingrea/licensedoc/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	var noStore bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve document generation over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime("", os.Stderr)
			if err != nil {
				return err
			}
			defer rt.close()
			opts := []server.Option{
				server.WithLogger(rt.log),
				server.WithVariants(rt.variant),
				server.WithVersion(version),
			}
			if !noStore {
				opts = append(opts, server.WithStore(rt.store))
			}
			srv := server.NewServer(server.SettingsFromConfig(rt.cfg), rt.generator(rt.log), opts...)

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s\n", srv.BaseURL())
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			rt.log.Info("server: stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&noStore, "no-store", false, "return documents without persisting them")
	return cmd
}
