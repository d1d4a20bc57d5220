package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/cioplenu/pdf-lib/internal/server"
)

// shutdownTimeout bounds how long in-flight requests may take after a
// shutdown signal
const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve extraction over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := server.New(a.cfg, a.logger)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
			}

			a.logger.Info("shutting down server")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			a.logger.Info("server exiting")
			return nil
		},
	}

	cmd.Flags().String("listen", ":8080", "address to listen on")
	cmd.Flags().String("data-dir", "", "directory holding uploads and job output (default system temp)")
	cmd.Flags().Int64("max-upload-mb", 64, "largest accepted upload in MiB")
	return cmd
}
