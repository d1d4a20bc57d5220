package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cioplenu/pdf-lib/batch"
)

func newBatchCmd(a *app) *cobra.Command {
	var outRoot string

	cmd := &cobra.Command{
		Use:   "batch <pdf>...",
		Short: "Extract many documents in parallel, one sub-directory of --out each",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.MetricsAddr != "" {
				stop := serveMetrics(a.cfg.MetricsAddr, a.logger)
				defer stop()
			}

			report, err := batch.Run(cmd.Context(), args, outRoot,
				batch.WithWorkers(a.cfg.Workers),
				batch.WithLogger(a.logger),
				batch.WithExtractOptions(a.extractOptions()...))
			if report == nil {
				return err
			}
			if werr := writeOutput(cmd.OutOrStdout(), a.cfg.OutputFormat, report); werr != nil {
				return werr
			}
			if err != nil {
				return fmt.Errorf("%d of %d documents failed: %w", report.Failed, len(args), err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outRoot, "out", "o", "", "root directory for per-document output")
	cmd.Flags().Int("workers", batch.DefaultWorkers, "documents processed at once")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address while running")
	cmd.Flags().String("format", "json", "output format (json or yaml)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// serveMetrics exposes /metrics until the returned function is called
func serveMetrics(addr string, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logger.Info("metrics server started", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}
}
