package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	pdflib "github.com/cioplenu/pdf-lib"
	"github.com/cioplenu/pdf-lib/internal/config"
	"github.com/cioplenu/pdf-lib/internal/logging"
)

// app carries what every subcommand needs once flags are parsed
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:          "pdflib",
		Short:        "Extract ordered text lines and captioned images from PDF files",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "YAML config file")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "json", "log format (json or console)")

	root.AddCommand(
		newExtractCmd(a),
		newTextCmd(a),
		newBatchCmd(a),
		newServeCmd(a),
	)
	return root
}

// init loads the configuration and builds the logger
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// extractOptions returns the library options derived from the configuration
func (a *app) extractOptions() []pdflib.Option {
	return []pdflib.Option{
		pdflib.WithLogger(a.logger),
		pdflib.WithLineConfig(a.cfg.LineConfig()),
		pdflib.WithObjectCacheSize(a.cfg.ObjectCacheSize),
	}
}
