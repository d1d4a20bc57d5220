package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	pdflib "github.com/cioplenu/pdf-lib"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		outDir     string
		pages      []int
		maxRelated int
	)

	cmd := &cobra.Command{
		Use:   "extract <pdf>",
		Short: "Extract text lines and images, writing images to --out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := append(a.extractOptions(),
				pdflib.WithPages(pages...),
				pdflib.WithMaxRelated(maxRelated))

			result, err := pdflib.ExtractTextAndImages(cmd.Context(), args[0], outDir, opts...)
			if err != nil {
				return err
			}
			for _, d := range result.Diagnostics {
				a.logger.Warn("skipped", zap.String("kind", string(d.Kind)), zap.Int("page", d.Page), zap.String("message", d.Message))
			}
			return writeOutput(cmd.OutOrStdout(), a.cfg.OutputFormat, result)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "existing directory for image files")
	cmd.Flags().IntSliceVar(&pages, "pages", nil, "1-based pages to extract (default all)")
	cmd.Flags().IntVar(&maxRelated, "max-related", 2, "text lines attached to each image")
	cmd.Flags().String("format", "json", "output format (json or yaml)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newTextCmd(a *app) *cobra.Command {
	var pages []int

	cmd := &cobra.Command{
		Use:   "text <pdf>",
		Short: "Print the text of each page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := append(a.extractOptions(), pdflib.WithPages(pages...))
			texts, err := pdflib.ExtractText(cmd.Context(), args[0], opts...)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), a.cfg.OutputFormat, textOutput{Pages: texts})
		},
	}

	cmd.Flags().IntSliceVar(&pages, "pages", nil, "1-based pages to extract (default all)")
	cmd.Flags().String("format", "json", "output format (json or yaml)")
	return cmd
}
