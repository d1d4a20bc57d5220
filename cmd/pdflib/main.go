// Command pdflib extracts text lines and images from PDF files.
//
//	pdflib extract report.pdf --out images
//	pdflib text report.pdf --format yaml
//	pdflib batch *.pdf --out runs --workers 8
//	pdflib serve --listen :8080
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
