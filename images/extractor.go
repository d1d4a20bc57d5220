package images

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cioplenu/pdf-lib/imaging"
	"github.com/cioplenu/pdf-lib/model"
)

// DefaultFileMode is the permission of written image files
const DefaultFileMode fs.FileMode = 0o644

var (
	// ErrNoSource is recorded for an image object without a pixel source
	ErrNoSource = errors.New("image has no pixel source")

	// ErrInvalidBuffer is recorded when decoding yields an inconsistent buffer
	ErrInvalidBuffer = errors.New("invalid pixel buffer")
)

// Encoder writes a pixel buffer in an image file format
type Encoder interface {
	Encode(w io.Writer, buf *model.PixelBuffer) error
}

// Filename returns the file name for image id
func Filename(id int) string {
	return fmt.Sprintf("image-%d.png", id)
}

// Option configures an Extractor
type Option func(*Extractor)

// WithLogger sets the logger for skipped images
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithFileMode sets the permission of written files
func WithFileMode(mode fs.FileMode) Option {
	return func(e *Extractor) {
		e.mode = mode
	}
}

// Extractor decodes page images and writes them to numbered files
type Extractor struct {
	enc    Encoder
	mode   fs.FileMode
	logger *zap.Logger
}

// NewExtractor creates an extractor. A nil encoder uses imaging.PNGEncoder.
func NewExtractor(enc Encoder, opts ...Option) *Extractor {
	if enc == nil {
		enc = imaging.PNGEncoder{}
	}
	e := &Extractor{
		enc:    enc,
		mode:   DefaultFileMode,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractPage writes the images of one page in order. counter is the last
// identifier used; each object consumes the next one whether or not it is
// written. It returns the written images, the updated counter and one
// diagnostic per skipped image. Once ctx is done no further objects are
// attempted and the counter stops at the last attempted one.
func (e *Extractor) ExtractPage(ctx context.Context, page int, objs []model.ImageObject, outDir string, counter int) ([]model.ExtractedImage, int, []model.Diagnostic) {
	if len(objs) == 0 {
		return nil, counter, nil
	}

	var (
		out   []model.ExtractedImage
		diags []model.Diagnostic
	)
	for _, obj := range objs {
		if ctx.Err() != nil {
			break
		}
		counter++
		name := Filename(counter)

		size, err := e.writeImage(obj, filepath.Join(outDir, name))
		if err != nil {
			extErr := &model.ImageExtractionError{Page: page, ID: counter, Filename: name, Err: err}
			e.logger.Warn("image skipped",
				zap.Int("page", page),
				zap.Int("image_id", counter),
				zap.String("name", obj.Name),
				zap.Error(err))
			diags = append(diags, model.NewDiagnostic(page, extErr))
			continue
		}

		e.logger.Debug("image written",
			zap.Int("page", page),
			zap.Int("image_id", counter),
			zap.Int64("bytes", size))
		out = append(out, model.ExtractedImage{
			ID:            counter,
			Filename:      name,
			FileSizeBytes: size,
			Box:           obj.Box,
		})
	}
	return out, counter, diags
}

// writeImage decodes obj and writes it to path through a temporary file in
// the same directory
func (e *Extractor) writeImage(obj model.ImageObject, path string) (int64, error) {
	buf, err := pixels(obj)
	if err != nil {
		return 0, err
	}
	if buf == nil || !buf.Valid() {
		return 0, ErrInvalidBuffer
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".image-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	bw := bufio.NewWriter(tmp)
	cw := &countingWriter{w: bw}
	if err := encode(e.enc, cw, buf); err != nil {
		return 0, err
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("write: %w", err)
	}
	if err := tmp.Chmod(e.mode); err != nil {
		return 0, fmt.Errorf("chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return 0, fmt.Errorf("rename: %w", err)
	}
	committed = true
	return cw.n, nil
}

// pixels decodes obj, turning a panic in the decoder into an error
func pixels(obj model.ImageObject) (buf *model.PixelBuffer, err error) {
	if obj.Source == nil {
		return nil, ErrNoSource
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode: panic: %v", r)
		}
	}()
	buf, err = obj.Source.Pixels()
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return buf, nil
}

// encode runs enc, turning a panic in the encoder into an error
func encode(enc Encoder, w io.Writer, buf *model.PixelBuffer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("encode: panic: %v", r)
		}
	}()
	if err := enc.Encode(w, buf); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
