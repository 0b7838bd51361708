package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Conversion methods, in backend priority order for MethodAuto.
const (
	MethodAuto        = "auto"
	MethodLibreOffice = "libreoffice"
	MethodPDFPipeline = "pdf2image"
	MethodDirect      = "direct"
)

// ProgressFunc is invoked synchronously after each image is written. The
// converter makes no assumptions about the receiver; slow or panicking
// callbacks do not abort the conversion.
type ProgressFunc func(current, total int, filename string)

// Options control rasterization of the converted slides.
type Options struct {
	DPI     int    // render resolution, default 300
	Format  string // png, jpg or jpeg, default png
	Quality int    // JPEG quality 1-100, default 95
	Width   int    // optional pixel width override
	Height  int    // optional pixel height override
}

func (o Options) withDefaults() Options {
	if o.DPI <= 0 {
		o.DPI = 300
	}
	if o.Format == "" {
		o.Format = "png"
	}
	o.Format = strings.ToLower(o.Format)
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = 95
	}
	if o.Width < 0 {
		o.Width = 0
	}
	if o.Height < 0 {
		o.Height = 0
	}
	return o
}

// SupportedDocument reports whether the filename carries a recognized
// presentation extension.
func SupportedDocument(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".ppt", ".pptx":
		return true
	}
	return false
}

// Converter turns a presentation document into one image per slide, probing
// its backends in priority order.
type Converter struct {
	logger   *zap.Logger
	backends []Backend
}

func NewConverter(logger *zap.Logger, timeout time.Duration) *Converter {
	libre := &libreOfficeBackend{logger: logger, timeout: timeout}
	return newConverterWithBackends(logger,
		libre,
		&pdfPipelineBackend{libre: libre},
		&directBackend{logger: logger},
	)
}

func newConverterWithBackends(logger *zap.Logger, backends ...Backend) *Converter {
	return &Converter{logger: logger, backends: backends}
}

// AvailableBackends lists the usable backend names in priority order. An
// empty result means every conversion will fail until a backend is installed.
func (c *Converter) AvailableBackends() []string {
	var names []string
	for _, b := range c.backends {
		if b.Available() {
			names = append(names, b.Name())
		}
	}
	return names
}

// Convert renders every slide of sourcePath into outputDir as
// {prefix}_{NNN}.{format}, 1-based and contiguous in slide order, and
// returns the file paths in that order. Downstream code relies on position
// in the result equalling slide number minus one.
func (c *Converter) Convert(ctx context.Context, sourcePath, outputDir, method, prefix string, opts Options, onProgress ProgressFunc) ([]string, error) {
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, sourcePath)
	}
	if !SupportedDocument(sourcePath) {
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrInvalidInput, filepath.Ext(sourcePath))
	}

	opts = opts.withDefaults()
	switch opts.Format {
	case "png", "jpg", "jpeg":
	default:
		return nil, fmt.Errorf("unsupported format: %s", opts.Format)
	}

	backend, err := c.selectBackend(method)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	c.logger.Info("Starting conversion",
		zap.String("source", sourcePath),
		zap.String("backend", backend.Name()),
		zap.String("format", opts.Format),
		zap.Int("dpi", opts.DPI),
	)

	files, err := backend.Convert(ctx, sourcePath, outputDir, prefix, opts, onProgress)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Conversion finished",
		zap.String("source", sourcePath),
		zap.Int("images", len(files)),
	)
	return files, nil
}

func (c *Converter) selectBackend(method string) (Backend, error) {
	if method == "" || method == MethodAuto {
		for _, b := range c.backends {
			if b.Available() {
				return b, nil
			}
		}
		return nil, fmt.Errorf("%w: no backend installed", ErrBackendUnavailable)
	}

	for _, b := range c.backends {
		if b.Name() == method {
			if !b.Available() {
				return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, method)
			}
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown method %q", ErrInvalidInput, method)
}
