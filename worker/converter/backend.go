package converter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

const defaultConvertTimeout = 120 * time.Second

// Backend is one mechanism for turning a presentation into images. Available
// is a capability probe; a backend that reports false is skipped by auto
// selection and rejected when requested explicitly.
type Backend interface {
	Name() string
	Available() bool
	Convert(ctx context.Context, sourcePath, outputDir, prefix string, opts Options, onProgress ProgressFunc) ([]string, error)
}

// libreOfficeBackend is the primary, two-stage pipeline: LibreOffice renders
// the document to a page-per-slide PDF, then each page is rasterized.
type libreOfficeBackend struct {
	logger  *zap.Logger
	timeout time.Duration
}

func (b *libreOfficeBackend) Name() string { return MethodLibreOffice }

func (b *libreOfficeBackend) Available() bool {
	return sofficeBinary() != "" && rasterizerAvailable()
}

func (b *libreOfficeBackend) Convert(ctx context.Context, sourcePath, outputDir, prefix string, opts Options, onProgress ProgressFunc) ([]string, error) {
	tempDir, err := os.MkdirTemp("", "slide-convert-*")
	if err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	pdfPath, err := b.toPDF(ctx, sourcePath, tempDir)
	if err != nil {
		return nil, err
	}

	return rasterizePDF(b.Name(), pdfPath, outputDir, prefix, opts, onProgress, b.logger)
}

// toPDF shells out to LibreOffice under a hard timeout. A non-zero exit,
// a timeout, or a missing PDF all abort the conversion; there is no usable
// partial output from this stage.
func (b *libreOfficeBackend) toPDF(ctx context.Context, sourcePath, tempDir string) (string, error) {
	timeout := b.timeout
	if timeout <= 0 {
		timeout = defaultConvertTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, sofficeBinary(),
		"--headless",
		"--convert-to", "pdf",
		"--outdir", tempDir,
		sourcePath,
	)
	cmd.Env = append(os.Environ(), "SAL_USE_VCLPLUGIN=svp")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", conversionErr(b.Name(), fmt.Sprintf("conversion timed out after %s", timeout), ctx.Err())
		}
		return "", conversionErr(b.Name(), strings.TrimSpace(stderr.String()), err)
	}

	matches, err := filepath.Glob(filepath.Join(tempDir, "*.pdf"))
	if err != nil || len(matches) == 0 {
		return "", conversionErr(b.Name(), "no PDF produced", err)
	}
	return matches[0], nil
}

func sofficeBinary() string {
	for _, name := range []string{"soffice", "libreoffice"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// pdfPipelineBackend keeps the historical pdf2image method name selectable.
// That method always needed LibreOffice for the document-to-PDF stage, so it
// shares the primary pipeline.
type pdfPipelineBackend struct {
	libre *libreOfficeBackend
}

func (b *pdfPipelineBackend) Name() string    { return MethodPDFPipeline }
func (b *pdfPipelineBackend) Available() bool { return b.libre.Available() }

func (b *pdfPipelineBackend) Convert(ctx context.Context, sourcePath, outputDir, prefix string, opts Options, onProgress ProgressFunc) ([]string, error) {
	return b.libre.Convert(ctx, sourcePath, outputDir, prefix, opts, onProgress)
}

// directBackend opens the document with MuPDF and renders each page at a
// uniform scale factor, bypassing the intermediate PDF. Scale is derived
// from the requested width/height against the native page size, default 2x.
type directBackend struct {
	logger *zap.Logger
}

func (b *directBackend) Name() string    { return MethodDirect }
func (b *directBackend) Available() bool { return rasterizerAvailable() }

func (b *directBackend) Convert(ctx context.Context, sourcePath, outputDir, prefix string, opts Options, onProgress ProgressFunc) ([]string, error) {
	doc, err := fitz.New(sourcePath)
	if err != nil {
		return nil, conversionErr(b.Name(), "open document", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	if total == 0 {
		return nil, conversionErr(b.Name(), "document has no pages", nil)
	}

	// Scale already sizes the render; the save step must not resize again.
	saveOpts := opts
	saveOpts.Width, saveOpts.Height = 0, 0

	files := make([]string, 0, total)
	for page := 0; page < total; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bound, err := doc.Bound(page)
		if err != nil {
			return nil, conversionErr(b.Name(), fmt.Sprintf("measure page %d", page+1), err)
		}

		img, err := doc.ImageDPI(page, 72*scaleFor(opts, bound))
		if err != nil {
			return nil, conversionErr(b.Name(), fmt.Sprintf("render page %d", page+1), err)
		}

		filename := outputFilename(prefix, page+1, opts.Format)
		path := filepath.Join(outputDir, filename)
		if err := saveImage(img, path, saveOpts); err != nil {
			return nil, conversionErr(b.Name(), fmt.Sprintf("save page %d", page+1), err)
		}

		files = append(files, path)
		notifyProgress(onProgress, page+1, total, filename, b.logger)
	}
	return files, nil
}

func scaleFor(opts Options, bound image.Rectangle) float64 {
	var scaleX, scaleY float64
	if opts.Width > 0 && bound.Dx() > 0 {
		scaleX = float64(opts.Width) / float64(bound.Dx())
	}
	if opts.Height > 0 && bound.Dy() > 0 {
		scaleY = float64(opts.Height) / float64(bound.Dy())
	}
	switch {
	case scaleX > 0 && scaleY > 0:
		if scaleX < scaleY {
			return scaleX
		}
		return scaleY
	case scaleX > 0:
		return scaleX
	case scaleY > 0:
		return scaleY
	default:
		return 2.0
	}
}

// rasterizePDF renders every page of a PDF into outputDir, honoring the
// naming contract and reporting progress after each file lands on disk.
func rasterizePDF(backendName, pdfPath, outputDir, prefix string, opts Options, onProgress ProgressFunc, logger *zap.Logger) ([]string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, conversionErr(backendName, "open intermediate PDF", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	if total == 0 {
		return nil, conversionErr(backendName, "intermediate PDF has no pages", nil)
	}

	files := make([]string, 0, total)
	for page := 0; page < total; page++ {
		img, err := doc.ImageDPI(page, float64(opts.DPI))
		if err != nil {
			return nil, conversionErr(backendName, fmt.Sprintf("render page %d", page+1), err)
		}

		filename := outputFilename(prefix, page+1, opts.Format)
		path := filepath.Join(outputDir, filename)
		if err := saveImage(img, path, opts); err != nil {
			return nil, conversionErr(backendName, fmt.Sprintf("save page %d", page+1), err)
		}

		files = append(files, path)
		notifyProgress(onProgress, page+1, total, filename, logger)
	}
	return files, nil
}

func outputFilename(prefix string, index int, format string) string {
	return fmt.Sprintf("%s_%03d.%s", prefix, index, format)
}

func saveImage(img image.Image, path string, opts Options) error {
	out := resizeIfRequested(img, opts.Width, opts.Height)
	switch opts.Format {
	case "jpg", "jpeg":
		return imaging.Save(out, path, imaging.JPEGQuality(opts.Quality))
	default:
		return imaging.Save(out, path)
	}
}

// resizeIfRequested resizes with Lanczos resampling. Passing zero for one
// dimension lets imaging preserve the aspect ratio.
func resizeIfRequested(img image.Image, width, height int) image.Image {
	if width <= 0 && height <= 0 {
		return img
	}
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// notifyProgress shields the conversion from the callback: the receiver is
// caller-owned and may be slow or broken.
func notifyProgress(fn ProgressFunc, current, total int, filename string, logger *zap.Logger) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil && logger != nil {
			logger.Warn("Progress callback panicked", zap.Any("panic", r))
		}
	}()
	fn(current, total, filename)
}

var fitzProbe struct {
	once sync.Once
	ok   bool
}

// minimalPDF is the smallest document MuPDF will open. Used once to verify
// the rasterizer's native library can actually be loaded on this host.
var minimalPDF = []byte("%PDF-1.4\n" +
	"1 0 obj<</Type/Catalog/Pages 2 0 R>>endobj\n" +
	"2 0 obj<</Type/Pages/Kids[3 0 R]/Count 1>>endobj\n" +
	"3 0 obj<</Type/Page/Parent 2 0 R/MediaBox[0 0 72 72]>>endobj\n" +
	"trailer<</Size 4/Root 1 0 R>>\n" +
	"%%EOF\n")

func rasterizerAvailable() bool {
	fitzProbe.once.Do(func() {
		defer func() { recover() }()
		doc, err := fitz.NewFromMemory(minimalPDF)
		if err != nil {
			return
		}
		doc.Close()
		fitzProbe.ok = true
	})
	return fitzProbe.ok
}
