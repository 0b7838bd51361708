package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"slideConverter/api/models"
	"slideConverter/worker/converter"
)

// Progress milestones. The image stage maps (current, total) into
// [progressImages, progressImagesMax]; the last 15% is reserved for URL
// generation and completion.
const (
	progressReadInfo  = 5
	progressPDFStage  = 10
	progressExternal  = 15
	progressImages    = 30
	progressImageSpan = 55
	progressImagesMax = 85
	progressURLs      = 90
	progressDone      = 100
)

const slidePrefix = "slide"

// TaskUpdater is the slice of the task store a runner needs: serialized
// mutation of a single record.
type TaskUpdater interface {
	Update(id string, mutate func(*models.Task)) bool
}

// SlideConverter renders a document into per-slide image files.
type SlideConverter interface {
	Convert(ctx context.Context, sourcePath, outputDir, method, prefix string, opts converter.Options, onProgress converter.ProgressFunc) ([]string, error)
}

// Runner executes one conversion job, driving its task record from pending
// to a terminal state. Exactly one runner owns a record for the duration of
// a run; nothing else writes to it.
type Runner struct {
	store     TaskUpdater
	conv      SlideConverter
	logger    *zap.Logger
	baseURL   string
	outputDir string
}

func New(store TaskUpdater, conv SlideConverter, logger *zap.Logger, baseURL, outputDir string) *Runner {
	return &Runner{
		store:     store,
		conv:      conv,
		logger:    logger,
		baseURL:   baseURL,
		outputDir: outputDir,
	}
}

// Run processes one task. The uploaded file is removed when the run ends,
// whatever the outcome.
func (r *Runner) Run(ctx context.Context, taskID, uploadPath string, opts converter.Options) {
	defer func() {
		if err := os.Remove(uploadPath); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("Failed to remove uploaded file",
				zap.String("task_id", taskID),
				zap.Error(err),
			)
		}
	}()

	r.update(taskID, func(t *models.Task) {
		t.Status = models.StatusProcessing
		t.Progress = progressReadInfo
		t.StatusMessage = "reading document info"
	})

	if count := converter.SlideCount(uploadPath); count > 0 {
		r.logger.Info("Slide count probed",
			zap.String("task_id", taskID),
			zap.Int("slides", count),
		)
		r.update(taskID, func(t *models.Task) {
			t.TotalSlides = count
			t.StatusMessage = fmt.Sprintf("detected %d slides, preparing conversion", count)
		})
	} else {
		r.update(taskID, func(t *models.Task) {
			t.StatusMessage = "preparing conversion"
		})
	}

	r.update(taskID, func(t *models.Task) {
		t.Progress = progressPDFStage
		t.StatusMessage = "converting to PDF"
	})
	r.update(taskID, func(t *models.Task) {
		t.Progress = progressExternal
		t.StatusMessage = "running LibreOffice conversion"
	})

	r.update(taskID, func(t *models.Task) {
		t.Progress = progressImages
		if t.TotalSlides > 0 {
			t.StatusMessage = fmt.Sprintf("converting pages to images (0/%d)", t.TotalSlides)
		} else {
			t.StatusMessage = "converting pages to images"
		}
	})

	outputDir := filepath.Join(r.outputDir, taskID)

	files, err := r.conv.Convert(ctx, uploadPath, outputDir, converter.MethodAuto, slidePrefix, opts, r.progressHook(taskID))
	if err != nil {
		r.fail(taskID, outputDir, err)
		return
	}

	// The probe was advisory; the converter's output is authoritative.
	actual := len(files)
	r.update(taskID, func(t *models.Task) {
		if t.TotalSlides != actual && t.TotalSlides > 0 {
			r.logger.Warn("Probed slide count disagreed with converter output",
				zap.String("task_id", taskID),
				zap.Int("probed", t.TotalSlides),
				zap.Int("actual", actual),
			)
		}
		t.TotalSlides = actual
		t.CurrentSlide = actual
		t.Progress = progressURLs
		t.StatusMessage = fmt.Sprintf("generating image URLs (%d images)", actual)
	})

	images := make([]models.SlideImage, 0, actual)
	for i, path := range files {
		name := filepath.Base(path)
		images = append(images, models.SlideImage{
			SlideNumber: i + 1,
			URL:         fmt.Sprintf("%s/images/%s/%s", r.baseURL, taskID, name),
			Filename:    name,
		})
	}

	r.update(taskID, func(t *models.Task) {
		t.Status = models.StatusCompleted
		t.Progress = progressDone
		t.Images = images
		t.StatusMessage = fmt.Sprintf("conversion complete, %d images", actual)
	})

	r.logger.Info("Task completed",
		zap.String("task_id", taskID),
		zap.Int("images", actual),
	)
}

func (r *Runner) progressHook(taskID string) converter.ProgressFunc {
	return func(current, total int, filename string) {
		r.update(taskID, func(t *models.Task) {
			t.CurrentSlide = current
			t.TotalSlides = total
			if total > 0 {
				p := progressImages + int(float64(current)/float64(total)*progressImageSpan)
				if p > progressImagesMax {
					p = progressImagesMax
				}
				// Progress never moves backwards within a run.
				if p > t.Progress {
					t.Progress = p
				}
			}
			t.StatusMessage = fmt.Sprintf("saved %s (%d/%d)", filename, current, total)
		})
	}
}

func (r *Runner) fail(taskID, outputDir string, cause error) {
	r.logger.Error("Task failed",
		zap.String("task_id", taskID),
		zap.Error(cause),
	)

	r.update(taskID, func(t *models.Task) {
		t.Status = models.StatusFailed
		t.StatusMessage = "conversion failed"
		t.Error = cause.Error()
	})

	// Partial output is worthless once the task has failed; the task is
	// already terminal, so removal errors are only logged.
	if err := os.RemoveAll(outputDir); err != nil {
		r.logger.Warn("Failed to remove output directory",
			zap.String("task_id", taskID),
			zap.Error(err),
		)
	}
}

func (r *Runner) update(taskID string, mutate func(*models.Task)) {
	if !r.store.Update(taskID, mutate) {
		r.logger.Warn("Task record missing during run", zap.String("task_id", taskID))
	}
}
