package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"slideConverter/api/dto"
	"slideConverter/api/models"
	"slideConverter/api/store"
	"slideConverter/api/validation"
	"slideConverter/worker/converter"
)

// Scheduler hands a unit of background work to the worker pool.
type Scheduler interface {
	Submit(ctx context.Context, taskID string, job func(context.Context))
}

// TaskRunner drives one task to a terminal state.
type TaskRunner interface {
	Run(ctx context.Context, taskID, uploadPath string, opts converter.Options)
}

// SlideConverter is the inline conversion path used by the synchronous
// compatibility endpoint.
type SlideConverter interface {
	Convert(ctx context.Context, sourcePath, outputDir, method, prefix string, opts converter.Options, onProgress converter.ProgressFunc) ([]string, error)
}

type TaskService struct {
	store     *store.TaskStore
	runner    TaskRunner
	scheduler Scheduler
	conv      SlideConverter
	logger    *zap.Logger
	baseURL   string
	outputDir string
}

func NewTaskService(taskStore *store.TaskStore, runner TaskRunner, scheduler Scheduler, conv SlideConverter, logger *zap.Logger, baseURL, outputDir string) *TaskService {
	return &TaskService{
		store:     taskStore,
		runner:    runner,
		scheduler: scheduler,
		conv:      conv,
		logger:    logger,
		baseURL:   baseURL,
		outputDir: outputDir,
	}
}

// CreateTask persists the upload, registers a pending record, and schedules
// the conversion. It returns as soon as the record exists; the record is
// visible to pollers before any background work starts.
func (s *TaskService) CreateTask(_ context.Context, file multipart.File, filename string, opts converter.Options) (string, error) {
	if !converter.SupportedDocument(filename) {
		return "", dto.ErrUnsupportedDocument
	}

	if container, err := validation.DetectContainer(file); err != nil {
		s.logger.Warn("Could not detect upload container",
			zap.String("filename", filename),
			zap.Error(err),
		)
	} else if !validation.MatchesExtension(container, filename) {
		s.logger.Warn("Upload container does not match its extension",
			zap.String("filename", filename),
			zap.String("container", string(container)),
		)
	}

	uploadPath, err := s.saveUpload(file, filename)
	if err != nil {
		return "", err
	}

	taskID := uuid.New().String()
	s.store.Create(models.Task{
		ID:            taskID,
		Filename:      filename,
		Status:        models.StatusPending,
		StatusMessage: "waiting to be processed",
		Images:        []models.SlideImage{},
	})

	// The job must outlive the HTTP request that created it, so it is
	// scheduled against the background context rather than the request's.
	s.scheduler.Submit(context.Background(), taskID, func(jobCtx context.Context) {
		s.runner.Run(jobCtx, taskID, uploadPath, opts)
	})

	s.logger.Info("Conversion task scheduled",
		zap.String("task_id", taskID),
		zap.String("filename", filename),
	)
	return taskID, nil
}

func (s *TaskService) GetTask(taskID string) (models.Task, error) {
	task, ok := s.store.Get(taskID)
	if !ok {
		return models.Task{}, dto.ErrTaskNotFound
	}
	return task, nil
}

func (s *TaskService) ListTasks() []models.Task {
	return s.store.List()
}

func (s *TaskService) TaskCount() int {
	return s.store.Count()
}

// DeleteTask removes the record and the task's rendered images. The task id
// names the output directory, so there is exactly one directory to remove.
func (s *TaskService) DeleteTask(taskID string) error {
	if _, ok := s.store.Get(taskID); !ok {
		return dto.ErrTaskNotFound
	}

	if err := os.RemoveAll(filepath.Join(s.outputDir, taskID)); err != nil {
		s.logger.Warn("Failed to remove output directory",
			zap.String("task_id", taskID),
			zap.Error(err),
		)
	}

	s.store.Delete(taskID)
	return nil
}

// ConvertSync runs the conversion inline and blocks for its full duration.
// The generated id only namespaces the output directory and URLs; it is
// never registered as a pollable task.
func (s *TaskService) ConvertSync(ctx context.Context, file multipart.File, filename string, opts converter.Options) (*dto.ConvertSyncResponse, error) {
	if !converter.SupportedDocument(filename) {
		return nil, dto.ErrUnsupportedDocument
	}

	uploadPath, err := s.saveUpload(file, filename)
	if err != nil {
		return nil, err
	}
	defer os.Remove(uploadPath)

	folderID := uuid.New().String()
	outputDir := filepath.Join(s.outputDir, folderID)

	files, err := s.conv.Convert(ctx, uploadPath, outputDir, converter.MethodAuto, "slide", opts, nil)
	if err != nil {
		os.RemoveAll(outputDir)
		return nil, err
	}

	images := make([]models.SlideImage, 0, len(files))
	for i, path := range files {
		name := filepath.Base(path)
		images = append(images, models.SlideImage{
			SlideNumber: i + 1,
			URL:         fmt.Sprintf("%s/images/%s/%s", s.baseURL, folderID, name),
			Filename:    name,
		})
	}

	return &dto.ConvertSyncResponse{
		Success:  true,
		FolderID: folderID,
		Count:    len(images),
		Images:   images,
		Message:  fmt.Sprintf("converted %d slides", len(images)),
	}, nil
}

func (s *TaskService) saveUpload(file multipart.File, filename string) (string, error) {
	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(filename))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	return tmp.Name(), nil
}
