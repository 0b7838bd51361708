package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"slideConverter/api/dto"
	"slideConverter/api/middleware"
	"slideConverter/api/models"
	"slideConverter/api/validation"
	"slideConverter/worker/converter"
)

// TaskService is the slice of the service layer the HTTP handlers need.
type TaskService interface {
	CreateTask(ctx context.Context, file multipart.File, filename string, opts converter.Options) (string, error)
	GetTask(taskID string) (models.Task, error)
	ListTasks() []models.Task
	TaskCount() int
	DeleteTask(taskID string) error
	ConvertSync(ctx context.Context, file multipart.File, filename string, opts converter.Options) (*dto.ConvertSyncResponse, error)
}

// Config carries the handler-facing settings: the advertised port for the
// health payload, the upload size cap, and rasterization defaults applied
// when the form omits dpi/format.
type Config struct {
	Port        string
	MaxFileSize int64
	Defaults    converter.Options
}

type TaskHandler struct {
	service TaskService
	logger  *zap.Logger
	cfg     Config
}

func NewTaskHandler(service TaskService, logger *zap.Logger, cfg Config) *TaskHandler {
	return &TaskHandler{
		service: service,
		logger:  logger,
		cfg:     cfg,
	}
}

// ConvertAsync accepts an upload, creates a pending task, and returns its id
// without waiting for the conversion.
func (h *TaskHandler) ConvertAsync(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	file, filename, opts, ok := h.parseUpload(w, r, traceID)
	if !ok {
		return
	}
	defer file.Close()

	taskID, err := h.service.CreateTask(r.Context(), file, filename, opts)
	if err != nil {
		if errors.Is(err, dto.ErrUnsupportedDocument) {
			h.handleError(w, err.Error(), err, traceID, http.StatusBadRequest)
			return
		}
		h.handleError(w, "Failed to create task", err, traceID, http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.ConvertAsyncResponse{
		Success: true,
		TaskID:  taskID,
		Message: "task created, processing",
	})
}

// ConvertSync runs the conversion inline, blocking the caller until it ends.
// Kept for clients that predate the polling API.
func (h *TaskHandler) ConvertSync(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	file, filename, opts, ok := h.parseUpload(w, r, traceID)
	if !ok {
		return
	}
	defer file.Close()

	resp, err := h.service.ConvertSync(r.Context(), file, filename, opts)
	if err != nil {
		if errors.Is(err, dto.ErrUnsupportedDocument) {
			h.handleError(w, err.Error(), err, traceID, http.StatusBadRequest)
			return
		}
		h.handleError(w, "Conversion failed: "+err.Error(), err, traceID, http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *TaskHandler) Status(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	taskID := r.PathValue("id")
	task, err := h.service.GetTask(taskID)
	if err != nil {
		h.handleError(w, "Task not found", err, traceID, http.StatusNotFound)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.TaskResponse{Success: true, Task: task})
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks := h.service.ListTasks()
	h.respondJSON(w, http.StatusOK, dto.TaskListResponse{
		Success: true,
		Count:   len(tasks),
		Tasks:   tasks,
	})
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	taskID := r.PathValue("id")
	if err := h.service.DeleteTask(taskID); err != nil {
		h.handleError(w, "Task not found", err, traceID, http.StatusNotFound)
		return
	}

	h.logger.Info("Task deleted",
		zap.String("trace_id", traceID),
		zap.String("task_id", taskID),
	)
	h.respondJSON(w, http.StatusOK, dto.DeleteResponse{
		Success: true,
		Message: "task " + taskID + " deleted",
	})
}

func (h *TaskHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, dto.HealthResponse{
		Status:     "healthy",
		Service:    "slide-to-images",
		Port:       h.cfg.Port,
		TasksCount: h.service.TaskCount(),
	})
}

func (h *TaskHandler) parseUpload(w http.ResponseWriter, r *http.Request, traceID string) (multipart.File, string, converter.Options, bool) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.handleError(w, "Failed to parse form", err, traceID, http.StatusBadRequest)
		return nil, "", converter.Options{}, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.handleError(w, "Failed to get file", err, traceID, http.StatusBadRequest)
		return nil, "", converter.Options{}, false
	}

	if h.cfg.MaxFileSize > 0 && header.Size > h.cfg.MaxFileSize {
		file.Close()
		h.handleError(w, "File too large", validation.ErrFileTooLarge, traceID, http.StatusBadRequest)
		return nil, "", converter.Options{}, false
	}

	opts := h.cfg.Defaults
	if dpi := r.FormValue("dpi"); dpi != "" {
		if v, err := strconv.Atoi(dpi); err == nil && v > 0 {
			opts.DPI = v
		}
	}
	if format := r.FormValue("format"); format != "" {
		opts.Format = format
	}

	return file, header.Filename, opts, true
}

func (h *TaskHandler) handleError(w http.ResponseWriter, message string, err error, traceID string, status int) {
	h.logger.Error(message,
		zap.String("trace_id", traceID),
		zap.Error(err),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Detail:  message,
		TraceID: traceID,
	})
}

func (h *TaskHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
