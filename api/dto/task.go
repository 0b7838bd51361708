package dto

import (
	"errors"

	"slideConverter/api/models"
)

var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrUnsupportedDocument = errors.New("only .ppt and .pptx documents are supported")
)

type ConvertAsyncResponse struct {
	Success bool   `json:"success"`
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
}

type TaskResponse struct {
	Success bool        `json:"success"`
	Task    models.Task `json:"task"`
}

type TaskListResponse struct {
	Success bool          `json:"success"`
	Count   int           `json:"count"`
	Tasks   []models.Task `json:"tasks"`
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ConvertSyncResponse struct {
	Success  bool                `json:"success"`
	FolderID string              `json:"folder_id"`
	Count    int                 `json:"count"`
	Images   []models.SlideImage `json:"images"`
	Message  string              `json:"message"`
}

type HealthResponse struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	Port       string `json:"port"`
	TasksCount int    `json:"tasks_count"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Detail  string `json:"detail"`
	TraceID string `json:"trace_id,omitempty"`
}
