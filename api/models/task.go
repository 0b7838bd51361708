package models

import (
	"time"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// Terminal reports whether a task in this status will never transition again.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// SlideImage is one rendered slide. Images are kept in slide order, so the
// position in the slice plus one always equals SlideNumber.
type SlideImage struct {
	SlideNumber int    `json:"slide_number"`
	URL         string `json:"url"`
	Filename    string `json:"filename"`
}

// Task is the mutable record for one conversion request. The ID doubles as
// the name of the task's output directory under the configured output base,
// so deleting a task names exactly one directory to remove.
type Task struct {
	ID            string       `json:"task_id"`
	Filename      string       `json:"filename"`
	Status        TaskStatus   `json:"status"`
	Progress      int          `json:"progress"`
	TotalSlides   int          `json:"total_slides"`
	CurrentSlide  int          `json:"current_slide"`
	StatusMessage string       `json:"status_message"`
	Images        []SlideImage `json:"images"`
	Error         string       `json:"error,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
