package store

import (
	"sort"
	"sync"
	"time"

	"slideConverter/api/models"
)

type entry struct {
	mu   sync.Mutex
	task models.Task
}

// TaskStore is the process-wide task map. It lives for the lifetime of the
// process only; nothing is persisted across restarts.
//
// Each entry carries its own lock, so a runner updating one task never
// serializes against another task's updates. The outer RWMutex guards only
// map membership. Reads hand out copies, never pointers into the map, so a
// poller can never observe a half-written record.
type TaskStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func NewTaskStore() *TaskStore {
	return &TaskStore{entries: make(map[string]*entry)}
}

// Create registers a task. The record is visible to Get and List from this
// point on, before any background work has started.
func (s *TaskStore) Create(task models.Task) {
	now := time.Now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[task.ID] = &entry{task: task}
}

func (s *TaskStore) Get(id string) (models.Task, bool) {
	e, ok := s.lookup(id)
	if !ok {
		return models.Task{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneTask(e.task), true
}

// Update runs mutate under the entry's lock and bumps UpdatedAt. It reports
// false when the task no longer exists (deleted mid-run).
func (s *TaskStore) Update(id string, mutate func(*models.Task)) bool {
	e, ok := s.lookup(id)
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	mutate(&e.task)
	e.task.UpdatedAt = time.Now()
	return true
}

// List returns a snapshot of every task, newest first.
func (s *TaskStore) List() []models.Task {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	tasks := make([]models.Task, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		tasks = append(tasks, cloneTask(e.task))
		e.mu.Unlock()
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks
}

func (s *TaskStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	return true
}

func (s *TaskStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *TaskStore) lookup(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

func cloneTask(t models.Task) models.Task {
	if t.Images != nil {
		images := make([]models.SlideImage, len(t.Images))
		copy(images, t.Images)
		t.Images = images
	}
	return t
}
