package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"slideConverter/api/models"
)

func newTask(id string, createdAt time.Time) models.Task {
	return models.Task{
		ID:        id,
		Filename:  "deck.pptx",
		Status:    models.StatusPending,
		Images:    []models.SlideImage{},
		CreatedAt: createdAt,
	}
}

func TestTaskStore_CreateAndGet(t *testing.T) {
	s := NewTaskStore()
	s.Create(newTask("t1", time.Now()))

	task, ok := s.Get("t1")
	if !ok {
		t.Fatal("Expected task to be visible immediately after Create")
	}
	if task.Status != models.StatusPending {
		t.Errorf("Expected status pending, got %s", task.Status)
	}
	if task.UpdatedAt.IsZero() {
		t.Error("Expected UpdatedAt to be set on Create")
	}

	if _, ok := s.Get("missing"); ok {
		t.Error("Expected Get to miss for unknown id")
	}
}

func TestTaskStore_UpdateBumpsUpdatedAt(t *testing.T) {
	s := NewTaskStore()
	s.Create(newTask("t1", time.Now()))

	before, _ := s.Get("t1")
	time.Sleep(5 * time.Millisecond)

	if !s.Update("t1", func(task *models.Task) {
		task.Status = models.StatusProcessing
		task.Progress = 30
	}) {
		t.Fatal("Update reported missing task")
	}

	after, _ := s.Get("t1")
	if after.Status != models.StatusProcessing || after.Progress != 30 {
		t.Errorf("Mutation not applied: %+v", after)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Error("Expected UpdatedAt to advance on Update")
	}

	if s.Update("missing", func(*models.Task) {}) {
		t.Error("Expected Update to report false for unknown id")
	}
}

func TestTaskStore_GetReturnsSnapshot(t *testing.T) {
	s := NewTaskStore()
	task := newTask("t1", time.Now())
	task.Images = []models.SlideImage{{SlideNumber: 1, Filename: "slide_001.png"}}
	s.Create(task)

	snap, _ := s.Get("t1")
	snap.Progress = 99
	snap.Images[0].Filename = "tampered"

	fresh, _ := s.Get("t1")
	if fresh.Progress == 99 {
		t.Error("Mutating a Get result leaked into the store")
	}
	if fresh.Images[0].Filename == "tampered" {
		t.Error("Mutating a Get result's images leaked into the store")
	}
}

func TestTaskStore_ListNewestFirst(t *testing.T) {
	s := NewTaskStore()
	base := time.Now()
	for i := 0; i < 3; i++ {
		s.Create(newTask(fmt.Sprintf("t%d", i), base.Add(time.Duration(i)*time.Second)))
	}

	tasks := s.List()
	if len(tasks) != 3 {
		t.Fatalf("Expected 3 tasks, got %d", len(tasks))
	}
	for i := 1; i < len(tasks); i++ {
		if tasks[i].CreatedAt.After(tasks[i-1].CreatedAt) {
			t.Errorf("List not ordered newest-first at index %d", i)
		}
	}
	if tasks[0].ID != "t2" {
		t.Errorf("Expected newest task first, got %s", tasks[0].ID)
	}
}

func TestTaskStore_Delete(t *testing.T) {
	s := NewTaskStore()
	s.Create(newTask("t1", time.Now()))

	if !s.Delete("t1") {
		t.Fatal("Delete reported missing task")
	}
	if _, ok := s.Get("t1"); ok {
		t.Error("Task still visible after Delete")
	}
	if s.Delete("t1") {
		t.Error("Second Delete should report false")
	}
	if s.Count() != 0 {
		t.Errorf("Expected count 0, got %d", s.Count())
	}
}

func TestTaskStore_ConcurrentUpdatesStayMonotonic(t *testing.T) {
	s := NewTaskStore()
	s.Create(newTask("t1", time.Now()))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			s.Update("t1", func(task *models.Task) {
				if p > task.Progress {
					task.Progress = p
				}
			})
		}(i)
	}

	// Readers poll while writers race; every snapshot must be consistent.
	for i := 0; i < 50; i++ {
		task, ok := s.Get("t1")
		if !ok {
			t.Fatal("Task disappeared during concurrent updates")
		}
		if task.Progress < 0 || task.Progress > 100 {
			t.Fatalf("Torn read: progress %d", task.Progress)
		}
	}
	wg.Wait()

	task, _ := s.Get("t1")
	if task.Progress != 99 {
		t.Errorf("Expected final progress 99, got %d", task.Progress)
	}
}

func TestTaskStore_IndependentEntryLocks(t *testing.T) {
	s := NewTaskStore()
	s.Create(newTask("slow", time.Now()))
	s.Create(newTask("fast", time.Now()))

	release := make(chan struct{})
	go s.Update("slow", func(*models.Task) { <-release })

	done := make(chan struct{})
	go func() {
		s.Update("fast", func(task *models.Task) { task.Progress = 50 })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Update on one task blocked behind an unrelated task's update")
	}
	close(release)
}
