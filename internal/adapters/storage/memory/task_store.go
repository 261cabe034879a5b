package memory

import (
	"sync"
	"time"

	"github.com/taskdeck/taskdeck/internal/domain"
)

// TaskStore is a simple in-memory implementation of domain.TaskStore.
// It is NOT persistent and is only suitable for development / tests.
type TaskStore struct {
	mu     sync.RWMutex
	tasks  map[domain.TaskID]*domain.Task
	nextID int64
	now    func() time.Time
}

func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[domain.TaskID]*domain.Task),
		now:   time.Now,
	}
}

func (s *TaskStore) CreateTask(task *domain.Task) error {
	if task.Title == "" {
		return domain.ErrEmptyTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	task.ID = domain.TaskID(s.nextID)
	now := s.now()
	task.CreatedAt = now
	task.UpdatedAt = now
	s.tasks[task.ID] = task
	return nil
}

func (s *TaskStore) ListTasks(owner domain.UserID, filter domain.TaskFilter) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Task
	for id := int64(1); id <= s.nextID; id++ {
		task, ok := s.tasks[domain.TaskID(id)]
		if !ok || task.UserID != owner {
			continue
		}
		if filter.Matches(task) {
			result = append(result, task)
		}
	}
	return result, nil
}

func (s *TaskStore) CompleteTask(owner domain.UserID, id domain.TaskID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.UserID != owner {
		return nil, domain.ErrNotFound
	}
	task.Completed = true
	task.UpdatedAt = s.now()
	return task, nil
}

func (s *TaskStore) DeleteTask(owner domain.UserID, id domain.TaskID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.UserID != owner {
		return nil, domain.ErrNotFound
	}
	delete(s.tasks, id)
	return task, nil
}

func (s *TaskStore) UpdateTask(owner domain.UserID, id domain.TaskID, upd domain.TaskUpdate) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.UserID != owner {
		return nil, domain.ErrNotFound
	}
	if upd.Title != nil {
		task.Title = *upd.Title
	}
	if upd.Description != nil {
		task.Description = *upd.Description
	}
	task.UpdatedAt = s.now()
	return task, nil
}
