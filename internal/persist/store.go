package persist

import (
	"context"
	"sync"

	"github.com/memoria-cultural/memoria/constants"
	"github.com/memoria-cultural/memoria/internal/common"
)

// TaskStore is the task-status table behind the coordinator. Only the worker
// mutates a task after Create; Get returns an independent snapshot.
type TaskStore interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	SetStatus(ctx context.Context, id string, status constants.TaskStatus) error
	Fail(ctx context.Context, id, message string) error
	AppendResult(ctx context.Context, id string, r ItemResult) error
}

// MemoryStore is the default TaskStore: a map guarded by a mutex, with an
// optional retention cap that evicts the oldest terminal tasks so long-lived
// processes do not accumulate history without bound.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	order []string // insertion order, for eviction
	limit int      // max retained terminal tasks, 0 = unbounded
}

func NewMemoryStore(historyLimit int) *MemoryStore {
	return &MemoryStore{
		tasks: make(map[string]*Task),
		limit: historyLimit,
	}
}

func (s *MemoryStore) Create(_ context.Context, t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	cp.Results = append([]ItemResult(nil), t.Results...)
	s.tasks[t.ID] = &cp
	s.order = append(s.order, t.ID)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *t
	cp.Results = append([]ItemResult(nil), t.Results...)
	return &cp, nil
}

func (s *MemoryStore) SetStatus(_ context.Context, id string, status constants.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return common.ErrNotFound
	}
	t.Status = status
	if status.Terminal() {
		s.evictLocked()
	}
	return nil
}

func (s *MemoryStore) Fail(_ context.Context, id, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return common.ErrNotFound
	}
	t.Status = constants.TaskStatusFailed
	t.Error = message
	s.evictLocked()
	return nil
}

func (s *MemoryStore) AppendResult(_ context.Context, id string, r ItemResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return common.ErrNotFound
	}
	t.Results = append(t.Results, r)
	t.ProcessedItems++
	return nil
}

// evictLocked drops the oldest terminal tasks beyond the retention cap.
// Pending and processing tasks are never evicted.
func (s *MemoryStore) evictLocked() {
	if s.limit <= 0 {
		return
	}
	terminal := 0
	for _, id := range s.order {
		if t, ok := s.tasks[id]; ok && t.Status.Terminal() {
			terminal++
		}
	}
	if terminal <= s.limit {
		return
	}
	kept := s.order[:0]
	for _, id := range s.order {
		t, ok := s.tasks[id]
		if !ok {
			continue
		}
		if terminal > s.limit && t.Status.Terminal() {
			delete(s.tasks, id)
			terminal--
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}
