package persist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/memoria-cultural/memoria/constants"
	"github.com/memoria-cultural/memoria/internal/catalog"
	"github.com/memoria-cultural/memoria/internal/repository"
)

const unknownTitle = "Título desconhecido"

// Gateway is what the worker needs from the repository client. Search never
// fails (transport faults degrade to "no match" at the client); Create
// faults propagate and fail the remainder of the batch.
type Gateway interface {
	Search(ctx context.Context, keyword string, repo repository.RepoConfig) []repository.Binding
	Create(ctx context.Context, payload map[string]any, repo repository.RepoConfig) (repository.CreateResult, error)
}

type batch struct {
	taskID string
	items  []catalog.CandidateItem
	repo   repository.RepoConfig
}

// Coordinator owns the submission queue and exactly one worker. A single
// consumer keeps batches strictly FIFO and items strictly ordered, which
// duplicate detection depends on: each create must have been checked against
// the state left behind by everything submitted before it.
type Coordinator struct {
	gw     Gateway
	store  TaskStore
	logger *slog.Logger
	delay  time.Duration

	ch   chan batch
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex // read-held across sends so Shutdown cannot close mid-send
	closed bool
}

type Option func(*Coordinator)

// WithItemDelay overrides the pacing between outbound repository calls.
func WithItemDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.delay = d
		}
	}
}

func WithQueueSize(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.ch = make(chan batch, n)
		}
	}
}

func NewCoordinator(gw Gateway, store TaskStore, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		gw:     gw,
		store:  store,
		logger: logger,
		delay:  500 * time.Millisecond,
		ch:     make(chan batch, 256),
	}
	for _, o := range opts {
		o(c)
	}
	c.start()
	return c
}

func (c *Coordinator) start() {
	c.once.Do(func() {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.logger.Info("persist.worker.started")
			for b := range c.ch {
				c.drain(b)
			}
			c.logger.Info("persist.worker.stopped")
		}()
	})
}

// Submit enqueues a batch and returns its task id without waiting for
// processing. The task record exists before the batch is visible to the
// worker, so a Status call can never miss a submitted task. Submits only
// share the read lock, so they enqueue concurrently; the queue buffer is
// the sole backpressure on a worker that has fallen behind.
func (c *Coordinator) Submit(ctx context.Context, items []catalog.CandidateItem, repo repository.RepoConfig) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return "", fmt.Errorf("persistence queue is shutting down")
	}

	taskID := uuid.New().String()
	task := &Task{
		ID:         taskID,
		Status:     constants.TaskStatusPending,
		TotalItems: len(items),
		Results:    []ItemResult{},
		CreatedAt:  time.Now().UTC(),
	}
	if err := c.store.Create(ctx, task); err != nil {
		return "", fmt.Errorf("record task: %w", err)
	}

	c.ch <- batch{taskID: taskID, items: items, repo: repo}
	c.logger.Info("persist.task.queued", "task_id", taskID, "items", len(items))
	return taskID, nil
}

// Status returns a snapshot of a task, or common.ErrNotFound.
func (c *Coordinator) Status(ctx context.Context, taskID string) (*Task, error) {
	return c.store.Get(ctx, taskID)
}

// Shutdown stops accepting batches and waits for the queue to drain, up to
// the context deadline.
func (c *Coordinator) Shutdown(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.ch)
	c.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); c.wg.Wait() }()

	select {
	case <-ctx.Done():
		c.logger.Warn("persist.shutdown.interrupted")
	case <-done:
		c.logger.Info("persist.shutdown.drained")
	}
}

// drain processes one batch in submission order. Items with no resolvable
// title are recorded as per-item errors and skipped; a create fault aborts
// the rest of the batch and fails the task, keeping the results recorded so
// far.
func (c *Coordinator) drain(b batch) {
	ctx := context.Background()
	if err := c.store.SetStatus(ctx, b.taskID, constants.TaskStatusProcessing); err != nil {
		c.logger.Error("persist.task.mark_processing_failed", "task_id", b.taskID, "error", err)
		return
	}
	c.logger.Info("persist.task.start", "task_id", b.taskID, "items", len(b.items))

	for i, item := range b.items {
		time.Sleep(c.delay) // paces outbound calls against the gateway

		title := item.Title()
		if title == "" {
			c.record(ctx, b.taskID, ItemResult{
				ItemTitle: unknownTitle,
				Status:    constants.ItemStatusError,
				Message:   "Item sem título não pode ser processado.",
			})
			continue
		}

		if existing := c.gw.Search(ctx, title, b.repo); len(existing) > 0 {
			uri := existing[0].URI()
			c.record(ctx, b.taskID, ItemResult{
				ItemTitle: title,
				Status:    constants.ItemStatusDuplicate,
				Message:   fmt.Sprintf("Item já existe no repositório. URI: %s", uri),
				URI:       uri,
			})
			continue
		}

		result, err := c.gw.Create(ctx, buildPayload(item), b.repo)
		if err != nil {
			c.logger.Error("persist.task.failed", "task_id", b.taskID, "item_index", i, "error", err)
			if ferr := c.store.Fail(ctx, b.taskID, err.Error()); ferr != nil {
				c.logger.Error("persist.task.mark_failed_failed", "task_id", b.taskID, "error", ferr)
			}
			return
		}
		c.record(ctx, b.taskID, ItemResult{
			ItemTitle: title,
			Status:    constants.ItemStatusCreated,
			Message:   "Item criado com sucesso.",
			URI:       result.ObjectURI,
		})
	}

	if err := c.store.SetStatus(ctx, b.taskID, constants.TaskStatusCompleted); err != nil {
		c.logger.Error("persist.task.mark_completed_failed", "task_id", b.taskID, "error", err)
		return
	}
	c.logger.Info("persist.task.completed", "task_id", b.taskID)
}

func (c *Coordinator) record(ctx context.Context, taskID string, r ItemResult) {
	if err := c.store.AppendResult(ctx, taskID, r); err != nil {
		c.logger.Error("persist.result.append_failed", "task_id", taskID, "error", err)
	}
}
