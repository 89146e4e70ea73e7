package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoria-cultural/memoria/constants"
	"github.com/memoria-cultural/memoria/internal/catalog"
	"github.com/memoria-cultural/memoria/internal/repository"
)

// fakeGateway keeps an in-memory set of persisted titles so duplicate
// detection behaves like the real store: an item is a duplicate only if an
// earlier item with the same title was already created.
type fakeGateway struct {
	mu        sync.Mutex
	persisted map[string]string // title -> uri
	failOn    string            // title whose create fails
	creates   int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{persisted: make(map[string]string)}
}

func (g *fakeGateway) Search(_ context.Context, keyword string, _ repository.RepoConfig) []repository.Binding {
	g.mu.Lock()
	defer g.mu.Unlock()
	uri, ok := g.persisted[keyword]
	if !ok {
		return nil
	}
	return []repository.Binding{{"obj": repository.BindingValue{Type: "uri", Value: uri}}}
}

func (g *fakeGateway) Create(_ context.Context, payload map[string]any, _ repository.RepoConfig) (repository.CreateResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	title, _ := payload["titulo"].(string)
	if title == g.failOn {
		return repository.CreateResult{}, errors.New("gateway create: non-2xx status: 500")
	}
	g.creates++
	uri := "http://localhost:3030/acervo#" + title
	g.persisted[title] = uri
	return repository.CreateResult{ObjectURI: uri}, nil
}

func item(title string) catalog.CandidateItem {
	it := catalog.DefaultSchema().NewItem()
	if title != "" {
		it.Properties[catalog.RoleTitle] = title
	}
	return it
}

func waitTerminal(t *testing.T, c *Coordinator, taskID string) *Task {
	t.Helper()
	var task *Task
	require.Eventually(t, func() bool {
		got, err := c.Status(context.Background(), taskID)
		if err != nil {
			return false
		}
		task = got
		return got.Status.Terminal()
	}, 2*time.Second, 5*time.Millisecond)
	return task
}

func TestCoordinator_CreatesAndDeduplicatesInOrder(t *testing.T) {
	gw := newFakeGateway()
	store := NewMemoryStore(0)
	c := NewCoordinator(gw, store, nil, WithItemDelay(0))
	defer c.Shutdown(context.Background())

	items := []catalog.CandidateItem{item("14-bis"), item("Demoiselle"), item("14-bis")}
	taskID, err := c.Submit(context.Background(), items, repository.RepoConfig{})
	require.NoError(t, err)

	task := waitTerminal(t, c, taskID)
	assert.Equal(t, constants.TaskStatusCompleted, task.Status)
	assert.Equal(t, 3, task.TotalItems)
	assert.Equal(t, 3, task.ProcessedItems)
	require.Len(t, task.Results, 3)

	assert.Equal(t, constants.ItemStatusCreated, task.Results[0].Status)
	assert.Equal(t, "Item criado com sucesso.", task.Results[0].Message)
	assert.NotEmpty(t, task.Results[0].URI)

	assert.Equal(t, constants.ItemStatusCreated, task.Results[1].Status)

	// The third item repeats the first title, so it must be flagged as a
	// duplicate of the URI created moments earlier.
	assert.Equal(t, constants.ItemStatusDuplicate, task.Results[2].Status)
	assert.Equal(t, task.Results[0].URI, task.Results[2].URI)
	assert.Equal(t, "Item já existe no repositório. URI: "+task.Results[0].URI, task.Results[2].Message)

	assert.Equal(t, 2, gw.creates)
}

func TestCoordinator_MissingTitleIsPerItemError(t *testing.T) {
	gw := newFakeGateway()
	c := NewCoordinator(gw, NewMemoryStore(0), nil, WithItemDelay(0))
	defer c.Shutdown(context.Background())

	items := []catalog.CandidateItem{item(""), item("Demoiselle")}
	taskID, err := c.Submit(context.Background(), items, repository.RepoConfig{})
	require.NoError(t, err)

	task := waitTerminal(t, c, taskID)
	assert.Equal(t, constants.TaskStatusCompleted, task.Status)
	require.Len(t, task.Results, 2)

	assert.Equal(t, constants.ItemStatusError, task.Results[0].Status)
	assert.Equal(t, "Título desconhecido", task.Results[0].ItemTitle)
	assert.Equal(t, "Item sem título não pode ser processado.", task.Results[0].Message)

	assert.Equal(t, constants.ItemStatusCreated, task.Results[1].Status)
	assert.Equal(t, 1, gw.creates)
}

func TestCoordinator_CreateFaultAbortsRemainderOfBatch(t *testing.T) {
	gw := newFakeGateway()
	gw.failOn = "Demoiselle"
	c := NewCoordinator(gw, NewMemoryStore(0), nil, WithItemDelay(0))
	defer c.Shutdown(context.Background())

	items := []catalog.CandidateItem{item("14-bis"), item("Demoiselle"), item("Dirigível Nº 6")}
	taskID, err := c.Submit(context.Background(), items, repository.RepoConfig{})
	require.NoError(t, err)

	task := waitTerminal(t, c, taskID)
	assert.Equal(t, constants.TaskStatusFailed, task.Status)
	assert.Contains(t, task.Error, "non-2xx status: 500")

	// Only the first item was committed; the third was never attempted.
	require.Len(t, task.Results, 1)
	assert.Equal(t, constants.ItemStatusCreated, task.Results[0].Status)
	assert.Equal(t, 1, task.ProcessedItems)
	assert.Equal(t, 1, gw.creates)
}

func TestCoordinator_TasksDrainFIFO(t *testing.T) {
	gw := newFakeGateway()
	c := NewCoordinator(gw, NewMemoryStore(0), nil, WithItemDelay(0))
	defer c.Shutdown(context.Background())

	first, err := c.Submit(context.Background(), []catalog.CandidateItem{item("14-bis")}, repository.RepoConfig{})
	require.NoError(t, err)
	second, err := c.Submit(context.Background(), []catalog.CandidateItem{item("14-bis")}, repository.RepoConfig{})
	require.NoError(t, err)

	firstTask := waitTerminal(t, c, first)
	secondTask := waitTerminal(t, c, second)

	require.Len(t, firstTask.Results, 1)
	assert.Equal(t, constants.ItemStatusCreated, firstTask.Results[0].Status)
	require.Len(t, secondTask.Results, 1)
	assert.Equal(t, constants.ItemStatusDuplicate, secondTask.Results[0].Status)
}

func TestCoordinator_StatusVisibleImmediatelyAfterSubmit(t *testing.T) {
	gw := newFakeGateway()
	c := NewCoordinator(gw, NewMemoryStore(0), nil, WithItemDelay(0))
	defer c.Shutdown(context.Background())

	taskID, err := c.Submit(context.Background(), []catalog.CandidateItem{item("14-bis")}, repository.RepoConfig{})
	require.NoError(t, err)

	task, err := c.Status(context.Background(), taskID)
	require.NoError(t, err)
	assert.LessOrEqual(t, task.ProcessedItems, task.TotalItems)
}

func TestCoordinator_ConcurrentSubmitsDrainThroughSmallBuffer(t *testing.T) {
	gw := newFakeGateway()
	c := NewCoordinator(gw, NewMemoryStore(0), nil, WithItemDelay(0), WithQueueSize(1))
	defer c.Shutdown(context.Background())

	// Submitters only share the read lock, so none of them can wedge the
	// others while waiting for room in the queue.
	const batches = 8
	ids := make(chan string, batches)
	var wg sync.WaitGroup
	for i := 0; i < batches; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			taskID, err := c.Submit(context.Background(),
				[]catalog.CandidateItem{item(fmt.Sprintf("Obra %d", n))}, repository.RepoConfig{})
			assert.NoError(t, err)
			ids <- taskID
		}(i)
	}
	wg.Wait()
	close(ids)

	for taskID := range ids {
		task := waitTerminal(t, c, taskID)
		assert.Equal(t, constants.TaskStatusCompleted, task.Status)
	}
	assert.Equal(t, batches, gw.creates)
}

func TestCoordinator_SubmitAfterShutdownFails(t *testing.T) {
	c := NewCoordinator(newFakeGateway(), NewMemoryStore(0), nil, WithItemDelay(0))
	c.Shutdown(context.Background())

	_, err := c.Submit(context.Background(), []catalog.CandidateItem{item("14-bis")}, repository.RepoConfig{})
	assert.Error(t, err)
}
