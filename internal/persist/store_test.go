package persist

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoria-cultural/memoria/constants"
	"github.com/memoria-cultural/memoria/internal/common"
)

func newTask(id string, total int) *Task {
	return &Task{
		ID:         id,
		Status:     constants.TaskStatusPending,
		TotalItems: total,
		Results:    []ItemResult{},
		CreatedAt:  time.Now().UTC(),
	}
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	require.NoError(t, s.Create(ctx, newTask("t1", 2)))

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusPending, got.Status)
	assert.Equal(t, 2, got.TotalItems)
	assert.Equal(t, 0, got.ProcessedItems)

	require.NoError(t, s.SetStatus(ctx, "t1", constants.TaskStatusProcessing))
	require.NoError(t, s.AppendResult(ctx, "t1", ItemResult{ItemTitle: "14-bis", Status: constants.ItemStatusCreated, Message: "Item criado com sucesso."}))
	require.NoError(t, s.AppendResult(ctx, "t1", ItemResult{ItemTitle: "Demoiselle", Status: constants.ItemStatusDuplicate, Message: "já existe"}))
	require.NoError(t, s.SetStatus(ctx, "t1", constants.TaskStatusCompleted))

	got, err = s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusCompleted, got.Status)
	assert.Equal(t, 2, got.ProcessedItems)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "14-bis", got.Results[0].ItemTitle)
}

func TestMemoryStore_GetReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)
	require.NoError(t, s.Create(ctx, newTask("t1", 1)))

	snap, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	snap.Status = constants.TaskStatusFailed
	snap.Results = append(snap.Results, ItemResult{ItemTitle: "injected"})

	fresh, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusPending, fresh.Status)
	assert.Empty(t, fresh.Results)
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, s.SetStatus(ctx, "missing", constants.TaskStatusProcessing), common.ErrNotFound)
	assert.ErrorIs(t, s.Fail(ctx, "missing", "boom"), common.ErrNotFound)
	assert.ErrorIs(t, s.AppendResult(ctx, "missing", ItemResult{}), common.ErrNotFound)
}

func TestMemoryStore_Fail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)
	require.NoError(t, s.Create(ctx, newTask("t1", 3)))
	require.NoError(t, s.Fail(ctx, "t1", "gateway create: non-2xx status: 500"))

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusFailed, got.Status)
	assert.Equal(t, "gateway create: non-2xx status: 500", got.Error)
}

func TestMemoryStore_EvictsOldestTerminalTasks(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)

	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("t%d", i)
		require.NoError(t, s.Create(ctx, newTask(id, 1)))
		require.NoError(t, s.SetStatus(ctx, id, constants.TaskStatusCompleted))
	}
	// A live task is never evicted regardless of age.
	require.NoError(t, s.Create(ctx, newTask("live", 1)))
	require.NoError(t, s.SetStatus(ctx, "t3", constants.TaskStatusCompleted))

	_, err := s.Get(ctx, "t0")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = s.Get(ctx, "t1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	for _, id := range []string{"t2", "t3", "live"} {
		_, err := s.Get(ctx, id)
		assert.NoError(t, err, id)
	}
}
