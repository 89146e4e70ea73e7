package persist

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoria-cultural/memoria/constants"
	"github.com/memoria-cultural/memoria/internal/common"
)

func TestSQLiteStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Create(ctx, newTask("t1", 2)))
	require.NoError(t, s.SetStatus(ctx, "t1", constants.TaskStatusProcessing))
	require.NoError(t, s.AppendResult(ctx, "t1", ItemResult{
		ItemTitle: "14-bis",
		Status:    constants.ItemStatusCreated,
		Message:   "Item criado com sucesso.",
		URI:       "http://localhost:3030/acervo#14-bis",
	}))
	require.NoError(t, s.AppendResult(ctx, "t1", ItemResult{
		ItemTitle: "Demoiselle",
		Status:    constants.ItemStatusError,
		Message:   "Item sem título não pode ser processado.",
	}))
	require.NoError(t, s.SetStatus(ctx, "t1", constants.TaskStatusCompleted))

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusCompleted, got.Status)
	assert.Equal(t, 2, got.ProcessedItems)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "14-bis", got.Results[0].ItemTitle)
	assert.Equal(t, "http://localhost:3030/acervo#14-bis", got.Results[0].URI)
	assert.Equal(t, constants.ItemStatusError, got.Results[1].Status)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, newTask("t1", 1)))
	require.NoError(t, s.Fail(ctx, "t1", "gateway create: non-2xx status: 502"))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusFailed, got.Status)
	assert.Equal(t, "gateway create: non-2xx status: 502", got.Error)
}

func TestSQLiteStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, s.SetStatus(ctx, "missing", constants.TaskStatusProcessing), common.ErrNotFound)
	assert.ErrorIs(t, s.Fail(ctx, "missing", "boom"), common.ErrNotFound)
}
