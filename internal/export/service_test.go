package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/memoria-cultural/memoria/constants"
	"github.com/memoria-cultural/memoria/internal/persist"
)

func TestExportTaskXLSX(t *testing.T) {
	ctx := context.Background()
	store := persist.NewMemoryStore(0)
	require.NoError(t, store.Create(ctx, &persist.Task{
		ID:         "t1",
		Status:     constants.TaskStatusCompleted,
		TotalItems: 2,
		CreatedAt:  time.Now().UTC(),
	}))
	require.NoError(t, store.AppendResult(ctx, "t1", persist.ItemResult{
		ItemTitle: "14-bis",
		Status:    constants.ItemStatusCreated,
		Message:   "Item criado com sucesso.",
		URI:       "http://localhost:3030/acervo#14-bis",
	}))
	require.NoError(t, store.AppendResult(ctx, "t1", persist.ItemResult{
		ItemTitle: "Demoiselle",
		Status:    constants.ItemStatusDuplicate,
		Message:   "Item já existe no repositório. URI: http://localhost:3030/acervo#x",
		URI:       "http://localhost:3030/acervo#x",
	}))

	svc := NewService(store, nil)
	data, err := svc.ExportTaskXLSX(ctx, "t1")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Resultados")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Item", "Situação", "Mensagem", "URI"}, rows[0])
	assert.Equal(t, "14-bis", rows[1][0])
	assert.Equal(t, "created", rows[1][1])
	assert.Equal(t, "duplicate", rows[2][1])
	assert.Equal(t, "http://localhost:3030/acervo#x", rows[2][3])
}

func TestExportTaskXLSX_UnknownTask(t *testing.T) {
	svc := NewService(persist.NewMemoryStore(0), nil)
	_, err := svc.ExportTaskXLSX(context.Background(), "missing")
	assert.Error(t, err)
}
