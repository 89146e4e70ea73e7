package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoria-cultural/memoria/internal/catalog"
)

func TestHeuristic_ExtractItems_InfoboxBlock(t *testing.T) {
	h := NewHeuristic()
	schema := catalog.DefaultSchema()

	text := "Biografia recuperada\nPrincipais trabalhos\nDirigível Nº 6\n14-bis\n\nOutras secções do documento."
	items := h.ExtractItems(text, schema)

	require.Len(t, items, 2)
	assert.Equal(t, "Dirigível Nº 6", items[0].Title())
	assert.Equal(t, "14-bis", items[1].Title())
	for _, it := range items {
		assert.Equal(t, "Alberto Santos Dumont", it.Properties[catalog.RoleAuthor])
		assert.Contains(t, it.Properties[catalog.RoleDescription], "infobox")
		assert.Equal(t, schema.ItemClass, it.EntryType)
	}
}

func TestHeuristic_ExtractItems_BlockAtEndOfText(t *testing.T) {
	h := NewHeuristic()
	items := h.ExtractItems("Principais trabalhos\nDemoiselle", catalog.DefaultSchema())

	require.Len(t, items, 1)
	assert.Equal(t, "Demoiselle", items[0].Title())
}

func TestHeuristic_ExtractItems_MarkerCaseAndSpacing(t *testing.T) {
	h := NewHeuristic()
	items := h.ExtractItems("PRINCIPAIS  TRABALHOS\nBalão Brasil\n\n", catalog.DefaultSchema())

	require.Len(t, items, 1)
	assert.Equal(t, "Balão Brasil", items[0].Title())
}

func TestHeuristic_ExtractItems_NoMarker(t *testing.T) {
	h := NewHeuristic()
	items := h.ExtractItems("Um documento qualquer sem infobox.", catalog.DefaultSchema())
	assert.Nil(t, items)
}

func TestHeuristic_ExtractItems_SkipsBlankLines(t *testing.T) {
	h := NewHeuristic()
	items := h.ExtractItems("Principais trabalhos\nDirigível Nº 6\n   \t\nignored after blank", catalog.DefaultSchema())

	// The blank-ish line ends the block.
	require.Len(t, items, 1)
	assert.Equal(t, "Dirigível Nº 6", items[0].Title())
}
