package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoria-cultural/memoria/internal/catalog"
)

func TestParseItemObjects_ArrayInsideProse(t *testing.T) {
	content := "Claro! Aqui está:\n[{\"rdfs:label\": \"14-bis\"}, {\"rdfs:label\": \"Demoiselle\"}]\nMais alguma coisa?"
	objects := parseItemObjects(content)
	require.Len(t, objects, 2)
	assert.Equal(t, "14-bis", objects[0]["rdfs:label"])
}

func TestParseItemObjects_NoArray(t *testing.T) {
	assert.Nil(t, parseItemObjects("não encontrei nenhum item no texto"))
}

func TestParseItemObjects_MalformedJSON(t *testing.T) {
	assert.Nil(t, parseItemObjects(`[{"rdfs:label": "broken"`))
	assert.Nil(t, parseItemObjects(`[{"rdfs:label": }]`))
}

func TestParseItemObjects_ArrayOfNonObjects(t *testing.T) {
	assert.Nil(t, parseItemObjects(`["14-bis", "Demoiselle"]`))
}

func TestStringify_Scalars(t *testing.T) {
	assert.Equal(t, "Paris", stringify("Paris"))
	assert.Equal(t, "1906", stringify(float64(1906)))
	assert.Equal(t, "0.5", stringify(0.5))
	assert.Equal(t, "true", stringify(true))
	assert.Equal(t, "", stringify(map[string]any{"nested": 1}))
	assert.Equal(t, "", stringify([]any{"a"}))
	assert.Equal(t, "", stringify(nil))
}

func TestBuildPrompt_UsesWireKeysAndCapsText(t *testing.T) {
	schema := catalog.DefaultSchema()
	prompt := buildPrompt(strings.Repeat("a", maxPromptText+500), schema)

	assert.Contains(t, prompt, `"rdfs:label"`)
	assert.Contains(t, prompt, `"dcterms:creator"`)
	assert.Contains(t, prompt, `"pc:temLocal"`)
	assert.Less(t, len(prompt), maxPromptText+1500)
}

func TestBuildPrompt_CapDoesNotSplitRunes(t *testing.T) {
	// "ição" endings and other accented text must survive the prefix cap
	// intact; a byte-offset cut would leave half a sequence at the seam.
	prompt := buildPrompt(strings.Repeat("ação€", maxPromptText/4), catalog.DefaultSchema())
	assert.True(t, utf8.ValidString(prompt))
}
