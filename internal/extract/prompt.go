package extract

import (
	"fmt"

	"github.com/memoria-cultural/memoria/internal/catalog"
	"github.com/memoria-cultural/memoria/internal/common"
)

// maxPromptText bounds the document prefix sent to the provider, keeping
// request cost and latency predictable regardless of document size.
const maxPromptText = 8000

// buildPrompt composes the extraction instruction. The JSON keys requested
// from the model are the schema's wire identifiers, so the response can be
// reverse-mapped onto roles without a second translation table. The text
// prefix is cut at a rune boundary; accented Portuguese must not be split
// mid-sequence.
func buildPrompt(text string, schema *catalog.Schema) string {
	text = common.TruncateRunes(text, maxPromptText)
	return fmt.Sprintf(`Você é um especialista em catalogação de património cultural. Analise o texto fornecido e extraia uma lista de obras, invenções ou eventos importantes.
Ignore referências bibliográficas, notas de rodapé e metadados do documento. Foque-se apenas no conteúdo principal.

Para cada item que identificar, crie um objeto JSON com as seguintes chaves:
- "%s": O nome oficial do item (ex: "Dirigível Nº 6", "14-bis").
- "%s": O criador ou pessoa principal associada ao item.
- "%s": A cidade ou local principal onde o evento ocorreu (ex: "Paris").

Se uma informação não for encontrada para um item, omita a chave.
A sua resposta deve ser APENAS um array de objetos JSON válidos, nada mais.

Texto para análise:
---
%s
---`,
		schema.WireKey(catalog.RoleTitle),
		schema.WireKey(catalog.RoleAuthor),
		schema.WireKey(catalog.RoleLocation),
		text,
	)
}
