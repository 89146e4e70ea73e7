package persist

import "github.com/memoria-cultural/memoria/internal/catalog"

// defaultSummary stands in for the description role when extraction found
// none; the gateway requires a non-empty resumo.
const defaultSummary = "Sem resumo."

// buildPayload maps an item's role values onto the gateway's field names.
func buildPayload(it catalog.CandidateItem) map[string]any {
	payload := map[string]any{
		"titulo":   it.Properties[catalog.RoleTitle],
		"resumo":   defaultSummary,
		"tipo_uri": it.EntryType,
	}
	if desc := it.Properties[catalog.RoleDescription]; desc != "" {
		payload["resumo"] = desc
		payload["descricao"] = desc
	}
	return payload
}
