package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/memoria-cultural/memoria/internal/catalog"
)

// infoboxMarker delimits the "Principais trabalhos" block of a biography
// infobox: everything after the marker line up to the first blank line (or
// end of text) is a line-delimited list of works.
var infoboxMarker = regexp.MustCompile(`(?is)principais\s*trabalhos[ \t]*\n?(.*?)(?:\n[ \t]*\n|\z)`)

// placeholderAuthor is attached to heuristic items; the infobox lists works
// of the document's subject, and this corpus is the Santos Dumont archive.
const placeholderAuthor = "Alberto Santos Dumont"

// Heuristic is the deterministic fallback extractor. It needs no network
// and no provider, only its marker pattern.
type Heuristic struct {
	marker *regexp.Regexp
}

func NewHeuristic() *Heuristic {
	return &Heuristic{marker: infoboxMarker}
}

// ExtractItems emits one candidate item per non-empty line of the matched
// infobox block. No marker in the text means no items, not an error.
func (h *Heuristic) ExtractItems(text string, schema *catalog.Schema) []catalog.CandidateItem {
	m := h.marker.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	var items []catalog.CandidateItem
	for _, line := range strings.Split(m[1], "\n") {
		work := strings.TrimSpace(line)
		if work == "" {
			continue
		}
		item := schema.NewItem()
		item.Properties[catalog.RoleTitle] = work
		item.Properties[catalog.RoleAuthor] = placeholderAuthor
		item.Properties[catalog.RoleDescription] = fmt.Sprintf(
			"Invenção notável de %s mencionada na infobox do documento.", placeholderAuthor)
		items = append(items, item)
	}
	return items
}
