package catalog

// Fixed supplementary property identifiers. Location and date are not part
// of the configurable role mapping; every ontology profile uses these keys.
const (
	LocationProperty = "pc:temLocal"
	DateProperty     = "pc:temData"

	// DefaultItemClass is used when a schema declares no item class.
	DefaultItemClass = "pc:ObraCultural"
)

// Schema is the ontology configuration consumed by extraction and by the
// persistence payload builder. Immutable for the duration of one operation.
type Schema struct {
	OntologyFile string            `json:"ontology_file,omitempty"`
	ItemClass    string            `json:"item_class"`
	BaseURI      string            `json:"rdf_base_uri"`
	Properties   map[Role]string   `json:"properties"` // role -> ontology property identifier
	Prefixes     map[string]string `json:"prefixes,omitempty"`
}

// DefaultSchema mirrors the generic fallback configuration: common RDF
// vocabulary terms that work against any triple store.
func DefaultSchema() *Schema {
	return &Schema{
		ItemClass: "owl:Thing",
		BaseURI:   "http://example.org/ontology#",
		Properties: map[Role]string{
			RoleTitle:       "rdfs:label",
			RoleAuthor:      "dcterms:creator",
			RoleDescription: "dcterms:description",
		},
		Prefixes: map[string]string{
			"rdf":     "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
			"rdfs":    "http://www.w3.org/2000/01/rdf-schema#",
			"owl":     "http://www.w3.org/2002/07/owl#",
			"dcterms": "http://purl.org/dc/terms/",
			"foaf":    "http://xmlns.com/foaf/0.1/",
		},
	}
}

// WireKey returns the ontology property identifier for a role, falling back
// to the fixed supplementary identifiers for location and date.
func (s *Schema) WireKey(r Role) string {
	if id, ok := s.Properties[r]; ok && id != "" {
		return id
	}
	switch r {
	case RoleLocation:
		return LocationProperty
	case RoleDate:
		return DateProperty
	}
	return ""
}

// RoleFor reverse-maps an ontology property identifier to its role.
// Identifiers outside the schema are unknown and get dropped by callers.
func (s *Schema) RoleFor(wireKey string) (Role, bool) {
	for _, r := range Roles {
		if s.WireKey(r) == wireKey {
			return r, true
		}
	}
	return "", false
}

// NewItem returns a blank candidate item typed with the schema's item class.
func (s *Schema) NewItem() CandidateItem {
	class := s.ItemClass
	if class == "" {
		class = DefaultItemClass
	}
	return CandidateItem{
		EntryType:  class,
		Properties: make(map[Role]string, len(Roles)),
	}
}
