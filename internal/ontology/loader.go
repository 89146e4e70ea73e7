// Package ontology loads and caches ontology schema profiles: JSON property
// mappings, or raw ontology files (owl/ttl/rdf/xml) from which a best-effort
// default profile is derived.
package ontology

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/memoria-cultural/memoria/internal/catalog"
	"github.com/memoria-cultural/memoria/internal/common"
)

// fileConfig is the on-disk JSON shape of an ontology profile. The upper-case
// keys are the established config format; they predate this service.
type fileConfig struct {
	OntologyFile        string            `json:"ontology_file"`
	ItemClass           string            `json:"ITEM_CLASS"`
	TitleProperty       string            `json:"TITLE_PROPERTY"`
	AuthorProperty      string            `json:"AUTHOR_PROPERTY"`
	DescriptionProperty string            `json:"DESCRIPTION_PROPERTY"`
	BaseURI             string            `json:"RDF_BASE_URI"`
	Prefixes            map[string]string `json:"PREFIXES"`
}

// Loader resolves ontology identifiers to schemas, caching loaded profiles.
type Loader struct {
	dir    string
	cache  *lru.Cache[string, *catalog.Schema]
	logger *slog.Logger
}

func NewLoader(dir string, logger *slog.Logger) (*Loader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.New[string, *catalog.Schema](16)
	if err != nil {
		return nil, err
	}
	return &Loader{dir: dir, cache: cache, logger: logger}, nil
}

// Available lists the ontology file names under the loader's directory that
// carry one of the given extensions.
func (l *Loader) Available(extensions []string) []string {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		l.logger.Warn("ontology.dir_unreadable", "dir", l.dir, "error", err)
		return nil
	}
	seen := make(map[string]struct{})
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(e.Name()), "."))
		for _, want := range extensions {
			if ext == strings.ToLower(want) {
				seen[e.Name()] = struct{}{}
				break
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Load resolves an identifier to a schema. JSON files are parsed as profiles;
// ontology files (owl/ttl/rdf/xml) get a derived default profile; anything
// else falls back to the generic defaults. Results are cached per identifier.
func (l *Loader) Load(identifier string) (*catalog.Schema, error) {
	if s, ok := l.cache.Get(identifier); ok {
		return s, nil
	}

	var (
		schema *catalog.Schema
		err    error
	)
	lower := strings.ToLower(identifier)
	switch {
	case strings.HasSuffix(lower, ".json"):
		schema, err = l.loadJSON(identifier)
	case hasOntologyExt(lower):
		schema, err = l.deriveFromOntology(identifier)
	default:
		l.logger.Warn("ontology.unknown_identifier", "identifier", identifier)
		schema = catalog.DefaultSchema()
	}
	if err != nil {
		return nil, err
	}

	l.cache.Add(identifier, schema)
	return schema, nil
}

func (l *Loader) loadJSON(name string) (*catalog.Schema, error) {
	path := filepath.Join(l.dir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Warn("ontology.profile_missing", "path", path)
			return catalog.DefaultSchema(), nil
		}
		return nil, common.WrapError(err, "read ontology profile")
	}

	var fc fileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, common.NewAppError("ONTOLOGY_INVALID", fmt.Sprintf("profile %s is not valid JSON", name), err)
	}

	schema := catalog.DefaultSchema()
	schema.OntologyFile = fc.OntologyFile
	if fc.ItemClass != "" {
		schema.ItemClass = fc.ItemClass
	}
	if fc.BaseURI != "" {
		schema.BaseURI = fc.BaseURI
	}
	if fc.TitleProperty != "" {
		schema.Properties[catalog.RoleTitle] = fc.TitleProperty
	}
	if fc.AuthorProperty != "" {
		schema.Properties[catalog.RoleAuthor] = fc.AuthorProperty
	}
	if fc.DescriptionProperty != "" {
		schema.Properties[catalog.RoleDescription] = fc.DescriptionProperty
	}
	for k, v := range fc.Prefixes {
		schema.Prefixes[k] = v
	}
	l.logger.Info("ontology.profile_loaded", "path", path, "item_class", schema.ItemClass)
	return schema, nil
}

// ontologyBaseURI matches the subject of an owl:Ontology declaration in
// RDF/XML. Enough to recover the base URI from most exported ontologies
// without a full RDF parser.
var ontologyBaseURI = regexp.MustCompile(`(?i)<owl:Ontology\s+rdf:about="([^"]+)"`)

func (l *Loader) deriveFromOntology(name string) (*catalog.Schema, error) {
	path := filepath.Join(l.dir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewAppError("ONTOLOGY_NOT_FOUND", fmt.Sprintf("ontology file %s not found", name), common.ErrNotFound)
	}

	schema := catalog.DefaultSchema()
	schema.OntologyFile = name
	if m := ontologyBaseURI.FindSubmatch(raw); m != nil {
		schema.BaseURI = string(m[1])
		schema.Prefixes["onto"] = string(m[1])
	}
	l.logger.Info("ontology.derived", "path", path, "base_uri", schema.BaseURI)
	return schema, nil
}

func hasOntologyExt(name string) bool {
	for _, ext := range []string{".owl", ".ttl", ".rdf", ".xml"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
