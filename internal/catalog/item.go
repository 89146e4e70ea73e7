// Package catalog holds the shared data model of the extraction and
// persistence pipeline: candidate catalog entries and the ontology schema
// that maps logical roles to repository property identifiers.
package catalog

import "strings"

// Role is the closed set of logical fields a candidate item can carry.
// Ontology-specific property identifiers appear only at the boundaries
// (extraction prompts, repository payloads); everything in between is
// keyed by Role.
type Role string

const (
	RoleTitle       Role = "title"
	RoleAuthor      Role = "author"
	RoleDescription Role = "description"
	RoleLocation    Role = "location"
	RoleDate        Role = "date"
)

// Roles lists every known role in a stable order.
var Roles = []Role{RoleTitle, RoleAuthor, RoleDescription, RoleLocation, RoleDate}

// CandidateItem is a structured catalog-entry proposal extracted from a
// document, not yet persisted. A role absent from Properties means
// "unknown", never an empty value. The pipeline never mutates an item
// after creation; callers may edit a copy before submitting it.
type CandidateItem struct {
	EntryType  string          `json:"entry_type"`
	Properties map[Role]string `json:"properties"`
}

// Title returns the item's title, or "" when unresolved.
func (it CandidateItem) Title() string {
	return strings.TrimSpace(it.Properties[RoleTitle])
}
