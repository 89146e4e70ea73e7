package constants

import "strings"

// Format is the coarse document kind the text-recovery layer dispatches on.
type Format string

const (
	PDF   Format = "PDF"
	IMAGE Format = "IMAGE"
)

// AllowedDocExtensions holds the file extensions accepted for document uploads.
var AllowedDocExtensions = map[string]struct{}{
	"pdf":  {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
}

// AllowedOntologyExtensions holds the file extensions accepted for ontology files.
var AllowedOntologyExtensions = []string{"owl", "ttl", "rdf", "xml", "json"}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps an extension to a Format; empty means unsupported.
func MapExtToFormat(ext string) Format {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "png", "jpg", "jpeg":
		return IMAGE
	default:
		return ""
	}
}
