// Package pipeline wires text recovery and structured extraction into the
// single document-processing operation exposed by the API.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/memoria-cultural/memoria/internal/catalog"
	"github.com/memoria-cultural/memoria/internal/common"
)

// TextRecoverer produces the best-effort plain text of a document. It never
// fails; an unreadable document yields an empty string.
type TextRecoverer interface {
	ExtractText(ctx context.Context, path string) string
}

// ItemExtractor turns recovered text into candidate catalog items.
type ItemExtractor interface {
	ExtractItems(ctx context.Context, text string, schema *catalog.Schema) ([]catalog.CandidateItem, error)
}

const sampleLimit = 1000

// Result is the synchronous outcome of processing one document.
type Result struct {
	TextSample string                  `json:"texto_extraido_amostra"`
	Items      []catalog.CandidateItem `json:"itens_catalogados"`
}

type Processor struct {
	recoverer TextRecoverer
	extractor ItemExtractor
	logger    *slog.Logger
}

func NewProcessor(recoverer TextRecoverer, extractor ItemExtractor, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{recoverer: recoverer, extractor: extractor, logger: logger}
}

// Process recovers text from the document at path and extracts candidate
// items against the active schema. A document that yields no text at all is
// an error; extraction falls back internally, so any error from it is final.
func (p *Processor) Process(ctx context.Context, path string, schema *catalog.Schema) (*Result, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, common.NewAppError("NOT_FOUND", "document not found: "+path, common.ErrNotFound)
		}
		return nil, common.WrapError(err, "stat document")
	}

	rid := common.RequestIDFromContext(ctx)
	text := p.recoverer.ExtractText(ctx, path)
	if strings.TrimSpace(text) == "" {
		return nil, common.NewAppError("EXTRACTION_FAILED", "no text could be recovered from the document", common.ErrExtractionEmpty)
	}
	p.logger.Info("pipeline.text_recovered", "req_id", rid, "path", path, "chars", len(text))

	items, err := p.extractor.ExtractItems(ctx, text, schema)
	if err != nil {
		return nil, err
	}
	p.logger.Info("pipeline.items_extracted", "req_id", rid, "path", path, "items", len(items))

	sample := common.TruncateRunes(text, sampleLimit)
	return &Result{TextSample: sample, Items: items}, nil
}
