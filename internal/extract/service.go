package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/memoria-cultural/memoria/internal/catalog"
	"github.com/memoria-cultural/memoria/internal/common"
)

// Service orchestrates the two extraction strategies: the AI strategy when a
// provider is configured, the heuristic otherwise or whenever the AI path
// yields nothing.
type Service struct {
	gen       Generator // nil when no provider is configured
	heuristic *Heuristic
	logger    *slog.Logger
}

func NewService(gen Generator, heuristic *Heuristic, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gen: gen, heuristic: heuristic, logger: logger}
}

// ExtractItems returns the candidate items found in text. AI failures are
// absorbed (logged, treated as zero items); a missing heuristic is a
// configuration error and propagates.
func (s *Service) ExtractItems(ctx context.Context, text string, schema *catalog.Schema) ([]catalog.CandidateItem, error) {
	if s.gen != nil {
		items := s.extractWithProvider(ctx, text, schema)
		if len(items) > 0 {
			s.logger.Info("extract.ai.ok", "items", len(items))
			return items, nil
		}
		s.logger.Warn("extract.ai.no_items", "fallback", "heuristic")
	}

	if s.heuristic == nil {
		return nil, common.NewAppError("EXTRACTION_CONFIG",
			"fallback extractor is not available", common.ErrHeuristicUnavailable)
	}
	items := s.heuristic.ExtractItems(text, schema)
	s.logger.Info("extract.heuristic.ok", "items", len(items))
	return items, nil
}

// extractWithProvider runs the AI strategy end to end. Transport faults and
// unparseable responses both degrade to zero items so the orchestrator can
// fall back.
func (s *Service) extractWithProvider(ctx context.Context, text string, schema *catalog.Schema) []catalog.CandidateItem {
	content, err := s.gen.Generate(ctx, buildPrompt(text, schema))
	if err != nil {
		s.logger.Error("extract.ai.generate_failed", "error", err)
		return nil
	}

	objects := parseItemObjects(content)
	if objects == nil {
		s.logger.Error("extract.ai.unparseable_response", "response_len", len(content))
		return nil
	}

	items := make([]catalog.CandidateItem, 0, len(objects))
	for _, obj := range objects {
		item := schema.NewItem()
		for wireKey, v := range obj {
			role, ok := schema.RoleFor(wireKey)
			if !ok {
				continue // key outside the ontology mapping
			}
			if val := strings.TrimSpace(stringify(v)); val != "" {
				item.Properties[role] = val
			}
		}
		title := item.Properties[catalog.RoleTitle]
		if title == "" {
			title = "N/A"
		}
		item.Properties[catalog.RoleDescription] = fmt.Sprintf(
			"Item '%s' extraído e contextualizado via IA.", title)
		items = append(items, item)
	}
	return items
}
