// Package extract turns recovered document text into structured candidate
// catalog entries. An AI-backed strategy is preferred when a text-generation
// provider is configured; a deterministic infobox heuristic is the fallback.
package extract

import "context"

// Generator is the contract the AI strategy requires from a text-generation
// provider. Absence of a Generator is a valid, expected state that forces
// the heuristic path.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
