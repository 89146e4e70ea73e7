// memoria-batch processes a single document from the command line and prints
// the extraction result as JSON. Useful for tuning ontology profiles and
// prompts without running the API server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/memoria-cultural/memoria/internal/catalog"
	"github.com/memoria-cultural/memoria/internal/common"
	"github.com/memoria-cultural/memoria/internal/extract"
	"github.com/memoria-cultural/memoria/internal/gemini"
	"github.com/memoria-cultural/memoria/internal/ocr"
	"github.com/memoria-cultural/memoria/internal/ontology"
	"github.com/memoria-cultural/memoria/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		file       = flag.String("file", "", "document to process (required)")
		ontologyID = flag.String("ontology", "", "ontology identifier, e.g. profile.json (optional)")
		noLLM      = flag.Bool("no-llm", false, "skip the AI provider and use heuristics only")
	)
	flag.Parse()

	if *file == "" {
		printError("Error: --file is required\n")
		os.Exit(1)
	}

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()

	schema, err := resolveSchema(cfg, *ontologyID, logger)
	if err != nil {
		printError("Error: loading ontology: %v\n", err)
		os.Exit(1)
	}

	var gen extract.Generator
	if !*noLLM && cfg.LLM.APIKey != "" {
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
		}, logger)
		if err != nil {
			printError("Error: creating extraction provider: %v\n", err)
			os.Exit(1)
		}
		defer client.Close()
		gen = client
	}

	recoverer := ocr.NewExtractor(ocr.Config{
		Tesseract: cfg.OCR.Tesseract,
		Lang:      cfg.OCR.Lang,
		DPI:       cfg.OCR.DPI,
	}, logger)
	extractor := extract.NewService(gen, extract.NewHeuristic(), logger)
	processor := pipeline.NewProcessor(recoverer, extractor, logger)

	result, err := processor.Process(ctx, *file, schema)
	if err != nil {
		printError("Error: processing %s: %v\n", *file, err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		printError("Error: encoding result: %v\n", err)
		os.Exit(1)
	}
}

func resolveSchema(cfg *common.Config, identifier string, logger *slog.Logger) (*catalog.Schema, error) {
	loader, err := ontology.NewLoader(cfg.Server.OntologyDir, logger)
	if err != nil {
		return nil, err
	}
	if identifier == "" {
		identifier = "default"
	}
	return loader.Load(identifier)
}
