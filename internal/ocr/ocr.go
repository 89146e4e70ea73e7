// Package ocr recovers raw text from uploaded documents: native PDF text
// layers where present, tesseract OCR everywhere else. All failures degrade
// to empty text; deciding what an empty result means is the pipeline's job.
package ocr

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/memoria-cultural/memoria/constants"
)

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Lang      string // tesseract language, default "por"
	DPI       int    // rasterization DPI for scanned PDFs, default 300
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "por"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// ExtractText picks a strategy based on file extension and returns recovered
// text. It never returns an error: unsupported extensions and every
// extraction failure yield "" with a logged diagnostic.
func (e *Extractor) ExtractText(ctx context.Context, path string) string {
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("ocr.extract.start", "path", path, "ext", ext)

	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		return e.extractPDF(ctx, path)
	case constants.IMAGE:
		txt, err := e.tesseractOCR(ctx, path)
		if err != nil {
			e.logger.Error("ocr.image.failed", "path", path, "error", err)
			return ""
		}
		return txt
	default:
		e.logger.Warn("ocr.unsupported_extension", "path", path, "ext", ext)
		return ""
	}
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, error) {
	// tesseract <file> stdout -l <lang>
	out, _, err := e.runner.Run(ctx, e.cfg.Tesseract, path, "stdout", "-l", e.cfg.Lang)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
