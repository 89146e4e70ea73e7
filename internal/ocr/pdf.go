package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
)

// extractPDF tries the native text layer first; scanned PDFs with no layer
// are re-rendered page by page and OCR'd.
func (e *Extractor) extractPDF(ctx context.Context, path string) string {
	text, err := pdfTextLayer(path)
	if err != nil {
		e.logger.Warn("ocr.pdf.text_layer_failed", "path", path, "error", err)
	}
	if strings.TrimSpace(text) != "" {
		return text
	}

	e.logger.Info("ocr.pdf.no_text_layer", "path", path, "fallback", "page-ocr")
	text, err = e.pdfPageOCR(ctx, path)
	if err != nil {
		e.logger.Error("ocr.pdf.page_ocr_failed", "path", path, "error", err)
		return ""
	}
	return text
}

// pdfTextLayer concatenates the structural text of every page.
func pdfTextLayer(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	r, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read text layer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return "", fmt.Errorf("read text layer: %w", err)
	}
	return buf.String(), nil
}

// pdfPageOCR renders every page to a bitmap at the configured DPI and runs
// tesseract on each, joining pages with a form-feed marker. Individual page
// failures are skipped so one bad page does not lose the document.
func (e *Extractor) pdfPageOCR(ctx context.Context, path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("open pdf for rendering: %w", err)
	}
	defer doc.Close()

	tmpDir, err := os.MkdirTemp("", "memoria-ocr-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	var b strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		img, err := doc.ImageDPI(n, float64(e.cfg.DPI))
		if err != nil {
			e.logger.Warn("ocr.pdf.render_failed", "path", path, "page", n+1, "error", err)
			continue
		}

		pagePath := filepath.Join(tmpDir, fmt.Sprintf("page-%03d.png", n+1))
		if err := writePNG(pagePath, img); err != nil {
			e.logger.Warn("ocr.pdf.page_write_failed", "page", n+1, "error", err)
			continue
		}

		txt, err := e.tesseractOCR(ctx, pagePath)
		if err != nil {
			e.logger.Warn("ocr.pdf.page_ocr_failed", "page", n+1, "error", err)
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
	}
	return b.String(), nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
