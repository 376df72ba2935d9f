package extractor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// minTextLength is the OCR trigger threshold: when primary extraction
// yields fewer characters than this across all pages, the document is
// assumed to be a scan with no text layer.
const minTextLength = 100

// ocrDPI is the rasterization resolution for scanned pages.
const ocrDPI = "300"

// NeedsOCR reports whether the primary extraction result is too thin
// to parse and the per-page recognition fallback must run.
func NeedsOCR(pages []string) bool {
	return totalTextLen(pages) < minTextLength
}

// ExtractPages runs the full extraction policy: primary text
// extraction first, then the OCR fallback when the result is below
// the minimum text threshold. Recognized text is appended in original
// page order.
func ExtractPages(filePath string, log zerolog.Logger) ([]string, error) {
	pages, err := ExtractText(filePath)
	if err != nil && len(pages) == 0 {
		// Primary extraction failed outright; OCR is the only option.
		log.Warn().Err(err).Str("file", filePath).Msg("primary extraction failed, trying OCR")
		return ExtractTextOCR(filePath, log)
	}
	if !NeedsOCR(pages) {
		return pages, nil
	}

	log.Info().Str("file", filePath).Int("chars", totalTextLen(pages)).
		Msg("too little embedded text, applying OCR")
	ocrPages, ocrErr := ExtractTextOCR(filePath, log)
	if ocrErr != nil {
		if len(pages) > 0 {
			return pages, nil
		}
		return nil, ocrErr
	}
	return append(pages, ocrPages...), nil
}

// ExtractTextOCR converts each PDF page to an image and runs
// Tesseract with the Portuguese model. A failing page is logged and
// skipped; one bad page does not abort the document.
// Requires pdftoppm (poppler-utils) and tesseract on PATH.
func ExtractTextOCR(filePath string, log zerolog.Logger) ([]string, error) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		return nil, fmt.Errorf("pdftoppm not available (install poppler-utils): %v", err)
	}
	if _, err := exec.LookPath("tesseract"); err != nil {
		return nil, fmt.Errorf("tesseract not available (install tesseract-ocr): %v", err)
	}

	tmpDir, err := os.MkdirTemp("", "ocr-pages-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	imgPrefix := filepath.Join(tmpDir, "page")
	cmd := exec.Command("pdftoppm", "-r", ocrDPI, "-png", filePath, imgPrefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %v (output: %s)", err, string(out))
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read temp dir: %v", err)
	}

	var imageFiles []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".png") {
			imageFiles = append(imageFiles, filepath.Join(tmpDir, e.Name()))
		}
	}
	// pdftoppm zero-pads page numbers, so name order is page order.
	sort.Strings(imageFiles)

	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no page images")
	}

	var pages []string
	for _, imgFile := range imageFiles {
		outBase := strings.TrimSuffix(imgFile, ".png") + "-ocr"
		cmd := exec.Command("tesseract", imgFile, outBase, "-l", "por")
		if out, err := cmd.CombinedOutput(); err != nil {
			log.Warn().Err(err).Str("page", filepath.Base(imgFile)).
				Str("output", string(out)).Msg("tesseract failed for page, skipping")
			continue
		}

		data, err := os.ReadFile(outBase + ".txt")
		if err != nil {
			log.Warn().Err(err).Str("page", filepath.Base(imgFile)).Msg("tesseract output missing, skipping")
			continue
		}

		text := strings.TrimSpace(string(data))
		if text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("OCR produced no text from %d page images", len(imageFiles))
	}

	return pages, nil
}
