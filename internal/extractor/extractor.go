// Package extractor turns an uploaded PDF into plain text. The text layer
// is tried first; documents that yield too little usable text are treated
// as scanned and handed to OCR page by page. OCR is an optional
// deployment dependency, injected at construction.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// ErrNoText means both the text layer and OCR produced nothing.
	ErrNoText = errors.New("no text could be extracted from the document")

	// ErrOCRUnavailable means the document needs OCR but the deployment
	// has none configured.
	ErrOCRUnavailable = errors.New("document appears to be scanned and OCR support is not available")
)

// ValidationError describes a rejected upload with a user-facing reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// TextReader extracts the embedded text layer of a PDF, one string per
// page in page order. Implementations skip unreadable pages rather than
// failing the whole document.
type TextReader interface {
	ExtractPages(data []byte) ([]string, error)
}

// OCR recognizes text from a PDF's rendered pages, one string per page in
// page order.
type OCR interface {
	RecognizePages(ctx context.Context, data []byte) ([]string, error)
}

const pageSeparator = "\n\n"

type Config struct {
	MaxFileSize int64
	// MinUsableLength is the cleaned-text length below which the
	// document is treated as image-based.
	MinUsableLength int
}

type Extractor struct {
	reader    TextReader
	ocr       OCR // nil when OCR is not deployed
	logger    *logrus.Logger
	maxSize   int64
	minUsable int
}

func New(reader TextReader, ocr OCR, cfg Config, logger *logrus.Logger) *Extractor {
	return &Extractor{
		reader:    reader,
		ocr:       ocr,
		logger:    logger,
		maxSize:   cfg.MaxFileSize,
		minUsable: cfg.MinUsableLength,
	}
}

// Validate rejects uploads that should not reach extraction at all. Each
// rejection carries a distinct user-facing reason.
func (e *Extractor) Validate(filename string, data []byte) error {
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return &ValidationError{Reason: "Only PDF files are allowed"}
	}
	if e.maxSize > 0 && int64(len(data)) > e.maxSize {
		return &ValidationError{Reason: fmt.Sprintf("File size exceeds maximum limit of %dMB", e.maxSize/(1024*1024))}
	}
	if len(data) == 0 {
		return &ValidationError{Reason: "Uploaded file is empty"}
	}
	return nil
}

// Extract produces plain text from a PDF payload, falling back to OCR
// when the text layer is missing or too short to be usable.
func (e *Extractor) Extract(ctx context.Context, data []byte) (string, error) {
	pages, err := e.reader.ExtractPages(data)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from PDF: %w", err)
	}

	text := CleanText(strings.Join(pages, pageSeparator))
	if len([]rune(text)) > e.minUsable {
		e.logger.WithField("chars", len([]rune(text))).Info("extracted text layer from PDF")
		return text, nil
	}

	// Little or no embedded text: the document is image-based.
	e.logger.Info("minimal text layer found, attempting OCR")

	if e.ocr == nil {
		return "", ErrOCRUnavailable
	}

	ocrPages, err := e.ocr.RecognizePages(ctx, data)
	if err != nil {
		return "", fmt.Errorf("OCR processing failed: %w", err)
	}

	ocrText := CleanText(strings.Join(ocrPages, pageSeparator))
	if strings.TrimSpace(ocrText) == "" {
		return "", ErrNoText
	}

	e.logger.WithField("chars", len([]rune(ocrText))).Info("extracted text via OCR")
	return ocrText, nil
}

// CleanText normalizes extracted text: per-line trimming, at most one
// consecutive blank line, and single spaces between words.
func CleanText(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		// Keep a blank line only when the previous kept line was not
		// blank.
		if line != "" || (len(cleaned) > 0 && cleaned[len(cleaned)-1] != "") {
			cleaned = append(cleaned, line)
		}
	}

	result := strings.Join(cleaned, "\n")

	for strings.Contains(result, "  ") {
		result = strings.ReplaceAll(result, "  ", " ")
	}
	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(result)
}
