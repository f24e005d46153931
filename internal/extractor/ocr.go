package extractor

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
	"github.com/sirupsen/logrus"
)

// TesseractOCR renders each PDF page to an image and runs tesseract over
// it. The language set and render resolution come from deployment
// configuration; nothing here is tied to a particular install path.
type TesseractOCR struct {
	languages []string
	dpi       float64
	logger    *logrus.Logger
}

func NewTesseractOCR(languages []string, dpi float64, logger *logrus.Logger) *TesseractOCR {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	if dpi <= 0 {
		dpi = 300
	}
	return &TesseractOCR{
		languages: languages,
		dpi:       dpi,
		logger:    logger,
	}
}

// RecognizePages renders every page at the configured DPI and OCRs it.
// A failure on one page is logged and skipped so a single bad render does
// not lose the rest of a scanned document.
func (t *TesseractOCR) RecognizePages(ctx context.Context, data []byte) ([]string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	defer doc.Close()

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return nil, fmt.Errorf("failed to configure OCR languages: %w", err)
	}

	var pages []string
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.ImagePNG(i, t.dpi)
		if err != nil {
			t.logger.WithError(err).WithField("page", i+1).Warn("failed to render page, skipping")
			continue
		}

		if err := client.SetImageFromBytes(img); err != nil {
			t.logger.WithError(err).WithField("page", i+1).Warn("failed to load page image for OCR, skipping")
			continue
		}

		text, err := client.Text()
		if err != nil {
			t.logger.WithError(err).WithField("page", i+1).Warn("OCR failed on page, skipping")
			continue
		}
		if text != "" {
			pages = append(pages, text)
		}

		t.logger.WithField("page", i+1).Debug("OCR completed for page")
	}

	return pages, nil
}
