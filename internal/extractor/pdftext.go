package extractor

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"
)

// PDFTextReader reads the embedded text layer of a PDF. A page that fails
// to parse is logged and skipped; the rest of the document still counts.
type PDFTextReader struct {
	logger *logrus.Logger
}

func NewPDFTextReader(logger *logrus.Logger) *PDFTextReader {
	return &PDFTextReader{logger: logger}
}

func (r *PDFTextReader) ExtractPages(data []byte) (pages []string, err error) {
	// The pdf package panics on some malformed documents; contain that
	// here so a bad upload cannot take the process down.
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("malformed PDF: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			r.logger.WithError(pageErr).WithField("page", i).Warn("failed to extract text from page, skipping")
			continue
		}
		if content != "" {
			pages = append(pages, content)
		}
	}

	return pages, nil
}
