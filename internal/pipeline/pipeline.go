// Package pipeline wires the translation stages together. Every stage is
// an injected dependency so callers and tests can substitute their own
// implementations for the model-backed ones.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/okarpov/linguard/internal/detector"
	"github.com/okarpov/linguard/internal/sanitize"
	"github.com/okarpov/linguard/internal/screener"
)

const (
	textPreviewLength     = 100
	documentPreviewLength = 200
)

type Screener interface {
	Analyze(ctx context.Context, text string) screener.Verdict
}

type Detector interface {
	Detect(ctx context.Context, text string) detector.Detection
}

type Translator interface {
	Translate(ctx context.Context, text string, det *detector.Detection) (string, error)
}

type Extractor interface {
	Validate(filename string, data []byte) error
	Extract(ctx context.Context, data []byte) (string, error)
}

// Validator checks that translated output reads as English. It is
// advisory only.
type Validator interface {
	IsEnglish(text string) (bool, error)
}

// Result is the outcome of a full pipeline run. Blocked inputs produce a
// Result with Success=false rather than an error.
type Result struct {
	Success                    bool            `json:"success"`
	OriginalText               string          `json:"original_text"`
	DetectedLanguage           string          `json:"detected_language"`
	DetectedLanguageConfidence float64         `json:"detected_language_confidence"`
	TranslatedText             string          `json:"translated_text"`
	SecurityStatus             screener.Status `json:"security_status"`
	Message                    string          `json:"message,omitempty"`
}

type Config struct {
	// MaxInputLength bounds sanitized input, in runes.
	MaxInputLength int
}

type Pipeline struct {
	screener   Screener
	detector   Detector
	translator Translator
	extractor  Extractor
	validator  Validator // nil disables output validation
	logger     *logrus.Logger
	maxInput   int
}

func New(scr Screener, det Detector, tr Translator, ext Extractor, val Validator, cfg Config, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		screener:   scr,
		detector:   det,
		translator: tr,
		extractor:  ext,
		validator:  val,
		logger:     logger,
		maxInput:   cfg.MaxInputLength,
	}
}

// ProcessText runs sanitize, screening, detection and translation over a
// raw text submission.
func (p *Pipeline) ProcessText(ctx context.Context, text string) (*Result, error) {
	log := p.logger.WithField("request_id", uuid.NewString())

	sanitized := sanitize.Clean(text, p.maxInput)

	log.Info("running security analysis")
	verdict := p.screener.Analyze(ctx, sanitized)
	if !verdict.IsSafe {
		log.WithField("reason", verdict.Reason).Warn("security screening blocked input")
		return blockedResult(text, textPreviewLength, verdict), nil
	}
	if verdict.Status == screener.StatusWarning {
		log.WithField("reason", verdict.Reason).Warn("security screening flagged input")
	}

	return p.translate(ctx, log, sanitized, text,
		"Text is already in English. No translation needed.",
		"Successfully translated from %s to English")
}

// ProcessDocument validates and extracts an uploaded PDF, then runs the
// extracted text through the same stages as ProcessText.
func (p *Pipeline) ProcessDocument(ctx context.Context, filename string, data []byte) (*Result, error) {
	log := p.logger.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"filename":   filename,
	})

	if err := p.extractor.Validate(filename, data); err != nil {
		return nil, err
	}

	log.Info("extracting text from PDF")
	extracted, err := p.extractor.Extract(ctx, data)
	if err != nil {
		log.WithError(err).Error("PDF extraction failed")
		return nil, err
	}
	chars := len([]rune(extracted))
	log.WithField("chars", chars).Info("extracted text from PDF")

	sanitized := sanitize.Clean(extracted, p.maxInput)

	log.Info("running security analysis on extracted text")
	verdict := p.screener.Analyze(ctx, sanitized)
	if !verdict.IsSafe {
		log.WithField("reason", verdict.Reason).Warn("security screening blocked PDF content")
		return blockedResult(extracted, documentPreviewLength, verdict), nil
	}
	if verdict.Status == screener.StatusWarning {
		log.WithField("reason", verdict.Reason).Warn("security screening flagged PDF content")
	}

	return p.translate(ctx, log, sanitized, extracted,
		fmt.Sprintf("PDF text is already in English. Extracted %d characters.", chars),
		"Successfully translated PDF from %s to English")
}

func (p *Pipeline) translate(ctx context.Context, log *logrus.Entry, sanitized, original, englishMessage, translatedMessage string) (*Result, error) {
	det := p.detector.Detect(ctx, sanitized)
	log.WithFields(logrus.Fields{
		"language":   det.Name,
		"confidence": det.Confidence,
	}).Info("detected language")

	var translated, message string
	if det.IsEnglish() {
		translated = sanitized
		message = englishMessage
	} else {
		var err error
		translated, err = p.translator.Translate(ctx, sanitized, &det)
		if err != nil {
			log.WithError(err).Error("translation failed")
			return nil, err
		}
		message = fmt.Sprintf(translatedMessage, det.Name)
	}

	p.checkOutput(log, det, translated)

	return &Result{
		Success:                    true,
		OriginalText:               original,
		DetectedLanguage:           det.Name,
		DetectedLanguageConfidence: det.Confidence,
		TranslatedText:             translated,
		SecurityStatus:             screener.StatusSafe,
		Message:                    message,
	}, nil
}

// checkOutput warns when the translated text does not look like English.
// It never fails the request.
func (p *Pipeline) checkOutput(log *logrus.Entry, det detector.Detection, translated string) {
	if p.validator == nil || det.IsEnglish() {
		return
	}
	if ok, err := p.validator.IsEnglish(translated); !ok {
		log.WithError(err).Warn("translated output does not look like English")
	}
}

func blockedResult(original string, previewLen int, verdict screener.Verdict) *Result {
	return &Result{
		Success:          false,
		OriginalText:     preview(original, previewLen),
		DetectedLanguage: "N/A",
		SecurityStatus:   verdict.Status,
		Message:          "Security Alert: " + verdict.Reason,
	}
}

func preview(text string, limit int) string {
	if runes := []rune(text); len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return text
}
