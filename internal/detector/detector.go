// Package detector identifies the source language of input text using the
// model backend. Detection is advisory: any failure degrades to the
// "unknown" sentinel and the pipeline proceeds as if the text were not
// English.
package detector

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Detection describes the detected source language. Code is a lowercase
// ISO-639-1-like tag or "unknown"; Confidence is clamped to [0,1].
type Detection struct {
	Code       string  `json:"language_code"`
	Name       string  `json:"language_name"`
	Confidence float64 `json:"confidence"`
}

// Unknown is returned whenever detection fails. Downstream treats it as
// non-English and translates anyway.
var Unknown = Detection{Code: "unknown", Name: "Unknown", Confidence: 0}

// IsEnglish reports whether the detected language needs no translation.
func (d Detection) IsEnglish() bool {
	return strings.ToLower(d.Code) == "en"
}

// Backend is the subset of the model client the detector needs.
type Backend interface {
	CompleteJSON(ctx context.Context, system, user string, temperature float64, out any) error
}

const (
	// sampleLength is how much text is sent for detection; the first
	// kilocharacter is representative enough.
	sampleLength = 1000

	// defaultConfidence applies when the model omits the confidence
	// field entirely.
	defaultConfidence = 0.8
)

const systemPrompt = `You are a language detection expert. Your task is to identify the language of the provided text.

Analyze the text and respond with a JSON object containing:
{
    "language_code": "ISO 639-1 two-letter code (e.g., 'en', 'fr', 'es', 'de', 'zh', 'ja', 'ar', 'hi')",
    "language_name": "Full name of the language in English (e.g., 'French', 'Spanish', 'German')",
    "confidence": float between 0 and 1 indicating how confident you are
}

If the text contains multiple languages, identify the predominant one.
If the text is already in English, still identify it as English.
Be accurate and confident in your detection.`

type Detector struct {
	backend Backend
	logger  *logrus.Logger
}

func New(backend Backend, logger *logrus.Logger) *Detector {
	return &Detector{backend: backend, logger: logger}
}

// Detect identifies the language of text from a bounded sample. It never
// returns an error; on any failure the Unknown sentinel comes back.
func (d *Detector) Detect(ctx context.Context, text string) Detection {
	sample := text
	if runes := []rune(sample); len(runes) > sampleLength {
		sample = string(runes[:sampleLength])
	}

	userPrompt := fmt.Sprintf(`Detect the language of the following text:

TEXT:
---
%s
---

Respond with JSON only.`, sample)

	var parsed struct {
		LanguageCode string   `json:"language_code"`
		LanguageName string   `json:"language_name"`
		Confidence   *float64 `json:"confidence"`
	}
	if err := d.backend.CompleteJSON(ctx, systemPrompt, userPrompt, 0.1, &parsed); err != nil {
		d.logger.WithError(err).Error("language detection failed, using unknown sentinel")
		return Unknown
	}

	return normalize(parsed.LanguageCode, parsed.LanguageName, parsed.Confidence)
}

// normalize applies the defaulting and clamping rules at the boundary
// where the backend response is parsed. The canonical English display
// name takes precedence over whatever name the model returned, so the
// same code always renders the same way.
func normalize(code, name string, confidence *float64) Detection {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		code = "unknown"
	}
	if name == "" {
		name = "Unknown"
	}

	if canonical, ok := canonicalName(code); ok {
		name = canonical
	}

	conf := defaultConfidence
	if confidence != nil {
		conf = *confidence
	}
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}

	return Detection{Code: code, Name: name, Confidence: conf}
}

// canonicalName resolves a language code to its English display name.
func canonicalName(code string) (string, bool) {
	if code == "unknown" {
		return "", false
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", false
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return "", false
	}
	return name, true
}
