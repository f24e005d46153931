// Package validator checks that translated output actually reads as
// English. It runs entirely offline on top of the lingua-go detector, so
// it can flag a suspect translation without another backend call. The
// check is advisory; the pipeline logs a warning and keeps the result.
package validator

import (
	"fmt"
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// minValidationLength is the minimum rune count required to attempt
// language identification. Shorter texts produce unreliable results and
// are accepted without validation.
const minValidationLength = 20

// Validator checks that translation output is written in English.
// The underlying detector is expensive to build; reuse the instance.
type Validator struct {
	det lingua.LanguageDetector
}

// New creates a Validator backed by the lingua-go language detector.
func New() *Validator {
	det := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()
	return &Validator{det: det}
}

// IsEnglish reports whether translatedText appears to be written in
// English.
//
// Empty output is always invalid. Short texts and texts whose language
// cannot be determined pass without error. When another language is
// identified the returned error names it.
func (v *Validator) IsEnglish(translatedText string) (bool, error) {
	text := strings.TrimSpace(translatedText)
	if text == "" {
		return false, fmt.Errorf("translation is empty")
	}

	// Identification is unreliable for very short texts; skip.
	if len([]rune(text)) < minValidationLength {
		return true, nil
	}

	detected, ok := v.det.DetectLanguageOf(text)
	if !ok {
		// Ambiguous language, cannot validate.
		return true, nil
	}

	if detected != lingua.English {
		return false, fmt.Errorf("expected English but detected %s", detected.String())
	}

	return true, nil
}
