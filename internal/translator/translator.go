// Package translator converts non-English text to English through the
// model backend. Short inputs go out as a single call; long inputs are
// chunked, translated concurrently under a bounded worker limit, and
// reassembled in source order.
package translator

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/okarpov/linguard/internal/chunker"
	"github.com/okarpov/linguard/internal/detector"
	"github.com/okarpov/linguard/internal/postprocess"
)

// Backend is the subset of the model client the translator needs.
type Backend interface {
	Complete(ctx context.Context, system, user string, temperature float64) (string, error)
}

const systemPrompt = `You are a professional translator. Your task is to translate text accurately to English.

Guidelines:
1. Translate the text accurately while preserving the original meaning
2. Maintain the original formatting (paragraphs, lists, etc.) where possible
3. Keep proper nouns unchanged unless they have common English equivalents
4. Preserve numbers, dates, and technical terms appropriately
5. If the text contains phrases that don't translate directly, provide the closest English equivalent
6. Maintain the tone and style of the original text

Only provide the translated text in your response, nothing else.
Do not add explanations, notes, or commentary.
Do not say "Here is the translation" or similar phrases.`

// chunkSeparator joins translated chunks back together.
const chunkSeparator = "\n\n"

type Config struct {
	ChunkLimit int
	// Workers caps concurrent backend calls in the chunked path.
	Workers int
}

type Translator struct {
	backend    Backend
	logger     *logrus.Logger
	chunkLimit int
	workers    int
}

func New(backend Backend, cfg Config, logger *logrus.Logger) *Translator {
	limit := cfg.ChunkLimit
	if limit <= 0 {
		limit = 4000
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Translator{
		backend:    backend,
		logger:     logger,
		chunkLimit: limit,
		workers:    workers,
	}
}

// Translate converts text to English. Text already detected as English is
// returned unchanged with no backend call. A nil detection means the
// source language is unknown; the backend is asked to detect it itself.
func (t *Translator) Translate(ctx context.Context, text string, det *detector.Detection) (string, error) {
	if det != nil && det.IsEnglish() {
		t.logger.Debug("text already in English, no translation needed")
		return text, nil
	}

	if len([]rune(text)) <= t.chunkLimit {
		return t.translateSingle(ctx, text, det)
	}
	return t.translateChunked(ctx, text, det)
}

func (t *Translator) translateSingle(ctx context.Context, text string, det *detector.Detection) (string, error) {
	langInfo := "Detect the source language automatically."
	if det != nil && det.Code != "unknown" {
		langInfo = fmt.Sprintf("The source language is %s (%s).", det.Name, det.Code)
	}

	userPrompt := fmt.Sprintf(`%s

Translate the following text to English:

---
%s
---

Provide only the English translation, nothing else.`, langInfo, text)

	translated, err := t.backend.Complete(ctx, systemPrompt, userPrompt, 0.2)
	if err != nil {
		return "", fmt.Errorf("translation failed: %w", err)
	}

	return postprocess.Clean(translated), nil
}

// translateChunked splits text, translates the chunks concurrently and
// joins the results in source order. The first chunk failure cancels the
// remaining calls and aborts the whole translation; partial results are
// never returned.
func (t *Translator) translateChunked(ctx context.Context, text string, det *detector.Detection) (string, error) {
	chunks := chunker.Split(text, t.chunkLimit)
	t.logger.WithFields(logrus.Fields{
		"chars":  len([]rune(text)),
		"chunks": len(chunks),
	}).Info("translating long text in chunks")

	translated := make([]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)

	for i, chunk := range chunks {
		g.Go(func() error {
			out, err := t.translateSingle(gctx, chunk, det)
			if err != nil {
				return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
			}
			translated[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", err
	}

	return strings.Join(translated, chunkSeparator), nil
}
