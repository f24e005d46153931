/*
Copyright © 2026 Oleg Karpov

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/okarpov/linguard/internal/config"
	"github.com/okarpov/linguard/internal/detector"
	"github.com/okarpov/linguard/internal/extractor"
	"github.com/okarpov/linguard/internal/mistral"
	"github.com/okarpov/linguard/internal/pipeline"
	"github.com/okarpov/linguard/internal/screener"
	"github.com/okarpov/linguard/internal/translator"
	"github.com/okarpov/linguard/internal/validator"
)

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}

// loadConfig reads .env if present, then the config file and environment.
func loadConfig(logger *logrus.Logger) (*config.Config, error) {
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded environment from .env")
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildPipeline constructs every stage around a shared Mistral client.
func buildPipeline(cfg *config.Config, logger *logrus.Logger) *pipeline.Pipeline {
	client := mistral.New(cfg.Mistral.APIKey, cfg.Mistral.BaseURL, cfg.Mistral.Model, cfg.Mistral.Timeout)

	scr := screener.New(client, screener.Config{
		BlockedPatterns: cfg.Security.BlockedPatterns,
		MaxInputLength:  cfg.Security.MaxInputLength,
		MidRisk:         cfg.Security.MidRisk,
		HighRisk:        cfg.Security.HighRisk,
	}, logger)

	det := detector.New(client, logger)

	tr := translator.New(client, translator.Config{
		ChunkLimit: cfg.Mistral.ChunkLimit,
		Workers:    cfg.Mistral.ChunkWorkers,
	}, logger)

	var ocr extractor.OCR
	if cfg.OCR.Enabled {
		ocr = extractor.NewTesseractOCR(cfg.OCR.Languages, cfg.OCR.DPI, logger)
	}
	ext := extractor.New(extractor.NewPDFTextReader(logger), ocr, extractor.Config{
		MaxFileSize:     cfg.MaxFileSizeBytes(),
		MinUsableLength: cfg.Upload.MinUsableLength,
	}, logger)

	return pipeline.New(scr, det, tr, ext, validator.New(), pipeline.Config{
		MaxInputLength: cfg.Security.MaxInputLength,
	}, logger)
}
