// Package server exposes the translation pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/okarpov/linguard/internal/config"
	"github.com/okarpov/linguard/internal/extractor"
	"github.com/okarpov/linguard/internal/pipeline"
)

const serviceName = "Secure Translation API"

// Processor is the pipeline surface the HTTP handlers need.
type Processor interface {
	ProcessText(ctx context.Context, text string) (*pipeline.Result, error)
	ProcessDocument(ctx context.Context, filename string, data []byte) (*pipeline.Result, error)
}

type translateRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}

type Server struct {
	app       *fiber.App
	processor Processor
	cfg       *config.Config
	logger    *logrus.Logger
}

func New(processor Processor, cfg *config.Config, logger *logrus.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		BodyLimit:             int(cfg.MaxFileSizeBytes()) + 1024*1024,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
	})

	s := &Server{
		app:       app,
		processor: processor,
		cfg:       cfg,
		logger:    logger,
	}

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Server.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "*",
		AllowCredentials: false,
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.Server.RatePerMinute,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(errorResponse{
				Error:     "Rate limit exceeded",
				ErrorCode: "RATE_LIMITED",
			})
		},
	}))

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.app.Get("/", s.handleRoot)
	s.app.Get("/health", s.handleHealth)

	api := s.app.Group("/api/translate")
	api.Post("/text", s.handleTranslateText)
	api.Post("/document", s.handleTranslateDocument)
}

// App exposes the underlying fiber application for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Run() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.logger.WithField("addr", addr).Info("starting translation service")
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"service":   serviceName,
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	ocrStatus := "disabled"
	if s.cfg.OCR.Enabled {
		ocrStatus = "active"
	}
	return c.JSON(fiber.Map{
		"status": "healthy",
		"components": fiber.Map{
			"api":                "operational",
			"mistral_connection": "configured",
			"security_screener":  "active",
			"language_detector":  "active",
			"translator":         "active",
			"ocr":                ocrStatus,
		},
	})
}

func (s *Server) handleTranslateText(c *fiber.Ctx) error {
	var req translateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return badRequest(c, "Text cannot be empty")
	}
	if len([]rune(text)) > s.cfg.Security.MaxInputLength {
		return badRequest(c, fmt.Sprintf("Text exceeds maximum length of %d characters", s.cfg.Security.MaxInputLength))
	}

	result, err := s.processor.ProcessText(c.Context(), text)
	if err != nil {
		return s.internalError(c, err, "An error occurred during translation")
	}
	return c.JSON(result)
}

func (s *Server) handleTranslateDocument(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "No file uploaded")
	}

	file, err := header.Open()
	if err != nil {
		return s.internalError(c, err, "An error occurred processing the PDF")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return s.internalError(c, err, "An error occurred processing the PDF")
	}

	result, err := s.processor.ProcessDocument(c.Context(), header.Filename, data)
	if err != nil {
		var verr *extractor.ValidationError
		switch {
		case errors.As(err, &verr):
			return badRequest(c, verr.Reason)
		case errors.Is(err, extractor.ErrNoText), errors.Is(err, extractor.ErrOCRUnavailable):
			return badRequest(c, err.Error())
		default:
			return s.internalError(c, err, "An error occurred processing the PDF")
		}
	}
	return c.JSON(result)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
		Error:     message,
		ErrorCode: "VALIDATION_ERROR",
	})
}

// internalError hides the failure detail from the caller and logs it in
// full.
func (s *Server) internalError(c *fiber.Ctx, err error, message string) error {
	return s.logAndRespond(c, err, fiber.StatusInternalServerError, message, "INTERNAL_ERROR")
}

func (s *Server) logAndRespond(c *fiber.Ctx, err error, status int, message, code string) error {
	s.logger.WithError(err).WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	}).Error("request failed")
	return c.Status(status).JSON(errorResponse{
		Error:     message,
		ErrorCode: code,
	})
}
