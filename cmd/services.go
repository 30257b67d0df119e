package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"cmrdocs/internal/analysis"
	"cmrdocs/internal/cache"
	"cmrdocs/internal/config"
	"cmrdocs/internal/documentai"
	"cmrdocs/internal/llm"
	"cmrdocs/internal/ocr"
)

// closers releases provider and cache resources in reverse order.
type closers []io.Closer

func (c closers) Close(log zerolog.Logger) {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i].Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to release resource")
		}
	}
}

// newAnalysisService builds the provider selected in cfg, the result cache
// and the analysis service around them.
func newAnalysisService(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*analysis.Service, closers, error) {
	provider, cs, err := newProvider(ctx, cfg, log)
	if err != nil {
		cs.Close(log)
		return nil, nil, err
	}

	c, err := cache.New(cfg.Cache())
	if err != nil {
		cs.Close(log)
		return nil, nil, fmt.Errorf("failed to open result cache: %w", err)
	}
	cs = append(cs, c)

	log.Debug().
		Str("provider", provider.Name()).
		Str("cache", cfg.CacheBackend).
		Msg("Analysis service created")

	return analysis.NewService(provider, c, cfg.Analysis()), cs, nil
}

func newProvider(ctx context.Context, cfg *config.Config, log zerolog.Logger) (analysis.Provider, closers, error) {
	switch cfg.Provider {
	case config.ProviderDocumentAI:
		processor, err := documentai.NewProcessor(ctx, cfg.DocumentAI(), cfg.GoogleClientOptions()...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Document AI processor: %w", err)
		}
		return analysis.DocumentAIProvider{Processor: processor}, closers{processor}, nil

	case config.ProviderOpenAI:
		extractor, err := llm.NewExtractor(cfg.OpenAIAPIKey, cfg.LLM())
		if err != nil {
			return nil, nil, err
		}
		// PDFs are read with Cloud Vision first. Without Google credentials
		// only images can be analyzed.
		vision, err := ocr.NewGoogleVisionOCRService(ctx, cfg.GoogleClientOptions()...)
		if err != nil {
			log.Warn().Err(err).Msg("Cloud Vision unavailable, PDF input is disabled for the openai provider")
			return analysis.LLMProvider{Model: extractor}, nil, nil
		}
		return analysis.LLMProvider{Model: extractor, OCR: vision}, closers{vision}, nil

	default:
		svc, err := newOCRService(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return analysis.OCRProvider{OCR: svc}, closers{svc}, nil
	}
}

// newOCRService returns the text engine for cfg. Providers that are not OCR
// engines themselves fall back to Cloud Vision.
func newOCRService(ctx context.Context, cfg *config.Config) (ocr.OCRService, error) {
	if cfg.Provider == config.ProviderTesseract {
		svc, err := ocr.NewTesseractService(cfg.TesseractLanguages)
		if err != nil {
			return nil, fmt.Errorf("failed to create Tesseract engine: %w", err)
		}
		return svc, nil
	}

	svc, err := ocr.NewGoogleVisionOCRService(ctx, cfg.GoogleClientOptions()...)
	if err != nil {
		if errors.Is(err, ocr.ErrMissingCredentials) {
			return nil, fmt.Errorf("Google Cloud credentials not configured. Set GOOGLE_APPLICATION_CREDENTIALS "+
				"to a service account JSON file, GOOGLE_CREDENTIALS to inline JSON, or run "+
				"'gcloud auth application-default login': %w", err)
		}
		return nil, fmt.Errorf("failed to create OCR service: %w", err)
	}
	return svc, nil
}

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// readDocument loads an upload from disk after basic file checks.
func readDocument(path string, log zerolog.Logger) (analysis.Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return analysis.Upload{}, fmt.Errorf("file not found: %s", path)
		}
		if os.IsPermission(err) {
			return analysis.Upload{}, fmt.Errorf("permission denied accessing file: %s", path)
		}
		return analysis.Upload{}, fmt.Errorf("error accessing file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return analysis.Upload{}, fmt.Errorf("path is not a regular file: %s", path)
	}
	if info.Size() > ocr.MaxFileSizeBytes {
		log.Error().
			Str("file", path).
			Int64("size", info.Size()).
			Int64("max_size", ocr.MaxFileSizeBytes).
			Msg("File exceeds maximum size limit")
		return analysis.Upload{}, fmt.Errorf("file too large (%d bytes). Maximum size is %d bytes (20MB)",
			info.Size(), ocr.MaxFileSizeBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return analysis.Upload{}, fmt.Errorf("failed to read file: %w", err)
	}
	return analysis.Upload{Data: data, Filename: path}, nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes data to path, or to w when path is empty.
func writeOutput(w io.Writer, path string, data []byte, log zerolog.Logger) error {
	if path == "" {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if !strings.HasSuffix(string(data), "\n") {
			_, _ = io.WriteString(w, "\n")
		}
		return nil
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Error().
			Err(err).
			Str("output_file", path).
			Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", path).
		Int("bytes", len(data)).
		Msg("Results written to file")
	return nil
}

// handleError provides user-friendly messages for provider failures
func handleError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Processing failed")

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("processing timed out. Try increasing --timeout or processing a smaller file")
	case errors.Is(err, context.Canceled), errors.Is(err, documentai.ErrContextCanceled):
		return fmt.Errorf("processing was canceled")
	case errors.Is(err, analysis.ErrEmptyUpload):
		return fmt.Errorf("the file is empty")
	case errors.Is(err, analysis.ErrUnsupportedMediaType):
		return fmt.Errorf("unsupported file type. Use PDF, PNG or JPEG: %w", err)
	case errors.Is(err, analysis.ErrMediaTypeMismatch):
		return fmt.Errorf("file content does not match its extension: %w", err)
	case errors.Is(err, analysis.ErrProviderUnavailable):
		return fmt.Errorf("provider is temporarily unavailable after repeated failures. Try again later")
	case errors.Is(err, ocr.ErrFileTooLarge), errors.Is(err, documentai.ErrDocumentTooLarge):
		return fmt.Errorf("file is too large (maximum 20MB). Try compressing or splitting the file")
	case errors.Is(err, ocr.ErrTooManyPages):
		return fmt.Errorf("PDF has too many pages (maximum %d pages). Try splitting into smaller files", ocr.MaxPagesSync)
	case errors.Is(err, ocr.ErrInvalidPDF):
		return fmt.Errorf("invalid or corrupted PDF file. Please check the file integrity")
	case errors.Is(err, ocr.ErrEmptyDocument):
		return fmt.Errorf("no readable text found in the document")
	case errors.Is(err, ocr.ErrEngineDisabled):
		return fmt.Errorf("the Tesseract engine is not compiled in. Rebuild with -tags tesseract: %w", err)
	case errors.Is(err, documentai.ErrInvalidCredentials):
		return fmt.Errorf("permission denied. Please ensure the service account has the 'Document AI API User' role")
	case errors.Is(err, documentai.ErrQuotaExceeded):
		return fmt.Errorf("Document AI quota exceeded. Check your project quotas in the Google Cloud Console")
	case errors.Is(err, documentai.ErrProcessorNotFound):
		return fmt.Errorf("Document AI processor not found. Check DOCUMENT_AI_PROCESSOR_ID and GOOGLE_CLOUD_LOCATION")
	case errors.Is(err, llm.ErrUnsupportedInput):
		return fmt.Errorf("the openai provider needs Google Cloud Vision credentials to read PDFs: %w", err)
	case errors.Is(err, llm.ErrInvalidResponse):
		return fmt.Errorf("the model did not return a valid record: %w", err)
	default:
		return fmt.Errorf("processing failed: %w", err)
	}
}
