// Package ocr turns uploaded documents into plain text.
//
// Two engines are available. GoogleVisionOCRService calls the Cloud Vision
// API and handles PDF (up to five pages, synchronous) as well as PNG and JPEG
// images. TesseractService runs the local Tesseract engine on images and is
// only compiled with the "tesseract" build tag.
//
// Credentials for Cloud Vision are passed in as client options; see
// config.Config.GoogleClientOptions.
//
// Cloud Vision limits for synchronous requests:
//   - Maximum file size: 20MB
//   - Maximum pages: 5 per PDF
package ocr

import (
	"context"
	"time"
)

// Supported media types.
const (
	MediaTypePDF  = "application/pdf"
	MediaTypePNG  = "image/png"
	MediaTypeJPEG = "image/jpeg"
)

// OCRService extracts text from a document.
type OCRService interface {
	// Recognize returns the text of data, read as mediaType.
	Recognize(ctx context.Context, data []byte, mediaType string) (*OCRResult, error)

	// Name identifies the engine in logs and results.
	Name() string

	Close() error
}

// OCRResult contains the recognized text with metadata.
type OCRResult struct {
	// Text is the content of all pages in reading order. Pages after the
	// first are preceded by a "--- Page N ---" separator.
	Text string `json:"text"`

	PageCount int `json:"page_count"`

	// Confidence is the average page confidence (0.0 to 1.0), zero when the
	// engine does not report one.
	Confidence float32 `json:"confidence"`

	ProcessedAt time.Time `json:"processed_at"`

	LanguageCodes []string `json:"language_codes,omitempty"`

	ProcessingDuration time.Duration `json:"processing_duration"`
}

// Supported reports whether mediaType can be sent to an OCR engine.
func Supported(mediaType string) bool {
	switch mediaType {
	case MediaTypePDF, MediaTypePNG, MediaTypeJPEG:
		return true
	}
	return false
}
