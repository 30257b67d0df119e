//go:build tesseract

package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/otiai10/gosseract/v2"
)

// TesseractService runs the local Tesseract engine on PNG and JPEG images.
// Tesseract must be installed on the host (apt-get install tesseract-ocr).
type TesseractService struct {
	mu     sync.Mutex // gosseract clients are not safe for concurrent use
	client *gosseract.Client
}

// NewTesseractService creates a client for the given "+" separated
// languages, e.g. "eng+deu". Empty means the Tesseract default.
func NewTesseractService(languages string) (*TesseractService, error) {
	client := gosseract.NewClient()
	if languages != "" {
		if err := client.SetLanguage(strings.Split(languages, "+")...); err != nil {
			_ = client.Close()
			return nil, WrapOCRError("NewTesseractService", err, "failed to set language")
		}
	}
	return &TesseractService{client: client}, nil
}

func (t *TesseractService) Name() string { return "tesseract" }

func (t *TesseractService) Recognize(ctx context.Context, data []byte, mediaType string) (*OCRResult, error) {
	const op = "Recognize"
	startTime := time.Now()

	if mediaType != MediaTypePNG && mediaType != MediaTypeJPEG {
		return nil, WrapOCRError(op, ErrUnsupportedType, mediaType)
	}
	if err := ctx.Err(); err != nil {
		return nil, WrapOCRError(op, err, "")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(data); err != nil {
		return nil, WrapOCRError(op, err, "failed to set image")
	}
	text, err := t.client.Text()
	if err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("tesseract: %v", err))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, WrapOCRError(op, ErrEmptyDocument, "")
	}

	processedAt := time.Now()
	return &OCRResult{
		Text:               text,
		PageCount:          1,
		ProcessedAt:        processedAt,
		ProcessingDuration: processedAt.Sub(startTime),
	}, nil
}

func (t *TesseractService) Close() error {
	if t.client != nil {
		return t.client.Close()
	}
	return nil
}
