//go:build !tesseract

package ocr

import "context"

// TesseractService is the stub used when the binary is built without the
// "tesseract" tag. Rebuild with -tags tesseract to enable it.
type TesseractService struct{}

// NewTesseractService always fails with ErrEngineDisabled.
func NewTesseractService(string) (*TesseractService, error) {
	return nil, WrapOCRError("NewTesseractService", ErrEngineDisabled, "")
}

func (t *TesseractService) Name() string { return "tesseract" }

func (t *TesseractService) Recognize(context.Context, []byte, string) (*OCRResult, error) {
	return nil, WrapOCRError("Recognize", ErrEngineDisabled, "")
}

// Close is safe to call on a nil service.
func (t *TesseractService) Close() error { return nil }
