package analysis

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Supported media types.
const (
	MediaTypePDF  = "application/pdf"
	MediaTypePNG  = "image/png"
	MediaTypeJPEG = "image/jpeg"
)

var extensionTypes = map[string]string{
	".pdf":  MediaTypePDF,
	".png":  MediaTypePNG,
	".jpg":  MediaTypeJPEG,
	".jpeg": MediaTypeJPEG,
}

// Upload is one document submitted for analysis.
type Upload struct {
	Data []byte

	// MediaType is the declared type. Empty means "derive from Filename or
	// content".
	MediaType string

	Filename string
}

// MediaTypeFor guesses the media type from a file name extension.
func MediaTypeFor(filename string) string {
	return extensionTypes[strings.ToLower(filepath.Ext(filename))]
}

// resolveMediaType checks that u is non-empty and of a supported type, and
// that its content agrees with the declared type.
func resolveMediaType(u Upload) (string, error) {
	if len(u.Data) == 0 {
		return "", ErrEmptyUpload
	}

	declared := canonicalMediaType(u.MediaType)
	if declared == "" {
		declared = MediaTypeFor(u.Filename)
	}

	detected := mimetype.Detect(u.Data)
	if declared == "" {
		declared = canonicalMediaType(detected.String())
	}
	if !supported(declared) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMediaType, u.MediaType)
	}
	if !detected.Is(declared) {
		return "", fmt.Errorf("%w: declared %s, detected %s", ErrMediaTypeMismatch, declared, detected.String())
	}
	return declared, nil
}

func canonicalMediaType(s string) string {
	s, _, _ = strings.Cut(s, ";")
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "image/jpg", "image/pjpeg":
		return MediaTypeJPEG
	}
	return s
}

func supported(mediaType string) bool {
	switch mediaType {
	case MediaTypePDF, MediaTypePNG, MediaTypeJPEG:
		return true
	}
	return false
}
