// Package documentai runs uploads through a Google Document AI processor
// (typically the invoice parser) and maps the returned entities onto the
// DocumentRecord shape.
//
// Document AI API limits:
//   - Maximum file size: 20MB for synchronous processing
//   - Formats used here: PDF, PNG, JPEG
//   - Processing time: typically 5-15 seconds per document
package documentai

import (
	"fmt"
	"time"
)

// Config holds configuration for Google Document AI processing.
type Config struct {
	// ProjectID is the Google Cloud project ID where Document AI is enabled.
	ProjectID string

	// Location is the processing location ("us" or "eu"). Anything but "us"
	// uses the regional endpoint.
	Location string

	ProcessorID string

	// ProcessorVersion pins a processor version. Empty uses the default.
	ProcessorVersion string

	// Timeout bounds a single ProcessDocument call. Default: 60 seconds.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Location: "us",
		Timeout:  60 * time.Second,
	}
}

// ProcessorName is the fully qualified resource name of the processor.
func (c Config) ProcessorName() string {
	name := fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
	if c.ProcessorVersion != "" {
		name += "/processorVersions/" + c.ProcessorVersion
	}
	return name
}

// Endpoint returns the API endpoint for the location, or "" for the default.
func (c Config) Endpoint() string {
	if c.Location == "" || c.Location == "us" {
		return ""
	}
	return fmt.Sprintf("%s-documentai.googleapis.com:443", c.Location)
}

// Result is what one processed document yields.
type Result struct {
	// Text is the full document text as read by the processor.
	Text string

	// Candidate is a loosely nested record tree built from the entities.
	// Fields without an entity are absent.
	Candidate map[string]any

	// Confidence maps entity types to their confidence (0.0-1.0).
	Confidence map[string]float32

	PageCount      int
	ProcessingTime time.Duration
}
