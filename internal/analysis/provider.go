package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"cmrdocs/internal/documentai"
	"cmrdocs/internal/llm"
	"cmrdocs/internal/normalize"
	"cmrdocs/internal/ocr"
)

// Document is a validated upload handed to a provider.
type Document struct {
	Data      []byte
	MediaType string
}

// Output is what a provider returns. Candidate is set when the provider
// produced structured fields; Text holds any plain text it read. Either or
// both may be present.
type Output struct {
	Candidate *normalize.Candidate
	Text      string
}

// Provider reads a document through an external service.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, doc Document) (Output, error)
}

// OCRProvider returns text only; fields come from the text extractor.
type OCRProvider struct {
	OCR ocr.OCRService
}

func (p OCRProvider) Name() string { return p.OCR.Name() }

func (p OCRProvider) Analyze(ctx context.Context, doc Document) (Output, error) {
	res, err := p.OCR.Recognize(ctx, doc.Data, doc.MediaType)
	if err != nil {
		return Output{}, err
	}
	return Output{Text: res.Text}, nil
}

// DocumentProcessor is implemented by *documentai.Processor.
type DocumentProcessor interface {
	Process(ctx context.Context, data []byte, mediaType string) (*documentai.Result, error)
}

// DocumentAIProvider returns the entity candidate plus the document text,
// which is used to fill fields the entities did not cover.
type DocumentAIProvider struct {
	Processor DocumentProcessor
}

func (p DocumentAIProvider) Name() string { return "document-ai" }

func (p DocumentAIProvider) Analyze(ctx context.Context, doc Document) (Output, error) {
	res, err := p.Processor.Process(ctx, doc.Data, doc.MediaType)
	if err != nil {
		return Output{}, err
	}
	candidate := normalize.FromValue(res.Candidate)
	return Output{Candidate: &candidate, Text: res.Text}, nil
}

// ModelExtractor is implemented by *llm.Extractor.
type ModelExtractor interface {
	FromText(ctx context.Context, text string) (json.RawMessage, error)
	FromImage(ctx context.Context, data []byte, mediaType string) (json.RawMessage, error)
}

// LLMProvider sends images to the model directly. PDFs are read with OCR
// first and the text is sent instead, so a PDF needs OCR to be set.
type LLMProvider struct {
	Model ModelExtractor
	OCR   ocr.OCRService
}

func (p LLMProvider) Name() string { return "openai" }

func (p LLMProvider) Analyze(ctx context.Context, doc Document) (Output, error) {
	if doc.MediaType != MediaTypePDF {
		raw, err := p.Model.FromImage(ctx, doc.Data, doc.MediaType)
		if err != nil {
			return Output{}, err
		}
		candidate := normalize.FromJSON(raw)
		return Output{Candidate: &candidate}, nil
	}

	if p.OCR == nil {
		return Output{}, fmt.Errorf("%w: PDF input needs an OCR engine", llm.ErrUnsupportedInput)
	}
	res, err := p.OCR.Recognize(ctx, doc.Data, doc.MediaType)
	if err != nil {
		return Output{}, err
	}
	raw, err := p.Model.FromText(ctx, res.Text)
	if err != nil {
		return Output{}, err
	}
	candidate := normalize.FromJSON(raw)
	return Output{Candidate: &candidate, Text: res.Text}, nil
}
