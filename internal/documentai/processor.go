package documentai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"cmrdocs/internal/logger"
)

// MaxDocumentSizeBytes is the maximum document size for processing (20MB)
const MaxDocumentSizeBytes = 20 * 1024 * 1024

var supportedTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
}

// entityFields maps Document AI entity types to the record paths they fill.
// Party and goods entities fill both sections.
var entityFields = map[string][]string{
	"supplier_name":         {"cmr.exporter.name", "invoice.exporter.name"},
	"vendor_name":           {"cmr.exporter.name", "invoice.exporter.name"},
	"supplier_address":      {"cmr.exporter.address", "invoice.exporter.address"},
	"receiver_name":         {"cmr.importer.name", "invoice.importer.name"},
	"buyer_name":            {"cmr.importer.name", "invoice.importer.name"},
	"customer_name":         {"cmr.importer.name", "invoice.importer.name"},
	"receiver_address":      {"cmr.importer.address", "invoice.importer.address"},
	"receiver_tax_id":       {"cmr.importer.id", "invoice.importer.id"},
	"ship_from_address":     {"cmr.loading_place"},
	"ship_to_address":       {"cmr.delivery_place"},
	"invoice_id":            {"invoice.invoice_no"},
	"invoice_number":        {"invoice.invoice_no"},
	"invoice_date":          {"invoice.invoice_date"},
	"total_amount":          {"invoice.total_amount"},
	"line_item/description": {"cmr.goods_name", "invoice.goods_name"},
}

// DocumentProcessor is the subset of *documentai.DocumentProcessorClient in use.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
	Close() error
}

// Processor sends documents to one Document AI processor.
type Processor struct {
	client DocumentProcessor
	config Config
	log    zerolog.Logger
}

// NewProcessor creates a Document AI client for config. opts carry the
// credentials; the regional endpoint is added from config.Location.
func NewProcessor(ctx context.Context, config Config, opts ...option.ClientOption) (*Processor, error) {
	const op = "NewProcessor"

	if config.ProjectID == "" {
		return nil, WrapProcessingError(op, ErrInvalidConfiguration, "project ID is required")
	}
	if config.ProcessorID == "" {
		return nil, WrapProcessingError(op, ErrInvalidConfiguration, "processor ID is required")
	}
	if config.Location == "" {
		config.Location = "us"
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	clientOptions := append([]option.ClientOption{}, opts...)
	if endpoint := config.Endpoint(); endpoint != "" {
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(opts) == 0 {
			return nil, WrapProcessingError(op, ErrMissingCredentials, err.Error())
		}
		return nil, WrapProcessingError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return NewProcessorWithClient(config, client), nil
}

// NewProcessorWithClient creates a processor around an existing client.
func NewProcessorWithClient(config Config, client DocumentProcessor) *Processor {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &Processor{
		client: client,
		config: config,
		log:    logger.WithComponent("document-ai"),
	}
}

// Process sends data to the processor and maps the response.
func (p *Processor) Process(ctx context.Context, data []byte, mediaType string) (*Result, error) {
	const op = "Process"
	start := time.Now()

	if len(data) > MaxDocumentSizeBytes {
		return nil, WrapProcessingError(op, ErrDocumentTooLarge, fmt.Sprintf("file size: %d bytes", len(data)))
	}
	if !supportedTypes[mediaType] {
		return nil, WrapProcessingError(op, ErrUnsupportedFormat, mediaType)
	}

	processCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: p.config.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: mediaType,
			},
		},
	}

	resp, err := p.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, p.handleProcessingError(op, err)
	}
	doc := resp.GetDocument()
	if doc == nil {
		return nil, WrapProcessingError(op, ErrProcessingFailed, "no document in response")
	}

	candidate, confidence := p.mapEntities(doc.GetEntities())

	p.log.Info().
		Int("entities", len(doc.GetEntities())).
		Int("pages", len(doc.GetPages())).
		Int("text_length", len(doc.GetText())).
		Dur("elapsed", time.Since(start)).
		Msg("Document AI processing completed")

	return &Result{
		Text:           doc.GetText(),
		Candidate:      candidate,
		Confidence:     confidence,
		PageCount:      len(doc.GetPages()),
		ProcessingTime: time.Since(start),
	}, nil
}

// mapEntities builds the candidate tree. The first entity for a path wins.
func (p *Processor) mapEntities(entities []*documentaipb.Document_Entity) (map[string]any, map[string]float32) {
	tree := map[string]any{}
	confidence := make(map[string]float32)

	var visit func(entities []*documentaipb.Document_Entity)
	visit = func(entities []*documentaipb.Document_Entity) {
		for _, entity := range entities {
			entityType := entity.GetType()
			value := entityValue(entity)

			p.log.Debug().
				Str("entity_type", entityType).
				Str("value", value).
				Float32("confidence", entity.GetConfidence()).
				Msg("Processing Document AI entity")

			if paths, ok := entityFields[entityType]; ok && value != "" {
				if _, seen := confidence[entityType]; !seen {
					confidence[entityType] = entity.GetConfidence()
				}
				for _, path := range paths {
					setPath(tree, path, value)
				}
			}
			visit(entity.GetProperties())
		}
	}
	visit(entities)

	return tree, confidence
}

// entityValue prefers the normalized text for dates and the mention text
// for everything else.
func entityValue(entity *documentaipb.Document_Entity) string {
	if nv := entity.GetNormalizedValue(); nv != nil && nv.GetDateValue() != nil && nv.GetText() != "" {
		return strings.TrimSpace(nv.GetText())
	}
	return strings.TrimSpace(entity.GetMentionText())
}

// setPath stores value at a dotted path unless something is already there.
func setPath(tree map[string]any, path, value string) {
	keys := strings.Split(path, ".")
	node := tree
	for _, key := range keys[:len(keys)-1] {
		child, ok := node[key].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[key] = child
		}
		node = child
	}
	leaf := keys[len(keys)-1]
	if _, exists := node[leaf]; !exists {
		node[leaf] = value
	}
}

// handleProcessingError converts Document AI errors to the package sentinels.
func (p *Processor) handleProcessingError(op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return WrapProcessingError(op, ErrContextCanceled, "processing was canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return WrapProcessingError(op, context.DeadlineExceeded, "processing timeout")
	}

	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return WrapProcessingError(op, ErrInvalidCredentials, "insufficient permissions for Document AI")
	case codes.ResourceExhausted:
		return WrapProcessingError(op, ErrQuotaExceeded, "Document AI API quota exceeded")
	case codes.NotFound:
		return &ProcessingError{Op: op, Err: ErrProcessorNotFound, ProcessorID: p.config.ProcessorID}
	case codes.InvalidArgument:
		return WrapProcessingError(op, ErrInvalidDocument, "document format not supported or corrupted")
	case codes.DeadlineExceeded:
		return WrapProcessingError(op, context.DeadlineExceeded, "processing timeout")
	case codes.Canceled:
		return WrapProcessingError(op, ErrContextCanceled, "processing was canceled")
	default:
		return WrapProcessingError(op, ErrProcessingFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// Close closes the underlying client.
func (p *Processor) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
