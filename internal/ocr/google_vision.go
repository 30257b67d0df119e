package ocr

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

const (
	// MaxFileSizeBytes is the maximum file size for synchronous processing (20MB)
	MaxFileSizeBytes = 20 * 1024 * 1024

	// MaxPagesSync is the maximum number of pages for synchronous processing
	MaxPagesSync = 5
)

// ImageAnnotator is the subset of *vision.ImageAnnotatorClient the service uses.
type ImageAnnotator interface {
	BatchAnnotateFiles(ctx context.Context, req *visionpb.BatchAnnotateFilesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateFilesResponse, error)
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

// GoogleVisionOCRService implements OCRService using Google Cloud Vision API.
type GoogleVisionOCRService struct {
	client ImageAnnotator
}

// NewGoogleVisionOCRService creates a Vision client with the given options.
// Without options the application default credentials are used.
func NewGoogleVisionOCRService(ctx context.Context, opts ...option.ClientOption) (*GoogleVisionOCRService, error) {
	const op = "NewGoogleVisionOCRService"

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if len(opts) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, err.Error())
		}
		return nil, WrapOCRError(op, err, "failed to create Vision client")
	}

	return &GoogleVisionOCRService{client: client}, nil
}

// NewGoogleVisionOCRServiceWithClient creates a service around an existing client.
func NewGoogleVisionOCRServiceWithClient(client ImageAnnotator) *GoogleVisionOCRService {
	return &GoogleVisionOCRService{client: client}
}

func (g *GoogleVisionOCRService) Name() string { return "google-vision" }

// Recognize runs document text detection. PDFs go through the files
// endpoint, images through the images endpoint.
func (g *GoogleVisionOCRService) Recognize(ctx context.Context, data []byte, mediaType string) (*OCRResult, error) {
	const op = "Recognize"
	startTime := time.Now()

	if len(data) > MaxFileSizeBytes {
		return nil, WrapOCRError(op, ErrFileTooLarge, fmt.Sprintf("file size: %d bytes", len(data)))
	}

	var (
		pages []*visionpb.AnnotateImageResponse
		err   error
	)
	switch mediaType {
	case MediaTypePDF:
		pages, err = g.annotatePDF(ctx, data)
	case MediaTypePNG, MediaTypeJPEG:
		pages, err = g.annotateImage(ctx, data)
	default:
		return nil, WrapOCRError(op, ErrUnsupportedType, mediaType)
	}
	if err != nil {
		return nil, WrapOCRError(op, err, "")
	}

	result, err := processPages(pages)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to process Vision API response")
	}

	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	return result, nil
}

func (g *GoogleVisionOCRService) annotatePDF(ctx context.Context, data []byte) ([]*visionpb.AnnotateImageResponse, error) {
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return nil, WrapOCRError("annotatePDF", ErrInvalidPDF, "missing PDF header")
	}

	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  data,
					MimeType: MediaTypePDF,
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := g.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, WrapOCRError("annotatePDF", ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.GetResponses()) == 0 {
		return nil, WrapOCRError("annotatePDF", ErrOCRFailed, "no response from Vision API")
	}

	fileResp := resp.Responses[0]
	if fileResp.GetError() != nil {
		return nil, WrapOCRError("annotatePDF", ErrOCRFailed, fmt.Sprintf("Vision API error: %s", fileResp.Error.GetMessage()))
	}
	if len(fileResp.Responses) > MaxPagesSync {
		return nil, WrapOCRError("annotatePDF", ErrTooManyPages, fmt.Sprintf("document has %d pages", len(fileResp.Responses)))
	}
	return fileResp.Responses, nil
}

func (g *GoogleVisionOCRService) annotateImage(ctx context.Context, data []byte) ([]*visionpb.AnnotateImageResponse, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: data},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, WrapOCRError("annotateImage", ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.GetResponses()) == 0 {
		return nil, WrapOCRError("annotateImage", ErrOCRFailed, "no response from Vision API")
	}
	return resp.Responses, nil
}

// processPages joins the page texts and collects confidence and languages.
func processPages(pages []*visionpb.AnnotateImageResponse) (*OCRResult, error) {
	if len(pages) == 0 {
		return nil, ErrEmptyDocument
	}

	var allText strings.Builder
	var confidenceSum float32
	var confidenceCount int
	languageSet := make(map[string]bool)

	for pageIdx, page := range pages {
		if page.GetError() != nil {
			return nil, fmt.Errorf("error processing page %d: %s", pageIdx+1, page.Error.GetMessage())
		}

		annotation := page.GetFullTextAnnotation()
		if annotation == nil {
			continue
		}

		if pageIdx > 0 {
			fmt.Fprintf(&allText, "\n\n--- Page %d ---\n\n", pageIdx+1)
		}
		allText.WriteString(annotation.GetText())

		for _, p := range annotation.GetPages() {
			if p.GetConfidence() > 0 {
				confidenceSum += p.GetConfidence()
				confidenceCount++
			}
			for _, lang := range p.GetProperty().GetDetectedLanguages() {
				if lang.GetLanguageCode() != "" {
					languageSet[lang.GetLanguageCode()] = true
				}
			}
		}
	}

	extractedText := allText.String()
	if strings.TrimSpace(extractedText) == "" {
		return nil, ErrEmptyDocument
	}

	var avgConfidence float32
	if confidenceCount > 0 {
		avgConfidence = confidenceSum / float32(confidenceCount)
	}

	languages := make([]string, 0, len(languageSet))
	for lang := range languageSet {
		languages = append(languages, lang)
	}
	sort.Strings(languages)

	return &OCRResult{
		Text:          extractedText,
		PageCount:     len(pages),
		Confidence:    avgConfidence,
		LanguageCodes: languages,
	}, nil
}

// Close closes the underlying Vision client.
func (g *GoogleVisionOCRService) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
