package ocr

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/status"
)

type fakeAnnotator struct {
	files  *visionpb.BatchAnnotateFilesResponse
	images *visionpb.BatchAnnotateImagesResponse
	err    error

	fileReq  *visionpb.BatchAnnotateFilesRequest
	imageReq *visionpb.BatchAnnotateImagesRequest
}

func (f *fakeAnnotator) BatchAnnotateFiles(_ context.Context, req *visionpb.BatchAnnotateFilesRequest, _ ...gax.CallOption) (*visionpb.BatchAnnotateFilesResponse, error) {
	f.fileReq = req
	return f.files, f.err
}

func (f *fakeAnnotator) BatchAnnotateImages(_ context.Context, req *visionpb.BatchAnnotateImagesRequest, _ ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error) {
	f.imageReq = req
	return f.images, f.err
}

func (f *fakeAnnotator) Close() error { return nil }

func page(text string, confidence float32, langs ...string) *visionpb.AnnotateImageResponse {
	var detected []*visionpb.TextAnnotation_DetectedLanguage
	for _, l := range langs {
		detected = append(detected, &visionpb.TextAnnotation_DetectedLanguage{LanguageCode: l})
	}
	return &visionpb.AnnotateImageResponse{
		FullTextAnnotation: &visionpb.TextAnnotation{
			Text: text,
			Pages: []*visionpb.Page{{
				Confidence: confidence,
				Property:   &visionpb.TextAnnotation_TextProperty{DetectedLanguages: detected},
			}},
		},
	}
}

func filesResponse(pages ...*visionpb.AnnotateImageResponse) *visionpb.BatchAnnotateFilesResponse {
	return &visionpb.BatchAnnotateFilesResponse{
		Responses: []*visionpb.AnnotateFileResponse{{Responses: pages}},
	}
}

var pdfBytes = []byte("%PDF-1.7 fake")

func TestRecognize_PDFJoinsPages(t *testing.T) {
	fake := &fakeAnnotator{files: filesResponse(
		page("Exporter: ACME LLC", 0.9, "en"),
		page("VIN: 1M8GDM9AXKP042788", 0.7, "en", "de"),
	)}
	svc := NewGoogleVisionOCRServiceWithClient(fake)

	res, err := svc.Recognize(context.Background(), pdfBytes, MediaTypePDF)

	require.NoError(t, err)
	assert.Equal(t, "Exporter: ACME LLC\n\n--- Page 2 ---\n\nVIN: 1M8GDM9AXKP042788", res.Text)
	assert.Equal(t, 2, res.PageCount)
	assert.InDelta(t, 0.8, res.Confidence, 0.0001)
	assert.Equal(t, []string{"de", "en"}, res.LanguageCodes)
	assert.False(t, res.ProcessedAt.IsZero())

	require.NotNil(t, fake.fileReq)
	in := fake.fileReq.Requests[0].InputConfig
	assert.Equal(t, MediaTypePDF, in.MimeType)
	assert.Equal(t, pdfBytes, in.Content)
	assert.Equal(t, visionpb.Feature_DOCUMENT_TEXT_DETECTION, fake.fileReq.Requests[0].Features[0].Type)
}

func TestRecognize_ImageUsesImagesEndpoint(t *testing.T) {
	fake := &fakeAnnotator{images: &visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{page("Consignee: Beta", 0.5)},
	}}
	svc := NewGoogleVisionOCRServiceWithClient(fake)

	res, err := svc.Recognize(context.Background(), []byte("png"), MediaTypePNG)

	require.NoError(t, err)
	assert.Equal(t, "Consignee: Beta", res.Text)
	assert.Nil(t, fake.fileReq)
	require.NotNil(t, fake.imageReq)
	assert.Equal(t, []byte("png"), fake.imageReq.Requests[0].Image.Content)
}

func TestRecognize_Errors(t *testing.T) {
	tests := []struct {
		name      string
		fake      *fakeAnnotator
		data      []byte
		mediaType string
		want      error
	}{
		{
			name:      "unsupported type",
			fake:      &fakeAnnotator{},
			data:      []byte("x"),
			mediaType: "image/gif",
			want:      ErrUnsupportedType,
		},
		{
			name:      "missing pdf header",
			fake:      &fakeAnnotator{},
			data:      []byte("not a pdf"),
			mediaType: MediaTypePDF,
			want:      ErrInvalidPDF,
		},
		{
			name:      "too large",
			fake:      &fakeAnnotator{},
			data:      make([]byte, MaxFileSizeBytes+1),
			mediaType: MediaTypePNG,
			want:      ErrFileTooLarge,
		},
		{
			name:      "api failure",
			fake:      &fakeAnnotator{err: errors.New("unavailable")},
			data:      pdfBytes,
			mediaType: MediaTypePDF,
			want:      ErrOCRFailed,
		},
		{
			name: "file level error",
			fake: &fakeAnnotator{files: &visionpb.BatchAnnotateFilesResponse{
				Responses: []*visionpb.AnnotateFileResponse{{Error: &status.Status{Message: "bad file"}}},
			}},
			data:      pdfBytes,
			mediaType: MediaTypePDF,
			want:      ErrOCRFailed,
		},
		{
			name: "too many pages",
			fake: &fakeAnnotator{files: filesResponse(
				page("1", 0), page("2", 0), page("3", 0), page("4", 0), page("5", 0), page("6", 0),
			)},
			data:      pdfBytes,
			mediaType: MediaTypePDF,
			want:      ErrTooManyPages,
		},
		{
			name:      "blank text",
			fake:      &fakeAnnotator{files: filesResponse(page("  \n ", 0))},
			data:      pdfBytes,
			mediaType: MediaTypePDF,
			want:      ErrEmptyDocument,
		},
		{
			name:      "no pages",
			fake:      &fakeAnnotator{images: &visionpb.BatchAnnotateImagesResponse{}},
			data:      []byte("jpg"),
			mediaType: MediaTypeJPEG,
			want:      ErrOCRFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewGoogleVisionOCRServiceWithClient(tt.fake)

			_, err := svc.Recognize(context.Background(), tt.data, tt.mediaType)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var ocrErr *OCRError
			assert.ErrorAs(t, err, &ocrErr)
		})
	}
}

func TestWrapOCRError(t *testing.T) {
	assert.NoError(t, WrapOCRError("op", nil, ""))

	inner := WrapOCRError("inner", ErrEmptyDocument, "page 1")
	outer := WrapOCRError("outer", inner, "ignored")

	assert.Same(t, inner, outer)
	assert.Equal(t, "ocr: inner failed: page 1: document contains no readable text", outer.Error())
	assert.ErrorIs(t, outer, ErrEmptyDocument)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(MediaTypePDF))
	assert.True(t, Supported(MediaTypePNG))
	assert.True(t, Supported(MediaTypeJPEG))
	assert.False(t, Supported("image/tiff"))
	assert.False(t, Supported(""))
}
