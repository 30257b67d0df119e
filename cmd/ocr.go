package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cmrdocs/internal/analysis"
	"cmrdocs/internal/config"
	"cmrdocs/internal/logger"
	"cmrdocs/internal/ocr"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [file]",
	Short: "Extract the raw text of a document",
	Long: `Read a PDF, PNG or JPEG with the OCR engine and print the text without
field extraction. The engine is Tesseract when PROVIDER=tesseract and Google
Cloud Vision otherwise. Vision handles PDFs of up to 5 pages and 20MB.

The output can be fed to "cmrdocs extract".`,
	Example: `  # Print the text of a scanned CMR
  cmrdocs ocr cmr.pdf

  # Include metadata and output as JSON
  cmrdocs ocr cmr.png --metadata --json -o result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCROutput represents the JSON output structure when --json flag is used
type OCROutput struct {
	Text               string    `json:"text"`
	Engine             string    `json:"engine"`
	PageCount          int       `json:"page_count,omitempty"`
	Confidence         float32   `json:"confidence,omitempty"`
	LanguageCodes      []string  `json:"language_codes,omitempty"`
	ProcessedAt        time.Time `json:"processed_at"`
	ProcessingDuration string    `json:"processing_duration,omitempty"`
	FileName           string    `json:"file_name"`
	FileSize           int       `json:"file_size"`
	MediaType          string    `json:"media_type"`
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().BoolP("metadata", "m", false, "Include metadata in output")
	ocrCmd.Flags().Bool("json", false, "Output as JSON")
	ocrCmd.Flags().Duration("timeout", 5*time.Minute, "Processing timeout")
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr")

	outputPath, _ := cmd.Flags().GetString("output")
	includeMetadata, _ := cmd.Flags().GetBool("metadata")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	path := args[0]

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	upload, err := readDocument(path, log)
	if err != nil {
		return err
	}
	mediaType := analysis.MediaTypeFor(path)
	if !ocr.Supported(mediaType) {
		return fmt.Errorf("unsupported file type %q. Use PDF, PNG or JPEG", filepath.Ext(path))
	}

	ctx, cancel := createContextWithTimeout(timeout, log)
	defer cancel()

	ocrService, err := newOCRService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := ocrService.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close OCR service")
		}
	}()

	log.Info().
		Str("file", path).
		Str("engine", ocrService.Name()).
		Int("size", len(upload.Data)).
		Msg("Starting OCR processing")

	result, err := ocrService.Recognize(ctx, upload.Data, mediaType)
	if err != nil {
		return handleError(err, log)
	}

	log.Info().
		Int("page_count", result.PageCount).
		Float32("confidence", result.Confidence).
		Dur("duration", result.ProcessingDuration).
		Int("text_length", len(result.Text)).
		Msg("OCR processing completed successfully")

	var outputData []byte
	switch {
	case jsonOutput:
		outputData, err = json.MarshalIndent(OCROutput{
			Text:               result.Text,
			Engine:             ocrService.Name(),
			PageCount:          result.PageCount,
			Confidence:         result.Confidence,
			LanguageCodes:      result.LanguageCodes,
			ProcessedAt:        result.ProcessedAt,
			ProcessingDuration: result.ProcessingDuration.String(),
			FileName:           filepath.Base(path),
			FileSize:           len(upload.Data),
			MediaType:          mediaType,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
	case includeMetadata:
		outputData = []byte(formatOCRMetadata(filepath.Base(path), len(upload.Data), ocrService.Name(), result))
	default:
		outputData = []byte(result.Text)
	}

	return writeOutput(cmd.OutOrStdout(), outputPath, outputData, log)
}

func formatOCRMetadata(name string, size int, engine string, result *ocr.OCRResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== OCR Results for %s ===\n", name)
	fmt.Fprintf(&b, "File size: %d bytes\n", size)
	fmt.Fprintf(&b, "Engine: %s\n", engine)
	if result.PageCount > 0 {
		fmt.Fprintf(&b, "Pages processed: %d\n", result.PageCount)
	}
	if result.Confidence > 0 {
		fmt.Fprintf(&b, "Confidence: %.1f%%\n", result.Confidence*100)
	}
	if len(result.LanguageCodes) > 0 {
		fmt.Fprintf(&b, "Languages: %s\n", strings.Join(result.LanguageCodes, ", "))
	}
	fmt.Fprintf(&b, "Processing time: %v\n", result.ProcessingDuration)
	fmt.Fprintf(&b, "Processed at: %s\n", result.ProcessedAt.Format(time.RFC3339))
	b.WriteString("\n=== Extracted Text ===\n\n")
	b.WriteString(result.Text)
	return b.String()
}
