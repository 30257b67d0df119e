package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cmrdocs/internal/config"
	"cmrdocs/internal/logger"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze a CMR or invoice document with the configured provider",
	Long: `Send a PDF, PNG or JPEG document to the provider selected with PROVIDER
and print the normalized record as a JSON envelope:

  {"status":"ok","analysis":{"cmr":{...},"invoice":{...}},"cached":false,...}

Structured provider output (Document AI entities, OpenAI structured output) is
normalized directly; plain OCR text goes through the text extractor first.
Results are cached by content hash (CACHE_BACKEND, CACHE_TTL).

Environment variables:
  PROVIDER                        - vision (default), documentai, openai, tesseract
  GOOGLE_APPLICATION_CREDENTIALS  - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS              - Inline JSON credentials string
  GOOGLE_CLOUD_PROJECT            - Project for Document AI
  DOCUMENT_AI_PROCESSOR_ID        - Processor for Document AI
  OPENAI_API_KEY                  - Key for the openai provider`,
	Example: `  # Analyze a scanned CMR with Cloud Vision
  cmrdocs analyze cmr.pdf

  # Use OpenAI structured output and save the envelope
  PROVIDER=openai cmrdocs analyze invoice.jpg -o invoice.json

  # Treat the file as a PNG regardless of its extension
  cmrdocs analyze scan.bin --type image/png`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().String("type", "", "Declared media type (default: from the file extension)")
	analyzeCmd.Flags().Bool("compact", false, "Print compact JSON")
	analyzeCmd.Flags().Duration("timeout", 5*time.Minute, "Processing timeout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("analyze")

	outputPath, _ := cmd.Flags().GetString("output")
	mediaType, _ := cmd.Flags().GetString("type")
	compact, _ := cmd.Flags().GetBool("compact")
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
	upload.MediaType = mediaType

	log.Info().
		Str("file", path).
		Str("provider", cfg.Provider).
		Int("size", len(upload.Data)).
		Msg("Starting analysis")

	ctx, cancel := createContextWithTimeout(timeout, log)
	defer cancel()

	svc, resources, err := newAnalysisService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer resources.Close(log)

	result, err := svc.Analyze(ctx, upload)
	if err != nil {
		return handleError(err, log)
	}

	var data []byte
	if compact {
		data, err = json.Marshal(result)
	} else {
		data, err = json.MarshalIndent(result, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}

	return writeOutput(cmd.OutOrStdout(), outputPath, data, log)
}
