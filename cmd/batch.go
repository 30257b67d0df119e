package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cmrdocs/internal/analysis"
	"cmrdocs/internal/batch"
	"cmrdocs/internal/config"
	"cmrdocs/internal/logger"
	"cmrdocs/internal/sheets"
)

var batchCmd = &cobra.Command{
	Use:   "batch [folder-path]",
	Short: "Analyze all documents in a folder and export the records to Google Sheets",
	Long: `Analyze every PDF, PNG and JPEG file below a folder with the configured
provider and write one row per file to a Google Sheet.

Files are processed by BATCH_WORKERS parallel workers. Each file is reported as
success, warning (analyzed but no field found) or error. Use --dry-run to skip
the sheet export and --json to write all envelopes to a file.

Required environment variables (unless --dry-run):
  GOOGLE_SHEET_URL                - Google Sheets URL to write results
  GOOGLE_APPLICATION_CREDENTIALS  - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS              - Inline JSON credentials string

Optional environment variables:
  GOOGLE_SHEET_WORKSHEET - Worksheet name (default: CMR_Analysis)
  BATCH_WORKERS          - Number of parallel workers (default: 4)`,
	Example: `  # Analyze a folder and export to the configured sheet
  cmrdocs batch ./shipments

  # Try the provider without touching the sheet
  cmrdocs batch ./shipments --dry-run --json results.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

// batchOutput is one line of the --json export.
type batchOutput struct {
	File   string           `json:"file"`
	Status string           `json:"status"`
	Error  string           `json:"error,omitempty"`
	Result *analysis.Result `json:"result,omitempty"`
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Bool("dry-run", false, "Process files without writing to Google Sheets")
	batchCmd.Flags().String("sheet", "", "Worksheet name (default: GOOGLE_SHEET_WORKSHEET)")
	batchCmd.Flags().String("json", "", "Also write all results as JSON to this file")
	batchCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: BATCH_WORKERS)")
	batchCmd.Flags().Duration("timeout", 30*time.Minute, "Timeout for the whole batch")
}

func runBatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("batch")

	folderPath := args[0]
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	sheetName, _ := cmd.Flags().GetString("sheet")
	jsonPath, _ := cmd.Flags().GetString("json")
	workers, _ := cmd.Flags().GetInt("workers")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if workers <= 0 {
		workers = cfg.BatchWorkers
	}
	if sheetName == "" {
		sheetName = cfg.GoogleSheetWorksheet
	}
	if !dryRun && cfg.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL environment variable is required (or use --dry-run)")
	}

	folderInfo, err := os.Stat(folderPath)
	if err != nil {
		return fmt.Errorf("folder not found: %s", folderPath)
	}
	if !folderInfo.IsDir() {
		return fmt.Errorf("path is not a directory: %s", folderPath)
	}

	out := cmd.OutOrStdout()

	log.Info().
		Str("folder", folderPath).
		Str("provider", cfg.Provider).
		Bool("dry_run", dryRun).
		Int("workers", workers).
		Msg("Starting batch processing")

	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintln(out, "                         CMR BATCH ANALYSIS")
	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintf(out, "Folder: %s\n", folderPath)
	fmt.Fprintf(out, "Provider: %s\n", cfg.Provider)
	if dryRun {
		fmt.Fprintln(out, "Mode: dry run (no Google Sheets update)")
	}
	fmt.Fprintln(out)

	files, err := batch.FindDocuments(folderPath)
	if err != nil {
		return fmt.Errorf("failed to find documents: %w", err)
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No PDF, PNG or JPEG files found in folder.")
		return nil
	}

	ctx, cancel := createContextWithTimeout(timeout, log)
	defer cancel()

	svc, resources, err := newAnalysisService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer resources.Close(log)

	fmt.Fprintf(out, "Processing %d documents with %d parallel workers...\n\n", len(files), workers)

	items := batch.Run(ctx, svc, files, workers, func(done, total int, item batch.Item) {
		line := fmt.Sprintf("[%d/%d] %s - %s", done, total, item.Filename, batch.StatusSymbol(item.Status))
		if desc := batch.Describe(item); desc != "" {
			line += " (" + desc + ")"
		}
		fmt.Fprintln(out, line)
	})

	counts := batch.Summarize(items)

	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintln(out, "                 RESULT")
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintf(out, "Success: %d\n", counts.Success)
	if counts.Warning > 0 {
		fmt.Fprintf(out, "Without fields: %d\n", counts.Warning)
	}
	if counts.Error > 0 {
		fmt.Fprintf(out, "Errors: %d\n", counts.Error)
	}
	fmt.Fprintln(out)

	if jsonPath != "" {
		if err := writeBatchJSON(jsonPath, items); err != nil {
			return err
		}
		fmt.Fprintf(out, "JSON: %s\n", jsonPath)
	}

	if !dryRun {
		fmt.Fprintln(out, "Writing rows to Google Sheet...")

		creds, err := cfg.GoogleCredentialsJSON()
		if err != nil {
			return err
		}
		sheetsService, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL, creds)
		if err != nil {
			return fmt.Errorf("failed to create Google Sheets service: %w", err)
		}

		entries := make([]sheets.Entry, len(items))
		for i, item := range items {
			entries[i] = sheets.Entry{
				Filename: item.Filename,
				Status:   item.Status,
				Result:   item.Result,
				Err:      item.Err,
			}
		}

		if err := sheetsService.WriteResults(ctx, entries, sheetName); err != nil {
			return fmt.Errorf("failed to write to Google Sheet: %w", err)
		}

		fmt.Fprintf(out, "Sheet: %s\n", sheetName)
		fmt.Fprintf(out, "Rows added: %d\n", len(entries))
		fmt.Fprintf(out, "URL: %s\n", cfg.GoogleSheetURL)
	}

	fmt.Fprintln(out, strings.Repeat("=", 80))

	log.Info().
		Int("total", len(files)).
		Int("success", counts.Success).
		Int("warnings", counts.Warning).
		Int("errors", counts.Error).
		Msg("Batch processing completed")

	return nil
}

func writeBatchJSON(path string, items []batch.Item) error {
	outputs := make([]batchOutput, len(items))
	for i, item := range items {
		outputs[i] = batchOutput{File: item.Path, Status: item.Status, Result: item.Result}
		if item.Err != nil {
			outputs[i].Error = item.Err.Error()
		}
	}

	data, err := json.MarshalIndent(outputs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	return nil
}
