package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"cmrdocs/internal/extract"
	"cmrdocs/internal/logger"
	"cmrdocs/internal/normalize"
)

var extractCmd = &cobra.Command{
	Use:   "extract [text-file|-]",
	Short: "Extract CMR and invoice fields from plain text",
	Long: `Run the text-pattern extractor over already recognized text (for example
the output of "cmrdocs ocr") and print the normalized record. No provider is
contacted. Use "-" to read from stdin.

With --raw the extractor's field matches are printed before normalization;
fields without a match are null.`,
	Example: `  cmrdocs ocr cmr.pdf -o cmr.txt
  cmrdocs extract cmr.txt

  # Show what each rule matched
  cmrdocs ocr cmr.pdf | cmrdocs extract - --raw`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().Bool("raw", false, "Print the raw field matches instead of the normalized record")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract")

	outputPath, _ := cmd.Flags().GetString("output")
	raw, _ := cmd.Flags().GetBool("raw")

	text, err := readInput(args[0], cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	fields := extract.FromText(string(text))

	found := fields.Found()
	names := make([]string, len(found))
	for i, f := range found {
		names[i] = string(f)
	}
	log.Debug().
		Int("text_length", len(text)).
		Strs("matched", names).
		Msg("Text extraction completed")

	var v any = normalize.NormalizeValue(fields.Tree())
	if raw {
		v = fields
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	return writeOutput(cmd.OutOrStdout(), outputPath, data, log)
}
