package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cmrdocs/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "cmrdocs",
	Short: "Extract CMR and invoice fields from shipping documents",
	Long: `cmrdocs reads CMR consignment notes and commercial invoices (PDF, PNG or
JPEG), sends them to an OCR or AI provider and prints a normalized JSON record
with the exporter, importer, goods, VIN, weight, places, dates and totals.

The provider is selected with PROVIDER (vision, documentai, openai or
tesseract). Text that is already extracted can be processed offline with the
extract and normalize commands.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
