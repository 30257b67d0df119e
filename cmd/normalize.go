package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"cmrdocs/internal/logger"
	"cmrdocs/internal/normalize"
	"cmrdocs/internal/schema"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [json-file|-]",
	Short: "Normalize a candidate JSON record",
	Long: `Apply the normalization rules to a candidate record produced elsewhere
(for example a saved model response). Missing sections become empty objects,
text is trimmed, invalid VINs are dropped and weights are reduced to their
first number. Invalid JSON yields an empty record. Use "-" to read from stdin.`,
	Example: `  echo '{"cmr":{"vin":" 1m8gdm9axkp042788 "}}' | cmrdocs normalize -`,
	Args:    cobra.ExactArgs(1),
	RunE:    runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)

	normalizeCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	normalizeCmd.Flags().Bool("strict", false, "Fail when the input does not match the record schema")
}

func runNormalize(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("normalize")

	outputPath, _ := cmd.Flags().GetString("output")
	strict, _ := cmd.Flags().GetBool("strict")

	input, err := readInput(args[0], cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	if err := schema.Validate(input); err != nil {
		if strict {
			return fmt.Errorf("input rejected: %w", err)
		}
		log.Debug().Err(err).Msg("Input does not match the record schema, normalizing anyway")
	}

	data, err := json.MarshalIndent(normalize.NormalizeJSON(input), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	return writeOutput(cmd.OutOrStdout(), outputPath, data, log)
}
