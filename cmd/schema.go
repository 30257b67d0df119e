package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"cmrdocs/internal/logger"
	"cmrdocs/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the document record",
	Long: `Print the JSON Schema every analysis result conforms to. The same schema
is sent to OpenAI as the structured output format.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var buf bytes.Buffer
		if err := json.Indent(&buf, schema.JSON(), "", "  "); err != nil {
			return fmt.Errorf("failed to format schema: %w", err)
		}
		return writeOutput(cmd.OutOrStdout(), "", buf.Bytes(), logger.WithComponent("schema"))
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
