package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
)

// VMTraceConfig represents configuration for the vmtrace tool
type VMTraceConfig struct {
	Debug   bool   `json:"debug" jsonschema:"title=Debug,description=Enable debug logging"`
	NoColor bool   `json:"noColor" jsonschema:"title=No Color,description=Disable trace colorization"`
	Output  string `json:"output" jsonschema:"title=Output,description=Path for trace output"`
}

var schemaCmd = &cobra.Command{
	Use:    "schema",
	Short:  "Generate JSON schema for configuration",
	Long:   "Generate JSON schema for the vmtrace configuration",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		reflector := new(jsonschema.Reflector)
		bts, err := json.MarshalIndent(reflector.Reflect(&VMTraceConfig{}), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}
		fmt.Println(string(bts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
