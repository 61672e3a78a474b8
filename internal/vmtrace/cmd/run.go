package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a single non-interactive disassembly",
	Long: `Run one disassembly in non-interactive mode and exit. Equivalent to
the root command with --no-tui, for use in scripts and pipelines.`,
	Example: `
# Disassemble a dump and print the trace
vmtrace run /path/to/bytecode.txt

# Write the trace to a file
vmtrace run -o dump.trace /path/to/bytecode.txt
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		os.Setenv("VMTRACE_NO_COLOR", "1")
		slog.Debug("Running disassembly", "file", args[0], "output", output)

		return runNoTUI(args[0], "", "", output)
	},
}

func init() {
	runCmd.Flags().StringP("output", "o", "", "Write the trace to a file instead of stdout")
}
