package cmd

import (
	"fmt"

	"github.com/nxadm/tail"
	"github.com/spf13/cobra"

	"vmtrace/internal/bytecode"
	"vmtrace/internal/disasm"
	"vmtrace/internal/logging"
	"vmtrace/internal/ui/colorize"
)

// watchCmd follows an append-only dump file, the workflow used with runtime
// hooks that log one base64 payload per line as the target loads bytecode.
var watchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Follow a dump file and disassemble payloads as they arrive",
	Long: `Watch tails a dump file and disassembles every new line as a complete
base64 bytecode payload. Blank lines are skipped; a payload that fails to
decode is logged and watching continues with the next line.`,
	Example: `
# Follow a hook's dump log
vmtrace watch /tmp/bytecode-dump.log
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.NewLogger()
		defer logger.Close()

		t, err := tail.TailFile(args[0], tail.Config{
			Follow: true,
			ReOpen: true,
			Logger: tail.DiscardingLogger,
		})
		if err != nil {
			return fmt.Errorf("failed to tail %s: %w", args[0], err)
		}
		defer t.Cleanup()

		logger.Info("Watching for payloads", "file", args[0])

		for line := range t.Lines {
			if line.Err != nil {
				return fmt.Errorf("tail error: %w", line.Err)
			}
			if line.Text == "" {
				continue
			}

			data, err := bytecode.FromBase64(line.Text)
			if err != nil {
				logger.Warn("Skipping undecodable payload line", "error", err)
				continue
			}

			trace, err := disasm.New(data).Disassemble()
			for _, tl := range trace {
				fmt.Println(colorize.ColorizeTraceLine(tl.String()))
			}
			if err != nil {
				logger.Error("Disassembly aborted", "error", err)
			} else {
				logger.Info("Disassembled payload", "bytes", len(data), "instructions", len(trace))
			}
		}

		return nil
	},
}
