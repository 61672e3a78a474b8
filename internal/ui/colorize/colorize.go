// Package colorize applies terminal syntax highlighting to disassembly
// trace lines using chroma.
package colorize

import (
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/styles"
)

// traceLexer tokenizes the trace syntax: a 0x-prefixed offset marker,
// a mnemonic, register references, entry targets and literals.
var traceLexer = chroma.MustNewLexer(
	&chroma.Config{
		Name:    "vmtrace",
		Aliases: []string{"vmtrace"},
	},
	func() chroma.Rules {
		return chroma.Rules{
			"root": {
				{Pattern: `0x\d+`, Type: chroma.LiteralNumberHex, Mutator: nil},
				{Pattern: `'[^']*'`, Type: chroma.LiteralString, Mutator: nil},
				{Pattern: `reg\d+`, Type: chroma.NameVariable, Mutator: nil},
				{Pattern: `entry\(\d+\)`, Type: chroma.NameFunction, Mutator: nil},
				{Pattern: `\d+(\.\d+)?([eE][+-]?\d+)?`, Type: chroma.LiteralNumber, Mutator: nil},
				{Pattern: `[a-z_][a-zA-Z0-9_]*`, Type: chroma.Keyword, Mutator: nil},
				{Pattern: `[-<>=!+*/&|^%.,\[\]()]+`, Type: chroma.Operator, Mutator: nil},
				{Pattern: `\s+`, Type: chroma.TextWhitespace, Mutator: nil},
				{Pattern: `.`, Type: chroma.Text, Mutator: nil},
			},
		}
	},
)

// getTraceStyle returns the trace style with fallbacks.
func getTraceStyle() *chroma.Style {
	candidates := []string{"vmtrace-dark", "dracula", "monokai"}
	for _, name := range candidates {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter.
func getTerminalFormatter() chroma.Formatter {
	candidates := []string{"terminal16m", "terminal256"}
	for _, name := range candidates {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// ColorizeTrace highlights a block of trace lines. The input is returned
// unchanged when colors are disabled or highlighting fails.
func ColorizeTrace(text string) (string, error) {
	if os.Getenv("VMTRACE_NO_COLOR") != "" {
		return text, nil
	}

	iterator, err := traceLexer.Tokenise(nil, text)
	if err != nil {
		return text, err
	}

	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getTraceStyle(), iterator); err != nil {
		return text, err
	}
	return buf.String(), nil
}

// ColorizeTraceLine highlights a single trace line.
func ColorizeTraceLine(line string) string {
	out, err := ColorizeTrace(line)
	if err != nil {
		return line
	}
	return strings.TrimSuffix(out, "\n")
}
