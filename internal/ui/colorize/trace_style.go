package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// Custom style for trace listings:
// - Offset markers in gray
// - Mnemonics in white
// - Registers in teal
// - String constants in amber
// - Numeric literals in light green
var TraceDark = styles.Register(chroma.MustNewStyle("vmtrace-dark", chroma.StyleEntries{
	chroma.Text:       "#FFFFFF",
	chroma.Background: "bg:#1e1e1e",

	chroma.Keyword: "#FFFFFF",

	chroma.NameVariable: "#7C9C9D",
	chroma.NameFunction: "#D4976C",

	chroma.LiteralString: "#EACD53",

	chroma.LiteralNumber:    "#B5CEA8",
	chroma.LiteralNumberHex: "#858585",

	chroma.Operator: "#D4D4D4",

	chroma.TextWhitespace: "#FFFFFF",
}))
