package cmd

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	pathpkg "path/filepath"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"vmtrace/internal/analysis"
	"vmtrace/internal/bytecode"
	"vmtrace/internal/disasm"
	"vmtrace/internal/ui/colorize"
	"vmtrace/internal/vmtrace/log"
	"vmtrace/internal/vmtrace/styles"
)

type viewMode int

const (
	viewTrace viewMode = iota
	viewConstants
	viewSummary
)

// JSONOutput is the machine-readable result shape, used for regression
// testing against known dumps.
type JSONOutput struct {
	Digest       string                 `json:"digest"`
	Instructions int                    `json:"instructions"`
	Trace        []disasm.TraceLine     `json:"trace"`
	Constants    []disasm.Constant      `json:"constants,omitempty"`
	Histogram    []analysis.OpcodeCount `json:"histogram,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

// loadPayload reads a dump file and produces the raw bytecode: base64 text
// is decoded (falling back to raw bytes for binary dumps), an optional
// XXTEA container is removed, and gzip payloads are inflated.
func loadPayload(filepath, key, signature string) ([]byte, error) {
	raw, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}

	data, err := bytecode.FromBase64(string(raw))
	if err != nil {
		slog.Debug("Payload is not base64, treating as raw bytes", "file", filepath)
		data = raw
	}

	if key != "" {
		data, err = bytecode.Decrypt(data, key, signature)
		if err != nil {
			return nil, err
		}
	}

	return bytecode.DetectAndDecompress(data)
}

// disassemble runs one decode pass and logs how long it took.
func disassemble(data []byte) ([]disasm.TraceLine, *analysis.Report, error) {
	start := time.Now()
	d := disasm.New(data)
	trace, err := d.Disassemble()
	slog.Debug("Disassemble finished", "instructions", len(trace), "elapsed", time.Since(start))

	report := analysis.Summarize(trace, d.Registers())
	return trace, report, err
}

func fileDigest(filepath string) (string, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

// constantItem adapts a bound register slot to the bubbles list.
type constantItem struct {
	register int
	text     string
}

func (i constantItem) Title() string       { return fmt.Sprintf("reg%d", i.register) }
func (i constantItem) Description() string { return i.text }
func (i constantItem) FilterValue() string { return fmt.Sprintf("reg%d %s", i.register, i.text) }

// Custom item delegate for the constants list
type constantDelegate struct{}

func (d constantDelegate) Height() int                               { return 1 }
func (d constantDelegate) Spacing() int                              { return 0 }
func (d constantDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d constantDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(constantItem)
	if !ok {
		return
	}

	var regStyle lipgloss.Style
	indicator := " "
	if index == m.Index() {
		indicator = ">"
		regStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	} else {
		regStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	}

	textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("222"))
	fmt.Fprintf(w, " %s  %s  %s",
		indicator,
		regStyle.Render(fmt.Sprintf("reg%-3d", i.register)),
		textStyle.Render(i.text))
}

type digestMsg struct {
	digest string
	err    error
}

type traceMsg struct {
	trace  []disasm.TraceLine
	report *analysis.Report
	err    error
}

func calculateDigestCmd(filepath string) tea.Cmd {
	return func() tea.Msg {
		digest, err := fileDigest(filepath)
		return digestMsg{digest: digest, err: err}
	}
}

func disassembleCmd(filepath, key, signature string) tea.Cmd {
	return func() tea.Msg {
		data, err := loadPayload(filepath, key, signature)
		if err != nil {
			return traceMsg{err: err}
		}
		trace, report, err := disassemble(data)
		return traceMsg{trace: trace, report: report, err: err}
	}
}

type model struct {
	viewport      viewport.Model
	constantsList list.Model
	summaryView   viewport.Model
	spinner       spinner.Model

	mode     viewMode
	filepath string
	key      string
	sig      string

	digest  string
	trace   []disasm.TraceLine
	report  *analysis.Report
	decErr  error
	loading bool

	width  int
	height int
}

func NewModel(filepath, key, signature string) model {
	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(24)

	constantsList := list.New([]list.Item{}, constantDelegate{}, 80, 24)
	constantsList.SetShowStatusBar(false)
	constantsList.SetFilteringEnabled(true)
	constantsList.Title = "Constants"
	constantsList.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		MarginLeft(2)
	constantsList.SetShowHelp(true)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	sv := viewport.New()
	sv.SetWidth(80)
	sv.SetHeight(24)

	m := model{
		viewport:      vp,
		constantsList: constantsList,
		summaryView:   sv,
		spinner:       s,
		mode:          viewTrace,
		filepath:      filepath,
		key:           key,
		sig:           signature,
		loading:       true,
		width:         80,
		height:        24,
	}

	m.updateContent()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		calculateDigestCmd(m.filepath),
		disassembleCmd(m.filepath, m.key, m.sig),
		m.spinner.Tick,
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case digestMsg:
		if msg.err == nil {
			m.digest = msg.digest
		}
		m.updateContent()
		return m, nil

	case traceMsg:
		m.trace = msg.trace
		m.report = msg.report
		m.decErr = msg.err
		m.loading = false
		m.updateConstantsList()
		m.updateSummary()
		m.updateContent()
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		if m.loading {
			m.updateContent()
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		if msg.Width != m.width || msg.Height != m.height {
			m.width = msg.Width
			m.height = msg.Height
			m.viewport.SetWidth(msg.Width)
			m.viewport.SetHeight(msg.Height - 2)
			m.constantsList.SetWidth(msg.Width)
			m.constantsList.SetHeight(msg.Height - 2)
			m.summaryView.SetWidth(msg.Width)
			m.summaryView.SetHeight(msg.Height - 2)

			m.updateContent()
			m.updateSummary()
		}

	case tea.KeyMsg:
		// Let the list handle keys while filtering, except quit.
		if m.mode == viewConstants && m.constantsList.FilterState() == list.Filtering {
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		} else {
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "t":
				m.mode = viewTrace
				return m, nil
			case "c":
				if m.report != nil && len(m.report.Constants) > 0 {
					m.mode = viewConstants
				}
				return m, nil
			case "s":
				if m.report != nil {
					m.mode = viewSummary
				}
				return m, nil
			case "tab":
				switch m.mode {
				case viewTrace:
					if m.report != nil && len(m.report.Constants) > 0 {
						m.mode = viewConstants
					} else if m.report != nil {
						m.mode = viewSummary
					}
				case viewConstants:
					m.mode = viewSummary
				case viewSummary:
					m.mode = viewTrace
				}
				return m, nil
			}
		}
	}

	switch m.mode {
	case viewConstants:
		m.constantsList, cmd = m.constantsList.Update(msg)
	case viewSummary:
		m.summaryView, cmd = m.summaryView.Update(msg)
	default:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	var content string
	switch m.mode {
	case viewConstants:
		content = m.constantsList.View()
	case viewSummary:
		content = m.summaryView.View()
	default:
		content = m.viewport.View()
	}

	var menu string
	switch m.mode {
	case viewConstants:
		menu = " T: trace • S: summary • Tab: cycle • Q: quit "
	case viewSummary:
		menu = " T: trace • C: constants • Tab: cycle • Q: quit "
	default:
		menu = " C: constants • S: summary • Tab: cycle • Q: quit "
	}

	menuStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("252")).
		Padding(0, 1).
		Width(m.width)

	return content + "\n" + menuStyle.Render(menu)
}

func (m *model) updateContent() {
	relPath := m.filepath
	if cwd, err := os.Getwd(); err == nil {
		if rel, err := pathpkg.Rel(cwd, m.filepath); err == nil {
			relPath = rel
		}
	}

	var header []string
	header = append(header, fmt.Sprintf("; %s", relPath))
	if m.digest != "" {
		header = append(header, fmt.Sprintf("; %s", m.digest))
	} else {
		header = append(header, "; Calculating digest...")
	}
	header = append(header, "")

	if m.loading {
		content := strings.Join(header, "\n") +
			fmt.Sprintf("\n%s Disassembling...", m.spinner.View())
		m.viewport.SetContent(content)
		return
	}

	lines := make([]string, 0, len(m.trace)+len(header)+1)
	lines = append(lines, header...)
	for _, t := range m.trace {
		lines = append(lines, colorize.ColorizeTraceLine(t.String()))
	}
	if m.decErr != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		lines = append(lines, "", errStyle.Render(fmt.Sprintf("decode aborted: %v", m.decErr)))
	}

	m.viewport.SetContent(strings.Join(lines, "\n"))
}

func (m *model) updateConstantsList() {
	if m.report == nil {
		return
	}

	items := make([]list.Item, 0, len(m.report.Constants))
	for _, c := range m.report.Constants {
		items = append(items, constantItem{register: c.Register, text: c.Text})
	}

	m.constantsList.SetItems(items)
	m.constantsList.Title = fmt.Sprintf("Constants (%d total)", len(items))
}

func (m *model) updateSummary() {
	if m.report == nil {
		return
	}

	width := m.width
	if width == 0 {
		width = 80
	}
	renderer := styles.GetMarkdownRenderer(width - 2)
	rendered, err := renderer.Render(m.report.Markdown())
	if err != nil {
		rendered = m.report.Markdown()
	}
	m.summaryView.SetContent(strings.TrimSuffix(rendered, "\n"))
}

// runNoTUI prints the trace straight to stdout. The partial trace is still
// printed when decoding aborts so the failing offset can be located.
func runNoTUI(filepath, key, signature, output string) error {
	data, err := loadPayload(filepath, key, signature)
	if err != nil {
		return err
	}

	trace, _, decErr := disassemble(data)

	var sb strings.Builder
	for _, t := range trace {
		sb.WriteString(t.String())
		sb.WriteByte('\n')
	}

	if output != "" {
		if err := os.WriteFile(output, []byte(sb.String()), 0o644); err != nil {
			return fmt.Errorf("failed to write trace: %w", err)
		}
		slog.Info("Wrote trace", "file", output, "instructions", len(trace))
	} else {
		for _, t := range trace {
			fmt.Println(colorize.ColorizeTraceLine(t.String()))
		}
	}

	if decErr != nil {
		return fmt.Errorf("disassembly aborted: %w", decErr)
	}
	return nil
}

// runJSON emits the machine-readable result used for regression testing.
func runJSON(filepath, key, signature string) error {
	digest, err := fileDigest(filepath)
	if err != nil {
		return fmt.Errorf("failed to calculate digest: %v", err)
	}

	out := JSONOutput{Digest: digest}

	data, err := loadPayload(filepath, key, signature)
	if err != nil {
		return err
	}

	trace, report, decErr := disassemble(data)
	out.Instructions = len(trace)
	out.Trace = trace
	out.Constants = report.Constants
	out.Histogram = report.Histogram
	if decErr != nil {
		out.Error = decErr.Error()
	}

	jsonData, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	fmt.Println(string(jsonData))
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().BoolP("no-tui", "n", false, "Print the trace without the TUI")
	rootCmd.Flags().BoolP("json", "j", false, "Output results as JSON for regression testing")
	rootCmd.Flags().StringP("output", "o", "", "Write the trace to a file instead of stdout (implies --no-tui)")
	rootCmd.Flags().String("cpuprofile", "", "Write CPU profile to file")
	rootCmd.Flags().String("memprofile", "", "Write memory profile to file")
	rootCmd.Flags().Bool("decrypt", false, "Remove an XXTEA container before disassembly (requires --key)")
	rootCmd.Flags().String("key", "", "XXTEA key for --decrypt")
	rootCmd.Flags().String("signature", "", "Signature prefix to strip before XXTEA decryption")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
}

var rootCmd = &cobra.Command{
	Use:   "vmtrace [file]",
	Short: "Disassembler for register-VM bytecode dumps",
	Long: `vmtrace decodes the obfuscated register-VM bytecode found in packed
JavaScript payloads into a readable instruction trace. It provides an
interactive TUI for browsing the trace, the recovered string constants
and a summary of the instruction stream.`,
	Example: `
# Browse a dump interactively
vmtrace /path/to/bytecode.txt

# Print the trace to stdout
vmtrace -n /path/to/bytecode.txt

# Decrypt an XXTEA-packed dump first
vmtrace --decrypt --key mykey /path/to/payload.jsc
  `,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.Setup(debug || os.Getenv("VMTRACE_LOG_LEVEL") == "debug")
	},
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
		if cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %v", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %v", err)
			}
			defer pprof.StopCPUProfile()
		}

		memprofile, _ := cmd.Flags().GetString("memprofile")
		if memprofile != "" {
			defer func() {
				f, err := os.Create(memprofile)
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
					return
				}
				defer f.Close()
				if err := pprof.WriteHeapProfile(f); err != nil {
					fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
				}
			}()
		}

		file := args[0]
		absPath, err := pathpkg.Abs(file)
		if err != nil {
			return fmt.Errorf("failed to resolve path: %v", err)
		}
		if _, err := os.Stat(absPath); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", file)
			}
			return fmt.Errorf("cannot access file: %v", err)
		}

		noTUI, _ := cmd.Flags().GetBool("no-tui")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		output, _ := cmd.Flags().GetString("output")
		decrypt, _ := cmd.Flags().GetBool("decrypt")

		key := ""
		signature := ""
		if decrypt {
			key, _ = cmd.Flags().GetString("key")
			signature, _ = cmd.Flags().GetString("signature")
			if key == "" {
				return fmt.Errorf("--key is required when using --decrypt")
			}
		}

		if output != "" {
			noTUI = true
		}

		// Also use no-tui mode when output is being piped
		if !term.IsTerminal(os.Stdout.Fd()) {
			noTUI = true
			os.Setenv("VMTRACE_NO_COLOR", "1")
		}

		// Disable coloring when writing to a file to avoid garbled output
		if output != "" {
			os.Setenv("VMTRACE_NO_COLOR", "1")
		}

		if jsonOutput {
			return runJSON(absPath, key, signature)
		}

		if noTUI {
			return runNoTUI(absPath, key, signature, output)
		}

		program := tea.NewProgram(
			NewModel(absPath, key, signature),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)

		if _, err := program.Run(); err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %v", err)
		}
		return nil
	},
}

func Execute() {
	// Check if --no-tui or --json is present, or if output is being piped,
	// to bypass fang's automatic markdown rendering
	noTUI := false
	for _, arg := range os.Args[1:] {
		if arg == "--no-tui" || arg == "-n" || arg == "--json" || arg == "-j" {
			noTUI = true
			break
		}
	}

	if !noTUI && !term.IsTerminal(os.Stdout.Fd()) {
		noTUI = true
	}

	if noTUI {
		// Use cobra directly to avoid fang's automatic markdown rendering
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
	} else {
		// Use fang for enhanced CLI experience with markdown rendering
		if err := fang.Execute(
			context.Background(),
			rootCmd,
			fang.WithNotifySignal(os.Interrupt),
		); err != nil {
			os.Exit(1)
		}
	}
}
