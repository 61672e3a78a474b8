// Package analysis builds a post-disassembly report over a finished trace:
// instruction counts, the recovered string constants and the branch targets
// referenced by the stream.
package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"vmtrace/internal/disasm"
)

// OpcodeCount is one histogram bucket.
type OpcodeCount struct {
	Mnemonic string `json:"mnemonic"`
	Count    int    `json:"count"`
}

// Report summarizes a disassembly run.
type Report struct {
	Instructions  int               `json:"instructions"`
	Histogram     []OpcodeCount     `json:"histogram"`
	Constants     []disasm.Constant `json:"constants"`
	BranchTargets []int             `json:"branch_targets"`
}

var (
	entryTargetRe = regexp.MustCompile(`entry\((\d+)\)`)
	jumpTargetRe  = regexp.MustCompile(`^jump (\d+)$`)
)

// Summarize walks the trace once. The mnemonic is the first token of each
// line; branch targets are pulled out of the entry(N) and jump operands.
func Summarize(trace []disasm.TraceLine, regs *disasm.RegisterFile) *Report {
	counts := make(map[string]int)
	targets := make(map[int]bool)

	for _, line := range trace {
		mnemonic, _, _ := strings.Cut(line.Text, " ")
		counts[mnemonic]++

		for _, m := range entryTargetRe.FindAllStringSubmatch(line.Text, -1) {
			if n, err := strconv.Atoi(m[1]); err == nil {
				targets[n] = true
			}
		}
		if m := jumpTargetRe.FindStringSubmatch(line.Text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				targets[n] = true
			}
		}
	}

	histogram := make([]OpcodeCount, 0, len(counts))
	for mnemonic, count := range counts {
		histogram = append(histogram, OpcodeCount{Mnemonic: mnemonic, Count: count})
	}
	sort.Slice(histogram, func(i, j int) bool {
		if histogram[i].Count != histogram[j].Count {
			return histogram[i].Count > histogram[j].Count
		}
		return histogram[i].Mnemonic < histogram[j].Mnemonic
	})

	branchTargets := make([]int, 0, len(targets))
	for t := range targets {
		branchTargets = append(branchTargets, t)
	}
	sort.Ints(branchTargets)

	report := &Report{
		Instructions:  len(trace),
		Histogram:     histogram,
		BranchTargets: branchTargets,
	}
	if regs != nil {
		report.Constants = regs.Constants()
	}
	return report
}

// Markdown renders the report for the TUI summary view.
func (r *Report) Markdown() string {
	var sb strings.Builder

	sb.WriteString("# Disassembly Summary\n\n")
	fmt.Fprintf(&sb, "**Instructions:** %d\n\n", r.Instructions)

	if len(r.Histogram) > 0 {
		sb.WriteString("## Opcode Histogram\n\n")
		sb.WriteString("| Mnemonic | Count |\n|---|---|\n")
		for _, oc := range r.Histogram {
			fmt.Fprintf(&sb, "| %s | %d |\n", oc.Mnemonic, oc.Count)
		}
		sb.WriteString("\n")
	}

	if len(r.Constants) > 0 {
		sb.WriteString("## String Constants\n\n")
		for _, c := range r.Constants {
			fmt.Fprintf(&sb, "- `reg%d` = `%s`\n", c.Register, c.Text)
		}
		sb.WriteString("\n")
	}

	if len(r.BranchTargets) > 0 {
		sb.WriteString("## Branch Targets\n\n")
		parts := make([]string, 0, len(r.BranchTargets))
		for _, t := range r.BranchTargets {
			parts = append(parts, strconv.Itoa(t))
		}
		fmt.Fprintf(&sb, "%s\n", strings.Join(parts, ", "))
	}

	return sb.String()
}
