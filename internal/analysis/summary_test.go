package analysis

import (
	"strings"
	"testing"

	"vmtrace/internal/disasm"
)

func TestSummarize(t *testing.T) {
	// new_value twice, jump, jump_if_false: histogram plus both kinds of
	// branch-target operands.
	data := []byte{
		23, 1, 0x00, 0x01, 'a' ^ 50,
		23, 2, 0x00, 0x01, 'b' ^ 50,
		93, 0, 0, 0, 17,
		39, 1, 0, 0, 0, 42,
	}

	d := disasm.New(data)
	trace, err := d.Disassemble()
	if err != nil {
		t.Fatalf("Disassemble failed: %v", err)
	}

	report := Summarize(trace, d.Registers())

	if report.Instructions != 4 {
		t.Errorf("Instructions = %d, want 4", report.Instructions)
	}

	if len(report.Histogram) != 3 {
		t.Fatalf("histogram has %d buckets, want 3", len(report.Histogram))
	}
	if report.Histogram[0].Mnemonic != "new_value" || report.Histogram[0].Count != 2 {
		t.Errorf("top bucket = %+v, want {new_value 2}", report.Histogram[0])
	}

	if len(report.Constants) != 2 {
		t.Errorf("got %d constants, want 2", len(report.Constants))
	}

	if len(report.BranchTargets) != 2 || report.BranchTargets[0] != 17 || report.BranchTargets[1] != 42 {
		t.Errorf("BranchTargets = %v, want [17 42]", report.BranchTargets)
	}
}

func TestSummarizeEmptyTrace(t *testing.T) {
	report := Summarize(nil, nil)
	if report.Instructions != 0 {
		t.Errorf("Instructions = %d, want 0", report.Instructions)
	}
	if len(report.Histogram) != 0 {
		t.Errorf("histogram not empty: %v", report.Histogram)
	}
}

func TestMarkdown(t *testing.T) {
	report := &Report{
		Instructions:  2,
		Histogram:     []OpcodeCount{{Mnemonic: "halt", Count: 2}},
		Constants:     []disasm.Constant{{Register: 3, Text: "console"}},
		BranchTargets: []int{7},
	}

	md := report.Markdown()
	for _, want := range []string{
		"# Disassembly Summary",
		"**Instructions:** 2",
		"| halt | 2 |",
		"`reg3` = `console`",
		"## Branch Targets",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}
