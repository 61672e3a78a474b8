package disasm

import (
	"errors"
	"testing"

	"vmtrace/internal/bytecode"
)

func TestSingleInstructions(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		wantText   string
		wantOffset int
	}{
		{
			name:       "init_memory",
			data:       []byte{124, 2, 9},
			wantText:   "init_memory 9 -> reg2",
			wantOffset: 3,
		},
		{
			name:       "mul",
			data:       []byte{6, 0, 1, 2},
			wantText:   "mul reg1 * reg2 -> reg0",
			wantOffset: 4,
		},
		{
			name:       "add",
			data:       []byte{243, 5, 6, 7},
			wantText:   "add reg6 + reg7 -> reg5",
			wantOffset: 4,
		},
		{
			name:       "ushr",
			data:       []byte{40, 1, 2, 3},
			wantText:   "ushr reg2 >>> reg3 -> reg1",
			wantOffset: 4,
		},
		{
			name:       "strict_not_equal",
			data:       []byte{220, 1, 2, 3},
			wantText:   "strict_not_equal reg2 !== reg3 -> reg1",
			wantOffset: 4,
		},
		{
			name:       "mov_imm24 reads four immediate bytes",
			data:       []byte{241, 1, 0x00, 0x00, 0x01, 0x00},
			wantText:   "mov_imm24 256 -> reg1",
			wantOffset: 6,
		},
		{
			name:       "load_imm24 reads one immediate byte",
			data:       []byte{181, 1, 7},
			wantText:   "load_imm24 7 -> reg1",
			wantOffset: 3,
		},
		{
			name:       "push_args",
			data:       []byte{88, 4, 2, 10, 11},
			wantText:   "push_args [reg10,reg11] -> reg4",
			wantOffset: 5,
		},
		{
			name:       "jump_frame",
			data:       []byte{49, 0, 0, 0, 42, 1, 2, 8, 9},
			wantText:   "jump_frame entry(42), 1, params(reg8,reg9)",
			wantOffset: 9,
		},
		{
			name:       "new_function",
			data:       []byte{171, 3, 0, 0, 1, 0, 1, 5},
			wantText:   "new_function entry(256), args(reg5) -> reg3",
			wantOffset: 8,
		},
		{
			name:       "jump_if_false",
			data:       []byte{39, 2, 0, 0, 0, 99},
			wantText:   "jump_if_false reg2, entry(99)",
			wantOffset: 6,
		},
		{
			name:       "jump_if_true",
			data:       []byte{83, 2, 0, 0, 0, 99},
			wantText:   "jump_if_true reg2, entry(99)",
			wantOffset: 6,
		},
		{
			name:       "set_property unresolved",
			data:       []byte{99, 1, 2, 3},
			wantText:   "set_property reg1[reg2] = reg3",
			wantOffset: 4,
		},
		{
			name:       "jump",
			data:       []byte{93, 0, 0, 0, 17},
			wantText:   "jump 17",
			wantOffset: 5,
		},
		{
			name:       "halt",
			data:       []byte{166},
			wantText:   "halt",
			wantOffset: 1,
		},
		{
			name:       "ret",
			data:       []byte{17, 1, 2, 3, 4},
			wantText:   "ret reg1 [reg3,reg4]",
			wantOffset: 5,
		},
		{
			name:       "try_catch",
			data:       []byte{115, 6, 0, 0, 0, 10, 0, 0, 0, 20, 0, 0, 0, 30},
			wantText:   "try_catch [10, 20, 30] -> reg6",
			wantOffset: 14,
		},
		{
			name:       "throw",
			data:       []byte{5, 9},
			wantText:   "throw reg9",
			wantOffset: 2,
		},
		{
			name:       "load_double",
			data:       []byte{51, 4, 0x40, 0x04, 0, 0, 0, 0, 0, 0},
			wantText:   "load_double 2.5 -> reg4",
			wantOffset: 10,
		},
		{
			name:       "call_apply",
			data:       []byte{90, 0, 1, 2, 1, 3},
			wantText:   "call_apply reg1.apply(reg2, [reg3]) -> reg0",
			wantOffset: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trace, err := New(tt.data).Disassemble()
			if err != nil {
				t.Fatalf("Disassemble failed: %v", err)
			}
			if len(trace) != 1 {
				t.Fatalf("got %d lines, want 1", len(trace))
			}
			if trace[0].Text != tt.wantText {
				t.Errorf("text = %q, want %q", trace[0].Text, tt.wantText)
			}
			if trace[0].Offset != tt.wantOffset {
				t.Errorf("offset = %d, want %d", trace[0].Offset, tt.wantOffset)
			}
		})
	}
}

func TestConstantDefinitionFlowsIntoLaterInstructions(t *testing.T) {
	// new_value 'ef' -> reg3, then get_property with reg3 as the object:
	// the object operand must display the decoded text, not "reg3".
	data := []byte{
		23, 3, 0x00, 0x02, 101 ^ stringMask, 102 ^ stringMask,
		251, 1, 3, 0,
	}

	trace, err := New(data).Disassemble()
	if err != nil {
		t.Fatalf("Disassemble failed: %v", err)
	}
	if len(trace) != 2 {
		t.Fatalf("got %d lines, want 2", len(trace))
	}

	if want := "new_value 'ef' -> reg3"; trace[0].Text != want {
		t.Errorf("line 1 = %q, want %q", trace[0].Text, want)
	}
	if trace[0].Offset != 6 {
		t.Errorf("line 1 offset = %d, want 6", trace[0].Offset)
	}
	if want := "get_property ef[reg0] -> reg1"; trace[1].Text != want {
		t.Errorf("line 2 = %q, want %q", trace[1].Text, want)
	}
}

func TestResolvedFunctionCall(t *testing.T) {
	data := []byte{}
	data = append(data, 23, 2)
	data = append(data, encodeString("log")...)
	data = append(data, 215, 0, 2, 1, 7)

	trace, err := New(data).Disassemble()
	if err != nil {
		t.Fatalf("Disassemble failed: %v", err)
	}
	if want := "call_function log(reg7) -> reg0"; trace[1].Text != want {
		t.Errorf("got %q, want %q", trace[1].Text, want)
	}
}

func TestSetPropertyResolvesAllThreeOperands(t *testing.T) {
	data := []byte{}
	data = append(data, 23, 1)
	data = append(data, encodeString("window")...)
	data = append(data, 23, 2)
	data = append(data, encodeString("name")...)
	data = append(data, 23, 3)
	data = append(data, encodeString("x")...)
	data = append(data, 99, 1, 2, 3)

	trace, err := New(data).Disassemble()
	if err != nil {
		t.Fatalf("Disassemble failed: %v", err)
	}
	if want := "set_property window[name] = x"; trace[3].Text != want {
		t.Errorf("got %q, want %q", trace[3].Text, want)
	}
}

func TestHaltDoesNotStopTheLoop(t *testing.T) {
	data := []byte{166, 166, 93, 0, 0, 0, 5}

	trace, err := New(data).Disassemble()
	if err != nil {
		t.Fatalf("Disassemble failed: %v", err)
	}
	if len(trace) != 3 {
		t.Fatalf("got %d lines, want 3: halt must not terminate the loop", len(trace))
	}
	if trace[2].Text != "jump 5" {
		t.Errorf("line 3 = %q, want \"jump 5\"", trace[2].Text)
	}
}

func TestUnknownOpcodeAbortsWithPartialTrace(t *testing.T) {
	data := []byte{166, 0}

	trace, err := New(data).Disassemble()
	if err == nil {
		t.Fatal("expected error for unknown opcode")
	}

	var unknownErr *UnknownOpcodeError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownOpcodeError, got %T: %v", err, err)
	}
	if unknownErr.Opcode != 0 {
		t.Errorf("Opcode = %d, want 0", unknownErr.Opcode)
	}
	if unknownErr.Offset != 1 {
		t.Errorf("Offset = %d, want 1", unknownErr.Offset)
	}
	if len(trace) != 1 {
		t.Errorf("partial trace has %d lines, want 1", len(trace))
	}
}

func TestTruncatedOperandsFailWithOutOfBounds(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"string shorter than declared length", []byte{23, 3, 0x00, 0x05, 1, 2}},
		{"binary op missing right register", []byte{6, 0, 1}},
		{"double cut short", []byte{51, 4, 0x40, 0x04}},
		{"word32 cut short", []byte{93, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.data).Disassemble()
			if !errors.Is(err, bytecode.ErrOutOfBounds) {
				t.Errorf("expected ErrOutOfBounds, got %v", err)
			}
		})
	}
}

func TestAliasedOpcodesProduceIdenticalShapes(t *testing.T) {
	tests := []struct {
		name  string
		a, b  byte
		wantA string
		wantB string
	}{
		{"less_than", 20, 112, "less_than reg1 < reg2 -> reg0", "less_than reg4 < reg5 -> reg3"},
		{"lte", 247, 214, "lte reg1 <= reg2 -> reg0", "lte reg4 <= reg5 -> reg3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte{tt.a, 0, 1, 2, tt.b, 3, 4, 5}
			trace, err := New(data).Disassemble()
			if err != nil {
				t.Fatalf("Disassemble failed: %v", err)
			}
			if trace[0].Text != tt.wantA {
				t.Errorf("line 1 = %q, want %q", trace[0].Text, tt.wantA)
			}
			if trace[1].Text != tt.wantB {
				t.Errorf("line 2 = %q, want %q", trace[1].Text, tt.wantB)
			}
		})
	}
}

func TestTraceLineRendering(t *testing.T) {
	// The offset keeps its historical rendering: 0x prefix, decimal value.
	line := TraceLine{Offset: 42, Text: "halt"}
	if got, want := line.String(), "0x42    halt"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRegistersAccessor(t *testing.T) {
	data := []byte{}
	data = append(data, 23, 5)
	data = append(data, encodeString("document")...)

	d := New(data)
	if _, err := d.Disassemble(); err != nil {
		t.Fatalf("Disassemble failed: %v", err)
	}

	consts := d.Registers().Constants()
	if len(consts) != 1 || consts[0].Register != 5 || consts[0].Text != "document" {
		t.Errorf("constants = %+v, want [{5 document}]", consts)
	}
}
