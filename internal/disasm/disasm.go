// Package disasm decodes the register-VM bytecode stream into a readable
// instruction trace. One Disassembler owns one buffer, one cursor and one
// register file for the duration of a run; independent runs share nothing.
package disasm

import (
	"fmt"

	"vmtrace/internal/bytecode"
)

// TraceLine is one decoded instruction. Offset is the cursor position
// immediately after the instruction finished decoding.
type TraceLine struct {
	Offset int    `json:"offset"`
	Text   string `json:"text"`
}

// String renders the line the way the trace has always been printed: the
// offset wears a 0x prefix but is written in decimal.
func (t TraceLine) String() string {
	return fmt.Sprintf("0x%d    %s", t.Offset, t.Text)
}

// UnknownOpcodeError is returned when an opcode byte has no table entry.
// The run aborts immediately; there is no skip-and-continue.
type UnknownOpcodeError struct {
	Opcode byte
	Offset int
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode %d at offset %d", e.Opcode, e.Offset)
}

// Disassembler drives a single decode run.
type Disassembler struct {
	r     *bytecode.Reader
	regs  *RegisterFile
	trace []TraceLine
}

// New creates a Disassembler over raw (already decoded) bytecode.
func New(data []byte) *Disassembler {
	return &Disassembler{
		r:    bytecode.NewReader(data),
		regs: &RegisterFile{},
	}
}

// Registers exposes the constant table populated during the run, for
// reporting after Disassemble returns.
func (d *Disassembler) Registers() *RegisterFile {
	return d.regs
}

// Disassemble decodes instructions until the cursor is exhausted. A halt
// instruction only emits a line; it does not stop the loop. On failure the
// lines decoded so far are returned together with the error so callers can
// show the partial trace.
func (d *Disassembler) Disassemble() ([]TraceLine, error) {
	for d.r.Remaining() > 0 {
		opOffset := d.r.Offset()
		b, err := d.r.ReadByte()
		if err != nil {
			return d.trace, err
		}

		op, ok := Lookup(b)
		if !ok {
			return d.trace, &UnknownOpcodeError{Opcode: b, Offset: opOffset}
		}

		text, err := d.decode(op)
		if err != nil {
			return d.trace, fmt.Errorf("decoding %s at offset %d: %w", op, opOffset, err)
		}

		d.trace = append(d.trace, TraceLine{Offset: d.r.Offset(), Text: text})
	}
	return d.trace, nil
}
