package disasm

import "fmt"

// NumRegisters is the fixed register file size; indices come from single
// bytes so they are always in range.
const NumRegisters = 256

// RegisterFile tracks which registers hold a known constant string. It
// exists purely for display: the only instruction that binds a slot is
// new_value, and nothing ever unbinds one. Each disassembly run owns its
// own file; there is no shared state between runs.
type RegisterFile struct {
	slots [NumRegisters]string
	bound [NumRegisters]bool
}

// Constant is one bound register slot, for reporting.
type Constant struct {
	Register int
	Text     string
}

// Define binds a register slot to a decoded constant.
func (f *RegisterFile) Define(index byte, text string) {
	f.slots[index] = text
	f.bound[index] = true
}

// Resolve returns the constant text held by a register, or a synthesized
// register reference when the slot is unbound.
func (f *RegisterFile) Resolve(index byte) string {
	if f.bound[index] {
		return f.slots[index]
	}
	return fmt.Sprintf("reg%d", index)
}

// Bound reports whether a register holds a known constant.
func (f *RegisterFile) Bound(index byte) bool {
	return f.bound[index]
}

// Constants returns all bound slots in register order.
func (f *RegisterFile) Constants() []Constant {
	var out []Constant
	for i := 0; i < NumRegisters; i++ {
		if f.bound[i] {
			out = append(out, Constant{Register: i, Text: f.slots[i]})
		}
	}
	return out
}
