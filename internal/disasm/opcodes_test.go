package disasm

import "testing"

func TestOpcodeAliases(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		want  Op
	}{
		{"less_than", []byte{20, 112}, OpLessThan},
		{"lte", []byte{247, 214}, OpLte},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, b := range tt.bytes {
				op, ok := Lookup(b)
				if !ok {
					t.Fatalf("Lookup(%d) missed", b)
				}
				if op != tt.want {
					t.Errorf("Lookup(%d) = %v, want %v", b, op, tt.want)
				}
			}
		})
	}
}

func TestLookupMiss(t *testing.T) {
	for _, b := range []byte{0, 1, 255} {
		if _, ok := Lookup(b); ok {
			t.Errorf("Lookup(%d) should miss", b)
		}
	}
}

func TestEveryTableEntryHasName(t *testing.T) {
	for b, op := range opcodeTable {
		if op.String() == "unknown" {
			t.Errorf("opcode byte %d maps to unnamed kind %d", b, int(op))
		}
	}
}
