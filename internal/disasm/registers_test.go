package disasm

import "testing"

func TestResolveUnbound(t *testing.T) {
	var f RegisterFile
	if got := f.Resolve(0); got != "reg0" {
		t.Errorf("got %q, want \"reg0\"", got)
	}
	if got := f.Resolve(255); got != "reg255" {
		t.Errorf("got %q, want \"reg255\"", got)
	}
}

func TestDefineThenResolve(t *testing.T) {
	var f RegisterFile
	f.Define(3, "console")

	if got := f.Resolve(3); got != "console" {
		t.Errorf("got %q, want \"console\"", got)
	}
	// Other slots stay unbound.
	if got := f.Resolve(4); got != "reg4" {
		t.Errorf("got %q, want \"reg4\"", got)
	}
}

func TestEmptyStringConstantIsBound(t *testing.T) {
	var f RegisterFile
	f.Define(7, "")

	if !f.Bound(7) {
		t.Error("slot 7 should be bound after defining an empty constant")
	}
	if got := f.Resolve(7); got != "" {
		t.Errorf("got %q, want empty string", got)
	}
}

func TestConstantsInRegisterOrder(t *testing.T) {
	var f RegisterFile
	f.Define(200, "b")
	f.Define(1, "a")

	consts := f.Constants()
	if len(consts) != 2 {
		t.Fatalf("got %d constants, want 2", len(consts))
	}
	if consts[0].Register != 1 || consts[0].Text != "a" {
		t.Errorf("consts[0] = %+v, want {1 a}", consts[0])
	}
	if consts[1].Register != 200 || consts[1].Text != "b" {
		t.Errorf("consts[1] = %+v, want {200 b}", consts[1])
	}
}
