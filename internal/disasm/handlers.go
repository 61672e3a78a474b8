package disasm

import (
	"fmt"
	"strings"
)

// decode consumes the operand fields for one instruction kind and formats
// its trace line. Field order is fixed per kind and must match the wire
// format exactly.
func (d *Disassembler) decode(op Op) (string, error) {
	if sym, ok := binaryOperators[op]; ok {
		return d.binaryOp(op, sym)
	}

	switch op {
	case OpInitMemory:
		return d.initMemory()
	case OpNewValue:
		return d.newValue()
	case OpGetProperty:
		return d.getProperty()
	case OpCallFunction:
		return d.callFunction()
	case OpCallApply:
		return d.callApply()
	case OpMovImm24:
		return d.movImm24()
	case OpLoadImm24:
		return d.loadImm24()
	case OpPushArgs:
		return d.pushArgs()
	case OpJumpFrame:
		return d.jumpFrame()
	case OpNewFunction:
		return d.newFunction()
	case OpJumpIfFalse:
		return d.conditionalJump(op)
	case OpJumpIfTrue:
		return d.conditionalJump(op)
	case OpSetProperty:
		return d.setProperty()
	case OpJump:
		return d.jump()
	case OpHalt:
		return OpHalt.String(), nil
	case OpRet:
		return d.functionRet()
	case OpLoadDouble:
		return d.loadDouble()
	case OpTryCatch:
		return d.tryCatch()
	case OpThrow:
		return d.throwOp()
	}
	return "", fmt.Errorf("no decoder for instruction kind %d", int(op))
}

// readRegList reads count register operand bytes and joins them as
// "regA,regB,...".
func (d *Disassembler) readRegList(count byte) (string, error) {
	regs := make([]string, 0, count)
	for i := byte(0); i < count; i++ {
		reg, err := d.r.ReadByte()
		if err != nil {
			return "", err
		}
		regs = append(regs, fmt.Sprintf("reg%d", reg))
	}
	return strings.Join(regs, ","), nil
}

func (d *Disassembler) initMemory() (string, error) {
	reg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	value, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %d -> reg%d", OpInitMemory, value, reg), nil
}

// newValue is the only instruction that binds a register slot.
func (d *Disassembler) newValue() (string, error) {
	reg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	value, err := DecodeString(d.r)
	if err != nil {
		return "", err
	}
	d.regs.Define(reg, value)
	return fmt.Sprintf("%s '%s' -> reg%d", OpNewValue, value, reg), nil
}

func (d *Disassembler) getProperty() (string, error) {
	reg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	objReg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	propReg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s[%s] -> reg%d", OpGetProperty, d.regs.Resolve(objReg), d.regs.Resolve(propReg), reg), nil
}

func (d *Disassembler) callFunction() (string, error) {
	reg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	funcReg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	argc, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	args, err := d.readRegList(argc)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s(%s) -> reg%d", OpCallFunction, d.regs.Resolve(funcReg), args, reg), nil
}

func (d *Disassembler) callApply() (string, error) {
	reg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	funcReg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	thisReg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	argc, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	args, err := d.readRegList(argc)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s.apply(reg%d, [%s]) -> reg%d", OpCallApply, d.regs.Resolve(funcReg), thisReg, args, reg), nil
}

func (d *Disassembler) binaryOp(op Op, symbol string) (string, error) {
	reg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	leftReg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	rightReg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s reg%d %s reg%d -> reg%d", op, leftReg, symbol, rightReg, reg), nil
}

func (d *Disassembler) movImm24() (string, error) {
	reg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	value, err := d.r.ReadWord32()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %d -> reg%d", OpMovImm24, value, reg), nil
}

// loadImm24 reads a single immediate byte even though its sibling movImm24
// reads four. The asymmetry is in the wire format; both are kept as-is.
func (d *Disassembler) loadImm24() (string, error) {
	reg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	value, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %d -> reg%d", OpLoadImm24, value, reg), nil
}

func (d *Disassembler) pushArgs() (string, error) {
	reg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	argc, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	args, err := d.readRegList(argc)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s [%s] -> reg%d", OpPushArgs, args, reg), nil
}

func (d *Disassembler) jumpFrame() (string, error) {
	entry, err := d.r.ReadWord32()
	if err != nil {
		return "", err
	}
	context, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	paramc, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	params, err := d.readRegList(paramc)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s entry(%d), %d, params(%s)", OpJumpFrame, entry, context, params), nil
}

func (d *Disassembler) newFunction() (string, error) {
	reg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	entry, err := d.r.ReadWord32()
	if err != nil {
		return "", err
	}
	argc, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	args, err := d.readRegList(argc)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s entry(%d), args(%s) -> reg%d", OpNewFunction, entry, args, reg), nil
}

func (d *Disassembler) conditionalJump(op Op) (string, error) {
	reg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	target, err := d.r.ReadWord32()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s reg%d, entry(%d)", op, reg, target), nil
}

func (d *Disassembler) setProperty() (string, error) {
	objReg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	propReg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	valReg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s[%s] = %s", OpSetProperty, d.regs.Resolve(objReg), d.regs.Resolve(propReg), d.regs.Resolve(valReg)), nil
}

func (d *Disassembler) jump() (string, error) {
	target, err := d.r.ReadWord32()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %d", OpJump, target), nil
}

func (d *Disassembler) functionRet() (string, error) {
	reg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	count, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	regs, err := d.readRegList(count)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s reg%d [%s]", OpRet, reg, regs), nil
}

func (d *Disassembler) loadDouble() (string, error) {
	reg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	value, err := DecodeDouble(d.r)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %v -> reg%d", OpLoadDouble, value, reg), nil
}

func (d *Disassembler) tryCatch() (string, error) {
	reg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	catchTarget, err := d.r.ReadWord32()
	if err != nil {
		return "", err
	}
	finallyTarget, err := d.r.ReadWord32()
	if err != nil {
		return "", err
	}
	continueTarget, err := d.r.ReadWord32()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s [%d, %d, %d] -> reg%d", OpTryCatch, catchTarget, finallyTarget, continueTarget, reg), nil
}

func (d *Disassembler) throwOp() (string, error) {
	reg, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s reg%d", OpThrow, reg), nil
}
