package disasm

// Op identifies an instruction kind. Several opcode byte values alias the
// same kind; the aliasing lives in opcodeTable, not in duplicated decode
// logic.
type Op int

const (
	OpInitMemory Op = iota
	OpNewValue
	OpGetProperty
	OpCallFunction
	OpCallApply
	OpMul
	OpDiv
	OpOr
	OpSub
	OpAdd
	OpShl
	OpShr
	OpUshr
	OpAnd
	OpMod
	OpXor
	OpEqual
	OpNotEqual
	OpStrictEqual
	OpStrictNotEqual
	OpLessThan
	OpLte
	OpMovImm24
	OpLoadImm24
	OpPushArgs
	OpJumpFrame
	OpNewFunction
	OpJumpIfFalse
	OpJumpIfTrue
	OpSetProperty
	OpJump
	OpHalt
	OpRet
	OpLoadDouble
	OpTryCatch
	OpThrow
)

var opNames = map[Op]string{
	OpInitMemory:     "init_memory",
	OpNewValue:       "new_value",
	OpGetProperty:    "get_property",
	OpCallFunction:   "call_function",
	OpCallApply:      "call_apply",
	OpMul:            "mul",
	OpDiv:            "div",
	OpOr:             "or",
	OpSub:            "sub",
	OpAdd:            "add",
	OpShl:            "shl",
	OpShr:            "shr",
	OpUshr:           "ushr",
	OpAnd:            "and",
	OpMod:            "mod",
	OpXor:            "xor",
	OpEqual:          "equal",
	OpNotEqual:       "not_equal",
	OpStrictEqual:    "strict_equal",
	OpStrictNotEqual: "strict_not_equal",
	OpLessThan:       "less_than",
	OpLte:            "lte",
	OpMovImm24:       "mov_imm24",
	OpLoadImm24:      "load_imm24",
	OpPushArgs:       "push_args",
	OpJumpFrame:      "jump_frame",
	OpNewFunction:    "new_function",
	OpJumpIfFalse:    "jump_if_false",
	OpJumpIfTrue:     "jump_if_true",
	OpSetProperty:    "set_property",
	OpJump:           "jump",
	OpHalt:           "halt",
	OpRet:            "ret",
	OpLoadDouble:     "load_double",
	OpTryCatch:       "try_catch",
	OpThrow:          "throw",
}

// String returns the mnemonic used in trace lines.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "unknown"
}

// binaryOperators maps the three-register arithmetic/comparison kinds to
// their infix rendering.
var binaryOperators = map[Op]string{
	OpMul:            "*",
	OpDiv:            "/",
	OpOr:             "|",
	OpSub:            "-",
	OpAdd:            "+",
	OpShl:            "<<",
	OpShr:            ">>",
	OpUshr:           ">>>",
	OpAnd:            "&",
	OpMod:            "%",
	OpXor:            "^",
	OpEqual:          "==",
	OpNotEqual:       "!=",
	OpStrictEqual:    "===",
	OpStrictNotEqual: "!==",
	OpLessThan:       "<",
	OpLte:            "<=",
}

// opcodeTable maps wire opcode bytes to instruction kinds. Bytes 20 and 112
// both encode less_than, and 247 and 214 both encode lte; every other value
// is one-to-one.
var opcodeTable = map[byte]Op{
	124: OpInitMemory,
	23:  OpNewValue,
	251: OpGetProperty,
	215: OpCallFunction,
	6:   OpMul,
	241: OpMovImm24,
	90:  OpCallApply,
	55:  OpDiv,
	65:  OpOr,
	230: OpSub,
	88:  OpPushArgs,
	181: OpLoadImm24,
	49:  OpJumpFrame,
	171: OpNewFunction,
	20:  OpLessThan,
	112: OpLessThan,
	39:  OpJumpIfFalse,
	99:  OpSetProperty,
	243: OpAdd,
	93:  OpJump,
	166: OpHalt,
	53:  OpShl,
	17:  OpRet,
	78:  OpEqual,
	117: OpXor,
	51:  OpLoadDouble,
	40:  OpUshr,
	149: OpShr,
	37:  OpAnd,
	156: OpMod,
	247: OpLte,
	214: OpLte,
	22:  OpNotEqual,
	83:  OpJumpIfTrue,
	115: OpTryCatch,
	161: OpStrictEqual,
	220: OpStrictNotEqual,
	5:   OpThrow,
}

// Lookup resolves an opcode byte to its instruction kind.
func Lookup(b byte) (Op, bool) {
	op, ok := opcodeTable[b]
	return op, ok
}
