package bytecode

import "strconv"

// Opcode is a VM instruction. Every instruction has one integer argument.
type Opcode byte

const (
	// OpConst pushes constants[arg].
	OpConst Opcode = iota
	// OpLoad pushes the argument in slot arg.
	OpLoad
	// OpUnary replaces the top of the stack with unary[arg] applied to it.
	OpUnary
	// OpBinary pops the right operand and replaces the left with binary[arg]
	// applied to both.
	OpBinary
	// OpUnaryGeneric is OpUnary through the algebra's generic dispatch with
	// the operation named names[arg].
	OpUnaryGeneric
	// OpBinaryGeneric is OpBinary through the algebra's generic dispatch
	// with the operation named names[arg].
	OpBinaryGeneric
)

var opcodeNames = [...]string{
	OpConst:         "const",
	OpLoad:          "load",
	OpUnary:         "unary",
	OpBinary:        "binary",
	OpUnaryGeneric:  "unary.generic",
	OpBinaryGeneric: "binary.generic",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return "Opcode(" + strconv.Itoa(int(op)) + ")"
}

type instr struct {
	op  Opcode
	arg int
}
