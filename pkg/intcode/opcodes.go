package intcode

import "fmt"

// Opcode is the low two decimal digits of an instruction word.
type Opcode int64

const (
	OpAdd        Opcode = 1  // dst = a + b
	OpMul        Opcode = 2  // dst = a * b
	OpInput      Opcode = 3  // dst = next queued input
	OpOutput     Opcode = 4  // emit a
	OpJumpTrue   Opcode = 5  // if a != 0, ip = b
	OpJumpFalse  Opcode = 6  // if a == 0, ip = b
	OpLessThan   Opcode = 7  // dst = a < b ? 1 : 0
	OpEquals     Opcode = 8  // dst = a == b ? 1 : 0
	OpAdjustBase Opcode = 9  // relative base += a
	OpHalt       Opcode = 99 // stop
)

// OpcodeInfo describes the operand layout of an opcode.
type OpcodeInfo struct {
	Name     string // Mnemonic used by the disassembler
	Operands int    // Operand words following the instruction word
	Writes   bool   // Last operand is a write target
}

var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpAdd:        {"ADD", 3, true},
	OpMul:        {"MUL", 3, true},
	OpInput:      {"IN", 1, true},
	OpOutput:     {"OUT", 1, false},
	OpJumpTrue:   {"JNZ", 2, false},
	OpJumpFalse:  {"JZ", 2, false},
	OpLessThan:   {"LT", 3, true},
	OpEquals:     {"EQ", 3, true},
	OpAdjustBase: {"ARB", 1, false},
	OpHalt:       {"HALT", 0, false},
}

// GetOpcodeInfo returns metadata for op and whether op is a known opcode.
func GetOpcodeInfo(op Opcode) (OpcodeInfo, bool) {
	info, ok := opcodeInfoTable[op]
	return info, ok
}

func (op Opcode) String() string {
	if info, ok := opcodeInfoTable[op]; ok {
		return info.Name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int64(op))
}

// Size returns the number of memory words an instruction with this opcode
// occupies, including the instruction word itself.
func (op Opcode) Size() int {
	return 1 + opcodeInfoTable[op].Operands
}

// IsJump reports whether op may move the instruction pointer.
func (op Opcode) IsJump() bool {
	return op == OpJumpTrue || op == OpJumpFalse
}

// Mode is the addressing mode of a single operand.
type Mode uint8

const (
	ModePosition  Mode = 0 // operand is an absolute address
	ModeImmediate Mode = 1 // operand is the value itself
	ModeRelative  Mode = 2 // operand is an offset from the relative base
)

func (m Mode) String() string {
	switch m {
	case ModePosition:
		return "position"
	case ModeImmediate:
		return "immediate"
	case ModeRelative:
		return "relative"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}
