package intcode

import "fmt"

// maxOperands is the widest operand list of any opcode.
const maxOperands = 3

// Param is one undecorated operand word together with its addressing mode.
type Param struct {
	Mode  Mode
	Value int64
}

func (p Param) String() string {
	switch p.Mode {
	case ModeImmediate:
		return fmt.Sprintf("%d", p.Value)
	case ModeRelative:
		return fmt.Sprintf("rb[%+d]", p.Value)
	}
	return fmt.Sprintf("[%d]", p.Value)
}

// Instruction is the decoded view of one instruction. It is rebuilt from
// memory on every fetch since programs may rewrite their own code.
type Instruction struct {
	Op     Opcode
	Word   int64
	Params [maxOperands]Param
	N      int // Number of valid entries in Params
}

// Size returns the number of memory words the instruction occupies.
func (in Instruction) Size() int {
	return 1 + in.N
}

func (in Instruction) String() string {
	s := in.Op.String()
	for i := 0; i < in.N; i++ {
		if i == 0 {
			s += " "
		} else {
			s += ", "
		}
		s += in.Params[i].String()
	}
	return s
}

var modeScale = [maxOperands]int64{100, 1000, 10000}

// DecodeWord splits an instruction word into its opcode and the addressing
// modes of the operands that opcode takes. Operand modes are validated,
// including the rule that a write target is never immediate.
func DecodeWord(word int64) (Opcode, [maxOperands]Mode, error) {
	var modes [maxOperands]Mode
	op := Opcode(word % 100)
	info, ok := GetOpcodeInfo(op)
	if !ok {
		return op, modes, ErrUnknownOpcode
	}
	for i := 0; i < info.Operands; i++ {
		digit := (word / modeScale[i]) % 10
		switch Mode(digit) {
		case ModePosition, ModeRelative:
		case ModeImmediate:
			if info.Writes && i == info.Operands-1 {
				return op, modes, ErrImmediateWrite
			}
		default:
			return op, modes, fmt.Errorf("%w %d for operand %d", ErrInvalidMode, digit, i+1)
		}
		modes[i] = Mode(digit)
	}
	return op, modes, nil
}

// fetch decodes the instruction at the instruction pointer and advances the
// pointer past it. No operand is dereferenced.
func (m *Machine) fetch() (Instruction, error) {
	var in Instruction
	word, err := m.mem.Read(m.ip)
	if err != nil {
		return in, err
	}
	in.Word = word
	op, modes, err := DecodeWord(word)
	in.Op = op
	if err != nil {
		return in, err
	}
	m.ip++
	in.N = opcodeInfoTable[op].Operands
	for i := 0; i < in.N; i++ {
		v, err := m.mem.Read(m.ip)
		if err != nil {
			return in, err
		}
		in.Params[i] = Param{Mode: modes[i], Value: v}
		m.ip++
	}
	return in, nil
}

// load resolves p for reading.
func (m *Machine) load(p Param) (int64, error) {
	if p.Mode == ModeImmediate {
		return p.Value, nil
	}
	addr, err := m.address(p)
	if err != nil {
		return 0, err
	}
	return m.mem.Read(addr)
}

// address resolves p to the memory address it names. Immediate operands have
// no address.
func (m *Machine) address(p Param) (int64, error) {
	switch p.Mode {
	case ModePosition:
		return p.Value, nil
	case ModeRelative:
		return m.base + p.Value, nil
	}
	return 0, ErrImmediateWrite
}

// store resolves p as a write target and stores v through it.
func (m *Machine) store(p Param, v int64) error {
	addr, err := m.address(p)
	if err != nil {
		return err
	}
	return m.mem.Write(addr, v)
}
