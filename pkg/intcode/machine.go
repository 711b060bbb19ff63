package intcode

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Machine is a single Intcode virtual machine. It owns its memory, its
// registers and its input queue; nothing in it is safe for concurrent use.
type Machine struct {
	mem    *Memory
	ip     int64
	base   int64
	input  queue
	fault  *Fault
	halted bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithInput queues values before the first Run.
func WithInput(values ...int64) Option {
	return func(m *Machine) { m.input.push(values...) }
}

// WithMemoryLimit caps the number of cells the machine may address. Values
// below one leave DefaultMemoryLimit in place.
func WithMemoryLimit(cells int) Option {
	return func(m *Machine) {
		if cells > 0 {
			m.mem.limit = cells
		}
	}
}

// New creates a machine whose memory starts as a copy of program.
func New(program []int64, opts ...Option) *Machine {
	m := &Machine{mem: newMemory(program, DefaultMemoryLimit)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load reads a program from the file at path and creates a machine for it.
func Load(path string, opts ...Option) (*Machine, error) {
	program, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(program, opts...), nil
}

// ReadFile parses the program stored at path.
func ReadFile(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	program, err := ParseReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return program, nil
}

// Parse decodes the program encoding: one line of comma-separated decimal
// integers. Only the first line of text is considered.
func Parse(text string) ([]int64, error) {
	return ParseReader(strings.NewReader(text))
}

// ParseReader is Parse over the first line of r.
func ParseReader(r io.Reader) ([]int64, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read program: %w", err)
		}
		return nil, errors.New("empty program")
	}
	line := strings.TrimSpace(sc.Text())
	if line == "" {
		return nil, errors.New("empty program")
	}

	fields := strings.Split(line, ",")
	program := make([]int64, 0, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		program = append(program, v)
	}
	return program, nil
}

// Clone returns an independent copy of the machine, including memory,
// registers, queued input and fault state.
func (m *Machine) Clone() *Machine {
	c := &Machine{
		mem:    m.mem.clone(),
		ip:     m.ip,
		base:   m.base,
		fault:  m.fault,
		halted: m.halted,
	}
	c.input.push(m.input.values()...)
	return c
}

// Provide appends values to the input queue. It never blocks.
func (m *Machine) Provide(values ...int64) {
	m.input.push(values...)
}

// Pending returns the number of queued input values not yet consumed.
func (m *Machine) Pending() int {
	return m.input.len()
}

// IP returns the instruction pointer.
func (m *Machine) IP() int64 { return m.ip }

// RelativeBase returns the relative base register.
func (m *Machine) RelativeBase() int64 { return m.base }

// Halted reports whether the machine has reached a halt instruction.
func (m *Machine) Halted() bool { return m.halted }

// Err returns the fault that stopped the machine, if any.
func (m *Machine) Err() error {
	if m.fault == nil {
		return nil
	}
	return m.fault
}

// Memory exposes the machine's memory.
func (m *Machine) Memory() *Memory { return m.mem }

// Peek returns the value at addr.
func (m *Machine) Peek(addr int64) (int64, error) {
	return m.mem.Read(addr)
}

// Poke stores v at addr. It is meant for seeding a program between runs,
// e.g. setting the two input cells of a program before running each clone.
func (m *Machine) Poke(addr, v int64) error {
	return m.mem.Write(addr, v)
}

// Snapshot returns a copy of the current memory contents.
func (m *Machine) Snapshot() []int64 {
	return m.mem.Snapshot()
}

// Run executes instructions until the program outputs a value, needs input
// that is not queued, or halts.
//
// NeedsInput leaves the machine exactly as it was before the input
// instruction was fetched. Halt leaves the instruction pointer on the halt
// instruction, so calling Run again returns Halt again. A non-nil error is
// always a *Fault and is permanent.
func (m *Machine) Run() (Action, error) {
	if m.fault != nil {
		return Action{}, m.fault
	}
	for {
		start := m.ip
		in, err := m.fetch()
		if err != nil {
			return m.fail(start, in, err)
		}

		switch in.Op {
		case OpAdd, OpMul, OpLessThan, OpEquals:
			a, err := m.load(in.Params[0])
			if err != nil {
				return m.fail(start, in, err)
			}
			b, err := m.load(in.Params[1])
			if err != nil {
				return m.fail(start, in, err)
			}
			if err := m.store(in.Params[2], arith(in.Op, a, b)); err != nil {
				return m.fail(start, in, err)
			}

		case OpInput:
			v, ok := m.input.peek()
			if !ok {
				m.ip = start
				return NeedsInput, nil
			}
			if err := m.store(in.Params[0], v); err != nil {
				return m.fail(start, in, err)
			}
			m.input.pop()

		case OpOutput:
			v, err := m.load(in.Params[0])
			if err != nil {
				return m.fail(start, in, err)
			}
			return OutputOf(v), nil

		case OpJumpTrue, OpJumpFalse:
			cond, err := m.load(in.Params[0])
			if err != nil {
				return m.fail(start, in, err)
			}
			target, err := m.load(in.Params[1])
			if err != nil {
				return m.fail(start, in, err)
			}
			if (cond != 0) == (in.Op == OpJumpTrue) {
				if target < 0 {
					return m.fail(start, in, ErrNegativeAddress)
				}
				m.ip = target
			}

		case OpAdjustBase:
			delta, err := m.load(in.Params[0])
			if err != nil {
				return m.fail(start, in, err)
			}
			m.base += delta

		case OpHalt:
			m.ip = start
			m.halted = true
			return Halt, nil
		}
	}
}

func arith(op Opcode, a, b int64) int64 {
	switch op {
	case OpAdd:
		return a + b
	case OpMul:
		return a * b
	case OpLessThan:
		if a < b {
			return 1
		}
	case OpEquals:
		if a == b {
			return 1
		}
	}
	return 0
}

// fail records a fault for the instruction at start and rewinds to it.
func (m *Machine) fail(start int64, in Instruction, err error) (Action, error) {
	m.ip = start
	m.fault = &Fault{IP: start, Word: in.Word, Op: in.Op, Err: err}
	return Action{}, m.fault
}

// Drain runs the machine until it needs input or halts, collecting every
// output on the way. The returned action is NeedsInput or Halt.
func (m *Machine) Drain() ([]int64, Action, error) {
	var out []int64
	for {
		a, err := m.Run()
		if err != nil {
			return out, a, err
		}
		if a.Kind != KindOutput {
			return out, a, nil
		}
		out = append(out, a.Value)
	}
}

// Compute runs program to completion on a fresh machine with all of input
// queued up front and returns every output in order. Suspending for input is
// reported as ErrInsufficientInput.
func Compute(program []int64, input ...int64) ([]int64, error) {
	m := New(program, WithInput(input...))
	out, a, err := m.Drain()
	if err != nil {
		return out, err
	}
	if a.Kind == KindNeedsInput {
		return out, fmt.Errorf("%w (ip=%d)", ErrInsufficientInput, m.ip)
	}
	return out, nil
}
