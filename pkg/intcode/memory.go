package intcode

// DefaultMemoryLimit is the largest number of cells a machine may grow to
// unless WithMemoryLimit says otherwise.
const DefaultMemoryLimit = 1 << 24

// Memory is the flat address space of a machine. Cells past the current end
// read as zero; touching one extends the backing slice with zeros up to and
// including that address.
type Memory struct {
	cells []int64
	limit int
}

func newMemory(program []int64, limit int) *Memory {
	cells := make([]int64, len(program))
	copy(cells, program)
	return &Memory{cells: cells, limit: limit}
}

// index converts addr to a slice index, growing the memory when needed.
func (m *Memory) index(addr int64) (int, error) {
	if addr < 0 {
		return 0, ErrNegativeAddress
	}
	if addr >= int64(m.limit) {
		return 0, ErrMemoryLimit
	}
	i := int(addr)
	if i >= len(m.cells) {
		m.cells = append(m.cells, make([]int64, i+1-len(m.cells))...)
	}
	return i, nil
}

// Read returns the value stored at addr.
func (m *Memory) Read(addr int64) (int64, error) {
	i, err := m.index(addr)
	if err != nil {
		return 0, err
	}
	return m.cells[i], nil
}

// Write stores v at addr.
func (m *Memory) Write(addr, v int64) error {
	i, err := m.index(addr)
	if err != nil {
		return err
	}
	m.cells[i] = v
	return nil
}

// Len returns the number of cells currently backed by storage.
func (m *Memory) Len() int {
	return len(m.cells)
}

// Snapshot returns a copy of the backed cells.
func (m *Memory) Snapshot() []int64 {
	out := make([]int64, len(m.cells))
	copy(out, m.cells)
	return out
}

func (m *Memory) clone() *Memory {
	return newMemory(m.cells, m.limit)
}
