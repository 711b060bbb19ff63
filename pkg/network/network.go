// Package network simulates a packet-switched network of Intcode machines
// that all run the same NIC program.
//
// Machines are scheduled cooperatively on the caller's goroutine: every tick
// visits each machine in address order and runs it until it has waited twice
// on an empty packet queue or halted. A NAT watches address 255; when a whole
// tick passes with no traffic it wakes the network by resending its last
// packet to address 0.
package network

import (
	"context"
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/intcode/pkg/intcode"
)

var log = commonlog.GetLogger("intcode.network")

const (
	DefaultSize = 50
	DefaultNAT  = 255

	// noPacket is fed to a NIC that asks for input while its queue is empty.
	noPacket = -1
)

var (
	ErrUnknownAddress = errors.New("packet addressed to unknown node")
	ErrMalformed      = errors.New("malformed packet")
	ErrNoNATPacket    = errors.New("network idle before any packet reached the NAT")
)

// Packet is one X, Y pair in flight.
type Packet struct {
	X, Y int64
}

// Option configures a Network.
type Option func(*Network)

// WithSize sets the number of nodes.
func WithSize(n int) Option {
	return func(nw *Network) { nw.size = n }
}

// WithNAT sets the address the NAT listens on.
func WithNAT(addr int64) Option {
	return func(nw *Network) { nw.natAddr = addr }
}

// WithMachineOptions passes options to every node's machine.
func WithMachineOptions(opts ...intcode.Option) Option {
	return func(nw *Network) { nw.machineOpts = append(nw.machineOpts, opts...) }
}

// Network owns the nodes, their packet queues and the NAT.
type Network struct {
	size        int
	natAddr     int64
	machineOpts []intcode.Option

	nodes  []*intcode.Machine
	queues [][]Packet
	nat    *Packet
	first  *Packet
	ticks  int
}

// New boots size copies of program, each seeded with its own address.
func New(program []int64, opts ...Option) (*Network, error) {
	nw := &Network{size: DefaultSize, natAddr: DefaultNAT}
	for _, opt := range opts {
		opt(nw)
	}
	if nw.size <= 0 {
		return nil, fmt.Errorf("network size must be positive, got %d", nw.size)
	}
	if nw.natAddr >= 0 && nw.natAddr < int64(nw.size) {
		return nil, fmt.Errorf("NAT address %d collides with a node address", nw.natAddr)
	}

	nw.nodes = make([]*intcode.Machine, nw.size)
	nw.queues = make([][]Packet, nw.size)
	for i := range nw.nodes {
		m := intcode.New(program, nw.machineOpts...)
		m.Provide(int64(i))
		nw.nodes[i] = m
	}
	return nw, nil
}

// Ticks returns the number of scheduling rounds run so far.
func (nw *Network) Ticks() int { return nw.ticks }

// FirstNATPacket runs the network until some node sends a packet to the NAT
// and returns that packet.
func (nw *Network) FirstNATPacket(ctx context.Context) (Packet, error) {
	for nw.first == nil {
		if err := ctx.Err(); err != nil {
			return Packet{}, err
		}
		idle, err := nw.tick()
		if err != nil {
			return Packet{}, err
		}
		if idle && nw.first == nil && nw.quiescent() {
			return Packet{}, ErrNoNATPacket
		}
	}
	return *nw.first, nil
}

// RunNAT runs the network with the NAT active and returns the first packet
// the NAT delivers to address 0 twice in a row.
func (nw *Network) RunNAT(ctx context.Context) (Packet, error) {
	var previous *Packet
	for {
		if err := ctx.Err(); err != nil {
			return Packet{}, err
		}
		idle, err := nw.tick()
		if err != nil {
			return Packet{}, err
		}
		if !idle || !nw.quiescent() {
			continue
		}
		if nw.nat == nil {
			return Packet{}, ErrNoNATPacket
		}

		p := *nw.nat
		log.Debugf("tick %d: network idle, NAT sends %v to 0", nw.ticks, p)
		nw.queues[0] = append(nw.queues[0], p)
		if previous != nil && *previous == p {
			log.Infof("NAT repeated %v after %d ticks", p, nw.ticks)
			return p, nil
		}
		previous = &p
	}
}

// tick gives every node one turn. It reports whether the whole tick passed
// without any packet being sent or received.
func (nw *Network) tick() (bool, error) {
	nw.ticks++
	idle := true
	for addr, m := range nw.nodes {
		active, err := nw.turn(addr, m)
		if err != nil {
			return false, fmt.Errorf("node %d: %w", addr, err)
		}
		if active {
			idle = false
		}
	}
	return idle, nil
}

// turn runs one node until it has found its queue empty twice, or halted.
func (nw *Network) turn(addr int, m *intcode.Machine) (bool, error) {
	active := false
	waiting := false
	for {
		a, err := m.Run()
		if err != nil {
			return active, err
		}

		switch a.Kind {
		case intcode.KindHalt:
			if n := len(nw.queues[addr]); n > 0 {
				log.Debugf("node %d halted, dropping %d packets", addr, n)
				nw.queues[addr] = nil
			}
			return active, nil

		case intcode.KindNeedsInput:
			if q := nw.queues[addr]; len(q) > 0 {
				nw.queues[addr] = q[1:]
				m.Provide(q[0].X, q[0].Y)
				active = true
				continue
			}
			if waiting {
				return active, nil
			}
			m.Provide(noPacket)
			waiting = true

		case intcode.KindOutput:
			active = true
			p, err := readPacket(m)
			if err != nil {
				return active, err
			}
			if err := nw.route(a.Value, p); err != nil {
				return active, err
			}
		}
	}
}

func readPacket(m *intcode.Machine) (Packet, error) {
	var xy [2]int64
	for i := range xy {
		a, err := m.Run()
		if err != nil {
			return Packet{}, err
		}
		v, err := a.Output()
		if err != nil {
			return Packet{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		xy[i] = v
	}
	return Packet{X: xy[0], Y: xy[1]}, nil
}

func (nw *Network) route(dst int64, p Packet) error {
	if dst == nw.natAddr {
		if nw.first == nil {
			first := p
			nw.first = &first
		}
		nw.nat = &p
		return nil
	}
	if dst < 0 || dst >= int64(nw.size) {
		return fmt.Errorf("%w %d", ErrUnknownAddress, dst)
	}
	nw.queues[dst] = append(nw.queues[dst], p)
	return nil
}

// quiescent reports whether no packet is queued anywhere and every machine
// has consumed all of its input.
func (nw *Network) quiescent() bool {
	for addr, q := range nw.queues {
		m := nw.nodes[addr]
		if len(q) > 0 || !m.Halted() && m.Pending() > 0 {
			return false
		}
	}
	return true
}
