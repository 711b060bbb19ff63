// Package trace records the actions a machine produces and stores them as
// canonical CBOR, so two runs of the same program can be compared byte for
// byte.
package trace

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/intcode/pkg/intcode"
)

// Version is written into every encoded trace.
const Version = 1

var ErrVersion = errors.New("unsupported trace version")

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("trace: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Event is one step of a machine.
type Event struct {
	Seq   uint64             `cbor:"1,keyasint"`
	IP    int64              `cbor:"2,keyasint"`
	Base  int64              `cbor:"3,keyasint"`
	Kind  intcode.ActionKind `cbor:"4,keyasint"`
	Value int64              `cbor:"5,keyasint,omitempty"`
	Fault string             `cbor:"6,keyasint,omitempty"`
}

func (e Event) String() string {
	if e.Fault != "" {
		return fmt.Sprintf("#%d ip=%d fault: %s", e.Seq, e.IP, e.Fault)
	}
	a := intcode.Action{Kind: e.Kind, Value: e.Value}
	return fmt.Sprintf("#%d ip=%d rb=%d %s", e.Seq, e.IP, e.Base, a)
}

type document struct {
	Version int     `cbor:"1,keyasint"`
	Events  []Event `cbor:"2,keyasint"`
}

// Recorder steps a machine and keeps an Event per step.
type Recorder struct {
	m      *intcode.Machine
	events []Event
	seq    uint64
}

func NewRecorder(m *intcode.Machine) *Recorder {
	return &Recorder{m: m}
}

// Machine returns the recorded machine, e.g. to provide more input.
func (r *Recorder) Machine() *intcode.Machine { return r.m }

// Step runs the machine until its next action and records it.
func (r *Recorder) Step() (intcode.Action, error) {
	a, err := r.m.Run()
	r.seq++
	ev := Event{
		Seq:   r.seq,
		IP:    r.m.IP(),
		Base:  r.m.RelativeBase(),
		Kind:  a.Kind,
		Value: a.Value,
	}
	if err != nil {
		ev.Fault = err.Error()
	}
	r.events = append(r.events, ev)
	return a, err
}

// Drain steps until the machine halts, faults or asks for input it does
// not have. It returns the last action.
func (r *Recorder) Drain() (intcode.Action, error) {
	for {
		a, err := r.Step()
		if err != nil || a.Kind != intcode.KindOutput {
			return a, err
		}
	}
}

// Events returns the events recorded so far.
func (r *Recorder) Events() []Event {
	return r.events
}

// Outputs returns the values of the recorded output events in order.
func Outputs(events []Event) []int64 {
	var out []int64
	for _, e := range events {
		if e.Kind == intcode.KindOutput && e.Fault == "" {
			out = append(out, e.Value)
		}
	}
	return out
}

// Marshal encodes events as canonical CBOR.
func Marshal(events []Event) ([]byte, error) {
	return encMode.Marshal(document{Version: Version, Events: events})
}

// Unmarshal decodes a trace produced by Marshal.
func Unmarshal(data []byte) ([]Event, error) {
	var d document
	if err := cbor.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("trace: unmarshal: %w", err)
	}
	if d.Version != Version {
		return nil, fmt.Errorf("trace: %w %d", ErrVersion, d.Version)
	}
	return d.Events, nil
}

// Encode writes events to w.
func Encode(w io.Writer, events []Event) error {
	data, err := Marshal(events)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Decode reads a whole trace from r.
func Decode(r io.Reader) ([]Event, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("trace: read: %w", err)
	}
	return Unmarshal(buf.Bytes())
}

// WriteFile stores events at path.
func WriteFile(path string, events []Event) error {
	data, err := Marshal(events)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile loads events stored by WriteFile.
func ReadFile(path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}
