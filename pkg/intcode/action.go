package intcode

import "fmt"

// ActionKind tags the three outcomes of one Run.
type ActionKind uint8

// The zero ActionKind is not a valid kind, so a zero Action (returned with
// a fault, or read from a closed channel) is never mistaken for an output.
const (
	kindInvalid ActionKind = iota
	KindOutput
	KindNeedsInput
	KindHalt
)

func (k ActionKind) String() string {
	switch k {
	case kindInvalid:
		return "invalid"
	case KindOutput:
		return "output"
	case KindNeedsInput:
		return "needs-input"
	case KindHalt:
		return "halt"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Action is the result of one Run: an output value, a request for more
// input, or halt. Value is only meaningful for outputs.
type Action struct {
	Kind  ActionKind
	Value int64
}

var (
	NeedsInput = Action{Kind: KindNeedsInput}
	Halt       = Action{Kind: KindHalt}
)

// OutputOf returns the Output action carrying v.
func OutputOf(v int64) Action {
	return Action{Kind: KindOutput, Value: v}
}

// Output returns the value of an Output action, or ErrNotOutput.
func (a Action) Output() (int64, error) {
	if a.Kind != KindOutput {
		return 0, fmt.Errorf("%w: got %s", ErrNotOutput, a)
	}
	return a.Value, nil
}

func (a Action) String() string {
	if a.Kind == KindOutput {
		return fmt.Sprintf("output(%d)", a.Value)
	}
	return a.Kind.String()
}
