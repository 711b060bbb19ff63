package intcode

import "strings"

// ProvideString queues each byte of s as one input value.
func (m *Machine) ProvideString(s string) {
	for i := 0; i < len(s); i++ {
		m.input.push(int64(s[i]))
	}
}

// ASCII collects machine output as text. Values outside the 7-bit range are
// not characters; they are kept aside in Values (droids and robots report
// their final answer that way).
type ASCII struct {
	text   strings.Builder
	Values []int64
}

// Add records one output value.
func (a *ASCII) Add(v int64) {
	if v >= 0 && v < 128 {
		a.text.WriteByte(byte(v))
		return
	}
	a.Values = append(a.Values, v)
}

// AddAll records every value in vs.
func (a *ASCII) AddAll(vs []int64) {
	for _, v := range vs {
		a.Add(v)
	}
}

// String returns the text collected so far.
func (a *ASCII) String() string {
	return a.text.String()
}

// Reset discards collected text and values.
func (a *ASCII) Reset() {
	a.text.Reset()
	a.Values = nil
}
