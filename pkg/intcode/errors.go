package intcode

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownOpcode     = errors.New("unknown opcode")
	ErrInvalidMode       = errors.New("invalid parameter mode")
	ErrImmediateWrite    = errors.New("write target in immediate mode")
	ErrNegativeAddress   = errors.New("negative address")
	ErrMemoryLimit       = errors.New("address exceeds memory limit")
	ErrInsufficientInput = errors.New("program needs more input than was provided")
	ErrNotOutput         = errors.New("action is not an output")

	// Endpoint errors.
	ErrStopped     = errors.New("endpoint stopped")
	ErrClosed      = errors.New("endpoint closed")
	ErrInputClosed = errors.New("input channel closed while machine waits for input")
)

// Fault is the fatal error a machine reports when it meets a malformed
// instruction. The machine stays faulted; every later Run returns the same
// Fault.
type Fault struct {
	IP   int64  // Address of the faulting instruction
	Word int64  // Raw instruction word at IP
	Op   Opcode // Decoded opcode, when decoding got that far
	Err  error  // One of the Err* sentinels
}

func (f *Fault) Error() string {
	return fmt.Sprintf("intcode: fault at ip=%d (word %d, %s): %v", f.IP, f.Word, f.Op, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}
