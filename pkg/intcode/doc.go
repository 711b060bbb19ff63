// Package intcode implements a stored-program virtual machine whose code and
// data share one flat, integer-addressed memory of signed 64-bit words.
//
// A Machine is driven one step at a time. Each call to Run executes
// instructions until exactly one of three things happens:
//
//   - an output instruction produces a value (an Output action)
//   - an input instruction finds the input queue empty (NeedsInput)
//   - a halt instruction is reached (Halt)
//
// Suspending for input commits nothing: the instruction pointer is rewound to
// the start of the input instruction, so a later Run, after Provide has queued
// more values, re-decodes and completes the same instruction from scratch.
//
// # Architecture Overview
//
//   - Memory: growable zero-filled cell array. Any access past the end extends
//     it, so the address space behaves as if it were infinite.
//
//   - Operands: an instruction word carries its opcode in the low two decimal
//     digits and one addressing mode per operand in the digits above. Operands
//     are Position (absolute address), Immediate (literal) or Relative (offset
//     from the relative base register).
//
//   - Executor: Machine.Run, the fetch-decode-execute loop.
//
//   - Endpoint: runs a Machine on its own goroutine and exposes it as an
//     input channel plus an action channel, for pipelines and networks of
//     machines that exchange values by message passing only.
//
// # Errors
//
// Malformed programs (unknown opcodes, invalid modes, immediate write targets,
// negative addresses) are fatal. Run reports them as a *Fault and keeps
// returning the same fault on every later call. NeedsInput is not an error.
package intcode
