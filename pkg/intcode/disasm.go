package intcode

import (
	"fmt"
	"strings"
)

// Disassemble returns a listing of program, one instruction per line. Words
// that do not decode to a complete instruction are printed as DATA and the
// walk continues with the next word.
func Disassemble(program []int64) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("; Intcode program, %d cells\n", len(program)))

	offset := 0
	for offset < len(program) {
		line, n := disassembleInstruction(program, offset)
		sb.WriteString(fmt.Sprintf("%04d  %s\n", offset, line))
		offset += n
	}
	return sb.String()
}

// disassembleInstruction formats the instruction at offset and returns the
// number of words it spans.
func disassembleInstruction(program []int64, offset int) (string, int) {
	word := program[offset]
	op, modes, err := DecodeWord(word)
	if err != nil {
		return fmt.Sprintf("DATA %d", word), 1
	}
	n := op.Size()
	if offset+n > len(program) {
		return fmt.Sprintf("DATA %d", word), 1
	}

	in := Instruction{Op: op, Word: word, N: n - 1}
	for i := 0; i < in.N; i++ {
		in.Params[i] = Param{Mode: modes[i], Value: program[offset+1+i]}
	}
	return in.String(), n
}
