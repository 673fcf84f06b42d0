package cpu

import (
	"iter"
)

// Opcode represents a line of assembled source with its location and
// generated instruction words.
type Opcode struct {
	LineNo    int    // Source line number.
	Addr      int    // Memory address of the first generated word.
	Words     []string
	Codes     []Code
	LinkLabel string // Label to link into the final word, if any.
}

// Program is an assembled listing, addressed from PROGRAM_START.
type Program struct {
	Opcodes []Opcode
}

// Debug attributes an execution address back to its source.
type Debug struct {
	*Opcode
	Index int
}

// Debug returns the source attribution for a memory address.
func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(addr) >= op.Addr && int(addr) < op.Addr+2*len(op.Codes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  (int(addr) - op.Addr) / 2,
			}
			break
		}
	}

	return
}

// Binary returns the program image, suitable for loading at PROGRAM_START.
func (prog *Program) Binary() (bins []uint8) {
	for _, code := range prog.Codes() {
		bins = append(bins, uint8(code>>8), uint8(code))
	}

	return
}

// Codes iterates over the generated instruction words by memory address.
func (prog *Program) Codes() iter.Seq2[uint16, Code] {
	return func(yield func(addr uint16, code Code) bool) {
		for _, op := range prog.Opcodes {
			addr := uint16(op.Addr)
			for n, code := range op.Codes {
				if !yield(addr+2*uint16(n), code) {
					return
				}
			}
		}
	}
}
