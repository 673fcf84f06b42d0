package cpu

import (
	"fmt"
)

// Code represents a single 16-bit instruction word, fetched big-endian
// from two consecutive bytes of memory.
type Code uint16

// Op is a decoded operation.
type Op int

//go:generate go tool stringer -linecomment -type=Op
const (
	OP_HALT        = Op(0)  // halt
	OP_RET         = Op(1)  // ret
	OP_JUMP        = Op(2)  // jump
	OP_VJUMP       = Op(3)  // vjump
	OP_CALL        = Op(4)  // call
	OP_SKIP_EQ     = Op(5)  // seq
	OP_SKIP_NE     = Op(6)  // sne
	OP_SKIP_EQ_REG = Op(7)  // seq
	OP_SKIP_NE_REG = Op(8)  // sne
	OP_SET         = Op(9)  // set
	OP_ADD         = Op(10) // add
	OP_SET_REG     = Op(11) // set
	OP_OR          = Op(12) // or
	OP_AND         = Op(13) // and
	OP_XOR         = Op(14) // xor
	OP_ADD_REG     = Op(15) // add
	OP_SUB         = Op(16) // sub
	OP_RSUB        = Op(17) // rsub
	OP_SHR         = Op(18) // shr
	OP_SHL         = Op(19) // shl
	OP_RAND        = Op(20) // rand
	OP_SET_I       = Op(21) // set
	OP_ADD_I       = Op(22) // add
	OP_DUMP        = Op(23) // dump
	OP_LOAD        = Op(24) // load
	OP_BCD         = Op(25) // bcd
	OP_DRAW        = Op(26) // draw
)

// MakeCode assembles an instruction word from its four nibbles.
func MakeCode(c, x, y, d uint8) Code {
	return Code(uint16(c&0xf)<<12 | uint16(x&0xf)<<8 | uint16(y&0xf)<<4 | uint16(d&0xf))
}

// MakeCodeNNN assembles an instruction word from its class nibble and a
// 12-bit address immediate.
func MakeCodeNNN(c uint8, nnn uint16) Code {
	return Code(uint16(c&0xf)<<12 | nnn&0xfff)
}

// MakeCodeNN assembles an instruction word from its class nibble, a
// register index, and an 8-bit immediate.
func MakeCodeNN(c, x, nn uint8) Code {
	return Code(uint16(c&0xf)<<12 | uint16(x&0xf)<<8 | uint16(nn))
}

// C returns bits 12-15, the operation class nibble.
func (code Code) C() uint8 {
	return uint8(code >> 12)
}

// X returns bits 8-11, the first register operand.
func (code Code) X() uint8 {
	return uint8(code>>8) & 0xf
}

// Y returns bits 4-7, the second register operand.
func (code Code) Y() uint8 {
	return uint8(code>>4) & 0xf
}

// D returns bits 0-3, the discriminant nibble.
func (code Code) D() uint8 {
	return uint8(code) & 0xf
}

// NNN returns the low 12 bits, the address immediate.
func (code Code) NNN() uint16 {
	return uint16(code) & 0xfff
}

// NN returns the low 8 bits, the byte immediate.
func (code Code) NN() uint8 {
	return uint8(code)
}

// Decode maps the nibble pattern of the instruction word to its
// operation. Patterns outside the instruction set return ErrOpcode.
func (code Code) Decode() (op Op, err error) {
	c, x, y, d := code.C(), code.X(), code.Y(), code.D()

	switch {
	case c == 0x0 && x == 0x0 && y == 0x0 && d == 0x0:
		op = OP_HALT
	case c == 0x0 && x == 0x0 && y == 0xE && d == 0xE:
		op = OP_RET
	case c == 0x1:
		op = OP_JUMP
	case c == 0x2:
		op = OP_CALL
	case c == 0x3:
		op = OP_SKIP_EQ
	case c == 0x4:
		op = OP_SKIP_NE
	case c == 0x5 && d == 0x0:
		op = OP_SKIP_EQ_REG
	case c == 0x6:
		op = OP_SET
	case c == 0x7:
		op = OP_ADD
	case c == 0x8 && d == 0x0:
		op = OP_SET_REG
	case c == 0x8 && d == 0x1:
		op = OP_OR
	case c == 0x8 && d == 0x2:
		op = OP_AND
	case c == 0x8 && d == 0x3:
		op = OP_XOR
	case c == 0x8 && d == 0x4:
		op = OP_ADD_REG
	case c == 0x8 && d == 0x5:
		op = OP_SUB
	case c == 0x8 && d == 0x6:
		// The y nibble is decoded but unused by the shifts.
		op = OP_SHR
	case c == 0x8 && d == 0x7:
		op = OP_RSUB
	case c == 0x8 && d == 0xE:
		op = OP_SHL
	case c == 0x9 && d == 0x0:
		op = OP_SKIP_NE_REG
	case c == 0xA:
		op = OP_SET_I
	case c == 0xB:
		op = OP_VJUMP
	case c == 0xC:
		op = OP_RAND
	case c == 0xD:
		op = OP_DRAW
	case c == 0xF && y == 0x1 && d == 0xE:
		op = OP_ADD_I
	case c == 0xF && y == 0x3 && d == 0x3:
		op = OP_BCD
	case c == 0xF && y == 0x5 && d == 0x5:
		op = OP_DUMP
	case c == 0xF && y == 0x6 && d == 0x5:
		op = OP_LOAD
	default:
		err = ErrOpcode(code)
	}

	return
}

// String returns the assembly language representation of this instruction.
func (code Code) String() (out string) {
	op, err := code.Decode()
	if err != nil {
		return fmt.Sprintf(".byte 0x%02x 0x%02x", uint8(code>>8), uint8(code))
	}

	switch op {
	case OP_HALT, OP_RET:
		out = op.String()
	case OP_JUMP, OP_VJUMP, OP_CALL:
		out = fmt.Sprintf("%v 0x%03x", op, code.NNN())
	case OP_SET_I:
		out = fmt.Sprintf("%v i 0x%03x", op, code.NNN())
	case OP_ADD_I:
		out = fmt.Sprintf("%v i v%x", op, code.X())
	case OP_SKIP_EQ, OP_SKIP_NE, OP_SET, OP_ADD, OP_RAND:
		out = fmt.Sprintf("%v v%x 0x%02x", op, code.X(), code.NN())
	case OP_SKIP_EQ_REG, OP_SKIP_NE_REG, OP_SET_REG, OP_OR, OP_AND, OP_XOR, OP_ADD_REG, OP_SUB, OP_RSUB:
		out = fmt.Sprintf("%v v%x v%x", op, code.X(), code.Y())
	case OP_SHR, OP_SHL, OP_DUMP, OP_LOAD, OP_BCD:
		out = fmt.Sprintf("%v v%x", op, code.X())
	case OP_DRAW:
		out = fmt.Sprintf("%v v%x v%x %d", op, code.X(), code.Y(), code.D())
	}

	return
}
