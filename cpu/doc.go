// Package cpu implements the CHIP-8 processor core and assembler.
//
// The CPU consists of a program counter, sixteen 8-bit general-purpose
// registers (v0-vf, with vf doubling as the carry/borrow/collision flag),
// a 4096-byte memory with the hexadecimal glyph table installed at the
// bottom, a 16-deep subroutine stack, and a 16-bit address register (I)
// for indirect access. A single Tick performs one fetch-decode-execute
// cycle against the caller's display buffer.
//
// The assembler provides a small assembly language for the CHIP-8
// instruction set, supporting macros, labels, equates, sprite data
// directives, and compile-time expression evaluation.
package cpu
