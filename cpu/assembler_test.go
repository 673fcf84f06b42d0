package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// assemble parses source text, failing the test on any syntax error.
func assemble(t *testing.T, text string) (prog *Program) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(text))
	assert.NoError(err)

	return
}

func TestAssembler_Empty(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Empty(prog.Opcodes)

	// System equates are always available.
	assert.Equal("200", asm.Equate["PROGRAM_START"])
	assert.Contains(asm.Equate, "MEMORY_LIMIT")
	assert.Contains(asm.Equate, "DISPLAY_WIDTH")
	assert.Contains(asm.Equate, "GLYPH_SIZE")
}

func TestAssembler_Mnemonics(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		line string
		word uint16
	}){
		{"halt", 0x0000},
		{"ret", 0x00EE},
		{"jump 0x234", 0x1234},
		{"call 0x345", 0x2345},
		{"vjump 0x123", 0xB123},
		{"seq v4 0x56", 0x3456},
		{"sne v4 0x56", 0x4456},
		{"seq v6 v7", 0x5670},
		{"sne v6 v7", 0x9670},
		{"set v1 0x09", 0x6109},
		{"set v1 v2", 0x8120},
		{"set i 0x032", 0xA032},
		{"add v1 0x01", 0x7101},
		{"add v1 v2", 0x8124},
		{"add i v2", 0xF21E},
		{"or v1 v2", 0x8121},
		{"and v1 v2", 0x8122},
		{"xor v1 v2", 0x8123},
		{"sub v1 v2", 0x8125},
		{"rsub v1 v2", 0x8127},
		{"shr v1", 0x8106},
		{"shl v1", 0x810E},
		{"dump v3", 0xF355},
		{"load v3", 0xF365},
		{"bcd v2", 0xF233},
		{"rand v0 0x7f", 0xC07F},
		{"draw v0 v1 5", 0xD015},
		{".byte 0x12 0x34", 0x1234},
		{"set v0 'A'", 0x6041},
		{"set v0 ~0x0f", 0x60F0},
		{"set v0 10", 0x600A},
	}

	for _, entry := range table {
		prog := assemble(t, entry.line)
		assert.Len(prog.Opcodes, 1, entry.line)

		op := prog.Opcodes[0]
		assert.Equal(1, op.LineNo, entry.line)
		assert.Equal(PROGRAM_START, op.Addr, entry.line)
		assert.Equal([]Code{Code(entry.word)}, op.Codes, entry.line)
	}
}

func TestAssembler_Addresses(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, "set v0 0x09\nset v1 0x05\nadd v0 v1\nhalt\n")
	assert.Len(prog.Opcodes, 4)

	for n, op := range prog.Opcodes {
		assert.Equal(PROGRAM_START+2*n, op.Addr)
		assert.Equal(n+1, op.LineNo)
	}
}

func TestAssembler_Comments(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, "; leading comment\nhalt ; trailing comment\n\n")
	assert.Len(prog.Opcodes, 1)
	assert.Equal([]Code{Code(0x0000)}, prog.Opcodes[0].Codes)
	assert.Equal(2, prog.Opcodes[0].LineNo)
}

func TestAssembler_ByteOddPad(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, ".byte 1 2 3")
	assert.Equal([]Code{Code(0x0102), Code(0x0300)}, prog.Opcodes[0].Codes)
}

func TestAssembler_Labels(t *testing.T) {
	assert := assert.New(t)

	text := strings.Join([]string{
		"jump start",
		"sprite: .byte 0xff 0xff 0xff",
		"start: set i sprite",
		"halt",
	}, "\n")

	prog := assemble(t, text)
	assert.Len(prog.Opcodes, 4)

	// jump links to the instruction after the padded sprite data.
	assert.Equal([]Code{MakeCodeNNN(0x1, 206)}, prog.Opcodes[0].Codes)
	assert.Equal("start", prog.Opcodes[0].LinkLabel)

	assert.Equal(202, prog.Opcodes[1].Addr)
	assert.Equal([]Code{Code(0xFFFF), Code(0xFF00)}, prog.Opcodes[1].Codes)

	assert.Equal(206, prog.Opcodes[2].Addr)
	assert.Equal([]Code{MakeCodeNNN(0xA, 202)}, prog.Opcodes[2].Codes)

	assert.Equal([]uint8{
		0x10, 0xCE,
		0xFF, 0xFF, 0xFF, 0x00,
		0xA0, 0xCA,
		0x00, 0x00,
	}, prog.Binary())
}

func TestAssembler_LabelMissing(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader("jump nowhere\nhalt\n"))
	assert.Error(err)

	var missing ErrLabelMissing
	assert.ErrorAs(err, &missing)
	assert.Equal("nowhere", string(missing))
}

func TestAssembler_Equates(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, ".equ SPEED 3\nset v0 SPEED\n")
	assert.Equal([]Code{Code(0x6003)}, prog.Opcodes[0].Codes)
	assert.Equal(2, prog.Opcodes[0].LineNo)
}

func TestAssembler_Expressions(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, ".equ SPEED 3\nset v0 $(SPEED*2+1)\n")
	assert.Equal([]Code{Code(0x6007)}, prog.Opcodes[0].Codes)

	// System equates participate in expressions.
	prog = assemble(t, "set i $(FONT_START + 3 * GLYPH_SIZE)\n")
	assert.Equal([]Code{Code(0xA00F)}, prog.Opcodes[0].Codes)

	prog = assemble(t, "set v0 $(LINENO)\n")
	assert.Equal([]Code{Code(0x6001)}, prog.Opcodes[0].Codes)
}

func TestAssembler_Predefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("TICKS", "7")

	prog, err := asm.Parse(strings.NewReader("set v0 TICKS\n"))
	assert.NoError(err)
	assert.Equal([]Code{Code(0x6007)}, prog.Opcodes[0].Codes)
}

func TestAssembler_Macro(t *testing.T) {
	assert := assert.New(t)

	text := strings.Join([]string{
		".macro glyph digit",
		"set i $(FONT_START + digit * GLYPH_SIZE)",
		".endm",
		"glyph 3",
		"halt",
	}, "\n")

	prog := assemble(t, text)
	assert.Len(prog.Opcodes, 2)
	assert.Equal([]Code{Code(0xA00F)}, prog.Opcodes[0].Codes)
	assert.Equal(2, prog.Opcodes[0].LineNo)
	assert.Equal([]Code{Code(0x0000)}, prog.Opcodes[1].Codes)
}

func TestAssembler_Errors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		text string
		want error
	}){
		{"unknown instruction", "bogus v0\n", ErrInstructionInvalid},
		{"missing operand", "set v0\n", ErrOpcodeValueMissing},
		{"extra operand", "halt v0\n", ErrOpcodeExtraArgs},
		{"immediate too large", "set v0 0x100\n", ErrValueRange},
		{"address too large", "jump 0x1000\n", ErrValueRange},
		{"sprite rows too large", "draw v0 v1 16\n", ErrValueRange},
		{"bad register", "shr v$\n", ErrRegisterInvalid},
		{"register as target", "jump v0\n", ErrTargetInvalid},
		{"duplicate label", "x: halt\nx: halt\n", ErrLabelDuplicate},
		{"duplicate equate", ".equ A 1\n.equ A 2\n", ErrEquateDuplicate},
		{"equate syntax", ".equ A\n", ErrEquateSyntax},
		{"lonely endm", ".endm\n", ErrMacroLonelyEndm},
		{"unterminated macro", ".macro m\nhalt\n", ErrMacroLonely},
		{"nested macro", ".macro m\n.macro n\n.endm\n.endm\n", ErrMacroNesting},
		{"duplicate macro", ".macro m\n.endm\n.macro m\n.endm\n", ErrMacroDuplicate},
	}

	for _, entry := range table {
		asm := &Assembler{}
		_, err := asm.Parse(strings.NewReader(entry.text))
		assert.ErrorIs(err, entry.want, entry.name)
	}
}

func TestAssembler_ErrorLineNo(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader("halt\nbogus v0\n"))
	assert.Error(err)

	var syntax *ErrSyntax
	assert.ErrorAs(err, &syntax)
	assert.Equal(2, syntax.LineNo)
	assert.Equal("bogus v0", syntax.Line)
}

func TestAssembler_Reparse(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader("x: jump x\n"))
	assert.NoError(err)
	assert.Equal([]Code{MakeCodeNNN(0x1, PROGRAM_START)}, prog.Opcodes[0].Codes)

	// State from the first parse does not leak into the second.
	prog, err = asm.Parse(strings.NewReader("x: halt\n"))
	assert.NoError(err)
	assert.Len(prog.Opcodes, 1)
	assert.Equal([]Code{Code(0x0000)}, prog.Opcodes[0].Codes)
}
