package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":         "0",
	"MEMORY_LIMIT":   fmt.Sprintf("%#v", MEMORY_LIMIT),
	"PROGRAM_START":  fmt.Sprintf("%#v", PROGRAM_START),
	"STACK_LIMIT":    fmt.Sprintf("%#v", STACK_LIMIT),
	"FONT_START":     fmt.Sprintf("%#v", FONT_START),
	"GLYPH_SIZE":     fmt.Sprintf("%#v", GLYPH_SIZE),
	"DISPLAY_WIDTH":  fmt.Sprintf("%#v", DISPLAY_WIDTH),
	"DISPLAY_HEIGHT": fmt.Sprintf("%#v", DISPLAY_HEIGHT),
}

// Assembler is a single pass macro assembler for the CHIP-8 instruction set.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of jump labels to memory addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// regMap maps register names to register indexes.
var regMap = map[string]uint8{
	"v0": 0x0, "v1": 0x1, "v2": 0x2, "v3": 0x3,
	"v4": 0x4, "v5": 0x5, "v6": 0x6, "v7": 0x7,
	"v8": 0x8, "v9": 0x9, "va": 0xa, "vb": 0xb,
	"vc": 0xc, "vd": 0xd, "ve": 0xe, "vf": 0xf,
}

// valueOf returns the value of a simple word. A '~' prefix inverts at
// sprite-byte width.
func (asm *Assembler) valueOf(word string) (value uint16, err error) {
	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}
	if word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(word[1 : len(word)-1])
		return
	}
	v64, err := strconv.ParseInt(word, 0, 64)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if v64 < 0 {
		v64 = 0x10000 + v64
	}
	if v64 < 0 || v64 > 0xffff {
		err = ErrValueRange
		return
	}
	value = uint16(v64)

	if invert {
		value = ^value & 0xff
	}

	return
}

// registerOf resolves a register name.
func (asm *Assembler) registerOf(word string) (reg uint8, err error) {
	reg, ok := regMap[word]
	if !ok {
		err = ErrRegisterInvalid
	}
	return
}

// addressOf resolves a word to a 12-bit address, or defers it to the
// label link pass.
func (asm *Assembler) addressOf(word string) (nnn uint16, label string, err error) {
	if _, is_reg := regMap[word]; is_reg {
		err = ErrTargetInvalid
		return
	}

	nnn, err = asm.valueOf(word)
	if err == nil {
		if nnn > 0xfff {
			err = ErrValueRange
		}
		return
	}

	// Not a number - link as a label.
	err = nil
	nnn = 0
	label = word

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint16, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value16 uint16
		value16, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(int(value16))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint16(st_int64)
	return
}

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	words = slices.DeleteFunc(strings.Split(line, " "), func(a string) bool { return len(a) == 0 })

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if len(words) > 0 && words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		if len(word) == 0 {
			continue
		}

		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentAddress()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", fmt.Sprintf("%v_%v_", name, lineno))
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, macro.LineNo+n)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddress is the memory address of the next emitted instruction.
func (asm *Assembler) currentAddress() int {
	if len(asm.Opcode) == 0 {
		return PROGRAM_START
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Addr + 2*len(last.Codes)
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		all_words := strings.Split(line, " ")

		var words []string
		for _, single := range all_words {
			if len(single) > 0 {
				words = append(words, single)
			}
		}

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of jump labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		addr, ok := asm.Label[op.LinkLabel]
		if !ok {
			err = ErrLabelMissing(op.LinkLabel)
			return
		}
		linked := &op.Codes[len(op.Codes)-1]
		*linked |= Code(uint16(addr) & 0xfff)
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// aluMap maps the two-register ALU mnemonics to their discriminant nibble.
var aluMap = map[string]uint8{
	"or":   0x1,
	"and":  0x2,
	"xor":  0x3,
	"sub":  0x5,
	"rsub": 0x7,
}

// regOpMap maps the single-register mnemonics to their instruction words.
var regOpMap = map[string]Code{
	"shr":  MakeCode(0x8, 0, 0x0, 0x6),
	"shl":  MakeCode(0x8, 0, 0x0, 0xE),
	"dump": MakeCode(0xF, 0, 0x5, 0x5),
	"load": MakeCode(0xF, 0, 0x6, 0x5),
	"bcd":  MakeCode(0xF, 0, 0x3, 0x3),
}

// jumpMap maps the address mnemonics to their class nibble.
var jumpMap = map[string]uint8{
	"jump":  0x1,
	"call":  0x2,
	"vjump": 0xB,
}

// wantArgs checks the operand count of a mnemonic.
func wantArgs(words []string, count int) (err error) {
	if len(words)-1 < count {
		err = ErrOpcodeValueMissing
	} else if len(words)-1 > count {
		err = ErrOpcodeExtraArgs
	}
	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []Code
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if len(codes) == 0 {
			return
		}
		opcode := Opcode{LineNo: lineno, Addr: asm.currentAddress(), Words: initial_words, Codes: codes, LinkLabel: label}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	switch words[0] {
	case ".byte":
		if len(words) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		var data []uint8
		for _, word := range words[1:] {
			var value uint16
			value, err = asm.valueOf(word)
			if err != nil {
				return
			}
			if value > 0xff {
				err = ErrValueRange
				return
			}
			data = append(data, uint8(value))
		}
		// Pad to the two-byte instruction grid.
		if len(data)%2 != 0 {
			data = append(data, 0)
		}
		for n := 0; n < len(data); n += 2 {
			codes = append(codes, Code(uint16(data[n])<<8|uint16(data[n+1])))
		}
	case "halt":
		err = wantArgs(words, 0)
		if err != nil {
			return
		}
		codes = append(codes, MakeCode(0x0, 0x0, 0x0, 0x0))
	case "ret":
		err = wantArgs(words, 0)
		if err != nil {
			return
		}
		codes = append(codes, MakeCode(0x0, 0x0, 0xE, 0xE))
	case "jump", "call", "vjump":
		err = wantArgs(words, 1)
		if err != nil {
			return
		}
		var nnn uint16
		nnn, label, err = asm.addressOf(words[1])
		if err != nil {
			return
		}
		codes = append(codes, MakeCodeNNN(jumpMap[words[0]], nnn))
	case "seq", "sne":
		err = wantArgs(words, 2)
		if err != nil {
			return
		}
		var x uint8
		x, err = asm.registerOf(words[1])
		if err != nil {
			return
		}
		if y, is_reg := regMap[words[2]]; is_reg {
			c := uint8(0x5)
			if words[0] == "sne" {
				c = 0x9
			}
			codes = append(codes, MakeCode(c, x, y, 0x0))
			return
		}
		var nn uint16
		nn, err = asm.valueOf(words[2])
		if err != nil {
			return
		}
		if nn > 0xff {
			err = ErrValueRange
			return
		}
		c := uint8(0x3)
		if words[0] == "sne" {
			c = 0x4
		}
		codes = append(codes, MakeCodeNN(c, x, uint8(nn)))
	case "set":
		err = wantArgs(words, 2)
		if err != nil {
			return
		}
		if words[1] == "i" {
			var nnn uint16
			nnn, label, err = asm.addressOf(words[2])
			if err != nil {
				return
			}
			codes = append(codes, MakeCodeNNN(0xA, nnn))
			return
		}
		var x uint8
		x, err = asm.registerOf(words[1])
		if err != nil {
			return
		}
		if y, is_reg := regMap[words[2]]; is_reg {
			codes = append(codes, MakeCode(0x8, x, y, 0x0))
			return
		}
		var nn uint16
		nn, err = asm.valueOf(words[2])
		if err != nil {
			return
		}
		if nn > 0xff {
			err = ErrValueRange
			return
		}
		codes = append(codes, MakeCodeNN(0x6, x, uint8(nn)))
	case "add":
		err = wantArgs(words, 2)
		if err != nil {
			return
		}
		if words[1] == "i" {
			var x uint8
			x, err = asm.registerOf(words[2])
			if err != nil {
				return
			}
			codes = append(codes, MakeCode(0xF, x, 0x1, 0xE))
			return
		}
		var x uint8
		x, err = asm.registerOf(words[1])
		if err != nil {
			return
		}
		if y, is_reg := regMap[words[2]]; is_reg {
			codes = append(codes, MakeCode(0x8, x, y, 0x4))
			return
		}
		var nn uint16
		nn, err = asm.valueOf(words[2])
		if err != nil {
			return
		}
		if nn > 0xff {
			err = ErrValueRange
			return
		}
		codes = append(codes, MakeCodeNN(0x7, x, uint8(nn)))
	case "or", "and", "xor", "sub", "rsub":
		err = wantArgs(words, 2)
		if err != nil {
			return
		}
		var x, y uint8
		x, err = asm.registerOf(words[1])
		if err != nil {
			return
		}
		y, err = asm.registerOf(words[2])
		if err != nil {
			return
		}
		codes = append(codes, MakeCode(0x8, x, y, aluMap[words[0]]))
	case "shr", "shl", "dump", "load", "bcd":
		err = wantArgs(words, 1)
		if err != nil {
			return
		}
		var x uint8
		x, err = asm.registerOf(words[1])
		if err != nil {
			return
		}
		codes = append(codes, regOpMap[words[0]]|Code(uint16(x)<<8))
	case "rand":
		err = wantArgs(words, 2)
		if err != nil {
			return
		}
		var x uint8
		x, err = asm.registerOf(words[1])
		if err != nil {
			return
		}
		var nn uint16
		nn, err = asm.valueOf(words[2])
		if err != nil {
			return
		}
		if nn > 0xff {
			err = ErrValueRange
			return
		}
		codes = append(codes, MakeCodeNN(0xC, x, uint8(nn)))
	case "draw":
		err = wantArgs(words, 3)
		if err != nil {
			return
		}
		var x, y uint8
		x, err = asm.registerOf(words[1])
		if err != nil {
			return
		}
		y, err = asm.registerOf(words[2])
		if err != nil {
			return
		}
		var d uint16
		d, err = asm.valueOf(words[3])
		if err != nil {
			return
		}
		if d > 0xf {
			err = ErrValueRange
			return
		}
		codes = append(codes, MakeCode(0xD, x, y, uint8(d)))
	default:
		err = ErrInstructionInvalid
		return
	}

	return
}
