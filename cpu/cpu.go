package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"math/rand"
	"time"
)

// Memory map constants.
const (
	MEMORY_LIMIT   = 4096                // Addressable memory, in bytes.
	ADDRESS_MASK   = MEMORY_LIMIT - 1    // Addresses are 12 bits wide.
	PROGRAM_START  = 200                 // First address of the program image.
	REGISTER_LIMIT = 16                  // Number of general-purpose registers.
	FLAG_REGISTER  = REGISTER_LIMIT - 1  // Carry/borrow/collision flag register index.
)

var _cpu_defines = map[string]string{
	"MEMORY_LIMIT":   fmt.Sprintf("%v", MEMORY_LIMIT),
	"PROGRAM_START":  fmt.Sprintf("%v", PROGRAM_START),
	"STACK_LIMIT":    fmt.Sprintf("%v", STACK_LIMIT),
	"FONT_START":     fmt.Sprintf("%v", FONT_START),
	"GLYPH_SIZE":     fmt.Sprintf("%v", GLYPH_SIZE),
	"DISPLAY_WIDTH":  fmt.Sprintf("%v", DISPLAY_WIDTH),
	"DISPLAY_HEIGHT": fmt.Sprintf("%v", DISPLAY_HEIGHT),
}

// Cpu is the CHIP-8 processor state.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	ProgramCounter uint16                // Current program counter.
	Register       [REGISTER_LIMIT]uint8 // Register bank.
	Memory         [MEMORY_LIMIT]uint8   // Addressable memory.
	Stack          Stack                 // Subroutine return stack.
	I              uint16                // Indirect address register.

	Ticks int // CPU ticks counter.

	rand *rand.Rand // Random source for the rand opcode.
}

// Config selects the optional pieces of the initial CPU state.
type Config struct {
	Registers []uint8 // Initial register bank; nil for all-zero, else exactly 16 bytes.
	Program   []uint8 // Program image, installed at PROGRAM_START.
	Seed      int64   // Seed for the rand opcode; 0 selects a time-based seed.
}

// NewCpu creates a CPU from an optional register bank and program image.
// The hexadecimal glyph table is always installed at FONT_START, and the
// program counter begins at PROGRAM_START.
func NewCpu(config Config) (cpu *Cpu, err error) {
	if len(config.Registers) != 0 && len(config.Registers) != REGISTER_LIMIT {
		err = ErrRegisterInvalid
		return
	}
	if len(config.Program) > MEMORY_LIMIT-PROGRAM_START {
		err = ErrProgramTooLarge
		return
	}

	seed := config.Seed
	if seed == 0 {
		seed = int64(time.Now().Nanosecond())
	}

	cpu = &Cpu{
		ProgramCounter: PROGRAM_START,
		rand:           rand.New(rand.NewSource(seed)),
	}
	copy(cpu.Register[:], config.Registers)
	copy(cpu.Memory[FONT_START:], font[:])
	copy(cpu.Memory[PROGRAM_START:], config.Program)

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Registers returns the value of a single register. Indexes outside 0-15
// are a caller contract violation and panic.
func (cpu *Cpu) Registers(index int) uint8 {
	return cpu.Register[index]
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text = fmt.Sprintf("   pc: %03x\n    i: %03x\nstack: %v\n",
		cpu.ProgramCounter, cpu.I, cpu.Stack.Data)
	for n, val := range cpu.Register {
		text += fmt.Sprintf("   v%x: %02x\n", n, val)
	}

	return
}

// Tick executes a single fetch-decode-execute cycle against the caller's
// display buffer. done reports the halt instruction; fatal stack and
// decode faults are returned as errors, distinct from done.
func (cpu *Cpu) Tick(display *Display) (done bool, err error) {
	code := cpu.fetch()

	done, err = cpu.Execute(code, display)
	if err != nil {
		return
	}

	cpu.Ticks += 1

	return
}

// fetch reads the two bytes at the program counter, concatenated
// big-endian, and advances the program counter past them.
func (cpu *Cpu) fetch() (code Code) {
	hi := cpu.Memory[cpu.ProgramCounter&ADDRESS_MASK]
	lo := cpu.Memory[(cpu.ProgramCounter+1)&ADDRESS_MASK]
	cpu.ProgramCounter += 2

	return Code(uint16(hi)<<8 | uint16(lo))
}

// Execute executes a single decoded instruction. The program counter has
// already advanced past it, so skips and calls are relative to the
// following instruction.
func (cpu *Cpu) Execute(code Code, display *Display) (done bool, err error) {
	op, err := code.Decode()
	if err != nil {
		return
	}

	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()

	if cpu.Verbose {
		log.Printf("%03x: %v", cpu.ProgramCounter-2, code)
	}

	x, y, d := code.X(), code.Y(), code.D()
	nnn, nn := code.NNN(), code.NN()

	switch op {
	case OP_HALT:
		done = true
	case OP_RET:
		err = cpu.ret()
	case OP_JUMP:
		cpu.ProgramCounter = nnn
	case OP_VJUMP:
		cpu.ProgramCounter = uint16(cpu.Register[0]) + nnn
	case OP_CALL:
		err = cpu.call(nnn)
	case OP_SKIP_EQ:
		cpu.skipIf(cpu.Register[x] == nn)
	case OP_SKIP_NE:
		cpu.skipIf(cpu.Register[x] != nn)
	case OP_SKIP_EQ_REG:
		cpu.skipIf(cpu.Register[x] == cpu.Register[y])
	case OP_SKIP_NE_REG:
		cpu.skipIf(cpu.Register[x] != cpu.Register[y])
	case OP_SET:
		cpu.Register[x] = nn
	case OP_ADD:
		// Plain immediate add does not touch the flag register.
		cpu.Register[x] += nn
	case OP_SET_REG:
		cpu.Register[x] = cpu.Register[y]
	case OP_OR:
		cpu.Register[x] |= cpu.Register[y]
	case OP_AND:
		cpu.Register[x] &= cpu.Register[y]
	case OP_XOR:
		cpu.Register[x] ^= cpu.Register[y]
	case OP_ADD_REG:
		cpu.addXY(x, y)
	case OP_SUB:
		cpu.subXY(x, y)
	case OP_RSUB:
		cpu.subYX(x, y)
	case OP_SHR:
		cpu.shiftRight(x)
	case OP_SHL:
		cpu.shiftLeft(x)
	case OP_RAND:
		// Quirk preserved from the reference machine: the destination is
		// always v0, not vX.
		cpu.Register[0] = nn & uint8(cpu.rand.Intn(256))
	case OP_SET_I:
		cpu.I = nnn
	case OP_ADD_I:
		cpu.I += uint16(cpu.Register[x])
	case OP_DUMP:
		cpu.dump(x)
	case OP_LOAD:
		cpu.load(x)
	case OP_BCD:
		cpu.bcd(x)
	case OP_DRAW:
		cpu.draw(display, x, y, d)
	}

	return
}

// call pushes the current program counter and jumps to addr.
func (cpu *Cpu) call(addr uint16) (err error) {
	if cpu.Stack.Full() {
		err = ErrStackFull
		return
	}

	cpu.Stack.Push(cpu.ProgramCounter)
	cpu.ProgramCounter = addr

	return
}

// ret restores the program counter pushed by the matching call.
func (cpu *Cpu) ret() (err error) {
	addr, ok := cpu.Stack.Pop()
	if !ok {
		err = ErrStackEmpty
		return
	}

	cpu.ProgramCounter = addr

	return
}

// skipIf advances the program counter past the next instruction when the
// condition holds.
func (cpu *Cpu) skipIf(cond bool) {
	if cond {
		cpu.ProgramCounter += 2
	}
}

// addXY adds vY into vX, recording 8-bit overflow in the flag register.
func (cpu *Cpu) addXY(x, y uint8) {
	sum := uint16(cpu.Register[x]) + uint16(cpu.Register[y])

	cpu.Register[x] = uint8(sum)
	cpu.Register[FLAG_REGISTER] = uint8(sum >> 8)
}

// subXY subtracts vY from vX. The flag register is set to 1 when no
// borrow occurred, the inverse of the addition overflow polarity.
func (cpu *Cpu) subXY(x, y uint8) {
	a, b := cpu.Register[x], cpu.Register[y]

	cpu.Register[x] = a - b
	flag := uint8(0)
	if a >= b {
		flag = 1
	}
	cpu.Register[FLAG_REGISTER] = flag
}

// subYX stores vY - vX into vX, with the same flag polarity as subXY.
func (cpu *Cpu) subYX(x, y uint8) {
	a, b := cpu.Register[y], cpu.Register[x]

	cpu.Register[x] = a - b
	flag := uint8(0)
	if a >= b {
		flag = 1
	}
	cpu.Register[FLAG_REGISTER] = flag
}

// shiftRight halves vX, capturing the ejected low bit in the flag register.
func (cpu *Cpu) shiftRight(x uint8) {
	val := cpu.Register[x]

	cpu.Register[x] = val >> 1
	cpu.Register[FLAG_REGISTER] = val & 1
}

// shiftLeft doubles vX, capturing the ejected high bit in the flag register.
func (cpu *Cpu) shiftLeft(x uint8) {
	val := cpu.Register[x]

	cpu.Register[x] = val << 1
	cpu.Register[FLAG_REGISTER] = val >> 7
}

// dump copies v0 through vX inclusive into memory starting at I.
func (cpu *Cpu) dump(x uint8) {
	for n := uint16(0); n <= uint16(x); n++ {
		cpu.Memory[(cpu.I+n)&ADDRESS_MASK] = cpu.Register[n]
	}
}

// load copies memory starting at I into v0 through vX inclusive.
func (cpu *Cpu) load(x uint8) {
	for n := uint16(0); n <= uint16(x); n++ {
		cpu.Register[n] = cpu.Memory[(cpu.I+n)&ADDRESS_MASK]
	}
}

// bcd stores the decimal digits of vX at I, I+1, and I+2.
func (cpu *Cpu) bcd(x uint8) {
	val := cpu.Register[x]

	cpu.Memory[(cpu.I+0)&ADDRESS_MASK] = val / 100
	cpu.Memory[(cpu.I+1)&ADDRESS_MASK] = (val / 10) % 10
	cpu.Memory[(cpu.I+2)&ADDRESS_MASK] = val % 10
}

// draw XORs a d-row sprite read from memory at I onto the display, with
// its top-left corner at column vX, row vY. Coordinates wrap modulo the
// display size. The flag register records whether any pixel transitioned
// from lit to unlit. I is not modified.
func (cpu *Cpu) draw(display *Display, x, y, d uint8) {
	col := int(cpu.Register[x])
	row := int(cpu.Register[y])

	collision := uint8(0)
	for n := range int(d) {
		sprite := cpu.Memory[(cpu.I+uint16(n))&ADDRESS_MASK]
		for bit := range 8 {
			if (sprite & (0x80 >> bit)) == 0 {
				continue
			}
			pixel := &display[(row+n)%DISPLAY_HEIGHT][(col+bit)%DISPLAY_WIDTH]
			if *pixel {
				collision = 1
			}
			*pixel = !*pixel
		}
	}

	cpu.Register[FLAG_REGISTER] = collision
}
