package emulator

import (
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/internal"
)

const (
	TICKS_PER_FRAME = 10 // Default CPU cycles per rendered frame.
)

var _emulator_defines = map[string]string{
	"TICKS_PER_FRAME": fmt.Sprintf("%v", TICKS_PER_FRAME),
}

// Emulator state. CPU + display buffer + program listing.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Currently loaded program listing, if assembled.
	Rom      []uint8      // Raw ROM image, used when no listing is loaded.
	Seed     int64        // Random seed for the CPU; 0 selects a time-based seed.

	Display cpu.Display // Pixel buffer shared with the renderer.
}

// NewEmulator creates a new emulator with an empty program.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Program: &cpu.Program{},
	}

	// An empty image is valid; construction cannot fail here.
	emu.Cpu, _ = cpu.NewCpu(cpu.Config{})

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// Image returns the program image to execute: the assembled listing when
// one is loaded, the raw ROM otherwise.
func (emu *Emulator) Image() []uint8 {
	if len(emu.Program.Opcodes) != 0 {
		return emu.Program.Binary()
	}

	return emu.Rom
}

// Reset rebuilds the CPU from the program image and clears the display.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu, err = cpu.NewCpu(cpu.Config{
		Program: emu.Image(),
		Seed:    emu.Seed,
	})
	if err != nil {
		return
	}

	emu.Cpu.Verbose = emu.Verbose
	emu.Display.Clear()

	return
}

// LineNo returns the source line of the instruction at an address, or 0
// when the program has no listing for it.
func (emu *Emulator) LineNo(addr uint16) int {
	dbg := emu.Program.Debug(addr)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single cycle of the emulator. done reports the halt
// instruction; fatal faults are wrapped with their source location.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	addr := emu.Cpu.ProgramCounter
	defer func() {
		if err != nil {
			err = &ErrRuntime{Addr: addr, LineNo: emu.LineNo(addr), Err: err}
		}
	}()

	done, err = emu.Cpu.Tick(&emu.Display)

	return
}

// Run executes cycles until the program halts or faults.
func (emu *Emulator) Run() (err error) {
	for done := false; !done; {
		done, err = emu.Tick()
		if err != nil {
			return
		}
	}

	return
}
