// Package rom loads and saves CHIP-8 ROM images.
package rom

import (
	"errors"
	"os"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	ErrRomEmpty    = errors.New(f("rom file is empty"))
	ErrRomTooLarge = errors.New(f("rom image exceeds program space"))
)

// LIMIT is the largest ROM image that fits in program space.
const LIMIT = cpu.MEMORY_LIMIT - cpu.PROGRAM_START

// Load reads a ROM image, rejecting empty or oversized files.
func Load(path string) (data []uint8, err error) {
	data, err = os.ReadFile(path)
	if err != nil {
		return
	}

	if len(data) == 0 {
		data, err = nil, ErrRomEmpty
		return
	}
	if len(data) > LIMIT {
		data, err = nil, ErrRomTooLarge
		return
	}

	return
}

// Save writes a ROM image.
func Save(path string, data []uint8) (err error) {
	if len(data) > LIMIT {
		err = ErrRomTooLarge
		return
	}

	err = os.WriteFile(path, data, 0o644)

	return
}
