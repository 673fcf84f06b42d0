package cpu

// Display geometry.
const (
	DISPLAY_WIDTH  = 64 // Columns of pixels.
	DISPLAY_HEIGHT = 32 // Rows of pixels.
)

// Display is the monochrome pixel buffer, row-major, true for a lit
// pixel. The buffer is owned by the driver; the CPU mutates it only
// during the draw operation.
type Display [DISPLAY_HEIGHT][DISPLAY_WIDTH]bool

// Clear unlights every pixel.
func (disp *Display) Clear() {
	for n := range disp {
		clear(disp[n][:])
	}
}

// Lit counts the lit pixels.
func (disp *Display) Lit() (count int) {
	for n := range disp {
		for _, on := range disp[n] {
			if on {
				count += 1
			}
		}
	}

	return
}
