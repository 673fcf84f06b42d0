package cpu

const (
	FONT_START = 0x000 // First address of the glyph table.
	GLYPH_SIZE = 5     // Bytes (rows) per hexadecimal digit glyph.
)

// GlyphAddress returns the memory address of a hexadecimal digit's glyph.
func GlyphAddress(digit uint8) uint16 {
	return FONT_START + uint16(digit&0xf)*GLYPH_SIZE
}

// font holds the fixed 8x5 bitmap glyph of each hexadecimal digit,
// installed at FONT_START on construction. One byte per row, the most
// significant bit is the leftmost column.
var font = [16 * GLYPH_SIZE]uint8{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}
