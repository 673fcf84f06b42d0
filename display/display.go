// Package display renders the emulator's pixel buffer on a terminal,
// painting lit pixels as green blocks on black inside a box frame.
package display

import (
	"github.com/gdamore/tcell"

	"github.com/ezrec/chip8/cpu"
)

// Pixel grid offset inside the box frame.
const (
	originX = 1
	originY = 1
)

// TextUI paints the 64x32 monochrome buffer on a tcell screen.
type TextUI struct {
	Screen tcell.Screen // Target screen; nil selects the default terminal.
}

// Init prepares the screen and draws the frame around the pixel grid.
func (ui *TextUI) Init() (err error) {
	if ui.Screen == nil {
		ui.Screen, err = tcell.NewScreen()
		if err != nil {
			return
		}
	}

	err = ui.Screen.Init()
	if err != nil {
		return
	}

	ui.frame()

	return
}

// Close restores the terminal.
func (ui *TextUI) Close() {
	ui.Screen.Fini()
}

// frame draws the box surrounding the pixel grid.
func (ui *TextUI) frame() {
	s := ui.Screen
	style := tcell.StyleDefault.Foreground(tcell.ColorGray)
	w, h := cpu.DISPLAY_WIDTH+1, cpu.DISPLAY_HEIGHT+1

	// corners
	s.SetContent(0, 0, tcell.RuneULCorner, nil, style)
	s.SetContent(w, 0, tcell.RuneURCorner, nil, style)
	s.SetContent(0, h, tcell.RuneLLCorner, nil, style)
	s.SetContent(w, h, tcell.RuneLRCorner, nil, style)
	// top/bottom
	for col := 1; col < w; col++ {
		s.SetContent(col, 0, tcell.RuneHLine, nil, style)
		s.SetContent(col, h, tcell.RuneHLine, nil, style)
	}
	// left/right
	for row := 1; row < h; row++ {
		s.SetContent(0, row, tcell.RuneVLine, nil, style)
		s.SetContent(w, row, tcell.RuneVLine, nil, style)
	}
}

// Render repaints the pixel grid and flushes the screen.
func (ui *TextUI) Render(disp *cpu.Display) {
	lit := tcell.StyleDefault.Foreground(tcell.ColorGreen).Background(tcell.ColorBlack)
	dark := tcell.StyleDefault.Background(tcell.ColorBlack)

	for row := range disp {
		for col, on := range disp[row] {
			ch, style := ' ', dark
			if on {
				ch, style = tcell.RuneBlock, lit
			}
			ui.Screen.SetContent(originX+col, originY+row, ch, nil, style)
		}
	}

	ui.Screen.Show()
}

// Watch starts event handling, reporting a quit request (escape or
// Ctrl-C) by closing the returned channel.
func (ui *TextUI) Watch() (quit chan struct{}) {
	quit = make(chan struct{})

	go func() {
		for {
			ev := ui.Screen.PollEvent()
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
					close(quit)
					return
				}
			case *tcell.EventResize:
				ui.Screen.Sync()
			case nil:
				// Screen finalized.
				return
			}
		}
	}()

	return
}
