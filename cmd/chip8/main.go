package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/rom"
)

func main() {
	var compile string
	var load string
	var save string
	var headless bool
	var seed int64
	var ticks int
	var verbose bool

	flag.StringVar(&compile, "c", "", ".c8 assembly file to compile")
	flag.StringVar(&load, "r", "", "rom image to run")
	flag.StringVar(&save, "o", "", "save the compiled rom image, do not execute")
	flag.BoolVar(&headless, "H", false, "run without a display, until halt")
	flag.Int64Var(&seed, "seed", 0, "random seed (0 for time-based)")
	flag.IntVar(&ticks, "n", emulator.TICKS_PER_FRAME, "cpu cycles per frame")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.Seed = seed

	// Compile a new instruction stream.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &cpu.Assembler{}
		for key, value := range emu.Defines() {
			asm.Predefine(key, value)
		}
		emu.Program, err = asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	}

	if len(load) != 0 {
		var err error
		emu.Rom, err = rom.Load(load)
		if err != nil {
			log.Fatalf("%v: %v", load, err)
		}
	}

	if len(save) != 0 {
		err := rom.Save(save, emu.Image())
		if err != nil {
			log.Fatalf("%v: %v", save, err)
		}
		return
	}

	err := emu.Reset()
	if err != nil {
		log.Fatal(err)
	}

	if headless {
		err = emu.Run()
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	ui := &display.TextUI{}
	err = ui.Init()
	if err != nil {
		log.Fatal(err)
	}
	defer ui.Close()

	quit := ui.Watch()
	frame := time.NewTicker(time.Second / 60)
	defer frame.Stop()

	for {
		select {
		case <-quit:
			return
		case <-frame.C:
			for range ticks {
				var done bool
				done, err = emu.Tick()
				if err != nil {
					ui.Close()
					log.Fatal(err)
				}
				if done {
					// Leave the final frame up until the user quits.
					ui.Render(&emu.Display)
					<-quit
					return
				}
			}
			ui.Render(&emu.Display)
		}
	}
}
