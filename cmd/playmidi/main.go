package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	midisynth "github.com/retrotone/midisynth"
)

var (
	flagHz    = flag.Int("hz", 44100, "output hz")
	flagVol   = flag.Int("volume", 100, "global volume percent")
	flagSf2   = flag.String("sf2", "", "optional SoundFont-2 bank; FM synthesis is used if omitted")
	flagNoUI  = flag.Bool("noui", false, "disable the live channel readout")
)

const (
	escape     = "\x1b["
	hideCursor = escape + "?25l"
	showCursor = escape + "?25h"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("playmidi: ")
	flag.Parse()

	if len(flag.Args()) == 0 {
		log.Fatal("Missing MIDI filename")
	}

	midiData, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	cfg := midisynth.DefaultConfig()
	cfg.OutputSampleRate = *flagHz
	cfg.GlobalVolumePercent = *flagVol

	var bank *midisynth.Sf2Bank
	if *flagSf2 != "" {
		sf2Data, err := os.ReadFile(*flagSf2)
		if err != nil {
			log.Fatal(err)
		}
		bank, err = midisynth.LoadSF2(sf2Data)
		if err != nil {
			log.Fatal(err)
		}
		cfg.FMOrSample = midisynth.EngineSelectSampleThenFMFallback
		cfg.VoicePoolSize = 32
	}

	vfs := midisynth.NewVirtualFileSystem()
	player := midisynth.NewPlayer(cfg, vfs)
	if err := player.LoadMIDISource(midiData, bank); err != nil {
		log.Fatal(err)
	}

	ap := NewAudioPlayer(player, *flagNoUI)

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT)
	go func() {
		<-sigch
		ap.Stop()
		fmt.Print(showCursor)
		os.Exit(0)
	}()

	if err := player.Play(); err != nil {
		log.Fatal(err)
	}

	if err := ap.Run(); err != nil {
		log.Fatal(err)
	}
}
