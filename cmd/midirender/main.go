// midirender renders a Standard MIDI File to a WAV file offline, using the
// midisynth core's virtual WAV sink (spec.md §4.11) rather than writing to
// disk directly mid-render.

package main

import (
	"flag"
	"log"
	"os"

	midisynth "github.com/retrotone/midisynth"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("midirender: ")

	wavOut := flag.String("wav", "", "output WAV file path")
	sf2Path := flag.String("sf2", "", "optional SoundFont-2 bank; FM synthesis is used if omitted")
	volume := flag.Int("volume", 100, "global volume percent (0..300)")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("Missing MIDI filename")
	}
	if *wavOut == "" {
		log.Fatal("No -wav option provided")
	}

	midiPath := flag.Arg(0)
	midiData, err := os.ReadFile(midiPath)
	if err != nil {
		log.Fatal(err)
	}
	midiInfo, err := os.Stat(midiPath)
	if err != nil {
		log.Fatal(err)
	}

	cfg := midisynth.DefaultConfig()
	var bank *midisynth.Sf2Bank
	if *sf2Path != "" {
		sf2Data, err := os.ReadFile(*sf2Path)
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
	player.SetSourceFingerprint(midiPath, midiInfo.ModTime().UnixNano(), midiInfo.Size())

	const vfName = "render.wav"
	if _, err := player.RenderToVirtualWAV(vfName, *volume); err != nil {
		log.Fatal(err)
	}

	vf := vfs.Open(vfName)
	if vf == nil {
		log.Fatal("internal error: rendered virtual WAV missing")
	}
	if err := os.WriteFile(*wavOut, vf.Bytes(), 0o644); err != nil {
		log.Fatal(err)
	}
}
