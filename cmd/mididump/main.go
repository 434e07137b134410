package main

import (
	"fmt"
	"log"
	"os"

	midisynth "github.com/retrotone/midisynth"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("mididump: ")

	if len(os.Args) <= 1 {
		log.Fatal("Missing MIDI filename")
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}

	score, err := midisynth.LoadMIDI(data)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("format=%d ticksPerQtr=%d tracks=%d tempo=%dus/qtr\n",
		score.Format, score.TicksPerQtr, len(score.Tracks), score.TempoUsPerQtr)

	for t := 0; t < len(score.Tracks); t++ {
		fmt.Printf("-- track %d --\n", t)
		n := score.TrackEventCount(t)
		tick := int64(0)
		for i := 0; i < n; i++ {
			ev, delta, _ := score.TrackEventAt(t, i)
			tick += int64(delta)
			fmt.Printf("%8d  %s\n", tick, ev)
		}
	}
}
