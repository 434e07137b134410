package midisynth

import "testing"

func TestMidiEventStringFormatsEachKind(t *testing.T) {
	cases := []struct {
		ev   MidiEvent
		want string
	}{
		{MidiEvent{Kind: EventNoteOn, Channel: 1, Note: 60, Vel: 100}, "NoteOn(ch=1 note=60 vel=100)"},
		{MidiEvent{Kind: EventNoteOff, Channel: 1, Note: 60, Vel: 0}, "NoteOff(ch=1 note=60 vel=0)"},
		{MidiEvent{Kind: EventControl, Channel: 0, CC: 7, Value: 90}, "Control(ch=0 cc=7 val=90)"},
		{MidiEvent{Kind: EventProgram, Channel: 2, Value: 40}, "Program(ch=2 prog=40)"},
		{MidiEvent{Kind: EventPitchBend, Channel: 0, Bend: -8192}, "PitchBend(ch=0 val=-8192)"},
	}

	for _, c := range cases {
		if got := c.ev.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}
