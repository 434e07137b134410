package midisynth

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// buildTestSMF assembles a minimal format-1 Standard MIDI File with a
// single track: NoteOn ch0 note60 vel100, 96 ticks later a NoteOff, then
// End-of-Track. ticksPerQtr is fixed at 96.
func buildTestSMF(t *testing.T) []byte {
	t.Helper()

	track := []byte{
		0x00, 0x90, 0x3C, 0x64, // delta 0, NoteOn ch0 note60 vel100
		0x60, 0x80, 0x3C, 0x00, // delta 96, NoteOff ch0 note60
		0x00, 0xFF, 0x2F, 0x00, // delta 0, Meta End-of-Track
	}

	var buf bytes.Buffer
	buf.WriteString("MThd")
	binary.Write(&buf, binary.BigEndian, uint32(6))
	binary.Write(&buf, binary.BigEndian, uint16(1))  // format 1
	binary.Write(&buf, binary.BigEndian, uint16(1))  // 1 track
	binary.Write(&buf, binary.BigEndian, uint16(96)) // ticks per quarter

	buf.WriteString("MTrk")
	binary.Write(&buf, binary.BigEndian, uint32(len(track)))
	buf.Write(track)

	return buf.Bytes()
}

func TestLoadMIDIBasic(t *testing.T) {
	score, err := LoadMIDI(buildTestSMF(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if score.Format != 1 {
		t.Errorf("expected format 1, got %d", score.Format)
	}
	if score.TicksPerQtr != 96 {
		t.Errorf("expected ticksPerQtr 96, got %d", score.TicksPerQtr)
	}
	if len(score.Tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(score.Tracks))
	}
	if score.TrackEventCount(0) != 3 {
		t.Fatalf("expected 3 decoded events, got %d", score.TrackEventCount(0))
	}

	ev, delta, ok := score.TrackEventAt(0, 0)
	if !ok || ev.Kind != EventNoteOn || ev.Note != 60 || ev.Vel != 100 || delta != 0 {
		t.Errorf("event 0 = %+v delta=%d ok=%v, want NoteOn note=60 vel=100 delta=0", ev, delta, ok)
	}

	ev, delta, ok = score.TrackEventAt(0, 1)
	if !ok || ev.Kind != EventNoteOff || ev.Note != 60 || delta != 96 {
		t.Errorf("event 1 = %+v delta=%d ok=%v, want NoteOff note=60 delta=96", ev, delta, ok)
	}

	ev, _, ok = score.TrackEventAt(0, 2)
	if !ok || ev.Kind != EventMeta || ev.MetaType != metaEndOfTrack {
		t.Errorf("event 2 = %+v ok=%v, want Meta End-of-Track", ev, ok)
	}
}

func TestLoadMIDINoteOnVelocityZeroIsNoteOff(t *testing.T) {
	track := []byte{
		0x00, 0x90, 0x3C, 0x64, // NoteOn note60 vel100
		0x00, 0x3C, 0x00, // running status NoteOn, note60 vel0 -> NoteOff
		0x00, 0xFF, 0x2F, 0x00,
	}
	var buf bytes.Buffer
	buf.WriteString("MThd")
	binary.Write(&buf, binary.BigEndian, uint32(6))
	binary.Write(&buf, binary.BigEndian, uint16(0))
	binary.Write(&buf, binary.BigEndian, uint16(1))
	binary.Write(&buf, binary.BigEndian, uint16(96))
	buf.WriteString("MTrk")
	binary.Write(&buf, binary.BigEndian, uint32(len(track)))
	buf.Write(track)

	score, err := LoadMIDI(buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ev, _, ok := score.TrackEventAt(0, 1)
	if !ok || ev.Kind != EventNoteOff {
		t.Errorf("expected NoteOn velocity 0 to decode as NoteOff, got %+v", ev)
	}
}

func TestLoadMIDIRejectsFormat2(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("MThd")
	binary.Write(&buf, binary.BigEndian, uint32(6))
	binary.Write(&buf, binary.BigEndian, uint16(2))
	binary.Write(&buf, binary.BigEndian, uint16(1))
	binary.Write(&buf, binary.BigEndian, uint16(96))

	_, err := LoadMIDI(buf.Bytes())
	var perr *Error
	if !errors.As(err, &perr) || perr.Kind != KindUnsupportedFeature {
		t.Fatalf("expected KindUnsupportedFeature, got %v", err)
	}
}

func TestLoadMIDIRejectsSMPTEDivision(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("MThd")
	binary.Write(&buf, binary.BigEndian, uint32(6))
	binary.Write(&buf, binary.BigEndian, uint16(1))
	binary.Write(&buf, binary.BigEndian, uint16(1))
	binary.Write(&buf, binary.BigEndian, uint16(0x8000)) // SMPTE bit set

	_, err := LoadMIDI(buf.Bytes())
	var perr *Error
	if !errors.As(err, &perr) || perr.Kind != KindUnsupportedFeature {
		t.Fatalf("expected KindUnsupportedFeature, got %v", err)
	}
}

func TestLoadMIDIRejectsBadHeader(t *testing.T) {
	if _, err := LoadMIDI([]byte("not a midi file at all")); err == nil {
		t.Error("expected an error loading a non-MThd file")
	}
}
