package midisynth

import (
	"bytes"
	"fmt"
)

// noteKeyOff and other sentinels used by the MOD/S3M ancestor have no
// equivalent here: MIDI already encodes note-off as its own status byte or
// as a Note-On with velocity 0 (spec.md §4.5).

// TrackCursor is a scheduler-ready cursor over one MTrk's decoded events
// (spec.md §3). Events are parsed eagerly at load time into evs, mirroring
// the teacher's eager pattern-list decode in mod.go/s3m.go rather than
// re-scanning raw track bytes once per tick.
type TrackCursor struct {
	evs    []trackEvent
	pos    int    // index of the next undispatched event in evs
	delay  uint32 // ticks until evs[pos] fires
	status byte   // running status, reset at track start
	done   bool   // true once meta End-of-Track has been dispatched
}

type trackEvent struct {
	delta uint32 // ticks since the previous event on this track
	ev    MidiEvent
}

// MidiScore is the scheduler-ready representation produced by the loader
// (spec.md §3).
type MidiScore struct {
	Format         int
	TicksPerQtr    int
	Tracks         []TrackCursor
	TempoUsPerQtr  int // initial tempo at load time; tempo changes during playback are tracked by the Scheduler, not written here
	LoopStartTick  int64
	LoopEndTick    int64
	HasLoopStart   bool
	HasLoopEnd     bool
}

const defaultTempoUsPerQtr = 500000 // 120 BPM

// LoadMIDI parses a Standard MIDI File per spec.md §4.3/§6.
func LoadMIDI(data []byte) (*MidiScore, error) {
	r := bytes.NewReader(data)

	tag, err := readRIFFBigEndianTag(r)
	if err != nil {
		return nil, newErr(KindParseError, "LoadMIDI", err)
	}
	if tag != "MThd" {
		return nil, newErr(KindParseError, "LoadMIDI", errBadMThd)
	}
	hdrLen, err := be32(r)
	if err != nil {
		return nil, newErr(KindParseError, "LoadMIDI", err)
	}
	if hdrLen != 6 {
		return nil, newErr(KindParseError, "LoadMIDI", fmt.Errorf("%w: MThd length %d != 6", errBadMThd, hdrLen))
	}
	format, err := be16(r)
	if err != nil {
		return nil, newErr(KindParseError, "LoadMIDI", err)
	}
	if format == 2 {
		return nil, newErr(KindUnsupportedFeature, "LoadMIDI", errFormat2Unsup)
	}
	numTracks, err := be16(r)
	if err != nil {
		return nil, newErr(KindParseError, "LoadMIDI", err)
	}
	division, err := be16(r)
	if err != nil {
		return nil, newErr(KindParseError, "LoadMIDI", err)
	}
	if division&0x8000 != 0 {
		return nil, newErr(KindUnsupportedFeature, "LoadMIDI", errSMPTEUnsupported)
	}

	score := &MidiScore{
		Format:        int(format),
		TicksPerQtr:   int(division),
		TempoUsPerQtr: defaultTempoUsPerQtr,
		Tracks:        make([]TrackCursor, 0, numTracks),
	}

	for i := 0; i < int(numTracks); i++ {
		tag, err := readRIFFBigEndianTag(r)
		if err != nil {
			return nil, newErr(KindParseError, "LoadMIDI", fmt.Errorf("track %d: %w", i, err))
		}
		if tag != "MTrk" {
			return nil, newErr(KindParseError, "LoadMIDI", fmt.Errorf("track %d: expected MTrk, got %q", i, tag))
		}
		chunkLen, err := be32(r)
		if err != nil {
			return nil, newErr(KindParseError, "LoadMIDI", err)
		}
		trackBytes := make([]byte, chunkLen)
		if n, err := r.Read(trackBytes); n != int(chunkLen) || err != nil {
			return nil, newErr(KindParseError, "LoadMIDI", fmt.Errorf("%w: track %d body", errTruncated, i))
		}

		cursor, err := parseTrack(trackBytes)
		if err != nil {
			return nil, newErr(KindParseError, "LoadMIDI", fmt.Errorf("track %d: %w", i, err))
		}
		score.Tracks = append(score.Tracks, cursor)
	}

	return score, nil
}

// TrackEventCount returns the number of decoded events on trackIdx, for
// callers that want to page through NoteDataFor/TrackEventAt without
// holding a reference to the unexported event list.
func (s *MidiScore) TrackEventCount(trackIdx int) int {
	if trackIdx < 0 || trackIdx >= len(s.Tracks) {
		return 0
	}
	return len(s.Tracks[trackIdx].evs)
}

// TrackEventAt returns the i'th decoded event of trackIdx along with its
// delta-time in ticks since the previous event on that track.
func (s *MidiScore) TrackEventAt(trackIdx, i int) (MidiEvent, uint32, bool) {
	if trackIdx < 0 || trackIdx >= len(s.Tracks) {
		return MidiEvent{}, 0, false
	}
	evs := s.Tracks[trackIdx].evs
	if i < 0 || i >= len(evs) {
		return MidiEvent{}, 0, false
	}
	return evs[i].ev, evs[i].delta, true
}

// readRIFFBigEndianTag reads a 4-byte tag without interpreting it as a RIFF
// little-endian chunk header, since SMF chunk sizes are big-endian.
func readRIFFBigEndianTag(r *bytes.Reader) (string, error) {
	var tag [4]byte
	if n, err := r.Read(tag[:]); n != 4 || err != nil {
		return "", fmt.Errorf("%w: reading chunk tag", errTruncated)
	}
	return string(tag[:]), nil
}

// parseTrack decodes every delta/event pair in one MTrk body into a
// TrackCursor. Running status is reset at track start and updated on every
// status byte >= 0x80 (spec.md §4.3).
func parseTrack(body []byte) (TrackCursor, error) {
	r := bytes.NewReader(body)
	var tc TrackCursor

	for r.Len() > 0 {
		delta, err := readVLQ(r)
		if err != nil {
			return tc, err
		}

		ev, err := readTrackEvent(r, &tc.status)
		if err != nil {
			return tc, err
		}

		tc.evs = append(tc.evs, trackEvent{delta: delta, ev: ev})

		if ev.Kind == EventMeta && ev.MetaType == metaEndOfTrack {
			break
		}
	}

	if len(tc.evs) > 0 {
		tc.delay = tc.evs[0].delta
	}
	if len(tc.evs) == 0 {
		tc.done = true
	}
	return tc, nil
}

// readTrackEvent decodes one event, honoring running status.
func readTrackEvent(r *bytes.Reader, status *byte) (MidiEvent, error) {
	first, err := r.ReadByte()
	if err != nil {
		return MidiEvent{}, fmt.Errorf("%w: reading status byte", errTruncated)
	}

	var statusByte byte
	if first&0x80 != 0 {
		statusByte = first
		*status = first
	} else {
		// Running status: this byte is actually the first data byte.
		statusByte = *status
		if err := r.UnreadByte(); err != nil {
			return MidiEvent{}, err
		}
	}

	if statusByte == 0xFF {
		// The 0xFF byte was already consumed above as the status byte.
		return readMetaEvent(r)
	}
	if statusByte == 0xF0 || statusByte == 0xF7 {
		if first&0x80 != 0 {
			// consumed above as statusByte; nothing further to unread
		}
		return readSysExEvent(r)
	}

	hi := statusByte & 0xF0
	ch := int(statusByte & 0x0F)

	switch hi {
	case 0x80:
		note, vel, err := read2Data(r)
		return MidiEvent{Kind: EventNoteOff, Channel: ch, Note: note, Vel: vel}, err
	case 0x90:
		note, vel, err := read2Data(r)
		kind := EventNoteOn
		if vel == 0 {
			kind = EventNoteOff // spec.md §4.5/§8: Note-On vel=0 == Note-Off
		}
		return MidiEvent{Kind: kind, Channel: ch, Note: note, Vel: vel}, err
	case 0xA0:
		note, val, err := read2Data(r)
		return MidiEvent{Kind: EventPolyPressure, Channel: ch, Note: note, Vel: val}, err
	case 0xB0:
		cc, val, err := read2Data(r)
		return MidiEvent{Kind: EventControl, Channel: ch, CC: cc, Value: val}, err
	case 0xC0:
		prog, err := read1Data(r)
		return MidiEvent{Kind: EventProgram, Channel: ch, Value: prog}, err
	case 0xD0:
		val, err := read1Data(r)
		return MidiEvent{Kind: EventChanPressure, Channel: ch, Value: val}, err
	case 0xE0:
		lsb, msb, err := read2Data(r)
		bend := (msb<<7 | lsb) - 8192
		return MidiEvent{Kind: EventPitchBend, Channel: ch, Bend: bend}, err
	default:
		return MidiEvent{}, fmt.Errorf("unrecognized status byte 0x%02X", statusByte)
	}
}

func read1Data(r *bytes.Reader) (int, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("%w: reading event data", errTruncated)
	}
	return int(b & 0x7F), nil
}

func read2Data(r *bytes.Reader) (int, int, error) {
	a, err := r.ReadByte()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: reading event data", errTruncated)
	}
	b, err := r.ReadByte()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: reading event data", errTruncated)
	}
	return int(a & 0x7F), int(b & 0x7F), nil
}

func readMetaEvent(r *bytes.Reader) (MidiEvent, error) {
	metaType, err := r.ReadByte()
	if err != nil {
		return MidiEvent{}, fmt.Errorf("%w: reading meta type", errTruncated)
	}
	length, err := readVLQ(r)
	if err != nil {
		return MidiEvent{}, err
	}
	data := make([]byte, length)
	if n, err := r.Read(data); uint32(n) != length && length > 0 {
		if err != nil {
			return MidiEvent{}, fmt.Errorf("%w: reading meta payload: %v", errTruncated, err)
		}
	}
	return MidiEvent{Kind: EventMeta, MetaType: metaType, Data: data}, nil
}

func readSysExEvent(r *bytes.Reader) (MidiEvent, error) {
	length, err := readVLQ(r)
	if err != nil {
		return MidiEvent{}, err
	}
	data := make([]byte, length)
	if n, err := r.Read(data); uint32(n) != length && length > 0 {
		if err != nil {
			return MidiEvent{}, fmt.Errorf("%w: reading SysEx payload: %v", errTruncated, err)
		}
	}
	return MidiEvent{Kind: EventSysEx, Data: data}, nil
}
