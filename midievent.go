package midisynth

import "fmt"

// EventKind tags the payload carried by a MidiEvent.
type EventKind int

const (
	EventNoteOff EventKind = iota
	EventNoteOn
	EventPolyPressure
	EventControl
	EventProgram
	EventChanPressure
	EventPitchBend
	EventMeta
	EventSysEx
)

// Meta event type bytes this core recognizes; others are skipped after
// reading their declared length per spec.md §4.5.
const (
	metaEndOfTrack = 0x2F
	metaTempo      = 0x51
	metaText       = 0x01
)

// Controller numbers dispatched in channel.go's table (spec.md §4.5).
const (
	ccBankSelectMSB    = 0
	ccBankSelectLSB    = 32
	ccVolume           = 7
	ccPan              = 10
	ccSustain          = 64
	ccAllSoundOff      = 120
	ccResetControllers = 121
	ccAllNotesOff      = 123
)

// MidiEvent is the sum-type payload of one decoded MIDI event. Timing lives
// outside the payload, in the scheduler's per-track delta accounting
// (spec.md §3 TrackCursor).
type MidiEvent struct {
	Kind EventKind

	Channel int // 0..15, valid for channel-voice kinds
	Note    int // NoteOn/NoteOff/PolyPressure
	Vel     int // NoteOn/NoteOff velocity, or PolyPressure value
	CC      int // Control
	Value   int // Control value, Program number, ChanPressure value
	Bend    int // PitchBend: signed value, -8192..8191

	MetaType byte   // Meta
	Data     []byte // Meta payload or SysEx payload
}

func (e MidiEvent) String() string {
	switch e.Kind {
	case EventNoteOff:
		return fmt.Sprintf("NoteOff(ch=%d note=%d vel=%d)", e.Channel, e.Note, e.Vel)
	case EventNoteOn:
		return fmt.Sprintf("NoteOn(ch=%d note=%d vel=%d)", e.Channel, e.Note, e.Vel)
	case EventPolyPressure:
		return fmt.Sprintf("PolyPressure(ch=%d note=%d val=%d)", e.Channel, e.Note, e.Vel)
	case EventControl:
		return fmt.Sprintf("Control(ch=%d cc=%d val=%d)", e.Channel, e.CC, e.Value)
	case EventProgram:
		return fmt.Sprintf("Program(ch=%d prog=%d)", e.Channel, e.Value)
	case EventChanPressure:
		return fmt.Sprintf("ChanPressure(ch=%d val=%d)", e.Channel, e.Value)
	case EventPitchBend:
		return fmt.Sprintf("PitchBend(ch=%d val=%d)", e.Channel, e.Bend)
	case EventMeta:
		return fmt.Sprintf("Meta(type=%02X len=%d)", e.MetaType, len(e.Data))
	case EventSysEx:
		return fmt.Sprintf("SysEx(len=%d)", len(e.Data))
	default:
		return "Unknown"
	}
}

// GetChannel and SetChannel let callers treat any channel-voice event
// uniformly, the way other_examples/954755a1_yalue-midi's ChannelMessage
// interface does for its concrete event types.
func (e MidiEvent) GetChannel() int { return e.Channel }

func (e *MidiEvent) SetChannel(c int) { e.Channel = c }

// IsChannelVoice reports whether the event carries a channel number.
func (e MidiEvent) IsChannelVoice() bool {
	switch e.Kind {
	case EventNoteOff, EventNoteOn, EventPolyPressure, EventControl, EventProgram, EventChanPressure, EventPitchBend:
		return true
	default:
		return false
	}
}
