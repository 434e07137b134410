package midisynth

// ChannelState and the MIDI event dispatch table, grounded on the
// teacher's per-channel bookkeeping in player.go's channel struct (pan,
// volume, active-note tracking) and sequenceTick's effect-dispatch switch,
// generalized from tracker effects to MIDI channel-voice events per
// spec.md §4.5.

const (
	defaultChannelVolume = 127
	defaultChannelPan    = 64 // center of 0..127
	defaultBendRange     = 2  // semitones
)

// ChannelState is the per-MIDI-channel controller state (spec.md §3).
type ChannelState struct {
	Program     int
	BankMSB     int
	BankLSB     int
	Volume      int // 0..127
	Pan         int // 0..127, 64 = center
	PitchBend   int // signed 14-bit minus 8192, i.e. -8192..8191
	BendRange   int // semitones
	Vibrato     int
	Sustain     bool
	ActiveNotes map[int]int // note -> voice pool index

	// sustainedNotes holds notes that received a Note-Off while Sustain was
	// on; their voices stay allocated until sustain is released (spec.md
	// §4.5 CC64).
	sustainedNotes map[int]bool
}

// NewChannelState returns a channel at its power-on defaults.
func NewChannelState() *ChannelState {
	return &ChannelState{
		Volume:         defaultChannelVolume,
		Pan:            defaultChannelPan,
		BendRange:      defaultBendRange,
		ActiveNotes:    make(map[int]int),
		sustainedNotes: make(map[int]bool),
	}
}

// panFraction maps Pan (0..127) to a 0..1 fraction for panMultipliers.
func (c *ChannelState) panFraction() float64 {
	p := c.Pan
	if p < 0 {
		p = 0
	}
	if p > 127 {
		p = 127
	}
	return float64(p) / 127.0
}

func (c *ChannelState) volumeFraction() float64 {
	v := c.Volume
	if v < 0 {
		v = 0
	}
	if v > 127 {
		v = 127
	}
	return float64(v) / 127.0
}

// bendSemitones converts the channel's 14-bit pitch bend into semitones,
// exact at the extremes per spec.md §8 ("maps to ±bend_range semitones
// exactly" at 0 and 16383, i.e. PitchBend == -8192 and 8191).
func (c *ChannelState) bendSemitones() float64 {
	if c.PitchBend > 0 {
		return float64(c.PitchBend) / 8191.0 * float64(c.BendRange)
	}
	return float64(c.PitchBend) / 8192.0 * float64(c.BendRange)
}

func (c *ChannelState) isPercussion(channel int) bool {
	return channel == percussionChannel
}

// bank packs the 14-bit bank-select value from CC0/CC32.
func (c *ChannelState) bank() int {
	return c.BankMSB<<7 | c.BankLSB
}

// Player (transport.go) owns 16 ChannelStates and dispatches every decoded
// MidiEvent through dispatchEvent, which implements the table in
// spec.md §4.5.
func (p *Player) dispatchEvent(ev MidiEvent) {
	switch ev.Kind {
	case EventNoteOn:
		if ev.Vel == 0 {
			p.handleNoteOff(ev.Channel, ev.Note)
		} else {
			p.handleNoteOn(ev.Channel, ev.Note, ev.Vel)
		}
	case EventNoteOff:
		p.handleNoteOff(ev.Channel, ev.Note)
	case EventProgram:
		p.channels[ev.Channel].Program = clampProgram(ev.Value)
	case EventControl:
		p.handleControl(ev.Channel, ev.CC, ev.Value)
	case EventPitchBend:
		ch := p.channels[ev.Channel]
		ch.PitchBend = ev.Bend
		p.retuneChannel(ev.Channel)
	case EventChanPressure, EventPolyPressure:
		// Optional rescale; treated as a no-op per spec.md §4.5.
	case EventMeta:
		p.handleMeta(ev)
	case EventSysEx:
		// Skip: length already consumed by the loader.
	}
}

func clampProgram(prog int) int {
	if prog < 0 || prog > 127 {
		prog = ((prog % 128) + 128) % 128
	}
	return prog
}

func (p *Player) handleNoteOn(channel, note, vel int) {
	ch := p.channels[channel]
	idx := p.triggerVoice(channel, note, vel)
	if idx < 0 {
		p.DroppedNotes++
		return
	}
	ch.ActiveNotes[note] = idx
	delete(ch.sustainedNotes, note)
}

func (p *Player) handleNoteOff(channel, note int) {
	ch := p.channels[channel]
	if _, ok := ch.ActiveNotes[note]; !ok {
		return
	}
	if ch.Sustain {
		ch.sustainedNotes[note] = true
		return
	}
	p.voices.Release(channel, note)
	delete(ch.ActiveNotes, note)
}

func (p *Player) handleControl(channel, cc, val int) {
	ch := p.channels[channel]
	switch cc {
	case ccBankSelectMSB:
		ch.BankMSB = val
	case ccBankSelectLSB:
		ch.BankLSB = val
	case ccVolume:
		ch.Volume = val
		p.rescaleChannelVolume(channel)
	case ccPan:
		ch.Pan = val
	case ccSustain:
		wasOn := ch.Sustain
		ch.Sustain = val >= 64
		if wasOn && !ch.Sustain {
			p.releaseSustainedNotes(channel)
		}
	case ccAllSoundOff:
		p.voices.ReleaseAll(channel)
		ch.ActiveNotes = make(map[int]int)
		ch.sustainedNotes = make(map[int]bool)
	case ccResetControllers:
		ch.PitchBend = 0
		ch.Vibrato = 0
	case ccAllNotesOff:
		for note := range ch.ActiveNotes {
			p.handleNoteOff(channel, note)
		}
	}
}

func (p *Player) releaseSustainedNotes(channel int) {
	ch := p.channels[channel]
	for note := range ch.sustainedNotes {
		p.voices.Release(channel, note)
		delete(ch.ActiveNotes, note)
	}
	ch.sustainedNotes = make(map[int]bool)
}

func (p *Player) handleMeta(ev MidiEvent) {
	switch ev.MetaType {
	case metaTempo:
		if len(ev.Data) == 3 {
			us := int(ev.Data[0])<<16 | int(ev.Data[1])<<8 | int(ev.Data[2])
			p.scheduler.SetTempo(us)
		}
	case metaText:
		text := string(ev.Data)
		switch text {
		case "loopStart":
			p.scheduler.MarkLoopStart()
		case "loopEnd":
			p.scheduler.MarkLoopEnd()
		}
	case metaEndOfTrack:
		// TrackCursor.done is set by the scheduler itself.
	}
}

// rescaleChannelVolume and retuneChannel push a channel-wide controller
// change out to every currently active voice on that channel (spec.md
// §4.5 "rescale all active voices"/"retune all active voices").
func (p *Player) rescaleChannelVolume(channel int) {
	// Volume is read live from ChannelState by both engines' RenderBlock via
	// channelVolume(), so no per-voice update is needed here beyond the
	// ChannelState write already performed by the caller.
}

func (p *Player) retuneChannel(channel int) {
	ch := p.channels[channel]
	bend := ch.bendSemitones()
	p.voices.Each(func(_ int, v *Voice) {
		if v.Channel != channel {
			return
		}
		switch v.Engine {
		case EngineFM:
			p.fmEngine.Retune(v, v.Note, bend)
		case EngineSample:
			p.sampleEngine.Retune(v, v.Note, bend)
		}
	})
}
