package midisynth

// Voice allocation and stealing, grounded on the teacher's channel/voice
// bookkeeping in player.go's channelTick (age and retrigger tracking) and
// generalized to the priority-based stealing policy of spec.md §4.6.

// EngineKind selects which synthesis engine drives a voice.
type EngineKind uint8

const (
	EngineFM EngineKind = iota
	EngineSample
)

// Voice is one polyphonic synthesis slot. Only the fields for its current
// Engine are meaningful; the other engine's state is simply left zeroed,
// since engine selection is fixed per session (spec.md §9: "no runtime
// polymorphism required per frame; dispatch is per session") except for the
// per-voice sample_then_fm_fallback decision (SPEC_FULL.md §4.7/4.8 notes).
type Voice struct {
	Active     bool
	Channel    int
	Note       int
	Velocity   int
	Engine     EngineKind
	AgeSeconds float64
	Releasing  bool // true once a release has been requested but envelope/tail is still playing

	FM     fmVoiceState
	Sample sampleVoiceState
}

// voiceStealC1/C2 are the priority-stealing constants from spec.md §4.6:
// priority = velocity*C1 + age_seconds*C2, lowest priority stolen first.
const (
	voiceStealC1 = 1.0
	voiceStealC2 = 8.0

	// percussionProtectionBonus mirrors the teacher's fixed per-channel-role
	// pan assignment (NewPlayer's channel.pan = i&3): a constant bonus
	// rather than a dynamically computed one, applied to channel 9 voices so
	// they are the last to be stolen.
	percussionProtectionBonus = 1_000_000.0

	percussionChannel = 9
)

// VoicePool is the fixed-size allocator of spec.md §4.6.
type VoicePool struct {
	voices []Voice
}

// NewVoicePool allocates a pool of size voices, all initially inactive.
func NewVoicePool(size int) *VoicePool {
	return &VoicePool{voices: make([]Voice, size)}
}

func (p *VoicePool) Size() int { return len(p.voices) }

// ActiveCount reports the number of currently active voices, used to check the
// spec.md §8 invariant that the pool never exceeds its configured maximum.
func (p *VoicePool) ActiveCount() int {
	n := 0
	for i := range p.voices {
		if p.voices[i].Active {
			n++
		}
	}
	return n
}

// Find returns the index of the active voice holding (channel, note), or -1.
func (p *VoicePool) Find(channel, note int) int {
	for i := range p.voices {
		if p.voices[i].Active && p.voices[i].Channel == channel && p.voices[i].Note == note {
			return i
		}
	}
	return -1
}

// Trigger implements the allocation policy of spec.md §4.6: retrigger in
// place, else first inactive, else steal lowest priority. Returns the voice
// index that now represents (channel, note, velocity).
func (p *VoicePool) Trigger(channel, note, velocity int, engine EngineKind) int {
	if idx := p.Find(channel, note); idx >= 0 {
		p.resetVoice(idx, channel, note, velocity, engine)
		return idx
	}
	for i := range p.voices {
		if !p.voices[i].Active {
			p.resetVoice(i, channel, note, velocity, engine)
			return i
		}
	}
	idx := p.lowestPriorityVoice()
	p.resetVoice(idx, channel, note, velocity, engine)
	return idx
}

func (p *VoicePool) resetVoice(idx, channel, note, velocity int, engine EngineKind) {
	p.voices[idx] = Voice{
		Active:   true,
		Channel:  channel,
		Note:     note,
		Velocity: velocity,
		Engine:   engine,
	}
}

// lowestPriorityVoice implements the steal selection: priority =
// velocity*C1 + age_seconds*C2, percussion voices given a large bonus so
// they are effectively never chosen while any non-percussion voice exists.
func (p *VoicePool) lowestPriorityVoice() int {
	best := 0
	bestPriority := voicePriority(p.voices[0])
	for i := 1; i < len(p.voices); i++ {
		pr := voicePriority(p.voices[i])
		if pr < bestPriority {
			best = i
			bestPriority = pr
		}
	}
	return best
}

func voicePriority(v Voice) float64 {
	pr := float64(v.Velocity)*voiceStealC1 + v.AgeSeconds*voiceStealC2
	if v.Channel == percussionChannel {
		pr += percussionProtectionBonus
	}
	return pr
}

// Release deactivates the voice registered for (channel, note), per the
// simplified release model of spec.md §4.6 (no release-envelope tracking).
func (p *VoicePool) Release(channel, note int) {
	if idx := p.Find(channel, note); idx >= 0 {
		p.voices[idx].Active = false
		p.voices[idx].Releasing = false
	}
}

// ReleaseAll deactivates every voice on channel, used by CC120/123 and stop.
func (p *VoicePool) ReleaseAll(channel int) {
	for i := range p.voices {
		if p.voices[i].Active && p.voices[i].Channel == channel {
			p.voices[i].Active = false
			p.voices[i].Releasing = false
		}
	}
}

// ReleaseEverything deactivates every voice in the pool (transport stop).
func (p *VoicePool) ReleaseEverything() {
	for i := range p.voices {
		p.voices[i] = Voice{}
	}
}

// Tick ages every active voice by dt seconds, used by both engines' render
// loop and by the stealing priority calculation.
func (p *VoicePool) Tick(dt float64) {
	for i := range p.voices {
		if p.voices[i].Active {
			p.voices[i].AgeSeconds += dt
		}
	}
}

// At returns a pointer to the voice at idx for engine render loops.
func (p *VoicePool) At(idx int) *Voice { return &p.voices[idx] }

// Each calls fn for every active voice index.
func (p *VoicePool) Each(fn func(idx int, v *Voice)) {
	for i := range p.voices {
		if p.voices[i].Active {
			fn(i, &p.voices[i])
		}
	}
}
