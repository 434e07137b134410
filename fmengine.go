package midisynth

import "math"

// FM synthesis engine, grounded on the operator/envelope shape of
// other_examples' cbegin-mmlfm-go fm/engine.go (envState enum, per-operator
// phase accumulators) and the mix-then-clamp pattern of the teacher's
// mixChannels (spec.md §4.7).

type envPhase uint8

const (
	envAttack envPhase = iota
	envDecay
	envSustain
	envRelease
	envOff
)

type operatorState struct {
	phase    float64 // 0..1
	env      float64 // current envelope level, 0..1
	envState envPhase
	prevOut  float64 // feedback history for the modulator
}

// fmVoiceState is the per-voice runtime state of the FM engine.
type fmVoiceState struct {
	patchId   int
	modulator operatorState
	carrier   operatorState
	noteHz    float64
	releaseAt float64 // not read or written by the engine; release decays each operator's env directly
}

// FmEngine renders active FM voices into a stereo mixer block.
type FmEngine struct {
	sampleRate   int
	globalVolume float64 // 0..3, spec.md §6 global_volume_percent / 100
	normalize    bool
}

func NewFmEngine(sampleRate int) *FmEngine {
	return &FmEngine{sampleRate: sampleRate, globalVolume: 1.0}
}

func (e *FmEngine) SetGlobalVolume(percent int) { e.globalVolume = float64(percent) / 100.0 }
func (e *FmEngine) SetNormalize(on bool)         { e.normalize = on }

// Trigger initializes a voice's FM state for (channel, note, velocity)
// using patch from FmPatchTable, applying the normalization floor from
// spec.md §6 when enabled.
func (e *FmEngine) Trigger(v *Voice, ch *ChannelState, patchId int, note, velocity int) {
	if patchId < 0 || patchId >= len(FmPatchTable) {
		patchId = 0
	}
	if e.normalize && velocity < 20 {
		velocity = 20
	}
	bend := ch.bendSemitones()
	v.Velocity = velocity
	v.FM = fmVoiceState{
		patchId: patchId,
		noteHz:  noteToHz(float64(note) + bend),
	}
}

// Retune updates a voice's note frequency without retriggering its
// envelope, used on Pitch Bend (spec.md §4.5).
func (e *FmEngine) Retune(v *Voice, note int, bendSemitones float64) {
	v.FM.noteHz = noteToHz(float64(note) + bendSemitones)
}

func noteToHz(note float64) float64 {
	return 440.0 * math.Pow(2, (note-69)/12.0)
}

// RenderBlock renders len(frames) frames, frameDt seconds each, for every
// active FM voice into frames (one left/right float pair per frame,
// accumulated prior to clamp-on-write in mixer.go).
func (e *FmEngine) RenderBlock(pool *VoicePool, frames [][2]float64, frameDt float64, channelVolume func(ch int) float64, channelPan func(ch int) float64) {
	pool.Each(func(_ int, v *Voice) {
		if v.Engine != EngineFM {
			return
		}
		patch := &FmPatchTable[v.FM.patchId]
		left, right := panMultipliers(channelPan(v.Channel))
		chanVol := channelVolume(v.Channel)
		for i := range frames {
			sample := e.renderFrame(v, patch, frameDt)
			vol := float64(v.Velocity) / 127.0 * e.globalVolume * chanVol
			frames[i][0] += sample * vol * left
			frames[i][1] += sample * vol * right
		}
	})
}

func (e *FmEngine) renderFrame(v *Voice, patch *FmPatch, dt float64) float64 {
	st := &v.FM

	modInc := st.noteHz * patch.Modulator.Multiple / float64(e.sampleRate)
	st.modulator.phase += modInc
	if st.modulator.phase >= 1 {
		st.modulator.phase -= math.Floor(st.modulator.phase)
	}
	modOut := waveform(patch.Modulator.Waveform, st.modulator.phase+patch.Feedback*st.modulator.prevOut)
	st.modulator.prevOut = modOut
	advanceEnvelope(&st.modulator, patch.Modulator, dt)

	carInc := st.noteHz * patch.Carrier.Multiple / float64(e.sampleRate)
	if patch.Algorithm == 0 {
		carInc *= 1 + modOut*0.5 // modulation index folded into a fixed 0.5 scale
	}
	st.carrier.phase += carInc
	if st.carrier.phase >= 1 {
		st.carrier.phase -= math.Floor(st.carrier.phase)
	}
	carOut := waveform(patch.Carrier.Waveform, st.carrier.phase)
	advanceEnvelope(&st.carrier, patch.Carrier, dt)

	out := carOut * st.carrier.env
	if patch.Algorithm == 1 {
		out += modOut * st.modulator.env * (1 - patch.Carrier.TotalLevel)
	}
	return out * (1 - patch.Carrier.TotalLevel)
}

// advanceEnvelope steps one operator's ADSR state machine by dt seconds.
func advanceEnvelope(op *operatorState, params FmOperator, dt float64) {
	switch op.envState {
	case envAttack:
		if params.AttackSec <= 0 {
			op.env = 1
			op.envState = envDecay
			return
		}
		op.env += dt / params.AttackSec
		if op.env >= 1 {
			op.env = 1
			op.envState = envDecay
		}
	case envDecay:
		if params.DecaySec <= 0 {
			op.env = params.SustainLvl
			op.envState = envSustain
			return
		}
		op.env -= dt * (1 - params.SustainLvl) / params.DecaySec
		if op.env <= params.SustainLvl {
			op.env = params.SustainLvl
			op.envState = envSustain
		}
	case envSustain:
		op.env = params.SustainLvl
	case envRelease:
		if params.ReleaseSec <= 0 {
			op.env = 0
			op.envState = envOff
			return
		}
		op.env -= dt * params.SustainLvl / params.ReleaseSec
		if op.env <= 0 {
			op.env = 0
			op.envState = envOff
		}
	case envOff:
		op.env = 0
	}
}

// Release transitions a voice's operators into their release phase;
// in the simplified voice model (spec.md §4.6) the voice pool deactivates
// the slot immediately, so this only matters for engines that keep a
// voice in a releasing tail — kept here for that future extension point.
func (e *FmEngine) Release(v *Voice) {
	v.FM.modulator.envState = envRelease
	v.FM.carrier.envState = envRelease
}

// panMultipliers derives left/right gain from a 0..1 pan value (0=left,
// 0.5=center, 1=right), a linear pan law matching the teacher's MOD-style
// fixed-pan channels generalized to continuous values.
func panMultipliers(pan float64) (left, right float64) {
	if pan < 0 {
		pan = 0
	}
	if pan > 1 {
		pan = 1
	}
	return 1 - pan, pan
}
