package midisynth

import "math"

// Sample-playback synthesis engine, grounded on the teacher's
// mixChannels accumulate-then-clamp loop and decodeNote pitch math in
// player.go, generalized to Q16.16 fixed-point sample playback per
// spec.md §4.8.

const fixedPointShift = 16
const fixedPointOne = 1 << fixedPointShift

// sampleVoiceState is the per-voice runtime state of the sample engine.
type sampleVoiceState struct {
	sampleIdx int   // index into the owning Sf2Bank.Samples
	position  int64 // Q16.16 fixed-point index into sample.Data
	increment int64 // Q16.16 per-frame advance
	volScale  float64
}

// SampleEngine renders active sample-playback voices, lazily materializing
// each Sf2Sample's PCM slice from the bank's shared pool on first use
// (spec.md §4.2 "Sample lazy load").
type SampleEngine struct {
	bank         *Sf2Bank
	sampleRate   int
	globalVolume float64
	loaded       map[int][]int16 // sampleIdx -> materialized PCM, lazily populated
}

func NewSampleEngine(bank *Sf2Bank, sampleRate int) *SampleEngine {
	return &SampleEngine{
		bank:         bank,
		sampleRate:   sampleRate,
		globalVolume: 1.0,
		loaded:       make(map[int][]int16),
	}
}

func (e *SampleEngine) SetGlobalVolume(percent int) { e.globalVolume = float64(percent) / 100.0 }

// dataFor returns the materialized PCM for sample index idx, loading it
// from the bank's shared pool on first use. Returns nil, false if idx is
// out of range or the requested slice exceeds the pool (ResourceExhausted
// per spec.md §7: caller drops the trigger silently).
func (e *SampleEngine) dataFor(idx int) ([]int16, bool) {
	if data, ok := e.loaded[idx]; ok {
		return data, true
	}
	if idx < 0 || idx >= len(e.bank.Samples) {
		return nil, false
	}
	s := &e.bank.Samples[idx]
	if s.End > uint32(len(e.bank.PCMPool)) || s.Start > s.End {
		return nil, false
	}
	data := e.bank.PCMPool[s.Start:s.End]
	e.loaded[idx] = data
	return data, true
}

// Trigger locates the zone matching (note, velocity) in inst and
// initializes a voice's sample-playback state. Returns false if no zone or
// sample data is available, per spec.md §7 "voice fails to trigger
// (silent drop)".
func (e *SampleEngine) Trigger(v *Voice, ch *ChannelState, inst *Sf2Instrument, note, velocity int, bendSemitones float64) bool {
	zone, ok := inst.FindZone(note, velocity)
	if !ok {
		return false
	}
	data, ok := e.dataFor(zone.SampleIndex)
	if !ok || len(data) == 0 {
		return false
	}
	s := &e.bank.Samples[zone.SampleIndex]

	noteHz := noteToHz(float64(note) + bendSemitones)
	samplePitchHz := noteToHz(float64(s.OriginalPitch) + float64(s.PitchCorrection)/100.0)
	ratio := (noteHz / samplePitchHz) * (float64(s.SampleRate) / float64(e.sampleRate))

	v.Velocity = velocity
	v.Sample = sampleVoiceState{
		sampleIdx: zone.SampleIndex,
		position:  0,
		increment: int64(ratio * fixedPointOne),
		volScale:  float64(velocity) / 127.0,
	}
	return true
}

// Retune recomputes a voice's playback increment after a pitch bend,
// without resetting its playback position.
func (e *SampleEngine) Retune(v *Voice, note int, bendSemitones float64) {
	s := &e.bank.Samples[v.Sample.sampleIdx]
	noteHz := noteToHz(float64(note) + bendSemitones)
	samplePitchHz := noteToHz(float64(s.OriginalPitch) + float64(s.PitchCorrection)/100.0)
	ratio := (noteHz / samplePitchHz) * (float64(s.SampleRate) / float64(e.sampleRate))
	v.Sample.increment = int64(ratio * fixedPointOne)
}

// RenderBlock advances every active sample voice by len(frames) output
// frames, summing into the stereo accumulation buffer (spec.md §4.8).
func (e *SampleEngine) RenderBlock(pool *VoicePool, frames [][2]float64, channelVolume func(ch int) float64, channelPan func(ch int) float64) {
	pool.Each(func(_ int, v *Voice) {
		if v.Engine != EngineSample {
			return
		}
		data, ok := e.dataFor(v.Sample.sampleIdx)
		if !ok {
			v.Active = false
			return
		}
		s := &e.bank.Samples[v.Sample.sampleIdx]
		// LoopStart/LoopEnd are SF2 absolute indices into the shared PCM
		// pool, like Start/End, but data is already sliced to [Start:End];
		// rebase them relative to Start to index into data.
		loopStart := int64(s.LoopStart) - int64(s.Start)
		loopLen := int64(s.LoopEnd) - int64(s.LoopStart)
		sampleLen := int64(s.End) - int64(s.Start)

		left, right := panMultipliers(channelPan(v.Channel))
		chanVol := channelVolume(v.Channel)

		for i := range frames {
			if !v.Active {
				break
			}
			posInt := v.Sample.position >> fixedPointShift
			if posInt >= sampleLen {
				if loopLen > 0 {
					posInt = loopStart + mod64(posInt-loopStart, loopLen)
					v.Sample.position = posInt<<fixedPointShift | (v.Sample.position & (fixedPointOne - 1))
				} else {
					v.Active = false
					break
				}
			}
			frac := float64(v.Sample.position&(fixedPointOne-1)) / float64(fixedPointOne)
			next := posInt + 1
			if next >= int64(len(data)) {
				next = posInt
			}
			s0 := float64(data[posInt])
			s1 := float64(data[next])
			out := (s0*(1-frac) + s1*frac) / 32768.0

			out *= v.Sample.volScale * chanVol * e.globalVolume
			frames[i][0] += out * left
			frames[i][1] += out * right

			v.Sample.position += v.Sample.increment
		}
	})
}

func mod64(a, m int64) int64 {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// clampSample16 clamps a float accumulation sample to the signed 16-bit
// range, per spec.md §4.9's clamp-on-write.
func clampSample16(f float64) int16 {
	s := f * 32767.0
	if s > 32767 {
		return 32767
	}
	if s < -32768 {
		return -32768
	}
	return int16(math.Round(s))
}
