package midisynth

// Double-buffered mixer, grounded on the teacher's GenerateAudio/
// mixChannels accumulate-then-clamp pattern in player.go, generalized to
// the explicit producer-loop contract of spec.md §4.9 and §9 ("no hidden
// suspension": scheduler.Advance then synth.RenderBlock, no goroutines
// hidden inside the mixer itself).

// MixerBlock is a pair of identically sized PCM buffers; one is the
// producer's target (back), one is ready for the sink to drain (front)
// (spec.md §3).
type MixerBlock struct {
	frames     int
	front      []int16 // interleaved stereo/mono, ready to drain
	back       []int16 // being filled by the producer
	accum      [][2]float64
	channels   int
	sampleRate int
}

// NewMixerBlock allocates a block of frames frames at the given channel
// count (1 or 2, spec.md §6 output_channels).
func NewMixerBlock(frames, channels, sampleRate int) *MixerBlock {
	return &MixerBlock{
		frames:     frames,
		front:      make([]int16, frames*channels),
		back:       make([]int16, frames*channels),
		accum:      make([][2]float64, frames),
		channels:   channels,
		sampleRate: sampleRate,
	}
}

func (m *MixerBlock) Frames() int { return m.frames }

// DurationSeconds is the block's duration at its configured sample rate,
// used by the producer loop to drive Scheduler.Advance (spec.md §4.9).
func (m *MixerBlock) DurationSeconds() float64 {
	return float64(m.frames) / float64(m.sampleRate)
}

// beginFill resets the accumulation buffer before a render pass.
func (m *MixerBlock) beginFill() {
	for i := range m.accum {
		m.accum[i] = [2]float64{}
	}
}

// finalizeFill clamps the float accumulation into the back buffer's
// signed 16-bit samples (spec.md §4.9 "clamp on write-out"), then swaps
// front/back so the sink can drain what was just rendered.
func (m *MixerBlock) finalizeFill() {
	if m.channels == 2 {
		for i, fr := range m.accum {
			m.back[2*i] = clampSample16(fr[0])
			m.back[2*i+1] = clampSample16(fr[1])
		}
	} else {
		for i, fr := range m.accum {
			m.back[i] = clampSample16((fr[0] + fr[1]) / 2)
		}
	}
	m.front, m.back = m.back, m.front
}

// Front returns the block ready to be drained by a sink.
func (m *MixerBlock) Front() []int16 { return m.front }

// Silence fills Front with zeroes, used while the transport is Paused
// (spec.md §4.10 "the sink emits silence until play resumes").
func (m *MixerBlock) Silence() {
	for i := range m.front {
		m.front[i] = 0
	}
}
