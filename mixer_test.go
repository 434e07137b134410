package midisynth

import "testing"

func TestMixerBlockClampAndSwapStereo(t *testing.T) {
	m := NewMixerBlock(4, 2, 44100)
	m.beginFill()

	m.accum[0] = [2]float64{0.5, -0.5}
	m.accum[1] = [2]float64{2.0, -2.0} // out of range, must clamp
	m.finalizeFill()

	front := m.Front()
	if len(front) != 8 {
		t.Fatalf("expected 8 interleaved samples (4 frames * 2 channels), got %d", len(front))
	}
	if front[0] <= 0 || front[1] >= 0 {
		t.Errorf("expected frame 0 left>0 right<0, got %d %d", front[0], front[1])
	}
	if front[2] != 32767 {
		t.Errorf("expected clamped left sample at max int16, got %d", front[2])
	}
	if front[3] != -32768 {
		t.Errorf("expected clamped right sample at min int16, got %d", front[3])
	}
}

func TestMixerBlockMonoDownmix(t *testing.T) {
	m := NewMixerBlock(2, 1, 44100)
	m.beginFill()
	m.accum[0] = [2]float64{1.0, -1.0} // should average to ~0

	m.finalizeFill()

	front := m.Front()
	if len(front) != 2 {
		t.Fatalf("expected 2 mono samples, got %d", len(front))
	}
	if front[0] != 0 {
		t.Errorf("expected averaged mono sample of 0, got %d", front[0])
	}
}

func TestMixerBlockSilence(t *testing.T) {
	m := NewMixerBlock(4, 2, 44100)
	m.beginFill()
	m.accum[0] = [2]float64{1.0, 1.0}
	m.finalizeFill()

	m.Silence()
	for i, v := range m.Front() {
		if v != 0 {
			t.Errorf("expected all-zero front buffer after Silence, index %d = %d", i, v)
		}
	}
}

func TestMixerBlockDurationSeconds(t *testing.T) {
	m := NewMixerBlock(4410, 2, 44100)
	got := m.DurationSeconds()
	want := 0.1
	if got < want-1e-9 || got > want+1e-9 {
		t.Errorf("expected duration 0.1s for 4410 frames at 44100Hz, got %f", got)
	}
}
