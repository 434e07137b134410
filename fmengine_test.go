package midisynth

import "testing"

func TestNoteToHzConcertPitch(t *testing.T) {
	hz := noteToHz(69)
	if hz < 439.9 || hz > 440.1 {
		t.Errorf("expected A4 (note 69) to be ~440Hz, got %f", hz)
	}
	octaveUp := noteToHz(81)
	if octaveUp < hz*1.999 || octaveUp > hz*2.001 {
		t.Errorf("expected note 81 to be one octave above note 69, got %f vs %f", octaveUp, hz)
	}
}

func TestPanMultipliersClampsAndSumsToOne(t *testing.T) {
	l, r := panMultipliers(0.5)
	if l != 0.5 || r != 0.5 {
		t.Errorf("expected center pan to split evenly, got left=%f right=%f", l, r)
	}

	l, r = panMultipliers(-1)
	if l != 1 || r != 0 {
		t.Errorf("expected out-of-range negative pan clamped to full left, got %f %f", l, r)
	}

	l, r = panMultipliers(2)
	if l != 0 || r != 1 {
		t.Errorf("expected out-of-range pan clamped to full right, got %f %f", l, r)
	}
}

func TestFmEngineTriggerSetsFrequencyAndVelocityFloor(t *testing.T) {
	e := NewFmEngine(44100)
	e.SetNormalize(true)

	ch := NewChannelState()
	v := &Voice{}
	e.Trigger(v, ch, 0, 69, 5) // velocity 5 should be floored to 20 under normalization

	if v.Velocity != 20 {
		t.Errorf("expected normalized velocity floor of 20, got %d", v.Velocity)
	}
	if v.FM.noteHz < 439.9 || v.FM.noteHz > 440.1 {
		t.Errorf("expected ~440Hz for note 69, got %f", v.FM.noteHz)
	}
}

func TestFmEngineTriggerClampsOutOfRangePatchId(t *testing.T) {
	e := NewFmEngine(44100)
	ch := NewChannelState()
	v := &Voice{}
	e.Trigger(v, ch, 9999, 60, 100)
	if v.FM.patchId != 0 {
		t.Errorf("expected an out-of-range patch id to fall back to 0, got %d", v.FM.patchId)
	}
}

func TestFmEngineRetuneUpdatesFrequencyWithoutReset(t *testing.T) {
	e := NewFmEngine(44100)
	ch := NewChannelState()
	v := &Voice{}
	e.Trigger(v, ch, 0, 60, 100)
	before := v.FM.modulator.env

	e.Retune(v, 60, 2) // bend up 2 semitones
	if v.FM.noteHz <= noteToHz(60) {
		t.Error("expected Retune to raise the frequency above the unbent note")
	}
	if v.FM.modulator.env != before {
		t.Error("expected Retune to leave the envelope state untouched")
	}
}

func TestFmEngineRenderBlockProducesNonSilentOutput(t *testing.T) {
	e := NewFmEngine(44100)
	pool := NewVoicePool(4)
	ch := NewChannelState()

	idx := pool.Trigger(0, 69, 100, EngineFM)
	e.Trigger(pool.At(idx), ch, 0, 69, 100)

	frames := make([][2]float64, 64)
	unityVolume := func(int) float64 { return 1 }
	centerPan := func(int) float64 { return 0.5 }
	e.RenderBlock(pool, frames, 1.0/44100.0, unityVolume, centerPan)

	nonZero := false
	for _, f := range frames {
		if f[0] != 0 || f[1] != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Error("expected a triggered FM voice to produce non-silent output")
	}
}

func TestAdvanceEnvelopeAttackDecaySustainRelease(t *testing.T) {
	params := FmOperator{AttackSec: 0.01, DecaySec: 0.01, SustainLvl: 0.5, ReleaseSec: 0.01}
	op := &operatorState{envState: envAttack}

	// Attack: enough steps to reach full level and move to decay.
	for i := 0; i < 100 && op.envState == envAttack; i++ {
		advanceEnvelope(op, params, 0.001)
	}
	if op.envState == envAttack {
		t.Fatal("expected envelope to leave the attack phase")
	}

	for i := 0; i < 100 && op.envState == envDecay; i++ {
		advanceEnvelope(op, params, 0.001)
	}
	if op.envState != envSustain {
		t.Fatalf("expected envelope to settle into sustain, got state %d", op.envState)
	}
	if op.env != params.SustainLvl {
		t.Errorf("expected sustain level %f, got %f", params.SustainLvl, op.env)
	}

	op.envState = envRelease
	for i := 0; i < 100 && op.envState == envRelease; i++ {
		advanceEnvelope(op, params, 0.001)
	}
	if op.envState != envOff || op.env != 0 {
		t.Errorf("expected release to reach envOff at 0, got state=%d env=%f", op.envState, op.env)
	}
}
