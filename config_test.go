package midisynth

import "testing"

func TestDefaultConfigMatchesDocumentedDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.OutputSampleRate != 44100 {
		t.Errorf("expected 44100Hz default, got %d", cfg.OutputSampleRate)
	}
	if cfg.OutputChannels != 2 {
		t.Errorf("expected stereo default, got %d channels", cfg.OutputChannels)
	}
	if cfg.VoicePoolSize != 18 {
		t.Errorf("expected a default voice pool of 18, got %d", cfg.VoicePoolSize)
	}
	if cfg.GlobalVolumePercent != 100 {
		t.Errorf("expected unity volume default of 100, got %d", cfg.GlobalVolumePercent)
	}
	if cfg.FMOrSample != EngineSelectFM {
		t.Errorf("expected FM as the default engine, got %v", cfg.FMOrSample)
	}
	if cfg.LoopPolicy != LoopOnce {
		t.Errorf("expected LoopOnce as the default loop policy, got %v", cfg.LoopPolicy)
	}
}
