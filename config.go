package midisynth

// Config is the explicit parameter struct consumed by NewPlayer, continuing
// the teacher's pattern of passing explicit parameters (NewPlayer's
// samplingFrequency, *flagBoost) rather than introducing a global config
// object (spec.md §6 configuration table).
type Config struct {
	// GlobalVolumePercent is linear gain applied at mix; 0..300, values over
	// 100 overdrive and rely on the mixer's clamp.
	GlobalVolumePercent int
	// EnableNormalization raises very quiet FM voice velocities to a floor.
	EnableNormalization bool
	// VoicePoolSize is the max simultaneous voices.
	VoicePoolSize int
	// OutputSampleRate is the device and render target rate, in Hz.
	OutputSampleRate int
	// OutputChannels is 1 (mono) or 2 (stereo).
	OutputChannels int
	// BlockSizeFrames is the size of one mixer block.
	BlockSizeFrames int
	// LoopPolicy controls end-of-song behavior.
	LoopPolicy LoopPolicy
	// FMOrSample selects the synthesis engine.
	FMOrSample EngineSelect

	// ConversionCacheBudgetBytes bounds the conversion cache (original-file
	// fingerprint -> rendered virtual WAV), evicted LRU past this budget
	// (spec.md §5 "Resource policy").
	ConversionCacheBudgetBytes int64
	// AudioBufferCacheBytes bounds the decoded-PCM LRU used for non-MIDI
	// (WAV) sources; an item larger than this is never cached (spec.md §5).
	AudioBufferCacheBytes int64
}

// LoopPolicy is the end-of-song behavior (spec.md §6).
type LoopPolicy int

const (
	LoopOnce LoopPolicy = iota
	LoopMarker
	LoopForever
)

// EngineSelect is the synthesizer selection (spec.md §6, §9 "two concrete
// variants selected at session start").
type EngineSelect int

const (
	EngineSelectFM EngineSelect = iota
	EngineSelectSample
	EngineSelectSampleThenFMFallback
)

// DefaultConfig returns the documented defaults from spec.md §6: 44100 Hz
// stereo output, voice pool sized for FM (18), volume at unity.
func DefaultConfig() Config {
	return Config{
		GlobalVolumePercent: 100,
		EnableNormalization: false,
		VoicePoolSize:       18,
		OutputSampleRate:    44100,
		OutputChannels:      2,
		BlockSizeFrames:     2048,
		LoopPolicy:          LoopOnce,
		FMOrSample:          EngineSelectFM,

		ConversionCacheBudgetBytes: 64 << 20, // 64MB of rendered virtual WAVs
		AudioBufferCacheBytes:      32 << 20, // 32MB of decoded PCM
	}
}
