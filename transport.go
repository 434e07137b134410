package midisynth

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/retrotone/midisynth/wav"
)

// Player is the transport session object of spec.md §9 ("wrap each of
// these into an owned session object"): it owns the scheduler, channel
// states, voice pool, synth engine(s), mixer, and transport state for one
// loaded source. Multiple independent Players can coexist without shared
// global state (spec.md §9), aside from an optionally-shared
// VirtualFileSystem passed in at construction.
//
// Grounded on the teacher's Player in player.go: a single struct owning
// Song, per-channel state, and the mixer, driven by repeated calls into a
// tick/generate loop from cmd/.

// TransportState is the state machine of spec.md §4.10.
type TransportState int

const (
	StateEmpty TransportState = iota
	StateLoaded
	StatePlaying
	StatePaused
)

func (s TransportState) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateLoaded:
		return "Loaded"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Player is the transport session (spec.md §4.10, §6).
type Player struct {
	// mu protects every field below: the audio thread holds it for the
	// duration of one RenderBlock call, the control thread holds it to
	// apply transport commands, MIDI/CC dispatch, and volume changes
	// (spec.md §5 "a single mutex protects the shared set {voice pool,
	// channel state, scheduler cursors, transport state}").
	mu sync.Mutex

	cfg Config
	vfs *VirtualFileSystem

	state TransportState

	// MIDI source state.
	score     *MidiScore
	scheduler *Scheduler
	channels  [16]*ChannelState
	voices    *VoicePool

	fmEngine     *FmEngine
	sampleEngine *SampleEngine
	sf2Bank      *Sf2Bank

	mixer *MixerBlock

	// WAV source state (mutually exclusive with the MIDI source state
	// above): spec.md §4.10 "When the source is a decoded WAV in memory".
	isWavSource bool
	wavSource   *wav.Decoded
	wavPosition int64 // sample index (frame index * channels) into wavSource.PCM

	// Mute/solo, generalized from the teacher's Player.Mute bitmask
	// (SPEC_FULL.md supplemented feature).
	mute [16]bool
	solo [16]bool

	// Diagnostic counters (SPEC_FULL.md supplemented feature; spec.md §7
	// "optionally counted for diagnostics"). ClampedSamples is not
	// incremented anywhere in the render path and stays 0.
	DroppedNotes   int
	StolenVoices   int
	ClampedSamples int

	renderedSeconds float64 // target of the last Seek, cleared by resetSessionState; PositionSeconds reads the scheduler clock instead

	// Resource policy caches (spec.md §5): conversion cache maps a loaded
	// MIDI source's fingerprint (plus the render volume) to a previously
	// rendered virtual WAV name, and the audio-buffer cache holds decoded
	// WAV PCM keyed by source path, both shared across this Player's loads.
	conversionCache      *ConversionCache
	audioBufferCache     *AudioBufferCache
	sourceFingerprint    fileFingerprint
	hasSourceFingerprint bool
	wavFormats           map[string]wavFormat
}

// wavFormat is the non-PCM metadata the audio-buffer cache doesn't carry
// alongside its cached []int16 payload (cache.go only keys on path/size).
type wavFormat struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
}

// NewPlayer constructs an empty-state Player. Pass a shared vfs to let
// multiple Players reuse the same virtual-file namespace (e.g. a CLI
// process), or a fresh NewVirtualFileSystem() for test isolation.
func NewPlayer(cfg Config, vfs *VirtualFileSystem) *Player {
	return &Player{
		cfg:              cfg,
		vfs:              vfs,
		state:            StateEmpty,
		conversionCache:  NewConversionCache(cfg.ConversionCacheBudgetBytes, vfs),
		audioBufferCache: NewAudioBufferCache(cfg.AudioBufferCacheBytes),
	}
}

// SetSourceFingerprint records the on-disk identity (path, modification
// time, size) of the source most recently passed to LoadMIDISource, so a
// later RenderToVirtualWAV call can look up or populate the conversion
// cache (spec.md §5). Callers loading from in-memory bytes with no backing
// file (e.g. tests, embedded data) can skip this; RenderToVirtualWAV then
// always re-synthesizes.
func (p *Player) SetSourceFingerprint(path string, mtime, size int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sourceFingerprint = fileFingerprint{Path: path, Mtime: mtime, Size: size}
	p.hasSourceFingerprint = true
}

func (p *Player) State() TransportState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// LoadMIDISource parses data as a Standard MIDI File and, if bank is
// non-nil, uses it as the SoundFont bank for sample playback (required
// when Config.FMOrSample selects EngineSelectSample or
// EngineSelectSampleThenFMFallback).
func (p *Player) LoadMIDISource(data []byte, bank *Sf2Bank) error {
	score, err := LoadMIDI(data)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.score = score
	p.sf2Bank = bank
	p.resetSessionState()
	p.isWavSource = false
	p.hasSourceFingerprint = false
	p.state = StateLoaded
	return nil
}

// LoadWAVSource loads a decoded PCM WAV as a playback source (spec.md
// §4.10's "decoded WAV in memory" seek path, and §8's virtual-WAV
// round-trip scenario).
func (p *Player) LoadWAVSource(data []byte) error {
	dec, err := wav.Load(bytes.NewReader(data))
	if err == wav.ErrNotPCM {
		return newErr(KindUnsupportedFeature, "LoadWAVSource", err)
	}
	if err != nil {
		return newErr(KindParseError, "LoadWAVSource", err)
	}
	if dec.BitsPerSample != 16 {
		return newErr(KindUnsupportedFeature, "LoadWAVSource", errNonPCMWav)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.installWAVSourceLocked(dec)
	return nil
}

// LoadWAVSourceFromPath loads a decoded WAV keyed by its source path,
// consulting the audio-buffer cache (spec.md §5) before decoding: a repeat
// load of the same path reuses the cached PCM rather than re-parsing data.
func (p *Player) LoadWAVSourceFromPath(path string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pcm, ok := p.audioBufferCache.Get(path); ok {
		if format, ok := p.wavFormats[path]; ok {
			p.installWAVSourceLocked(&wav.Decoded{
				PCM:           pcm,
				Channels:      format.Channels,
				SampleRate:    format.SampleRate,
				BitsPerSample: format.BitsPerSample,
			})
			return nil
		}
	}

	dec, err := wav.Load(bytes.NewReader(data))
	if err == wav.ErrNotPCM {
		return newErr(KindUnsupportedFeature, "LoadWAVSourceFromPath", err)
	}
	if err != nil {
		return newErr(KindParseError, "LoadWAVSourceFromPath", err)
	}
	if dec.BitsPerSample != 16 {
		return newErr(KindUnsupportedFeature, "LoadWAVSourceFromPath", errNonPCMWav)
	}
	p.installWAVSourceLocked(dec)

	p.audioBufferCache.Put(path, dec.PCM)
	if p.wavFormats == nil {
		p.wavFormats = make(map[string]wavFormat)
	}
	p.wavFormats[path] = wavFormat{Channels: dec.Channels, SampleRate: dec.SampleRate, BitsPerSample: dec.BitsPerSample}
	return nil
}

func (p *Player) installWAVSourceLocked(dec *wav.Decoded) {
	p.wavSource = dec
	p.wavPosition = 0
	p.isWavSource = true
	p.mixer = NewMixerBlock(p.cfg.BlockSizeFrames, p.cfg.OutputChannels, p.cfg.OutputSampleRate)
	p.state = StateLoaded
}

func (p *Player) resetSessionState() {
	for i := range p.channels {
		p.channels[i] = NewChannelState()
	}
	p.voices = NewVoicePool(p.cfg.VoicePoolSize)
	p.fmEngine = NewFmEngine(p.cfg.OutputSampleRate)
	p.fmEngine.SetGlobalVolume(p.cfg.GlobalVolumePercent)
	p.fmEngine.SetNormalize(p.cfg.EnableNormalization)
	if p.sf2Bank != nil {
		p.sampleEngine = NewSampleEngine(p.sf2Bank, p.cfg.OutputSampleRate)
		p.sampleEngine.SetGlobalVolume(p.cfg.GlobalVolumePercent)
	}
	p.mixer = NewMixerBlock(p.cfg.BlockSizeFrames, p.cfg.OutputChannels, p.cfg.OutputSampleRate)
	p.renderedSeconds = 0
	p.score.Tracks = reloadTrackCursors(p.score)
	p.scheduler = NewScheduler(p.score, p.cfg.LoopPolicy == LoopMarker, p.dispatchScheduledEvent)
}

func (p *Player) dispatchScheduledEvent(trackIdx int, ev MidiEvent) {
	p.dispatchEvent(ev)
}

// Play transitions Loaded->Playing or Paused->Playing (spec.md §4.10).
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case StateLoaded, StatePaused:
		p.state = StatePlaying
		return nil
	default:
		return newErr(KindIllegalState, "Play", fmt.Errorf("cannot play from state %s", p.state))
	}
}

// Pause transitions Playing->Paused.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePlaying {
		return newErr(KindIllegalState, "Pause", fmt.Errorf("cannot pause from state %s", p.state))
	}
	p.state = StatePaused
	return nil
}

// Stop releases all voices, resets channel defaults, rewinds the
// scheduler, and returns to Loaded (spec.md §4.10).
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateEmpty {
		return newErr(KindIllegalState, "Stop", fmt.Errorf("cannot stop from Empty"))
	}
	if p.isWavSource {
		p.wavPosition = 0
		p.state = StateLoaded
		return nil
	}
	p.voices.ReleaseEverything()
	p.resetSessionState()
	p.state = StateLoaded
	return nil
}

// Seek implements spec.md §4.10's two seek modes.
func (p *Player) Seek(seconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePlaying && p.state != StatePaused {
		return newErr(KindIllegalState, "Seek", fmt.Errorf("cannot seek from state %s", p.state))
	}
	if p.isWavSource {
		frame := int64(seconds * float64(p.wavSource.SampleRate))
		p.wavPosition = frame * int64(p.wavSource.Channels)
		return nil
	}

	// Rewind every track to its start, then fast-forward silently (spec.md
	// §4.10): channel-state updates apply, audio rendering is skipped. A
	// recorded loop-start snapshot is discarded with the old scheduler and is
	// not used as the rewind point.
	p.voices.ReleaseEverything()
	p.resetSessionState()
	if seconds > 0 {
		p.scheduler.Advance(seconds)
	}
	p.renderedSeconds = seconds
	return nil
}

// SetVolume sets global_volume_percent (spec.md §6), 0..300.
func (p *Player) SetVolume(percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setVolumeLocked(percent)
}

func (p *Player) setVolumeLocked(percent int) {
	p.cfg.GlobalVolumePercent = percent
	if p.fmEngine != nil {
		p.fmEngine.SetGlobalVolume(percent)
	}
	if p.sampleEngine != nil {
		p.sampleEngine.SetGlobalVolume(percent)
	}
}

// SetNormalize toggles enable_normalization (spec.md §6).
func (p *Player) SetNormalize(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.EnableNormalization = on
	if p.fmEngine != nil {
		p.fmEngine.SetNormalize(on)
	}
}

// SetMute mutes/unmutes channel (SPEC_FULL.md supplemented feature).
func (p *Player) SetMute(channel int, muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mute[channel] = muted
}

// SetSolo solos/unsolos channel; while any channel is soloed, non-soloed
// channels are silent.
func (p *Player) SetSolo(channel int, solo bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.solo[channel] = solo
}

func (p *Player) anySolo() bool {
	for _, s := range p.solo {
		if s {
			return true
		}
	}
	return false
}

// channelAudible reports whether channel should contribute audio this
// block, honoring mute/solo.
func (p *Player) channelAudible(channel int) bool {
	if p.mute[channel] {
		return false
	}
	if p.anySolo() && !p.solo[channel] {
		return false
	}
	return true
}

func (p *Player) channelVolume(channel int) float64 {
	if !p.channelAudible(channel) {
		return 0
	}
	return p.channels[channel].volumeFraction()
}

func (p *Player) channelPan(channel int) float64 {
	return p.channels[channel].panFraction()
}

// DurationSeconds is not generally knowable in closed form for a MIDI
// score (tempo changes and loop markers make "total length"
// definition-dependent). For a MIDI source it dry-runs fresh copies of the
// track cursors through a scheduler that applies only tempo events and
// returns the time at which every track has ended; loop markers are not
// honored, so for a looping score this is the length of one pass.
func (p *Player) DurationSeconds() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isWavSource {
		return float64(len(p.wavSource.PCM)/p.wavSource.Channels) / float64(p.wavSource.SampleRate)
	}
	if p.score == nil {
		return 0
	}
	probe := &MidiScore{TicksPerQtr: p.score.TicksPerQtr, TempoUsPerQtr: p.score.TempoUsPerQtr, Tracks: reloadTrackCursors(p.score)}
	var s *Scheduler
	s = NewScheduler(probe, false, func(_ int, ev MidiEvent) {
		if ev.Kind == EventMeta && ev.MetaType == metaTempo && len(ev.Data) == 3 {
			s.SetTempo(int(ev.Data[0])<<16 | int(ev.Data[1])<<8 | int(ev.Data[2]))
		}
	})
	for s.step() {
	}
	return s.playwait
}

// PositionSeconds returns the current playback position.
func (p *Player) PositionSeconds() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isWavSource {
		return float64(p.wavPosition/int64(p.wavSource.Channels)) / float64(p.wavSource.SampleRate)
	}
	return p.scheduler.PositionSeconds()
}

// RenderBlock fills and returns one mixer block's worth of audio. While
// Paused it returns silence (spec.md §4.10); while Playing it advances the
// scheduler and synthesizes. Returns false once a MIDI source has reached
// end-of-song with no loop, or a WAV source is exhausted.
func (p *Player) RenderBlock() ([]int16, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StatePaused || p.state == StateEmpty || p.state == StateLoaded {
		p.mixer.Silence()
		return p.mixer.Front(), true
	}
	if p.isWavSource {
		return p.renderWavBlock()
	}
	return p.renderMidiBlock()
}

func (p *Player) renderMidiBlock() ([]int16, bool) {
	dur := p.mixer.DurationSeconds()
	more := p.scheduler.Advance(dur)
	if !more && p.cfg.LoopPolicy == LoopForever {
		// LoopForever without explicit markers restarts from the top.
		p.voices.ReleaseEverything()
		p.score.Tracks = reloadTrackCursors(p.score)
		p.scheduler = NewScheduler(p.score, p.cfg.LoopPolicy == LoopMarker, p.dispatchScheduledEvent)
		more = p.scheduler.Advance(dur)
	}

	frameDt := 1.0 / float64(p.cfg.OutputSampleRate)
	p.mixer.beginFill()
	p.voices.Tick(dur)
	p.fmEngine.RenderBlock(p.voices, p.mixer.accum, frameDt, p.channelVolume, p.channelPan)
	if p.sampleEngine != nil {
		p.sampleEngine.RenderBlock(p.voices, p.mixer.accum, p.channelVolume, p.channelPan)
	}
	p.mixer.finalizeFill()

	if !more {
		p.state = StateLoaded
	}
	return p.mixer.Front(), more
}

func (p *Player) renderWavBlock() ([]int16, bool) {
	frames := p.mixer.Frames()
	channels := p.wavSource.Channels
	out := p.mixer.front
	total := int64(len(p.wavSource.PCM))
	n := 0
	for n < frames {
		if p.wavPosition >= total {
			break
		}
		for c := 0; c < p.mixer.channels; c++ {
			srcC := c
			if srcC >= channels {
				srcC = channels - 1
			}
			out[n*p.mixer.channels+c] = p.wavSource.PCM[p.wavPosition+int64(srcC)]
		}
		p.wavPosition += int64(channels)
		n++
	}
	for i := n * p.mixer.channels; i < len(out); i++ {
		out[i] = 0
	}
	more := p.wavPosition < total
	if !more {
		p.state = StateLoaded
	}
	return out, more
}

// reloadTrackCursors resets every track's cursor back to the state
// parseTrack produces at load time (pos 0, running status cleared, delay
// primed from the first event, done only if the track is empty), without
// re-decoding the already-parsed event lists. Used by LoopForever (spec.md
// §6's Config table) when a MidiScore has no embedded loop markers: each
// pass through the song restarts every track from its beginning rather
// than collapsing to a single play-through.
func reloadTrackCursors(score *MidiScore) []TrackCursor {
	fresh := make([]TrackCursor, len(score.Tracks))
	for i, tc := range score.Tracks {
		fresh[i] = TrackCursor{
			evs:    tc.evs,
			pos:    0,
			status: 0,
			done:   len(tc.evs) == 0,
		}
		if len(tc.evs) > 0 {
			fresh[i].delay = tc.evs[0].delta
		}
	}
	return fresh
}

// triggerVoice implements engine selection and resolves a synth patch for
// (channel, note, velocity), per SPEC_FULL.md's §4.7/4.8 expansion of
// engine selection and the sample_then_fm_fallback semantics.
func (p *Player) triggerVoice(channel, note, vel int) int {
	ch := p.channels[channel]
	bend := ch.bendSemitones()

	switch p.cfg.FMOrSample {
	case EngineSelectFM:
		return p.triggerFM(channel, note, vel)
	case EngineSelectSample:
		idx, ok := p.triggerSample(channel, note, vel, bend)
		if !ok {
			return -1
		}
		return idx
	case EngineSelectSampleThenFMFallback:
		if idx, ok := p.triggerSample(channel, note, vel, bend); ok {
			return idx
		}
		return p.triggerFM(channel, note, vel)
	default:
		return p.triggerFM(channel, note, vel)
	}
}

func (p *Player) triggerFM(channel, note, vel int) int {
	ch := p.channels[channel]
	var patchId int
	if ch.isPercussion(channel) {
		patchId = PercussionPatchId(note)
		if patchId < 0 {
			return -1 // out-of-range percussion note: silently dropped (spec.md §7)
		}
	} else {
		patchId = clampProgram(ch.Program)
	}
	pitchNote := note
	if percNote := FmPatchTable[patchId].PercNote; percNote != 0 {
		pitchNote = percNote // patch overrides the playback pitch (instruments.cpp's percNote)
	}
	idx := p.voices.Trigger(channel, note, vel, EngineFM)
	if p.wasStolen(idx) {
		p.StolenVoices++
	}
	p.fmEngine.Trigger(p.voices.At(idx), ch, patchId, pitchNote, vel)
	return idx
}

func (p *Player) triggerSample(channel, note, vel int, bend float64) (int, bool) {
	if p.sf2Bank == nil || p.sampleEngine == nil {
		return 0, false
	}
	ch := p.channels[channel]
	bank := ch.bank()
	program := ch.Program
	if ch.isPercussion(channel) {
		bank = 128
	}
	preset := p.sf2Bank.FindPreset(bank, program)
	if preset == nil || preset.InstrumentIdx < 0 || preset.InstrumentIdx >= len(p.sf2Bank.Instruments) {
		return 0, false
	}
	inst := &p.sf2Bank.Instruments[preset.InstrumentIdx]
	idx := p.voices.Trigger(channel, note, vel, EngineSample)
	if p.wasStolen(idx) {
		p.StolenVoices++
	}
	if !p.sampleEngine.Trigger(p.voices.At(idx), ch, inst, note, vel, bend) {
		p.voices.At(idx).Active = false
		return 0, false
	}
	return idx, true
}

// wasStolen is a best-effort heuristic for the StolenVoices counter: it is
// checked after Trigger and counts a steal whenever the pool is at capacity
// at that point, so a trigger that takes the last free voice (or retriggers
// a held note while the pool is full) is counted too (spec.md §7
// "optionally counted").
func (p *Player) wasStolen(idx int) bool {
	return p.voices.ActiveCount() == p.voices.Size()
}

// RenderToVirtualWAV synthesizes the entire loaded MIDI source to a named
// virtual WAV file at the given volume, per spec.md §6's render API.
func (p *Player) RenderToVirtualWAV(name string, volumePercent int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isWavSource || p.score == nil {
		return "", newErr(KindIllegalState, "RenderToVirtualWAV", fmt.Errorf("no MIDI source loaded"))
	}

	var fp fileFingerprint
	if p.hasSourceFingerprint {
		fp = p.sourceFingerprint
		fp.Volume = volumePercent
		if cached, ok := p.conversionCache.Lookup(fp); ok {
			if vf := p.vfs.Open(cached); vf != nil {
				return cached, nil
			}
		}
	}

	p.resetSessionState()
	p.setVolumeLocked(volumePercent)

	vf := p.vfs.Create(name)
	writer, err := wav.NewWriter(vf, p.cfg.OutputSampleRate, p.cfg.OutputChannels)
	if err != nil {
		return "", newErr(KindDeviceError, "RenderToVirtualWAV", err)
	}

	p.state = StatePlaying
	for {
		block, more := p.renderMidiBlock()
		if err := writer.WriteInterleaved(block); err != nil {
			return "", newErr(KindDeviceError, "RenderToVirtualWAV", err)
		}
		if !more {
			break
		}
	}
	if _, err := writer.Finish(); err != nil {
		return "", newErr(KindDeviceError, "RenderToVirtualWAV", err)
	}
	p.state = StateLoaded

	if p.hasSourceFingerprint {
		p.conversionCache.Insert(fp, name, vf.Size())
	}
	return name, nil
}

// ChannelSnapshot is a read-only view of one channel's live state, for a
// CLI or test UI to poll without reaching into Player internals
// (SPEC_FULL.md supplemented feature, generalized from the teacher's
// PlayerPosition/ChannelNoteData polling surface).
type ChannelSnapshot struct {
	Channel     int
	Program     int
	Volume      int
	Pan         int
	ActiveNotes int
	Muted       bool
	Soloed      bool
}

// ChannelSnapshot returns a snapshot of channel's current controller state.
func (p *Player) ChannelSnapshot(channel int) ChannelSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := p.channels[channel]
	return ChannelSnapshot{
		Channel:     channel,
		Program:     ch.Program,
		Volume:      ch.Volume,
		Pan:         ch.Pan,
		ActiveNotes: len(ch.ActiveNotes),
		Muted:       p.mute[channel],
		Soloed:      p.solo[channel],
	}
}

// NumChannels is the fixed MIDI channel count (16).
func (p *Player) NumChannels() int { return 16 }

// IsPlaying reports whether the transport is in the Playing state.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StatePlaying
}

// NoteDataFor returns the decoded events of trackIdx between [fromIdx,
// toIdx), generalized from the teacher's identically-named introspection
// method, for a CLI or test to preview upcoming events without advancing
// the scheduler (SPEC_FULL.md supplemented feature).
func (p *Player) NoteDataFor(trackIdx, fromIdx, toIdx int) []MidiEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.score == nil || trackIdx < 0 || trackIdx >= len(p.score.Tracks) {
		return nil
	}
	evs := p.score.Tracks[trackIdx].evs
	if fromIdx < 0 {
		fromIdx = 0
	}
	if toIdx > len(evs) {
		toIdx = len(evs)
	}
	if fromIdx >= toIdx {
		return nil
	}
	out := make([]MidiEvent, 0, toIdx-fromIdx)
	for _, te := range evs[fromIdx:toIdx] {
		out = append(out, te.ev)
	}
	return out
}
