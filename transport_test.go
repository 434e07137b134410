package midisynth

import (
	"bytes"
	"testing"

	"github.com/retrotone/midisynth/wav"
)

func newTestPlayer(t *testing.T) (*Player, []byte) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BlockSizeFrames = 256
	vfs := NewVirtualFileSystem()
	player := NewPlayer(cfg, vfs)
	data := buildTestSMF(t)
	if err := player.LoadMIDISource(data, nil); err != nil {
		t.Fatalf("LoadMIDISource: %v", err)
	}
	return player, data
}

func TestPlayerStateMachine(t *testing.T) {
	player, _ := newTestPlayer(t)

	if player.State() != StateLoaded {
		t.Fatalf("expected StateLoaded after LoadMIDISource, got %s", player.State())
	}

	if err := player.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if player.State() != StatePlaying {
		t.Errorf("expected StatePlaying, got %s", player.State())
	}

	if err := player.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if player.State() != StatePaused {
		t.Errorf("expected StatePaused, got %s", player.State())
	}

	if err := player.Play(); err != nil {
		t.Fatalf("resuming Play from Paused: %v", err)
	}

	if err := player.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if player.State() != StateLoaded {
		t.Errorf("expected StateLoaded after Stop, got %s", player.State())
	}
}

func TestPlayerIllegalStateTransitions(t *testing.T) {
	cfg := DefaultConfig()
	vfs := NewVirtualFileSystem()
	player := NewPlayer(cfg, vfs)

	var perr *Error
	if err := player.Play(); err == nil {
		t.Fatal("expected an error playing an Empty transport")
	} else if !asError(err, &perr) || perr.Kind != KindIllegalState {
		t.Errorf("expected KindIllegalState, got %v", err)
	}

	if err := player.Pause(); err == nil {
		t.Error("expected an error pausing an Empty transport")
	}
}

// asError is a small errors.As wrapper kept local to this test file to
// avoid importing errors just for this one assertion pattern elsewhere.
func asError(err error, target **Error) bool {
	if e, ok := err.(*Error); ok {
		*target = e
		return true
	}
	return false
}

func TestPlayerRenderBlockAdvancesAndEnds(t *testing.T) {
	player, _ := newTestPlayer(t)
	if err := player.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	blocks := 0
	more := true
	for more && blocks < 1000 {
		_, more = player.RenderBlock()
		blocks++
	}

	if blocks >= 1000 {
		t.Fatal("RenderBlock loop did not terminate for a short fixed-length score")
	}
	if player.State() != StateLoaded {
		t.Errorf("expected transport to return to StateLoaded at end of song, got %s", player.State())
	}
}

func TestPlayerRenderToVirtualWAV(t *testing.T) {
	player, _ := newTestPlayer(t)

	name, err := player.RenderToVirtualWAV("out.wav", 100)
	if err != nil {
		t.Fatalf("RenderToVirtualWAV: %v", err)
	}
	if name != "out.wav" {
		t.Errorf("expected returned name %q, got %q", "out.wav", name)
	}

	vf := player.vfs.Open("out.wav")
	if vf == nil {
		t.Fatal("expected the virtual WAV file to exist after render")
	}

	decoded, err := wav.Load(bytes.NewReader(vf.Bytes()))
	if err != nil {
		t.Fatalf("decoding rendered virtual WAV: %v", err)
	}
	if decoded.Channels != 2 {
		t.Errorf("expected 2 channels, got %d", decoded.Channels)
	}
	if decoded.SampleRate != 44100 {
		t.Errorf("expected 44100Hz, got %d", decoded.SampleRate)
	}
	if len(decoded.PCM) == 0 {
		t.Error("expected non-empty rendered PCM")
	}
}

func TestPlayerMuteSoloAffectsChannelSnapshot(t *testing.T) {
	player, _ := newTestPlayer(t)

	player.SetMute(2, true)
	snap := player.ChannelSnapshot(2)
	if !snap.Muted {
		t.Error("expected channel 2 to report Muted after SetMute(2, true)")
	}

	player.SetSolo(3, true)
	snap = player.ChannelSnapshot(3)
	if !snap.Soloed {
		t.Error("expected channel 3 to report Soloed after SetSolo(3, true)")
	}

	if player.channelAudible(0) {
		t.Error("expected non-soloed channel 0 to be inaudible while channel 3 is soloed")
	}
	if !player.channelAudible(3) {
		t.Error("expected soloed channel 3 to remain audible")
	}
}

func TestPlayerSeekRewindsAndFastForwards(t *testing.T) {
	player, _ := newTestPlayer(t)
	if err := player.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	if err := player.Seek(0.1); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if player.PositionSeconds() != 0.1 {
		t.Errorf("expected position 0.1 after seek, got %f", player.PositionSeconds())
	}
}

func TestRenderToVirtualWAVReusesConversionCacheEntry(t *testing.T) {
	player, _ := newTestPlayer(t)
	player.SetSourceFingerprint("song.mid", 1234, 999)

	first, err := player.RenderToVirtualWAV("a.wav", 100)
	if err != nil {
		t.Fatalf("first RenderToVirtualWAV: %v", err)
	}
	if first != "a.wav" {
		t.Fatalf("expected first render name %q, got %q", "a.wav", first)
	}

	second, err := player.RenderToVirtualWAV("b.wav", 100)
	if err != nil {
		t.Fatalf("second RenderToVirtualWAV: %v", err)
	}
	if second != "a.wav" {
		t.Errorf("expected a conversion-cache hit to reuse %q instead of rendering %q, got %q", "a.wav", "b.wav", second)
	}
	if player.vfs.Open("b.wav") != nil {
		t.Error("expected a cache hit to skip creating the second virtual file entirely")
	}

	third, err := player.RenderToVirtualWAV("c.wav", 50)
	if err != nil {
		t.Fatalf("third RenderToVirtualWAV: %v", err)
	}
	if third != "c.wav" {
		t.Errorf("expected a different volume to miss the cache and render fresh, got %q", third)
	}
}

func TestLoadWAVSourceFromPathReusesAudioBufferCache(t *testing.T) {
	cfg := DefaultConfig()
	vfs := NewVirtualFileSystem()
	player := NewPlayer(cfg, vfs)

	vf := vfs.Create("tmp-source.wav")
	w, err := wav.NewWriter(vf, 44100, 2)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteInterleaved([]int16{1, 2, 3, 4}); err != nil {
		t.Fatalf("WriteInterleaved: %v", err)
	}
	if _, err := w.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	original := append([]byte(nil), vf.Bytes()...)

	if err := player.LoadWAVSourceFromPath("clip.wav", original); err != nil {
		t.Fatalf("first LoadWAVSourceFromPath: %v", err)
	}
	firstPCM := append([]int16(nil), player.wavSource.PCM...)

	// Garbage input on the second load: if the cache is actually consulted,
	// this corrupt data is never parsed and the cached PCM from the first
	// load is reused instead.
	if err := player.LoadWAVSourceFromPath("clip.wav", []byte("not a wav file")); err != nil {
		t.Fatalf("second LoadWAVSourceFromPath (should hit cache, not parse): %v", err)
	}
	if len(player.wavSource.PCM) != len(firstPCM) {
		t.Fatalf("expected cached PCM of length %d, got %d", len(firstPCM), len(player.wavSource.PCM))
	}
	for i := range firstPCM {
		if player.wavSource.PCM[i] != firstPCM[i] {
			t.Fatalf("expected cached PCM to match the first decode at index %d", i)
		}
	}
}

func TestLoopForeverRestartsTracksInsteadOfDegradingToOnce(t *testing.T) {
	player, data := newTestPlayer(t)
	player.cfg.LoopPolicy = LoopForever
	if err := player.LoadMIDISource(data, nil); err != nil {
		t.Fatalf("LoadMIDISource: %v", err)
	}
	if err := player.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	// The restart dispatches the first (delta-0) event within the same
	// block, so a rebuilt cursor is already past pos 0 when a block returns;
	// the restart shows as the playback position jumping back to the start.
	sawRestart := false
	lastPos := 0.0
	for i := 0; i < 200; i++ {
		_, more := player.RenderBlock()
		if !more {
			t.Fatal("expected LoopForever to keep reporting more=true across a loop restart")
		}
		pos := player.PositionSeconds()
		if pos < lastPos {
			sawRestart = true
		}
		lastPos = pos
	}
	if !sawRestart {
		t.Error("expected the track cursors to restart from the beginning under LoopForever")
	}
}

func TestNumChannelsAndIsPlaying(t *testing.T) {
	player, _ := newTestPlayer(t)
	if player.NumChannels() != 16 {
		t.Errorf("expected 16 MIDI channels, got %d", player.NumChannels())
	}
	if player.IsPlaying() {
		t.Error("expected IsPlaying to be false before Play")
	}
	player.Play()
	if !player.IsPlaying() {
		t.Error("expected IsPlaying to be true after Play")
	}
}
