package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/fatih/color"
	"github.com/gordonklaus/portaudio"

	midisynth "github.com/retrotone/midisynth"
)

var (
	white   = color.New(color.FgWhite).SprintfFunc()
	cyan    = color.New(color.FgCyan).SprintfFunc()
	magenta = color.New(color.FgMagenta).SprintfFunc()
	yellow  = color.New(color.FgYellow).SprintfFunc()
	blue    = color.New(color.FgHiBlue).SprintFunc()
	green   = color.New(color.FgGreen).SprintfFunc()
	red     = color.New(color.FgRed).SprintfFunc()
)

const (
	scratchBufferSize = 10 * 1024
	audioBufferSize   = 756 / 2
	uiLineCount       = 2 // header + blank line
)

// AudioPlayer drives live playback of a midisynth.Player through PortAudio
// and renders a channel telemetry readout, generalized from the teacher's
// stream-callback/keyboard-listener/colorized-UI idiom to MIDI channel
// state (program, volume, pan, active note count, mute/solo) in place of
// MOD pattern rows.
type AudioPlayer struct {
	player  *midisynth.Player
	stream  *portaudio.Stream
	scratch []int16

	uiWriter        io.Writer
	selectedChannel int
	soloChannel     int

	ctx            context.Context
	cancelFn       context.CancelFunc
	wg             sync.WaitGroup
	stopOnce       sync.Once
	terminated     bool
	keyboardDoneCh chan struct{}
}

// NewAudioPlayer creates a new AudioPlayer instance.
func NewAudioPlayer(player *midisynth.Player, noUI bool) *AudioPlayer {
	var uiw io.Writer = os.Stdout
	if noUI {
		uiw = io.Discard
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &AudioPlayer{
		player:         player,
		scratch:        make([]int16, scratchBufferSize),
		uiWriter:       uiw,
		soloChannel:    -1,
		ctx:            ctx,
		cancelFn:       cancel,
		keyboardDoneCh: make(chan struct{}),
	}
}

// Run starts the audio playback and UI rendering loop.
func (ap *AudioPlayer) Run() error {
	if err := ap.Initialize(); err != nil {
		return err
	}

	if err := ap.setupAudioStream(); err != nil {
		return err
	}

	ap.setupSignalHandlers()
	ap.setupKeyboardHandlers()

	fmt.Fprint(ap.uiWriter, hideCursor)

	var lastDrawn float64 = -1
	for {
		select {
		case <-ap.ctx.Done():
			goto exit
		default:
		}

		if !ap.player.IsPlaying() && ap.player.State() != midisynth.StatePaused {
			goto exit
		}

		pos := ap.player.PositionSeconds()
		if pos != lastDrawn {
			ap.renderUI()
			lastDrawn = pos
		}
	}

exit:
	fmt.Fprint(ap.uiWriter, showCursor)

	select {
	case <-ap.keyboardDoneCh:
	case <-time.After(500 * time.Millisecond):
	}

	ap.wg.Wait()
	return nil
}

// Initialize handles PortAudio initialization.
func (ap *AudioPlayer) Initialize() error {
	return portaudio.Initialize()
}

// setupAudioStream creates and starts the audio stream.
func (ap *AudioPlayer) setupAudioStream() error {
	stream, err := portaudio.OpenDefaultStream(
		0, 2,
		float64(*flagHz),
		audioBufferSize,
		ap.streamCallback,
	)
	if err != nil {
		return err
	}

	ap.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}

	return nil
}

// streamCallback is called by PortAudio to generate audio samples. It pulls
// fixed-size blocks from the player's double-buffered mixer (spec.md §4.9)
// rather than rendering directly into PortAudio's buffer, since the block
// size the mixer renders in may not match len(out).
func (ap *AudioPlayer) streamCallback(out []int16) {
	if !ap.player.IsPlaying() {
		clear(out)
		return
	}

	filled := 0
	for filled < len(out) {
		block, ok := ap.player.RenderBlock()
		if !ok {
			clear(out[filled:])
			ap.player.Stop()
			return
		}
		n := copy(out[filled:], block)
		filled += n
	}
}

// setupSignalHandlers handles OS signals like SIGINT.
func (ap *AudioPlayer) setupSignalHandlers() {
	sigch := make(chan os.Signal, 5)
	signal.Notify(sigch, syscall.SIGINT)

	ap.wg.Add(1)
	go func() {
		defer ap.wg.Done()
		for {
			select {
			case <-ap.ctx.Done():
				return
			case sig := <-sigch:
				if sig == syscall.SIGINT {
					ap.Stop()
					return
				}
			}
		}
	}()
}

// setupKeyboardHandlers handles keyboard input.
func (ap *AudioPlayer) setupKeyboardHandlers() {
	ap.wg.Add(1)
	go func() {
		defer ap.wg.Done()
		keyboard.Listen(func(key keys.Key) (stop bool, err error) {
			if key.Code == keys.CtrlC || key.Code == keys.Escape {
				ap.Stop()
				return true, nil
			}

			ap.handleKeyPress(key)

			return false, nil
		})
		close(ap.keyboardDoneCh)
	}()
}

// handleKeyPress processes a single key press: Left/Right select the
// telemetry-focused channel, Space toggles play/pause, 'q' mutes the
// selected channel, 's' solos it.
func (ap *AudioPlayer) handleKeyPress(key keys.Key) {
	switch key.Code {
	case keys.Left:
		ap.selectedChannel = max(ap.selectedChannel-1, 0)

	case keys.Right:
		ap.selectedChannel = min(ap.selectedChannel+1, ap.player.NumChannels()-1)

	case keys.Space:
		if ap.player.State() == midisynth.StatePlaying {
			ap.player.Pause()
		} else {
			ap.player.Play()
		}

	case keys.RuneKey:
		if len(key.Runes) > 0 {
			switch key.Runes[0] {
			case 'q':
				snap := ap.player.ChannelSnapshot(ap.selectedChannel)
				ap.player.SetMute(ap.selectedChannel, !snap.Muted)

			case 's':
				if ap.soloChannel != ap.selectedChannel {
					if ap.soloChannel != -1 {
						ap.player.SetSolo(ap.soloChannel, false)
					}
					ap.soloChannel = ap.selectedChannel
					ap.player.SetSolo(ap.selectedChannel, true)
				} else {
					ap.player.SetSolo(ap.selectedChannel, false)
					ap.soloChannel = -1
				}
			}
		}
	}
}

// Stop performs clean shutdown.
func (ap *AudioPlayer) Stop() {
	ap.stopOnce.Do(func() {
		ap.player.Stop()
		ap.cancelFn()

		if ap.stream != nil {
			ap.stream.Stop()
			ap.stream.Close()
		}

		if !ap.terminated {
			portaudio.Terminate()
			ap.terminated = true
		}

		fmt.Fprint(ap.uiWriter, showCursor)
	})
}

// renderUI renders the header line and one row per MIDI channel.
func (ap *AudioPlayer) renderUI() {
	ap.renderHeader()
	ap.renderChannelRows()

	fmt.Fprintf(ap.uiWriter, escape+"%dF", uiLineCount+ap.player.NumChannels())
}

// renderHeader renders playback position, duration, and state.
func (ap *AudioPlayer) renderHeader() {
	pos := ap.player.PositionSeconds()
	dur := ap.player.DurationSeconds()
	state := "playing"
	if ap.player.State() == midisynth.StatePaused {
		state = "paused"
	}
	fmt.Fprintf(ap.uiWriter, "%s %6.1f/%6.1fs  %s %s\n",
		blue("pos"), pos, dur, blue("state"), state)
	fmt.Fprintln(ap.uiWriter)
}

// renderChannelRows prints one line per MIDI channel showing its program,
// volume, pan, active-note count, and mute/solo status, highlighting the
// keyboard-selected channel.
func (ap *AudioPlayer) renderChannelRows() {
	for ch := 0; ch < ap.player.NumChannels(); ch++ {
		snap := ap.player.ChannelSnapshot(ch)

		marker := "  "
		if ch == ap.selectedChannel {
			marker = green("> ")
		}

		status := " "
		if snap.Muted {
			status = red("M")
		} else if snap.Soloed {
			status = green("S")
		}

		fmt.Fprintf(ap.uiWriter, "%s%s %s %2d  %s %3d  %s %3d  %s %3d  %s %2d\n",
			marker, status,
			cyan("ch"), ch,
			magenta("pgm"), snap.Program,
			yellow("vol"), snap.Volume,
			white("pan"), snap.Pan,
			blue("notes"), snap.ActiveNotes,
		)
	}
}
