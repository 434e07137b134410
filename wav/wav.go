// Package wav implements the canonical 44-byte PCM WAV header described in
// spec.md §6, used both for the Virtual WAV Sink (§4.11) and for loading a
// decoded WAV back in as a playback source. Adapted from the teacher's
// dependency-free writer (itself written after trying third-party
// alternatives that required knowing the audio length up front); this
// version generalizes channel count and adds a reader so the sink is
// round-trippable, per spec.md §8's virtual-WAV round-trip property.
// See http://soundfile.sapp.org/doc/WaveFormat/ for format documentation.
package wav

import (
	"encoding/binary"
	"fmt"
	"io"
)

const PCM = 1

const headerSize = 44

type Writer struct {
	WS       io.WriteSeeker
	Channels int
}

type Format struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// WriteFrame writes samples organized one slice per channel,
// [channel][sampleNum], interleaving them on the wire.
func (w *Writer) WriteFrame(samples [][]int16) error {
	interleaved := make([]int16, len(samples[0])*len(samples))
	for i := range samples[0] {
		for c := range samples {
			interleaved[i*len(samples)+c] = samples[c][i]
		}
	}
	return w.WriteInterleaved(interleaved)
}

// WriteInterleaved writes already-interleaved PCM frames directly, the
// shape MixerBlock.Front() already produces.
func (w *Writer) WriteInterleaved(interleaved []int16) error {
	return binary.Write(w.WS, binary.LittleEndian, interleaved)
}

// Finish patches the RIFF and data chunk size fields now that the total
// length is known (spec.md §4.11 "on finalize, patches the two size
// fields").
func (w *Writer) Finish() (int64, error) {
	wlen, err := w.WS.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}

	if offset, err := w.WS.Seek(4, io.SeekStart); err != nil || offset != 4 {
		return 0, err
	}
	if err := binary.Write(w.WS, binary.LittleEndian, int32(wlen-8)); err != nil {
		return 0, err
	}
	if offset, err := w.WS.Seek(40, io.SeekStart); err != nil || offset != 40 {
		return 0, err
	}
	if err := binary.Write(w.WS, binary.LittleEndian, int32(wlen-headerSize)); err != nil {
		return 0, err
	}

	if _, err := w.WS.Seek(wlen, io.SeekStart); err != nil {
		return 0, err
	}
	return wlen, nil
}

// NewWriter writes the 44-byte canonical header with placeholder size
// fields (spec.md §6 bit-exact layout) and returns a Writer ready for
// WriteFrame/WriteInterleaved calls.
func NewWriter(ws io.WriteSeeker, sampleRate, channels int) (*Writer, error) {
	writer := &Writer{WS: ws, Channels: channels}

	if _, err := ws.Write([]byte("RIFF")); err != nil {
		return nil, err
	}
	if err := binary.Write(ws, binary.LittleEndian, int32(0)); err != nil {
		return nil, err
	}
	if _, err := ws.Write([]byte("WAVE")); err != nil {
		return nil, err
	}

	if _, err := ws.Write([]byte("fmt ")); err != nil {
		return nil, err
	}
	if err := binary.Write(ws, binary.LittleEndian, int32(16)); err != nil {
		return nil, err
	}
	format := Format{AudioFormat: PCM, Channels: uint16(channels), SampleRate: uint32(sampleRate), BitsPerSample: 16}
	format.ByteRate = uint32(sampleRate) * uint32(channels) * (16 / 8)
	format.BlockAlign = uint16(channels) * (16 / 8)
	if err := binary.Write(ws, binary.LittleEndian, format); err != nil {
		return nil, err
	}

	if _, err := ws.Write([]byte("data")); err != nil {
		return nil, err
	}
	if err := binary.Write(ws, binary.LittleEndian, int32(0)); err != nil {
		return nil, err
	}

	return writer, nil
}

// ErrNotPCM is returned by Load when the fmt chunk declares a non-PCM
// audio format (spec.md §7 UnsupportedFeature "non-PCM WAV").
var ErrNotPCM = fmt.Errorf("wav: only PCM audio format is supported")

// Decoded is the result of loading a WAV file: its format plus the
// interleaved 16-bit PCM payload.
type Decoded struct {
	SampleRate int
	Channels   int
	BitsPerSample int
	PCM        []int16
}

// Load parses a canonical RIFF/WAVE PCM file from r, validating the fmt
// and data chunk tags (spec.md §6).
func Load(r io.Reader) (*Decoded, error) {
	var riffTag [4]byte
	if _, err := io.ReadFull(r, riffTag[:]); err != nil || string(riffTag[:]) != "RIFF" {
		return nil, fmt.Errorf("wav: missing RIFF tag")
	}
	var riffSize int32
	if err := binary.Read(r, binary.LittleEndian, &riffSize); err != nil {
		return nil, err
	}
	var waveTag [4]byte
	if _, err := io.ReadFull(r, waveTag[:]); err != nil || string(waveTag[:]) != "WAVE" {
		return nil, fmt.Errorf("wav: missing WAVE form type")
	}

	var fmtTag [4]byte
	if _, err := io.ReadFull(r, fmtTag[:]); err != nil || string(fmtTag[:]) != "fmt " {
		return nil, fmt.Errorf("wav: missing fmt chunk")
	}
	var fmtSize int32
	if err := binary.Read(r, binary.LittleEndian, &fmtSize); err != nil {
		return nil, err
	}
	var format Format
	if err := binary.Read(r, binary.LittleEndian, &format); err != nil {
		return nil, err
	}
	if fmtSize > 16 {
		if _, err := io.CopyN(io.Discard, r, int64(fmtSize-16)); err != nil {
			return nil, err
		}
	}
	if format.AudioFormat != PCM {
		return nil, ErrNotPCM
	}

	var dataTag [4]byte
	if _, err := io.ReadFull(r, dataTag[:]); err != nil || string(dataTag[:]) != "data" {
		return nil, fmt.Errorf("wav: missing data chunk")
	}
	var dataSize int32
	if err := binary.Read(r, binary.LittleEndian, &dataSize); err != nil {
		return nil, err
	}
	pcm := make([]int16, dataSize/2)
	if err := binary.Read(r, binary.LittleEndian, &pcm); err != nil {
		return nil, err
	}

	return &Decoded{
		SampleRate:    int(format.SampleRate),
		Channels:      int(format.Channels),
		BitsPerSample: int(format.BitsPerSample),
		PCM:           pcm,
	}, nil
}
