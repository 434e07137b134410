package midisynth

import "math"

// FM patch table, transcribed from original_source/linux2/instruments.cpp's
// MidiPlayer::initFMInstruments (181 FMInstrument records: 128 General MIDI
// melodic programs plus 53 GM percussion-key voices, notes 35..87). Each
// record's modChar1-5/carChar1-5/fbConn bytes are the exact OPL2 register
// values that function writes via writeOPL (register offsets 0x20, 0x40,
// 0x60, 0x80, 0xE0, 0xC0 per operator — see midiplayer.cpp's loadInstrument).
// decodeOPLOperator/decodeAlgorithmFeedback below interpret those registers
// using the standard OPL2 bit layout (AdLib/YM3812 Multiple/KSL-TL/AR-DR/
// SL-RR/Waveform/Feedback-Connection fields), generalized from the
// two-operator envelope/algorithm shape in other_examples' cbegin-mmlfm-go
// fm/engine.go (opmOperator/envState) (spec.md §4.2, §4.7).

// Waveform selects one of eight OPL3-style operator waveforms from the low
// 3 bits of a patch's waveform byte.
type Waveform uint8

const (
	WaveSine Waveform = iota
	WaveHalfSine
	WaveAbsSine
	WaveQuarterSine
	WaveAltSine
	WaveCamelSine
	WaveSquare
	WaveLogSawtooth
)

// waveform evaluates one cycle of w at phase in [0,1).
func waveform(w Waveform, phase float64) float64 {
	s := math.Sin(2 * math.Pi * phase)
	switch w & 0x07 {
	case WaveSine:
		return s
	case WaveHalfSine:
		if s < 0 {
			return 0
		}
		return s
	case WaveAbsSine:
		return math.Abs(s)
	case WaveQuarterSine:
		if phase < 0.25 {
			return s
		}
		return 0
	case WaveAltSine:
		// Full sine for the first half cycle, silence for the second.
		if phase < 0.5 {
			return s
		}
		return 0
	case WaveCamelSine:
		// Four abs-sine humps per cycle; the two in the second half are
		// attenuated to half amplitude.
		a := math.Abs(math.Sin(4 * math.Pi * phase))
		if phase >= 0.5 {
			a *= 0.5
		}
		return a
	case WaveSquare:
		if s >= 0 {
			return 1
		}
		return -1
	case WaveLogSawtooth:
		return 2*phase - 1
	default:
		return s
	}
}

// FmOperator holds the per-operator synthesis parameters of a two-operator
// FM voice (spec.md §4.7), decoded from one OPL2 operator's five registers.
type FmOperator struct {
	Multiple   float64 // frequency ratio relative to the voice's base frequency
	TotalLevel float64 // output attenuation, 0 (loud) .. 1 (silent)
	AttackSec  float64
	DecaySec   float64
	SustainLvl float64 // 0..1, level held during the sustain phase
	ReleaseSec float64
	Waveform   Waveform
}

// FmPatch describes one General-MIDI-numbered FM voice: a modulator feeding
// a carrier through a fixed algorithm, plus a feedback amount on the
// modulator's own output (spec.md §4.2, §4.7).
type FmPatch struct {
	PatchId   int
	Name      string
	Algorithm int // 0: modulator->carrier (FM), 1: modulator+carrier summed (additive)
	Feedback  float64
	Modulator FmOperator
	Carrier   FmOperator

	// PercNote is instruments.cpp's percNote field: for a percussion voice,
	// the fixed OPL playback note the original always retunes to regardless
	// of the MIDI note that selected the patch (0 for melodic patches, which
	// play at the triggering note). Several GP patches explicitly reuse
	// another drum's pitch this way (e.g. GP77 Low Wood Block plays at
	// note 63, not 77) — transcribed here rather than assumed.
	PercNote int
}

// percussion patch ids occupy 128..180 (GM percussion key map 35..87,
// 1:1 with instruments.cpp's indices 128..180).
const (
	percussionPatchBase = 128
	percussionKeyLo     = 35
	percussionKeyHi     = 87
)

// PercussionPatchId maps a percussion-channel note number to its FmPatch
// slot, or -1 if out of the transcribed range.
func PercussionPatchId(note int) int {
	if note < percussionKeyLo || note > percussionKeyHi {
		return -1
	}
	return percussionPatchBase + (note - percussionKeyLo)
}

// rawOPLPatch is one instruments.cpp record, field-for-field: the exact
// byte values initFMInstruments assigns to modChar1-5/carChar1-5/fbConn/
// percNote, before any register decoding.
type rawOPLPatch struct {
	PatchId                                          int
	Name                                              string
	ModChar1, ModChar2, ModChar3, ModChar4, ModChar5 uint8
	CarChar1, CarChar2, CarChar3, CarChar4, CarChar5 uint8
	FbConn, PercNote                                 uint8
}

// rawFmPatches is a direct transcription of
// original_source/linux2/instruments.cpp's instruments[0..180] array
// (GM1..GM128 melodic, GP35..GP87 percussion). Columns: PatchId, Name,
// ModChar1, ModChar2, ModChar3, ModChar4, ModChar5, CarChar1, CarChar2,
// CarChar3, CarChar4, CarChar5, FbConn, PercNote.
var rawFmPatches = []rawOPLPatch{
	{  0, "Acoustic Grand Piano", 1, 143, 242, 244, 0, 1, 6, 242, 247, 0, 56, 0},
	{  1, "Bright Acoustic Grand", 1, 75, 242, 244, 0, 1, 0, 242, 247, 0, 56, 0},
	{  2, "Electric Grand Piano", 1, 73, 242, 244, 0, 1, 0, 242, 246, 0, 56, 0},
	{  3, "Honky-tonk Piano", 129, 18, 242, 247, 0, 65, 0, 242, 247, 0, 54, 0},
	{  4, "Rhodes Piano", 1, 87, 241, 247, 0, 1, 0, 242, 247, 0, 48, 0},
	{  5, "Chorused Piano", 1, 147, 241, 247, 0, 1, 0, 242, 247, 0, 48, 0},
	{  6, "Harpsichord", 1, 128, 161, 242, 0, 22, 14, 242, 245, 0, 56, 0},
	{  7, "Clavinet", 1, 146, 194, 248, 0, 1, 0, 194, 248, 0, 58, 0},
	{  8, "Celesta", 12, 92, 246, 244, 0, 129, 0, 243, 245, 0, 48, 0},
	{  9, "Glockenspiel", 7, 151, 243, 242, 0, 17, 128, 242, 241, 0, 50, 0},
	{ 10, "Music box", 23, 33, 84, 244, 0, 1, 0, 244, 244, 0, 50, 0},
	{ 11, "Vibraphone", 152, 98, 243, 246, 0, 129, 0, 242, 246, 0, 48, 0},
	{ 12, "Marimba", 24, 35, 246, 246, 0, 1, 0, 231, 247, 0, 48, 0},
	{ 13, "Xylophone", 21, 145, 246, 246, 0, 1, 0, 246, 246, 0, 52, 0},
	{ 14, "Tubular Bells", 69, 89, 211, 243, 0, 129, 128, 163, 243, 0, 60, 0},
	{ 15, "Dulcimer", 3, 73, 117, 245, 1, 129, 128, 181, 245, 0, 52, 0},
	{ 16, "Hammond Organ", 113, 146, 246, 20, 0, 49, 0, 241, 7, 0, 50, 0},
	{ 17, "Percussive Organ", 114, 20, 199, 88, 0, 48, 0, 199, 8, 0, 50, 0},
	{ 18, "Rock Organ", 112, 68, 170, 24, 0, 177, 0, 138, 8, 0, 52, 0},
	{ 19, "Church Organ", 35, 147, 151, 35, 1, 177, 0, 85, 20, 0, 52, 0},
	{ 20, "Reed Organ", 97, 19, 151, 4, 1, 177, 128, 85, 4, 0, 48, 0},
	{ 21, "Accordion", 36, 72, 152, 42, 1, 177, 0, 70, 26, 0, 60, 0},
	{ 22, "Harmonica", 97, 19, 145, 6, 1, 33, 0, 97, 7, 0, 58, 0},
	{ 23, "Tango Accordion", 33, 19, 113, 6, 0, 161, 137, 97, 7, 0, 54, 0},
	{ 24, "Acoustic Guitar1", 2, 156, 243, 148, 1, 65, 128, 243, 200, 0, 60, 0},
	{ 25, "Acoustic Guitar2", 3, 84, 243, 154, 1, 17, 0, 241, 231, 0, 60, 0},
	{ 26, "Electric Guitar1", 35, 95, 241, 58, 0, 33, 0, 242, 248, 0, 48, 0},
	{ 27, "Electric Guitar2", 3, 135, 246, 34, 1, 33, 128, 243, 248, 0, 54, 0},
	{ 28, "Electric Guitar3", 3, 71, 249, 84, 0, 33, 0, 246, 58, 0, 48, 0},
	{ 29, "Overdrive Guitar", 35, 74, 145, 65, 1, 33, 5, 132, 25, 0, 56, 0},
	{ 30, "Distortion Guitar", 35, 74, 149, 25, 1, 33, 0, 148, 25, 0, 56, 0},
	{ 31, "Guitar Harmonics", 9, 161, 32, 79, 0, 132, 128, 209, 248, 0, 56, 0},
	{ 32, "Acoustic Bass", 33, 30, 148, 6, 0, 162, 0, 195, 166, 0, 50, 0},
	{ 33, "Electric Bass 1", 49, 18, 241, 40, 0, 49, 0, 241, 24, 0, 58, 0},
	{ 34, "Electric Bass 2", 49, 141, 241, 232, 0, 49, 0, 241, 120, 0, 58, 0},
	{ 35, "Fretless Bass", 49, 91, 81, 40, 0, 50, 0, 113, 72, 0, 60, 0},
	{ 36, "Slap Bass 1", 1, 139, 161, 154, 0, 33, 64, 242, 223, 0, 56, 0},
	{ 37, "Slap Bass 2", 33, 139, 162, 22, 0, 33, 8, 161, 223, 0, 56, 0},
	{ 38, "Synth Bass 1", 49, 139, 244, 232, 0, 49, 0, 241, 120, 0, 58, 0},
	{ 39, "Synth Bass 2", 49, 18, 241, 40, 0, 49, 0, 241, 24, 0, 58, 0},
	{ 40, "Violin", 49, 21, 221, 19, 1, 33, 0, 86, 38, 0, 56, 0},
	{ 41, "Viola", 49, 22, 221, 19, 1, 33, 0, 102, 6, 0, 56, 0},
	{ 42, "Cello", 113, 73, 209, 28, 1, 49, 0, 97, 12, 0, 56, 0},
	{ 43, "Contrabass", 33, 77, 113, 18, 1, 35, 128, 114, 6, 0, 50, 0},
	{ 44, "Tremulo Strings", 241, 64, 241, 33, 1, 225, 0, 111, 22, 0, 50, 0},
	{ 45, "Pizzicato String", 2, 26, 245, 117, 1, 1, 128, 133, 53, 0, 48, 0},
	{ 46, "Orchestral Harp", 2, 29, 245, 117, 1, 1, 128, 243, 244, 0, 48, 0},
	{ 47, "Timpany", 16, 65, 245, 5, 1, 17, 0, 242, 195, 0, 50, 0},
	{ 48, "String Ensemble1", 33, 155, 177, 37, 1, 162, 1, 114, 8, 0, 62, 0},
	{ 49, "String Ensemble2", 161, 152, 127, 3, 1, 33, 0, 63, 7, 1, 48, 0},
	{ 50, "Synth Strings 1", 161, 147, 193, 18, 0, 97, 0, 79, 5, 0, 58, 0},
	{ 51, "SynthStrings 2", 33, 24, 193, 34, 0, 97, 0, 79, 5, 0, 60, 0},
	{ 52, "Choir Aahs", 49, 91, 244, 21, 0, 114, 131, 138, 5, 0, 48, 0},
	{ 53, "Voice Oohs", 161, 144, 116, 57, 0, 97, 0, 113, 103, 0, 48, 0},
	{ 54, "Synth Voice", 113, 87, 84, 5, 0, 114, 0, 122, 5, 0, 60, 0},
	{ 55, "Orchestra Hit", 144, 0, 84, 99, 0, 65, 0, 165, 69, 0, 56, 0},
	{ 56, "Trumpet", 33, 146, 133, 23, 0, 33, 1, 143, 9, 0, 60, 0},
	{ 57, "Trombone", 33, 148, 117, 23, 0, 33, 5, 143, 9, 0, 60, 0},
	{ 58, "Tuba", 33, 148, 118, 21, 0, 97, 0, 130, 55, 0, 60, 0},
	{ 59, "Muted Trumpet", 49, 67, 158, 23, 1, 33, 0, 98, 44, 1, 50, 0},
	{ 60, "French Horn", 33, 155, 97, 106, 0, 33, 0, 127, 10, 0, 50, 0},
	{ 61, "Brass Section", 97, 138, 117, 31, 0, 34, 6, 116, 15, 0, 56, 0},
	{ 62, "Synth Brass 1", 161, 134, 114, 85, 1, 33, 131, 113, 24, 0, 48, 0},
	{ 63, "Synth Brass 2", 33, 77, 84, 60, 0, 33, 0, 166, 28, 0, 56, 0},
	{ 64, "Soprano Sax", 49, 143, 147, 2, 1, 97, 0, 114, 11, 0, 56, 0},
	{ 65, "Alto Sax", 49, 142, 147, 3, 1, 97, 0, 114, 9, 0, 56, 0},
	{ 66, "Tenor Sax", 49, 145, 147, 3, 1, 97, 0, 130, 9, 0, 58, 0},
	{ 67, "Baritone Sax", 49, 142, 147, 15, 1, 97, 0, 114, 15, 0, 58, 0},
	{ 68, "Oboe", 33, 75, 170, 22, 1, 33, 0, 143, 10, 0, 56, 0},
	{ 69, "English Horn", 49, 144, 126, 23, 1, 33, 0, 139, 12, 1, 54, 0},
	{ 70, "Bassoon", 49, 129, 117, 25, 1, 50, 0, 97, 25, 0, 48, 0},
	{ 71, "Clarinet", 50, 144, 155, 33, 0, 33, 0, 114, 23, 0, 52, 0},
	{ 72, "Piccolo", 225, 31, 133, 95, 0, 225, 0, 101, 26, 0, 48, 0},
	{ 73, "Flute", 225, 70, 136, 95, 0, 225, 0, 101, 26, 0, 48, 0},
	{ 74, "Recorder", 161, 156, 117, 31, 0, 33, 0, 117, 10, 0, 50, 0},
	{ 75, "Pan Flute", 49, 139, 132, 88, 0, 33, 0, 101, 26, 0, 48, 0},
	{ 76, "Bottle Blow", 225, 76, 102, 86, 0, 161, 0, 101, 38, 0, 48, 0},
	{ 77, "Shakuhachi", 98, 203, 118, 70, 0, 161, 0, 85, 54, 0, 48, 0},
	{ 78, "Whistle", 98, 153, 87, 7, 0, 161, 0, 86, 7, 0, 59, 0},
	{ 79, "Ocarina", 98, 147, 119, 7, 0, 161, 0, 118, 7, 0, 59, 0},
	{ 80, "Lead 1 squareea", 34, 89, 255, 3, 2, 33, 0, 255, 15, 0, 48, 0},
	{ 81, "Lead 2 sawtooth", 33, 14, 255, 15, 1, 33, 0, 255, 15, 1, 48, 0},
	{ 82, "Lead 3 calliope", 34, 70, 134, 85, 0, 33, 128, 100, 24, 0, 48, 0},
	{ 83, "Lead 4 chiff", 33, 69, 102, 18, 0, 161, 0, 150, 10, 0, 48, 0},
	{ 84, "Lead 5 charang", 33, 139, 146, 42, 1, 34, 0, 145, 42, 0, 48, 0},
	{ 85, "Lead 6 voice", 162, 158, 223, 5, 0, 97, 64, 111, 7, 0, 50, 0},
	{ 86, "Lead 7 fifths", 32, 26, 239, 1, 0, 96, 0, 143, 6, 2, 48, 0},
	{ 87, "Lead 8 brass", 33, 143, 241, 41, 0, 33, 128, 244, 9, 0, 58, 0},
	{ 88, "Pad 1 new age", 119, 165, 83, 148, 0, 161, 0, 160, 5, 0, 50, 0},
	{ 89, "Pad 2 warm", 97, 31, 168, 17, 0, 177, 128, 37, 3, 0, 58, 0},
	{ 90, "Pad 3 polysynth", 97, 23, 145, 52, 0, 97, 0, 85, 22, 0, 60, 0},
	{ 91, "Pad 4 choir", 113, 93, 84, 1, 0, 114, 0, 106, 3, 0, 48, 0},
	{ 92, "Pad 5 bowedpad", 33, 151, 33, 67, 0, 162, 0, 66, 53, 0, 56, 0},
	{ 93, "Pad 6 metallic", 161, 28, 161, 119, 1, 33, 0, 49, 71, 1, 48, 0},
	{ 94, "Pad 7 halo", 33, 137, 17, 51, 0, 97, 3, 66, 37, 0, 58, 0},
	{ 95, "Pad 8 sweep", 161, 21, 17, 71, 1, 33, 0, 207, 7, 0, 48, 0},
	{ 96, "FX 1 rain", 58, 206, 248, 246, 0, 81, 0, 134, 2, 0, 50, 0},
	{ 97, "FX 2 soundtrack", 33, 21, 33, 35, 1, 33, 0, 65, 19, 0, 48, 0},
	{ 98, "FX 3 crystal", 6, 91, 116, 149, 0, 1, 0, 165, 114, 0, 48, 0},
	{ 99, "FX 4 atmosphere", 34, 146, 177, 129, 0, 97, 131, 242, 38, 0, 60, 0},
	{100, "FX 5 brightness", 65, 77, 241, 81, 1, 66, 0, 242, 245, 0, 48, 0},
	{101, "FX 6 goblins", 97, 148, 17, 81, 1, 163, 128, 17, 19, 0, 54, 0},
	{102, "FX 7 echoes", 97, 140, 17, 49, 0, 161, 128, 29, 3, 0, 54, 0},
	{103, "FX 8 sci-fi", 164, 76, 243, 115, 1, 97, 0, 129, 35, 0, 52, 0},
	{104, "Sitar", 2, 133, 210, 83, 0, 7, 3, 242, 246, 1, 48, 0},
	{105, "Banjo", 17, 12, 163, 17, 1, 19, 128, 162, 229, 0, 48, 0},
	{106, "Shamisen", 17, 6, 246, 65, 1, 17, 0, 242, 230, 2, 52, 0},
	{107, "Koto", 147, 145, 212, 50, 0, 145, 0, 235, 17, 1, 56, 0},
	{108, "Kalimba", 4, 79, 250, 86, 0, 1, 0, 194, 5, 0, 60, 0},
	{109, "Bagpipe", 33, 73, 124, 32, 0, 34, 0, 111, 12, 1, 54, 0},
	{110, "Fiddle", 49, 133, 221, 51, 1, 33, 0, 86, 22, 0, 58, 0},
	{111, "Shanai", 32, 4, 218, 5, 2, 33, 129, 143, 11, 0, 54, 0},
	{112, "Tinkle Bell", 5, 106, 241, 229, 0, 3, 128, 195, 229, 0, 54, 0},
	{113, "Agogo Bells", 7, 21, 236, 38, 0, 2, 0, 248, 22, 0, 58, 0},
	{114, "Steel Drums", 5, 157, 103, 53, 0, 1, 0, 223, 5, 0, 56, 0},
	{115, "Woodblock", 24, 150, 250, 40, 0, 18, 0, 248, 229, 0, 58, 0},
	{116, "Taiko Drum", 16, 134, 168, 7, 0, 0, 3, 250, 3, 0, 54, 0},
	{117, "Melodic Tom", 17, 65, 248, 71, 2, 16, 3, 243, 3, 0, 52, 0},
	{118, "Synth Drum", 1, 142, 241, 6, 2, 16, 0, 243, 2, 0, 62, 0},
	{119, "Reverse Cymbal", 14, 0, 31, 0, 0, 192, 0, 31, 255, 3, 62, 0},
	{120, "Guitar FretNoise", 6, 128, 248, 36, 0, 3, 136, 86, 132, 2, 62, 0},
	{121, "Breath Noise", 14, 0, 248, 0, 0, 208, 5, 52, 4, 3, 62, 0},
	{122, "Seashore", 14, 0, 246, 0, 0, 192, 0, 31, 2, 3, 62, 0},
	{123, "Bird Tweet", 213, 149, 55, 163, 0, 218, 64, 86, 55, 0, 48, 0},
	{124, "Telephone", 53, 92, 178, 97, 2, 20, 8, 244, 21, 0, 58, 0},
	{125, "Helicopter", 14, 0, 246, 0, 0, 208, 0, 79, 245, 3, 62, 0},
	{126, "Applause/Noise", 38, 0, 255, 1, 0, 228, 0, 18, 22, 1, 62, 0},
	{127, "Gunshot", 0, 0, 243, 240, 0, 0, 0, 246, 201, 2, 62, 0},
	{128, "Ac Bass Drum", 16, 68, 248, 119, 2, 17, 0, 243, 6, 0, 56, 35},
	{129, "Bass Drum 1", 16, 68, 248, 119, 2, 17, 0, 243, 6, 0, 56, 35},
	{130, "Side Stick", 2, 7, 249, 255, 0, 17, 0, 248, 255, 0, 56, 52},
	{131, "Acoustic Snare", 0, 0, 252, 5, 2, 0, 0, 250, 23, 0, 62, 48},
	{132, "Hand Clap", 0, 2, 255, 7, 0, 1, 0, 255, 8, 0, 48, 58},
	{133, "Electric Snare", 0, 0, 252, 5, 2, 0, 0, 250, 23, 0, 62, 60},
	{134, "Low Floor Tom", 0, 0, 246, 12, 0, 0, 0, 246, 6, 0, 52, 47},
	{135, "Closed High Hat", 12, 0, 246, 8, 0, 18, 0, 251, 71, 2, 58, 43},
	{136, "High Floor Tom", 0, 0, 246, 12, 0, 0, 0, 246, 6, 0, 52, 49},
	{137, "Pedal High Hat", 12, 0, 246, 8, 0, 18, 5, 123, 71, 2, 58, 43},
	{138, "Low Tom", 0, 0, 246, 12, 0, 0, 0, 246, 6, 0, 52, 51},
	{139, "Open High Hat", 12, 0, 246, 2, 0, 18, 0, 203, 67, 2, 58, 43},
	{140, "Low-Mid Tom", 0, 0, 246, 12, 0, 0, 0, 246, 6, 0, 52, 54},
	{141, "High-Mid Tom", 0, 0, 246, 12, 0, 0, 0, 246, 6, 0, 52, 57},
	{142, "Crash Cymbal 1", 14, 0, 246, 0, 0, 208, 0, 159, 2, 3, 62, 72},
	{143, "High Tom", 0, 0, 246, 12, 0, 0, 0, 246, 6, 0, 52, 60},
	{144, "Ride Cymbal 1", 14, 8, 248, 66, 0, 7, 74, 244, 228, 3, 62, 76},
	{145, "Chinese Cymbal", 14, 0, 245, 48, 0, 208, 10, 159, 2, 0, 62, 84},
	{146, "Ride Bell", 14, 10, 228, 228, 3, 7, 93, 245, 229, 1, 54, 36},
	{147, "Tambourine", 2, 3, 180, 4, 0, 5, 10, 151, 247, 0, 62, 65},
	{148, "Splash Cymbal", 78, 0, 246, 0, 0, 158, 0, 159, 2, 3, 62, 84},
	{149, "Cow Bell", 17, 69, 248, 55, 2, 16, 8, 243, 5, 0, 56, 83},
	{150, "Crash Cymbal 2", 14, 0, 246, 0, 0, 208, 0, 159, 2, 3, 62, 84},
	{151, "Vibraslap", 128, 0, 255, 3, 3, 16, 13, 255, 20, 0, 60, 24},
	{152, "Ride Cymbal 2", 14, 8, 248, 66, 0, 7, 74, 244, 228, 3, 62, 77},
	{153, "High Bongo", 6, 11, 245, 12, 0, 2, 0, 245, 8, 0, 54, 60},
	{154, "Low Bongo", 1, 0, 250, 191, 0, 2, 0, 200, 151, 0, 55, 65},
	{155, "Mute High Conga", 1, 81, 250, 135, 0, 1, 0, 250, 183, 0, 54, 59},
	{156, "Open High Conga", 1, 84, 250, 141, 0, 2, 0, 248, 184, 0, 54, 51},
	{157, "Low Conga", 1, 89, 250, 136, 0, 2, 0, 248, 182, 0, 54, 45},
	{158, "High Timbale", 1, 0, 249, 10, 3, 0, 0, 250, 6, 0, 62, 71},
	{159, "Low Timbale", 0, 128, 249, 137, 3, 0, 0, 246, 108, 0, 62, 60},
	{160, "High Agogo", 3, 128, 248, 136, 3, 12, 8, 246, 182, 0, 63, 58},
	{161, "Low Agogo", 3, 133, 248, 136, 3, 12, 0, 246, 182, 0, 63, 53},
	{162, "Cabasa", 14, 64, 118, 79, 0, 0, 8, 119, 24, 2, 62, 64},
	{163, "Maracas", 14, 64, 200, 73, 0, 3, 0, 155, 105, 2, 62, 71},
	{164, "Short Whistle", 215, 220, 173, 5, 3, 199, 0, 141, 5, 0, 62, 61},
	{165, "Long Whistle", 215, 220, 168, 4, 3, 199, 0, 136, 4, 0, 62, 61},
	{166, "Short Guiro", 128, 0, 246, 6, 3, 17, 0, 103, 23, 3, 62, 44},
	{167, "Long Guiro", 128, 0, 245, 5, 2, 17, 9, 70, 22, 3, 62, 40},
	{168, "Claves", 6, 63, 0, 244, 0, 21, 0, 247, 245, 0, 49, 69},
	{169, "High Wood Block", 6, 63, 0, 244, 3, 18, 0, 247, 245, 0, 48, 68},
	{170, "Low Wood Block", 6, 63, 0, 244, 0, 18, 0, 247, 245, 0, 49, 63},
	{171, "Mute Cuica", 1, 88, 103, 231, 0, 2, 0, 117, 7, 0, 48, 74},
	{172, "Open Cuica", 65, 69, 248, 72, 0, 66, 8, 117, 5, 0, 48, 60},
	{173, "Mute Triangle", 10, 64, 224, 240, 3, 30, 78, 255, 5, 0, 56, 80},
	{174, "Open Triangle", 10, 124, 224, 240, 3, 30, 82, 255, 2, 0, 56, 64},
	{175, "Shaker", 14, 64, 122, 74, 0, 0, 8, 123, 27, 2, 62, 72},
	{176, "Jingle Bell", 14, 10, 228, 228, 3, 7, 64, 85, 57, 1, 54, 73},
	{177, "Bell Tree", 5, 5, 249, 50, 3, 4, 64, 214, 165, 0, 62, 70},
	{178, "Castanets", 2, 63, 0, 243, 3, 21, 0, 247, 245, 0, 56, 68},
	{179, "Mute Surdo", 1, 79, 250, 141, 0, 2, 0, 248, 181, 0, 55, 48},
	{180, "Open Surdo", 0, 0, 246, 12, 0, 0, 0, 246, 6, 0, 52, 53},
}

// oplMultiple maps an OPL2 Multiple nibble (register bits 3-0) to the
// frequency ratio the hardware's internal multiplier table produces; 11 and
// 13 are not present in the real table (it repeats the neighboring even
// value), matching the Yamaha YM3812 datasheet.
var oplMultipleTable = [16]float64{
	0.5, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 10, 12, 12, 15, 15,
}

func oplMultiple(char1 uint8) float64 {
	return oplMultipleTable[char1&0x0F]
}

// oplTotalLevel converts a 6-bit Total Level (register bits 5-0, 0=loudest,
// 63=silent, ~0.75dB per step) to our 0 (loud) .. 1 (silent) attenuation.
func oplTotalLevel(char2 uint8) float64 {
	return float64(char2&0x3F) / 63.0
}

// oplRateSeconds approximates an OPL2 Attack/Decay/Release rate nibble
// (0=slowest, 15=fastest) as a continuous-time constant, since the engine
// in fmengine.go models envelopes in real seconds rather than per-sample
// hardware rate ticks. Rate 0 is floored to 8s (effectively never completing
// within a note's lifetime, the closest continuous analogue of the
// hardware's "rate disabled" behavior); this is a documented simplification,
// not a claim of sample-accurate OPL timing.
func oplRateSeconds(rate uint8) float64 {
	rate &= 0x0F
	if rate == 0 {
		return 8.0
	}
	return 2.0 / math.Pow(2, float64(rate)/4.0)
}

// oplSustainLevel converts a 4-bit Sustain Level (register bits 7-4,
// 0=loudest, 15=quietest/effectively silent) to our 0..1 held level.
func oplSustainLevel(char4 uint8) float64 {
	sl := (char4 >> 4) & 0x0F
	return 1.0 - float64(sl)/15.0
}

// oplWaveform extracts the 3-bit waveform select from an OPL2/3 waveform
// register's low bits.
func oplWaveform(char5 uint8) Waveform {
	return Waveform(char5 & 0x07)
}

// decodeOPLOperator turns one operator's five OPL2 register bytes
// (char1: AM/VIB/EG-TYP/KSR/Multiple, char2: KSL/Total-Level,
// char3: Attack-Rate/Decay-Rate, char4: Sustain-Level/Release-Rate,
// char5: Waveform select) into an FmOperator.
func decodeOPLOperator(char1, char2, char3, char4, char5 uint8) FmOperator {
	ar := (char3 >> 4) & 0x0F
	dr := char3 & 0x0F
	rr := char4 & 0x0F
	return FmOperator{
		Multiple:   oplMultiple(char1),
		TotalLevel: oplTotalLevel(char2),
		AttackSec:  oplRateSeconds(ar),
		DecaySec:   oplRateSeconds(dr),
		SustainLvl: oplSustainLevel(char4),
		ReleaseSec: oplRateSeconds(rr),
		Waveform:   oplWaveform(char5),
	}
}

// decodeAlgorithmFeedback splits an OPL2 fbConn byte (register 0xC0) into
// the connection/algorithm bit (0=FM serial, 1=additive — an exact match for
// FmPatch.Algorithm's existing semantics) and a normalized 0..1 feedback
// amount from the 3-bit feedback field.
func decodeAlgorithmFeedback(fbConn uint8) (algorithm int, feedback float64) {
	algorithm = int(fbConn & 0x01)
	feedback = float64((fbConn>>1)&0x07) / 7.0
	return algorithm, feedback
}

// FmPatchTable is indexed by PatchId: 0..127 General MIDI melodic programs,
// 128..180 percussion voices (GM percussion keys 35..87).
var FmPatchTable = buildFmPatchTable()

func buildFmPatchTable() []FmPatch {
	table := make([]FmPatch, len(rawFmPatches))
	for i, raw := range rawFmPatches {
		algorithm, feedback := decodeAlgorithmFeedback(raw.FbConn)
		table[i] = FmPatch{
			PatchId:   raw.PatchId,
			Name:      raw.Name,
			Algorithm: algorithm,
			Feedback:  feedback,
			Modulator: decodeOPLOperator(raw.ModChar1, raw.ModChar2, raw.ModChar3, raw.ModChar4, raw.ModChar5),
			Carrier:   decodeOPLOperator(raw.CarChar1, raw.CarChar2, raw.CarChar3, raw.CarChar4, raw.CarChar5),
			PercNote:  int(raw.PercNote),
		}
	}
	return table
}
