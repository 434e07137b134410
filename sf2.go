package midisynth

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// SoundFont-2 bank parsing, grounded on Alextopher-sf/hydra.go's record
// layouts (PresetHeader/Instrument/SampleHeader, 38/22/46-byte records) and
// chunk.go's generic RIFF chunk reader. This core implements the
// simplified preset -> instrument -> zone model described in spec.md §4.2:
// only the keyRange, velRange and sampleID generators are honored, so
// layered/split instruments built from richer generator chains collapse to
// their first matching zone. Modulator chunks (pmod/imod) are skipped
// without being parsed or evaluated.

// SF generator enumeration values this core understands; all others are
// skipped. Matches the SoundFont 2 spec's numbering (see hydra.go's
// SFGenerator for the full, unused, enumeration).
const (
	sfGenKeyRange  = 43
	sfGenVelRange  = 44
	sfGenSampleID  = 53
)

type sfZone struct {
	KeyLo, KeyHi int
	VelLo, VelHi int
	SampleIndex  int
	HasSample    bool
}

// Sf2Sample is one decoded sample, referencing the shared 16-bit PCM pool
// rather than copying it.
type Sf2Sample struct {
	Name            string
	Start, End      uint32 // indices into the bank's shared PCM pool
	LoopStart       uint32
	LoopEnd         uint32
	SampleRate      uint32
	OriginalPitch   int
	PitchCorrection int
}

// Sf2Instrument is a flat list of zones, each optionally restricted by key
// and velocity range (spec.md §4.2).
type Sf2Instrument struct {
	Name  string
	Zones []sfZone
}

// Sf2Preset maps a (bank, program) pair to one instrument.
type Sf2Preset struct {
	Name          string
	Bank, Program int
	InstrumentIdx int
}

// Sf2Bank is a fully parsed SoundFont-2 file.
type Sf2Bank struct {
	Samples     []Sf2Sample
	Instruments []Sf2Instrument
	Presets     []Sf2Preset
	PCMPool     []int16 // shared 16-bit sample pool backing every Sf2Sample
}

// LoadSF2 parses a SoundFont-2 bank per spec.md §4.2/§6.
func LoadSF2(data []byte) (*Sf2Bank, error) {
	r := bytes.NewReader(data)

	riff, err := expectRIFFTag(r, "RIFF")
	if err != nil {
		return nil, newErr(KindParseError, "LoadSF2", err)
	}
	body := bytes.NewReader(riff.Data)
	var form [4]byte
	if _, err := body.Read(form[:]); err != nil || string(form[:]) != "sfbk" {
		return nil, newErr(KindParseError, "LoadSF2", errBadSfbk)
	}

	var pcmPool []int16
	var hydra *sfHydra

	for body.Len() > 0 {
		chunk, err := readRIFFChunk(body)
		if err != nil {
			return nil, newErr(KindParseError, "LoadSF2", err)
		}
		switch chunk.TagString() {
		case "LIST":
			listR := bytes.NewReader(chunk.Data)
			var listType [4]byte
			if _, err := listR.Read(listType[:]); err != nil {
				return nil, newErr(KindParseError, "LoadSF2", err)
			}
			switch string(listType[:]) {
			case "sdta":
				pool, err := readSdtaList(listR)
				if err != nil {
					return nil, newErr(KindParseError, "LoadSF2", err)
				}
				pcmPool = pool
			case "pdta":
				h, err := readPdtaList(listR)
				if err != nil {
					return nil, newErr(KindParseError, "LoadSF2", err)
				}
				hydra = h
			default:
				// INFO and any other LIST chunks carry metadata this core
				// does not need (author, copyright, etc.).
			}
		default:
			// Ignore top-level chunks outside any LIST (none expected, but
			// a tolerant reader skips rather than fails).
		}
	}

	if hydra == nil {
		return nil, newErr(KindParseError, "LoadSF2", fmt.Errorf("missing pdta chunk"))
	}
	for _, sh := range hydra.sampleHeaders {
		if sh.SampleType&0x10 != 0 {
			return nil, newErr(KindUnsupportedFeature, "LoadSF2", errCompressedSamples)
		}
	}

	bank := &Sf2Bank{PCMPool: pcmPool}
	bank.Samples = buildSf2Samples(hydra)
	bank.Instruments = buildSf2Instruments(hydra)
	bank.Presets = buildSf2Presets(hydra)
	return bank, nil
}

func readSdtaList(r *bytes.Reader) ([]int16, error) {
	var pool []int16
	for r.Len() > 0 {
		chunk, err := readRIFFChunk(r)
		if err != nil {
			return nil, err
		}
		if chunk.TagString() != "smpl" {
			continue // sm24 (24-bit low-byte extension) is not honored
		}
		if len(chunk.Data)%2 != 0 {
			return nil, fmt.Errorf("%w: smpl chunk has odd byte length", errBadRIFF)
		}
		pool = make([]int16, len(chunk.Data)/2)
		cr := bytes.NewReader(chunk.Data)
		if err := binary.Read(cr, binary.LittleEndian, &pool); err != nil {
			return nil, fmt.Errorf("%w: %v", errTruncated, err)
		}
	}
	return pool, nil
}

// sfHydra mirrors Alextopher-sf/hydra.go's SoundFontHydra, trimmed to the
// records this core actually consumes.
type sfHydra struct {
	presetHeaders []sfPresetHeader
	presetBags    []sfBag
	presetGens    []sfGenerator
	instruments   []sfInstrument
	instBags      []sfBag
	instGens      []sfGenerator
	sampleHeaders []sfSampleHeader
}

type sfPresetHeader struct {
	PresetName   [20]byte
	Preset       uint16
	Bank         uint16
	PresetBagNdx uint16
	Library      uint32
	Genre        uint32
	Morphology   uint32
}

type sfInstrument struct {
	Name       [20]byte
	InstBagNdx uint16
}

type sfBag struct {
	GenIndex, ModIndex uint16
}

type sfGenerator struct {
	GenOper   uint16
	GenAmount int16
}

type sfSampleHeader struct {
	SampleName      [20]byte
	Start           uint32
	End             uint32
	Startloop       uint32
	Endloop         uint32
	SampleRate      uint32
	OriginalPitch   uint8
	PitchCorrection int8
	SampleLink      uint16
	SampleType      uint16
}

func readPdtaList(r *bytes.Reader) (*sfHydra, error) {
	h := &sfHydra{}
	for r.Len() > 0 {
		chunk, err := readRIFFChunk(r)
		if err != nil {
			return nil, err
		}
		cr := bytes.NewReader(chunk.Data)
		switch chunk.TagString() {
		case "phdr":
			n, err := recordCount(chunk.Data, 38, "phdr")
			if err != nil {
				return nil, err
			}
			h.presetHeaders = make([]sfPresetHeader, n)
			for i := range h.presetHeaders {
				if err := binary.Read(cr, binary.LittleEndian, &h.presetHeaders[i]); err != nil {
					return nil, fmt.Errorf("%w: phdr[%d]: %v", errTruncated, i, err)
				}
			}
		case "pbag":
			n, err := recordCount(chunk.Data, 4, "pbag")
			if err != nil {
				return nil, err
			}
			h.presetBags = make([]sfBag, n)
			for i := range h.presetBags {
				if err := binary.Read(cr, binary.LittleEndian, &h.presetBags[i]); err != nil {
					return nil, fmt.Errorf("%w: pbag[%d]: %v", errTruncated, i, err)
				}
			}
		case "pgen":
			n, err := recordCount(chunk.Data, 4, "pgen")
			if err != nil {
				return nil, err
			}
			h.presetGens = make([]sfGenerator, n)
			for i := range h.presetGens {
				if err := binary.Read(cr, binary.LittleEndian, &h.presetGens[i]); err != nil {
					return nil, fmt.Errorf("%w: pgen[%d]: %v", errTruncated, i, err)
				}
			}
		case "inst":
			n, err := recordCount(chunk.Data, 22, "inst")
			if err != nil {
				return nil, err
			}
			h.instruments = make([]sfInstrument, n)
			for i := range h.instruments {
				if err := binary.Read(cr, binary.LittleEndian, &h.instruments[i]); err != nil {
					return nil, fmt.Errorf("%w: inst[%d]: %v", errTruncated, i, err)
				}
			}
		case "ibag":
			n, err := recordCount(chunk.Data, 4, "ibag")
			if err != nil {
				return nil, err
			}
			h.instBags = make([]sfBag, n)
			for i := range h.instBags {
				if err := binary.Read(cr, binary.LittleEndian, &h.instBags[i]); err != nil {
					return nil, fmt.Errorf("%w: ibag[%d]: %v", errTruncated, i, err)
				}
			}
		case "igen":
			n, err := recordCount(chunk.Data, 4, "igen")
			if err != nil {
				return nil, err
			}
			h.instGens = make([]sfGenerator, n)
			for i := range h.instGens {
				if err := binary.Read(cr, binary.LittleEndian, &h.instGens[i]); err != nil {
					return nil, fmt.Errorf("%w: igen[%d]: %v", errTruncated, i, err)
				}
			}
		case "shdr":
			n, err := recordCount(chunk.Data, 46, "shdr")
			if err != nil {
				return nil, err
			}
			h.sampleHeaders = make([]sfSampleHeader, n)
			for i := range h.sampleHeaders {
				if err := binary.Read(cr, binary.LittleEndian, &h.sampleHeaders[i]); err != nil {
					return nil, fmt.Errorf("%w: shdr[%d]: %v", errTruncated, i, err)
				}
			}
		case "pmod", "imod":
			// Modulators are parsed structurally by the reference reader but
			// this core never evaluates them (spec.md §4.2 simplification);
			// skip the bytes entirely.
		}
	}
	return h, nil
}

func recordCount(data []byte, recordSize int, chunkName string) (int, error) {
	if len(data)%recordSize != 0 {
		return 0, fmt.Errorf("%w: %s chunk size %d not a multiple of %d", errBadRIFF, chunkName, len(data), recordSize)
	}
	return len(data) / recordSize, nil
}

func cstr(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// buildSf2Samples converts every non-terminator sample header (hydra.go's
// convention: a final all-zero record terminates each pdta list) into an
// Sf2Sample.
func buildSf2Samples(h *sfHydra) []Sf2Sample {
	if len(h.sampleHeaders) == 0 {
		return nil
	}
	out := make([]Sf2Sample, 0, len(h.sampleHeaders)-1)
	for _, s := range h.sampleHeaders[:len(h.sampleHeaders)-1] {
		out = append(out, Sf2Sample{
			Name:            cstr(s.SampleName[:]),
			Start:           s.Start,
			End:             s.End,
			LoopStart:       s.Startloop,
			LoopEnd:         s.Endloop,
			SampleRate:      s.SampleRate,
			OriginalPitch:   clampOriginalPitch(s.OriginalPitch),
			PitchCorrection: int(s.PitchCorrection),
		})
	}
	return out
}

func clampOriginalPitch(p uint8) int {
	if p > 127 {
		return 60 // spec'd fallback for illegal/255 original pitch values
	}
	return int(p)
}

// buildSf2Instruments walks inst -> ibag -> igen, extracting only the
// keyRange/velRange/sampleID generators per zone (spec.md §4.2).
func buildSf2Instruments(h *sfHydra) []Sf2Instrument {
	if len(h.instruments) == 0 {
		return nil
	}
	out := make([]Sf2Instrument, 0, len(h.instruments)-1)
	for i := 0; i < len(h.instruments)-1; i++ {
		inst := h.instruments[i]
		next := h.instruments[i+1]
		zones := extractZones(h.instBags, h.instGens, int(inst.InstBagNdx), int(next.InstBagNdx))
		if len(zones) == 0 {
			// spec.md §3: "An implicit default zone (all keys, all
			// velocities, first sample) is synthesized when no explicit
			// zones exist."
			zones = []sfZone{{KeyLo: 0, KeyHi: 127, VelLo: 0, VelHi: 127, SampleIndex: 0, HasSample: true}}
		}
		out = append(out, Sf2Instrument{Name: cstr(inst.Name[:]), Zones: zones})
	}
	return out
}

func extractZones(bags []sfBag, gens []sfGenerator, bagLo, bagHi int) []sfZone {
	var zones []sfZone
	for b := bagLo; b < bagHi && b+1 < len(bags); b++ {
		genLo := int(bags[b].GenIndex)
		genHi := int(bags[b+1].GenIndex)
		z := sfZone{KeyLo: 0, KeyHi: 127, VelLo: 0, VelHi: 127}
		for g := genLo; g < genHi && g < len(gens); g++ {
			gen := gens[g]
			switch gen.GenOper {
			case sfGenKeyRange:
				z.KeyLo, z.KeyHi = int(uint8(gen.GenAmount)), int(uint8(gen.GenAmount>>8))
			case sfGenVelRange:
				z.VelLo, z.VelHi = int(uint8(gen.GenAmount)), int(uint8(gen.GenAmount>>8))
			case sfGenSampleID:
				z.SampleIndex = int(gen.GenAmount)
				z.HasSample = true
			}
		}
		zones = append(zones, z)
	}
	return zones
}

// buildSf2Presets walks phdr -> pbag -> pgen, resolving each preset zone's
// instrument generator (a preset zone without an instrument generator, or
// the preset's global zone, is skipped: spec.md §4.2 only models the
// common one-instrument-per-preset case).
func buildSf2Presets(h *sfHydra) []Sf2Preset {
	if len(h.presetHeaders) == 0 {
		return nil
	}
	const sfGenInstrument = 41
	out := make([]Sf2Preset, 0, len(h.presetHeaders)-1)
	for i := 0; i < len(h.presetHeaders)-1; i++ {
		ph := h.presetHeaders[i]
		next := h.presetHeaders[i+1]
		instIdx := -1
		for b := int(ph.PresetBagNdx); b < int(next.PresetBagNdx) && b+1 < len(h.presetBags); b++ {
			genLo := int(h.presetBags[b].GenIndex)
			genHi := int(h.presetBags[b+1].GenIndex)
			for g := genLo; g < genHi && g < len(h.presetGens); g++ {
				if h.presetGens[g].GenOper == sfGenInstrument {
					instIdx = int(h.presetGens[g].GenAmount)
				}
			}
			if instIdx >= 0 {
				break
			}
		}
		if instIdx < 0 {
			continue
		}
		out = append(out, Sf2Preset{
			Name:          cstr(ph.PresetName[:]),
			Bank:          int(ph.Bank),
			Program:       int(ph.Preset),
			InstrumentIdx: instIdx,
		})
	}
	return out
}

// FindPreset returns the preset matching bank/program, or nil.
func (b *Sf2Bank) FindPreset(bank, program int) *Sf2Preset {
	for i := range b.Presets {
		if b.Presets[i].Bank == bank && b.Presets[i].Program == program {
			return &b.Presets[i]
		}
	}
	return nil
}

// FindZone returns the first zone in instrument idx whose key/velocity
// range contains note/vel, per spec.md §4.2's "first matching zone wins"
// simplification.
func (inst *Sf2Instrument) FindZone(note, vel int) (sfZone, bool) {
	for _, z := range inst.Zones {
		if !z.HasSample {
			continue
		}
		if note >= z.KeyLo && note <= z.KeyHi && vel >= z.VelLo && vel <= z.VelHi {
			return z, true
		}
	}
	return sfZone{}, false
}
