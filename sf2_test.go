package midisynth

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// writeChunk appends tag+size+data (+pad byte if data is odd-length) to buf,
// mirroring the RIFF chunk layout readRIFFChunk expects.
func writeChunk(buf *bytes.Buffer, tag string, data []byte) {
	buf.WriteString(tag)
	binary.Write(buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	if len(data)%2 == 1 {
		buf.WriteByte(0)
	}
}

func encodeRecords(t *testing.T, records ...interface{}) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, r := range records {
		if err := binary.Write(&buf, binary.LittleEndian, r); err != nil {
			t.Fatalf("encoding record: %v", err)
		}
	}
	return buf.Bytes()
}

func nameField(name string) [20]byte {
	var n [20]byte
	copy(n[:], name)
	return n
}

// buildTestSF2 assembles a minimal, well-formed SoundFont2 file with one
// preset (bank 0, program 0) mapping to one instrument with a single
// all-keys/all-velocities zone referencing sample 0.
func buildTestSF2(t *testing.T) []byte {
	t.Helper()

	// sdta: 100 samples of a ramp.
	pcm := make([]int16, 100)
	for i := range pcm {
		pcm[i] = int16(i * 10)
	}
	var smplBuf bytes.Buffer
	binary.Write(&smplBuf, binary.LittleEndian, pcm)

	var sdtaBuf bytes.Buffer
	sdtaBuf.WriteString("sdta")
	writeChunk(&sdtaBuf, "smpl", smplBuf.Bytes())

	phdr := encodeRecords(t,
		sfPresetHeader{PresetName: nameField("lead"), Preset: 0, Bank: 0, PresetBagNdx: 0},
		sfPresetHeader{PresetName: nameField("EOP"), PresetBagNdx: 1},
	)
	pbag := encodeRecords(t,
		sfBag{GenIndex: 0, ModIndex: 0},
		sfBag{GenIndex: 1, ModIndex: 0},
	)
	const sfGenInstrument = 41
	pgen := encodeRecords(t,
		sfGenerator{GenOper: sfGenInstrument, GenAmount: 0},
	)
	inst := encodeRecords(t,
		sfInstrument{Name: nameField("lead-inst"), InstBagNdx: 0},
		sfInstrument{Name: nameField("EOI"), InstBagNdx: 1},
	)
	ibag := encodeRecords(t,
		sfBag{GenIndex: 0, ModIndex: 0},
		sfBag{GenIndex: 3, ModIndex: 0},
	)
	igen := encodeRecords(t,
		sfGenerator{GenOper: sfGenKeyRange, GenAmount: int16(0 | 127<<8)},
		sfGenerator{GenOper: sfGenVelRange, GenAmount: int16(0 | 127<<8)},
		sfGenerator{GenOper: sfGenSampleID, GenAmount: 0},
	)
	shdr := encodeRecords(t,
		sfSampleHeader{
			SampleName: nameField("sine"), Start: 0, End: 100,
			Startloop: 10, Endloop: 90, SampleRate: 44100,
			OriginalPitch: 60, PitchCorrection: 0, SampleLink: 0, SampleType: 1,
		},
		sfSampleHeader{SampleName: nameField("EOS")},
	)

	var pdtaBuf bytes.Buffer
	pdtaBuf.WriteString("pdta")
	writeChunk(&pdtaBuf, "phdr", phdr)
	writeChunk(&pdtaBuf, "pbag", pbag)
	writeChunk(&pdtaBuf, "pgen", pgen)
	writeChunk(&pdtaBuf, "inst", inst)
	writeChunk(&pdtaBuf, "ibag", ibag)
	writeChunk(&pdtaBuf, "igen", igen)
	writeChunk(&pdtaBuf, "shdr", shdr)

	var sfbkBuf bytes.Buffer
	sfbkBuf.WriteString("sfbk")
	writeChunk(&sfbkBuf, "LIST", sdtaBuf.Bytes())
	writeChunk(&sfbkBuf, "LIST", pdtaBuf.Bytes())

	var riffBuf bytes.Buffer
	writeChunk(&riffBuf, "RIFF", sfbkBuf.Bytes())

	return riffBuf.Bytes()
}

func TestLoadSF2Basic(t *testing.T) {
	bank, err := LoadSF2(buildTestSF2(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bank.Samples) != 1 {
		t.Fatalf("expected 1 sample (terminator excluded), got %d", len(bank.Samples))
	}
	if bank.Samples[0].Name != "sine" {
		t.Errorf("expected sample name %q, got %q", "sine", bank.Samples[0].Name)
	}
	if bank.Samples[0].SampleRate != 44100 {
		t.Errorf("expected sample rate 44100, got %d", bank.Samples[0].SampleRate)
	}

	if len(bank.Instruments) != 1 {
		t.Fatalf("expected 1 instrument (terminator excluded), got %d", len(bank.Instruments))
	}
	if len(bank.Instruments[0].Zones) != 1 {
		t.Fatalf("expected 1 zone, got %d", len(bank.Instruments[0].Zones))
	}

	if len(bank.Presets) != 1 {
		t.Fatalf("expected 1 preset (terminator excluded), got %d", len(bank.Presets))
	}

	preset := bank.FindPreset(0, 0)
	if preset == nil {
		t.Fatal("expected to find preset (bank=0, program=0)")
	}
	if preset.Name != "lead" {
		t.Errorf("expected preset name %q, got %q", "lead", preset.Name)
	}

	inst := &bank.Instruments[preset.InstrumentIdx]
	zone, ok := inst.FindZone(60, 100)
	if !ok {
		t.Fatal("expected note 60 vel 100 to match the all-keys zone")
	}
	if zone.SampleIndex != 0 {
		t.Errorf("expected zone to reference sample 0, got %d", zone.SampleIndex)
	}

	if len(bank.PCMPool) != 100 {
		t.Errorf("expected PCM pool of 100 samples, got %d", len(bank.PCMPool))
	}
}

func TestLoadSF2MissingPdta(t *testing.T) {
	var sfbkBuf bytes.Buffer
	sfbkBuf.WriteString("sfbk")
	var sdtaBuf bytes.Buffer
	sdtaBuf.WriteString("sdta")
	writeChunk(&sfbkBuf, "LIST", sdtaBuf.Bytes())

	var riffBuf bytes.Buffer
	writeChunk(&riffBuf, "RIFF", sfbkBuf.Bytes())

	if _, err := LoadSF2(riffBuf.Bytes()); err == nil {
		t.Error("expected an error loading an SF2 with no pdta chunk")
	}
}

func TestFindZoneNoMatchOutsideRange(t *testing.T) {
	inst := &Sf2Instrument{
		Zones: []sfZone{
			{KeyLo: 0, KeyHi: 59, VelLo: 0, VelHi: 127, SampleIndex: 0, HasSample: true},
			{KeyLo: 60, KeyHi: 127, VelLo: 0, VelHi: 127, SampleIndex: 1, HasSample: true},
		},
	}

	z, ok := inst.FindZone(61, 100)
	if !ok || z.SampleIndex != 1 {
		t.Errorf("expected note 61 to match the second zone, got zone=%+v ok=%v", z, ok)
	}

	z, ok = inst.FindZone(10, 100)
	if !ok || z.SampleIndex != 0 {
		t.Errorf("expected note 10 to match the first zone, got zone=%+v ok=%v", z, ok)
	}
}
