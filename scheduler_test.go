package midisynth

import "testing"

// newTestScore builds a two-track MidiScore by hand (bypassing LoadMIDI) so
// the scheduler's tick-merge algorithm can be exercised directly against
// known delta sequences.
func newTestScore(ticksPerQtr, tempoUs int, tracks ...[]trackEvent) *MidiScore {
	s := &MidiScore{
		TicksPerQtr:   ticksPerQtr,
		TempoUsPerQtr: tempoUs,
	}
	for _, evs := range tracks {
		tc := TrackCursor{evs: evs}
		if len(evs) > 0 {
			tc.delay = evs[0].delta
		} else {
			tc.done = true
		}
		s.Tracks = append(s.Tracks, tc)
	}
	return s
}

func eotEvent() trackEvent {
	return trackEvent{delta: 0, ev: MidiEvent{Kind: EventMeta, MetaType: metaEndOfTrack}}
}

func TestSchedulerDispatchesInTickOrder(t *testing.T) {
	score := newTestScore(96, 500000,
		[]trackEvent{
			{delta: 0, ev: MidiEvent{Kind: EventNoteOn, Channel: 0, Note: 60}},
			{delta: 96, ev: MidiEvent{Kind: EventNoteOff, Channel: 0, Note: 60}},
			eotEvent(),
		},
	)

	var dispatched []MidiEvent
	sched := NewScheduler(score, false, func(trackIdx int, ev MidiEvent) {
		if ev.Kind != EventMeta {
			dispatched = append(dispatched, ev)
		}
	})

	// One quarter note of ticks (96) at 500000us/qtr = 0.5s; advance a
	// little further so the boundary-exact NoteOff/EOT tick is reached too.
	sched.Advance(0.6)

	if len(dispatched) != 2 {
		t.Fatalf("expected NoteOn+NoteOff dispatched, got %d events: %+v", len(dispatched), dispatched)
	}
	if dispatched[0].Kind != EventNoteOn || dispatched[1].Kind != EventNoteOff {
		t.Errorf("unexpected dispatch order: %+v", dispatched)
	}
	if !sched.Done() {
		t.Error("expected scheduler to be Done after its single track's End-of-Track")
	}
}

func TestSchedulerEndsWithoutLoop(t *testing.T) {
	score := newTestScore(96, 500000,
		[]trackEvent{
			{delta: 0, ev: MidiEvent{Kind: EventNoteOn, Channel: 0, Note: 60}},
			eotEvent(),
		},
	)

	sched := NewScheduler(score, false, func(trackIdx int, ev MidiEvent) {})
	sched.Advance(10.0) // far beyond the track's single tick

	if !sched.Done() {
		t.Error("expected scheduler to report Done after the only track reaches End-of-Track")
	}
}

func TestSchedulerLoopMarkerRestoresSnapshot(t *testing.T) {
	score := newTestScore(96, 500000,
		[]trackEvent{
			{delta: 0, ev: MidiEvent{Kind: EventMeta, MetaType: metaText, Data: []byte("loopStart")}},
			{delta: 96, ev: MidiEvent{Kind: EventNoteOn, Channel: 0, Note: 60}},
			{delta: 0, ev: MidiEvent{Kind: EventMeta, MetaType: metaText, Data: []byte("loopEnd")}},
			eotEvent(),
		},
	)

	var noteOns int
	var sched *Scheduler
	sched = NewScheduler(score, true, func(trackIdx int, ev MidiEvent) {
		if ev.Kind == EventMeta {
			switch ev.MetaType {
			case metaText:
				switch string(ev.Data) {
				case "loopStart":
					sched.MarkLoopStart()
				case "loopEnd":
					sched.MarkLoopEnd()
				}
			}
			return
		}
		if ev.Kind == EventNoteOn {
			noteOns++
		}
	})

	// Advance well past several loop iterations; the track never reaches
	// End-of-Track because loopEnd always restores the loopStart snapshot.
	sched.Advance(3.0)

	if noteOns < 2 {
		t.Errorf("expected the looped NoteOn to fire more than once, fired %d times", noteOns)
	}
	if sched.Done() {
		t.Error("scheduler must not report Done while a loop keeps restoring the snapshot")
	}
}

func TestSchedulerLoopMarkerIgnoredWhenDisabled(t *testing.T) {
	score := newTestScore(96, 500000,
		[]trackEvent{
			{delta: 0, ev: MidiEvent{Kind: EventMeta, MetaType: metaText, Data: []byte("loopStart")}},
			{delta: 96, ev: MidiEvent{Kind: EventNoteOn, Channel: 0, Note: 60}},
			{delta: 0, ev: MidiEvent{Kind: EventMeta, MetaType: metaText, Data: []byte("loopEnd")}},
			eotEvent(),
		},
	)

	var sched *Scheduler
	sched = NewScheduler(score, false, func(trackIdx int, ev MidiEvent) {
		if ev.Kind == EventMeta && ev.MetaType == metaText {
			switch string(ev.Data) {
			case "loopStart":
				sched.MarkLoopStart()
			case "loopEnd":
				sched.MarkLoopEnd()
			}
		}
	})

	sched.Advance(10.0)

	if !sched.Done() {
		t.Error("expected loop markers to be ignored under LoopOnce, reaching End-of-Track")
	}
}

func TestSchedulerSetTempoAppliesForward(t *testing.T) {
	score := newTestScore(96, 500000,
		[]trackEvent{
			{delta: 0, ev: MidiEvent{Kind: EventMeta, MetaType: metaTempo, Data: []byte{0, 0, 0}}},
			{delta: 96, ev: MidiEvent{Kind: EventNoteOn, Channel: 0, Note: 60}},
			eotEvent(),
		},
	)

	sched := NewScheduler(score, false, func(trackIdx int, ev MidiEvent) {})
	sched.SetTempo(250000) // double speed: 120bpm -> 240bpm

	sched.Advance(0.25) // 96 ticks at 250000us/qtr over 96 ticksPerQtr = 0.25s
	if sched.Done() {
		t.Fatal("did not expect the score to end before its NoteOn/EOT were dispatched")
	}
}
