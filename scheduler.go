package midisynth

import (
	clone "github.com/huandu/go-clone/generic"
)

// Event Scheduler, grounded on the teacher's tick/tempo bookkeeping in
// player.go's setTempo/sequenceTick and generalized from MOD row-advance
// to the tick-merge algorithm of spec.md §4.4.

// schedulerSnapshot captures everything needed to restore playback to a
// loop point (spec.md §4.4 "On encountering loopStart, snapshot every
// track cursor ... and the current playwait"). Cloned with
// github.com/huandu/go-clone/generic the way the teacher clones testSong
// fixtures in helpers_test.go, applied here to a live runtime structure
// instead of only a test fixture.
type schedulerSnapshot struct {
	tracks   []TrackCursor
	playwait float64
	tempo    int
}

// Scheduler merges a MidiScore's per-track event streams by tick time and
// converts ticks to seconds using the current tempo (spec.md §4.4).
type Scheduler struct {
	score       *MidiScore
	playwait    float64 // time of the next pending event, in seconds since playback started
	clock       float64 // time covered by Advance so far, on the same timeline as playwait
	tempo       int     // current tempo_us_per_quarter
	invTicksPQ  float64 // 1 / ticks_per_quarter, precomputed
	loopStartAt *schedulerSnapshot
	hasLoopEnd  bool
	loopEnabled bool // honors loopStart/loopEnd markers only under Config.LoopPolicy == LoopMarker
	onEvent     func(trackIdx int, ev MidiEvent)
	done        bool
}

// NewScheduler creates a scheduler over score. onEvent is invoked once per
// dispatched event, in track index order, per spec.md §4.4 tie-break rule.
// loopEnabled gates whether an encountered loopStart/loopEnd marker is
// honored (spec.md §6 loop_policy=marker) or parsed-but-ignored (once,
// forever).
func NewScheduler(score *MidiScore, loopEnabled bool, onEvent func(trackIdx int, ev MidiEvent)) *Scheduler {
	return &Scheduler{
		score:       score,
		tempo:       score.TempoUsPerQtr,
		invTicksPQ:  1.0 / float64(score.TicksPerQtr),
		loopEnabled: loopEnabled,
		onEvent:     onEvent,
	}
}

// Done reports whether every track has reached End-of-Track and no loop is
// configured to restart playback.
func (s *Scheduler) Done() bool { return s.done }

// PositionSeconds returns the scheduler's logical clock: the time covered
// by Advance, moved back with playwait when a loop snapshot is restored.
func (s *Scheduler) PositionSeconds() float64 { return s.clock }

// SetTempo applies a Meta Tempo event (spec.md §4.4: "applies from the
// event's instant forward; already-committed playwait_seconds is not
// retroactively recomputed").
func (s *Scheduler) SetTempo(usPerQuarter int) {
	s.tempo = usPerQuarter
}

// MarkLoopStart snapshots every track cursor and the current playwait.
func (s *Scheduler) MarkLoopStart() {
	if !s.loopEnabled {
		return
	}
	snap := &schedulerSnapshot{
		tracks:   clone.Clone(s.score.Tracks),
		playwait: s.playwait,
		tempo:    s.tempo,
	}
	s.loopStartAt = snap
}

// MarkLoopEnd restores the loop-start snapshot, if one was recorded.
func (s *Scheduler) MarkLoopEnd() {
	s.restoreLoopSnapshot()
}

func (s *Scheduler) restoreLoopSnapshot() bool {
	if s.loopStartAt == nil {
		return false
	}
	s.score.Tracks = clone.Clone(s.loopStartAt.tracks)
	s.clock -= s.playwait - s.loopStartAt.playwait
	s.playwait = s.loopStartAt.playwait
	s.tempo = s.loopStartAt.tempo
	s.done = false
	return true
}

// Advance runs scheduler iterations until at least seconds of musical time
// have been covered, per spec.md §4.9 ("runs the scheduler for as many
// iterations as needed to cover the block's duration"). Returns false once
// the score has ended and no loop is available. Only events whose time is
// before the advanced clock are dispatched; later ones wait for a later call.
func (s *Scheduler) Advance(seconds float64) bool {
	s.clock += seconds
	for s.playwait < s.clock {
		if !s.step() {
			return false
		}
	}
	return true
}

// step performs one iteration of the algorithm in spec.md §4.4.
func (s *Scheduler) step() bool {
	tracks := s.score.Tracks

	anyLive := false
	for i := range tracks {
		tc := &tracks[i]
		if tc.done {
			continue
		}
		anyLive = true
		if tc.delay == 0 {
			s.dispatchNext(i, tc)
		}
	}

	if !anyLive {
		if s.restoreLoopSnapshot() {
			return true
		}
		s.done = true
		return false
	}

	minDelta := ^uint32(0)
	for i := range tracks {
		tc := &tracks[i]
		if tc.done {
			continue
		}
		if tc.delay < minDelta {
			minDelta = tc.delay
		}
	}
	if minDelta == ^uint32(0) {
		minDelta = 0
	}

	for i := range tracks {
		tc := &tracks[i]
		if !tc.done {
			tc.delay -= minDelta
		}
	}

	s.playwait += float64(minDelta) * float64(s.tempo) * 1e-6 * s.invTicksPQ
	return true
}

// dispatchNext fires the event due at the cursor's current position (the
// caller has already confirmed tc.delay == 0), then keeps firing any
// further events that share the same tick — an MTrk may carry several
// zero-delta events in a row — before advancing tc.delay to the next
// distinct tick.
func (s *Scheduler) dispatchNext(trackIdx int, tc *TrackCursor) {
	first := true
	for tc.pos < len(tc.evs) {
		te := tc.evs[tc.pos]
		if !first && te.delta != 0 {
			break
		}
		first = false

		if s.onEvent != nil {
			s.onEvent(trackIdx, te.ev)
		}
		if te.ev.Kind == EventMeta && te.ev.MetaType == metaEndOfTrack {
			tc.done = true
			return
		}
		tc.pos++
		if tc.pos < len(tc.evs) {
			tc.delay = tc.evs[tc.pos].delta
			if tc.delay != 0 {
				return
			}
		} else {
			tc.done = true
			return
		}
	}
}
