package lilypond

import (
	"github.com/Conceptual-Machines/magda-lilypond-go/models"
)

// octaveState is the pitch-entry state threaded through a music expression.
// The fixed reference and the relative "previous" pitch are kept apart so
// chord handling never disturbs the fixed reference.
type octaveState struct {
	mode        models.ModeKind
	fixedOctave int

	lastPitch  string
	lastOctave int
	hasLast    bool

	duration string
}

func newOctaveState() *octaveState {
	return &octaveState{mode: models.ModeAbsolute, duration: DefaultDuration}
}

// enterMode returns the state of a mode wrapper nested in s.
// The new state inherits only the running duration.
func (s *octaveState) enterMode(kind models.ModeKind, ref *pitchRef) *octaveState {
	inner := &octaveState{mode: kind, duration: s.duration}
	switch kind {
	case models.ModeFixed:
		inner.fixedOctave = BaseOctave
		if ref != nil {
			inner.fixedOctave = ref.octave
		}
	case models.ModeRelative:
		// without a reference the first note lands at its written octave
		inner.lastPitch, inner.lastOctave, inner.hasLast = "f", BaseOctave, true
		if ref != nil {
			inner.lastPitch, inner.lastOctave = ref.pitch, ref.octave
		}
	}
	return inner
}

// fork copies the state for a parallel branch (voice, staff) that starts from the same point
func (s *octaveState) fork() *octaveState {
	c := *s
	return &c
}

// resolve computes the final octave of a note written with the given marks octave
func (s *octaveState) resolve(pitch string, written int) int {
	switch s.mode {
	case models.ModeFixed:
		return s.fixedOctave + (written - BaseOctave)
	case models.ModeRelative:
		if !s.hasLast {
			return written
		}
		return nearestOctave(pitch, s.lastPitch, s.lastOctave) + (written - BaseOctave)
	}
	return written
}

// resolveChordTone computes a chord tone octave against the chord root
func (s *octaveState) resolveChordTone(pitch string, written int, rootPitch string, rootOctave int) int {
	if s.mode == models.ModeRelative {
		return nearestOctave(pitch, rootPitch, rootOctave) + (written - BaseOctave)
	}
	return s.resolve(pitch, written)
}

// follow makes pitch/octave the reference of the next note
func (s *octaveState) follow(pitch string, octave int) {
	s.lastPitch, s.lastOctave, s.hasLast = pitch, octave, true
}

// followLast makes the last sounding note of notes the reference of the next note
func (s *octaveState) followLast(notes []models.Note) {
	for i := len(notes) - 1; i >= 0; i-- {
		if notes[i].IsSounding() {
			s.follow(notes[i].Pitch, notes[i].Octave)
			return
		}
	}
}

// nearestOctave picks among lastOctave-1, lastOctave and lastOctave+1 the octave
// placing pitch closest in semitones to the previous note. Ties keep lastOctave.
func nearestOctave(pitch, lastPitch string, lastOctave int) int {
	target := PitchSemitoneClass(pitch)
	lastPos := lastOctave*12 + PitchSemitoneClass(lastPitch)

	best := lastOctave
	bestDist := abs(lastOctave*12 + target - lastPos)
	for _, cand := range []int{lastOctave - 1, lastOctave + 1} {
		if d := abs(cand*12 + target - lastPos); d < bestDist {
			best, bestDist = cand, d
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// pitchRef is a resolved reference pitch of a mode wrapper or transposition
type pitchRef struct {
	pitch  string
	octave int
	raw    string
}

func (w *walker) pitchRef(ref *PitchRef) *pitchRef {
	if ref == nil {
		return nil
	}
	return &pitchRef{
		pitch:  StandardizePitch(ref.Name, w.score.Language),
		octave: OctaveFromMarks(ref.Octave),
		raw:    ref.Name + ref.Octave,
	}
}
