package lilypond

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/magda-lilypond-go/models"
)

// measureTolerance absorbs float error when comparing durations against capacity
const measureTolerance = 0.001

// DefaultTimeSignature applies when neither container nor score declares one
const DefaultTimeSignature = "4/4"

// OrganizeMeasures groups notes into measures by duration accounting.
// timeSig is "N/D" (empty means a whole note per measure) and partial is the
// pickup duration of the first measure, e.g. "8", "4." or "4*3".
func OrganizeMeasures(notes []models.Note, timeSig, partial string) ([]models.Measure, error) {
	capacity := 1.0
	if timeSig != "" {
		c, err := TimeSignatureFraction(timeSig)
		if err != nil {
			return nil, err
		}
		capacity = c
	}
	current := capacity
	pickup := false
	if partial != "" {
		p, err := partialFraction(partial)
		if err != nil {
			return nil, err
		}
		if p > 0 {
			current, pickup = p, true
		}
	}

	measures := []models.Measure{}
	var open []int
	acc := 0.0
	repeatStart, altStart := -1, -1

	flush := func() {
		if len(open) > 0 {
			measures = append(measures, models.Measure{Notes: open})
			open = nil
			pickup = false
		}
	}
	reset := func() {
		acc = 0
		current = capacity
	}

	for i, n := range notes {
		switch n.NoteType {
		case models.NoteTime:
			open = append(open, i)
			if c, err := TimeSignatureFraction(n.TimeSig); err == nil {
				capacity = c
				if acc == 0 && !pickup {
					current = c
				}
			}
			continue
		case models.NoteClef, models.NoteKey, models.NoteGrace, models.NoteOttava:
			open = append(open, i)
			continue
		case models.NoteRepeatStart:
			repeatStart = len(measures)
			if repeatStart != 0 {
				open = append(open, i)
			}
			continue
		case models.NoteAlternativeStart:
			flush()
			reset()
			altStart = len(measures)
			open = append(open, i)
			continue
		case models.NoteAlternativeEnd:
			if i+1 < len(notes) && notes[i+1].NoteType == models.NoteRepeatEnd {
				continue
			}
			open = append(open, i)
			flush()
			if err := mergeRepeatStart(measures, notes, altStart, repeatStart, capacity); err != nil {
				return nil, err
			}
			reset()
			altStart = -1
			continue
		case models.NoteRepeatEnd:
			open = append(open, i)
			repeatStart = -1
			flush()
			reset()
			continue
		}

		d, err := DurationToFraction(n.Duration, n.Dots)
		if err != nil {
			return nil, fmt.Errorf("note %d: %w", i, err)
		}
		if acc+d > current+measureTolerance {
			flush()
			reset()
		}
		open = append(open, i)
		acc += d
	}
	flush()
	return measures, nil
}

// mergeRepeatStart folds the measure holding a repeat start into an
// under-full last alternative measure when both fit in one bar together
func mergeRepeatStart(measures []models.Measure, notes []models.Note, altStart, repeatStart int, capacity float64) error {
	last := len(measures) - 1
	if altStart < 0 || last <= altStart || repeatStart < 0 || repeatStart >= last {
		return nil
	}
	lastDur, err := measureDuration(measures[last], notes)
	if err != nil {
		return err
	}
	if lastDur >= capacity-measureTolerance {
		return nil
	}
	startDur, err := measureDuration(measures[repeatStart], notes)
	if err != nil {
		return err
	}
	if lastDur+startDur <= capacity+measureTolerance {
		measures[last].Notes = append(measures[last].Notes, measures[repeatStart].Notes...)
	}
	return nil
}

func measureDuration(m models.Measure, notes []models.Note) (float64, error) {
	total := 0.0
	for _, idx := range m.Notes {
		n := notes[idx]
		if n.NoteType.IsMarker() || n.NoteType == models.NoteGrace {
			continue
		}
		d, err := DurationToFraction(n.Duration, n.Dots)
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}

// partialFraction reads a pickup such as "8", "4." or "4*3/2"
func partialFraction(partial string) (float64, error) {
	value, mult, hasMult := strings.Cut(partial, "*")
	code := strings.TrimRight(value, ".")
	d, err := DurationToFraction(code, value[len(code):])
	if err != nil {
		return 0, err
	}
	if !hasMult {
		return d, nil
	}
	num, den, hasDen := strings.Cut(mult, "/")
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, fmt.Errorf("%w: partial %q", ErrUnknownDuration, partial)
	}
	d *= float64(n)
	if hasDen {
		m, err := strconv.Atoi(den)
		if err != nil || m == 0 {
			return 0, fmt.Errorf("%w: partial %q", ErrUnknownDuration, partial)
		}
		d /= float64(m)
	}
	return d, nil
}

// organize computes the measures of every staff, or of each voice when the staff has voices
func organize(score *models.Score) error {
	for i := range score.Staves {
		staff := &score.Staves[i]
		if len(staff.Voices) == 0 {
			ms, err := OrganizeMeasures(staff.Notes, timeSignatureOf(score, staff, ""), score.Partial)
			if err != nil {
				return fmt.Errorf("staff %d: %w", i, err)
			}
			staff.Measures = ms
			continue
		}
		staff.Measures = []models.Measure{}
		for j := range staff.Voices {
			v := &staff.Voices[j]
			ms, err := OrganizeMeasures(v.Base.Notes, timeSignatureOf(score, staff, v.Base.TimeSignature), score.Partial)
			if err != nil {
				return fmt.Errorf("staff %d voice %d: %w", i, j, err)
			}
			v.Measures = ms
		}
	}
	return nil
}

func timeSignatureOf(score *models.Score, staff *models.Staff, container string) string {
	for _, sig := range []string{container, staff.TimeSignature, score.TimeSignature} {
		if sig != "" {
			return sig
		}
	}
	return DefaultTimeSignature
}
