package lilypond

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownDuration is returned for duration codes outside the supported set
	ErrUnknownDuration = errors.New("unknown duration")
	// ErrInvalidTimeSignature is returned for malformed "N/D" strings
	ErrInvalidTimeSignature = errors.New("invalid time signature")
)

// DefaultDuration is the duration of the first note of a sequence without one
const DefaultDuration = "4"

var durationFractions = map[string]float64{
	`\maxima`: 8.0,
	`\longa`:  4.0,
	`\breve`:  2.0,
	"1":       1.0,
	"2":       0.5,
	"4":       0.25,
	"8":       0.125,
	"16":      0.0625,
	"32":      0.03125,
	"64":      0.015625,
	"128":     0.0078125,
	"":        0.25,
}

// DurationToFraction converts a duration code and its dots to a fraction of a whole note.
// Each dot adds half of the previous addition.
func DurationToFraction(code, dots string) (float64, error) {
	base, ok := durationFractions[code]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDuration, code)
	}
	total, add := base, base
	for range strings.Count(dots, ".") {
		add /= 2
		total += add
	}
	return total, nil
}

// TimeSignatureFraction converts "N/D" into the capacity of one measure
func TimeSignatureFraction(sig string) (float64, error) {
	num, den, ok := strings.Cut(strings.TrimSpace(sig), "/")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeSignature, sig)
	}
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeSignature, sig)
	}
	d, err := strconv.Atoi(strings.TrimSpace(den))
	if err != nil || d == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeSignature, sig)
	}
	return float64(n) / float64(d), nil
}

// OctaveFromMarks folds ' and , marks into an octave starting at BaseOctave
func OctaveFromMarks(marks string) int {
	octave := BaseOctave
	for _, c := range marks {
		switch c {
		case '\'':
			octave++
		case ',':
			octave--
		}
	}
	return octave
}
