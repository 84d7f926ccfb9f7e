package lilypond

import (
	"strings"
)

// BaseOctave is the octave of an unmarked note name; c' (middle C) is BaseOctave+1
const BaseOctave = 3

// DefaultLanguage is the note-name language used when a document declares none
const DefaultLanguage = "english"

// deutschPitches remaps German note names to the standard spelling
var deutschPitches = map[string]string{
	"h":     "b",
	"b":     "bes",
	"as":    "aes",
	"aes":   "aes",
	"es":    "ees",
	"ees":   "ees",
	"ases":  "aeses",
	"eses":  "eeses",
	"hes":   "bes",
	"his":   "bis",
	"heses": "beses",
	"hisis": "bisis",
}

// StandardizePitch maps a note name written in language to the standard spelling.
// Languages without a table, including the default, pass names through unchanged.
func StandardizePitch(raw, language string) string {
	switch strings.ToLower(language) {
	case "deutsch":
		if std, ok := deutschPitches[raw]; ok {
			return std
		}
	}
	return raw
}

var letterSemitones = map[byte]int{
	'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11, 'h': 11,
}

// accidentalSuffixes lists the accidental spellings after a letter, longest first
var accidentalSuffixes = []struct {
	suffix string
	shift  int
}{
	{"sharpsharp", 2},
	{"flatflat", -2},
	{"sharp", 1},
	{"flat", -1},
	{"isis", 2},
	{"eses", -2},
	{"ses", -2}, // ases, eses
	{"is", 1},
	{"es", -1},
	{"ss", 2},
	{"ff", -2},
	{"s", 1},
	{"f", -1},
	{"x", 2},
}

// splitPitch separates a pitch name into its letter and accidental shift.
// ok is false when the remainder is not a known accidental spelling.
func splitPitch(pitch string) (letter byte, shift int, ok bool) {
	if pitch == "" {
		return 0, 0, false
	}
	letter = pitch[0]
	if _, known := letterSemitones[letter]; !known {
		return 0, 0, false
	}
	rest := pitch[1:]
	if rest == "" {
		return letter, 0, true
	}

	// Dutch contracted flats: as, aes, es, ees
	if (letter == 'a' || letter == 'e') && rest == "s" {
		return letter, -1, true
	}
	if (letter == 'a' || letter == 'e') && rest == "ses" {
		return letter, -2, true
	}

	for _, acc := range accidentalSuffixes {
		if rest == acc.suffix {
			return letter, acc.shift, true
		}
	}
	return 0, 0, false
}

// PitchSemitoneClass maps a standardized pitch name to its semitone class 0-11
func PitchSemitoneClass(pitch string) int {
	letter, shift, ok := splitPitch(strings.ToLower(pitch))
	if !ok {
		if pitch == "" {
			return 0
		}
		return letterSemitones[pitch[0]]
	}
	return ((letterSemitones[letter]+shift)%12 + 12) % 12
}

// IsPitchName reports whether name is a note name in language
func IsPitchName(name, language string) bool {
	if name == "" || name != strings.ToLower(name) {
		return false
	}
	std := StandardizePitch(name, language)
	if std[0] == 'h' && !strings.EqualFold(language, "deutsch") {
		return false
	}
	_, _, ok := splitPitch(std)
	return ok
}

// KeySignatureName renders a key as "C", "F#", "Bb", "Am", "Ebm" and the like.
// Modes other than major and minor, and unknown tonics, yield "C".
func KeySignatureName(tonic, mode string) string {
	var suffix string
	switch strings.TrimPrefix(mode, `\`) {
	case "major":
	case "minor":
		suffix = "m"
	default:
		return "C"
	}

	letter, shift, ok := splitPitch(tonic)
	if !ok || letter == 'h' {
		return "C"
	}
	name := strings.ToUpper(string(letter))
	switch {
	case shift > 0:
		name += strings.Repeat("#", shift)
	case shift < 0:
		name += strings.Repeat("b", -shift)
	}
	return name + suffix
}

// letterOrder is the diatonic order used by transposition
const letterOrder = "cdefgab"

// spellPitch writes letter plus accidental shift in the standard spelling
func spellPitch(letter byte, shift int) string {
	switch shift {
	case 0:
		return string(letter)
	case 1:
		return string(letter) + "is"
	case 2:
		return string(letter) + "isis"
	case -1:
		return string(letter) + "es"
	case -2:
		return string(letter) + "eses"
	}
	return string(letter)
}

// transposePitch moves pitch/octave by the interval from -> to, keeping the
// interval's diatonic spelling. Pitches outside the double-accidental range
// keep their letter and are respelled by semitone.
func transposePitch(pitch string, octave int, from, to pitchRef) (string, int) {
	letter, shift, ok := splitPitch(pitch)
	fromLetter, fromShift, okFrom := splitPitch(from.pitch)
	toLetter, toShift, okTo := splitPitch(to.pitch)
	if !ok || !okFrom || !okTo {
		return pitch, octave
	}
	letter, fromLetter, toLetter = naturalLetter(letter), naturalLetter(fromLetter), naturalLetter(toLetter)

	steps := diatonicIndex(toLetter, to.octave) - diatonicIndex(fromLetter, from.octave)
	semis := absoluteSemitone(toLetter, toShift, to.octave) - absoluteSemitone(fromLetter, fromShift, from.octave)

	target := diatonicIndex(letter, octave) + steps
	newOctave := floorDiv(target, 7)
	newLetter := letterOrder[target-newOctave*7]

	wanted := absoluteSemitone(letter, shift, octave) + semis
	natural := absoluteSemitone(newLetter, 0, newOctave)
	newShift := wanted - natural
	if newShift < -2 || newShift > 2 {
		return pitch, octave
	}
	return spellPitch(newLetter, newShift), newOctave
}

func naturalLetter(letter byte) byte {
	if letter == 'h' {
		return 'b'
	}
	return letter
}

func diatonicIndex(letter byte, octave int) int {
	return octave*7 + strings.IndexByte(letterOrder, letter)
}

func absoluteSemitone(letter byte, shift, octave int) int {
	return octave*12 + letterSemitones[letter] + shift
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
