package lilypond

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardizePitch(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		language string
		expected string
	}{
		{"english passthrough", "bes", "english", "bes"},
		{"deutsch h", "h", "deutsch", "b"},
		{"deutsch b", "b", "deutsch", "bes"},
		{"deutsch as", "as", "deutsch", "aes"},
		{"deutsch es", "es", "deutsch", "ees"},
		{"deutsch hes", "hes", "deutsch", "bes"},
		{"deutsch his", "his", "deutsch", "bis"},
		{"deutsch heses", "heses", "deutsch", "beses"},
		{"deutsch unmapped", "fis", "deutsch", "fis"},
		{"language is case insensitive", "h", "Deutsch", "b"},
		{"unknown language", "h", "klingon", "h"},
		{"nederlands passthrough", "as", "nederlands", "as"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StandardizePitch(tt.raw, tt.language))
		})
	}
}

func TestPitchSemitoneClass(t *testing.T) {
	tests := []struct {
		pitch    string
		expected int
	}{
		{"c", 0},
		{"cis", 1},
		{"des", 1},
		{"d", 2},
		{"ees", 3},
		{"es", 3},
		{"e", 4},
		{"f", 5},
		{"fis", 6},
		{"g", 7},
		{"aes", 8},
		{"as", 8},
		{"a", 9},
		{"bes", 10},
		{"b", 11},
		{"h", 11},
		{"ces", 11},
		{"bis", 0},
		{"cisis", 2},
		{"ceses", 10},
		{"cs", 1},
		{"bf", 10},
		{"cx", 2},
		{"csharp", 1},
		{"bflat", 10},
	}

	for _, tt := range tests {
		t.Run(tt.pitch, func(t *testing.T) {
			assert.Equal(t, tt.expected, PitchSemitoneClass(tt.pitch))
		})
	}
}

func TestIsPitchName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		language string
		expected bool
	}{
		{"plain letter", "c", "english", true},
		{"sharp", "fis", "english", true},
		{"english flat", "bf", "english", true},
		{"h outside deutsch", "h", "english", false},
		{"h in deutsch", "h", "deutsch", true},
		{"uppercase", "C", "english", false},
		{"word", "cresc", "english", false},
		{"unknown letter", "x", "english", false},
		{"empty", "", "english", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsPitchName(tt.input, tt.language))
		})
	}
}

func TestKeySignatureName(t *testing.T) {
	tests := []struct {
		tonic    string
		mode     string
		expected string
	}{
		{"c", `\major`, "C"},
		{"g", `\major`, "G"},
		{"fis", `\major`, "F#"},
		{"bes", `\major`, "Bb"},
		{"a", `\minor`, "Am"},
		{"fis", `\minor`, "F#m"},
		{"ees", `\minor`, "Ebm"},
		{"d", `\dorian`, "C"},
		{"q", `\major`, "C"},
	}

	for _, tt := range tests {
		t.Run(tt.tonic+tt.mode, func(t *testing.T) {
			assert.Equal(t, tt.expected, KeySignatureName(tt.tonic, tt.mode))
		})
	}
}

func TestTransposePitch(t *testing.T) {
	c := pitchRef{pitch: "c", octave: 4}

	tests := []struct {
		name       string
		pitch      string
		octave     int
		to         pitchRef
		wantPitch  string
		wantOctave int
	}{
		{"up a whole tone", "c", 4, pitchRef{pitch: "d", octave: 4}, "d", 4},
		{"e up a whole tone", "e", 4, pitchRef{pitch: "d", octave: 4}, "fis", 4},
		{"b wraps the octave", "b", 4, pitchRef{pitch: "d", octave: 4}, "cis", 5},
		{"down a minor third", "c", 4, pitchRef{pitch: "a", octave: 3}, "a", 3},
		{"to a flat key", "c", 4, pitchRef{pitch: "bes", octave: 4}, "bes", 4},
		{"flat stays spelled", "bes", 4, pitchRef{pitch: "f", octave: 4}, "ees", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, o := transposePitch(tt.pitch, tt.octave, c, tt.to)
			assert.Equal(t, tt.wantPitch, p)
			assert.Equal(t, tt.wantOctave, o)
		})
	}
}
