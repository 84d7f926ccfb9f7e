package lilypond

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationToFraction(t *testing.T) {
	tests := []struct {
		code     string
		dots     string
		expected float64
	}{
		{"1", "", 1.0},
		{"2", "", 0.5},
		{"4", "", 0.25},
		{"8", "", 0.125},
		{"16", "", 0.0625},
		{"32", "", 0.03125},
		{"64", "", 0.015625},
		{"", "", 0.25},
		{"4", ".", 0.375},
		{"4", "..", 0.4375},
		{"2", "...", 0.9375},
		{`\breve`, "", 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.code+tt.dots, func(t *testing.T) {
			got, err := DurationToFraction(tt.code, tt.dots)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestDurationToFraction_Unknown(t *testing.T) {
	for _, code := range []string{"3", "12", "0", "x"} {
		t.Run(code, func(t *testing.T) {
			_, err := DurationToFraction(code, "")
			assert.ErrorIs(t, err, ErrUnknownDuration)
		})
	}
}

func TestTimeSignatureFraction(t *testing.T) {
	tests := []struct {
		sig      string
		expected float64
		wantErr  bool
	}{
		{"4/4", 1.0, false},
		{"3/4", 0.75, false},
		{"6/8", 0.75, false},
		{"3/8", 0.375, false},
		{" 2/2 ", 1.0, false},
		{"4", 0, true},
		{"a/4", 0, true},
		{"4/0", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.sig, func(t *testing.T) {
			got, err := TimeSignatureFraction(tt.sig)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeSignature)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestOctaveFromMarks(t *testing.T) {
	tests := []struct {
		marks    string
		expected int
	}{
		{"", 3},
		{"'", 4},
		{"''", 5},
		{",", 2},
		{",,", 1},
		{"',", 3},
	}

	for _, tt := range tests {
		t.Run(tt.marks, func(t *testing.T) {
			assert.Equal(t, tt.expected, OctaveFromMarks(tt.marks))
		})
	}
}
