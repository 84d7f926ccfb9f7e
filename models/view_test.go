package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleScore() *Score {
	s := NewScore()
	s.Title = "Etude"
	s.TimeSignature = "3/4"
	s.MusicMode = &MusicMode{Kind: ModeRelative, Reference: "c''"}
	s.Staves = []Staff{{
		MusicContainerBase: MusicContainerBase{
			Name:  "upper",
			Clef:  "treble",
			Notes: []Note{{Pitch: "c", Duration: "4", Octave: 5, NoteType: NoteChord, ChordNotes: []ChordTone{{Pitch: "e", Octave: 5}}}},
		},
		Voices: []Voice{{
			Base:     MusicContainerBase{Name: "alto", Notes: []Note{{Pitch: "g", Duration: "2", Octave: 4, NoteType: NoteDefault}}},
			Lyrics:   []Lyric{{TextNodes: []string{"la"}}},
			Measures: []Measure{{Notes: []int{0}}},
		}},
		Measures: []Measure{{Notes: []int{0}}},
	}}
	s.Variables["melody"] = Variable{Base: MusicContainerBase{Name: "melody"}}
	s.Voices["alto"] = VoiceRef{Staff: 0, Voice: 0}
	return s
}

func TestToViewModel(t *testing.T) {
	tests := []struct {
		name     string
		mode     *MusicMode
		expected string
	}{
		{"relative with reference", &MusicMode{Kind: ModeRelative, Reference: "c''"}, "Relative c''"},
		{"fixed", &MusicMode{Kind: ModeFixed, Reference: "c'"}, "Fixed c'"},
		{"absolute", &MusicMode{Kind: ModeAbsolute}, "Absolute"},
		{"no mode", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sampleScore()
			s.MusicMode = tt.mode
			view := ToViewModel(s)
			assert.Equal(t, tt.expected, view.MusicMode)
			assert.Equal(t, "Etude", view.Title)
			assert.Equal(t, "3/4", view.TimeSignature)
			require.Len(t, view.Staves, 1)
		})
	}
}

func TestToViewModel_DeepCopy(t *testing.T) {
	s := sampleScore()
	view := ToViewModel(s)

	s.Staves[0].Notes[0].Pitch = "d"
	s.Staves[0].Notes[0].ChordNotes[0].Pitch = "f"
	s.Staves[0].Voices[0].Lyrics[0].TextNodes[0] = "lo"
	s.Staves[0].Voices[0].Measures[0].Notes[0] = 7

	st := view.Staves[0]
	assert.Equal(t, "c", st.Notes[0].Pitch)
	assert.Equal(t, "e", st.Notes[0].ChordNotes[0].Pitch)
	assert.Equal(t, "la", st.Voices[0].Lyrics[0].TextNodes[0])
	assert.Equal(t, 0, st.Voices[0].Measures[0].Notes[0])
}

func TestToViewModel_Nil(t *testing.T) {
	view := ToViewModel(nil)
	require.NotNil(t, view)
	assert.NotNil(t, view.Staves)
	assert.Empty(t, view.Staves)
}

func TestViewModel_JSONShape(t *testing.T) {
	data, err := json.Marshal(ToViewModel(sampleScore()))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "Variables")
	assert.NotContains(t, raw, "Voices")
	assert.Equal(t, "Relative c''", raw["music_mode"])

	staff := raw["staves"].([]any)[0].(map[string]any)
	// staff base fields are flattened, voice base is nested
	assert.Equal(t, "upper", staff["name"])
	assert.Equal(t, "treble", staff["clef"])
	voice := staff["voices"].([]any)[0].(map[string]any)
	assert.Equal(t, "alto", voice["base"].(map[string]any)["name"])

	note := staff["notes"].([]any)[0].(map[string]any)
	assert.Equal(t, "Chord", note["note_type"])
	assert.Equal(t, []any{"e", float64(5)}, note["chord_notes"].([]any)[0])
}

func TestChordTone_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ChordTone
		wantErr bool
	}{
		{"pair", `["fis", 4]`, ChordTone{Pitch: "fis", Octave: 4}, false},
		{"too short", `["fis"]`, ChordTone{}, true},
		{"not an array", `{"pitch":"c"}`, ChordTone{}, true},
		{"octave not a number", `["c", "x"]`, ChordTone{Pitch: "c"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ChordTone
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScore_Counts(t *testing.T) {
	s := sampleScore()
	assert.Equal(t, 2, s.NoteCount())
	assert.Equal(t, 1, s.VoiceCount())
	assert.Equal(t, 1, s.MeasureCount())
	assert.Equal(t, "Etude", s.DisplayName())

	s.Title = "  "
	assert.Equal(t, "untitled", s.DisplayName())
}

func TestMusicContainerBase_Summarize(t *testing.T) {
	b := MusicContainerBase{
		Clef: "bass",
		Notes: []Note{
			{NoteType: NoteClef, Clef: "treble"},
			{NoteType: NoteTime, TimeSig: "3/4"},
			{NoteType: NoteTime, TimeSig: "4/4"},
			{NoteType: NoteKey, KeySig: "D"},
		},
	}
	b.Summarize()
	assert.Equal(t, "bass", b.Clef)
	assert.Equal(t, "3/4", b.TimeSignature)
	assert.Equal(t, "D", b.KeySignature)
}

func TestViewModelSchema(t *testing.T) {
	s, err := ViewModelSchema()
	require.NoError(t, err)
	assert.Contains(t, s.Properties, "staves")
	assert.Contains(t, s.Properties, "music_mode")

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), "prefixItems")
	assert.Contains(t, string(data), `"chord_notes"`)
}
