package models

import "strings"

// NoteType tags what a Note stands for in a note sequence
type NoteType string

const (
	NoteDefault          NoteType = "Default"
	NoteClef             NoteType = "Clef"
	NoteChord            NoteType = "Chord"
	NoteTime             NoteType = "Time"
	NoteKey              NoteType = "Key"
	NoteRest             NoteType = "Rest"
	NoteGrace            NoteType = "Grace"
	NoteOttava           NoteType = "Ottava"
	NoteRepeatStart      NoteType = "RepeatStart"
	NoteRepeatEnd        NoteType = "RepeatEnd"
	NoteAlternativeStart NoteType = "AlternativeStart"
	NoteAlternativeEnd   NoteType = "AlternativeEnd"
)

// IsMarker reports whether notes of this type are zero-duration structural markers
func (t NoteType) IsMarker() bool {
	switch t {
	case NoteClef, NoteTime, NoteKey, NoteOttava,
		NoteRepeatStart, NoteRepeatEnd, NoteAlternativeStart, NoteAlternativeEnd:
		return true
	}
	return false
}

// ScriptDirection is the placement prefix of a script attachment
type ScriptDirection string

const (
	ScriptAbove   ScriptDirection = "Above"   // ^
	ScriptBelow   ScriptDirection = "Below"   // _
	ScriptDefault ScriptDirection = "Default" // -
)

// ScriptKind selects the content of a script attachment
type ScriptKind string

const (
	ScriptFingering    ScriptKind = "Fingering"
	ScriptText         ScriptKind = "Text"
	ScriptMarkup       ScriptKind = "Markup"
	ScriptArticulation ScriptKind = "Articulation"
	ScriptEmpty        ScriptKind = "Empty"
)

// Accidental modifiers written after a note name
const (
	AccidentalForced     = "forced"     // !
	AccidentalCautionary = "cautionary" // ?
)

// ScriptAttachment is a fingering, text, markup or articulation attached to a note
type ScriptAttachment struct {
	Direction ScriptDirection `json:"direction"`
	Kind      ScriptKind      `json:"kind"`
	Fingering int             `json:"fingering,omitempty"`
	Text      string          `json:"text,omitempty"`
}

// Note is the atomic musical event of a sequence.
// Markers (clef, time, key, ottava, repeat and alternative boundaries)
// are notes with an empty pitch and duration.
type Note struct {
	Pitch              string             `json:"pitch"`
	Duration           string             `json:"duration"`
	Octave             int                `json:"octave"`
	Dots               string             `json:"dots"`
	ChordNotes         []ChordTone        `json:"chord_notes,omitempty"`
	Clef               string             `json:"clef,omitempty"`
	TimeSig            string             `json:"time_sig,omitempty"`
	KeySig             string             `json:"key_sig,omitempty"`
	Ottava             *int               `json:"ottava,omitempty"`
	Arpeggio           bool               `json:"arpeggio"`
	NoteType           NoteType           `json:"note_type"`
	GroupStart         bool               `json:"group_start"`
	GroupEnd           bool               `json:"group_end"`
	HasSlur            bool               `json:"has_slur"`
	ScriptAttachments  []ScriptAttachment `json:"script_attachments,omitempty"`
	AccidentalModifier string             `json:"accidental_modifier,omitempty"`
	AlternativeIndex   []int              `json:"alternative_index,omitempty"`
}

// NewMarker creates a zero-duration marker note
func NewMarker(kind NoteType) Note {
	return Note{NoteType: kind}
}

// IsRest reports whether the note is a rest or multi-measure rest
func (n Note) IsRest() bool {
	return n.NoteType == NoteRest || n.Pitch == "r" || n.Pitch == "R"
}

// IsSounding reports whether the note carries a pitch that octave state can follow
func (n Note) IsSounding() bool {
	return n.Pitch != "" && !n.IsRest() && !n.NoteType.IsMarker()
}

// Clone returns a deep copy of the note
func (n Note) Clone() Note {
	c := n
	if n.ChordNotes != nil {
		c.ChordNotes = append([]ChordTone(nil), n.ChordNotes...)
	}
	if n.ScriptAttachments != nil {
		c.ScriptAttachments = append([]ScriptAttachment(nil), n.ScriptAttachments...)
	}
	if n.AlternativeIndex != nil {
		c.AlternativeIndex = append([]int(nil), n.AlternativeIndex...)
	}
	if n.Ottava != nil {
		v := *n.Ottava
		c.Ottava = &v
	}
	return c
}

// CloneNotes deep-copies a note sequence
func CloneNotes(notes []Note) []Note {
	if notes == nil {
		return nil
	}
	out := make([]Note, len(notes))
	for i, n := range notes {
		out[i] = n.Clone()
	}
	return out
}

// MusicContainerBase is the shape shared by staves, voices and variables
type MusicContainerBase struct {
	Name          string `json:"name,omitempty"`
	Clef          string `json:"clef,omitempty"`
	TimeSignature string `json:"time_signature,omitempty"`
	KeySignature  string `json:"key_signature,omitempty"`
	Notes         []Note `json:"notes"`
}

// Summarize fills unset clef, time and key signature from the first marker of each kind
func (b *MusicContainerBase) Summarize() {
	for _, n := range b.Notes {
		switch n.NoteType {
		case NoteClef:
			if b.Clef == "" {
				b.Clef = n.Clef
			}
		case NoteTime:
			if b.TimeSignature == "" {
				b.TimeSignature = n.TimeSig
			}
		case NoteKey:
			if b.KeySignature == "" {
				b.KeySignature = n.KeySig
			}
		}
	}
}

// Lyric is one line of lyric syllables aligned with a voice
type Lyric struct {
	TextNodes []string `json:"text_nodes"`
}

// Measure lists indices into the owning container's note sequence
type Measure struct {
	Notes []int `json:"notes"`
}

// Voice is a named or anonymous line within a staff
type Voice struct {
	Base     MusicContainerBase `json:"base"`
	Lyrics   []Lyric            `json:"lyrics"`
	Measures []Measure          `json:"measures"`
}

// Staff is a notated line of music
type Staff struct {
	MusicContainerBase `yaml:",inline"`
	Voices             []Voice   `json:"voices"`
	Measures           []Measure `json:"measures"`
}

// Variable is a named music or lyric fragment stored at definition time
type Variable struct {
	Base  MusicContainerBase
	Lyric *Lyric
}

// ModeKind is a pitch-entry mode
type ModeKind string

const (
	ModeAbsolute ModeKind = "Absolute"
	ModeRelative ModeKind = "Relative"
	ModeFixed    ModeKind = "Fixed"
)

// MusicMode records a pitch-entry mode and its written reference pitch
type MusicMode struct {
	Kind      ModeKind
	Reference string // e.g. "c''"; empty when none was written
}

// String renders the mode for display, e.g. "Relative c''"
func (m MusicMode) String() string {
	if m.Reference == "" {
		return string(m.Kind)
	}
	return string(m.Kind) + " " + m.Reference
}

// VoiceRef addresses a voice by staff and voice index
type VoiceRef struct {
	Staff int
	Voice int
}

// Score is the structured result of parsing a LilyPond document
type Score struct {
	Title         string
	Composer      string
	Tempo         string
	KeySignature  string
	TimeSignature string
	Partial       string // pickup duration, e.g. "8" or "4."
	Language      string
	Staves        []Staff
	MusicMode     *MusicMode
	Warnings      []string

	Variables map[string]Variable
	Voices    map[string]VoiceRef
}

// NewScore creates an empty score with the default note-name language
func NewScore() *Score {
	return &Score{
		Language:  "english",
		Variables: make(map[string]Variable),
		Voices:    make(map[string]VoiceRef),
	}
}

// NoteCount returns the total number of notes held by staves and voices
func (s *Score) NoteCount() int {
	total := 0
	for _, st := range s.Staves {
		total += len(st.Notes)
		for _, v := range st.Voices {
			total += len(v.Base.Notes)
		}
	}
	return total
}

// VoiceCount returns the total number of voices across staves
func (s *Score) VoiceCount() int {
	total := 0
	for _, st := range s.Staves {
		total += len(st.Voices)
	}
	return total
}

// MeasureCount returns the number of measures of the longest staff or voice
func (s *Score) MeasureCount() int {
	longest := 0
	for _, st := range s.Staves {
		longest = max(longest, len(st.Measures))
		for _, v := range st.Voices {
			longest = max(longest, len(v.Measures))
		}
	}
	return longest
}

// DisplayName returns the title, or "untitled" when the header has none
func (s *Score) DisplayName() string {
	if t := strings.TrimSpace(s.Title); t != "" {
		return t
	}
	return "untitled"
}
