package llm

import (
	"regexp"
	"strings"
)

// GetLilyPondGrammar returns the Lark grammar for the single-staff LilyPond
// subset the notation agent is allowed to emit.
//
//	\relative c' { \clef treble \time 4/4 \key g \major g4 a b c | d2 d }
func GetLilyPondGrammar() string {
	return `
// LilyPond subset - one staff, relative entry
// SYNTAX:
//   \relative c' { \clef treble \time 3/4 \key d \major d4 fis a | <d fis a>2. }
//   \relative c'' { c8( d e f) g4-. g-> | r2 \bar "|." }
//
// PITCHES: c d e f g a b with is/es suffixes (fis, bes, eeses), ' and , octave marks
// DURATIONS: 1 2 4 8 16 32 64, optional dots; omitted durations repeat the previous one
// POST EVENTS: ( ) ~ [ ] -. -> -- -^ -_ -! and dynamics \p \f \mf \mp \pp \ff \sfz

// ---------- Start rule ----------
start: header? SP? relative

header: "\\header" SP? "{" SP? (header_field SP?)* "}" SP?
header_field: HEADER_NAME SP? "=" SP? STRING

relative: "\\relative" SP PITCH SP? "{" SP? (item SP?)* "}"

// ---------- Items ----------
item: event
    | command
    | bar_check

event: (note | rest | chord) DURATION? post_event*
note: PITCH
rest: "r"
chord: "<" SP? PITCH (SP PITCH)* SP? ">"

post_event: SLUR
          | TIE
          | BEAM
          | ARTICULATION
          | DYNAMIC

command: "\\clef" SP CLEF
       | "\\time" SP TIME_SIG
       | "\\key" SP PITCH SP MODE
       | "\\bar" SP STRING
       | "\\tempo" SP TEMPO

bar_check: "|"

// ---------- Terminals ----------
PITCH: /[a-g](isis|eses|is|es|s)?('+|,+)?/
DURATION: /(1|2|4|8|16|32|64)\.*/
SLUR: "(" | ")"
TIE: "~"
BEAM: "[" | "]"
ARTICULATION: /[-^_][.>^_!-]/
DYNAMIC: /\\(ppp|pp|p|mp|mf|f|ff|fff|sfz|fp)(?![a-z])/
CLEF: "treble" | "bass" | "alto" | "tenor" | "percussion"
TIME_SIG: /\d+\/\d+/
MODE: "\\major" | "\\minor"
TEMPO: /\d+\.?\s?=\s?\d+/
HEADER_NAME: "title" | "composer" | "subtitle" | "arranger"
STRING: /"[^"]*"/
SP: /[ \t\n]+/
`
}

var (
	fencePattern   = regexp.MustCompile("(?s)```(?:lilypond|ly)?\\s*\\n?(.*?)```")
	lilyPondMarker = regexp.MustCompile(`\\(relative|fixed|absolute|new|score|version|header|clef|time|key)\b|<<`)
)

// ExtractLilyPond pulls source out of a fenced code block when the model wrapped it
func ExtractLilyPond(text string) string {
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// IsLilyPondSource reports whether text looks like LilyPond input rather than prose or JSON
func IsLilyPondSource(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if !lilyPondMarker.MatchString(text) && !strings.HasPrefix(text, "{") {
		return false
	}
	// JSON objects start with { too
	if strings.HasPrefix(text, "{") && strings.Contains(text, `":`) {
		return false
	}
	return strings.Contains(text, "{") || strings.Contains(text, "<<")
}
