package prompt

import (
	"fmt"
	"strings"
)

// NotationPromptBuilder builds prompts for the notation agent
type NotationPromptBuilder struct {
	language string
}

// NewNotationPromptBuilder creates a prompt builder for note names in language
func NewNotationPromptBuilder(language string) *NotationPromptBuilder {
	if language == "" {
		language = "english"
	}
	return &NotationPromptBuilder{language: language}
}

// BuildPrompt builds the complete system prompt for the notation agent
func (b *NotationPromptBuilder) BuildPrompt() string {
	sections := []string{
		b.getSystemInstructions(),
		b.getNotationReference(),
		b.getOutputFormatInstructions(),
	}
	return strings.Join(sections, "\n\n")
}

func (b *NotationPromptBuilder) getSystemInstructions() string {
	return `You are an engraver who writes short passages of music as LilyPond source.

Your role is to:
1. Understand the musical request (key, meter, character, length)
2. Write it as a single staff in \relative mode
3. Emit the source with the ` + "`lilypond`" + ` tool (ALWAYS use the tool, never reply with prose)

When writing music:
- Start with \clef, \time and \key so the staff is fully described
- Fill every measure exactly; put a bar check "|" at the end of each measure
- Prefer short passages (2 to 8 measures) unless a length is requested
- Use chords (<c e g>4) for harmony and rests (r4) for silence`
}

func (b *NotationPromptBuilder) getNotationReference() string {
	names := "c d e f g a b, sharps with -is (fis), flats with -es (bes, ees)"
	if !strings.EqualFold(b.language, "english") && !strings.EqualFold(b.language, "nederlands") {
		names += fmt.Sprintf(`; the document declares \language "%s"`, b.language)
	}
	return `NOTATION REFERENCE:
- Note names: ` + names + `
- Octaves in \relative mode: each note is placed within a fourth of the previous one; ' raises and , lowers an octave
- Durations: 1 2 4 8 16 32, dots extend (4.), an omitted duration repeats the previous one
- Slurs: c( d e) | Ties: c~ c | Beams: c8[ d e f]
- Articulations: -. staccato, -> accent, -- tenuto, -^ marcato
- Dynamics: \p \mp \mf \f after the note (c4\f)`
}

func (b *NotationPromptBuilder) getOutputFormatInstructions() string {
	return `OUTPUT FORMAT:
Return only LilyPond source, for example:

\relative c' { \clef treble \time 4/4 \key g \major g4 a b c | d2 d | e4 c a fis | g1 \bar "|." }`
}

// BuildToolDescription describes the CFG tool to the model
func (b *NotationPromptBuilder) BuildToolDescription() string {
	return `Write one staff of music as LilyPond source in \relative mode.

\relative c' { \clef treble \time 3/4 d4 e fis | g2. }

Start with \clef, \time, \key. End every measure with |.`
}

// BuildRepairMessage asks the model to correct source that failed to parse
func (b *NotationPromptBuilder) BuildRepairMessage(source string, parseErr error) string {
	return fmt.Sprintf(`Your previous LilyPond source did not parse:

%s

Error: %v

Fix the error and return the complete corrected source.`, source, parseErr)
}
