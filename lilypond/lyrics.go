package lilypond

import (
	"regexp"
	"strings"

	"github.com/Conceptual-Machines/magda-lilypond-go/models"
)

var lyricsToName = regexp.MustCompile(`^\\lyricsto\s*("(?:\\.|[^"\\])*"|[A-Za-z]+)`)

// lyricsToTarget extracts the voice name from an inline `\lyricsto "name" {` token
func lyricsToTarget(head string) string {
	m := lyricsToName.FindStringSubmatch(head)
	if m == nil {
		return ""
	}
	return unquote(m[1])
}

// normalizeSyllable collapses placeholders and extenders to a single space
// so syllables stay aligned with the notes they are sung on.
func normalizeSyllable(word string) string {
	switch word {
	case "_", "--", "__":
		return " "
	}
	if strings.Contains(word, "_") {
		return strings.ReplaceAll(word, "_", " ")
	}
	return word
}

// lyric flattens a lyric block into syllables
func (w *walker) lyric(body *LyricBody) models.Lyric {
	return models.Lyric{TextNodes: w.syllables(body, nil)}
}

func (w *walker) syllables(body *LyricBody, out []string) []string {
	if body == nil {
		return out
	}
	for _, it := range body.Items {
		switch {
		case it.Word != nil:
			out = append(out, normalizeSyllable(*it.Word))
		case it.Skip != nil:
			out = append(out, " ")
		case it.Block != nil:
			out = w.syllables(it.Block, out)
		case it.Command != nil:
			name := strings.TrimPrefix(*it.Command, `\`)
			if v, ok := w.score.Variables[name]; ok && v.Lyric != nil {
				out = append(out, v.Lyric.TextNodes...)
			}
		}
	}
	return out
}

// attachLyric adds a lyric line to the most recent voice of the most recent staff.
// A staff without voices has its notes moved into an anonymous voice first.
func (w *walker) attachLyric(lyric models.Lyric) {
	if len(lyric.TextNodes) == 0 {
		return
	}
	if len(w.score.Staves) == 0 {
		w.warnf(0, "lyrics dropped: no staff to attach to")
		return
	}
	idx := len(w.score.Staves) - 1
	staff := &w.score.Staves[idx]
	if len(staff.Voices) == 0 {
		staff.Voices = append(staff.Voices, models.Voice{
			Base: models.MusicContainerBase{
				Clef:          staff.Clef,
				TimeSignature: staff.TimeSignature,
				KeySignature:  staff.KeySignature,
				Notes:         staff.Notes,
			},
		})
		staff.Notes = []models.Note{}
		w.logger.Debug("promoted staff music to a voice for lyrics", "staff", idx)
	}
	v := &staff.Voices[len(staff.Voices)-1]
	v.Lyrics = append(v.Lyrics, lyric)
}

// attachLyricTo adds a lyric line to a named voice
func (w *walker) attachLyricTo(voice string, lyric models.Lyric, line int) {
	ref, ok := w.score.Voices[voice]
	if !ok {
		w.warnf(line, "lyrics dropped: unknown voice %q", voice)
		return
	}
	v := &w.score.Staves[ref.Staff].Voices[ref.Voice]
	v.Lyrics = append(v.Lyrics, lyric)
}
