package models

// ViewModel is the serializable form of a Score handed across process or UI boundaries
type ViewModel struct {
	Title         string   `json:"title,omitempty"`
	Composer      string   `json:"composer,omitempty"`
	Tempo         string   `json:"tempo,omitempty"`
	KeySignature  string   `json:"key_signature,omitempty"`
	TimeSignature string   `json:"time_signature,omitempty"`
	Partial       string   `json:"partial,omitempty"`
	Language      string   `json:"language,omitempty"`
	Staves        []Staff  `json:"staves"`
	MusicMode     string   `json:"music_mode,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// ToViewModel drops the build-time lookup tables and renders the music mode as a string.
// The returned view owns its staves; later changes to the score do not leak into it.
func ToViewModel(score *Score) *ViewModel {
	if score == nil {
		return &ViewModel{Staves: []Staff{}}
	}

	view := &ViewModel{
		Title:         score.Title,
		Composer:      score.Composer,
		Tempo:         score.Tempo,
		KeySignature:  score.KeySignature,
		TimeSignature: score.TimeSignature,
		Partial:       score.Partial,
		Language:      score.Language,
		Staves:        make([]Staff, 0, len(score.Staves)),
		Warnings:      append([]string(nil), score.Warnings...),
	}
	if score.MusicMode != nil {
		view.MusicMode = score.MusicMode.String()
	}

	for _, st := range score.Staves {
		view.Staves = append(view.Staves, cloneStaff(st))
	}
	return view
}

func cloneStaff(st Staff) Staff {
	out := Staff{
		MusicContainerBase: cloneBase(st.MusicContainerBase),
		Voices:             make([]Voice, 0, len(st.Voices)),
		Measures:           cloneMeasures(st.Measures),
	}
	for _, v := range st.Voices {
		lyrics := make([]Lyric, 0, len(v.Lyrics))
		for _, l := range v.Lyrics {
			lyrics = append(lyrics, Lyric{TextNodes: append([]string(nil), l.TextNodes...)})
		}
		out.Voices = append(out.Voices, Voice{
			Base:     cloneBase(v.Base),
			Lyrics:   lyrics,
			Measures: cloneMeasures(v.Measures),
		})
	}
	return out
}

func cloneBase(b MusicContainerBase) MusicContainerBase {
	c := b
	c.Notes = CloneNotes(b.Notes)
	if c.Notes == nil {
		c.Notes = []Note{}
	}
	return c
}

func cloneMeasures(ms []Measure) []Measure {
	out := make([]Measure, 0, len(ms))
	for _, m := range ms {
		out = append(out, Measure{Notes: append([]int(nil), m.Notes...)})
	}
	return out
}
