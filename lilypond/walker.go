package lilypond

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Conceptual-Machines/magda-lilypond-go/models"
)

type scopeKind int

const (
	scoreScope    scopeKind = iota // between staves: score, book, top level
	staffScope                     // building the notes of one staff
	voiceScope                     // building the notes of one voice
	variableScope                  // building the notes of a variable definition
)

// scope is where the music being walked lands
type scope struct {
	kind  scopeKind
	staff int // index into Score.Staves, -1 outside staves
	notes *[]models.Note
	state *octaveState
}

func (sc *scope) with(st *octaveState) *scope {
	c := *sc
	c.state = st
	return &c
}

// walker turns a parsed File into a Score.
// One walker serves exactly one Parse call.
type walker struct {
	score  *models.Score
	logger *slog.Logger
}

func newWalker(language string, logger *slog.Logger) *walker {
	score := models.NewScore()
	if language != "" {
		score.Language = strings.ToLower(language)
	}
	return &walker{score: score, logger: logger}
}

func (w *walker) warnf(line int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if line > 0 {
		msg = fmt.Sprintf("line %d: %s", line, msg)
	}
	w.score.Warnings = append(w.score.Warnings, msg)
	w.logger.Warn(msg)
}

// topScope starts a fresh score-level scope; every top-level item begins with
// absolute entry and a quarter-note default duration.
func (w *walker) topScope() *scope {
	var discard []models.Note
	return &scope{kind: scoreScope, staff: -1, notes: &discard, state: newOctaveState()}
}

func (w *walker) file(f *File) error {
	for _, it := range f.Items {
		if err := w.topItem(it); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) topItem(it *TopItem) error {
	switch {
	case it.Version != nil:
		w.logger.Debug("version", "value", *it.Version)
	case it.Language != nil:
		w.score.Language = strings.ToLower(*it.Language)
		w.logger.Debug("language", "value", w.score.Language)
	case it.Include != nil:
		w.warnf(it.Pos.Line, `\include %q not followed`, *it.Include)
	case it.Header != nil:
		w.header(it.Header)
	case it.Score != nil:
		return w.scoreBlock(it.Score)
	case it.Book != nil:
		return w.book(it.Book)
	case it.Assignment != nil:
		return w.assign(it.Assignment)
	case it.Music != nil:
		return w.scoreMusic(it.Music, w.topScope())
	}
	return nil
}

func (w *walker) header(h *Header) {
	for _, f := range h.Fields {
		switch f.Key {
		case "title":
			w.score.Title = valueText(f.Value)
		case "composer":
			w.score.Composer = valueText(f.Value)
		case "tempo":
			w.score.Tempo = valueText(f.Value)
		}
	}
}

func valueText(v *Value) string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return *v.String
	case v.Markup != nil:
		return v.Markup.Text()
	case v.Scheme != nil:
		return v.Scheme.Text()
	case v.Number != nil:
		return *v.Number
	case v.Ident != nil:
		return *v.Ident
	case v.Ref != nil:
		return *v.Ref
	}
	return ""
}

func (w *walker) scoreBlock(b *ScoreBlock) error {
	for _, it := range b.Items {
		switch {
		case it.Header != nil:
			w.header(it.Header)
		case it.Music != nil:
			if err := w.scoreMusic(it.Music, w.topScope()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *walker) book(b *BookBlock) error {
	for _, it := range b.Items {
		var err error
		switch {
		case it.Header != nil:
			w.header(it.Header)
		case it.Score != nil:
			err = w.scoreBlock(it.Score)
		case it.BookPart != nil:
			err = w.book(it.BookPart)
		case it.Music != nil:
			err = w.scoreMusic(it.Music, w.topScope())
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// assign evaluates a variable definition. Music is walked on its own from a
// fresh state; the stored notes are spliced by value wherever the name is used.
func (w *walker) assign(a *Assignment) error {
	v := a.Value
	switch {
	case v.Lyrics != nil:
		lyric := w.lyric(v.Lyrics)
		w.score.Variables[a.Name] = models.Variable{
			Base:  models.MusicContainerBase{Name: a.Name, Notes: []models.Note{}},
			Lyric: &lyric,
		}
	case v.Music != nil:
		var notes []models.Note
		sc := &scope{kind: variableScope, staff: -1, notes: &notes, state: newOctaveState()}
		if err := w.music(v.Music, sc); err != nil {
			return fmt.Errorf("variable %s: %w", a.Name, err)
		}
		base := models.MusicContainerBase{Name: a.Name, Notes: notes}
		base.Summarize()
		w.score.Variables[a.Name] = models.Variable{Base: base}
		w.logger.Debug("defined variable", "name", a.Name, "notes", len(notes))
	default:
		w.logger.Debug("ignored non-music variable", "name", a.Name)
	}
	return nil
}

// scoreMusic walks music met between staves, creating staves as needed
func (w *walker) scoreMusic(m *Music, sc *scope) error {
	switch {
	case m.NewContext != nil:
		return w.newContext(m.NewContext, sc)
	case m.Simultaneous != nil && containsContext(m):
		for _, it := range m.Simultaneous.Items {
			if it.Music == nil {
				continue
			}
			if err := w.scoreMusic(it.Music, sc.with(sc.state.fork())); err != nil {
				return err
			}
		}
		return nil
	case m.Sequential != nil && containsContext(m):
		for _, it := range m.Sequential.Items {
			if err := w.scoreMusic(it, sc); err != nil {
				return err
			}
		}
		return nil
	case m.Mode != nil && containsContext(m.Mode.Body):
		return w.scoreMusic(m.Mode.Body, sc.with(w.modeState(m.Mode, sc.state)))
	case m.AddLyrics != nil:
		w.addLyrics(m.AddLyrics, m.Pos.Line)
		return nil
	case w.isDirective(m):
		return w.music(m, sc)
	}
	idx := w.addStaff("")
	return w.staffBody(idx, m, sc.state.fork())
}

// containsContext reports whether m declares contexts of its own, in which
// case it is a layout of staves rather than the music of one staff
func containsContext(m *Music) bool {
	switch {
	case m == nil:
		return false
	case m.NewContext != nil:
		return true
	case m.Sequential != nil:
		for _, it := range m.Sequential.Items {
			if containsContext(it) {
				return true
			}
		}
	case m.Simultaneous != nil:
		for _, it := range m.Simultaneous.Items {
			if containsContext(it.Music) {
				return true
			}
		}
	case m.Mode != nil:
		return containsContext(m.Mode.Body)
	}
	return false
}

// isDirective reports whether m only sets properties and never carries notes
func (w *walker) isDirective(m *Music) bool {
	switch {
	case m.Clef != nil, m.Key != nil, m.Time != nil, m.Tempo != nil,
		m.Partial != nil, m.Ottava != nil, m.Property != nil, m.Tweak != nil,
		m.Markup != nil, m.Scheme != nil, m.Ignored, m.SlurStart, m.SlurEnd:
		return true
	case m.Call != nil:
		_, ok := w.score.Variables[strings.TrimPrefix(m.Call.Name, `\`)]
		return !ok
	}
	return false
}

type contextRole int

const (
	roleUnknown contextRole = iota
	roleStaff
	roleGroup
	roleVoice
	roleLyrics
	roleIgnored
)

var contextRoles = map[string]contextRole{
	"Staff":         roleStaff,
	"RhythmicStaff": roleStaff,
	"TabStaff":      roleStaff,
	"DrumStaff":     roleStaff,
	"PianoStaff":    roleGroup,
	"GrandStaff":    roleGroup,
	"StaffGroup":    roleGroup,
	"ChoirStaff":    roleGroup,
	"Score":         roleGroup,
	"Voice":         roleVoice,
	"CueVoice":      roleVoice,
	"TabVoice":      roleVoice,
	"DrumVoice":     roleVoice,
	"Lyrics":        roleLyrics,
	"Dynamics":      roleIgnored,
	"NullVoice":     roleIgnored,
	"ChordNames":    roleIgnored,
	"FiguredBass":   roleIgnored,
	"FretBoards":    roleIgnored,
}

func (w *walker) newContext(nc *NewContext, sc *scope) error {
	name := ""
	if nc.Name != nil {
		name = *nc.Name
	}
	flatten := sc.kind == variableScope || sc.kind == voiceScope

	switch contextRoles[nc.Type] {
	case roleStaff:
		if flatten {
			return w.contextMusic(nc, sc)
		}
		idx := w.addStaff(name)
		return w.staffBody(idx, nc.Body.Music, sc.state.fork())
	case roleGroup:
		if flatten {
			return w.contextMusic(nc, sc)
		}
		if nc.Body.Music == nil {
			return nil
		}
		var discard []models.Note
		group := &scope{kind: scoreScope, staff: -1, notes: &discard, state: sc.state.fork()}
		return w.scoreMusic(nc.Body.Music, group)
	case roleVoice:
		return w.voice(name, nc, sc)
	case roleLyrics:
		if sc.kind != variableScope {
			w.lyricsContext(nc)
		}
		return nil
	case roleIgnored:
		w.logger.Debug("ignored context", "type", nc.Type, "name", name)
		return nil
	}

	w.warnf(nc.Pos.Line, "unknown context %s treated as plain music", nc.Type)
	if sc.kind == scoreScope {
		if nc.Body.Music == nil {
			return nil
		}
		return w.scoreMusic(nc.Body.Music, sc)
	}
	return w.contextMusic(nc, sc)
}

// contextMusic walks a context body straight into the current sequence
func (w *walker) contextMusic(nc *NewContext, sc *scope) error {
	if nc.Body.Music == nil {
		return nil
	}
	return w.music(nc.Body.Music, sc)
}

func (w *walker) addStaff(name string) int {
	w.score.Staves = append(w.score.Staves, models.Staff{
		MusicContainerBase: models.MusicContainerBase{Name: name},
		Voices:             []models.Voice{},
	})
	idx := len(w.score.Staves) - 1
	w.logger.Debug("created staff", "index", idx, "name", name)
	return idx
}

// staffBody walks the music of staff idx and closes it
func (w *walker) staffBody(idx int, m *Music, st *octaveState) error {
	var notes []models.Note
	sc := &scope{kind: staffScope, staff: idx, notes: &notes, state: st}
	if m != nil {
		if err := w.music(m, sc); err != nil {
			return err
		}
	}
	w.closeStaff(idx, notes)
	return nil
}

// closeStaff stores the staff notes and summarizes signatures.
// Voices fill in whatever the staff itself leaves unset.
func (w *walker) closeStaff(idx int, notes []models.Note) {
	staff := &w.score.Staves[idx]
	staff.Notes = append(staff.Notes, notes...)
	staff.Summarize()
	for _, v := range staff.Voices {
		if staff.Clef == "" {
			staff.Clef = v.Base.Clef
		}
		if staff.TimeSignature == "" {
			staff.TimeSignature = v.Base.TimeSignature
		}
		if staff.KeySignature == "" {
			staff.KeySignature = v.Base.KeySignature
		}
	}
}

func (w *walker) voice(name string, nc *NewContext, sc *scope) error {
	switch sc.kind {
	case variableScope, voiceScope:
		return w.contextMusic(nc, sc)
	case scoreScope:
		idx := w.addStaff("")
		var notes []models.Note
		staffSc := &scope{kind: staffScope, staff: idx, notes: &notes, state: sc.state}
		if err := w.openVoice(name, nc.Body.Music, staffSc); err != nil {
			return err
		}
		w.closeStaff(idx, notes)
		return nil
	}
	return w.openVoice(name, nc.Body.Music, sc)
}

// openVoice adds a voice to the staff of sc and walks m into it
func (w *walker) openVoice(name string, m *Music, sc *scope) error {
	staff := &w.score.Staves[sc.staff]
	vIdx := len(staff.Voices)
	staff.Voices = append(staff.Voices, models.Voice{
		Base:   models.MusicContainerBase{Name: name},
		Lyrics: []models.Lyric{},
	})
	if name != "" {
		w.score.Voices[name] = models.VoiceRef{Staff: sc.staff, Voice: vIdx}
	}
	w.logger.Debug("created voice", "staff", sc.staff, "index", vIdx, "name", name)

	var notes []models.Note
	vsc := &scope{kind: voiceScope, staff: sc.staff, notes: &notes, state: sc.state.fork()}
	if m != nil {
		if err := w.music(m, vsc); err != nil {
			return err
		}
	}

	v := &w.score.Staves[sc.staff].Voices[vIdx]
	v.Base.Notes = notes
	v.Base.Summarize()
	return nil
}

// simultaneous lays out << >>: inside a staff every music branch is a voice,
// elsewhere the branches are walked one after the other
func (w *walker) simultaneous(s *Simultaneous, sc *scope) error {
	for _, it := range s.Items {
		if it.Music == nil {
			continue
		}
		m := it.Music
		var err error
		switch {
		case sc.kind != staffScope, m.NewContext != nil, m.AddLyrics != nil, w.isDirective(m):
			err = w.music(m, sc)
		default:
			err = w.openVoice("", m, sc)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) addLyrics(a *AddLyrics, line int) {
	if a.Body != nil {
		w.attachLyric(w.lyric(a.Body))
		return
	}
	if lyric, ok := w.lyricVariable(*a.Ref); ok {
		w.attachLyric(lyric)
		return
	}
	w.warnf(line, "lyrics dropped: %s is not a lyric variable", *a.Ref)
}

func (w *walker) lyricVariable(ref string) (models.Lyric, bool) {
	v, ok := w.score.Variables[strings.TrimPrefix(ref, `\`)]
	if !ok || v.Lyric == nil {
		return models.Lyric{}, false
	}
	return models.Lyric{TextNodes: append([]string(nil), v.Lyric.TextNodes...)}, true
}

// lyricsContext handles \new Lyrics, aligned to a named voice with \lyricsto
// or to the most recent voice otherwise
func (w *walker) lyricsContext(nc *NewContext) {
	b := nc.Body
	line := nc.Pos.Line

	switch {
	case b.LyricsTo != nil:
		lt := b.LyricsTo
		var target string
		var lyric models.Lyric
		switch {
		case lt.InlineHead != nil:
			target = lyricsToTarget(*lt.InlineHead)
			lyric = w.lyric(lt.Inline)
		case lt.Body != nil:
			target = *lt.Voice
			lyric = w.lyric(lt.Body)
		default:
			target = *lt.Voice
			var ok bool
			if lyric, ok = w.lyricVariable(*lt.Ref); !ok {
				w.warnf(line, "lyrics dropped: %s is not a lyric variable", *lt.Ref)
				return
			}
		}
		if len(lyric.TextNodes) > 0 {
			w.attachLyricTo(target, lyric, line)
		}
	case b.Lyrics != nil:
		w.attachLyric(w.lyric(b.Lyrics))
	case b.Music != nil && b.Music.Call != nil:
		if lyric, ok := w.lyricVariable(b.Music.Call.Name); ok {
			w.attachLyric(lyric)
			return
		}
		w.warnf(line, "lyrics dropped: %s is not a lyric variable", b.Music.Call.Name)
	default:
		w.warnf(line, "unsupported lyrics body skipped")
	}
}
