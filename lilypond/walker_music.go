package lilypond

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/magda-lilypond-go/models"
)

var (
	// ErrNoPreviousChord is returned when q has nothing to repeat
	ErrNoPreviousChord = errors.New("chord repetition without a previous chord")
	// ErrEmptyChord is returned for <> carrying a duration
	ErrEmptyChord = errors.New("empty chord")
)

var modeKinds = map[string]models.ModeKind{
	`\relative`: models.ModeRelative,
	`\fixed`:    models.ModeFixed,
	`\absolute`: models.ModeAbsolute,
}

// music walks one music expression into sc
func (w *walker) music(m *Music, sc *scope) error {
	line := m.Pos.Line

	switch {
	case m.Sequential != nil:
		for _, it := range m.Sequential.Items {
			if err := w.music(it, sc); err != nil {
				return err
			}
		}
	case m.Simultaneous != nil:
		return w.simultaneous(m.Simultaneous, sc)
	case m.NewContext != nil:
		return w.newContext(m.NewContext, sc)
	case m.Mode != nil:
		return w.mode(m.Mode, sc)
	case m.Transpose != nil:
		return w.transpose(m.Transpose, sc)
	case m.ModalTranspose != nil:
		return w.modalTranspose(m.ModalTranspose, sc)
	case m.Repeat != nil:
		return w.repeat(m.Repeat, sc)
	case m.Grace != nil:
		return w.grace(m.Grace.Body, sc)
	case m.AfterGrace != nil:
		if err := w.music(m.AfterGrace.Main, sc); err != nil {
			return err
		}
		return w.grace(m.AfterGrace.Grace, sc)
	case m.Tuplet != nil:
		return w.music(m.Tuplet.Body, sc)
	case m.Clef != nil:
		w.marker(sc, models.Note{NoteType: models.NoteClef, Clef: m.Clef.Name})
	case m.Key != nil:
		w.key(m.Key, sc)
	case m.Time != nil:
		sig := fmt.Sprintf("%d/%d", m.Time.Numerator, m.Time.Denominator)
		if w.score.TimeSignature == "" {
			w.score.TimeSignature = sig
		}
		w.marker(sc, models.Note{NoteType: models.NoteTime, TimeSig: sig})
	case m.Tempo != nil:
		w.tempo(m.Tempo)
	case m.Partial != nil:
		return w.partial(m.Partial, line)
	case m.Ottava != nil:
		w.ottava(*m.Ottava, sc, line)
	case m.Skip != nil:
		return w.skip(m.Skip, sc, line)
	case m.AddLyrics != nil:
		if sc.kind != variableScope {
			w.addLyrics(m.AddLyrics, line)
		}
	case m.Chord != nil:
		return w.chord(m.Chord, sc, line)
	case m.ChordRepeat != nil:
		return w.chordRepeat(m.ChordRepeat, sc, line)
	case m.Rest != nil:
		return w.rest(m.Rest, sc, line)
	case m.Note != nil:
		return w.note(m.Note, sc, line)
	case m.SlurStart:
		markPrevious(*sc.notes, func(n *models.Note) { n.GroupStart = true })
	case m.SlurEnd:
		markPrevious(*sc.notes, func(n *models.Note) { n.GroupEnd = true })
	case m.Call != nil:
		w.call(m.Call, sc, line)
	}
	return nil
}

func (w *walker) modeState(mb *ModeBlock, outer *octaveState) *octaveState {
	kind := modeKinds[mb.Kind]
	ref := w.pitchRef(mb.Reference)
	if w.score.MusicMode == nil {
		mm := models.MusicMode{Kind: kind}
		if ref != nil {
			mm.Reference = ref.raw
		}
		w.score.MusicMode = &mm
	}
	return outer.enterMode(kind, ref)
}

// mode walks a \relative, \fixed or \absolute block with its own state.
// Afterwards the enclosing state continues from the last note of the block.
func (w *walker) mode(mb *ModeBlock, sc *scope) error {
	inner := w.modeState(mb, sc.state)
	start := len(*sc.notes)
	if err := w.music(mb.Body, sc.with(inner)); err != nil {
		return err
	}
	sc.state.duration = inner.duration
	sc.state.followLast((*sc.notes)[start:])
	return nil
}

func (w *walker) transpose(t *Transpose, sc *scope) error {
	from, to := w.pitchRef(t.From), w.pitchRef(t.To)
	start := len(*sc.notes)
	if err := w.music(t.Body, sc); err != nil {
		return err
	}
	notes := *sc.notes
	for i := start; i < len(notes); i++ {
		n := &notes[i]
		if !n.IsSounding() {
			continue
		}
		n.Pitch, n.Octave = transposePitch(n.Pitch, n.Octave, *from, *to)
		for j := range n.ChordNotes {
			ct := &n.ChordNotes[j]
			ct.Pitch, ct.Octave = transposePitch(ct.Pitch, ct.Octave, *from, *to)
		}
	}
	return nil
}

// modalTranspose shifts notes by scale degrees of the scale given as music.
// Notes outside the scale, and everything when either pitch is outside it, stay put.
func (w *walker) modalTranspose(mt *ModalTranspose, sc *scope) error {
	var scaleNotes, body []models.Note
	scaleSc := &scope{kind: variableScope, staff: -1, notes: &scaleNotes, state: sc.state.fork()}
	if err := w.music(mt.Scale, scaleSc); err != nil {
		return err
	}
	bodySc := &scope{kind: variableScope, staff: -1, notes: &body, state: sc.state.fork()}
	if err := w.music(mt.Body, bodySc); err != nil {
		return err
	}

	var scale []string
	for _, n := range scaleNotes {
		if n.IsSounding() {
			scale = append(scale, n.Pitch)
		}
	}
	from, to := w.pitchRef(mt.From), w.pitchRef(mt.To)
	fromIdx, toIdx := indexOf(scale, from.pitch), indexOf(scale, to.pitch)

	if fromIdx >= 0 && toIdx >= 0 {
		size := len(scale)
		interval := (toIdx - fromIdx + size) % size
		shift := to.octave - from.octave
		for i := range body {
			n := &body[i]
			if !n.IsSounding() {
				continue
			}
			idx := indexOf(scale, n.Pitch)
			if idx < 0 {
				continue
			}
			n.Pitch = scale[(idx+interval)%size]
			n.Octave += shift + (idx+interval)/size
		}
	}

	*sc.notes = append(*sc.notes, body...)
	sc.state.followLast(body)
	return nil
}

func indexOf(items []string, s string) int {
	for i, it := range items {
		if it == s {
			return i
		}
	}
	return -1
}

// repeat expands \repeat. volta and segno keep one copy framed by repeat and
// alternative markers; unfold, percent and tremolo write every pass out.
func (w *walker) repeat(r *Repeat, sc *scope) error {
	times := max(r.Times, 1)

	switch r.Type {
	case "volta", "segno":
		w.marker(sc, models.NewMarker(models.NoteRepeatStart))
		if err := w.music(r.Body, sc); err != nil {
			return err
		}
		for k, alt := range r.Alternatives {
			index := k + 1
			start := len(*sc.notes)
			w.marker(sc, models.NewMarker(models.NoteAlternativeStart))
			if err := w.music(alt, sc); err != nil {
				return err
			}
			w.marker(sc, models.NewMarker(models.NoteAlternativeEnd))
			tagAlternative((*sc.notes)[start:], index)
		}
		w.marker(sc, models.NewMarker(models.NoteRepeatEnd))
		return nil

	case "unfold", "percent", "tremolo":
		start := len(*sc.notes)
		if err := w.music(r.Body, sc); err != nil {
			return err
		}
		body := models.CloneNotes((*sc.notes)[start:])
		*sc.notes = (*sc.notes)[:start]

		alts := make([][]models.Note, 0, len(r.Alternatives))
		for _, alt := range r.Alternatives {
			var notes []models.Note
			altSc := &scope{kind: sc.kind, staff: sc.staff, notes: &notes, state: sc.state}
			if err := w.music(alt, altSc); err != nil {
				return err
			}
			alts = append(alts, notes)
		}

		// the first alternative serves the passes before the last len(alts)
		common := max(times-len(alts), 0)
		for range common {
			*sc.notes = append(*sc.notes, models.CloneNotes(body)...)
			if len(alts) > 0 {
				*sc.notes = append(*sc.notes, models.CloneNotes(alts[0])...)
			}
		}
		for _, alt := range alts {
			*sc.notes = append(*sc.notes, models.CloneNotes(body)...)
			*sc.notes = append(*sc.notes, models.CloneNotes(alt)...)
		}
		return nil
	}

	w.logger.Debug("repeat written out once", "type", r.Type)
	if err := w.music(r.Body, sc); err != nil {
		return err
	}
	for _, alt := range r.Alternatives {
		if err := w.music(alt, sc); err != nil {
			return err
		}
	}
	return nil
}

func tagAlternative(notes []models.Note, index int) {
	for i := range notes {
		notes[i].AlternativeIndex = append(notes[i].AlternativeIndex, index)
	}
}

// grace walks body and relabels every non-marker note it produced as a grace note
func (w *walker) grace(body *Music, sc *scope) error {
	start := len(*sc.notes)
	if err := w.music(body, sc); err != nil {
		return err
	}
	notes := *sc.notes
	for i := start; i < len(notes); i++ {
		if !notes[i].NoteType.IsMarker() {
			notes[i].NoteType = models.NoteGrace
		}
	}
	return nil
}

func (w *walker) key(k *KeySig, sc *scope) {
	tonic := StandardizePitch(k.Tonic, w.score.Language)
	name := KeySignatureName(tonic, k.Mode)
	if w.score.KeySignature == "" {
		w.score.KeySignature = name
	}
	w.marker(sc, models.Note{NoteType: models.NoteKey, KeySig: name})
}

func (w *walker) tempo(t *Tempo) {
	var text string
	switch {
	case t.Text != nil:
		text = *t.Text
	case t.Markup != nil:
		text = t.Markup.Text()
	}
	if text == "" && t.Metronome != nil {
		text = t.Metronome.Beat.Value + t.Metronome.Beat.Dots + "=" + t.Metronome.BPM
	}
	if text != "" && w.score.Tempo == "" {
		w.score.Tempo = text
	}
}

func (w *walker) partial(p *Partial, line int) error {
	d := p.Duration
	if _, err := DurationToFraction(d.Value, d.Dots); err != nil {
		return fmt.Errorf("line %d: partial: %w", line, err)
	}
	value := d.Value + d.Dots
	if m := p.Multiplier; m != nil {
		value += "*" + strconv.Itoa(m.Factor)
		if m.Denominator != 0 {
			value += "/" + strconv.Itoa(m.Denominator)
		}
	}
	if w.score.Partial == "" {
		w.score.Partial = value
	}
	return nil
}

func (w *walker) ottava(atom string, sc *scope, line int) {
	v, err := strconv.Atoi(strings.TrimLeft(atom, "#$"))
	if err != nil {
		w.warnf(line, `\ottava %s skipped`, atom)
		return
	}
	w.marker(sc, models.Note{NoteType: models.NoteOttava, Ottava: &v})
}

func (w *walker) skip(d *Duration, sc *scope, line int) error {
	if _, err := DurationToFraction(d.Value, d.Dots); err != nil {
		return fmt.Errorf("line %d: %w", line, err)
	}
	w.emit(sc, models.Note{Pitch: "r", Duration: d.Value, Dots: d.Dots, NoteType: models.NoteRest}, 1, false)
	return nil
}

// duration returns the written duration, or the running one when none is written.
// Dots are never inherited.
func (w *walker) duration(d *Duration, st *octaveState, line int) (string, string, error) {
	if d == nil {
		return st.duration, "", nil
	}
	if _, err := DurationToFraction(d.Value, d.Dots); err != nil {
		return "", "", fmt.Errorf("line %d: %w", line, err)
	}
	st.duration = d.Value
	return d.Value, d.Dots, nil
}

func repeatCount(m *Multiplier) int {
	if m == nil || m.Denominator != 0 || m.Factor < 1 {
		return 1
	}
	return m.Factor
}

func accidentalModifier(mark string) string {
	switch mark {
	case "!":
		return models.AccidentalForced
	case "?":
		return models.AccidentalCautionary
	}
	return ""
}

func (w *walker) note(n *Note, sc *scope, line int) error {
	if !IsPitchName(n.Pitch, w.score.Language) {
		w.warnf(line, "skipped unknown token %q", n.Pitch)
		return nil
	}
	pitch := StandardizePitch(n.Pitch, w.score.Language)
	dur, dots, err := w.duration(n.Duration, sc.state, line)
	if err != nil {
		return err
	}
	octave := sc.state.resolve(pitch, OctaveFromMarks(n.Octave))
	sc.state.follow(pitch, octave)

	note := models.Note{
		Pitch:              pitch,
		Duration:           dur,
		Dots:               dots,
		Octave:             octave,
		NoteType:           models.NoteDefault,
		AccidentalModifier: accidentalModifier(n.Accidental),
	}
	applyPost(&note, n.Post)
	w.emit(sc, note, repeatCount(n.Multiplier), true)
	return nil
}

func (w *walker) rest(r *Rest, sc *scope, line int) error {
	dur, dots, err := w.duration(r.Duration, sc.state, line)
	if err != nil {
		return err
	}
	pitch := "r"
	if r.Kind == "R" {
		pitch = "R"
	}
	note := models.Note{Pitch: pitch, Duration: dur, Dots: dots, NoteType: models.NoteRest}
	applyPost(&note, r.Post)
	w.emit(sc, note, repeatCount(r.Multiplier), false)
	return nil
}

// chord builds a chord note: the first member is the root carrying duration
// and kind, the others resolve against the root
func (w *walker) chord(c *Chord, sc *scope, line int) error {
	members := make([]*ChordMember, 0, len(c.Members))
	for _, m := range c.Members {
		if !IsPitchName(m.Pitch, w.score.Language) {
			w.warnf(line, "skipped unknown chord tone %q", m.Pitch)
			continue
		}
		members = append(members, m)
	}
	if len(members) == 0 {
		if c.Duration == nil {
			// <> anchors post events without taking time
			return nil
		}
		return fmt.Errorf("line %d: %w", line, ErrEmptyChord)
	}

	root := members[0]
	rootPitch := StandardizePitch(root.Pitch, w.score.Language)
	rootOctave := sc.state.resolve(rootPitch, OctaveFromMarks(root.Octave))

	var tones []models.ChordTone
	for _, m := range members[1:] {
		p := StandardizePitch(m.Pitch, w.score.Language)
		tones = append(tones, models.ChordTone{
			Pitch:  p,
			Octave: sc.state.resolveChordTone(p, OctaveFromMarks(m.Octave), rootPitch, rootOctave),
		})
	}
	sc.state.follow(rootPitch, rootOctave)

	dur, dots, err := w.duration(c.Duration, sc.state, line)
	if err != nil {
		return err
	}
	note := models.Note{
		Pitch:              rootPitch,
		Duration:           dur,
		Dots:               dots,
		Octave:             rootOctave,
		ChordNotes:         tones,
		NoteType:           models.NoteChord,
		AccidentalModifier: accidentalModifier(root.Accidental),
	}
	for _, m := range members {
		applyPost(&note, m.Post)
	}
	applyPost(&note, c.Post)
	w.emit(sc, note, repeatCount(c.Multiplier), true)
	return nil
}

// chordRepeat clones the most recent sounding note with the duration and
// scripts written at the q
func (w *walker) chordRepeat(q *ChordRepeat, sc *scope, line int) error {
	var prev *models.Note
	for i := len(*sc.notes) - 1; i >= 0; i-- {
		if (*sc.notes)[i].IsSounding() {
			prev = &(*sc.notes)[i]
			break
		}
	}
	if prev == nil {
		return fmt.Errorf("line %d: %w", line, ErrNoPreviousChord)
	}

	dur, dots, err := w.duration(q.Duration, sc.state, line)
	if err != nil {
		return err
	}
	note := prev.Clone()
	note.Duration, note.Dots = dur, dots
	note.ScriptAttachments = nil
	note.AlternativeIndex = nil
	note.HasSlur, note.GroupStart, note.GroupEnd, note.Arpeggio = false, false, false, false
	note.NoteType = models.NoteDefault
	if len(note.ChordNotes) > 0 || prev.NoteType == models.NoteChord {
		note.NoteType = models.NoteChord
	}
	applyPost(&note, q.Post)
	w.emit(sc, note, repeatCount(q.Multiplier), true)
	return nil
}

// emit appends count copies of note. A note following a tied note closes the tie group.
func (w *walker) emit(sc *scope, note models.Note, count int, closesTie bool) {
	if closesTie {
		if prev := lastNote(*sc.notes); prev != nil && prev.HasSlur {
			note.GroupEnd = true
		}
	}
	for range count {
		*sc.notes = append(*sc.notes, note.Clone())
	}
}

func (w *walker) marker(sc *scope, note models.Note) {
	*sc.notes = append(*sc.notes, note)
}

func lastNote(notes []models.Note) *models.Note {
	for i := len(notes) - 1; i >= 0; i-- {
		if !notes[i].NoteType.IsMarker() {
			return &notes[i]
		}
	}
	return nil
}

func markPrevious(notes []models.Note, mark func(*models.Note)) {
	if n := lastNote(notes); n != nil {
		mark(n)
	}
}

func applyPost(note *models.Note, posts []*PostEvent) {
	for _, p := range posts {
		switch {
		case p.Tie:
			note.HasSlur = true
			note.GroupStart = true
		case p.Script != nil:
			note.ScriptAttachments = append(note.ScriptAttachments, scriptAttachment(p.Script))
		}
	}
}

var scriptDirections = map[string]models.ScriptDirection{
	"^": models.ScriptAbove,
	"_": models.ScriptBelow,
	"-": models.ScriptDefault,
}

func scriptAttachment(s *Script) models.ScriptAttachment {
	att := models.ScriptAttachment{Direction: scriptDirections[s.Direction], Kind: models.ScriptEmpty}
	c := s.Content
	switch {
	case c == nil:
	case c.Fingering != nil:
		att.Kind, att.Fingering = models.ScriptFingering, *c.Fingering
	case c.Text != nil:
		att.Kind, att.Text = models.ScriptText, *c.Text
	case c.Markup != nil:
		att.Kind, att.Text = models.ScriptMarkup, c.Markup.Text()
	case c.Articulation != nil:
		att.Kind, att.Text = models.ScriptArticulation, strings.TrimPrefix(*c.Articulation, `\`)
	}
	return att
}

// call splices a variable or applies a known command; anything else is consumed silently
func (w *walker) call(c *Call, sc *scope, line int) {
	name := strings.TrimPrefix(c.Name, `\`)
	if v, ok := w.score.Variables[name]; ok {
		splice := models.CloneNotes(v.Base.Notes)
		*sc.notes = append(*sc.notes, splice...)
		sc.state.followLast(splice)
		return
	}

	switch name {
	case "arpeggio":
		markPrevious(*sc.notes, func(n *models.Note) { n.Arpeggio = true })
		return
	}
	if len(c.Args) == 0 && !isBuiltinCommand(name) {
		w.warnf(line, `undefined reference \%s`, name)
	}
}
