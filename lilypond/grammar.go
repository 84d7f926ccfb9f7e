package lilypond

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// File is the root of a LilyPond document
type File struct {
	Items []*TopItem `@@*`
}

// TopItem is one top-level statement
type TopItem struct {
	Pos lexer.Position

	Version    *string      `  "\\version" @String`
	Language   *string      `| "\\language" @String`
	Include    *string      `| "\\include" @String`
	Header     *Header      `| @@`
	Paper      *OpaqueBlock `| "\\paper" @@`
	Layout     *OpaqueBlock `| "\\layout" @@`
	Midi       *OpaqueBlock `| "\\midi" @@`
	Score      *ScoreBlock  `| "\\score" @@`
	Book       *BookBlock   `| ("\\book" | "\\bookpart") @@`
	Assignment *Assignment  `| @@`
	Markup     *Markup      `| @@`
	Scheme     *Scheme      `| @@`
	Music      *Music       `| @@`
}

type Header struct {
	Fields []*HeaderField `"\\header" "{" @@* "}"`
}

type HeaderField struct {
	Key   string `@Ident "="`
	Value *Value `@@`
}

// Value is a scalar right-hand side: header fields, property settings, tweaks
type Value struct {
	String *string `  @String`
	Scheme *Scheme `| @@`
	Markup *Markup `| @@`
	Number *string `| @("-"? Int ("." Int)?)`
	Ident  *string `| @Ident`
	Ref    *string `| @Command`
}

type ScoreBlock struct {
	Items []*ScoreItem `"{" @@* "}"`
}

type ScoreItem struct {
	Header *Header      `  @@`
	Layout *OpaqueBlock `| "\\layout" @@`
	Midi   *OpaqueBlock `| "\\midi" @@`
	Music  *Music       `| @@`
}

type BookBlock struct {
	Items []*BookItem `"{" @@* "}"`
}

type BookItem struct {
	Header   *Header      `  @@`
	Paper    *OpaqueBlock `| "\\paper" @@`
	Score    *ScoreBlock  `| "\\score" @@`
	BookPart *BookBlock   `| "\\bookpart" @@`
	Markup   *Markup      `| @@`
	Music    *Music       `| @@`
}

type Assignment struct {
	Pos   lexer.Position
	Name  string           `@Ident "="`
	Value *AssignmentValue `@@`
}

type AssignmentValue struct {
	Lyrics *LyricBody   `  LyricModeOpen @@`
	String *string      `| @String`
	Scheme *Scheme      `| @@`
	Markup *Markup      `| @@`
	Number *string      `| @("-"? Int ("." Int)?)`
	Block  *OpaqueBlock `| ("\\layout" | "\\paper" | "\\midi" | "\\with" | "\\header") @@`
	Music  *Music       `| @@`
}

// Music is any music expression
type Music struct {
	Pos lexer.Position

	Sequential     *MusicBlock     `  "{" @@`
	Simultaneous   *Simultaneous   `| "<<" @@`
	NewContext     *NewContext     `| @@`
	Mode           *ModeBlock      `| @@`
	Transpose      *Transpose      `| @@`
	ModalTranspose *ModalTranspose `| @@`
	Repeat         *Repeat         `| @@`
	Grace          *Grace          `| @@`
	AfterGrace     *AfterGrace     `| @@`
	Tuplet         *Tuplet         `| @@`
	Clef           *Clef           `| @@`
	Key            *KeySig         `| @@`
	Time           *TimeSig        `| @@`
	Tempo          *Tempo          `| @@`
	Partial        *Partial        `| @@`
	Ottava         *string         `| "\\ottava" @SchemeAtom`
	Skip           *Duration       `| "\\skip" @@`
	Property       *Property       `| @@`
	Tweak          *Tweak          `| @@`
	AddLyrics      *AddLyrics      `| @@`
	Markup         *Markup         `| @@`
	Scheme         *Scheme         `| @@`
	Chord          *Chord          `| @@`
	ChordRepeat    *ChordRepeat    `| @@`
	Rest           *Rest           `| @@`
	Note           *Note           `| @@`
	SlurStart      bool            `| @"("`
	SlurEnd        bool            `| @")"`
	Ignored        bool            `| @("[" | "]" | "|" | "~")`
	Call           *Call           `| @@`
}

type MusicBlock struct {
	Items []*Music `@@* "}"`
}

type Simultaneous struct {
	Items []*SimItem `@@* ">>"`
}

type SimItem struct {
	Separator bool   `  @"\\\\"`
	Music     *Music `| @@`
}

// NewContext is \new or \context with an optional name and \with block
type NewContext struct {
	Pos  lexer.Position
	Type string       `("\\new" | "\\context") @Ident`
	Name *string      `[ "=" @(String | Ident) ]`
	With *OpaqueBlock `[ "\\with" @@ ]`
	Body *ContextBody `@@`
}

type ContextBody struct {
	LyricsTo *LyricsTo  `  @@`
	Lyrics   *LyricBody `| (LyricModeOpen | AddLyricsOpen) @@`
	Music    *Music     `| @@`
}

type LyricsTo struct {
	InlineHead *string    `  @LyricsToOpen`
	Inline     *LyricBody `  @@`
	Voice      *string    `| "\\lyricsto" @(String | Ident)`
	Body       *LyricBody `  ( LyricModeOpen @@`
	Ref        *string    `  | @Command )`
}

type ModeBlock struct {
	Kind      string    `@("\\relative" | "\\fixed" | "\\absolute")`
	Reference *PitchRef `[ @@ ]`
	Body      *Music    `@@`
}

type PitchRef struct {
	Name   string `@Ident`
	Octave string `{ @("'" | ",") }`
}

type Transpose struct {
	From *PitchRef `"\\transpose" @@`
	To   *PitchRef `@@`
	Body *Music    `@@`
}

type ModalTranspose struct {
	From  *PitchRef `"\\modalTranspose" @@`
	To    *PitchRef `@@`
	Scale *Music    `@@`
	Body  *Music    `@@`
}

type Repeat struct {
	Pos          lexer.Position
	Type         string   `"\\repeat" @Ident`
	Times        int      `[ @Int ]`
	Body         *Music   `@@`
	Alternatives []*Music `[ "\\alternative" "{" @@* "}" ]`
}

type Grace struct {
	Kind string `@("\\grace" | "\\acciaccatura" | "\\appoggiatura" | "\\slashedGrace")`
	Body *Music `@@`
}

type AfterGrace struct {
	Main  *Music `"\\afterGrace" [ Int "/" Int ] @@`
	Grace *Music `@@`
}

type Tuplet struct {
	Kind        string    `@("\\tuplet" | "\\times")`
	Numerator   int       `@Int "/"`
	Denominator int       `@Int`
	Span        *Duration `[ @@ ]`
	Body        *Music    `@@`
}

type Clef struct {
	Name string `"\\clef" ( @String | @( Ident [ ("_" | "^") Int ] ) )`
}

type KeySig struct {
	Pos   lexer.Position
	Tonic string `"\\key" @Ident { "'" | "," }`
	Mode  string `@Command`
}

type TimeSig struct {
	Numerator   int `"\\time" @Int`
	Denominator int `"/" @Int`
}

type Tempo struct {
	Text      *string    `"\\tempo" [ @String`
	Markup    *Markup    `           | @@ ]`
	Metronome *Metronome `[ @@ ]`
}

type Metronome struct {
	Beat *Duration `@@ "="`
	BPM  string    `@( Int [ "-" Int ] )`
}

// Property is an \override, \set, \revert, \unset, \omit or \hide command
type Property struct {
	Once    bool      `[ @"\\once" ]`
	Command string    `@("\\override" | "\\set" | "\\revert" | "\\unset" | "\\omit" | "\\hide")`
	Path    string    `@( Ident { ("." | "-") Ident } )`
	Legacy  []*Scheme `{ @@ }`
	Value   *Value    `[ "=" @@ ]`
}

type Tweak struct {
	Path   *string `"\\tweak" ( @( Ident { ("." | "-") Ident } )`
	Scheme *Scheme `          | @@ )`
	Value  *Value  `@@`
}

type AddLyrics struct {
	Body *LyricBody `  AddLyricsOpen @@`
	Ref  *string    `| "\\addlyrics" @Command`
}

type Duration struct {
	Value string `@(Int | "\\breve" | "\\longa" | "\\maxima")`
	Dots  string `{ @"." }`
}

type Partial struct {
	Duration   *Duration   `"\\partial" @@`
	Multiplier *Multiplier `[ @@ ]`
}

type Multiplier struct {
	Factor      int `"*" @Int`
	Denominator int `[ "/" @Int ]`
}

type Note struct {
	Pos        lexer.Position
	Pitch      string       `@Ident`
	Octave     string       `{ @("'" | ",") }`
	Accidental string       `[ @("!" | "?") ]`
	Duration   *Duration    `[ @@ ]`
	Multiplier *Multiplier  `[ @@ ]`
	Post       []*PostEvent `{ @@ }`
}

type Rest struct {
	Kind       string       `@("r" | "R" | "s")`
	Duration   *Duration    `[ @@ ]`
	Multiplier *Multiplier  `[ @@ ]`
	Post       []*PostEvent `{ @@ }`
}

type ChordRepeat struct {
	Pos        lexer.Position
	Duration   *Duration    `"q" [ @@ ]`
	Multiplier *Multiplier  `[ @@ ]`
	Post       []*PostEvent `{ @@ }`
}

type Chord struct {
	Pos        lexer.Position
	Members    []*ChordMember `"<" @@* ">"`
	Duration   *Duration      `[ @@ ]`
	Multiplier *Multiplier    `[ @@ ]`
	Post       []*PostEvent   `{ @@ }`
}

type ChordMember struct {
	Pitch      string       `@Ident`
	Octave     string       `{ @("'" | ",") }`
	Accidental string       `[ @("!" | "?") ]`
	Post       []*PostEvent `{ @@ }`
}

// PostEvent is a tie, script attachment, tremolo or attached command following a note
type PostEvent struct {
	Tie     bool    `  @"~"`
	Script  *Script `| @@`
	Tremolo bool    `| @":" [ Int ]`
}

type Script struct {
	Direction string         `@("^" | "_" | "-")`
	Content   *ScriptContent `[ @@ ]`
}

type ScriptContent struct {
	Fingering    *int    `  @Int`
	Text         *string `| @String`
	Markup       *Markup `| @@`
	Articulation *string `| @Command | @("." | "-" | ">" | "^" | "+" | "!" | "_")`
}

// Call is a variable reference or a custom function call whose arguments are discarded
type Call struct {
	Pos  lexer.Position
	Name string     `@Command`
	Args []*CallArg `{ @@ }`
}

type CallArg struct {
	String *string `  @String`
	Scheme *Scheme `| @@`
	Number *string `| @( Int { "." [ Int ] } )`
}

type Markup struct {
	Keyword string          `@("\\markup" | "\\markuplist")`
	Prefix  []*MarkupPrefix `{ @@ }`
	Body    *MarkupBody     `[ @@ ]`
}

type MarkupPrefix struct {
	Command string  `  @Command`
	Scheme  *Scheme `| @@`
}

type MarkupBody struct {
	String *string      `  @String`
	Block  *OpaqueBlock `| @@`
}

// Text returns the plain words of the markup
func (m *Markup) Text() string {
	if m == nil || m.Body == nil {
		return ""
	}
	if m.Body.String != nil {
		return *m.Body.String
	}
	return m.Body.Block.Text()
}

// OpaqueBlock is a brace-balanced token soup kept for its words only
type OpaqueBlock struct {
	Items []*OpaqueItem `"{" @@* "}"`
}

type OpaqueItem struct {
	Block  *OpaqueBlock `  @@`
	Scheme *Scheme      `| @@`
	Lyrics *LyricBody   `| (AddLyricsOpen | LyricModeOpen | LyricsToOpen) @@`
	Word   *string      `| @(Ident | String)`
	Token  *string      `| @(Int | Command | Punct | Other)`
}

// Text joins the words of the block, skipping commands and punctuation
func (b *OpaqueBlock) Text() string {
	if b == nil {
		return ""
	}
	var words []string
	for _, it := range b.Items {
		switch {
		case it.Word != nil:
			words = append(words, *it.Word)
		case it.Block != nil:
			if t := it.Block.Text(); t != "" {
				words = append(words, t)
			}
		}
	}
	return strings.Join(words, " ")
}

// Scheme is an embedded scheme atom or list, never evaluated
type Scheme struct {
	Atom *string     `  @SchemeAtom`
	List *SchemeList `| @@`
}

type SchemeList struct {
	Open  string        `@(SchemeOpen | SchemeInnerOpen)`
	Parts []*SchemePart `@@* SchemeClose`
}

type SchemePart struct {
	List *SchemeList `  @@`
	Word *string     `| @(SchemeWord | SchemeString)`
}

// Text reconstructs the scheme payload
func (s *Scheme) Text() string {
	if s == nil {
		return ""
	}
	if s.Atom != nil {
		return *s.Atom
	}
	return s.List.text()
}

func (l *SchemeList) text() string {
	parts := make([]string, 0, len(l.Parts))
	for _, p := range l.Parts {
		if p.List != nil {
			parts = append(parts, p.List.text())
		} else if p.Word != nil {
			parts = append(parts, *p.Word)
		}
	}
	return l.Open + strings.Join(parts, " ") + ")"
}

type LyricBody struct {
	Items []*LyricItem `@@* LyricClose`
}

type LyricItem struct {
	Setting *LyricSetting `  @@`
	Skip    *string       `| "\\skip" @LyricWord`
	Block   *LyricBody    `| LyricOpen @@`
	Scheme  *Scheme       `| @@`
	Command *string       `| @LyricCommand`
	Word    *string       `| @(LyricWord | LyricString)`
}

type LyricSetting struct {
	Once    bool        `[ @"\\once" ]`
	Command string      `@("\\set" | "\\override" | "\\unset" | "\\revert")`
	Path    string      `@LyricWord`
	Legacy  []*Scheme   `{ @@ }`
	Value   *LyricValue `[ "=" @@ ]`
}

type LyricValue struct {
	Scheme *Scheme `  @@`
	Text   *string `| @(LyricWord | LyricString)`
}

var fileParser = participle.MustBuild[File](
	participle.Lexer(lilypondLexer),
	participle.Elide(elidedTokens...),
	participle.Map(unquoteToken, "String", "LyricString"),
	participle.UseLookahead(8),
)
