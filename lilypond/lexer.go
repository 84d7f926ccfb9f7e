package lilypond

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// lilypondLexer tokenizes LilyPond source.
//
// Root covers music, headers and blocks. Lyric-mode openers push the Lyrics
// state, where any run of non-space characters is a syllable. Scheme entries
// (#..., $...) are atoms, or balanced parenthesized lists lexed in the Scheme
// state; their payload is kept as opaque text.
var lilypondLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "BlockComment", Pattern: `%\{(?s:.*?)%\}`},
		{Name: "Comment", Pattern: `%[^\n]*`},
		{Name: "Whitespace", Pattern: `\s+`},
		lexer.Include("SchemeEntry"),
		{Name: "AddLyricsOpen", Pattern: `\\addlyrics\s*\{`, Action: lexer.Push("Lyrics")},
		{Name: "LyricModeOpen", Pattern: `\\lyricmode\s*\{`, Action: lexer.Push("Lyrics")},
		{Name: "LyricsToOpen", Pattern: `\\lyricsto\s*(?:"(?:\\.|[^"\\])*"|[A-Za-z]+)\s*\{`, Action: lexer.Push("Lyrics")},
		{Name: "Command", Pattern: `\\(?:[A-Za-z]+(?:[-_][A-Za-z]+)*|[^A-Za-z\s])`},
		{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
		{Name: "Int", Pattern: `\d+`},
		{Name: "Ident", Pattern: `[A-Za-z]+`},
		{Name: "LBrace", Pattern: `\{`},
		{Name: "RBrace", Pattern: `\}`},
		{Name: "Punct", Pattern: `<<|>>|[<>()\[\]~|=.',*/\-^_!?:+]`},
		{Name: "Other", Pattern: `\S`},
	},
	"SchemeEntry": {
		{Name: "SchemeOpen", Pattern: "[#$]+['`]?\\(", Action: lexer.Push("Scheme")},
		{Name: "SchemeAtom", Pattern: "[#$]+(?:\"(?:\\\\.|[^\"\\\\])*\"|['`]?[^\\s(){}\"\\[\\]<>]*)"},
	},
	"Scheme": {
		{Name: "SchemeSpace", Pattern: `\s+`},
		{Name: "SchemeComment", Pattern: `;[^\n]*`},
		{Name: "SchemeInnerOpen", Pattern: "['`,@#]*\\(", Action: lexer.Push("Scheme")},
		{Name: "SchemeClose", Pattern: `\)`, Action: lexer.Pop()},
		{Name: "SchemeString", Pattern: `"(?:\\.|[^"\\])*"`},
		{Name: "SchemeWord", Pattern: `[^\s()";]+`},
	},
	"Lyrics": {
		{Name: "LyricSpace", Pattern: `\s+`},
		{Name: "LyricComment", Pattern: `%[^\n]*`},
		lexer.Include("SchemeEntry"),
		{Name: "LyricOpen", Pattern: `\{`, Action: lexer.Push("Lyrics")},
		{Name: "LyricClose", Pattern: `\}`, Action: lexer.Pop()},
		{Name: "LyricString", Pattern: `"(?:\\.|[^"\\])*"`},
		{Name: "LyricCommand", Pattern: `\\[A-Za-z]+`},
		{Name: "LyricWord", Pattern: `[^\s{}"\\#%]+`},
	},
})

// elidedTokens never reach the grammar
var elidedTokens = []string{
	"BlockComment", "Comment", "Whitespace",
	"SchemeSpace", "SchemeComment",
	"LyricSpace", "LyricComment",
}

// unquoteToken strips the quotes of a string token and resolves \" \\ \n \t.
// Unknown escapes are kept verbatim.
func unquoteToken(tok lexer.Token) (lexer.Token, error) {
	tok.Value = unquote(tok.Value)
	return tok, nil
}

func unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	body := s[1 : len(s)-1]
	if !strings.Contains(body, `\`) {
		return body
	}

	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			b.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case '"', '\\':
			b.WriteByte(body[i])
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte('\\')
			b.WriteByte(body[i])
		}
	}
	return b.String()
}
