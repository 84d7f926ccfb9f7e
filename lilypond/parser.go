package lilypond

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"

	"github.com/alecthomas/participle/v2"
	"github.com/getsentry/sentry-go"

	"github.com/Conceptual-Machines/magda-lilypond-go/models"
)

// ParseError reports input the grammar rejects
type ParseError struct {
	Line     int
	Column   int
	Token    string
	Expected string
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

var unexpectedToken = regexp.MustCompile(`unexpected token "((?:\\.|[^"\\])*)"(?: \(expected (.*)\))?`)

func newParseError(err error) error {
	var perr participle.Error
	if !errors.As(err, &perr) {
		return &ParseError{Message: err.Error()}
	}
	pos := perr.Position()
	pe := &ParseError{Line: pos.Line, Column: pos.Column, Message: perr.Message()}
	if m := unexpectedToken.FindStringSubmatch(pe.Message); m != nil {
		pe.Token, pe.Expected = m[1], m[2]
	}
	return pe
}

// Option configures a Parser
type Option func(*Parser)

// WithLogger sets the logger receiving walk traces and warnings
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithLanguage sets the note-name language used until a \language directive
func WithLanguage(language string) Option {
	return func(p *Parser) {
		p.language = language
	}
}

// Parser turns LilyPond source into a Score. It holds no per-call state
// and is safe for concurrent use.
type Parser struct {
	logger   *slog.Logger
	language string
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		language: DefaultLanguage,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse runs the grammar, the semantic walk and the measure organizer.
// Any failure aborts the whole parse.
func (p *Parser) Parse(ctx context.Context, source string) (*models.Score, error) {
	span := sentry.StartSpan(ctx, "lilypond.parse")
	defer span.Finish()
	span.SetData("source_bytes", len(source))

	grammarSpan := span.StartChild("lilypond.grammar")
	file, err := fileParser.ParseString("", source)
	grammarSpan.Finish()
	if err != nil {
		span.Status = sentry.SpanStatusInvalidArgument
		return nil, newParseError(err)
	}

	walkSpan := span.StartChild("lilypond.walk")
	w := newWalker(p.language, p.logger)
	err = w.file(file)
	if err == nil {
		err = organize(w.score)
	}
	walkSpan.Finish()
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}

	score := w.score
	span.SetData("staves", len(score.Staves))
	span.SetData("notes", score.NoteCount())
	span.SetData("warnings", len(score.Warnings))
	span.Status = sentry.SpanStatusOK
	p.logger.Debug("parsed score", "staves", len(score.Staves), "voices", score.VoiceCount(), "warnings", len(score.Warnings))
	return score, nil
}

// Parse parses source with a one-off Parser
func Parse(source string, opts ...Option) (*models.Score, error) {
	return NewParser(opts...).Parse(context.Background(), source)
}
