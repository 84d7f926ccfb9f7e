package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/magda-lilypond-go/lilypond"
	"github.com/Conceptual-Machines/magda-lilypond-go/metrics"
	"github.com/Conceptual-Machines/magda-lilypond-go/models"
)

var (
	outputFile   string
	outputFormat string
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE...",
	Short: "Parse LilyPond files and print their view model",
	Long: `Parse one or more LilyPond files. A single file prints its view model;
several files print a list of {file, score} entries. Use "-" to read stdin.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var out any
		if len(args) == 1 {
			view, err := parseFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out = view
		} else {
			files := make([]parsedFile, 0, len(args))
			for _, path := range args {
				view, err := parseFile(cmd.Context(), path)
				if err != nil {
					return err
				}
				files = append(files, parsedFile{File: path, Score: view})
			}
			out = files
		}
		return Output(out, OutputOptions{Format: OutputFormat(outputFormat), File: outputFile, Writer: writerUnlessFile(cmd)})
	},
}

func init() {
	parseCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default stdout)")
	parseCmd.Flags().StringVarP(&outputFormat, "format", "f", "yaml", "output format: yaml, json, msgpack")
}

type parsedFile struct {
	File  string            `json:"file"`
	Score *models.ViewModel `json:"score"`
}

func readSource(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func newParser() *lilypond.Parser {
	opts := []lilypond.Option{}
	if lang := noteLanguage(); lang != "" {
		opts = append(opts, lilypond.WithLanguage(lang))
	}
	if verbose {
		opts = append(opts, lilypond.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	}
	return lilypond.NewParser(opts...)
}

// parseFile parses path and records the parse with sentry
func parseFile(ctx context.Context, path string) (*models.ViewModel, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	source, err := readSource(path)
	if err != nil {
		return nil, err
	}
	score, err := parseSource(ctx, path, source)
	if err != nil {
		return nil, err
	}
	for _, w := range score.Warnings {
		printVerbose("%s: %s", path, w)
	}
	return models.ToViewModel(score), nil
}

func parseSource(ctx context.Context, name, source string) (*models.Score, error) {
	start := time.Now()
	score, err := newParser().Parse(ctx, source)

	stats := metrics.ParseStats{Source: name, Duration: time.Since(start), Success: err == nil}
	if score != nil {
		stats.Staves = len(score.Staves)
		stats.Voices = score.VoiceCount()
		stats.Notes = score.NoteCount()
		stats.Measures = score.MeasureCount()
		stats.Warnings = len(score.Warnings)
	}
	metrics.NewSentryMetrics().RecordParse(ctx, stats)

	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return score, nil
}
