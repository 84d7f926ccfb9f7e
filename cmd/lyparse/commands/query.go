package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/magda-lilypond-go/models"
)

var queryCmd = &cobra.Command{
	Use:   "query EXPR FILE",
	Short: "Run a jq expression over the view model of a file",
	Example: `  lyparse query '.staves | length' etude.ly
  lyparse query '[.staves[0].notes[] | select(.note_type == "Chord")] | length' etude.ly`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := parseFile(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		results, err := runQuery(cmd.Context(), args[0], view)
		if err != nil {
			return err
		}
		for _, r := range results {
			if err := Output(r, OutputOptions{Format: FormatJSON, Writer: cmd.OutOrStdout()}); err != nil {
				return err
			}
		}
		return nil
	},
}

// runQuery evaluates a jq expression against the JSON form of view
func runQuery(ctx context.Context, expr string, view *models.ViewModel) ([]any, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse query %q: %w", expr, err)
	}

	data, err := json.Marshal(view)
	if err != nil {
		return nil, err
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	var results []any
	iter := query.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				break
			}
			return nil, fmt.Errorf("query %q: %w", expr, err)
		}
		results = append(results, v)
	}
	return results, nil
}
