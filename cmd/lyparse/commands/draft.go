package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/magda-lilypond-go/agents/notation"
	"github.com/Conceptual-Machines/magda-lilypond-go/llm"
	"github.com/Conceptual-Machines/magda-lilypond-go/store"
)

var (
	draftModel    string
	draftProvider string
	draftSave     bool
)

var draftCmd = &cobra.Command{
	Use:   "draft REQUEST...",
	Short: "Ask the notation agent to write LilyPond for a request",
	Example: `  lyparse draft "a four bar waltz in G major"
  lyparse draft --model gemini-2.5-flash --save "a descending bass line"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if language != "" {
			cfg.DefaultLanguage = language
		}

		model := draftModel
		if model == "" {
			model = cfg.DefaultModel
		}

		provider, err := llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey).GetProvider(cmd.Context(), model, draftProvider)
		if err != nil {
			return err
		}

		agent := notation.NewNotationAgentWithProvider(cfg, provider)
		request := strings.Join(args, " ")
		result, err := agent.Generate(cmd.Context(), model, request)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, result.Source)
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderSummary(result.Score, newStyles(defaultTheme)))
		printVerbose("attempts=%d tokens=%d", result.Attempts, result.Usage.TotalTokens)

		if !draftSave {
			return nil
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		id, err := s.Put(cmd.Context(), store.Entry{Name: request, Source: result.Source, View: result.Score})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ stored draft as %s\n", id)
		return nil
	},
}

func init() {
	draftCmd.Flags().StringVarP(&draftModel, "model", "m", "", "model (default from config)")
	draftCmd.Flags().StringVar(&draftProvider, "provider", "", "provider: openai or gemini (default inferred from model)")
	draftCmd.Flags().BoolVar(&draftSave, "save", false, "store the draft in the score library")
	draftCmd.Flags().StringVar(&storeDir, "store-dir", "", "library directory for --save (default from config)")
}
