package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/magda-lilypond-go/models"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Print a styled summary of a parsed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := parseFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(view, newStyles(defaultTheme)))
		return nil
	},
}

// theme defines the color scheme of the summary
type theme struct {
	Primary lipgloss.Color
	Warn    lipgloss.Color
	Dim     lipgloss.Color
}

var defaultTheme = theme{
	Primary: lipgloss.Color("#00ff9f"),
	Warn:    lipgloss.Color("#ffb454"),
	Dim:     lipgloss.Color("#6e7681"),
}

type styles struct {
	Title lipgloss.Style
	Label lipgloss.Style
	Dim   lipgloss.Style
	Warn  lipgloss.Style
	Box   lipgloss.Style
}

func newStyles(t theme) styles {
	return styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Dim:   lipgloss.NewStyle().Foreground(t.Dim),
		Warn:  lipgloss.NewStyle().Foreground(t.Warn),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Padding(0, 1),
	}
}

func renderSummary(view *models.ViewModel, s styles) string {
	var lines []string

	title := view.Title
	if strings.TrimSpace(title) == "" {
		title = "untitled"
	}
	header := s.Title.Render(title)
	if view.Composer != "" {
		header += s.Dim.Render("  " + view.Composer)
	}
	lines = append(lines, header)

	var facts []string
	for _, kv := range [][2]string{
		{"key", view.KeySignature},
		{"time", view.TimeSignature},
		{"tempo", view.Tempo},
		{"partial", view.Partial},
		{"mode", view.MusicMode},
		{"language", view.Language},
	} {
		if kv[1] != "" {
			facts = append(facts, s.Label.Render(kv[0]+":")+" "+kv[1])
		}
	}
	if len(facts) > 0 {
		lines = append(lines, strings.Join(facts, "  "))
	}

	for i, st := range view.Staves {
		lines = append(lines, "")
		name := st.Name
		if name == "" {
			name = fmt.Sprintf("staff %d", i+1)
		}
		lines = append(lines, s.Label.Render(name)+" "+s.Dim.Render(containerFacts(st.MusicContainerBase, len(st.Measures))))
		for j, v := range st.Voices {
			vname := v.Base.Name
			if vname == "" {
				vname = fmt.Sprintf("voice %d", j+1)
			}
			line := "  " + vname + " " + s.Dim.Render(containerFacts(v.Base, len(v.Measures)))
			if len(v.Lyrics) > 0 {
				line += s.Dim.Render(fmt.Sprintf(", %d lyric lines", len(v.Lyrics)))
			}
			lines = append(lines, line)
		}
	}

	if len(view.Warnings) > 0 {
		lines = append(lines, "")
		for _, w := range view.Warnings {
			lines = append(lines, s.Warn.Render("⚠ "+w))
		}
	}

	return s.Box.Render(strings.Join(lines, "\n"))
}

func containerFacts(b models.MusicContainerBase, measures int) string {
	parts := []string{fmt.Sprintf("%d notes", len(b.Notes)), fmt.Sprintf("%d measures", measures)}
	if b.Clef != "" {
		parts = append(parts, b.Clef)
	}
	if b.KeySignature != "" {
		parts = append(parts, b.KeySignature)
	}
	if b.TimeSignature != "" {
		parts = append(parts, b.TimeSignature)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
