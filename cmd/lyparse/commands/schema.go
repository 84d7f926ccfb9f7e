package commands

import (
	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/magda-lilypond-go/models"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the view model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := models.ViewModelSchema()
		if err != nil {
			return err
		}
		return Output(s, OutputOptions{Format: FormatJSON, Writer: cmd.OutOrStdout()})
	},
}
