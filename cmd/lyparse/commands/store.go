package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/magda-lilypond-go/models"
	"github.com/Conceptual-Machines/magda-lilypond-go/store"
)

var (
	storeDir  string
	storeName string
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the local score library",
}

var storeAddCmd = &cobra.Command{
	Use:   "add FILE",
	Short: "Parse a file and add it to the library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := readSource(args[0])
		if err != nil {
			return err
		}
		score, err := parseSource(cmd.Context(), args[0], source)
		if err != nil {
			return err
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		name := storeName
		if name == "" {
			name = filepath.Base(args[0])
		}
		id, err := s.Put(cmd.Context(), store.Entry{Name: name, Source: source, View: models.ToViewModel(score)})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ stored %s as %s\n", name, id)
		return nil
	},
}

var storeGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Print a stored score (an unambiguous id prefix is enough)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := s.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		entry, err := s.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		return Output(entry, OutputOptions{Format: OutputFormat(outputFormat), File: outputFile, Writer: writerUnlessFile(cmd)})
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored scores",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		list, err := s.List(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tTITLE\tCREATED")
		for _, e := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Title, e.CreatedAt.Local().Format(time.DateTime))
		}
		return tw.Flush()
	},
}

var storeRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Remove a stored score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := s.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := s.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ removed %s\n", id)
		return nil
	},
}

func init() {
	storeCmd.PersistentFlags().StringVar(&storeDir, "store-dir", "", "library directory (default from config)")
	storeAddCmd.Flags().StringVar(&storeName, "name", "", "name to store the score under (default file name)")
	storeGetCmd.Flags().StringVarP(&outputFormat, "format", "f", "yaml", "output format: yaml, json, msgpack")
	storeGetCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default stdout)")

	storeCmd.AddCommand(storeAddCmd, storeGetCmd, storeListCmd, storeRmCmd)
}

func openStore() (*store.Store, error) {
	dir := storeDir
	if dir == "" {
		cfg, err := GetConfig()
		if err != nil {
			return nil, err
		}
		dir = cfg.StoreDir
	}
	printVerbose("opening score library at %s", dir)
	return store.Open(dir)
}

// writerUnlessFile sends output to the command's writer when no -o file was given
func writerUnlessFile(cmd *cobra.Command) io.Writer {
	if outputFile != "" {
		return nil
	}
	return cmd.OutOrStdout()
}
