// Command lyparse parses LilyPond files into structured scores.
//
// Usage:
//
//	lyparse [flags] <command> [args]
//
// Commands:
//
//	parse    - Parse files and print the view model (yaml, json, msgpack)
//	query    - Run a jq expression over a parsed file
//	schema   - Print the JSON schema of the view model
//	inspect  - Print a styled summary of a parsed file
//	store    - Manage the local score library (add, get, list, rm)
//	draft    - Ask the notation agent to write LilyPond
package main

import (
	"fmt"
	"os"

	"github.com/Conceptual-Machines/magda-lilypond-go/cmd/lyparse/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
