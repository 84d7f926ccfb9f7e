package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/vmihailenco/msgpack/v5"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatYAML    OutputFormat = "yaml"
	FormatJSON    OutputFormat = "json"
	FormatMsgpack OutputFormat = "msgpack"
)

// OutputOptions configures output behavior
type OutputOptions struct {
	Format OutputFormat
	File   string    // empty for stdout
	Writer io.Writer // overrides File
}

// Output writes result to the configured destination
func Output(result any, opts OutputOptions) error {
	var w io.Writer = os.Stdout

	if opts.Writer != nil {
		w = opts.Writer
	} else if opts.File != "" {
		f, err := os.Create(opts.File)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch opts.Format {
	case FormatJSON:
		return outputJSON(w, result)
	case FormatYAML, "":
		return outputYAML(w, result)
	case FormatMsgpack:
		return outputMsgpack(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s (allowed: yaml, json, msgpack)", opts.Format)
	}
}

func outputJSON(w io.Writer, result any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// YAML goes through the JSON marshalers so chord tones stay [pitch, octave] pairs
func outputYAML(w io.Writer, result any) error {
	data, err := yaml.MarshalWithOptions(result, yaml.UseJSONMarshaler())
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// msgpack keys follow the json tags
func outputMsgpack(w io.Writer, result any) error {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode msgpack: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
