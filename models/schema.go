package models

import (
	"reflect"

	"github.com/google/jsonschema-go/jsonschema"
)

// ViewModelSchema returns the JSON schema of ViewModel as it is serialized.
// Chord tones are described as [pitch, octave] pairs.
func ViewModelSchema() (*jsonschema.Schema, error) {
	two := 2
	chordTone := &jsonschema.Schema{
		Type:        "array",
		Description: "non-root chord tone as [pitch, octave]",
		PrefixItems: []*jsonschema.Schema{{Type: "string"}, {Type: "integer"}},
		MinItems:    &two,
		MaxItems:    &two,
	}
	return jsonschema.For[ViewModel](&jsonschema.ForOptions{
		TypeSchemas: map[reflect.Type]*jsonschema.Schema{
			reflect.TypeFor[ChordTone](): chordTone,
		},
	})
}
