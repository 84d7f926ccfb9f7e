package models

import (
	"encoding/json"
	"fmt"
)

// ChordTone is a non-root chord tone. It serializes as a [pitch, octave] pair.
type ChordTone struct {
	Pitch  string
	Octave int
}

// MarshalJSON encodes the tone as a two-element array
func (c ChordTone) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{c.Pitch, c.Octave})
}

// UnmarshalJSON decodes a [pitch, octave] pair
func (c *ChordTone) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("chord tone: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("chord tone: expected [pitch, octave], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &c.Pitch); err != nil {
		return fmt.Errorf("chord tone pitch: %w", err)
	}
	if err := json.Unmarshal(pair[1], &c.Octave); err != nil {
		return fmt.Errorf("chord tone octave: %w", err)
	}
	return nil
}
