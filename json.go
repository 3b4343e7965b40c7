package fsm

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnmarshalJSON implements the json.Unmarshaler interface. A single string is
// accepted in place of a list.
func (l *ActionList) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}

		*l = ActionList{one}

		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}

	*l = many

	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (d *Definition) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Config())
}

// UnmarshalJSON implements the json.Unmarshaler interface. It builds and
// validates the decoded configuration; the receiver must not be in use by an
// interpreter.
func (d *Definition) UnmarshalJSON(data []byte) error {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("failed to unmarshal fsm definition: %w", err)
	}

	def, err := c.Build()
	if err != nil {
		return err
	}

	*d = *def

	return nil
}
