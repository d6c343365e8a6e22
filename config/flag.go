package config

import (
	"fmt"
	"strings"
)

// Flag is a boolean env value. Besides strconv spellings it accepts
// yes/no, on/off and y/n in any case.
type Flag bool

func (f *Flag) Decode(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "y", "yes", "on":
		*f = true
	case "0", "f", "false", "n", "no", "off":
		*f = false
	default:
		return fmt.Errorf("flag: invalid boolean %q", value)
	}
	return nil
}
