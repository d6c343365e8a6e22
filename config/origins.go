package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Origins decodes BACKEND_CORS_ORIGINS from either a JSON array
// (`["http://a","http://b"]`) or a comma-separated list.
type Origins []string

func (o *Origins) Decode(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		*o = Origins{}
		return nil
	}

	if strings.HasPrefix(value, "[") {
		var list []string
		if err := json.Unmarshal([]byte(value), &list); err != nil {
			return fmt.Errorf("origins: invalid JSON list: %w", err)
		}
		*o = trimAll(list)
		return nil
	}

	*o = trimAll(strings.Split(value, ","))
	return nil
}

func trimAll(in []string) Origins {
	out := make(Origins, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
