package utils

import (
	"encoding/json"
	"strings"
)

func ToStringSlice(slice []any) []string {
	stringSlice := make([]string, 0)
	for _, v := range slice {
		if s, ok := v.(string); ok {
			stringSlice = append(stringSlice, s)
		}
	}
	return stringSlice
}

// ParseStringList accepts either a JSON array or a comma separated list and
// returns the trimmed, non-empty items. Non-string JSON items are ignored.
func ParseStringList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	var items []string
	var decoded []any
	if strings.HasPrefix(raw, "[") && json.Unmarshal([]byte(raw), &decoded) == nil {
		items = ToStringSlice(decoded)
	} else {
		items = strings.Split(raw, ",")
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
