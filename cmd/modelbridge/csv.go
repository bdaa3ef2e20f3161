package main

import (
	"fmt"
	"strconv"
	"strings"
)

// splitCSV splits s on commas, trimming blanks and dropping empty fields.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFloats(s string) ([]float32, error) {
	parts := splitCSV(s)
	out := make([]float32, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", p, err)
		}
		out = append(out, float32(v))
	}
	return out, nil
}

// parseShape parses "1,3" into [1 3]. Empty input yields a nil shape, which
// the bridge defaults to [1, len(values)].
func parseShape(s string) ([]int64, error) {
	parts := splitCSV(s)
	if len(parts) == 0 {
		return nil, nil
	}
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.ParseInt(p, 10, 64)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid dimension %q", p)
		}
		out = append(out, d)
	}
	return out, nil
}
