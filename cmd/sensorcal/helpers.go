package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// parseFloats parses values given as repeated flags or comma separated lists.
func parseFloats(values []string, valueName string) ([]float64, error) {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			f, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s %q: %v", valueName, part, err)
			}
			out = append(out, f)
		}
	}
	return out, nil
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}

func formatCoefficients(c []float64) string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = strconv.FormatFloat(v, 'g', 10, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
