package record

import "strings"

// NormalizeLabel trims s and substitutes LabelDefault when the result is empty.
func NormalizeLabel(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return LabelDefault
	}
	return s
}
