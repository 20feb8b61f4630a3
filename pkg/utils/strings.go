package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var spaceRe = regexp.MustCompile(`\s+`)

// CollapseSpaces squeezes runs of whitespace into single spaces and trims
// the ends. Used when joining optional metadata tokens into one line.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// Truncate shortens s to max runes, appending "..." when cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// StrFileSize renders a byte count in human-readable form, e.g. "1.5GB".
func StrFileSize(size int64) string {
	if size <= 0 {
		return "0B"
	}
	units := []string{"B", "KB", "MB", "GB", "TB", "PB"}
	value := float64(size)
	idx := 0
	for value >= 1024 && idx < len(units)-1 {
		value /= 1024
		idx++
	}
	if idx == 0 {
		return fmt.Sprintf("%d%s", size, units[0])
	}
	return fmt.Sprintf("%.1f%s", value, units[idx])
}
