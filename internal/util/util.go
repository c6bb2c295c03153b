// Package util provides number and path formatting shared by the converter stages.
package util

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// OutputExtension replaces the source extension on converted files.
const OutputExtension = ".animation.json"

// StatusSuffix ends the name of the status file written in watch mode.
const StatusSuffix = "_status.json"

// scientificPattern matches exponent-form numerals such as 1.5e-07 or 2E+21.
var scientificPattern = regexp.MustCompile(`\d+(?:\.\d*)?[eE][+-]?\d+`)

// FormatDecimal renders v with the fewest digits that round-trip, never in exponent form.
func FormatDecimal(v float64) string {
	if v == 0 {
		// also folds -0
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ExpandScientific rewrites every exponent-form numeral outside of JSON string
// literals into its full decimal expansion.
func ExpandScientific(text []byte) []byte {
	out := make([]byte, 0, len(text))
	start := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
				out = append(out, text[start:i+1]...)
				start = i + 1
			}
			continue
		}
		if c == '"' {
			out = append(out, expandSegment(text[start:i])...)
			start = i
			inString = true
		}
	}

	if inString {
		out = append(out, text[start:]...)
	} else {
		out = append(out, expandSegment(text[start:])...)
	}
	return out
}

func expandSegment(seg []byte) []byte {
	if !scientificPattern.Match(seg) {
		return seg
	}
	return scientificPattern.ReplaceAllFunc(seg, func(m []byte) []byte {
		v, err := strconv.ParseFloat(string(m), 64)
		if err != nil {
			return m
		}
		return []byte(FormatDecimal(v))
	})
}

// ContainsScientific reports whether any exponent-form numeral appears outside string literals.
func ContainsScientific(text []byte) bool {
	inString := false
	escaped := false
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
				start = i + 1
			}
			continue
		}
		if c == '"' {
			if scientificPattern.Match(text[start:i]) {
				return true
			}
			inString = true
		}
	}
	return !inString && scientificPattern.Match(text[start:])
}

// OutputPath derives the converted file path by swapping the source extension.
// When outDir is set the file is placed there instead of next to the source.
func OutputPath(source, outDir string) string {
	base := strings.TrimSuffix(source, filepath.Ext(source)) + OutputExtension
	if outDir == "" {
		return base
	}
	return filepath.Join(outDir, filepath.Base(base))
}

// DisplayName returns the file name without directory or extension.
func DisplayName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
