package duration

import (
	"strings"
	"time"
	"unicode"
)

// unitTable maps the supported suffixes to their length. Units longer than an
// hour are not covered by time.ParseDuration, which is why this parser exists.
var unitTable = map[string]time.Duration{
	"ms":  time.Millisecond,
	"s":   time.Second,
	"sec": time.Second,
	"m":   time.Minute,
	"min": time.Minute,
	"h":   time.Hour,
	"hr":  time.Hour,
	"d":   24 * time.Hour,
	"w":   7 * 24 * time.Hour,
	"mo":  30 * 24 * time.Hour,
	"y":   365 * 24 * time.Hour,
}

// Parse converts a human-readable duration such as "10m", "1h30m", "2d" or
// "1w 3d" into a time.Duration. The second return value reports whether the
// input was understood; a false result means the caller should skip whatever
// scheduling decision depended on it. Parse never panics on malformed input.
func Parse(text string) (time.Duration, bool) {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" {
		return 0, false
	}

	var total time.Duration
	matched := false

	i := 0
	for i < len(text) {
		// Skip separators between segments ("1w 3d", "1w,3d").
		for i < len(text) && (text[i] == ' ' || text[i] == ',') {
			i++
		}
		if i >= len(text) {
			break
		}

		start := i
		for i < len(text) && unicode.IsDigit(rune(text[i])) {
			i++
		}
		if i == start {
			return 0, false
		}

		value := int64(0)
		for _, c := range text[start:i] {
			value = value*10 + int64(c-'0')
		}

		unitStart := i
		for i < len(text) && unicode.IsLetter(rune(text[i])) {
			i++
		}
		unit, ok := unitTable[text[unitStart:i]]
		if !ok {
			return 0, false
		}

		total += time.Duration(value) * unit
		matched = true
	}

	if !matched || total <= 0 {
		return 0, false
	}
	return total, true
}

// Deadline resolves a textual duration against a reference time. It returns
// the zero time and false when the text cannot be parsed.
func Deadline(from time.Time, text string) (time.Time, bool) {
	d, ok := Parse(text)
	if !ok {
		return time.Time{}, false
	}
	return from.Add(d), true
}
