package discovery

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// RootName is used when a path yields no usable name.
const RootName = "root"

// NamingMode selects how a table name is derived from its path.
type NamingMode int

const (
	// NamingLast uses the final field name of the path.
	NamingLast NamingMode = iota
	// NamingFull joins every step of the path.
	NamingFull
)

func (m NamingMode) String() string {
	if m == NamingFull {
		return "full"
	}
	return "last"
}

// ParseNamingMode accepts "last", "full" and the long forms "last_segment"
// and "full_path". The empty string selects NamingLast.
func ParseNamingMode(s string) (NamingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last", "last_segment":
		return NamingLast, nil
	case "full", "full_path":
		return NamingFull, nil
	}
	return NamingLast, fmt.Errorf("unknown naming mode %q", s)
}

// BaseName derives the raw (unsanitized) table name for path p.
func BaseName(mode NamingMode, p Path) string {
	if mode == NamingFull {
		if s := p.String(); s != "" {
			return s
		}
		return RootName
	}
	if key, ok := p.LastField(); ok && key != "" {
		return key
	}
	return RootName
}

// NameStyle selects the character rules names must satisfy.
type NameStyle int

const (
	// StyleFile produces names safe inside file names and SQL identifiers.
	StyleFile NameStyle = iota
	// StyleSheet produces valid spreadsheet sheet names.
	StyleSheet
)

// Name limits per style.
const (
	MaxSheetNameLength = 31
	MaxFileNameLength  = 64
)

func (s NameStyle) maxLength() int {
	if s == StyleSheet {
		return MaxSheetNameLength
	}
	return MaxFileNameLength
}

func (s NameStyle) fallback() string {
	if s == StyleSheet {
		return "Sheet"
	}
	return "sheet"
}

// Sanitize rewrites name to satisfy style and truncates it to maxLen
// characters. maxLen <= 0 selects the style's limit; sheet names never
// exceed 31 characters. An empty result becomes a fixed placeholder.
func Sanitize(name string, style NameStyle, maxLen int) string {
	limit := effectiveLimit(style, maxLen)

	var out string
	if style == StyleSheet {
		out = strings.Map(func(r rune) rune {
			switch r {
			case ':', '\\', '/', '?', '*', '[', ']':
				return '_'
			}
			return r
		}, name)
		out = strings.Trim(truncate(strings.Trim(out, "'"), limit), "'")
	} else {
		out = strings.Map(func(r rune) rune {
			if isFileNameRune(r) {
				return r
			}
			return '_'
		}, name)
		out = strings.TrimSpace(truncate(strings.TrimSpace(out), limit))
	}

	if out == "" {
		return style.fallback()
	}
	return out
}

func isFileNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '.', r == '+', r == ' ', r == '-':
		return true
	}
	return false
}

func effectiveLimit(style NameStyle, maxLen int) int {
	limit := style.maxLength()
	if maxLen > 0 && (style != StyleSheet || maxLen < limit) {
		limit = maxLen
	}
	return limit
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// ErrNamesExhausted is returned when no unused name fits the length limit.
var ErrNamesExhausted = errors.New("no unused name fits the length limit")

// historySheet is reserved by Excel, which repairs workbooks that use it.
const historySheet = "History"

// Namer hands out sanitized names that are unique within one run.
// Comparison is case-insensitive, matching spreadsheet sheet names and
// case-insensitive file systems.
type Namer struct {
	style NameStyle
	limit int
	used  map[string]struct{}
}

// NewNamer creates a Namer for style with the given length limit. Sheet
// namers start with Excel's reserved History sheet taken.
func NewNamer(style NameStyle, maxLen int) *Namer {
	n := &Namer{
		style: style,
		limit: effectiveLimit(style, maxLen),
		used:  make(map[string]struct{}),
	}
	if style == StyleSheet {
		n.Reserve(historySheet)
	}
	return n
}

// Reserve marks names as taken without returning them, e.g. a summary sheet.
func (n *Namer) Reserve(names ...string) {
	for _, name := range names {
		n.used[strings.ToLower(name)] = struct{}{}
	}
}

// Taken reports whether name is already used.
func (n *Namer) Taken(name string) bool {
	_, ok := n.used[strings.ToLower(name)]
	return ok
}

// Assign sanitizes raw and returns a name not handed out before. On
// collision it appends _2, _3, ... and shortens the base so the suffix
// always fits the limit. Once a numbered suffix leaves no room for the
// base, it switches to a base-36 counter without separator.
func (n *Namer) Assign(raw string) (string, error) {
	base := Sanitize(raw, n.style, n.limit)
	if !n.Taken(base) {
		n.Reserve(base)
		return base, nil
	}

	for i := 2; ; i++ {
		suffix := "_" + strconv.Itoa(i)
		if n.limit-len(suffix) < 1 {
			return n.assignCompact(base)
		}
		if candidate, ok := n.try(base, suffix); ok {
			return candidate, nil
		}
	}
}

// assignCompact appends a base-36 counter to the base, cut to fit, and
// drops the base once the counter alone fills the limit.
func (n *Namer) assignCompact(base string) (string, error) {
	for i := int64(0); ; i++ {
		suffix := strconv.FormatInt(i, 36)
		if len(suffix) > n.limit {
			return "", fmt.Errorf("%w: %q at %d characters", ErrNamesExhausted, base, n.limit)
		}
		if len(suffix) < n.limit {
			if candidate, ok := n.try(base, suffix); ok {
				return candidate, nil
			}
			continue
		}
		if candidate, ok := n.try("", suffix); ok {
			return candidate, nil
		}
	}
}

// try reserves base followed by suffix, cutting base so the result fits.
func (n *Namer) try(base, suffix string) (string, bool) {
	stem := truncate(base, n.limit-len(suffix))
	if n.style == StyleSheet {
		stem = strings.TrimLeft(stem, "'")
	} else {
		stem = strings.TrimLeft(stem, " ")
	}
	candidate := stem + suffix
	if n.Taken(candidate) {
		return "", false
	}
	n.Reserve(candidate)
	return candidate, true
}
