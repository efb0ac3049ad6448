// Package propfile reads Java .properties translation files.
//
// Format: key=value (or key: value) pairs, one per logical line. Lines
// starting with '#' or '!' are comments. A line ending in an odd number of
// backslashes continues on the next line; leading whitespace of the
// continuation line is dropped.
//
// Parse is lenient and keeps going past malformed lines; ParseStrict stops
// at the first line that carries no key and reports it as a *SyntaxError.
package propfile

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// File model
// ---------------------------------------------------------------------------

// lineKind classifies each logical line in the file.
type lineKind int

const (
	lineBlank   lineKind = iota // blank / whitespace-only line
	lineComment                 // comment line (starts with # or !)
	lineEntry                   // key=value pair
	lineInvalid                 // no key could be extracted
)

// line is a single logical line in the properties file.
type line struct {
	kind  lineKind
	num   int // 1-based number of the first physical line
	raw   string
	key   string
	value string
}

// File is a parsed .properties file.
type File struct {
	lines []line
	// index maps key → index in lines; later duplicates win.
	index map[string]int
}

// SyntaxError reports the first line that is neither blank, a comment, nor
// an entry. More lists the numbers of any later such lines.
type SyntaxError struct {
	Line int
	Text string
	More []int
}

func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("line %d: missing key in %q", e.Line, e.Text)
	switch len(e.More) {
	case 0:
		return msg
	case 1:
		return fmt.Sprintf("%s (also line %d)", msg, e.More[0])
	}
	nums := make([]string, len(e.More))
	for i, n := range e.More {
		nums[i] = strconv.Itoa(n)
	}
	return fmt.Sprintf("%s (also lines %s)", msg, strings.Join(nums, ", "))
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// Parse parses .properties content. Malformed lines are kept as invalid
// lines and never cause an error.
func Parse(data []byte) *File {
	f := &File{index: make(map[string]int)}
	for _, ln := range logicalLines(string(data)) {
		if ln.kind == lineEntry {
			if idx, exists := f.index[ln.key]; exists {
				f.lines[idx].value = ln.value
				continue
			}
			f.index[ln.key] = len(f.lines)
		}
		f.lines = append(f.lines, ln)
	}
	return f
}

// ParseStrict parses content and fails if any line is invalid. The error
// quotes the first such line and numbers the rest.
func ParseStrict(data []byte) (*File, error) {
	f := Parse(data)
	bad := f.Invalid()
	if len(bad) == 0 {
		return f, nil
	}
	for _, ln := range f.lines {
		if ln.num == bad[0] && ln.kind == lineInvalid {
			return nil, &SyntaxError{Line: ln.num, Text: strings.TrimSpace(ln.raw), More: bad[1:]}
		}
	}
	return nil, &SyntaxError{Line: bad[0], More: bad[1:]}
}

// logicalLines splits text into logical lines, joining continuations.
func logicalLines(text string) []line {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	physical := strings.Split(text, "\n")
	if len(physical) > 0 && physical[len(physical)-1] == "" {
		physical = physical[:len(physical)-1]
	}

	var out []line
	for i := 0; i < len(physical); i++ {
		start := i + 1
		raw := physical[i]
		trimmed := strings.TrimSpace(raw)

		switch {
		case trimmed == "":
			out = append(out, line{kind: lineBlank, num: start, raw: raw})
			continue
		case strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!"):
			out = append(out, line{kind: lineComment, num: start, raw: raw})
			continue
		}

		logical := trimmed
		for continues(logical) && i+1 < len(physical) {
			i++
			logical = logical[:len(logical)-1] + strings.TrimLeft(physical[i], " \t\f")
		}
		if continues(logical) {
			logical = logical[:len(logical)-1]
		}

		k, v := splitKeyValue(logical)
		if k == "" {
			out = append(out, line{kind: lineInvalid, num: start, raw: logical})
			continue
		}
		out = append(out, line{kind: lineEntry, num: start, raw: logical, key: k, value: v})
	}
	return out
}

// continues reports whether s ends with an unescaped backslash.
func continues(s string) bool {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// splitKeyValue splits "key = value", "key: value" or "key value".
// Escaped separators (\=, \:, \ ) belong to the key.
func splitKeyValue(s string) (key, value string) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '=', ':':
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
		case ' ', '\t':
			rest := strings.TrimLeft(s[i:], " \t")
			if rest != "" && (rest[0] == '=' || rest[0] == ':') {
				rest = rest[1:]
			}
			return strings.TrimSpace(s[:i]), strings.TrimSpace(rest)
		}
	}
	return strings.TrimSpace(s), ""
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Keys returns all keys in document order.
func (f *File) Keys() []string {
	keys := make([]string, 0, len(f.index))
	for _, ln := range f.lines {
		if ln.kind == lineEntry {
			keys = append(keys, ln.key)
		}
	}
	return keys
}

// get returns the value for key and whether it was found.
func (f *File) get(key string) (string, bool) {
	if idx, ok := f.index[key]; ok {
		return f.lines[idx].value, true
	}
	return "", false
}

// Invalid returns the 1-based line numbers of lines without a key.
func (f *File) Invalid() []int {
	var nums []int
	for _, ln := range f.lines {
		if ln.kind == lineInvalid {
			nums = append(nums, ln.num)
		}
	}
	return nums
}
