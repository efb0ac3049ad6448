// Package stringsfile reads Apple .strings localization files.
//
// Format: a sequence of statements
//
//	/* comment */
//	"greeting" = "Hello";
//	// line comment
//	"farewell" = "Goodbye";
//
// Keys and values are double-quoted with backslash escapes (\" \\ \n \t
// \r and \Uxxxx). Unquoted keys made of letters, digits, '_', '.' and '-'
// are accepted as well, as plutil does.
package stringsfile

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Entry is a single "key" = "value"; statement.
type Entry struct {
	Key   string
	Value string
	// Line is the 1-based line on which the key starts.
	Line int
}

// File is a parsed .strings file.
type File struct {
	Entries []Entry
	index   map[string]int
}

// SyntaxError describes where parsing stopped.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Parse parses .strings content. A leading UTF-8 BOM is ignored.
func Parse(data []byte) (*File, error) {
	s := &scanner{src: strings.TrimPrefix(string(data), "\ufeff"), line: 1}
	f := &File{index: make(map[string]int)}

	for {
		if err := s.skipSpaceAndComments(); err != nil {
			return nil, err
		}
		if s.eof() {
			return f, nil
		}

		line := s.line
		key, err := s.token("key")
		if err != nil {
			return nil, err
		}
		if err := s.expect('='); err != nil {
			return nil, err
		}
		value, err := s.token("value")
		if err != nil {
			return nil, err
		}
		if err := s.expect(';'); err != nil {
			return nil, err
		}

		if idx, ok := f.index[key]; ok {
			f.Entries[idx].Value = value
			continue
		}
		f.index[key] = len(f.Entries)
		f.Entries = append(f.Entries, Entry{Key: key, Value: value, Line: line})
	}
}

// get returns the value for key and whether it was found.
func (f *File) get(key string) (string, bool) {
	if idx, ok := f.index[key]; ok {
		return f.Entries[idx].Value, true
	}
	return "", false
}

// ---------------------------------------------------------------------------
// Scanner
// ---------------------------------------------------------------------------

type scanner struct {
	src  string
	pos  int
	line int
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) errorf(format string, args ...any) error {
	return &SyntaxError{Line: s.line, Msg: fmt.Sprintf(format, args...)}
}

func (s *scanner) advance() byte {
	c := s.src[s.pos]
	s.pos++
	if c == '\n' {
		s.line++
	}
	return c
}

func (s *scanner) skipSpaceAndComments() error {
	for !s.eof() {
		c := s.src[s.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			s.advance()
		case strings.HasPrefix(s.src[s.pos:], "//"):
			for !s.eof() && s.src[s.pos] != '\n' {
				s.advance()
			}
		case strings.HasPrefix(s.src[s.pos:], "/*"):
			start := s.line
			s.pos += 2
			end := strings.Index(s.src[s.pos:], "*/")
			if end < 0 {
				return &SyntaxError{Line: start, Msg: "unterminated comment"}
			}
			for i := 0; i < end+2; i++ {
				s.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

func (s *scanner) expect(want byte) error {
	if err := s.skipSpaceAndComments(); err != nil {
		return err
	}
	if s.eof() {
		return s.errorf("expected %q, got end of input", want)
	}
	if got := s.src[s.pos]; got != want {
		return s.errorf("expected %q, got %q", want, got)
	}
	s.advance()
	return nil
}

// token reads a quoted string or a bare word.
func (s *scanner) token(what string) (string, error) {
	if err := s.skipSpaceAndComments(); err != nil {
		return "", err
	}
	if s.eof() {
		return "", s.errorf("expected %s, got end of input", what)
	}
	if s.src[s.pos] == '"' {
		return s.quoted()
	}

	start := s.pos
	for !s.eof() && isBare(s.src[s.pos]) {
		s.pos++
	}
	if start == s.pos {
		r, _ := utf8.DecodeRuneInString(s.src[s.pos:])
		return "", s.errorf("expected %s, got %q", what, r)
	}
	return s.src[start:s.pos], nil
}

func isBare(c byte) bool {
	return c == '_' || c == '.' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (s *scanner) quoted() (string, error) {
	start := s.line
	s.advance() // opening quote
	var b strings.Builder
	for !s.eof() {
		c := s.advance()
		switch c {
		case '"':
			return b.String(), nil
		case '\\':
			if s.eof() {
				return "", &SyntaxError{Line: start, Msg: "unterminated string"}
			}
			esc := s.advance()
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'U', 'u':
				if s.pos+4 > len(s.src) {
					return "", s.errorf("short unicode escape")
				}
				n, err := strconv.ParseUint(s.src[s.pos:s.pos+4], 16, 32)
				if err != nil {
					return "", s.errorf("bad unicode escape %q", s.src[s.pos:s.pos+4])
				}
				s.pos += 4
				b.WriteRune(rune(n))
			default:
				b.WriteByte(esc)
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", &SyntaxError{Line: start, Msg: "unterminated string"}
}
