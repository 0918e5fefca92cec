package db

import (
	"fmt"
	"strings"
)

// Highest slot number accepted; Postgres allows at most 65535 parameters.
const maxPlaceholder = 65535

// countPlaceholders returns the number of positional parameter slots in a
// statement template. Quoted literals, quoted identifiers and comments are
// skipped. For numbered placeholders ($N, and ?N on SQLite) the slot count is
// the highest N, and every slot below it has to be used.
func countPlaceholders(d Dialect, query string) (int, error) {
	s := placeholderScanner{src: query, dialect: d, used: map[int]bool{}}
	return s.scan()
}

type placeholderScanner struct {
	src     string
	dialect Dialect
	pos     int

	used     map[int]bool
	maxIndex int
	numbered bool
}

func (s *placeholderScanner) scan() (int, error) {
	question := 0

	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\'':
			escapes := s.dialect.BackslashEscapes() || s.escapePrefix()
			if err := s.skipQuoted('\'', escapes); err != nil {
				return 0, err
			}
		case c == '"':
			if err := s.skipQuoted('"', s.dialect.BackslashEscapes()); err != nil {
				return 0, err
			}
		case c == '`' && s.dialect.Placeholders() == PlaceholderQuestion:
			if err := s.skipQuoted('`', false); err != nil {
				return 0, err
			}
		case c == '-' && s.peek(1) == '-', c == '#' && s.dialect.Name() == MySQL:
			s.skipLine()
		case c == '/' && s.peek(1) == '*':
			if err := s.skipBlock(); err != nil {
				return 0, err
			}
		case c == '?' && s.dialect.Placeholders() == PlaceholderQuestion:
			question++
			if s.dialect.Name() != SQLite {
				s.pos++
				continue
			}
			// SQLite: a bare ? takes the next number after the highest
			// one assigned so far.
			n := s.maxIndex + 1
			if isDigit(s.peek(1)) {
				n = s.readNumber()
				s.numbered = true
			} else {
				s.pos++
			}
			if err := s.use(n, "?"); err != nil {
				return 0, err
			}
		case c == '$' && s.dialect.Placeholders() == PlaceholderDollar:
			if isDigit(s.peek(1)) {
				s.numbered = true
				if err := s.use(s.readNumber(), "$"); err != nil {
					return 0, err
				}
				continue
			}
			if err := s.skipDollarQuoted(); err != nil {
				return 0, err
			}
		default:
			s.pos++
		}
	}

	if !s.numbered && s.dialect.Placeholders() == PlaceholderQuestion {
		return question, nil
	}
	sigil := "$"
	if s.dialect.Placeholders() == PlaceholderQuestion {
		sigil = "?"
	}
	for i := 1; i <= s.maxIndex; i++ {
		if !s.used[i] {
			return 0, newBindingError(i-1, fmt.Sprintf("placeholder %s%d is never used", sigil, i))
		}
	}
	return s.maxIndex, nil
}

// use records slot n. Slots are numbered from 1.
func (s *placeholderScanner) use(n int, sigil string) error {
	if n < 1 || n > maxPlaceholder {
		return newBindingError(-1, fmt.Sprintf("placeholder %s%d is out of range 1..%d", sigil, n, maxPlaceholder))
	}
	s.used[n] = true
	if n > s.maxIndex {
		s.maxIndex = n
	}
	return nil
}

func (s *placeholderScanner) peek(off int) byte {
	if s.pos+off < len(s.src) {
		return s.src[s.pos+off]
	}
	return 0
}

// escapePrefix reports whether the quote at pos opens a Postgres E'' string.
func (s *placeholderScanner) escapePrefix() bool {
	if s.pos == 0 {
		return false
	}
	p := s.src[s.pos-1]
	if p != 'E' && p != 'e' {
		return false
	}
	return s.pos < 2 || !isIdentByte(s.src[s.pos-2])
}

func (s *placeholderScanner) skipQuoted(quote byte, escapes bool) error {
	start := s.pos
	s.pos++
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case escapes && c == '\\':
			s.pos += 2
		case c == quote && s.peek(1) == quote:
			s.pos += 2
		case c == quote:
			s.pos++
			return nil
		default:
			s.pos++
		}
	}
	return newBindingError(-1, fmt.Sprintf("unterminated %c-quoted text at offset %d", quote, start))
}

func (s *placeholderScanner) skipLine() {
	if i := strings.IndexByte(s.src[s.pos:], '\n'); i >= 0 {
		s.pos += i + 1
		return
	}
	s.pos = len(s.src)
}

func (s *placeholderScanner) skipBlock() error {
	i := strings.Index(s.src[s.pos+2:], "*/")
	if i < 0 {
		return newBindingError(-1, fmt.Sprintf("unterminated comment at offset %d", s.pos))
	}
	s.pos += i + 4
	return nil
}

// readNumber consumes the sigil at pos and the digits after it.
func (s *placeholderScanner) readNumber() int {
	s.pos++
	n := 0
	for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
		if n <= maxPlaceholder {
			n = n*10 + int(s.src[s.pos]-'0')
		}
		s.pos++
	}
	return n
}

// skipDollarQuoted skips a $tag$...$tag$ body. A lone $ is passed over.
func (s *placeholderScanner) skipDollarQuoted() error {
	start := s.pos
	end := s.pos + 1
	for end < len(s.src) && isIdentByte(s.src[end]) {
		end++
	}
	if end >= len(s.src) || s.src[end] != '$' {
		s.pos++
		return nil
	}
	tag := s.src[start : end+1]
	i := strings.Index(s.src[end+1:], tag)
	if i < 0 {
		return newBindingError(-1, fmt.Sprintf("unterminated dollar-quoted text at offset %d", start))
	}
	s.pos = end + 1 + i + len(tag)
	return nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentByte(c byte) bool {
	return c == '_' || isDigit(c) || (c|0x20 >= 'a' && c|0x20 <= 'z') || c >= 0x80
}
