package annotations

import (
	"iter"
	"regexp"
	"strings"
)

// Line is one logical annotation directive found in a comment block
type Line struct {
	Name  string // annotation name without the leading '@'
	Value string // raw, unparsed value expression (may span several lines)
	Line  int    // 1-based line of the comment where the directive starts
}

var directivePattern = regexp.MustCompile(`^@([A-Za-z_][A-Za-z0-9_.\\-]*)`)

// Lines splits a raw documentation comment into annotation directives.
//
// Comment decoration ("/**", "/*", "*/", leading "*" and "//") is stripped
// from every line. A directive whose value leaves a '(', '[' or '{' open, or
// a string literal unterminated, continues on the following lines until it
// closes, the comment ends, or another directive begins. Lines that are not directives are
// skipped. The returned sequence re-scans raw each time it is ranged over.
func Lines(raw string) iter.Seq[Line] {
	return func(yield func(Line) bool) {
		rows := strings.Split(raw, "\n")

		for i := 0; i < len(rows); i++ {
			name, value, ok := splitDirective(stripDecoration(rows[i]))
			if !ok {
				continue
			}

			start := i
			var scan bracketScanner
			scan.feed(value)

			var joined strings.Builder
			joined.WriteString(value)
			for scan.open() && i+1 < len(rows) {
				next := stripDecoration(rows[i+1])
				if _, _, isDirective := splitDirective(next); isDirective {
					break
				}
				i++
				joined.WriteByte('\n')
				joined.WriteString(next)
				scan.feed("\n" + next)
			}

			line := Line{
				Name:  name,
				Value: strings.TrimSpace(joined.String()),
				Line:  start + 1,
			}
			if !yield(line) {
				return
			}
		}
	}
}

// stripDecoration removes comment markers and surrounding whitespace
func stripDecoration(row string) string {
	s := strings.TrimSpace(row)

	switch {
	case strings.HasPrefix(s, "/**"):
		s = s[3:]
	case strings.HasPrefix(s, "/*"):
		s = s[2:]
	case strings.HasPrefix(s, "//"):
		s = s[2:]
	}

	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "*/"))
	s = strings.TrimLeft(s, "*")

	return strings.TrimSpace(s)
}

// splitDirective returns the name and raw value of a line starting with
// "@name". The name must be followed by whitespace, an opening bracket or the
// end of the line.
func splitDirective(text string) (name, value string, ok bool) {
	match := directivePattern.FindStringSubmatch(text)
	if match == nil {
		return "", "", false
	}

	rest := text[len(match[0]):]
	if rest != "" {
		switch rest[0] {
		case ' ', '\t', '(', '[', '{':
		default:
			return "", "", false
		}
	}

	return match[1], strings.TrimSpace(rest), true
}

// bracketScanner tracks bracket depth outside of quoted strings. A quote
// only starts a string where a value may begin: at the start of the value,
// after one of "([{,:" or another string, or after whitespace inside
// brackets. Apostrophes in prose such as "don't" stay literal.
type bracketScanner struct {
	depth    int
	maxDepth int
	quote    byte
	escaped  bool
	last     byte // last non-space byte outside strings
	spaced   bool // whitespace since last
}

func (s *bracketScanner) feed(text string) {
	for i := 0; i < len(text); i++ {
		c := text[i]

		if s.quote != 0 {
			switch {
			case s.escaped:
				s.escaped = false
			case c == '\\':
				s.escaped = true
			case c == s.quote:
				s.quote = 0
				s.last = c
				s.spaced = false
			}
			continue
		}

		switch c {
		case ' ', '\t', '\n', '\r':
			s.spaced = true
			continue
		case '"', '\'':
			if s.valueStart() {
				s.quote = c
				continue
			}
		case '(', '[', '{':
			s.depth++
			if s.depth > s.maxDepth {
				s.maxDepth = s.depth
			}
		case ')', ']', '}':
			if s.depth > 0 {
				s.depth--
			}
		}
		s.last = c
		s.spaced = false
	}
}

func (s *bracketScanner) valueStart() bool {
	switch s.last {
	case 0, '(', '[', '{', ',', ':', '"', '\'':
		return true
	}
	return s.depth > 0 && s.spaced
}

func (s *bracketScanner) open() bool {
	return s.depth > 0 || s.quote != 0
}
