package pp

// Scanner tokenizes HLSL source one logical line at a time.
//
// A logical line is a physical line plus any continuation lines joined by
// backslash-newline splices. Block comments may also carry a logical line
// across physical lines.
type Scanner struct {
	source    string
	pos       int
	line      int
	lineStart int
}

// NewScanner creates a new scanner for the given source.
func NewScanner(source string) *Scanner {
	return &Scanner{
		source: source,
		pos:    0,
		line:   1,
	}
}

// Next returns the next logical line, or nil at end of input.
func (s *Scanner) Next() *Line {
	if s.pos >= len(s.source) {
		return nil
	}

	ln := &Line{
		Number:   s.line,
		Physical: 1,
	}

	// Leading whitespace is preserved as indentation.
	start := s.pos
	for s.pos < len(s.source) {
		c := s.source[s.pos]
		if c != ' ' && c != '\t' && c != '\r' {
			break
		}
		s.pos++
	}
	ln.Indent = s.source[start:s.pos]

	space := false
	for s.pos < len(s.source) {
		c := s.source[s.pos]

		switch {
		case c == '\n':
			s.consumeNewline()
			return s.finish(ln)

		case c == '\r':
			s.pos++
			// \r\n ends the line below; lone \r is whitespace.
			space = true

		case c == ' ' || c == '\t':
			s.pos++
			space = true

		case c == '\\' && s.atLineSplice():
			s.consumeSplice()
			ln.Physical++
			space = true

		case c == '/' && s.peekAt(1) == '/':
			s.lineComment(ln, space)
			space = false

		case c == '/' && s.peekAt(1) == '*':
			s.blockComment(ln, space)
			space = false

		case c == '"':
			s.stringLiteral(ln, space, '"', TokenString)
			space = false

		case c == '\'':
			s.stringLiteral(ln, space, '\'', TokenChar)
			space = false

		case isIdentStart(c):
			s.identifier(ln, space)
			space = false

		case isDigit(c) || (c == '.' && isDigit(s.peekAt(1))):
			s.number(ln, space)
			space = false

		case c == '#':
			if s.peekAt(1) == '#' {
				s.addToken(ln, TokenHashHash, s.pos, s.pos+2, space)
				s.pos += 2
			} else {
				s.addToken(ln, TokenHash, s.pos, s.pos+1, space)
				s.pos++
			}
			space = false

		default:
			s.punctuator(ln, space)
			space = false
		}
	}

	return s.finish(ln)
}

// finish marks directive lines and advances bookkeeping.
func (s *Scanner) finish(ln *Line) *Line {
	if len(ln.Tokens) > 0 && ln.Tokens[0].Kind == TokenHash {
		ln.Directive = true
	}
	return ln
}

// atLineSplice reports whether the backslash at the current position is
// followed only by a line terminator.
func (s *Scanner) atLineSplice() bool {
	i := s.pos + 1
	if i < len(s.source) && s.source[i] == '\r' {
		i++
	}
	return i < len(s.source) && s.source[i] == '\n'
}

func (s *Scanner) consumeSplice() {
	s.pos++ // backslash
	if s.pos < len(s.source) && s.source[s.pos] == '\r' {
		s.pos++
	}
	s.consumeNewline()
}

func (s *Scanner) consumeNewline() {
	s.pos++ // '\n'
	s.line++
	s.lineStart = s.pos
}

func (s *Scanner) lineComment(ln *Line, space bool) {
	start := s.pos
	for s.pos < len(s.source) && s.source[s.pos] != '\n' {
		s.pos++
	}
	s.addToken(ln, TokenComment, start, s.pos, space)
}

func (s *Scanner) blockComment(ln *Line, space bool) {
	start := s.pos
	s.pos += 2
	for s.pos < len(s.source) {
		if s.source[s.pos] == '*' && s.peekAt(1) == '/' {
			s.pos += 2
			break
		}
		if s.source[s.pos] == '\n' {
			s.line++
			ln.Physical++
			s.lineStart = s.pos + 1
		}
		s.pos++
	}
	s.addToken(ln, TokenComment, start, s.pos, space)
}

// stringLiteral consumes a quoted literal. An unterminated literal is
// tolerated and runs to end of line; the compiler proper reports it.
func (s *Scanner) stringLiteral(ln *Line, space bool, quote byte, kind TokenKind) {
	start := s.pos
	s.pos++
	for s.pos < len(s.source) {
		c := s.source[s.pos]
		if c == '\\' && s.pos+1 < len(s.source) && s.source[s.pos+1] != '\n' {
			s.pos += 2
			continue
		}
		if c == quote {
			s.pos++
			break
		}
		if c == '\n' {
			break
		}
		s.pos++
	}
	s.addToken(ln, kind, start, s.pos, space)
}

func (s *Scanner) identifier(ln *Line, space bool) {
	start := s.pos
	for s.pos < len(s.source) && isIdentPart(s.source[s.pos]) {
		s.pos++
	}
	s.addToken(ln, TokenIdent, start, s.pos, space)
}

// number consumes a preprocessing number: a maximal run of digits,
// letters, underscores and dots, with sign characters after exponent
// markers. This covers 0x1F, 1.5f, 2.5e-3h and friends without a full
// grammar.
func (s *Scanner) number(ln *Line, space bool) {
	start := s.pos
	for s.pos < len(s.source) {
		c := s.source[s.pos]
		if isIdentPart(c) || c == '.' {
			s.pos++
			continue
		}
		if (c == '+' || c == '-') && s.pos > start {
			prev := s.source[s.pos-1]
			if prev == 'e' || prev == 'E' || prev == 'p' || prev == 'P' {
				s.pos++
				continue
			}
		}
		break
	}
	s.addToken(ln, TokenNumber, start, s.pos, space)
}

// punctuators that span multiple bytes, longest first for maximal munch.
var multiPunct = []string{
	"<<=", ">>=", "...",
	"==", "!=", "<=", ">=", "&&", "||", "<<", ">>", "->", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "::",
}

func (s *Scanner) punctuator(ln *Line, space bool) {
	rest := s.source[s.pos:]
	for _, op := range multiPunct {
		if len(rest) >= len(op) && rest[:len(op)] == op {
			s.addToken(ln, TokenPunct, s.pos, s.pos+len(op), space)
			s.pos += len(op)
			return
		}
	}

	kind := TokenPunct
	if !isPunct(s.source[s.pos]) {
		kind = TokenOther
	}
	s.addToken(ln, kind, s.pos, s.pos+1, space)
	s.pos++
}

func (s *Scanner) addToken(ln *Line, kind TokenKind, start, end int, space bool) {
	ln.Tokens = append(ln.Tokens, Token{
		Kind:     kind,
		Text:     s.source[start:end],
		HasSpace: space,
		Line:     s.line,
		Column:   start - s.lineStart + 1,
	})
}

func (s *Scanner) peekAt(offset int) byte {
	if s.pos+offset >= len(s.source) {
		return 0
	}
	return s.source[s.pos+offset]
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isPunct(c byte) bool {
	switch c {
	case '+', '-', '*', '/', '%', '&', '|', '^', '~', '!', '=', '<', '>',
		'.', ',', ':', ';', '?', '(', ')', '[', ']', '{', '}', '@', '$':
		return true
	}
	return false
}
