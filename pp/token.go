// Package pp provides HLSL source preprocessing.
package pp

// TokenKind represents the type of preprocessing token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenError

	// TokenIdent is an identifier or keyword. The preprocessor does not
	// distinguish keywords; that is the compiler's job.
	TokenIdent

	// TokenNumber is a preprocessing number: integer or float literal,
	// including prefixes (0x) and suffixes (u, l, f, h).
	TokenNumber

	// TokenString is a double-quoted string literal including quotes.
	TokenString

	// TokenChar is a single-quoted character literal including quotes.
	TokenChar

	// TokenPunct is any punctuator: operators, brackets, commas.
	TokenPunct

	// TokenHash is a '#' introducing a directive or a stringize operator
	// inside a macro body.
	TokenHash

	// TokenHashHash is the '##' token paste operator.
	TokenHashHash

	// TokenComment is a line or block comment, including delimiters.
	TokenComment

	// TokenOther is a byte that fits no other class. It is preserved
	// verbatim so that opaque content survives a forced scan.
	TokenOther
)

// String returns the string representation of the token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return "Error"
	case TokenIdent:
		return "Ident"
	case TokenNumber:
		return "Number"
	case TokenString:
		return "String"
	case TokenChar:
		return "Char"
	case TokenPunct:
		return "Punct"
	case TokenHash:
		return "#"
	case TokenHashHash:
		return "##"
	case TokenComment:
		return "Comment"
	case TokenOther:
		return "Other"
	default:
		return "Unknown"
	}
}

// Token represents a single preprocessing token.
type Token struct {
	Kind TokenKind

	// Text is the exact source text of the token.
	Text string

	// HasSpace reports whether whitespace (or a stripped comment)
	// preceded the token. Needed for faithful re-emission and for the
	// stringize operator.
	HasSpace bool

	Line   int
	Column int
}

// Position represents a position in source code.
type Position struct {
	Line   int
	Column int
}

// Line is one logical source line: physical lines joined by
// backslash-newline splices, tokenized.
type Line struct {
	// Tokens holds the tokens of the logical line, excluding the
	// terminating newline.
	Tokens []Token

	// Directive reports whether the first token is a '#' at the start of
	// the line (ignoring whitespace), i.e. a preprocessor directive.
	Directive bool

	// Indent is the leading whitespace of the first physical line,
	// preserved on output.
	Indent string

	// Number is the 1-based physical line number of the first physical
	// line.
	Number int

	// Physical is the number of physical source lines the logical line
	// covers (1 unless splices or multi-line block comments occur).
	Physical int
}
