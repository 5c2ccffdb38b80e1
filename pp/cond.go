package pp

import (
	"strconv"
	"strings"
)

// condState tracks one level of #if nesting.
type condState struct {
	// active reports whether lines in the current group are emitted.
	active bool

	// parentActive reports whether the enclosing group was active; when
	// false, no branch of this conditional can ever be active.
	parentActive bool

	// taken reports whether any branch of this conditional has been
	// active yet; later #elif/#else branches are then skipped.
	taken bool

	// sawElse reports whether #else was seen; further #elif/#else are
	// unbalanced.
	sawElse bool

	// pos is the location of the opening #if, for unterminated-#if
	// diagnostics.
	pos Position
}

// evaluator parses and evaluates #if constant expressions.
//
// The grammar is the C integer constant expression subset: ternary,
// logical, bitwise, equality, relational, shift, additive,
// multiplicative and unary operators over integer, character and
// (already-resolved) defined() operands.
type evaluator struct {
	toks []Token
	pos  int
}

// Evaluate computes the value of a #if/#elif expression. The tokens must
// already have had defined() resolved and macros expanded; any remaining
// identifier evaluates to 0.
func Evaluate(tokens []Token) (int64, *Error) {
	ev := &evaluator{toks: tokens}
	v, err := ev.conditional()
	if err != nil {
		return 0, err
	}
	if tok, ok := ev.peek(); ok {
		return 0, ev.errAt(tok, "unexpected %q in constant expression", tok.Text)
	}
	return v, nil
}

// conditional parses a ternary expression (right associative).
func (ev *evaluator) conditional() (int64, *Error) {
	cond, err := ev.binary(0)
	if err != nil {
		return 0, err
	}
	if !ev.accept("?") {
		return cond, nil
	}
	thenV, err := ev.conditional()
	if err != nil {
		return 0, err
	}
	if !ev.accept(":") {
		return 0, ev.errHere("expected ':' in conditional expression")
	}
	elseV, err := ev.conditional()
	if err != nil {
		return 0, err
	}
	if cond != 0 {
		return thenV, nil
	}
	return elseV, nil
}

// binaryPrec maps binary operators to precedence levels.
var binaryPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

// binary parses binary operators with precedence climbing, in the manner
// of the expression parser in the WGSL front end.
func (ev *evaluator) binary(minPrec int) (int64, *Error) {
	lhs, err := ev.unary()
	if err != nil {
		return 0, err
	}

	for {
		tok, ok := ev.peek()
		if !ok || tok.Kind != TokenPunct {
			return lhs, nil
		}
		prec, isOp := binaryPrec[tok.Text]
		if !isOp || prec < minPrec {
			return lhs, nil
		}
		ev.pos++

		rhs, err := ev.binary(prec + 1)
		if err != nil {
			return 0, err
		}

		lhs, err = applyBinary(tok, lhs, rhs)
		if err != nil {
			return 0, err
		}
	}
}

func applyBinary(op Token, lhs, rhs int64) (int64, *Error) {
	switch op.Text {
	case "||":
		return boolVal(lhs != 0 || rhs != 0), nil
	case "&&":
		return boolVal(lhs != 0 && rhs != 0), nil
	case "|":
		return lhs | rhs, nil
	case "^":
		return lhs ^ rhs, nil
	case "&":
		return lhs & rhs, nil
	case "==":
		return boolVal(lhs == rhs), nil
	case "!=":
		return boolVal(lhs != rhs), nil
	case "<":
		return boolVal(lhs < rhs), nil
	case ">":
		return boolVal(lhs > rhs), nil
	case "<=":
		return boolVal(lhs <= rhs), nil
	case ">=":
		return boolVal(lhs >= rhs), nil
	case "<<":
		return lhs << (uint64(rhs) & 63), nil
	case ">>":
		return lhs >> (uint64(rhs) & 63), nil
	case "+":
		return lhs + rhs, nil
	case "-":
		return lhs - rhs, nil
	case "*":
		return lhs * rhs, nil
	case "/":
		if rhs == 0 {
			return 0, NewErrorAt(ErrExpression, "", Position{op.Line, op.Column}, "division by zero in constant expression")
		}
		return lhs / rhs, nil
	case "%":
		if rhs == 0 {
			return 0, NewErrorAt(ErrExpression, "", Position{op.Line, op.Column}, "division by zero in constant expression")
		}
		return lhs % rhs, nil
	}
	return 0, NewErrorAt(ErrExpression, "", Position{op.Line, op.Column}, "unsupported operator %q", op.Text)
}

func (ev *evaluator) unary() (int64, *Error) {
	tok, ok := ev.peek()
	if !ok {
		return 0, ev.errHere("unexpected end of constant expression")
	}
	if tok.Kind == TokenPunct {
		switch tok.Text {
		case "!":
			ev.pos++
			v, err := ev.unary()
			if err != nil {
				return 0, err
			}
			return boolVal(v == 0), nil
		case "~":
			ev.pos++
			v, err := ev.unary()
			if err != nil {
				return 0, err
			}
			return ^v, nil
		case "-":
			ev.pos++
			v, err := ev.unary()
			if err != nil {
				return 0, err
			}
			return -v, nil
		case "+":
			ev.pos++
			return ev.unary()
		}
	}
	return ev.primary()
}

func (ev *evaluator) primary() (int64, *Error) {
	tok, ok := ev.peek()
	if !ok {
		return 0, ev.errHere("unexpected end of constant expression")
	}

	switch tok.Kind {
	case TokenNumber:
		ev.pos++
		v, err := parseIntLiteral(tok.Text)
		if err != nil {
			return 0, ev.errAt(tok, "invalid integer literal %q", tok.Text)
		}
		return v, nil

	case TokenChar:
		ev.pos++
		return charValue(tok.Text), nil

	case TokenIdent:
		// An identifier surviving macro expansion is an undefined macro.
		ev.pos++
		return 0, nil

	case TokenPunct:
		if tok.Text == "(" {
			ev.pos++
			v, err := ev.conditional()
			if err != nil {
				return 0, err
			}
			if !ev.accept(")") {
				return 0, ev.errHere("expected ')' in constant expression")
			}
			return v, nil
		}
	}

	return 0, ev.errAt(tok, "unexpected %q in constant expression", tok.Text)
}

func (ev *evaluator) peek() (Token, bool) {
	if ev.pos >= len(ev.toks) {
		return Token{}, false
	}
	return ev.toks[ev.pos], true
}

func (ev *evaluator) accept(text string) bool {
	tok, ok := ev.peek()
	if ok && tok.Kind == TokenPunct && tok.Text == text {
		ev.pos++
		return true
	}
	return false
}

func (ev *evaluator) errAt(tok Token, format string, args ...interface{}) *Error {
	return NewErrorAt(ErrExpression, "", Position{tok.Line, tok.Column}, format, args...)
}

func (ev *evaluator) errHere(message string) *Error {
	pos := Position{}
	if len(ev.toks) > 0 {
		last := ev.toks[len(ev.toks)-1]
		pos = Position{last.Line, last.Column}
	}
	return NewError(ErrExpression, message).at(pos)
}

func (e *Error) at(pos Position) *Error {
	e.Pos = pos
	return e
}

func boolVal(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// parseIntLiteral parses a preprocessing integer: decimal, hex (0x) or
// octal (leading 0), with u/U/l/L suffixes ignored.
func parseIntLiteral(text string) (int64, error) {
	text = strings.TrimRight(text, "uUlL")
	if text == "" {
		return 0, strconv.ErrSyntax
	}
	v, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		// Overflowing literals saturate via unsigned parse, matching
		// two's-complement preprocessor arithmetic.
		u, uerr := strconv.ParseUint(text, 0, 64)
		if uerr != nil {
			return 0, err
		}
		return int64(u), nil
	}
	return v, nil
}

// charValue returns the numeric value of a character literal.
func charValue(text string) int64 {
	body := strings.TrimSuffix(strings.TrimPrefix(text, "'"), "'")
	if body == "" {
		return 0
	}
	if body[0] != '\\' {
		return int64(body[0])
	}
	if len(body) < 2 {
		return int64('\\')
	}
	switch body[1] {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	case '\\', '\'', '"':
		return int64(body[1])
	default:
		return int64(body[1])
	}
}
