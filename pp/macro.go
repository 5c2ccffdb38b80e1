package pp

import "strings"

// Macro represents a preprocessor macro definition.
type Macro struct {
	Name string

	// IsFunc distinguishes function-like macros. An object-like macro
	// named F followed by '(' in source is not an invocation.
	IsFunc bool

	// Params holds parameter names for function-like macros.
	Params []string

	// Body holds the replacement tokens, comments stripped.
	Body []Token

	// Builtin, when set, computes the replacement dynamically. Used for
	// __FILE__ and __LINE__.
	Builtin func(ctx *ExpandContext) []Token
}

// ExpandContext carries the current location for builtin macros.
type ExpandContext struct {
	File string
	Line int
}

// Table holds the set of defined macros.
type Table struct {
	macros map[string]*Macro
}

// NewTable creates an empty macro table.
func NewTable() *Table {
	return &Table{macros: make(map[string]*Macro)}
}

// Define adds a macro to the table. Redefining a macro with an identical
// body is allowed; a different body is an error.
func (t *Table) Define(m *Macro) *Error {
	if old, ok := t.macros[m.Name]; ok {
		if !sameDefinition(old, m) {
			return NewError(ErrMacroRedefinition, "macro "+m.Name+" redefined with a different body")
		}
	}
	t.macros[m.Name] = m
	return nil
}

// DefineObject defines an object-like macro from a textual value, as the
// -D command line option does. An empty value defines the macro as 1.
func (t *Table) DefineObject(name, value string) *Error {
	if value == "" {
		value = "1"
	}
	ln := NewScanner(value).Next()
	var body []Token
	if ln != nil {
		body = stripComments(ln.Tokens)
	}
	return t.Define(&Macro{Name: name, Body: body})
}

// Undef removes a macro. Removing an unknown name is not an error.
func (t *Table) Undef(name string) {
	delete(t.macros, name)
}

// Lookup returns the macro with the given name.
func (t *Table) Lookup(name string) (*Macro, bool) {
	m, ok := t.macros[name]
	return m, ok
}

// IsDefined reports whether a macro with the given name exists.
func (t *Table) IsDefined(name string) bool {
	_, ok := t.macros[name]
	return ok
}

// sameDefinition compares two macro definitions by spelling.
func sameDefinition(a, b *Macro) bool {
	if a.IsFunc != b.IsFunc || len(a.Params) != len(b.Params) || len(a.Body) != len(b.Body) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	for i := range a.Body {
		if a.Body[i].Text != b.Body[i].Text {
			return false
		}
	}
	return true
}

// stripComments removes comment tokens, folding them into the following
// token's HasSpace flag.
func stripComments(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	space := false
	for _, tok := range tokens {
		if tok.Kind == TokenComment {
			space = true
			continue
		}
		if space {
			tok.HasSpace = true
			space = false
		}
		out = append(out, tok)
	}
	return out
}

// stream is a token cursor over one logical line. more supplies the
// next line's tokens and is consulted only from collectArgs, while a
// function-like macro's argument list is open; plain expansion never
// crosses the line boundary.
type stream struct {
	toks []Token
	pos  int
	more func() []Token
}

func (ts *stream) next() (Token, bool) {
	if ts.pos >= len(ts.toks) {
		return Token{Kind: TokenEOF}, false
	}
	tok := ts.toks[ts.pos]
	ts.pos++
	return tok, true
}

func (ts *stream) peek() (Token, bool) {
	if ts.pos >= len(ts.toks) {
		return Token{Kind: TokenEOF}, false
	}
	return ts.toks[ts.pos], true
}

// pull extends the stream with continuation tokens and reports whether
// any became available.
func (ts *stream) pull() bool {
	for ts.pos >= len(ts.toks) {
		if ts.more == nil {
			return false
		}
		extra := ts.more()
		if extra == nil {
			ts.more = nil
			return false
		}
		ts.toks = append(ts.toks, extra...)
	}
	return true
}

// ExpandLine expands all macros in tokens. getMore supplies the next
// logical line's tokens when an invocation is split across lines; it may
// be nil. Comments pass through unexpanded.
func (t *Table) ExpandLine(tokens []Token, getMore func() []Token, ctx *ExpandContext) ([]Token, *Error) {
	ts := &stream{toks: tokens, more: getMore}
	var out []Token
	if err := t.expand(ts, &out, nil, ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Table) expand(ts *stream, out *[]Token, hide map[string]bool, ctx *ExpandContext) *Error {
	for {
		tok, ok := ts.next()
		if !ok {
			return nil
		}
		if tok.Kind != TokenIdent || hide[tok.Text] {
			*out = append(*out, tok)
			continue
		}
		m, defined := t.macros[tok.Text]
		if !defined {
			*out = append(*out, tok)
			continue
		}

		if m.Builtin != nil {
			repl := m.Builtin(ctx)
			appendExpanded(out, repl, tok.HasSpace)
			continue
		}

		if !m.IsFunc {
			repl := make([]Token, len(m.Body))
			copy(repl, m.Body)
			sub := &stream{toks: repl}
			var expanded []Token
			if err := t.expand(sub, &expanded, withHidden(hide, m.Name), ctx); err != nil {
				return err
			}
			appendExpanded(out, expanded, tok.HasSpace)
			continue
		}

		// Function-like: only an invocation when followed by '('.
		next, nok := ts.peek()
		if !nok || !(next.Kind == TokenPunct && next.Text == "(") {
			*out = append(*out, tok)
			continue
		}
		ts.next() // consume '('

		args, err := t.collectArgs(ts, m, tok)
		if err != nil {
			return err
		}

		substituted, err := t.substitute(m, args, ctx)
		if err != nil {
			return err
		}

		sub := &stream{toks: substituted}
		var expanded []Token
		if err := t.expand(sub, &expanded, withHidden(hide, m.Name), ctx); err != nil {
			return err
		}
		appendExpanded(out, expanded, tok.HasSpace)
	}
}

// collectArgs gathers the invocation arguments for m, starting just after
// the opening parenthesis.
func (t *Table) collectArgs(ts *stream, m *Macro, name Token) ([][]Token, *Error) {
	var args [][]Token
	var cur []Token
	depth := 1
	for {
		tok, ok := ts.next()
		if !ok {
			if ts.pull() {
				continue
			}
			return nil, NewErrorAt(ErrMacroArguments, "", Position{name.Line, name.Column},
				"unterminated argument list for macro %s", name.Text)
		}
		if tok.Kind == TokenComment {
			continue
		}
		switch {
		case tok.Kind == TokenPunct && tok.Text == "(":
			depth++
			cur = append(cur, tok)
		case tok.Kind == TokenPunct && tok.Text == ")":
			depth--
			if depth == 0 {
				args = append(args, cur)
				if len(m.Params) == 0 && len(args) == 1 && len(args[0]) == 0 {
					args = args[:0]
				}
				if len(args) != len(m.Params) {
					return nil, NewErrorAt(ErrMacroArguments, "", Position{name.Line, name.Column},
						"macro %s expects %d arguments, got %d", name.Text, len(m.Params), len(args))
				}
				return args, nil
			}
			cur = append(cur, tok)
		case tok.Kind == TokenPunct && tok.Text == "," && depth == 1:
			args = append(args, cur)
			cur = nil
		default:
			cur = append(cur, tok)
		}
	}
}

// substitute performs parameter substitution, stringize and paste on the
// macro body. Arguments used normally are macro-expanded first; operands
// of # and ## use the raw argument tokens.
func (t *Table) substitute(m *Macro, args [][]Token, ctx *ExpandContext) ([]Token, *Error) {
	paramIndex := func(name string) int {
		for i, p := range m.Params {
			if p == name {
				return i
			}
		}
		return -1
	}

	expandedArgs := make([][]Token, len(args))
	for i, arg := range args {
		ts := &stream{toks: arg}
		var ex []Token
		if err := t.expand(ts, &ex, nil, ctx); err != nil {
			return nil, err
		}
		expandedArgs[i] = ex
	}

	var out []Token
	body := m.Body
	for i := 0; i < len(body); i++ {
		tok := body[i]

		// Stringize: # param
		if tok.Kind == TokenHash && i+1 < len(body) {
			if idx := bodyParam(body[i+1], paramIndex); idx >= 0 {
				out = append(out, Token{
					Kind:     TokenString,
					Text:     stringize(args[idx]),
					HasSpace: tok.HasSpace,
				})
				i++
				continue
			}
		}

		// Paste: lhs ## rhs
		if i+1 < len(body) && body[i+1].Kind == TokenHashHash {
			lhs := substOne(tok, args, paramIndex)
			for i+1 < len(body) && body[i+1].Kind == TokenHashHash {
				if i+2 >= len(body) {
					return nil, NewError(ErrMalformedDirective, "## at end of macro body")
				}
				rhs := substOne(body[i+2], args, paramIndex)
				lhs = paste(lhs, rhs)
				i += 2
			}
			hs := tok.HasSpace
			for j, p := range lhs {
				if j == 0 {
					p.HasSpace = hs
				}
				out = append(out, p)
			}
			continue
		}

		if idx := bodyParam(tok, paramIndex); idx >= 0 {
			appendExpanded(&out, expandedArgs[idx], tok.HasSpace)
			continue
		}

		out = append(out, tok)
	}
	return out, nil
}

// bodyParam returns the parameter index of a body token, or -1.
func bodyParam(tok Token, paramIndex func(string) int) int {
	if tok.Kind != TokenIdent {
		return -1
	}
	return paramIndex(tok.Text)
}

// substOne substitutes a single body token for paste operands, using the
// raw (unexpanded) argument.
func substOne(tok Token, args [][]Token, paramIndex func(string) int) []Token {
	if idx := bodyParam(tok, paramIndex); idx >= 0 {
		raw := make([]Token, len(args[idx]))
		copy(raw, args[idx])
		return raw
	}
	return []Token{tok}
}

// paste joins the last token of lhs with the first token of rhs and
// re-scans the result so "1 ## 2" becomes the single number 12.
func paste(lhs, rhs []Token) []Token {
	if len(lhs) == 0 {
		return rhs
	}
	if len(rhs) == 0 {
		return lhs
	}
	joined := lhs[len(lhs)-1].Text + rhs[0].Text

	var glued []Token
	if ln := NewScanner(joined).Next(); ln != nil {
		glued = ln.Tokens
	}
	if len(glued) == 0 {
		glued = []Token{{Kind: TokenOther, Text: joined}}
	}
	glued[0].HasSpace = lhs[len(lhs)-1].HasSpace

	out := append([]Token{}, lhs[:len(lhs)-1]...)
	out = append(out, glued...)
	out = append(out, rhs[1:]...)
	return out
}

// stringize renders argument tokens as a string literal, per the #
// operator: single spaces between spaced tokens, backslashes and quotes
// escaped.
func stringize(arg []Token) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i, tok := range arg {
		if i > 0 && tok.HasSpace {
			sb.WriteByte(' ')
		}
		text := tok.Text
		if tok.Kind == TokenString || tok.Kind == TokenChar {
			text = strings.ReplaceAll(text, `\`, `\\`)
			text = strings.ReplaceAll(text, `"`, `\"`)
		}
		sb.WriteString(text)
	}
	sb.WriteByte('"')
	return sb.String()
}

// appendExpanded appends replacement tokens, giving the first one the
// spacing of the token it replaces.
func appendExpanded(out *[]Token, repl []Token, hasSpace bool) {
	for i, tok := range repl {
		if i == 0 {
			tok.HasSpace = hasSpace
		}
		*out = append(*out, tok)
	}
}

// withHidden returns hide plus name. The hide set stops a macro from
// expanding inside its own replacement.
func withHidden(hide map[string]bool, name string) map[string]bool {
	next := make(map[string]bool, len(hide)+1)
	for k := range hide {
		next[k] = true
	}
	next[name] = true
	return next
}
