package pp

import (
	"strconv"
	"strings"
)

// directive handles a '#' line: conditional bookkeeping always runs,
// everything else only in active groups.
func (p *Preprocessor) directive(ln *Line, sc *Scanner, fs *fileState, ctx *ExpandContext) {
	toks := stripComments(ln.Tokens[1:])

	// Null directive: a lone '#'.
	if len(toks) == 0 {
		p.emitBlank(ln.Physical)
		return
	}

	name := toks[0]
	if name.Kind != TokenIdent {
		if !fs.skipping() {
			p.errorAt(ErrMalformedDirective, fs, name, "expected directive name after '#'")
		}
		p.emitBlank(ln.Physical)
		return
	}
	rest := toks[1:]

	switch name.Text {
	case "if":
		p.directiveIf(rest, fs, ctx, name)
	case "ifdef":
		p.directiveIfdef(rest, fs, name, false)
	case "ifndef":
		p.directiveIfdef(rest, fs, name, true)
	case "elif":
		p.directiveElif(rest, fs, ctx, name)
	case "else":
		p.directiveElse(fs, name)
	case "endif":
		p.directiveEndif(fs, name)

	default:
		// Non-conditional directives are ignored in skipped groups.
		if fs.skipping() {
			p.emitBlank(ln.Physical)
			return
		}
		switch name.Text {
		case "include":
			p.directiveInclude(rest, ln, fs, name)
			return
		case "define":
			p.directiveDefine(rest, fs, name)
		case "undef":
			p.directiveUndef(rest, fs, name)
		case "error":
			p.errorAt(ErrErrorDirective, fs, name, "#error %s", renderTokens(rest))
		case "pragma":
			p.directivePragma(rest, ln, fs)
			return
		case "line":
			p.directiveLine(rest, ln, fs, name)
		default:
			p.errorAt(ErrUnknownDirective, fs, name, "unknown directive #%s", name.Text)
		}
	}

	p.emitBlank(ln.Physical)
}

func (p *Preprocessor) directiveIf(rest []Token, fs *fileState, ctx *ExpandContext, name Token) {
	parentActive := !fs.skipping()
	state := condState{
		parentActive: parentActive,
		pos:          Position{name.Line, name.Column},
	}
	if !parentActive {
		// The whole conditional is inside a dead group; no branch can
		// ever activate, and the expression is not evaluated.
		state.taken = true
	} else {
		v := p.evalCondition(rest, fs, ctx, name)
		state.active = v
		state.taken = v
	}
	fs.conds = append(fs.conds, state)
}

func (p *Preprocessor) directiveIfdef(rest []Token, fs *fileState, name Token, negate bool) {
	parentActive := !fs.skipping()
	state := condState{
		parentActive: parentActive,
		pos:          Position{name.Line, name.Column},
	}
	if !parentActive {
		state.taken = true
	} else {
		if len(rest) != 1 || rest[0].Kind != TokenIdent {
			p.errorAt(ErrMalformedDirective, fs, name, "#%s expects a single macro name", name.Text)
		} else {
			v := p.macros.IsDefined(rest[0].Text)
			if negate {
				v = !v
			}
			state.active = v
			state.taken = v
		}
	}
	fs.conds = append(fs.conds, state)
}

func (p *Preprocessor) directiveElif(rest []Token, fs *fileState, ctx *ExpandContext, name Token) {
	if len(fs.conds) == 0 {
		p.errorAt(ErrUnbalancedConditional, fs, name, "#elif without #if")
		return
	}
	top := &fs.conds[len(fs.conds)-1]
	if top.sawElse {
		p.errorAt(ErrUnbalancedConditional, fs, name, "#elif after #else")
		return
	}
	if !top.parentActive || top.taken {
		top.active = false
		return
	}
	v := p.evalCondition(rest, fs, ctx, name)
	top.active = v
	if v {
		top.taken = true
	}
}

func (p *Preprocessor) directiveElse(fs *fileState, name Token) {
	if len(fs.conds) == 0 {
		p.errorAt(ErrUnbalancedConditional, fs, name, "#else without #if")
		return
	}
	top := &fs.conds[len(fs.conds)-1]
	if top.sawElse {
		p.errorAt(ErrUnbalancedConditional, fs, name, "#else after #else")
		return
	}
	top.sawElse = true
	top.active = top.parentActive && !top.taken
	top.taken = true
}

func (p *Preprocessor) directiveEndif(fs *fileState, name Token) {
	if len(fs.conds) == 0 {
		p.errorAt(ErrUnbalancedConditional, fs, name, "#endif without #if")
		return
	}
	fs.conds = fs.conds[:len(fs.conds)-1]
}

// evalCondition resolves defined(), expands macros and evaluates the
// remaining constant expression.
func (p *Preprocessor) evalCondition(rest []Token, fs *fileState, ctx *ExpandContext, name Token) bool {
	if len(rest) == 0 {
		p.errorAt(ErrMalformedDirective, fs, name, "#%s with no expression", name.Text)
		return false
	}

	resolved := p.resolveDefined(rest, fs)
	expanded, err := p.macros.ExpandLine(resolved, nil, ctx)
	if err != nil {
		err.File = fs.file
		p.errs.Add(err)
		return false
	}

	v, err := Evaluate(expanded)
	if err != nil {
		err.File = fs.file
		p.errs.Add(err)
		return false
	}
	return v != 0
}

// resolveDefined replaces defined X and defined(X) with 1 or 0 before
// macro expansion, so the operand itself is not expanded.
func (p *Preprocessor) resolveDefined(toks []Token, fs *fileState) []Token {
	var out []Token
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		if tok.Kind != TokenIdent || tok.Text != "defined" {
			out = append(out, tok)
			continue
		}

		var name string
		j := i + 1
		if j < len(toks) && toks[j].Kind == TokenPunct && toks[j].Text == "(" {
			if j+2 < len(toks) && toks[j+1].Kind == TokenIdent &&
				toks[j+2].Kind == TokenPunct && toks[j+2].Text == ")" {
				name = toks[j+1].Text
				i = j + 2
			}
		} else if j < len(toks) && toks[j].Kind == TokenIdent {
			name = toks[j].Text
			i = j
		}

		if name == "" {
			p.errorAt(ErrMalformedDirective, fs, tok, "'defined' expects a macro name")
			out = append(out, Token{
				Kind:     TokenNumber,
				Text:     "0",
				HasSpace: tok.HasSpace,
				Line:     tok.Line,
				Column:   tok.Column,
			})
			continue
		}

		value := "0"
		if p.macros.IsDefined(name) {
			value = "1"
		}
		out = append(out, Token{
			Kind:     TokenNumber,
			Text:     value,
			HasSpace: tok.HasSpace,
			Line:     tok.Line,
			Column:   tok.Column,
		})
	}
	return out
}

func (p *Preprocessor) directiveInclude(rest []Token, ln *Line, fs *fileState, name Token) {
	target, quoted, ok := parseIncludeTarget(rest)
	if !ok {
		p.errorAt(ErrMalformedDirective, fs, name, "#include expects \"file\" or <file>")
		p.emitBlank(ln.Physical)
		return
	}

	if p.opts.Include == nil {
		p.errorAt(ErrInclude, fs, name, "#include %q with no include resolver configured", target)
		p.emitBlank(ln.Physical)
		return
	}

	f, err := p.opts.Include(target, quoted, fs.path)
	if err != nil {
		p.errorAt(ErrInclude, fs, name, "%v", err)
		p.emitBlank(ln.Physical)
		return
	}
	if f == nil {
		// Resolver suppressed the inclusion (e.g. once-only semantics).
		p.emitBlank(ln.Physical)
		return
	}

	if p.once[f.Path] {
		p.emitBlank(ln.Physical)
		return
	}
	if f.Guard != "" && p.macros.IsDefined(f.Guard) {
		p.emitBlank(ln.Physical)
		return
	}
	if p.active[f.Path] {
		chain := strings.Join(append(p.stack, target), " -> ")
		p.errorAt(ErrInclude, fs, name, "recursive include of %q (%s)", target, chain)
		p.emitBlank(ln.Physical)
		return
	}

	if p.opts.LineMarkers {
		p.emit(`#line 1 "` + f.Path + `"`)
	}

	p.active[f.Path] = true
	p.processSource(f.Content, target, f.Path, fs.depth+1)
	delete(p.active, f.Path)

	if p.opts.LineMarkers {
		p.emit(`#line ` + strconv.Itoa(ln.Number+ln.Physical) + ` "` + fs.path + `"`)
	}
}

// parseIncludeTarget extracts the include file name from the directive
// tokens, handling both the quoted and the angled form.
func parseIncludeTarget(rest []Token) (target string, quoted, ok bool) {
	if len(rest) == 1 && rest[0].Kind == TokenString {
		text := rest[0].Text
		if len(text) >= 2 {
			return text[1 : len(text)-1], true, true
		}
		return "", false, false
	}

	// Angled form: every token between < and > contributes its text.
	if len(rest) >= 3 && rest[0].Kind == TokenPunct && rest[0].Text == "<" {
		last := rest[len(rest)-1]
		if last.Kind == TokenPunct && last.Text == ">" {
			var sb strings.Builder
			for _, tok := range rest[1 : len(rest)-1] {
				sb.WriteString(tok.Text)
			}
			return sb.String(), false, true
		}
	}
	return "", false, false
}

func (p *Preprocessor) directiveDefine(rest []Token, fs *fileState, name Token) {
	if len(rest) == 0 || rest[0].Kind != TokenIdent {
		p.errorAt(ErrMalformedDirective, fs, name, "#define expects a macro name")
		return
	}
	macroName := rest[0]
	rest = rest[1:]

	m := &Macro{Name: macroName.Text}

	// A '(' immediately after the name (no whitespace) opens a parameter
	// list; with whitespace it is part of the body.
	if len(rest) > 0 && rest[0].Kind == TokenPunct && rest[0].Text == "(" && !rest[0].HasSpace {
		m.IsFunc = true
		i := 1
		for {
			if i >= len(rest) {
				p.errorAt(ErrMalformedDirective, fs, name, "unterminated parameter list in #define %s", m.Name)
				return
			}
			tok := rest[i]
			if tok.Kind == TokenPunct && tok.Text == ")" {
				i++
				break
			}
			if tok.Kind == TokenIdent {
				m.Params = append(m.Params, tok.Text)
				i++
				if i < len(rest) && rest[i].Kind == TokenPunct && rest[i].Text == "," {
					i++
				}
				continue
			}
			p.errorAt(ErrMalformedDirective, fs, name, "bad parameter list in #define %s", m.Name)
			return
		}
		rest = rest[i:]
	}

	body := make([]Token, len(rest))
	copy(body, rest)
	if len(body) > 0 {
		body[0].HasSpace = false
	}
	m.Body = body

	if err := p.macros.Define(m); err != nil {
		err.File = fs.file
		err.Pos = Position{macroName.Line, macroName.Column}
		p.errs.Add(err)
	}
}

func (p *Preprocessor) directiveUndef(rest []Token, fs *fileState, name Token) {
	if len(rest) != 1 || rest[0].Kind != TokenIdent {
		p.errorAt(ErrMalformedDirective, fs, name, "#undef expects a single macro name")
		return
	}
	p.macros.Undef(rest[0].Text)
}

// directivePragma passes pragmas through untouched, except #pragma once
// which is consumed here.
func (p *Preprocessor) directivePragma(rest []Token, ln *Line, fs *fileState) {
	if len(rest) == 1 && rest[0].Kind == TokenIdent && rest[0].Text == "once" {
		p.once[fs.path] = true
		p.emitBlank(ln.Physical)
		return
	}
	p.emit(strings.TrimRight(ln.Indent, "\r") + renderTokens(stripComments(ln.Tokens)))
	p.emitBlank(ln.Physical - 1)
}

func (p *Preprocessor) directiveLine(rest []Token, ln *Line, fs *fileState, name Token) {
	if len(rest) == 0 || rest[0].Kind != TokenNumber {
		p.errorAt(ErrMalformedDirective, fs, name, "#line expects a line number")
		return
	}
	n, err := parseIntLiteral(rest[0].Text)
	if err != nil {
		p.errorAt(ErrMalformedDirective, fs, name, "bad line number %q", rest[0].Text)
		return
	}

	// The directive names the number of the NEXT line.
	fs.lineDelta = int(n) - (ln.Number + ln.Physical)

	if len(rest) >= 2 && rest[1].Kind == TokenString {
		text := rest[1].Text
		if len(text) >= 2 {
			fs.fileOverride = text[1 : len(text)-1]
		}
	}
}

func (p *Preprocessor) errorAt(kind ErrorKind, fs *fileState, tok Token, format string, args ...interface{}) {
	p.errs.Add(NewErrorAt(kind, fs.file, Position{tok.Line, tok.Column}, format, args...))
}
