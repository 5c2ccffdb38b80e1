package pp

import (
	"strconv"
	"strings"
)

// OpaqueMode selects how non-HLSL (opaque) content is handled.
type OpaqueMode uint8

const (
	// OpaquePassThrough emits opaque content byte-for-byte, with no
	// directive processing and no macro expansion.
	OpaquePassThrough OpaqueMode = iota

	// OpaqueOmit drops opaque content from the output entirely.
	OpaqueOmit

	// OpaqueForce preprocesses opaque content like any other input.
	OpaqueForce
)

// String returns the mode name as used on the command line.
func (m OpaqueMode) String() string {
	switch m {
	case OpaquePassThrough:
		return "pass"
	case OpaqueOmit:
		return "omit"
	case OpaqueForce:
		return "force"
	default:
		return "unknown"
	}
}

// IncludeFile is a resolved #include target.
type IncludeFile struct {
	// Path identifies the file for cycle detection and #pragma once.
	Path string

	// Content is the file's source text.
	Content string

	// Guard names the classic include-guard macro wrapping the whole
	// file, if one was detected. A guarded file whose guard macro is
	// already defined is not re-read.
	Guard string
}

// Options configures a Preprocessor.
type Options struct {
	// Filename names the main source for diagnostics and __FILE__.
	Filename string

	// Defines seeds object-like macros, as -D does.
	Defines map[string]string

	// Include resolves #include directives. When nil, any #include is an
	// error.
	Include func(name string, quoted bool, from string) (*IncludeFile, error)

	// Classify reports whether a source text is opaque (non-HLSL)
	// content. When nil, nothing is treated as opaque.
	Classify func(source string) bool

	// Opaque selects opaque content handling.
	Opaque OpaqueMode

	// KeepComments retains comments in the output. The default replaces
	// each comment with a single space, as fxc does.
	KeepComments bool

	// LineMarkers emits #line directives around included content.
	LineMarkers bool

	// MaxDepth bounds include nesting (default 64).
	MaxDepth int
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		Filename: "<source>",
		Opaque:   OpaquePassThrough,
		MaxDepth: 64,
	}
}

// Preprocessor runs the preprocessing phase over HLSL source.
type Preprocessor struct {
	opts   Options
	macros *Table

	lines    []string
	errs     ErrorList
	seedErrs ErrorList
	once     map[string]bool
	active   map[string]bool
	stack    []string
}

// New creates a Preprocessor with the given options, seeding predefines
// and the dynamic __FILE__/__LINE__ macros.
func New(opts Options) *Preprocessor {
	if opts.Filename == "" {
		opts.Filename = "<source>"
	}
	if opts.MaxDepth == 0 {
		opts.MaxDepth = 64
	}

	p := &Preprocessor{
		opts:   opts,
		macros: NewTable(),
		once:   make(map[string]bool),
		active: make(map[string]bool),
	}

	for name, value := range opts.Defines {
		if err := p.macros.DefineObject(name, value); err != nil {
			p.seedErrs.Add(err)
		}
	}

	p.macros.Define(&Macro{
		Name: "__FILE__",
		Builtin: func(ctx *ExpandContext) []Token {
			return []Token{{Kind: TokenString, Text: `"` + ctx.File + `"`}}
		},
	})
	p.macros.Define(&Macro{
		Name: "__LINE__",
		Builtin: func(ctx *ExpandContext) []Token {
			return []Token{{Kind: TokenNumber, Text: strconv.Itoa(ctx.Line)}}
		},
	})

	return p
}

// Macros exposes the macro table, so callers can predefine or inspect
// macros between runs.
func (p *Preprocessor) Macros() *Table {
	return p.macros
}

// Preprocess runs the preprocessor over source and returns the output.
// On error the partial output is still returned alongside the full
// ErrorList.
func (p *Preprocessor) Preprocess(source string) (string, error) {
	p.lines = p.lines[:0]
	p.errs = append(ErrorList(nil), p.seedErrs...)
	p.once = make(map[string]bool)
	p.active = make(map[string]bool)

	// Opaque main input short-circuits everything: the contract for
	// pass-through is byte identity.
	if p.opts.Opaque != OpaqueForce && p.opts.Classify != nil && p.opts.Classify(source) {
		out := source
		if p.opts.Opaque == OpaqueOmit {
			out = ""
		}
		if p.errs.HasErrors() {
			return out, p.errs
		}
		return out, nil
	}

	p.processSource(source, p.opts.Filename, p.opts.Filename, 0)

	out := strings.Join(p.lines, "\n")
	if strings.HasSuffix(source, "\n") && out != "" {
		out += "\n"
	}
	if p.errs.HasErrors() {
		return out, p.errs
	}
	return out, nil
}

// Errors returns the errors accumulated by the last run.
func (p *Preprocessor) Errors() ErrorList {
	return p.errs
}

// fileState is the per-file preprocessing state. Conditionals cannot span
// file boundaries, so each included file gets its own stack.
type fileState struct {
	file  string // display name for diagnostics and __FILE__
	path  string // resolver path for cycle and once tracking
	conds []condState
	depth int

	// #line adjustments
	lineDelta    int
	fileOverride string
}

// skipping reports whether the current conditional context suppresses
// output.
func (fs *fileState) skipping() bool {
	for i := range fs.conds {
		if !fs.conds[i].active {
			return true
		}
	}
	return false
}

func (p *Preprocessor) processSource(source, file, path string, depth int) {
	if depth > p.opts.MaxDepth {
		p.errs.Add(NewError(ErrTooDeep, "include depth limit exceeded at "+file))
		return
	}

	// Opaque included files pass through or vanish as a unit.
	if depth > 0 && p.opts.Opaque != OpaqueForce && p.opts.Classify != nil && p.opts.Classify(source) {
		if p.opts.Opaque == OpaquePassThrough {
			p.emitVerbatim(source)
		}
		return
	}

	fs := &fileState{file: file, path: path, depth: depth}
	sc := NewScanner(source)
	ctx := &ExpandContext{File: file}

	p.stack = append(p.stack, file)
	defer func() { p.stack = p.stack[:len(p.stack)-1] }()

	// pending holds a line pulled ahead by getMore but refused; it is
	// processed on the next loop iteration instead.
	var pending *Line
	nextLine := func() *Line {
		if pending != nil {
			ln := pending
			pending = nil
			return ln
		}
		return sc.Next()
	}

	for ln := nextLine(); ln != nil; ln = nextLine() {
		ctx.Line = ln.Number + fs.lineDelta
		if fs.fileOverride != "" {
			ctx.File = fs.fileOverride
		} else {
			ctx.File = file
		}

		if ln.Directive {
			p.directive(ln, sc, fs, ctx)
			continue
		}

		if fs.skipping() {
			p.emitBlank(ln.Physical)
			continue
		}

		if len(ln.Tokens) == 0 {
			p.emit(strings.TrimRight(ln.Indent, "\r"))
			continue
		}

		toks := ln.Tokens
		if !p.opts.KeepComments {
			toks = stripComments(toks)
		}

		// An open argument list may continue onto following lines;
		// consumed continuation lines become blanks to keep numbering.
		// Directive and token-less lines end the list instead.
		extra := 0
		getMore := func() []Token {
			next := nextLine()
			if next == nil {
				return nil
			}
			if next.Directive || len(next.Tokens) == 0 {
				pending = next
				return nil
			}
			more := next.Tokens
			if !p.opts.KeepComments {
				more = stripComments(more)
				if len(more) == 0 {
					pending = next
					return nil
				}
			}
			extra += next.Physical
			return more
		}

		expanded, err := p.macros.ExpandLine(toks, getMore, ctx)
		if err != nil {
			err.File = ctx.File
			p.errs.Add(err)
			expanded = toks
		}

		// Retained block comments can span physical lines; the embedded
		// newlines already account for part of ln.Physical.
		text := strings.TrimRight(ln.Indent, "\r") + renderTokens(expanded)
		p.emit(text)
		p.emitBlank(ln.Physical - 1 - strings.Count(text, "\n") + extra)
	}

	for i := len(fs.conds) - 1; i >= 0; i-- {
		p.errs.Add(NewErrorAt(ErrUnterminatedConditional, file, fs.conds[i].pos,
			"unterminated #if at end of file"))
	}
}

// emit appends output. Text with embedded newlines (retained block
// comments) contributes one entry per visual line.
func (p *Preprocessor) emit(line string) {
	p.lines = append(p.lines, strings.Split(line, "\n")...)
}

// emitBlank appends n empty output lines, preserving physical line
// structure for skipped or consumed input.
func (p *Preprocessor) emitBlank(n int) {
	for i := 0; i < n; i++ {
		p.lines = append(p.lines, "")
	}
}

// emitVerbatim appends raw content without reformatting. A trailing
// newline is dropped because the output joiner re-adds separators.
func (p *Preprocessor) emitVerbatim(content string) {
	content = strings.TrimSuffix(content, "\n")
	p.lines = append(p.lines, strings.Split(content, "\n")...)
}

// renderTokens reconstructs source text from tokens: one space wherever
// the original had any whitespace, nothing elsewhere.
func renderTokens(toks []Token) string {
	var sb strings.Builder
	for i, tok := range toks {
		if i > 0 && tok.HasSpace {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok.Text)
	}
	return sb.String()
}
