// Package include resolves #include directives against search paths.
//
// Quoted includes ("file.hlsli") search the including file's directory
// first, then the configured search directories; angled includes
// (<file.hlsli>) search only the configured directories. Resolution also
// detects classic include guards so the preprocessor can skip files
// whose guard macro is already defined.
package include

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/hlslpp/pp"
)

// Resolver locates include files on disk.
type Resolver struct {
	// SearchDirs are the -I directories, in priority order.
	SearchDirs []string

	// BaseDir is the directory of the main source file, used for quoted
	// includes from sources that have no path of their own (stdin,
	// in-memory strings).
	BaseDir string

	// ReadFile allows tests to substitute the filesystem. Defaults to
	// os.ReadFile.
	ReadFile func(path string) ([]byte, error)
}

// NewResolver creates a resolver with the given base and search
// directories.
func NewResolver(baseDir string, searchDirs ...string) *Resolver {
	return &Resolver{
		BaseDir:    baseDir,
		SearchDirs: searchDirs,
	}
}

// NotFoundError reports a failed resolution with every path searched.
type NotFoundError struct {
	Name     string
	Searched []string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("include %q not found (searched %s)", e.Name, strings.Join(e.Searched, ", "))
}

// Resolve locates name and returns its content, ready for the
// preprocessor. The from argument is the path of the including file.
func (r *Resolver) Resolve(name string, quoted bool, from string) (*pp.IncludeFile, error) {
	readFile := r.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}

	var dirs []string
	if quoted {
		if fromDir := filepath.Dir(from); fromDir != "." && fromDir != "" && !strings.HasPrefix(from, "<") {
			dirs = append(dirs, fromDir)
		} else if r.BaseDir != "" {
			dirs = append(dirs, r.BaseDir)
		}
	}
	dirs = append(dirs, r.SearchDirs...)
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	var searched []string
	for _, dir := range dirs {
		path := filepath.Join(dir, filepath.FromSlash(name))
		searched = append(searched, path)

		data, err := readFile(path)
		if err != nil {
			continue
		}

		abs, absErr := filepath.Abs(path)
		if absErr != nil {
			abs = path
		}
		content := string(data)
		return &pp.IncludeFile{
			Path:    abs,
			Content: content,
			Guard:   DetectGuard(content),
		}, nil
	}

	return nil, &NotFoundError{Name: name, Searched: searched}
}

// DetectGuard returns the include-guard macro name when the whole file is
// wrapped in the classic
//
//	#ifndef NAME
//	#define NAME
//	...
//	#endif
//
// pattern, and "" otherwise.
func DetectGuard(content string) string {
	sc := pp.NewScanner(content)

	var lines []*pp.Line
	for ln := sc.Next(); ln != nil; ln = sc.Next() {
		if significant(ln) {
			lines = append(lines, ln)
		}
	}
	if len(lines) < 3 {
		return ""
	}

	guard := directiveOperand(lines[0], "ifndef")
	if guard == "" || directiveOperand(lines[1], "define") != guard {
		return ""
	}
	last := lines[len(lines)-1]
	if directiveName(last) != "endif" {
		return ""
	}

	// The opening #ifndef must span the whole file: nesting may not
	// return to zero before the final #endif.
	depth := 1
	for _, ln := range lines[1 : len(lines)-1] {
		switch directiveName(ln) {
		case "if", "ifdef", "ifndef":
			depth++
		case "endif":
			depth--
			if depth == 0 {
				return ""
			}
		}
	}
	if depth != 1 {
		return ""
	}
	return guard
}

// significant reports whether a line carries anything besides comments.
func significant(ln *pp.Line) bool {
	for _, tok := range ln.Tokens {
		if tok.Kind != pp.TokenComment {
			return true
		}
	}
	return false
}

// directiveName returns the directive name of a line, or "".
func directiveName(ln *pp.Line) string {
	if !ln.Directive || len(ln.Tokens) < 2 {
		return ""
	}
	if ln.Tokens[1].Kind != pp.TokenIdent {
		return ""
	}
	return ln.Tokens[1].Text
}

// directiveOperand returns the single identifier operand of the named
// directive, or "".
func directiveOperand(ln *pp.Line, name string) string {
	if directiveName(ln) != name {
		return ""
	}
	var operand string
	for _, tok := range ln.Tokens[2:] {
		if tok.Kind == pp.TokenComment {
			continue
		}
		if tok.Kind != pp.TokenIdent || operand != "" {
			return ""
		}
		operand = tok.Text
	}
	return operand
}
