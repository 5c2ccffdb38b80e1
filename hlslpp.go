// Package hlslpp provides a Pure Go HLSL preprocessor.
//
// hlslpp runs the preprocessing phase of HLSL compilation the way fxc
// and dxc do: macro definition and expansion, conditional compilation,
// include resolution, and pragma handling. Shader sample trees often
// carry C/C++ helper headers next to the shaders; hlslpp detects that
// opaque content and passes it through byte-for-byte instead of
// rewriting it.
//
// Example usage:
//
//	source := `
//	#define SIZE 4
//	float data[SIZE];
//	`
//	out, err := hlslpp.Preprocess(source)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// For control over the target profile, include paths and defines, use
// PreprocessWithOptions:
//
//	opts := hlslpp.DefaultOptions()
//	opts.Target = profile.Target{Stage: profile.StageCompute, Model: profile.ShaderModel6_0}
//	opts.IncludeDirs = []string{"shaders/include"}
//	out, err := hlslpp.PreprocessWithOptions(source, opts)
//
// Lower-level access to the individual pieces lives in the pp (driver
// and macro engine), include (search-path resolution), opaque (content
// classification) and profile (target description) packages.
package hlslpp

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/hlslpp/include"
	"github.com/gogpu/hlslpp/opaque"
	"github.com/gogpu/hlslpp/pp"
	"github.com/gogpu/hlslpp/profile"
)

// Options configures preprocessing.
type Options struct {
	// Target selects the stage and shader model, which seed the
	// __SHADER_TARGET_* predefines.
	Target profile.Target

	// IncludeDirs are the -I search directories, in priority order.
	IncludeDirs []string

	// Defines seeds object-like macros, as -D does.
	Defines map[string]string

	// Opaque selects how non-HLSL content is handled.
	Opaque pp.OpaqueMode

	// KeepComments retains comments instead of replacing each with a
	// single space.
	KeepComments bool

	// LineMarkers emits #line directives around included content.
	LineMarkers bool

	// MaxDepth bounds include nesting (default 64).
	MaxDepth int
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		Target: profile.Target{
			Stage: profile.StageVertex,
			Model: profile.ShaderModel5_1,
		},
		Opaque: pp.OpaquePassThrough,
	}
}

// Preprocess runs the preprocessor over source using default options.
//
// This is the simplest entry point. For include paths, defines or a
// different target, use PreprocessWithOptions.
func Preprocess(source string) (string, error) {
	return PreprocessWithOptions(source, DefaultOptions())
}

// PreprocessWithOptions runs the preprocessor over in-memory source.
//
// The pipeline is:
//  1. Classify the source; opaque content short-circuits untouched
//  2. Seed target predefines and -D macros
//  3. Expand macros and evaluate directives line by line
//  4. Resolve #include against the configured search directories
func PreprocessWithOptions(source string, opts Options) (string, error) {
	return run(source, "<source>", "", opts)
}

// PreprocessFile reads and preprocesses the file at path. Quoted
// includes are resolved relative to the file's directory first.
func PreprocessFile(path string, opts Options) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return run(string(data), path, filepath.Dir(path), opts)
}

// Scan tokenizes source into logical lines without preprocessing it.
//
// This is the first stage of the pipeline, exposed for tools that need
// token-level access (formatters, analyzers).
func Scan(source string) []*pp.Line {
	sc := pp.NewScanner(source)
	var lines []*pp.Line
	for ln := sc.Next(); ln != nil; ln = sc.Next() {
		lines = append(lines, ln)
	}
	return lines
}

// Classify reports the content classification for source: HLSL, opaque
// native content, or ambiguous.
func Classify(source string) opaque.Report {
	return opaque.NewClassifier().Classify(source)
}

func run(source, filename, baseDir string, opts Options) (string, error) {
	defines := opts.Target.Predefines()
	for name, value := range opts.Defines {
		defines[name] = value
	}

	resolver := include.NewResolver(baseDir, opts.IncludeDirs...)

	proc := pp.New(pp.Options{
		Filename:     filename,
		Defines:      defines,
		Include:      resolver.Resolve,
		Classify:     opaque.IsOpaque,
		Opaque:       opts.Opaque,
		KeepComments: opts.KeepComments,
		LineMarkers:  opts.LineMarkers,
		MaxDepth:     opts.MaxDepth,
	})
	return proc.Preprocess(source)
}
