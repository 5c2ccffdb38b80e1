// Package pp provides HLSL source preprocessing.
//
// The preprocessor implements the directive phase of HLSL compilation as
// fxc and dxc perform it: line splicing, comment handling, macro
// definition and expansion, conditional compilation and include
// resolution. It does not parse HLSL proper; the output is source text
// for a downstream compiler.
//
// # Components
//
// The pp package consists of several components:
//
//   - Scanner: Tokenizes source one logical line at a time
//   - Table: Macro definitions and expansion (stringize, paste, hide sets)
//   - Evaluator: #if/#elif integer constant expressions
//   - Preprocessor: The driver tying directives, includes and output together
//
// # Usage
//
// To preprocess a shader:
//
//	opts := pp.DefaultOptions()
//	opts.Defines = map[string]string{"QUALITY": "2"}
//
//	proc := pp.New(opts)
//	out, err := proc.Preprocess(source)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Opaque Content
//
// Shader sample trees often carry native helper headers that are not
// HLSL at all. When Options.Classify reports such content, the
// preprocessor passes it through byte-for-byte (OpaquePassThrough),
// drops it (OpaqueOmit), or processes it anyway (OpaqueForce).
package pp
