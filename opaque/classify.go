// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package opaque

import (
	"strings"

	"github.com/gogpu/hlslpp/pp"
)

// Verdict is the classification result for a source text.
type Verdict uint8

const (
	// ContentHLSL is shader source the preprocessor should process.
	ContentHLSL Verdict = iota

	// ContentOpaque is native (C/C++) content the preprocessor must not
	// touch.
	ContentOpaque

	// ContentAmbiguous carries no signal either way; the driver treats
	// it as HLSL.
	ContentAmbiguous
)

// String returns a human-readable verdict name.
func (v Verdict) String() string {
	switch v {
	case ContentHLSL:
		return "hlsl"
	case ContentOpaque:
		return "opaque"
	case ContentAmbiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Signal records one piece of classification evidence.
type Signal struct {
	// Name identifies the construct, e.g. "typedef struct" or "cbuffer".
	Name string

	// Weight is the score contribution; positive values count toward the
	// native side for C signals and toward the shader side for HLSL
	// signals.
	Weight int

	// Native reports which side the signal supports.
	Native bool
}

// Report is the full classification outcome.
type Report struct {
	Verdict Verdict

	// NativeScore and ShaderScore are the accumulated weights per side.
	NativeScore int
	ShaderScore int

	// Signals lists the evidence, in source order.
	Signals []Signal
}

// DefaultThreshold is the native score required for an opaque verdict.
const DefaultThreshold = 3

// Classifier scores source text. The zero value uses DefaultThreshold.
type Classifier struct {
	// Threshold is the minimum native score for ContentOpaque.
	Threshold int
}

// NewClassifier returns a classifier with the default threshold.
func NewClassifier() *Classifier {
	return &Classifier{Threshold: DefaultThreshold}
}

// IsOpaque reports whether source is opaque content, using the default
// classifier.
func IsOpaque(source string) bool {
	return NewClassifier().IsOpaque(source)
}

// IsOpaque reports whether source classifies as ContentOpaque.
func (c *Classifier) IsOpaque(source string) bool {
	return c.Classify(source).Verdict == ContentOpaque
}

// Classify scores the source and renders a verdict. Comments and
// preprocessor directives are neutral: both languages share them.
func (c *Classifier) Classify(source string) Report {
	threshold := c.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	var rep Report
	toks := flatten(source)

	for i := 0; i < len(toks); i++ {
		tok := toks[i]

		switch tok.Kind {
		case pp.TokenIdent:
			c.scoreIdent(&rep, toks, i)
		case pp.TokenPunct:
			c.scorePunct(&rep, toks, i)
		}
	}

	switch {
	case rep.NativeScore == 0 && rep.ShaderScore == 0:
		rep.Verdict = ContentAmbiguous
	case rep.NativeScore >= threshold && rep.NativeScore > rep.ShaderScore:
		rep.Verdict = ContentOpaque
	default:
		rep.Verdict = ContentHLSL
	}
	return rep
}

// flatten tokenizes the whole source, dropping comments and directive
// lines.
func flatten(source string) []pp.Token {
	sc := pp.NewScanner(source)
	var toks []pp.Token
	for ln := sc.Next(); ln != nil; ln = sc.Next() {
		if ln.Directive {
			continue
		}
		for _, tok := range ln.Tokens {
			if tok.Kind == pp.TokenComment {
				continue
			}
			toks = append(toks, tok)
		}
	}
	return toks
}

func (c *Classifier) scoreIdent(rep *Report, toks []pp.Token, i int) {
	text := toks[i].Text

	if text == "typedef" {
		rep.add("typedef", weightTypedef, true)
		if j := i + 1; j < len(toks) && isRecordKeyword(toks[j].Text) {
			rep.add("typedef "+toks[j].Text, weightTypedefRecord, true)
			if k := j + 1; k < len(toks) && toks[k].Kind == pp.TokenIdent && strings.HasPrefix(toks[k].Text, "_") {
				rep.add("tag "+toks[k].Text, weightUnderscoreTag, true)
			}
		}
		return
	}

	if w, ok := cOnlyWords[text]; ok {
		rep.add(text, w, true)
		return
	}
	if w, ok := hlslWords[text]; ok {
		rep.add(text, w, false)
		return
	}

	// register(...) is an HLSL binding; bare register is the C storage
	// class.
	if text == "register" && i+1 < len(toks) && toks[i+1].Text == "(" {
		rep.add("register()", weightRegister, false)
	}
}

func (c *Classifier) scorePunct(rep *Report, toks []pp.Token, i int) {
	switch toks[i].Text {
	case "*":
		// A star between two identifiers is a pointer declarator far
		// more often than a multiplication in header-like content.
		if i > 0 && i+1 < len(toks) &&
			toks[i-1].Kind == pp.TokenIdent && toks[i+1].Kind == pp.TokenIdent {
			rep.add("pointer declarator", weightPointer, true)
		}
	case "->":
		rep.add("->", weightArrow, true)
	case "::":
		rep.add("::", weightScope, true)
	case ":":
		if i+1 < len(toks) && toks[i+1].Kind == pp.TokenIdent &&
			strings.HasPrefix(toks[i+1].Text, "SV_") {
			rep.add("semantic "+toks[i+1].Text, weightSemantic, false)
		}
	}
}

func (rep *Report) add(name string, weight int, native bool) {
	rep.Signals = append(rep.Signals, Signal{Name: name, Weight: weight, Native: native})
	if native {
		rep.NativeScore += weight
	} else {
		rep.ShaderScore += weight
	}
}

func isRecordKeyword(text string) bool {
	return text == "struct" || text == "union" || text == "enum"
}
