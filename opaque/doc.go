// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package opaque classifies shader-adjacent source as HLSL or as opaque
// native content.
//
// Shader sample trees commonly contain C/C++ helper headers next to the
// shaders themselves, shared with host code or kept for native tooling.
// Those files are not valid HLSL and the preprocessor must not expand or
// rewrite them. This package scores C-only constructs against HLSL-only
// constructs and renders a verdict.
//
// # Usage
//
//	report := opaque.NewClassifier().Classify(source)
//	if report.Verdict == opaque.ContentOpaque {
//	    // pass through untouched
//	}
//
// A convenience entry point with the default threshold:
//
//	if opaque.IsOpaque(source) { ... }
package opaque
