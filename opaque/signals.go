// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package opaque

// cOnlyWords are identifiers that appear in C/C++ declarations but are
// not part of HLSL. Weights reflect how strongly a word indicates native
// content: compiler extensions are near-certain, plain integer type
// spellings are weak.
var cOnlyWords = map[string]int{
	"unsigned":      2,
	"signed":        2,
	"size_t":        2,
	"wchar_t":       2,
	"char":          1,
	"short":         1,
	"long":          1,
	"extern":        2,
	"__declspec":    3,
	"__cdecl":       3,
	"__stdcall":     3,
	"__fastcall":    3,
	"__forceinline": 2,
	"int8_t":        2,
	"int16_t":       2,
	"int32_t":       2,
	"int64_t":       2,
	"uint8_t":       2,
	"uint16_t":      2,
	"uint32_t":      2,
	"uint64_t":      2,
	"nullptr":       2,
	"restrict":      2,
	"volatile":      1,
}

// hlslWords are identifiers specific to HLSL: resource and sampler
// types, storage qualifiers and attribute names. Derived from the HLSL
// reserved keyword list used by the code generator.
var hlslWords = map[string]int{
	"cbuffer":     3,
	"tbuffer":     3,
	"groupshared": 2,
	"packoffset":  3,
	"numthreads":  3,
	"precise":     2,

	"SamplerState":            3,
	"SamplerComparisonState":  3,
	"Texture1D":               3,
	"Texture1DArray":          3,
	"Texture2D":               3,
	"Texture2DArray":          3,
	"Texture2DMS":             3,
	"Texture3D":               3,
	"TextureCube":             3,
	"TextureCubeArray":        3,
	"RWTexture1D":             3,
	"RWTexture2D":             3,
	"RWTexture3D":             3,
	"Buffer":                  2,
	"RWBuffer":                3,
	"StructuredBuffer":        3,
	"RWStructuredBuffer":      3,
	"ByteAddressBuffer":       3,
	"RWByteAddressBuffer":     3,
	"AppendStructuredBuffer":  3,
	"ConsumeStructuredBuffer": 3,

	"float2": 2, "float3": 2, "float4": 2,
	"half2": 2, "half3": 2, "half4": 2,
	"int2": 2, "int3": 2, "int4": 2,
	"uint2": 2, "uint3": 2, "uint4": 2,
	"bool2": 2, "bool3": 2, "bool4": 2,
	"float2x2": 2, "float3x3": 2, "float4x4": 2,
	"float3x4": 2, "float4x3": 2,
	"min16float": 2, "min10float": 2,
	"dword": 2,
}

// weights for structural signals found by the classifier walk.
const (
	weightTypedef       = 2 // typedef keyword
	weightTypedefRecord = 2 // typedef struct/union/enum
	weightUnderscoreTag = 2 // struct tag with a leading underscore
	weightPointer       = 1 // pointer declarator between identifiers
	weightArrow         = 2 // -> member access
	weightScope         = 2 // :: scope resolution
	weightRegister      = 2 // register(...) binding
	weightSemantic      = 3 // : SV_* system-value semantic
)
