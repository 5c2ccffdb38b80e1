// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package profile

import "fmt"

// Stage identifies a shader pipeline stage.
type Stage uint8

// Pipeline stages, in pipeline order.
const (
	StageVertex Stage = iota
	StageHull
	StageDomain
	StageGeometry
	StagePixel
	StageCompute
	StageAmplification
	StageMesh
	StageLibrary
)

// ParseStage parses a stage name or profile prefix ("vertex", "vs").
func ParseStage(s string) (Stage, error) {
	switch s {
	case "vertex", "vs":
		return StageVertex, nil
	case "hull", "hs":
		return StageHull, nil
	case "domain", "ds":
		return StageDomain, nil
	case "geometry", "gs":
		return StageGeometry, nil
	case "pixel", "fragment", "ps":
		return StagePixel, nil
	case "compute", "cs":
		return StageCompute, nil
	case "amplification", "as":
		return StageAmplification, nil
	case "mesh", "ms":
		return StageMesh, nil
	case "library", "lib":
		return StageLibrary, nil
	default:
		return StageVertex, fmt.Errorf("unknown shader stage %q", s)
	}
}

// String returns the stage name, e.g. "vertex".
func (st Stage) String() string {
	switch st {
	case StageVertex:
		return "vertex"
	case StageHull:
		return "hull"
	case StageDomain:
		return "domain"
	case StageGeometry:
		return "geometry"
	case StagePixel:
		return "pixel"
	case StageCompute:
		return "compute"
	case StageAmplification:
		return "amplification"
	case StageMesh:
		return "mesh"
	case StageLibrary:
		return "library"
	default:
		return "unknown"
	}
}

// Prefix returns the profile prefix, e.g. "vs" for the vertex stage.
func (st Stage) Prefix() string {
	switch st {
	case StageVertex:
		return "vs"
	case StageHull:
		return "hs"
	case StageDomain:
		return "ds"
	case StageGeometry:
		return "gs"
	case StagePixel:
		return "ps"
	case StageCompute:
		return "cs"
	case StageAmplification:
		return "as"
	case StageMesh:
		return "ms"
	case StageLibrary:
		return "lib"
	default:
		return "vs"
	}
}

// Profile returns the full target profile string, e.g. "ps_6_0".
func (st Stage) Profile(sm ShaderModel) string {
	return st.Prefix() + "_" + sm.ProfileSuffix()
}
