// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package profile

import "strconv"

// Target is a complete compilation target: a pipeline stage at a shader
// model version.
type Target struct {
	Stage Stage
	Model ShaderModel
}

// Profile returns the target profile string, e.g. "cs_6_0".
func (t Target) Profile() string {
	return t.Stage.Profile(t.Model)
}

// stageCode returns the DXC numeric code for a stage, used by the
// __SHADER_TARGET_STAGE predefine.
func stageCode(st Stage) int {
	switch st {
	case StagePixel:
		return 0
	case StageVertex:
		return 1
	case StageGeometry:
		return 2
	case StageHull:
		return 3
	case StageDomain:
		return 4
	case StageCompute:
		return 5
	case StageLibrary:
		return 6
	case StageMesh:
		return 13
	case StageAmplification:
		return 14
	default:
		return 1
	}
}

// Predefines returns the macros a compiler front end seeds for this
// target, matching the DXC spellings.
func (t Target) Predefines() map[string]string {
	defs := map[string]string{
		"__SHADER_TARGET_MAJOR": strconv.Itoa(int(t.Model.Major())),
		"__SHADER_TARGET_MINOR": strconv.Itoa(int(t.Model.Minor())),
		"__SHADER_TARGET_STAGE": strconv.Itoa(stageCode(t.Stage)),
	}
	if t.Model.SupportsDXIL() {
		defs["__HLSL_VERSION"] = "2021"
	} else {
		defs["__HLSL_VERSION"] = "2016"
	}
	return defs
}
