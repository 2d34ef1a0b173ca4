// Package landmark holds the static catalog of facial regions the editor
// understands and the semantic parameters each region accepts. The catalog
// is process-wide, read-only data; every incoming edit is validated against
// it before it reaches the composition engine.
package landmark

import (
	"errors"
	"fmt"
)

// Group names a facial region that accepts a displacement and optional
// intensity parameters. The vocabulary is shared with the rendering engine
// and must stay in sync with it.
type Group string

const (
	Background   Group = "background"
	LeftEyebrow  Group = "leftEyebrow"
	RightEyebrow Group = "rightEyebrow"
	LeftEye      Group = "leftEye"
	RightEye     Group = "rightEye"
	Lips         Group = "lips"
	FaceOval     Group = "faceOval"
)

// Param names a semantic control understood by the rendering engine.
type Param string

const (
	ParamAAA         Param = "aaa"
	ParamEEE         Param = "eee"
	ParamEyebrow     Param = "eyebrow"
	ParamEyes        Param = "eyes"
	ParamPupilX      Param = "pupil_x"
	ParamPupilY      Param = "pupil_y"
	ParamRotatePitch Param = "rotate_pitch"
	ParamRotateRoll  Param = "rotate_roll"
	ParamRotateYaw   Param = "rotate_yaw"
)

// ErrUnknownGroup is returned when a caller references a region that is not
// in the catalog.
var ErrUnknownGroup = errors.New("unknown landmark group")

// AllParams lists every semantic parameter in canonical order. The order is
// load-bearing: the preset index and the history store serialize accumulated
// expressions as a vector in this order.
var AllParams = []Param{
	ParamAAA,
	ParamEEE,
	ParamEyebrow,
	ParamEyes,
	ParamPupilX,
	ParamPupilY,
	ParamRotatePitch,
	ParamRotateRoll,
	ParamRotateYaw,
}

// catalog maps each group to the parameters that are meaningful for it.
// Head rotation rides on the background region (dragging outside the face
// turns the head); faceOval only tilts.
var catalog = map[Group][]Param{
	Background:   {ParamRotatePitch, ParamRotateYaw, ParamRotateRoll},
	FaceOval:     {ParamRotateRoll},
	LeftEyebrow:  {ParamEyebrow},
	RightEyebrow: {ParamEyebrow},
	LeftEye:      {ParamEyes, ParamPupilX, ParamPupilY},
	RightEye:     {ParamEyes, ParamPupilX, ParamPupilY},
	Lips:         {ParamAAA, ParamEEE},
}

// groupOrder keeps listings stable for the API and CLI.
var groupOrder = []Group{
	Background,
	LeftEyebrow,
	RightEyebrow,
	LeftEye,
	RightEye,
	Lips,
	FaceOval,
}

// Groups returns all known landmark groups in a stable order.
func Groups() []Group {
	out := make([]Group, len(groupOrder))
	copy(out, groupOrder)
	return out
}

// Known reports whether the group exists in the catalog.
func Known(g Group) bool {
	_, ok := catalog[g]
	return ok
}

// ParamsAccepted returns the semantic parameters meaningful for the group.
func ParamsAccepted(g Group) ([]Param, error) {
	params, ok := catalog[g]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, g)
	}
	out := make([]Param, len(params))
	copy(out, params)
	return out, nil
}

// Accepts reports whether the group accepts the given parameter.
func Accepts(g Group, p Param) bool {
	for _, accepted := range catalog[g] {
		if accepted == p {
			return true
		}
	}
	return false
}

// KnownParam reports whether the parameter name is part of the vocabulary.
func KnownParam(p Param) bool {
	for _, known := range AllParams {
		if known == p {
			return true
		}
	}
	return false
}
