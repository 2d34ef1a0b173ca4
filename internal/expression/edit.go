// Package expression implements the expression-edit composition layer: it
// normalizes raw interactions into canonical edits and folds ordered edit
// streams into a per-session expression state.
package expression

import (
	"fmt"
	"math"

	"github.com/kozaktomas/facepoke/internal/landmark"
)

// Vector is a normalized displacement. Components are typically in [-1, 1]
// but presets may exceed that range for strong effects; the engine is the
// authority on clamping. The z component only carries rotational/depth
// hints (background), it never contributes to the planar magnitude.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Params is a partial map of semantic controls for the rendering engine.
type Params map[landmark.Param]float64

// Clone returns an independent copy.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Edit is one atomic, validated modification request targeting a single
// landmark group. Distance is derived from the vector at normalization and
// is never supplied by callers.
type Edit struct {
	Group    landmark.Group `json:"group"`
	Vector   Vector         `json:"vector"`
	Distance float64        `json:"distance"`
	Params   Params         `json:"params,omitempty"`
	Mode     Mode           `json:"mode"`
}

// Normalize converts a raw interaction into a canonical Edit.
//
// The group must exist in the landmark catalog and the vector components
// must be finite. Params the group does not accept are dropped without
// failing the edit, because presets routinely declare parameters across
// heterogeneous groups. Out-of-range values pass through untouched.
func Normalize(group landmark.Group, vector Vector, params Params, mode Mode) (Edit, error) {
	if !landmark.Known(group) {
		return Edit{}, fmt.Errorf("%w: %q", landmark.ErrUnknownGroup, group)
	}
	if err := checkFinite(vector); err != nil {
		return Edit{}, err
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return Edit{}, err
	}
	if mode == "" {
		mode = ModePrimary
	}

	var accepted Params
	for name, value := range params {
		if !landmark.Accepts(group, name) {
			continue
		}
		if accepted == nil {
			accepted = make(Params)
		}
		accepted[name] = value
	}

	return Edit{
		Group:    group,
		Vector:   vector,
		Distance: distance(vector),
		Params:   accepted,
		Mode:     mode,
	}, nil
}

// distance is the planar displacement magnitude. z is excluded by design;
// it does not describe on-screen travel.
func distance(v Vector) float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

func checkFinite(v Vector) error {
	for _, c := range [...]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("vector component is not finite: %v", c)
		}
	}
	return nil
}

// Derivation scales follow the engine's slider ranges: rotations ±30,
// eyebrow/eyes ±20, pupils ±10, aaa up to 100 on a [-1, 1] drag.
const (
	rotateScale  = 30.0
	eyebrowScale = 20.0
	pupilScale   = 10.0
	aaaScale     = 60.0
	eeeScale     = 30.0
)

// SplitParams distributes a flat param map into per-group param maps, one
// group per param. Each param goes to the first catalog group that accepts
// it, so applying the resulting edits accumulates back to the input.
func SplitParams(p Params) map[landmark.Group]Params {
	out := make(map[landmark.Group]Params)
	for name, value := range p {
		for _, g := range landmark.Groups() {
			if !landmark.Accepts(g, name) {
				continue
			}
			if out[g] == nil {
				out[g] = make(Params)
			}
			out[g][name] = value
			break
		}
	}
	return out
}

// DeriveParams maps a bare pointer drag to the semantic params the dragged
// region controls. Used when an interactive edit carries no explicit
// params; preset edits always declare theirs. Zero contributions are
// omitted so a zero drag derives an empty param set.
func DeriveParams(group landmark.Group, v Vector) Params {
	var p Params
	switch group {
	case landmark.Background:
		p = Params{
			landmark.ParamRotateYaw:   -rotateScale * v.X,
			landmark.ParamRotatePitch: rotateScale * v.Y,
			landmark.ParamRotateRoll:  rotateScale * v.Z,
		}
	case landmark.FaceOval:
		p = Params{landmark.ParamRotateRoll: -rotateScale * v.X}
	case landmark.LeftEyebrow, landmark.RightEyebrow:
		p = Params{landmark.ParamEyebrow: -eyebrowScale * v.Y}
	case landmark.LeftEye, landmark.RightEye:
		p = Params{
			landmark.ParamPupilX: pupilScale * v.X,
			landmark.ParamPupilY: pupilScale * v.Y,
		}
	case landmark.Lips:
		p = Params{
			landmark.ParamAAA: aaaScale * v.Y,
			landmark.ParamEEE: eeeScale * v.X,
		}
	default:
		return nil
	}

	for name, value := range p {
		if value == 0 {
			delete(p, name)
		}
	}
	if len(p) == 0 {
		return nil
	}
	return p
}
