// Package hittest maps a pointer position on the portrait to the landmark
// group under it. The engine reports the face crop geometry on upload;
// regions are defined in face-local coordinates so hit testing survives
// tilted heads and off-center crops.
package hittest

import (
	"math"

	"github.com/kozaktomas/facepoke/internal/landmark"
	"github.com/kozaktomas/facepoke/internal/renderer"
)

// region is an axis-aligned box in face-local coordinates: (0,0) is the
// top-left corner of the face crop, (1,1) the bottom-right.
type region struct {
	x1, y1, x2, y2 float64
	group          landmark.Group
}

// regions lists the facial regions in priority order; the first hit wins.
// Left and right follow the image, not the subject, matching the engine's
// group vocabulary.
var regions = []region{
	{0.10, 0.18, 0.46, 0.36, landmark.LeftEyebrow},
	{0.54, 0.18, 0.90, 0.36, landmark.RightEyebrow},
	{0.12, 0.36, 0.46, 0.52, landmark.LeftEye},
	{0.54, 0.36, 0.88, 0.52, landmark.RightEye},
	{0.26, 0.62, 0.74, 0.90, landmark.Lips},
}

func (r region) contains(u, v float64) bool {
	return u >= r.x1 && u <= r.x2 && v >= r.y1 && v <= r.y2
}

// Locate returns the landmark group under the point (x, y), given in pixel
// coordinates of the uploaded portrait. Points outside the face crop map to
// the background; points on the face but outside any feature region map to
// the face oval.
func Locate(info *renderer.PhotoInfo, x, y float64) landmark.Group {
	u, v, ok := toFaceLocal(info, x, y)
	if !ok {
		return landmark.Background
	}
	for _, r := range regions {
		if r.contains(u, v) {
			return r.group
		}
	}
	return landmark.FaceOval
}

// toFaceLocal converts portrait pixel coordinates into the face crop's
// local (0..1, 0..1) space, undoing the head tilt the engine measured.
// ok is false when the point falls outside the crop.
func toFaceLocal(info *renderer.PhotoInfo, x, y float64) (u, v float64, ok bool) {
	if info == nil || info.Size <= 0 {
		return 0, 0, false
	}

	dx := x - info.Center[0]
	dy := y - info.Center[1]

	// Undo the tilt. Angle is counterclockwise, so rotate the point back
	// clockwise around the crop center.
	sin, cos := math.Sincos(-info.Angle)
	fx := cos*dx - sin*dy
	fy := sin*dx + cos*dy

	u = fx/info.Size + 0.5
	v = fy/info.Size + 0.5
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return 0, 0, false
	}
	return u, v, true
}
