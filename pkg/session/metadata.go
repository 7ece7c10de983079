package session

import (
	"math"

	"github.com/chazu/steplab/pkg/kernel"
	"github.com/chazu/steplab/pkg/stepfile"
)

// FaceRecord is the descriptive metadata for one face. JSON field names
// match the labeler API payloads. Nullable fields distinguish "absent"
// from a genuine zero value: Normal is set for planar faces only, the
// cylinder fields for cylindrical faces only, StepName only when the
// file carried a real name. Name and Feature start null and are filled
// by an explicit assignment, never by extraction.
type FaceRecord struct {
	ID            int                `json:"id"`
	SurfaceType   kernel.SurfaceKind `json:"surface_type"`
	Area          float64            `json:"area"`
	Centroid      [3]float64         `json:"centroid"`
	Normal        *[3]float64        `json:"normal"`
	Bounds        [6]float64         `json:"bounds"`
	Radius        *float64           `json:"radius"`
	AxisDirection *[3]float64        `json:"axis_direction"`
	AxisPoint     *[3]float64        `json:"axis_point"`
	ArcAngle      *float64           `json:"arc_angle"`
	StepName      *string            `json:"step_name"`
	Name          *string            `json:"name"`
	Feature       *string            `json:"feature"`
}

// round4 rounds to 4 decimal places, the display precision used for
// all metric fields. Applied consistently so repeated extraction on an
// unchanged shape is byte-for-byte deterministic.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// round1 rounds to 1 decimal place, used for the arc angle.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func roundVec4(v [3]float64) [3]float64 {
	return [3]float64{round4(v[0]), round4(v[1]), round4(v[2])}
}

// extractRecord builds the metadata record for one face, pairing it
// positionally with the entity list. Per-face kernel failures degrade
// the affected fields instead of dropping the record: records must stay
// index-aligned with the kernel's face enumeration.
func extractRecord(face kernel.Face, faceID int, entities []stepfile.Entity) FaceRecord {
	rec := FaceRecord{ID: faceID, SurfaceType: kernel.SurfaceOther}

	surf, surfErr := face.Surface()
	if surfErr == nil {
		rec.SurfaceType = surf.Kind
	}

	if area, centroid, err := face.Properties(); err == nil {
		rec.Area = round4(area)
		rec.Centroid = roundVec4(centroid)
	}

	min, max := face.BoundingBox()
	rec.Bounds = [6]float64{
		round4(min[0]), round4(min[1]), round4(min[2]),
		round4(max[0]), round4(max[1]), round4(max[2]),
	}

	if surfErr == nil {
		switch surf.Kind {
		case kernel.SurfacePlanar:
			n := surf.PlaneNormal
			if face.Reversed() {
				n = [3]float64{-n[0], -n[1], -n[2]}
			}
			n = roundVec4(n)
			rec.Normal = &n

		case kernel.SurfaceCylindrical:
			radius := round4(surf.Radius)
			dir := roundVec4(surf.AxisDirection)
			pt := roundVec4(surf.AxisPoint)
			arc := round1((surf.LastU - surf.FirstU) * 180 / math.Pi)
			rec.Radius = &radius
			rec.AxisDirection = &dir
			rec.AxisPoint = &pt
			rec.ArcAngle = &arc
		}
	}

	if faceID < len(entities) {
		if name, ok := entities[faceID].Named(); ok {
			rec.StepName = &name
		}
	}

	return rec
}
