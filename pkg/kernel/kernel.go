// Package kernel defines the abstract B-rep geometry kernel interface.
// Implementations wrap a CAD kernel that can load a STEP solid,
// enumerate its topology, classify its surfaces and triangulate it.
// The kernel abstraction allows swapping backends (an OCC-class CGo
// binding in production, an in-memory backend in tests) without
// changing the rest of the system.
package kernel

// SurfaceKind classifies the underlying surface of a face.
type SurfaceKind string

const (
	SurfacePlanar      SurfaceKind = "planar"
	SurfaceCylindrical SurfaceKind = "cylindrical"
	SurfaceConical     SurfaceKind = "conical"
	SurfaceSpherical   SurfaceKind = "spherical"
	SurfaceToroidal    SurfaceKind = "toroidal"
	SurfaceBSpline     SurfaceKind = "bspline"
	SurfaceBezier      SurfaceKind = "bezier"
	SurfaceRevolution  SurfaceKind = "revolution"
	SurfaceExtrusion   SurfaceKind = "extrusion"
	SurfaceOffset      SurfaceKind = "offset"
	SurfaceOther       SurfaceKind = "other"
)

// SurfaceInfo describes a face's surface classification plus the
// kind-specific parameters the metadata layer consumes.
type SurfaceInfo struct {
	Kind SurfaceKind

	// PlaneNormal is the plane axis direction. Planar only.
	PlaneNormal [3]float64

	// Cylinder parameters. Cylindrical only. FirstU/LastU are the
	// parametric angle bounds in radians.
	Radius        float64
	AxisDirection [3]float64
	AxisPoint     [3]float64
	FirstU, LastU float64
}

// Triangulation is one face's triangle approximation as produced by the
// kernel after Shape.Tessellate. Node positions are already transformed
// into global coordinates. Triangle entries index Nodes 1-based, which
// is the kernel convention; consumers rebase to 0.
type Triangulation struct {
	Nodes     [][3]float64
	Normals   [][3]float64 // per-node; nil when the kernel computed none
	Triangles [][3]int     // 1-based node indices
}

// Face is one topological face of a loaded shape.
type Face interface {
	// Surface classifies the face's underlying surface.
	Surface() (SurfaceInfo, error)

	// Properties returns the surface area and center of mass.
	Properties() (area float64, centroid [3]float64, err error)

	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)

	// Reversed reports whether the face's parametric normal points
	// opposite to its geometric outward normal.
	Reversed() bool

	// Triangulation returns the face's triangulation, or nil when the
	// kernel produced none (degenerate faces). Valid only after
	// Shape.Tessellate.
	Triangulation() *Triangulation
}

// Edge is one topological edge of a loaded shape.
type Edge interface {
	// Discretize approximates the edge curve by an ordered point
	// sequence within the given deflection tolerances.
	Discretize(angularDeflection, linearDeflection float64) ([][3]float64, error)
}

// Shape is an opaque handle to a loaded B-rep solid.
type Shape interface {
	// Faces enumerates the topological faces. The order is stable
	// across calls on the same Shape and matches the order in which
	// the faces appear in the source file.
	Faces() []Face

	// Edges enumerates the topological edges.
	Edges() []Edge

	// Tessellate triangulates the whole shape within the given
	// deflection tolerances. Per-face results are retrievable through
	// Face.Triangulation afterwards.
	Tessellate(linearDeflection, angularDeflection float64) error
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Load reads a B-rep solid from a STEP file.
	Load(path string) (Shape, error)
}
