// Package memkernel implements the kernel.Kernel interface entirely in
// memory. Shapes are registered under file paths ahead of time; Load
// hands back the registered shape instead of parsing geometry. It backs
// tests and the demo server. A production deployment registers an
// OCC-backed CGo kernel behind the same interface instead.
package memkernel

import (
	"fmt"

	"github.com/chazu/steplab/pkg/kernel"
)

// Compile-time interface checks.
var (
	_ kernel.Kernel = (*Kernel)(nil)
	_ kernel.Shape  = (*Shape)(nil)
	_ kernel.Face   = (*Face)(nil)
	_ kernel.Edge   = (*Edge)(nil)
)

// Kernel implements kernel.Kernel over a registry of in-memory shapes.
type Kernel struct {
	shapes   map[string]*Shape
	fallback *Shape
}

// New returns an empty in-memory kernel.
func New() *Kernel {
	return &Kernel{shapes: make(map[string]*Shape)}
}

// Register makes Load return s for the given path.
func (k *Kernel) Register(path string, s *Shape) {
	k.shapes[path] = s
}

// SetFallback makes Load return s for any unregistered path. Used by
// the demo server, where uploaded text is indexed for real but the
// geometry always comes from a fixture.
func (k *Kernel) SetFallback(s *Shape) {
	k.fallback = s
}

// Load returns the shape registered for path.
func (k *Kernel) Load(path string) (kernel.Shape, error) {
	if s, ok := k.shapes[path]; ok {
		return s, nil
	}
	if k.fallback != nil {
		return k.fallback, nil
	}
	return nil, fmt.Errorf("memkernel: no shape registered for %q", path)
}

// Shape is an in-memory B-rep solid.
type Shape struct {
	// TessellateErr, when set, makes Tessellate fail. Exercises the
	// fatal whole-shape meshing path in tests.
	TessellateErr error

	faces  []*Face
	edges  []*Edge
	meshed bool
}

// NewShape builds a shape from prepared faces and edges.
func NewShape(faces []*Face, edges []*Edge) *Shape {
	s := &Shape{faces: faces, edges: edges}
	for _, f := range faces {
		f.shape = s
	}
	return s
}

// Faces returns the faces in registration order.
func (s *Shape) Faces() []kernel.Face {
	out := make([]kernel.Face, len(s.faces))
	for i, f := range s.faces {
		out[i] = f
	}
	return out
}

// Edges returns the edges in registration order.
func (s *Shape) Edges() []kernel.Edge {
	out := make([]kernel.Edge, len(s.edges))
	for i, e := range s.edges {
		out[i] = e
	}
	return out
}

// Tessellate marks the prepared per-face triangulations as available.
// The deflection parameters are accepted for interface compatibility;
// the stored triangulations are fixed.
func (s *Shape) Tessellate(linearDeflection, angularDeflection float64) error {
	if s.TessellateErr != nil {
		return s.TessellateErr
	}
	s.meshed = true
	return nil
}

// Face is a prepared in-memory face. The exported fields configure the
// values its kernel.Face methods report.
type Face struct {
	Surf    kernel.SurfaceInfo
	SurfErr error // forced Surface failure

	FaceArea float64
	Center   [3]float64
	PropsErr error // forced Properties failure

	MinPt, MaxPt [3]float64
	IsReversed   bool

	// Tri is the face's triangulation, visible only after the owning
	// shape has been tessellated. nil models a degenerate face the
	// kernel skipped.
	Tri *kernel.Triangulation

	shape *Shape
}

// Surface returns the prepared classification.
func (f *Face) Surface() (kernel.SurfaceInfo, error) {
	if f.SurfErr != nil {
		return kernel.SurfaceInfo{}, f.SurfErr
	}
	return f.Surf, nil
}

// Properties returns the prepared area and centroid.
func (f *Face) Properties() (float64, [3]float64, error) {
	if f.PropsErr != nil {
		return 0, [3]float64{}, f.PropsErr
	}
	return f.FaceArea, f.Center, nil
}

// BoundingBox returns the prepared bounds.
func (f *Face) BoundingBox() (min, max [3]float64) {
	return f.MinPt, f.MaxPt
}

// Reversed reports the prepared orientation flag.
func (f *Face) Reversed() bool {
	return f.IsReversed
}

// Triangulation returns the prepared triangulation once the shape has
// been tessellated, nil before that and for degenerate faces.
func (f *Face) Triangulation() *kernel.Triangulation {
	if f.shape == nil || !f.shape.meshed {
		return nil
	}
	return f.Tri
}

// Edge is a prepared in-memory edge polyline.
type Edge struct {
	Points [][3]float64
	Err    error // forced Discretize failure
}

// Discretize returns the prepared polyline.
func (e *Edge) Discretize(angularDeflection, linearDeflection float64) ([][3]float64, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	return e.Points, nil
}
