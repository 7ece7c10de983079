package kernel

import "fmt"

// Mesh is an indexed triangle mesh suitable for rendering, assembled
// from all face triangulations of one shape. All arrays are flat:
// Vertices has 3 floats per vertex (x,y,z), Normals has 3 floats per
// vertex, Indices has 3 uint32s per triangle. FaceIDs carries the
// owning topological face index once per triangle, and Edges holds
// wireframe line segments as consecutive point pairs.
type Mesh struct {
	Vertices []float32 `json:"vertices"`  // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`   // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"triangles"` // [i0,i1,i2, ...] triangles
	FaceIDs  []uint32  `json:"face_ids"`  // one face index per triangle
	Edges    []float32 `json:"edges"`     // [ax,ay,az, bx,by,bz, ...] segment pairs
	NumFaces int       `json:"num_faces"` // topological face count of the shape
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// EdgeSegmentCount returns the number of wireframe line segments.
func (m *Mesh) EdgeSegmentCount() int {
	return len(m.Edges) / 6
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Validate checks the mesh's structural invariants: one normal per
// vertex, one face id per triangle, and every triangle index in range.
func (m *Mesh) Validate() error {
	if len(m.Vertices)%3 != 0 {
		return fmt.Errorf("mesh: vertex array length %d not a multiple of 3", len(m.Vertices))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("mesh: index array length %d not a multiple of 3", len(m.Indices))
	}
	if len(m.Normals) != len(m.Vertices) {
		return fmt.Errorf("mesh: %d normal components for %d vertex components", len(m.Normals), len(m.Vertices))
	}
	if len(m.FaceIDs) != m.TriangleCount() {
		return fmt.Errorf("mesh: %d face ids for %d triangles", len(m.FaceIDs), m.TriangleCount())
	}
	if len(m.Edges)%6 != 0 {
		return fmt.Errorf("mesh: edge array length %d not a multiple of 6", len(m.Edges))
	}
	nv := uint32(m.VertexCount())
	for i, idx := range m.Indices {
		if idx >= nv {
			return fmt.Errorf("mesh: index %d at position %d out of range (%d vertices)", idx, i, nv)
		}
	}
	return nil
}
