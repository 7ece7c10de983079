// Package tessellate merges the per-face triangulations of a B-rep
// shape into one indexed triangle mesh with consistent winding,
// per-vertex normals and a per-triangle back-reference to the owning
// face, plus polyline approximations of the topological edges for
// wireframe rendering. The assembler is read-only over the shape apart
// from triggering the kernel's meshing pass.
package tessellate

import (
	"fmt"

	"github.com/chazu/steplab/pkg/kernel"
)

// Assemble tessellates the shape within the given deflection tolerances
// and merges every face triangulation into a single mesh. Faces without
// a triangulation contribute nothing. Edges that fail to discretize are
// skipped; a whole-shape meshing failure is fatal to the call.
func Assemble(shape kernel.Shape, linearDeflection, angularDeflection float64) (*kernel.Mesh, error) {
	if err := shape.Tessellate(linearDeflection, angularDeflection); err != nil {
		return nil, fmt.Errorf("tessellate: shape meshing failed: %w", err)
	}

	faces := shape.Faces()
	mesh := &kernel.Mesh{NumFaces: len(faces)}

	var offset uint32
	for faceID, face := range faces {
		tri := face.Triangulation()
		if tri == nil {
			continue
		}
		reversed := face.Reversed()

		for _, n := range tri.Nodes {
			mesh.Vertices = append(mesh.Vertices, float32(n[0]), float32(n[1]), float32(n[2]))
		}

		normals := tri.Normals
		if normals == nil {
			normals = VertexNormals(tri.Nodes, rebase(tri.Triangles))
		}
		for _, n := range normals {
			if reversed {
				mesh.Normals = append(mesh.Normals, float32(-n[0]), float32(-n[1]), float32(-n[2]))
			} else {
				mesh.Normals = append(mesh.Normals, float32(n[0]), float32(n[1]), float32(n[2]))
			}
		}

		for _, tr := range tri.Triangles {
			a := uint32(tr[0]-1) + offset
			b := uint32(tr[1]-1) + offset
			c := uint32(tr[2]-1) + offset
			// Swapping the second and third index under reversed
			// orientation keeps the winding consistent across faces.
			if reversed {
				mesh.Indices = append(mesh.Indices, a, c, b)
			} else {
				mesh.Indices = append(mesh.Indices, a, b, c)
			}
			mesh.FaceIDs = append(mesh.FaceIDs, uint32(faceID))
		}

		offset += uint32(len(tri.Nodes))
	}

	for _, edge := range shape.Edges() {
		pts, err := edge.Discretize(angularDeflection, linearDeflection)
		if err != nil || len(pts) < 2 {
			continue
		}
		for i := 0; i+1 < len(pts); i++ {
			p, q := pts[i], pts[i+1]
			mesh.Edges = append(mesh.Edges,
				float32(p[0]), float32(p[1]), float32(p[2]),
				float32(q[0]), float32(q[1]), float32(q[2]))
		}
	}

	return mesh, nil
}

// rebase converts the kernel's 1-based triangle node indices to 0-based.
func rebase(tris [][3]int) [][3]int {
	out := make([][3]int, len(tris))
	for i, t := range tris {
		out[i] = [3]int{t[0] - 1, t[1] - 1, t[2] - 1}
	}
	return out
}
