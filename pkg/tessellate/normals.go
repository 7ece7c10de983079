package tessellate

import "math"

// VertexNormals computes unit per-vertex normals for a triangulation by
// accumulating each triangle's geometric normal (the cross product of
// its two edge vectors) into its three vertices and normalizing the
// sums. A zero-length accumulation, which degenerate geometry can
// produce, falls back to +Z rather than leaving an undefined value.
// Triangle indices are 0-based. The function depends on no kernel type.
func VertexNormals(verts [][3]float64, tris [][3]int) [][3]float64 {
	acc := make([][3]float64, len(verts))

	for _, t := range tris {
		v0, v1, v2 := verts[t[0]], verts[t[1]], verts[t[2]]
		e1 := [3]float64{v1[0] - v0[0], v1[1] - v0[1], v1[2] - v0[2]}
		e2 := [3]float64{v2[0] - v0[0], v2[1] - v0[1], v2[2] - v0[2]}
		n := [3]float64{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}
		for _, idx := range t {
			acc[idx][0] += n[0]
			acc[idx][1] += n[1]
			acc[idx][2] += n[2]
		}
	}

	for i, n := range acc {
		length := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
		if length > 0 {
			acc[i] = [3]float64{n[0] / length, n[1] / length, n[2] / length}
		} else {
			acc[i] = [3]float64{0, 0, 1}
		}
	}
	return acc
}
