package memkernel

import (
	"math"

	"github.com/chazu/steplab/pkg/kernel"
)

// boreSegments controls the angular resolution of the bore fixture.
const boreSegments = 16

// quad builds a two-triangle triangulation for the rectangle
// p0-p1-p2-p3 (counter-clockwise around the outward normal).
func quad(p0, p1, p2, p3 [3]float64) *kernel.Triangulation {
	return &kernel.Triangulation{
		Nodes:     [][3]float64{p0, p1, p2, p3},
		Triangles: [][3]int{{1, 2, 3}, {1, 3, 4}},
	}
}

// Box builds a classified axis-aligned box with its minimum corner at
// the origin: six planar faces in -Z, +Z, -Y, +Y, -X, +X order and
// twelve straight edges. The +Z face carries kernel-supplied normals;
// the others leave normals to the assembler.
func Box(w, d, h float64) *Shape {
	var (
		p000 = [3]float64{0, 0, 0}
		p100 = [3]float64{w, 0, 0}
		p010 = [3]float64{0, d, 0}
		p110 = [3]float64{w, d, 0}
		p001 = [3]float64{0, 0, h}
		p101 = [3]float64{w, 0, h}
		p011 = [3]float64{0, d, h}
		p111 = [3]float64{w, d, h}
	)

	planar := func(normal [3]float64, area float64, center, min, max [3]float64, tri *kernel.Triangulation) *Face {
		return &Face{
			Surf:     kernel.SurfaceInfo{Kind: kernel.SurfacePlanar, PlaneNormal: normal},
			FaceArea: area,
			Center:   center,
			MinPt:    min,
			MaxPt:    max,
			Tri:      tri,
		}
	}

	bottom := planar([3]float64{0, 0, -1}, w*d,
		[3]float64{w / 2, d / 2, 0}, p000, [3]float64{w, d, 0},
		quad(p000, p010, p110, p100))
	top := planar([3]float64{0, 0, 1}, w*d,
		[3]float64{w / 2, d / 2, h}, p001, p111,
		quad(p001, p101, p111, p011))
	top.Tri.Normals = [][3]float64{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	front := planar([3]float64{0, -1, 0}, w*h,
		[3]float64{w / 2, 0, h / 2}, p000, [3]float64{w, 0, h},
		quad(p000, p100, p101, p001))
	back := planar([3]float64{0, 1, 0}, w*h,
		[3]float64{w / 2, d, h / 2}, p010, p111,
		quad(p110, p010, p011, p111))
	left := planar([3]float64{-1, 0, 0}, d*h,
		[3]float64{0, d / 2, h / 2}, p000, [3]float64{0, d, h},
		quad(p000, p001, p011, p010))
	right := planar([3]float64{1, 0, 0}, d*h,
		[3]float64{w, d / 2, h / 2}, p100, p111,
		quad(p100, p110, p111, p101))

	corners := [][3]float64{p000, p100, p110, p010, p001, p101, p111, p011}
	segments := [][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0}, // bottom ring
		{4, 5}, {5, 6}, {6, 7}, {7, 4}, // top ring
		{0, 4}, {1, 5}, {2, 6}, {3, 7}, // verticals
	}
	edges := make([]*Edge, 0, len(segments))
	for _, s := range segments {
		edges = append(edges, &Edge{Points: [][3]float64{corners[s[0]], corners[s[1]]}})
	}

	return NewShape([]*Face{bottom, top, front, back, left, right}, edges)
}

// BoxWithBore builds the Box fixture plus a full cylindrical bore of
// radius r through its center along Z. The bore face is reversed with
// kernel-supplied normals, exercising the flip path end to end. The
// planar faces keep their rectangular triangulations; the fixture does
// not cut the hole out of them.
func BoxWithBore(w, d, h, r float64) *Shape {
	box := Box(w, d, h)
	cx, cy := w/2, d/2

	n := boreSegments
	nodes := make([][3]float64, 0, 2*(n+1))
	normals := make([][3]float64, 0, 2*(n+1))
	var ringBottom, ringTop [][3]float64
	for i := 0; i <= n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		dx, dy := math.Cos(a), math.Sin(a)
		b := [3]float64{cx + r*dx, cy + r*dy, 0}
		t := [3]float64{cx + r*dx, cy + r*dy, h}
		nodes = append(nodes, b, t)
		out := [3]float64{dx, dy, 0}
		normals = append(normals, out, out)
		ringBottom = append(ringBottom, b)
		ringTop = append(ringTop, t)
	}
	tris := make([][3]int, 0, 2*n)
	for i := 0; i < n; i++ {
		b0, t0 := 2*i+1, 2*i+2
		b1, t1 := 2*i+3, 2*i+4
		tris = append(tris, [3]int{b0, b1, t0}, [3]int{t0, b1, t1})
	}

	bore := &Face{
		Surf: kernel.SurfaceInfo{
			Kind:          kernel.SurfaceCylindrical,
			Radius:        r,
			AxisDirection: [3]float64{0, 0, 1},
			AxisPoint:     [3]float64{cx, cy, 0},
			FirstU:        0,
			LastU:         2 * math.Pi,
		},
		FaceArea:   2 * math.Pi * r * h,
		Center:     [3]float64{cx, cy, h / 2},
		MinPt:      [3]float64{cx - r, cy - r, 0},
		MaxPt:      [3]float64{cx + r, cy + r, h},
		IsReversed: true,
		Tri: &kernel.Triangulation{
			Nodes:     nodes,
			Normals:   normals,
			Triangles: tris,
		},
	}

	faces := append(box.faces, bore)
	edges := append(box.edges,
		&Edge{Points: ringBottom},
		&Edge{Points: ringTop},
	)
	return NewShape(faces, edges)
}
