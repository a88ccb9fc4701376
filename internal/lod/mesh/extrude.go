package mesh

import (
	"fmt"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r3"
)

// AddFlat adds poly at height z as an upward-facing cap: a single face
// when poly has no holes, its triangulation otherwise.
func AddFlat(g FaceGraph, poly orb.Polygon, z float64) error {
	pts, rings := flatten(poly)
	if len(rings) == 0 {
		return nil
	}
	ids := addLayer(g, pts, z)
	return addCap(g, poly, rings, ids)
}

// AddPrism adds poly extruded from z=0 to height: one outward-facing quad
// per ring edge and a flat roof. There is no floor face.
func AddPrism(g FaceGraph, poly orb.Polygon, height float64) error {
	pts, rings := flatten(poly)
	if len(rings) == 0 {
		return nil
	}
	bottom := addLayer(g, pts, 0)
	top := addLayer(g, pts, height)
	for ri, ring := range rings {
		n := len(ring)
		for i := 0; i < n; i++ {
			a, b := ring[i], ring[(i+1)%n]
			if err := g.AddFace([]int{bottom[a], bottom[b], top[b], top[a]}); err != nil {
				return fmt.Errorf("add wall %d of ring %d: %w", i, ri, err)
			}
		}
	}
	return addCap(g, poly, rings, top)
}

func addLayer(g FaceGraph, pts []orb.Point, z float64) []int {
	ids := make([]int, len(pts))
	for i, p := range pts {
		ids[i] = g.AddVertex(r3.Vec{X: p[0], Y: p[1], Z: z})
	}
	return ids
}

func addCap(g FaceGraph, poly orb.Polygon, rings [][]int, ids []int) error {
	if len(rings) == 1 {
		face := make([]int, len(rings[0]))
		for i, v := range rings[0] {
			face[i] = ids[v]
		}
		if err := g.AddFace(face); err != nil {
			return fmt.Errorf("add cap: %w", err)
		}
		return nil
	}
	tris, err := Triangulate(poly)
	if err != nil {
		return fmt.Errorf("add cap: %w", err)
	}
	for _, t := range tris {
		if err := g.AddFace([]int{ids[t[0]], ids[t[1]], ids[t[2]]}); err != nil {
			return fmt.Errorf("add cap: %w", err)
		}
	}
	return nil
}
