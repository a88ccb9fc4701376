package mesh

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ErrTriangulation is returned when no ear can be clipped, which only
// happens for self-intersecting input.
var ErrTriangulation = errors.New("polygon cannot be triangulated")

// flatten numbers the vertices of poly by walking its open rings in order,
// shell first. Returned rings index that numbering and are oriented with
// the interior on the left: the shell counter-clockwise, holes clockwise.
func flatten(poly orb.Polygon) ([]orb.Point, [][]int) {
	var pts []orb.Point
	rings := make([][]int, 0, len(poly))
	for i, r := range poly {
		n := len(r)
		if n > 1 && r[0] == r[n-1] {
			n--
		}
		if n < 3 {
			continue
		}
		ring := make([]int, n)
		for j := 0; j < n; j++ {
			ring[j] = len(pts)
			pts = append(pts, r[j])
		}
		if (signedArea(pts, ring) > 0) != (i == 0) {
			for a, b := 0, n-1; a < b; a, b = a+1, b-1 {
				ring[a], ring[b] = ring[b], ring[a]
			}
		}
		rings = append(rings, ring)
	}
	return pts, rings
}

func signedArea(pts []orb.Point, ring []int) float64 {
	var sum float64
	for i, v := range ring {
		p, q := pts[v], pts[ring[(i+1)%len(ring)]]
		sum += p[0]*q[1] - q[0]*p[1]
	}
	return sum / 2
}

func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// Triangulate ear-clips poly, bridging holes into the shell first. Rings
// may share vertices but must not touch inside an edge. The triangles index
// the vertex numbering of the open rings taken in order (shell first) and
// are counter-clockwise.
func Triangulate(poly orb.Polygon) ([][3]int, error) {
	pts, rings := flatten(poly)
	if len(rings) == 0 {
		return nil, nil
	}
	b := poly.Bound()
	scale := math.Hypot(b.Max[0]-b.Min[0], b.Max[1]-b.Min[1])
	eps := 1e-12 * scale * scale

	loop, err := bridgeHoles(pts, rings, poly, eps)
	if err != nil {
		return nil, err
	}
	return earClip(pts, loop, eps)
}

// bridgeHoles splices every hole into the shell loop. A hole sharing a
// vertex with the loop is spliced in at that vertex; the others are joined
// through a visible bridge from their rightmost vertex.
func bridgeHoles(pts []orb.Point, rings [][]int, poly orb.Polygon, eps float64) ([]int, error) {
	loop := append([]int(nil), rings[0]...)
	pending := append([][]int(nil), rings[1:]...)
	rightmost := func(h []int) int {
		best := 0
		for i, v := range h {
			if pts[v][0] > pts[h[best]][0] {
				best = i
			}
		}
		return best
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pts[pending[i][rightmost(pending[i])]][0] > pts[pending[j][rightmost(pending[j])]][0]
	})

	for len(pending) > 0 {
		if hi, merged, ok := spliceShared(pts, loop, pending); ok {
			loop = merged
			pending = append(pending[:hi], pending[hi+1:]...)
			continue
		}
		h := pending[0]
		m := rightmost(h)
		mp := pts[h[m]]
		best, bestD := -1, math.Inf(1)
		for i, v := range loop {
			p := pts[v]
			d := (p[0]-mp[0])*(p[0]-mp[0]) + (p[1]-mp[1])*(p[1]-mp[1])
			if d >= bestD || !inSector(pts, loop, i, mp) || !inSector(pts, h, m, p) {
				continue
			}
			if visible(pts, mp, p, loop, pending, poly, eps) {
				best, bestD = i, d
			}
		}
		if best < 0 {
			return nil, fmt.Errorf("%w: hole at (%.3f, %.3f) has no visible loop vertex", ErrTriangulation, mp[0], mp[1])
		}
		merged := make([]int, 0, len(loop)+len(h)+2)
		merged = append(merged, loop[:best+1]...)
		merged = append(merged, h[m:]...)
		merged = append(merged, h[:m+1]...)
		merged = append(merged, loop[best:]...)
		loop = merged
		pending = pending[1:]
	}
	return loop, nil
}

// spliceShared finds a pending hole with a vertex coincident with a loop
// vertex whose interior angle holds the hole, and returns the index of that
// hole and the loop with the hole walked in at the shared point.
func spliceShared(pts []orb.Point, loop []int, pending [][]int) (int, []int, bool) {
	at := make(map[orb.Point][]int, len(loop))
	for i, v := range loop {
		at[pts[v]] = append(at[pts[v]], i)
	}
	for hi, h := range pending {
		for j, v := range h {
			next := pts[h[(j+1)%len(h)]]
			for _, i := range at[pts[v]] {
				if !inSector(pts, loop, i, next) {
					continue
				}
				merged := make([]int, 0, len(loop)+len(h))
				merged = append(merged, loop[:i+1]...)
				merged = append(merged, h[j+1:]...)
				merged = append(merged, h[:j+1]...)
				merged = append(merged, loop[i+1:]...)
				return hi, merged, true
			}
		}
	}
	return 0, nil, false
}

// inSector reports whether the direction from ring vertex i towards p lies
// strictly inside the interior angle at i. The interior is on the left.
func inSector(pts []orb.Point, ring []int, i int, p orb.Point) bool {
	n := len(ring)
	o := pts[ring[i]]
	base := heading(o, pts[ring[(i+1)%n]])
	limit := turn(base, heading(o, pts[ring[(i+n-1)%n]]))
	if limit == 0 {
		limit = 2 * math.Pi
	}
	a := turn(base, heading(o, p))
	return a > 0 && a < limit
}

func heading(o, p orb.Point) float64 {
	return math.Atan2(p[1]-o[1], p[0]-o[0])
}

// turn is the counter-clockwise angle from heading from to heading to, in
// [0, 2pi).
func turn(from, to float64) float64 {
	a := to - from
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// visible reports whether the open segment ab runs through the interior of
// poly without meeting the current loop or any pending hole.
func visible(pts []orb.Point, a, b orb.Point, loop []int, holes [][]int, poly orb.Polygon, eps float64) bool {
	mid := orb.Point{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
	if !planar.PolygonContains(poly, mid) {
		return false
	}
	blocked := func(ring []int) bool {
		n := len(ring)
		for i := 0; i < n; i++ {
			p, q := pts[ring[i]], pts[ring[(i+1)%n]]
			d1, d2 := cross(a, b, p), cross(a, b, q)
			d3, d4 := cross(p, q, a), cross(p, q, b)
			if ((d1 > eps && d2 < -eps) || (d1 < -eps && d2 > eps)) &&
				((d3 > eps && d4 < -eps) || (d3 < -eps && d4 > eps)) {
				return true
			}
			// A vertex strictly inside the segment also blocks it.
			if p != a && p != b && math.Abs(d1) <= eps {
				t := ((p[0]-a[0])*(b[0]-a[0]) + (p[1]-a[1])*(b[1]-a[1])) /
					((b[0]-a[0])*(b[0]-a[0]) + (b[1]-a[1])*(b[1]-a[1]))
				if t > 0 && t < 1 {
					return true
				}
			}
		}
		return false
	}
	if blocked(loop) {
		return false
	}
	for _, h := range holes {
		if blocked(h) {
			return false
		}
	}
	return true
}

// earClip triangulates the weakly simple counter-clockwise loop.
func earClip(pts []orb.Point, loop []int, eps float64) ([][3]int, error) {
	idx := append([]int(nil), loop...)
	tris := make([][3]int, 0, len(idx))
	for len(idx) > 3 {
		n := len(idx)
		clip, emit, degenerate := -1, false, -1
		for i := 0; i < n && clip < 0; i++ {
			a, b, c := idx[(i+n-1)%n], idx[i], idx[(i+1)%n]
			pa, pb, pc := pts[a], pts[b], pts[c]
			if pb == pa || pb == pc {
				clip = i
				break
			}
			area := cross(pa, pb, pc)
			if math.Abs(area) <= eps && degenerate < 0 {
				degenerate = i
			}
			if area <= eps || earBlocked(pts, idx, i, eps) {
				continue
			}
			clip, emit = i, true
		}
		if clip < 0 {
			if degenerate < 0 {
				return nil, fmt.Errorf("%w: %d vertices left", ErrTriangulation, n)
			}
			clip = degenerate
		}
		if emit {
			tris = append(tris, [3]int{idx[(clip+n-1)%n], idx[clip], idx[(clip+1)%n]})
		}
		idx = append(idx[:clip], idx[clip+1:]...)
	}
	if len(idx) == 3 && cross(pts[idx[0]], pts[idx[1]], pts[idx[2]]) > eps {
		tris = append(tris, [3]int{idx[0], idx[1], idx[2]})
	}
	return tris, nil
}

// earBlocked reports whether the ear at position i of idx is obstructed by
// another vertex in the closed triangle, or by an edge leaving a coincident
// copy of a corner into the triangle.
func earBlocked(pts []orb.Point, idx []int, i int, eps float64) bool {
	n := len(idx)
	ia, ic := (i+n-1)%n, (i+1)%n
	a, b, c := pts[idx[ia]], pts[idx[i]], pts[idx[ic]]
	for j, v := range idx {
		if j == ia || j == i || j == ic {
			continue
		}
		p := pts[v]
		var o, u, w orb.Point
		switch p {
		case a:
			o, u, w = a, b, c
		case b:
			o, u, w = b, c, a
		case c:
			o, u, w = c, a, b
		default:
			if cross(a, b, p) >= -eps && cross(b, c, p) >= -eps && cross(c, a, p) >= -eps {
				return true
			}
			continue
		}
		for _, q := range [2]orb.Point{pts[idx[(j+n-1)%n]], pts[idx[(j+1)%n]]} {
			if cross(o, u, q) > eps && cross(o, w, q) < -eps {
				return true
			}
		}
	}
	return false
}
