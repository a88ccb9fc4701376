package l5footprints

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Validate checks that every ring of poly is simple, that holes lie inside
// the shell and that no two rings cross. Rings may touch at shared
// vertices but not inside an edge. eps is the area tolerance of the
// orientation test.
func Validate(poly orb.Polygon, eps float64) error {
	if len(poly) == 0 {
		return fmt.Errorf("empty polygon: %w", ErrNonSimpleFootprint)
	}
	for i, r := range poly {
		if len(r) < 4 || r[0] != r[len(r)-1] {
			return fmt.Errorf("ring %d is not closed: %w", i, ErrNonSimpleFootprint)
		}
		if selfIntersects(r, eps) {
			return fmt.Errorf("ring %d intersects itself: %w", i, ErrNonSimpleFootprint)
		}
	}
	shell := poly[0]
	for i := 1; i < len(poly); i++ {
		h := poly[i]
		if ringsCross(shell, h, eps) {
			return fmt.Errorf("hole %d crosses the shell: %w", i, ErrNonSimpleFootprint)
		}
		if touchesInside(shell, h, eps) || touchesInside(h, shell, eps) {
			return fmt.Errorf("hole %d touches the shell inside an edge: %w", i, ErrNonSimpleFootprint)
		}
		mid := orb.Point{(h[0][0] + h[1][0]) / 2, (h[0][1] + h[1][1]) / 2}
		if !planar.RingContains(shell, mid) {
			return fmt.Errorf("hole %d: %w", i, ErrHoleOutsideShell)
		}
		for j := i + 1; j < len(poly); j++ {
			if ringsCross(h, poly[j], eps) {
				return fmt.Errorf("holes %d and %d cross: %w", i, j, ErrNonSimpleFootprint)
			}
			if touchesInside(h, poly[j], eps) || touchesInside(poly[j], h, eps) {
				return fmt.Errorf("holes %d and %d touch inside an edge: %w", i, j, ErrNonSimpleFootprint)
			}
		}
	}
	return nil
}

func orient(a, b, c orb.Point, eps float64) int {
	v := (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
	switch {
	case v > eps:
		return 1
	case v < -eps:
		return -1
	}
	return 0
}

// within reports whether p, collinear with ab, lies on the closed segment.
func within(a, b, p orb.Point, eps float64) bool {
	return p[0] >= math.Min(a[0], b[0])-eps && p[0] <= math.Max(a[0], b[0])+eps &&
		p[1] >= math.Min(a[1], b[1])-eps && p[1] <= math.Max(a[1], b[1])+eps
}

// touches reports whether the closed segments p1p2 and q1q2 share a point.
func touches(p1, p2, q1, q2 orb.Point, eps float64) bool {
	d1, d2 := orient(q1, q2, p1, eps), orient(q1, q2, p2, eps)
	d3, d4 := orient(p1, p2, q1, eps), orient(p1, p2, q2, eps)
	if d1*d2 < 0 && d3*d4 < 0 {
		return true
	}
	lin := math.Sqrt(eps)
	return (d1 == 0 && within(q1, q2, p1, lin)) ||
		(d2 == 0 && within(q1, q2, p2, lin)) ||
		(d3 == 0 && within(p1, p2, q1, lin)) ||
		(d4 == 0 && within(p1, p2, q2, lin))
}

// crosses reports a proper crossing or a collinear overlap of positive
// length; touching at a point does not count.
func crosses(p1, p2, q1, q2 orb.Point, eps float64) bool {
	d1, d2 := orient(q1, q2, p1, eps), orient(q1, q2, p2, eps)
	d3, d4 := orient(p1, p2, q1, eps), orient(p1, p2, q2, eps)
	if d1*d2 < 0 && d3*d4 < 0 {
		return true
	}
	if d1 != 0 || d2 != 0 {
		return false
	}
	// Collinear: project onto the dominant axis and compare the overlap.
	axis := 0
	if math.Abs(p2[1]-p1[1]) > math.Abs(p2[0]-p1[0]) {
		axis = 1
	}
	lo := math.Max(math.Min(p1[axis], p2[axis]), math.Min(q1[axis], q2[axis]))
	hi := math.Min(math.Max(p1[axis], p2[axis]), math.Max(q1[axis], q2[axis]))
	return hi-lo > math.Sqrt(eps)
}

func selfIntersects(r orb.Ring, eps float64) bool {
	n := len(r) - 1
	seen := make(map[orb.Point]bool, n)
	for _, p := range r[:n] {
		if seen[p] {
			return true
		}
		seen[p] = true
	}
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if touches(r[i], r[i+1], r[j], r[j+1], eps) {
				return true
			}
		}
	}
	return false
}

func ringsCross(a, b orb.Ring, eps float64) bool {
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if crosses(a[i], a[i+1], b[j], b[j+1], eps) {
				return true
			}
		}
	}
	return false
}

// touchesInside reports whether a vertex of b lies on an edge of a away
// from the edge's endpoints.
func touchesInside(a, b orb.Ring, eps float64) bool {
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	lin := math.Sqrt(eps)
	for i := 0; i+1 < len(a); i++ {
		p, q := a[i], a[i+1]
		for _, v := range b {
			if v == p || v == q || orient(p, q, v, eps) != 0 {
				continue
			}
			if within(p, q, v, lin) {
				return true
			}
		}
	}
	return false
}
