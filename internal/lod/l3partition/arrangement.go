package l3partition

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// BoxEdge marks a cell edge lying on the bounding box rather than on a
// partition line.
const BoxEdge = -1

// relativeTolerance scales the side-of-line test to the scene size.
const relativeTolerance = 1e-9

// ErrInconsistentArrangement reports a broken subdivision invariant. It
// indicates a programming error, not bad input.
var ErrInconsistentArrangement = errors.New("inconsistent arrangement")

// Cell is one convex face of the arrangement. Vertices are counter-clockwise
// indices into Arrangement.Vertices; EdgeLines[i] is the line supporting
// the edge Vertices[i] -> Vertices[i+1], or BoxEdge.
type Cell struct {
	ID        int
	Vertices  []int
	EdgeLines []int
	Area      float64
	Centroid  orb.Point
}

// Adjacency is one edge shared by two cells (A < B).
type Adjacency struct {
	A, B int
	U, V int // vertex IDs of the shared edge
	Line int // supporting line
	// Length of the shared edge.
	Length float64
	// WallCoverage is the fraction of the edge lying on measured wall
	// extents of its line.
	WallCoverage float64
}

// Arrangement is the planar subdivision of Bound induced by Lines.
type Arrangement struct {
	Bound       orb.Bound
	Lines       []Line
	Vertices    []orb.Point
	Cells       []Cell
	Adjacencies []Adjacency
}

type edgeKey struct{ u, v int }

func makeEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

type builder struct {
	vertices []orb.Point
	cells    []Cell
	tol      float64
}

// BuildArrangement subdivides bound by every line. Cells are returned
// sorted by centroid (Y, then X) and numbered in that order; adjacencies
// are sorted by (A, B).
func BuildArrangement(lines []Line, bound orb.Bound) (*Arrangement, error) {
	if bound.Max[0] <= bound.Min[0] || bound.Max[1] <= bound.Min[1] {
		return nil, fmt.Errorf("build arrangement: %w: empty bounding box", ErrInconsistentArrangement)
	}
	diag := math.Hypot(bound.Max[0]-bound.Min[0], bound.Max[1]-bound.Min[1])
	b := &builder{
		vertices: []orb.Point{
			bound.Min,
			{bound.Max[0], bound.Min[1]},
			bound.Max,
			{bound.Min[0], bound.Max[1]},
		},
		cells: []Cell{{
			Vertices:  []int{0, 1, 2, 3},
			EdgeLines: []int{BoxEdge, BoxEdge, BoxEdge, BoxEdge},
		}},
		tol: relativeTolerance * diag,
	}
	for _, l := range lines {
		b.split(l)
	}

	a := &Arrangement{Bound: bound, Lines: lines, Vertices: b.vertices}
	for _, c := range b.cells {
		ring := a.ring(c.Vertices)
		c.Centroid, c.Area = planar.CentroidArea(ring)
		a.Cells = append(a.Cells, c)
	}
	// Centroids are compared on a grid so rounding noise cannot reorder
	// cells of the same row.
	quantum := 1e-6 * diag
	key := func(c Cell) (int64, int64) {
		return int64(math.Round(c.Centroid[1] / quantum)), int64(math.Round(c.Centroid[0] / quantum))
	}
	sort.SliceStable(a.Cells, func(i, j int) bool {
		yi, xi := key(a.Cells[i])
		yj, xj := key(a.Cells[j])
		if yi != yj {
			return yi < yj
		}
		return xi < xj
	})
	for i := range a.Cells {
		a.Cells[i].ID = i
	}

	if err := a.buildAdjacency(); err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// split cuts every cell crossed by l into two convex halves.
func (b *builder) split(l Line) {
	sides := make(map[int]int)
	side := func(v int) int {
		if s, ok := sides[v]; ok {
			return s
		}
		d := l.SignedDistance(b.vertices[v])
		s := 0
		if d > b.tol {
			s = 1
		} else if d < -b.tol {
			s = -1
		}
		sides[v] = s
		return s
	}
	crossings := make(map[edgeKey]int)
	crossing := func(u, v int) int {
		k := makeEdgeKey(u, v)
		if id, ok := crossings[k]; ok {
			return id
		}
		// Always intersect from the lower vertex ID so both cells sharing
		// the edge would compute bit-identical coordinates.
		p, q := b.vertices[k.u], b.vertices[k.v]
		n := l.Normal()
		t := (l.Offset - dot(n, p)) / dot(n, orb.Point{q[0] - p[0], q[1] - p[1]})
		x := orb.Point{p[0] + t*(q[0]-p[0]), p[1] + t*(q[1]-p[1])}
		b.vertices = append(b.vertices, x)
		id := len(b.vertices) - 1
		crossings[k] = id
		return id
	}

	next := make([]Cell, 0, len(b.cells)+1)
	for _, c := range b.cells {
		var pos, neg bool
		for _, v := range c.Vertices {
			switch side(v) {
			case 1:
				pos = true
			case -1:
				neg = true
			}
		}
		if !pos || !neg {
			next = append(next, c)
			continue
		}
		next = append(next, clip(c, l.ID, 1, side, crossing), clip(c, l.ID, -1, side, crossing))
	}
	b.cells = next
}

// clip keeps the part of convex cell c on side keep of the cutting line,
// tracking which line supports every output edge.
func clip(c Cell, lineID, keep int, side func(int) int, crossing func(int, int) int) Cell {
	var out Cell
	n := len(c.Vertices)
	for i := 0; i < n; i++ {
		a, b := c.Vertices[i], c.Vertices[(i+1)%n]
		s := c.EdgeLines[i]
		sa, sb := side(a)*keep, side(b)*keep
		if sa >= 0 {
			support := s
			if sa == 0 && sb < 0 {
				support = lineID
			}
			out.Vertices = append(out.Vertices, a)
			out.EdgeLines = append(out.EdgeLines, support)
		}
		if sa*sb < 0 {
			support := s
			if sa > 0 {
				support = lineID
			}
			out.Vertices = append(out.Vertices, crossing(a, b))
			out.EdgeLines = append(out.EdgeLines, support)
		}
	}
	return out
}

// ring returns the closed ring of the given vertex IDs.
func (a *Arrangement) ring(ids []int) orb.Ring {
	r := make(orb.Ring, 0, len(ids)+1)
	for _, id := range ids {
		r = append(r, a.Vertices[id])
	}
	return append(r, a.Vertices[ids[0]])
}

// Ring returns the closed counter-clockwise ring of cell id.
func (a *Arrangement) Ring(id int) orb.Ring { return a.ring(a.Cells[id].Vertices) }

type edgeUse struct {
	cells []int
	line  int
}

func (a *Arrangement) buildAdjacency() error {
	uses := make(map[edgeKey]*edgeUse)
	var keys []edgeKey
	for _, c := range a.Cells {
		n := len(c.Vertices)
		for i := 0; i < n; i++ {
			k := makeEdgeKey(c.Vertices[i], c.Vertices[(i+1)%n])
			u, ok := uses[k]
			if !ok {
				u = &edgeUse{line: c.EdgeLines[i]}
				uses[k] = u
				keys = append(keys, k)
			}
			u.cells = append(u.cells, c.ID)
		}
	}

	for _, k := range keys {
		u := uses[k]
		switch {
		case len(u.cells) > 2:
			return fmt.Errorf("build arrangement: %w: edge %d-%d shared by %d cells",
				ErrInconsistentArrangement, k.u, k.v, len(u.cells))
		case len(u.cells) == 1:
			if u.line != BoxEdge {
				return fmt.Errorf("build arrangement: %w: line edge %d-%d has one cell",
					ErrInconsistentArrangement, k.u, k.v)
			}
			continue
		}
		adj := Adjacency{A: u.cells[0], B: u.cells[1], U: k.u, V: k.v, Line: u.line}
		if adj.A > adj.B {
			adj.A, adj.B = adj.B, adj.A
		}
		p, q := a.Vertices[k.u], a.Vertices[k.v]
		adj.Length = math.Hypot(q[0]-p[0], q[1]-p[1])
		if u.line >= 0 {
			l := a.Lines[u.line]
			adj.WallCoverage = l.Coverage(l.Param(p), l.Param(q))
		}
		a.Adjacencies = append(a.Adjacencies, adj)
	}
	sort.Slice(a.Adjacencies, func(i, j int) bool {
		ai, aj := a.Adjacencies[i], a.Adjacencies[j]
		if ai.A != aj.A {
			return ai.A < aj.A
		}
		if ai.B != aj.B {
			return ai.B < aj.B
		}
		return makeEdgeKey(ai.U, ai.V).u < makeEdgeKey(aj.U, aj.V).u
	})
	return nil
}

// Validate checks that the cells tile the bounding box: every cell is
// counter-clockwise with positive area and the areas sum to the box area.
func (a *Arrangement) Validate() error {
	boxArea := (a.Bound.Max[0] - a.Bound.Min[0]) * (a.Bound.Max[1] - a.Bound.Min[1])
	var sum float64
	for _, c := range a.Cells {
		if len(c.Vertices) < 3 || len(c.Vertices) != len(c.EdgeLines) {
			return fmt.Errorf("validate arrangement: %w: cell %d is malformed", ErrInconsistentArrangement, c.ID)
		}
		if a.Ring(c.ID).Orientation() != orb.CCW {
			return fmt.Errorf("validate arrangement: %w: cell %d is not counter-clockwise", ErrInconsistentArrangement, c.ID)
		}
		sum += c.Area
	}
	if math.Abs(sum-boxArea) > 1e-6*boxArea {
		return fmt.Errorf("validate arrangement: %w: cell area %g != box area %g", ErrInconsistentArrangement, sum, boxArea)
	}
	return nil
}

// Contains reports whether p lies in convex cell id, boundary included.
func (a *Arrangement) Contains(id int, p orb.Point) bool {
	c := a.Cells[id]
	n := len(c.Vertices)
	diag := math.Hypot(a.Bound.Max[0]-a.Bound.Min[0], a.Bound.Max[1]-a.Bound.Min[1])
	tol := relativeTolerance * diag * diag
	for i := 0; i < n; i++ {
		u, v := a.Vertices[c.Vertices[i]], a.Vertices[c.Vertices[(i+1)%n]]
		cross := (v[0]-u[0])*(p[1]-u[1]) - (v[1]-u[1])*(p[0]-u[0])
		if cross < -tol {
			return false
		}
	}
	return true
}
