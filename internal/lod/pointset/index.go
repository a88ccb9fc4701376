package pointset

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"gonum.org/v1/gonum/spatial/r3"
)

// Tree fan-out used for every R-tree built by the pipeline.
const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50

	// pointRectTolerance is the half-extent of the degenerate rectangle
	// stored for each point; rtreego rejects zero-size rectangles.
	pointRectTolerance = 1e-9
)

type indexedPoint struct {
	idx  int
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (p *indexedPoint) Bounds() rtreego.Rect { return p.rect }

// Index answers radius and k-nearest queries over a subset of a position
// slice. Results are always global indices into that slice, in ascending
// order, so callers that iterate them stay deterministic.
type Index struct {
	positions []r3.Vec
	tree      *rtreego.Rtree
	size      int
}

// NewIndex builds an R-tree over positions[i] for every i in subset. A nil
// subset indexes every position.
func NewIndex(positions []r3.Vec, subset []int) *Index {
	if subset == nil {
		subset = make([]int, len(positions))
		for i := range subset {
			subset[i] = i
		}
	}
	objs := make([]rtreego.Spatial, 0, len(subset))
	for _, i := range subset {
		p := positions[i]
		objs = append(objs, &indexedPoint{
			idx:  i,
			rect: rtreego.Point{p.X, p.Y, p.Z}.ToRect(pointRectTolerance),
		})
	}
	return &Index{
		positions: positions,
		tree:      rtreego.NewTree(3, rtreeMinChildren, rtreeMaxChildren, objs...),
		size:      len(objs),
	}
}

// Len returns the number of indexed points.
func (ix *Index) Len() int { return ix.size }

// WithinRadius returns every indexed point whose Euclidean distance to
// center is at most radius, center itself included when indexed.
func (ix *Index) WithinRadius(center r3.Vec, radius float64) []int {
	if ix.size == 0 || radius <= 0 {
		return nil
	}
	box, err := rtreego.NewRect(
		rtreego.Point{center.X - radius, center.Y - radius, center.Z - radius},
		[]float64{2 * radius, 2 * radius, 2 * radius},
	)
	if err != nil {
		return nil
	}
	r2 := radius * radius
	var out []int
	for _, s := range ix.tree.SearchIntersect(box) {
		ip := s.(*indexedPoint)
		d := r3.Sub(ix.positions[ip.idx], center)
		if r3.Dot(d, d) <= r2 {
			out = append(out, ip.idx)
		}
	}
	sort.Ints(out)
	return out
}

// Nearest returns up to k indexed points closest to center, ordered by
// distance and then index.
func (ix *Index) Nearest(center r3.Vec, k int) []int {
	if ix.size == 0 || k <= 0 {
		return nil
	}
	found := ix.tree.NearestNeighbors(k, rtreego.Point{center.X, center.Y, center.Z})
	out := make([]int, 0, len(found))
	for _, s := range found {
		// rtreego pads the result with nils when k exceeds the tree size.
		if s == nil {
			continue
		}
		out = append(out, s.(*indexedPoint).idx)
	}
	sort.Slice(out, func(a, b int) bool {
		da := r3.Norm2(r3.Sub(ix.positions[out[a]], center))
		db := r3.Norm2(r3.Sub(ix.positions[out[b]], center))
		if da != db {
			return da < db
		}
		return out[a] < out[b]
	})
	return out
}

// EstimateAverageSpacing returns the mean distance from each point to its
// k nearest neighbours, the usual way of deriving the noise tolerance of a
// scan. Fewer than two points yields 0.
func EstimateAverageSpacing(positions []r3.Vec, k int) float64 {
	if len(positions) < 2 || k <= 0 {
		return 0
	}
	ix := NewIndex(positions, nil)
	var sum float64
	var n int
	for i, p := range positions {
		// k+1 because the point itself is its own nearest neighbour.
		for _, j := range ix.Nearest(p, k+1) {
			if j == i {
				continue
			}
			sum += math.Sqrt(r3.Norm2(r3.Sub(positions[j], p)))
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
