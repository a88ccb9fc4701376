package l5footprints

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/banshee-data/footprint.report/internal/lod/l3partition"
	"github.com/banshee-data/footprint.report/internal/lod/l4labels"
)

var (
	// ErrNonSimpleFootprint reports a ring that touches or crosses itself,
	// or a hole crossing its shell or another hole.
	ErrNonSimpleFootprint = errors.New("footprint is not simple")
	// ErrHoleOutsideShell reports a hole with no enclosing shell.
	ErrHoleOutsideShell = errors.New("hole is not nested in a shell")
	// ErrLabelCount is returned when labels and cells disagree in length.
	ErrLabelCount = errors.New("label count does not match cell count")
)

// footprintNamespace seeds the name-based footprint IDs.
var footprintNamespace = uuid.MustParse("8f0d6b9e-3c1a-5e57-9b0a-6c2f4e1d7a30")

// straightTolerance is the sine below which a vertex counts as collinear.
const straightTolerance = 1e-9

// Params configures footprint assembly.
type Params struct {
	// MinArea discards footprints whose net area (shell minus holes) is
	// smaller. Zero keeps everything.
	MinArea float64
}

// Footprint is one building candidate. Polygon rings are closed; the
// shell is counter-clockwise and holes are clockwise.
type Footprint struct {
	ID      uuid.UUID
	Polygon orb.Polygon
	Area    float64
	Cells   []int
}

// Rejection records a footprint dropped by validation.
type Rejection struct {
	Cells  []int
	Reason error
}

// Result is the output of Assemble.
type Result struct {
	Footprints []Footprint
	Rejections []Rejection
	// Discarded counts footprints below Params.MinArea.
	Discarded int
}

type dirEdge struct{ u, v int }

// Assemble merges the inside cells of a into footprints.
func Assemble(a *l3partition.Arrangement, labels []l4labels.Label, p Params) (Result, error) {
	if len(labels) != len(a.Cells) {
		return Result{}, fmt.Errorf("assemble footprints: %w: %d labels for %d cells",
			ErrLabelCount, len(labels), len(a.Cells))
	}
	owner := make(map[dirEdge]int)
	for _, c := range a.Cells {
		n := len(c.Vertices)
		for i := 0; i < n; i++ {
			owner[dirEdge{c.Vertices[i], c.Vertices[(i+1)%n]}] = c.ID
		}
	}
	scale := math.Hypot(a.Bound.Max[0]-a.Bound.Min[0], a.Bound.Max[1]-a.Bound.Min[1])
	eps := straightTolerance * scale * scale

	var res Result
	for _, comp := range components(a, labels) {
		rings, err := traceComponent(a, labels, owner, comp)
		if err != nil {
			return Result{}, err
		}
		fps, rej := buildFootprints(a, comp, rings, eps)
		for _, r := range rej {
			logs.Opsf("rejected footprint over cells %v: %v", r.Cells, r.Reason)
		}
		res.Rejections = append(res.Rejections, rej...)
		for _, fp := range fps {
			if fp.Area < p.MinArea {
				logs.Tracef("discarded footprint over cells %v: area %.3f < %.3f", fp.Cells, fp.Area, p.MinArea)
				res.Discarded++
				continue
			}
			res.Footprints = append(res.Footprints, fp)
		}
	}
	logs.Diagf("assembled %d footprints (%d discarded, %d rejected)",
		len(res.Footprints), res.Discarded, len(res.Rejections))
	return res, nil
}

// components groups inside cells connected through shared edges. Each
// component is sorted; components are ordered by their lowest cell ID.
func components(a *l3partition.Arrangement, labels []l4labels.Label) [][]int {
	adj := make([][]int, len(a.Cells))
	for _, e := range a.Adjacencies {
		if labels[e.A] == l4labels.Inside && labels[e.B] == l4labels.Inside {
			adj[e.A] = append(adj[e.A], e.B)
			adj[e.B] = append(adj[e.B], e.A)
		}
	}
	seen := make([]bool, len(a.Cells))
	var comps [][]int
	for c := range a.Cells {
		if seen[c] || labels[c] != l4labels.Inside {
			continue
		}
		seen[c] = true
		comp := []int{c}
		for queue := []int{c}; len(queue) > 0; {
			cur := queue[0]
			queue = queue[1:]
			for _, n := range adj[cur] {
				if !seen[n] {
					seen[n] = true
					comp = append(comp, n)
					queue = append(queue, n)
				}
			}
		}
		sort.Ints(comp)
		comps = append(comps, comp)
	}
	return comps
}

// traceComponent returns the vertex-simple boundary rings of one component
// as vertex ID loops.
func traceComponent(a *l3partition.Arrangement, labels []l4labels.Label, owner map[dirEdge]int, comp []int) ([][]int, error) {
	out := make(map[int][]int)
	var starts []dirEdge
	for _, id := range comp {
		c := a.Cells[id]
		n := len(c.Vertices)
		for i := 0; i < n; i++ {
			u, v := c.Vertices[i], c.Vertices[(i+1)%n]
			if nb, ok := owner[dirEdge{v, u}]; ok && labels[nb] == l4labels.Inside {
				continue
			}
			out[u] = append(out[u], v)
			starts = append(starts, dirEdge{u, v})
		}
	}

	used := make(map[dirEdge]bool, len(starts))
	var rings [][]int
	for _, s := range starts {
		if used[s] {
			continue
		}
		var path []int
		e := s
		for {
			if used[e] {
				return nil, fmt.Errorf("trace footprint: %w: boundary edge %d-%d visited twice",
					l3partition.ErrInconsistentArrangement, e.u, e.v)
			}
			used[e] = true
			path = append(path, e.u)
			next, ok := leftmost(a.Vertices, e, out[e.v])
			if !ok {
				return nil, fmt.Errorf("trace footprint: %w: boundary dead-ends at vertex %d",
					l3partition.ErrInconsistentArrangement, e.v)
			}
			e = dirEdge{e.v, next}
			if e == s {
				break
			}
		}
		for _, loop := range splitRing(path) {
			if len(loop) >= 3 {
				rings = append(rings, loop)
			}
		}
	}
	return rings, nil
}

// leftmost picks the outgoing edge making the sharpest left turn after e.
func leftmost(verts []orb.Point, e dirEdge, candidates []int) (int, bool) {
	p, q := verts[e.u], verts[e.v]
	dx, dy := q[0]-p[0], q[1]-p[1]
	best, bestAngle := -1, math.Inf(-1)
	for _, w := range candidates {
		if w == e.u {
			continue
		}
		r := verts[w]
		ex, ey := r[0]-q[0], r[1]-q[1]
		angle := math.Atan2(dx*ey-dy*ex, dx*ex+dy*ey)
		if angle > bestAngle {
			best, bestAngle = w, angle
		}
	}
	return best, best >= 0
}

// splitRing cuts a closed vertex loop at every repeated vertex.
func splitRing(path []int) [][]int {
	var loops [][]int
	pos := make(map[int]int, len(path))
	var stack []int
	for _, v := range path {
		if i, ok := pos[v]; ok {
			loops = append(loops, append([]int(nil), stack[i:]...))
			for _, w := range stack[i+1:] {
				delete(pos, w)
			}
			stack = stack[:i+1]
			continue
		}
		pos[v] = len(stack)
		stack = append(stack, v)
	}
	return append(loops, stack)
}

type ring struct {
	pts  []orb.Point // open
	area float64     // signed, CCW positive
}

func (r ring) closed() orb.Ring {
	out := make(orb.Ring, 0, len(r.pts)+1)
	out = append(out, r.pts...)
	return append(out, r.pts[0])
}

// buildFootprints turns the traced loops of one component into validated
// polygons.
func buildFootprints(a *l3partition.Arrangement, comp []int, loops [][]int, eps float64) ([]Footprint, []Rejection) {
	// Vertices on more than one loop are where rings touch; they stay even
	// when straight so touching rings keep sharing a vertex.
	visits := make(map[int]int)
	for _, loop := range loops {
		for _, v := range loop {
			visits[v]++
		}
	}
	var shells, holes []ring
	for _, loop := range loops {
		pts := make([]orb.Point, len(loop))
		pinned := make([]bool, len(loop))
		for i, v := range loop {
			pts[i] = a.Vertices[v]
			pinned[i] = visits[v] > 1
		}
		pts = removeCollinear(pts, pinned)
		if len(pts) < 3 {
			continue
		}
		r := ring{pts: pts, area: signedArea(pts)}
		if r.area > 0 {
			shells = append(shells, r)
		} else if r.area < 0 {
			holes = append(holes, r)
		}
	}

	polys := make([]orb.Polygon, len(shells))
	net := make([]float64, len(shells))
	for i, s := range shells {
		polys[i] = orb.Polygon{s.closed()}
		net[i] = s.area
	}
	for _, h := range holes {
		mid := orb.Point{(h.pts[0][0] + h.pts[1][0]) / 2, (h.pts[0][1] + h.pts[1][1]) / 2}
		best := -1
		for i, s := range shells {
			if planar.RingContains(polys[i][0], mid) && (best < 0 || s.area < shells[best].area) {
				best = i
			}
		}
		if best < 0 {
			return nil, []Rejection{{
				Cells:  comp,
				Reason: fmt.Errorf("hole near (%.3f, %.3f): %w", mid[0], mid[1], ErrHoleOutsideShell),
			}}
		}
		polys[best] = append(polys[best], h.closed())
		net[best] += h.area
	}

	var fps []Footprint
	var rejected []Rejection
	for i, poly := range polys {
		cells := comp
		if len(polys) > 1 {
			cells = cellsIn(a, comp, poly)
		}
		if err := Validate(poly, eps); err != nil {
			rejected = append(rejected, Rejection{Cells: cells, Reason: err})
			continue
		}
		fps = append(fps, Footprint{
			ID:      footprintID(poly),
			Polygon: poly,
			Area:    net[i],
			Cells:   cells,
		})
	}
	return fps, rejected
}

func cellsIn(a *l3partition.Arrangement, comp []int, poly orb.Polygon) []int {
	var cells []int
	for _, id := range comp {
		if planar.PolygonContains(poly, a.Cells[id].Centroid) {
			cells = append(cells, id)
		}
	}
	return cells
}

// removeCollinear drops vertices where the ring runs straight on, except
// the pinned ones.
func removeCollinear(pts []orb.Point, pinned []bool) []orb.Point {
	n := len(pts)
	if n <= 3 {
		return pts
	}
	keep := make([]orb.Point, 0, n)
	for i, q := range pts {
		if pinned[i] {
			keep = append(keep, q)
			continue
		}
		p, r := pts[(i+n-1)%n], pts[(i+1)%n]
		ax, ay := q[0]-p[0], q[1]-p[1]
		bx, by := r[0]-q[0], r[1]-q[1]
		cross := ax*by - ay*bx
		if math.Abs(cross) <= straightTolerance*math.Hypot(ax, ay)*math.Hypot(bx, by) && ax*bx+ay*by > 0 {
			continue
		}
		keep = append(keep, q)
	}
	if len(keep) < 3 {
		return pts
	}
	return keep
}

func signedArea(pts []orb.Point) float64 {
	var sum float64
	n := len(pts)
	for i, p := range pts {
		q := pts[(i+1)%n]
		sum += p[0]*q[1] - q[0]*p[1]
	}
	return sum / 2
}

// footprintID hashes the polygon coordinates, so identical geometry always
// yields the same ID.
func footprintID(poly orb.Polygon) uuid.UUID {
	var buf []byte
	for _, r := range poly {
		for _, p := range r {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(p[0]))
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(p[1]))
		}
		buf = append(buf, '|')
	}
	return uuid.NewSHA1(footprintNamespace, buf)
}
