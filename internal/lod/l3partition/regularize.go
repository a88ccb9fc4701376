package l3partition

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// Interval is a closed parameter range along a line direction.
type Interval struct{ Lo, Hi float64 }

// Line is a regularised partition line n.p = Offset with n = Normal(Angle).
type Line struct {
	ID       int
	Angle    float64 // [0, pi)
	Offset   float64
	Weight   int        // supporting points across merged segments
	Segments []int      // wall segment IDs, ascending
	Extents  []Interval // disjoint, sorted wall evidence along Direction(Angle)
}

// Direction returns the unit direction of l.
func (l Line) Direction() orb.Point { return Direction(l.Angle) }

// Normal returns the unit normal of l.
func (l Line) Normal() orb.Point { return Normal(l.Angle) }

// SignedDistance returns n.p - Offset.
func (l Line) SignedDistance(p orb.Point) float64 { return dot(l.Normal(), p) - l.Offset }

// Param returns the coordinate of p along the line direction.
func (l Line) Param(p orb.Point) float64 { return dot(l.Direction(), p) }

// Coverage returns the fraction of [lo, hi] (in line parameters) covered by
// the line's wall extents.
func (l Line) Coverage(lo, hi float64) float64 {
	if hi < lo {
		lo, hi = hi, lo
	}
	length := hi - lo
	if length <= 0 {
		return 0
	}
	var covered float64
	for _, e := range l.Extents {
		a, b := math.Max(lo, e.Lo), math.Min(hi, e.Hi)
		if b > a {
			covered += b - a
		}
	}
	return math.Min(covered/length, 1)
}

// RegularizeParams controls Regularize.
type RegularizeParams struct {
	AngleTolerance  float64 // radians; 0 disables orientation snapping
	OffsetTolerance float64 // distance; 0 disables offset snapping
	// ExtentPadding widens each wall extent at both ends so that short gaps
	// at corners still count as wall evidence.
	ExtentPadding float64
}

type orientationGroup struct {
	members []int // indices into the wall line slice
	angle   float64
	weight  int
}

// Regularize snaps near-parallel lines to a shared orientation, makes
// near-orthogonal orientation groups exactly orthogonal, and merges lines
// whose offsets nearly coincide.
//
// Every decision is made on value-sorted data (orientations sorted on the
// circle, offsets sorted within a group), so the result does not depend on
// the order of the input slice.
func Regularize(walls []WallLine, params RegularizeParams) []Line {
	if len(walls) == 0 {
		return nil
	}

	groups := groupOrientations(walls, params.AngleTolerance)
	snapOrthogonal(groups, params.AngleTolerance)
	groups = mergeEqualOrientations(groups)

	var lines []Line
	for _, g := range groups {
		lines = append(lines, mergeOffsets(walls, g, params)...)
	}
	sort.Slice(lines, func(a, b int) bool {
		if lines[a].Angle != lines[b].Angle {
			return lines[a].Angle < lines[b].Angle
		}
		return lines[a].Offset < lines[b].Offset
	})
	for i := range lines {
		lines[i].ID = i
	}
	return lines
}

// groupOrientations performs single-linkage grouping of angles on the
// pi-periodic circle.
func groupOrientations(walls []WallLine, tol float64) []*orientationGroup {
	order := make([]int, len(walls))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		wa, wb := walls[order[a]], walls[order[b]]
		if wa.Angle != wb.Angle {
			return wa.Angle < wb.Angle
		}
		return wa.Segment < wb.Segment
	})

	n := len(order)
	gap := func(i int) float64 { // gap after sorted position i
		if i == n-1 {
			return walls[order[0]].Angle + math.Pi - walls[order[n-1]].Angle
		}
		return walls[order[i+1]].Angle - walls[order[i]].Angle
	}

	start := -1
	for i := 0; i < n; i++ {
		if gap(i) > tol {
			start = (i + 1) % n
			break
		}
	}

	var groups []*orientationGroup
	if start < 0 {
		// Every gap is within tolerance: the orientations chain all the
		// way around the circle.
		g := &orientationGroup{}
		g.members = append(g.members, order...)
		groups = append(groups, g)
	} else {
		cur := &orientationGroup{}
		for k := 0; k < n; k++ {
			i := (start + k) % n
			cur.members = append(cur.members, order[i])
			if gap(i) > tol {
				groups = append(groups, cur)
				cur = &orientationGroup{}
			}
		}
		if len(cur.members) > 0 {
			groups = append(groups, cur)
		}
	}

	for _, g := range groups {
		var sx, sy float64
		for _, m := range g.members {
			w := float64(walls[m].Weight)
			sx += w * math.Cos(2*walls[m].Angle)
			sy += w * math.Sin(2*walls[m].Angle)
			g.weight += walls[m].Weight
		}
		if tol > 0 && len(g.members) > 1 {
			g.angle = normalizeAngle(math.Atan2(sy, sx) / 2)
		} else {
			g.angle = walls[g.members[0]].Angle
		}
	}
	return groups
}

// angleDiff returns the smallest difference between two pi-periodic angles.
func angleDiff(a, b float64) float64 {
	d := math.Abs(normalizeAngle(a) - normalizeAngle(b))
	return math.Min(d, math.Pi-d)
}

// snapOrthogonal rotates each group that is within tol of being orthogonal
// to a heavier anchored group onto the exact perpendicular.
func snapOrthogonal(groups []*orientationGroup, tol float64) {
	if tol <= 0 {
		return
	}
	order := make([]*orientationGroup, len(groups))
	copy(order, groups)
	sort.Slice(order, func(a, b int) bool {
		if order[a].weight != order[b].weight {
			return order[a].weight > order[b].weight
		}
		return order[a].angle < order[b].angle
	})

	var anchors []*orientationGroup
	for _, g := range order {
		snapped := false
		for _, a := range anchors {
			perp := normalizeAngle(a.angle + math.Pi/2)
			if angleDiff(g.angle, perp) <= tol {
				g.angle = perp
				snapped = true
				break
			}
		}
		if !snapped {
			anchors = append(anchors, g)
		}
	}
}

// mergeEqualOrientations joins groups that orthogonal snapping moved onto
// the same angle.
func mergeEqualOrientations(groups []*orientationGroup) []*orientationGroup {
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].angle < groups[b].angle })
	out := groups[:0]
	for _, g := range groups {
		if len(out) > 0 && out[len(out)-1].angle == g.angle {
			last := out[len(out)-1]
			last.members = append(last.members, g.members...)
			last.weight += g.weight
			continue
		}
		out = append(out, g)
	}
	return out
}

type offsetEntry struct {
	wall   int
	offset float64
}

// mergeOffsets assigns the group orientation to its members and merges
// members whose offsets chain within the offset tolerance.
func mergeOffsets(walls []WallLine, g *orientationGroup, params RegularizeParams) []Line {
	n := Normal(g.angle)
	entries := make([]offsetEntry, len(g.members))
	for i, m := range g.members {
		entries[i] = offsetEntry{wall: m, offset: dot(n, walls[m].Centroid)}
	}
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].offset != entries[b].offset {
			return entries[a].offset < entries[b].offset
		}
		return walls[entries[a].wall].Segment < walls[entries[b].wall].Segment
	})

	var out []Line
	flush := func(run []offsetEntry) {
		var wsum, osum float64
		line := Line{Angle: g.angle}
		for _, e := range run {
			w := float64(walls[e.wall].Weight)
			wsum += w
			osum += w * e.offset
			line.Weight += walls[e.wall].Weight
			line.Segments = append(line.Segments, walls[e.wall].Segment)
		}
		line.Offset = osum / wsum
		dir := Direction(g.angle)
		for _, e := range run {
			t0 := dot(dir, walls[e.wall].Ends[0])
			t1 := dot(dir, walls[e.wall].Ends[1])
			if t1 < t0 {
				t0, t1 = t1, t0
			}
			line.Extents = append(line.Extents, Interval{t0 - params.ExtentPadding, t1 + params.ExtentPadding})
		}
		line.Extents = mergeIntervals(line.Extents)
		sort.Ints(line.Segments)
		out = append(out, line)
	}

	runStart := 0
	for i := 1; i <= len(entries); i++ {
		if i == len(entries) || entries[i].offset-entries[i-1].offset > params.OffsetTolerance {
			flush(entries[runStart:i])
			runStart = i
		}
	}
	return out
}

// mergeIntervals returns the sorted union of ivs.
func mergeIntervals(ivs []Interval) []Interval {
	if len(ivs) == 0 {
		return nil
	}
	sort.Slice(ivs, func(a, b int) bool { return ivs[a].Lo < ivs[b].Lo })
	out := []Interval{ivs[0]}
	for _, iv := range ivs[1:] {
		last := &out[len(out)-1]
		if iv.Lo <= last.Hi {
			last.Hi = math.Max(last.Hi, iv.Hi)
			continue
		}
		out = append(out, iv)
	}
	return out
}
