package l3partition

import (
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/footprint.report/internal/lod/l2walls"
)

// lineCovarianceEpsilon is the smallest covariance treated as non-zero in
// the closed-form 2x2 eigen solve.
const lineCovarianceEpsilon = 1e-12

// WallLine is the ground-plane trace of one wall segment before
// regularisation.
type WallLine struct {
	Segment  int       // wall segment ID
	Angle    float64   // direction angle in [0, pi)
	Centroid orb.Point // mean of the projected points
	Ends     [2]orb.Point
	Weight   int // number of supporting points
}

// Direction returns the unit direction for angle theta.
func Direction(theta float64) orb.Point {
	return orb.Point{math.Cos(theta), math.Sin(theta)}
}

// Normal returns the unit normal (direction rotated by +90 degrees).
func Normal(theta float64) orb.Point {
	return orb.Point{-math.Sin(theta), math.Cos(theta)}
}

func dot(a, b orb.Point) float64 { return a[0]*b[0] + a[1]*b[1] }

// normalizeAngle folds theta into [0, pi).
func normalizeAngle(theta float64) float64 {
	theta = math.Mod(theta, math.Pi)
	if theta < 0 {
		theta += math.Pi
	}
	if theta >= math.Pi {
		theta -= math.Pi
	}
	return theta
}

// FitLine fits a 2D line through pts by principal component analysis on
// the XY covariance, solved in closed form. ok is false for fewer than two
// distinct points.
//
// Algorithm:
//  1. Centroid of the points
//  2. 2x2 covariance matrix
//  3. Principal eigenvector
//  4. Ends = extreme projections on the principal axis
func FitLine(pts []orb.Point) (angle float64, centroid orb.Point, ends [2]orb.Point, ok bool) {
	n := len(pts)
	if n < 2 {
		return 0, centroid, ends, false
	}
	var sx, sy float64
	for _, p := range pts {
		sx += p[0]
		sy += p[1]
	}
	nf := float64(n)
	centroid = orb.Point{sx / nf, sy / nf}

	var c00, c01, c11 float64
	for _, p := range pts {
		dx := p[0] - centroid[0]
		dy := p[1] - centroid[1]
		c00 += dx * dx
		c01 += dx * dy
		c11 += dy * dy
	}
	c00 /= nf
	c01 /= nf
	c11 /= nf
	if c00+c11 < lineCovarianceEpsilon {
		return 0, centroid, ends, false
	}

	// Larger eigenvalue of the symmetric 2x2 matrix.
	trace := c00 + c11
	det := c00*c11 - c01*c01
	disc := math.Max(trace*trace-4*det, 0)
	lambda1 := (trace + math.Sqrt(disc)) / 2

	var evX, evY float64
	if math.Abs(c01) > lineCovarianceEpsilon {
		evX, evY = c01, lambda1-c00
	} else if c00 >= c11 {
		evX, evY = 1, 0
	} else {
		evX, evY = 0, 1
	}
	angle = normalizeAngle(math.Atan2(evY, evX))

	dir := Direction(angle)
	tMin, tMax := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		t := dot(dir, orb.Point{p[0] - centroid[0], p[1] - centroid[1]})
		tMin = math.Min(tMin, t)
		tMax = math.Max(tMax, t)
	}
	ends[0] = orb.Point{centroid[0] + dir[0]*tMin, centroid[1] + dir[1]*tMin}
	ends[1] = orb.Point{centroid[0] + dir[0]*tMax, centroid[1] + dir[1]*tMax}
	return angle, centroid, ends, true
}

// WallLinesFromSegments projects every segment onto the ground plane and
// fits its line. Segments whose projection is degenerate are skipped.
func WallLinesFromSegments(positions []r3.Vec, segments []l2walls.Segment) []WallLine {
	out := make([]WallLine, 0, len(segments))
	for _, s := range segments {
		pts := make([]orb.Point, len(s.Indices))
		for i, idx := range s.Indices {
			pts[i] = orb.Point{positions[idx].X, positions[idx].Y}
		}
		angle, c, ends, ok := FitLine(pts)
		if !ok {
			continue
		}
		out = append(out, WallLine{
			Segment:  s.ID,
			Angle:    angle,
			Centroid: c,
			Ends:     ends,
			Weight:   len(s.Indices),
		})
	}
	return out
}
