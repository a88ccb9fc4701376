package pointset

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// planeEpsilon is the smallest eigenvalue spread treated as a real plane.
const planeEpsilon = 1e-12

// Moments accumulates first and second order moments of a point set so a
// least-squares plane can be refitted in O(1) after each insertion.
type Moments struct {
	n             float64
	sx, sy, sz    float64
	sxx, sxy, sxz float64
	syy, syz, szz float64
}

// Add accumulates p.
func (m *Moments) Add(p r3.Vec) {
	m.n++
	m.sx += p.X
	m.sy += p.Y
	m.sz += p.Z
	m.sxx += p.X * p.X
	m.sxy += p.X * p.Y
	m.sxz += p.X * p.Z
	m.syy += p.Y * p.Y
	m.syz += p.Y * p.Z
	m.szz += p.Z * p.Z
}

// Count returns the number of accumulated points.
func (m *Moments) Count() int { return int(m.n) }

// Centroid returns the mean position. Zero points yields the origin.
func (m *Moments) Centroid() r3.Vec {
	if m.n == 0 {
		return r3.Vec{}
	}
	return r3.Vec{X: m.sx / m.n, Y: m.sy / m.n, Z: m.sz / m.n}
}

// Covariance returns the population covariance matrix.
func (m *Moments) Covariance() *mat.SymDense {
	c := m.Centroid()
	cov := mat.NewSymDense(3, nil)
	if m.n == 0 {
		return cov
	}
	cov.SetSym(0, 0, m.sxx/m.n-c.X*c.X)
	cov.SetSym(0, 1, m.sxy/m.n-c.X*c.Y)
	cov.SetSym(0, 2, m.sxz/m.n-c.X*c.Z)
	cov.SetSym(1, 1, m.syy/m.n-c.Y*c.Y)
	cov.SetSym(1, 2, m.syz/m.n-c.Y*c.Z)
	cov.SetSym(2, 2, m.szz/m.n-c.Z*c.Z)
	return cov
}

// FitPlane returns the least-squares plane through the accumulated points:
// its centroid and the unit eigenvector of the smallest covariance
// eigenvalue. ok is false when fewer than three points were added, the
// decomposition fails, or the points are (nearly) collinear.
func (m *Moments) FitPlane() (centroid, normal r3.Vec, ok bool) {
	centroid = m.Centroid()
	if m.n < 3 {
		return centroid, r3.Vec{}, false
	}
	var es mat.EigenSym
	if !es.Factorize(m.Covariance(), true) {
		return centroid, r3.Vec{}, false
	}
	vals := es.Values(nil) // ascending
	if vals[1]-vals[0] < planeEpsilon {
		return centroid, r3.Vec{}, false
	}
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	normal = r3.Vec{X: vecs.At(0, 0), Y: vecs.At(1, 0), Z: vecs.At(2, 0)}
	if l := r3.Norm(normal); l > 0 {
		normal = r3.Scale(1/l, normal)
	}
	return centroid, canonicalNormal(normal), true
}

// canonicalNormal flips n so that its first significant component is
// positive, making fitted normals comparable across runs.
func canonicalNormal(n r3.Vec) r3.Vec {
	const tiny = 1e-12
	switch {
	case math.Abs(n.X) > tiny:
		if n.X < 0 {
			return r3.Scale(-1, n)
		}
	case math.Abs(n.Y) > tiny:
		if n.Y < 0 {
			return r3.Scale(-1, n)
		}
	case n.Z < 0:
		return r3.Scale(-1, n)
	}
	return n
}

// CosineSimilarity returns |a.b| / (|a||b|). Normals are unoriented, so the
// sign is discarded. A zero vector yields 0.
func CosineSimilarity(a, b r3.Vec) float64 {
	la, lb := r3.Norm(a), r3.Norm(b)
	if la == 0 || lb == 0 {
		return 0
	}
	return math.Abs(r3.Dot(a, b)) / (la * lb)
}

// EstimateNormals fits a plane to the k-neighbourhood of every point in
// subset and returns a full-length slice with the fitted normals at those
// indices. Points whose neighbourhood is degenerate get a zero normal, which
// never passes a similarity test.
func EstimateNormals(positions []r3.Vec, subset []int, k int) []r3.Vec {
	normals := make([]r3.Vec, len(positions))
	if len(subset) == 0 {
		return normals
	}
	ix := NewIndex(positions, subset)
	for _, i := range subset {
		var m Moments
		for _, j := range ix.Nearest(positions[i], k) {
			m.Add(positions[j])
		}
		if _, n, ok := m.FitPlane(); ok {
			normals[i] = n
		}
	}
	return normals
}
