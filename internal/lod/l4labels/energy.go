package l4labels

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/footprint.report/internal/lod/l3partition"
	"github.com/banshee-data/footprint.report/internal/lod/pointset"
)

// Default energy weights.
const (
	DefaultAlpha = 1.0
	DefaultBeta  = 100000.0
	DefaultGamma = 10000.0
)

// ErrNegativeWeight is returned for a negative or infinite energy weight;
// the min-cut is only exact for finite non-negative pairwise costs.
var ErrNegativeWeight = errors.New("energy weights must be finite and non-negative")

// Label is the binary cell label.
type Label uint8

const (
	Outside Label = iota
	Inside
)

// String returns "inside" or "outside".
func (l Label) String() string {
	if l == Inside {
		return "inside"
	}
	return "outside"
}

// Params holds the energy weights.
type Params struct {
	Alpha float64 // data term weight
	Beta  float64 // smoothness across edges without wall evidence
	Gamma float64 // smoothness across edges on wall evidence
	Tau   float64 // length scale, the cluster tolerance
}

// Validate rejects negative or infinite weights and a non-positive length
// scale. NaN fails every check.
func (p Params) Validate() error {
	weights := []struct {
		name string
		v    float64
	}{
		{"alpha", p.Alpha},
		{"beta", p.Beta},
		{"gamma", p.Gamma},
	}
	for _, w := range weights {
		if !(w.v >= 0) || math.IsInf(w.v, 1) {
			return fmt.Errorf("%s %g: %w", w.name, w.v, ErrNegativeWeight)
		}
	}
	if !(p.Tau > 0) || math.IsInf(p.Tau, 1) {
		return fmt.Errorf("tau %g: %w", p.Tau, ErrNegativeWeight)
	}
	return nil
}

// Evidence counts the labelled points falling in one cell.
type Evidence struct {
	Inside, Outside int
}

// InsideProbability returns n_in/(n_in+n_out), or 0 for an empty cell.
func (e Evidence) InsideProbability() float64 {
	total := e.Inside + e.Outside
	if total == 0 {
		return 0
	}
	return float64(e.Inside) / float64(total)
}

// CountEvidence locates every INSIDE and OUTSIDE point in the arrangement.
// Points outside the bounding box are ignored.
func CountEvidence(a *l3partition.Arrangement, positions []r3.Vec, types []pointset.PointType) []Evidence {
	ev := make([]Evidence, len(a.Cells))
	loc := l3partition.NewLocator(a)
	for i, t := range types {
		if t != pointset.Inside && t != pointset.Outside {
			continue
		}
		c := loc.CellOf(orb.Point{positions[i].X, positions[i].Y})
		if c < 0 {
			continue
		}
		if t == pointset.Inside {
			ev[c].Inside++
		} else {
			ev[c].Outside++
		}
	}
	return ev
}

// Pair is one pairwise term.
type Pair struct {
	A, B   int
	Weight float64
}

// Energy is a two-label energy over nodes 0..len(Data)-1.
// Data[c][l] is the cost of giving node c label l.
type Energy struct {
	Data  [][2]float64
	Pairs []Pair
}

// BuildEnergy turns the arrangement and its evidence into an Energy with
// one node per cell (node = cell ID).
func BuildEnergy(a *l3partition.Arrangement, ev []Evidence, p Params) Energy {
	e := Energy{
		Data:  make([][2]float64, len(a.Cells)),
		Pairs: make([]Pair, 0, len(a.Adjacencies)),
	}
	for _, c := range a.Cells {
		pin := ev[c.ID].InsideProbability()
		e.Data[c.ID][Inside] = p.Alpha * c.Area * (1 - pin)
		e.Data[c.ID][Outside] = p.Alpha * c.Area * pin
	}
	for _, adj := range a.Adjacencies {
		cov := adj.WallCoverage
		w := adj.Length * p.Tau * (cov*p.Gamma + (1-cov)*p.Beta) / DefaultBeta
		e.Pairs = append(e.Pairs, Pair{A: adj.A, B: adj.B, Weight: w})
	}
	return e
}

// Evaluate returns E(labels).
func (e Energy) Evaluate(labels []Label) float64 {
	var sum float64
	for c, d := range e.Data {
		sum += d[labels[c]]
	}
	for _, p := range e.Pairs {
		if labels[p.A] != labels[p.B] {
			sum += p.Weight
		}
	}
	return sum
}

// Result is the output of Solve.
type Result struct {
	Labels []Label
	Energy float64
	Flow   float64
}

// Solve minimises e exactly.
func Solve(e Energy) Result {
	n := len(e.Data)
	if n == 0 {
		return Result{}
	}
	s, t := n, n+1
	g := newFlowGraph(n+2, 2*(n+len(e.Pairs)))

	var scale float64
	for c, d := range e.Data {
		diff := d[Outside] - d[Inside]
		switch {
		case diff > 0:
			g.addEdge(s, c, diff, 0)
		case diff < 0:
			g.addEdge(c, t, -diff, 0)
		}
		scale += d[Outside] + d[Inside]
	}
	for _, p := range e.Pairs {
		if p.Weight > 0 {
			g.addEdge(p.A, p.B, p.Weight, p.Weight)
			scale += p.Weight
		}
	}

	flow := g.maxFlow(s, t, flowEpsilon*(scale+1))
	reach := g.reachable(s, flowEpsilon*(scale+1))

	labels := make([]Label, n)
	for c := range labels {
		if reach[c] {
			labels[c] = Inside
		}
	}
	return Result{Labels: labels, Energy: e.Evaluate(labels), Flow: flow}
}
