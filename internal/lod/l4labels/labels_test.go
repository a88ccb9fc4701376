package l4labels

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/footprint.report/internal/lod/l3partition"
	"github.com/banshee-data/footprint.report/internal/lod/pointset"
)

func bruteForce(e Energy) float64 {
	n := len(e.Data)
	best := math.Inf(1)
	labels := make([]Label, n)
	for mask := 0; mask < 1<<n; mask++ {
		for i := range labels {
			labels[i] = Label((mask >> i) & 1)
		}
		best = math.Min(best, e.Evaluate(labels))
	}
	return best
}

func randomEnergy(rng *rand.Rand, n int) Energy {
	e := Energy{Data: make([][2]float64, n)}
	for i := range e.Data {
		e.Data[i] = [2]float64{rng.Float64() * 10, rng.Float64() * 10}
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			if rng.Float64() < 0.4 {
				e.Pairs = append(e.Pairs, Pair{A: a, B: b, Weight: rng.Float64() * 6})
			}
		}
	}
	return e
}

func TestSolve_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		e := randomEnergy(rng, 1+rng.Intn(10))
		res := Solve(e)
		want := bruteForce(e)
		if math.Abs(res.Energy-want) > 1e-9 {
			t.Fatalf("trial %d: Solve energy %v, brute force %v", trial, res.Energy, want)
		}
	}
}

func TestSolve_FlowEqualsCutValue(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	e := randomEnergy(rng, 8)
	res := Solve(e)
	var constant float64
	for _, d := range e.Data {
		constant += math.Min(d[0], d[1])
	}
	assert.InDelta(t, res.Energy, constant+res.Flow, 1e-9)
}

func TestSolve_IndependentOfNodeOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for trial := 0; trial < 50; trial++ {
		n := 2 + rng.Intn(12)
		e := randomEnergy(rng, n)
		base := Solve(e)

		perm := rng.Perm(n)
		pe := Energy{Data: make([][2]float64, n)}
		for old, nw := range perm {
			pe.Data[nw] = e.Data[old]
		}
		for i := len(e.Pairs) - 1; i >= 0; i-- {
			p := e.Pairs[i]
			pe.Pairs = append(pe.Pairs, Pair{A: perm[p.B], B: perm[p.A], Weight: p.Weight})
		}
		got := Solve(pe)
		for old, nw := range perm {
			if base.Labels[old] != got.Labels[nw] {
				t.Fatalf("trial %d: node %d labelled %v, permuted %v", trial, old, base.Labels[old], got.Labels[nw])
			}
		}
	}
}

func TestSolve_TiesGoOutside(t *testing.T) {
	res := Solve(Energy{Data: [][2]float64{{3, 3}, {0, 0}}})
	assert.Equal(t, []Label{Outside, Outside}, res.Labels)
}

func TestSolve_Empty(t *testing.T) {
	res := Solve(Energy{})
	assert.Empty(t, res.Labels)
}

func TestSolve_SmoothnessPullsWeakCell(t *testing.T) {
	// Node 1 mildly prefers outside but is tied strongly to node 0.
	e := Energy{
		Data:  [][2]float64{{10, 0}, {0, 1}},
		Pairs: []Pair{{A: 0, B: 1, Weight: 5}},
	}
	assert.Equal(t, []Label{Inside, Inside}, Solve(e).Labels)

	e.Pairs[0].Weight = 0.5
	assert.Equal(t, []Label{Inside, Outside}, Solve(e).Labels)
}

func TestParamsValidate(t *testing.T) {
	good := Params{Alpha: DefaultAlpha, Beta: DefaultBeta, Gamma: DefaultGamma, Tau: 1}
	require.NoError(t, good.Validate())

	for _, p := range []Params{
		{Alpha: -1, Tau: 1},
		{Beta: -1, Tau: 1},
		{Gamma: -1, Tau: 1},
		{Beta: math.Inf(1), Tau: 1},
		{Alpha: math.NaN(), Tau: 1},
		{Tau: 0},
	} {
		err := p.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNegativeWeight))
	}
}

// squareArrangement builds the 3x3 arrangement of a 10x10 square inside a
// 20x20 box.
func squareArrangement(t *testing.T) *l3partition.Arrangement {
	t.Helper()
	ext := []l3partition.Interval{{Lo: 0, Hi: 10}}
	lines := []l3partition.Line{
		{ID: 0, Angle: 0, Offset: 0, Extents: ext},
		{ID: 1, Angle: 0, Offset: 10, Extents: ext},
		{ID: 2, Angle: math.Pi / 2, Offset: 0, Extents: ext},
		{ID: 3, Angle: math.Pi / 2, Offset: -10, Extents: ext},
	}
	a, err := l3partition.BuildArrangement(lines, orb.Bound{Min: orb.Point{-5, -5}, Max: orb.Point{15, 15}})
	require.NoError(t, err)
	return a
}

func TestCountEvidenceAndLabel_Square(t *testing.T) {
	a := squareArrangement(t)

	var positions []r3.Vec
	var types []pointset.PointType
	for x := -4.5; x < 15; x += 1 {
		for y := -4.5; y < 15; y += 1 {
			inside := x > 0 && x < 10 && y > 0 && y < 10
			if inside {
				positions = append(positions, r3.Vec{X: x, Y: y, Z: 4})
				types = append(types, pointset.Inside)
			} else {
				positions = append(positions, r3.Vec{X: x, Y: y})
				types = append(types, pointset.Outside)
			}
		}
	}
	positions = append(positions, r3.Vec{X: 100, Y: 100})
	types = append(types, pointset.Inside)

	ev := CountEvidence(a, positions, types)
	require.Len(t, ev, 9)
	assert.Equal(t, Evidence{Inside: 100}, ev[4])
	for i, e := range ev {
		if i != 4 {
			assert.Zero(t, e.Inside, "cell %d", i)
			assert.Positive(t, e.Outside, "cell %d", i)
		}
	}

	p := Params{Alpha: DefaultAlpha, Beta: DefaultBeta, Gamma: DefaultGamma, Tau: 1.5}
	energy := BuildEnergy(a, ev, p)
	assert.InDelta(t, 100, energy.Data[4][Outside], 1e-9)
	assert.InDelta(t, 0, energy.Data[4][Inside], 1e-9)

	res := Solve(energy)
	for i, l := range res.Labels {
		if i == 4 {
			assert.Equal(t, Inside, l)
		} else {
			assert.Equal(t, Outside, l, "cell %d", i)
		}
	}
}

func TestBuildEnergy_WallEdgesAreCheaper(t *testing.T) {
	a := squareArrangement(t)
	e := BuildEnergy(a, make([]Evidence, len(a.Cells)), Params{Alpha: 1, Beta: DefaultBeta, Gamma: DefaultGamma, Tau: 2})
	for i, adj := range a.Adjacencies {
		want := adj.Length * 2 * (adj.WallCoverage*0.1 + (1 - adj.WallCoverage))
		assert.InDelta(t, want, e.Pairs[i].Weight, 1e-9)
	}
}
